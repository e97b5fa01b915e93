// Package facade exposes a finished partition read-only to consumers such as
// debug tile rendering.
package facade

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/tidwall/rtree"

	"github.com/azybler/map_partitioner/pkg/geo"
	"github.com/azybler/map_partitioner/pkg/graph"
	"github.com/azybler/map_partitioner/pkg/partition"
)

// DataFacade is the read-only query surface over a partitioned graph. Node ids
// are final physical positions.
type DataFacade interface {
	NumberOfNodes() int
	Coordinate(id graph.NodeID) geo.Coordinate
	Edges(id graph.NodeID) []graph.Edge
	CellID(id graph.NodeID) partition.CellID
	NodesInBound(b orb.Bound) []graph.NodeID
	NodesInTile(t maptile.Tile) []graph.NodeID
}

// PartitionFacade implements DataFacade over a partition.Result.
type PartitionFacade struct {
	result *partition.Result
	index  rtree.RTreeG[graph.NodeID]
}

var _ DataFacade = (*PartitionFacade)(nil)

// NewPartitionFacade indexes the nodes of a finished run. Run must have
// returned before this is called; the facade never sees a graph that is still
// being reordered.
func NewPartitionFacade(result *partition.Result) *PartitionFacade {
	f := &PartitionFacade{result: result}
	for id, node := range result.Graph.Nodes() {
		p := [2]float64{node.Coordinate.Lon, node.Coordinate.Lat}
		f.index.Insert(p, p, id)
	}
	return f
}

// NumberOfNodes returns the number of nodes.
func (f *PartitionFacade) NumberOfNodes() int { return f.result.Graph.NumberOfNodes() }

// Coordinate returns the position of node id.
func (f *PartitionFacade) Coordinate(id graph.NodeID) geo.Coordinate {
	return f.result.Graph.Node(id).Coordinate
}

// Edges returns the outgoing edges of node id. The slice must not be modified.
func (f *PartitionFacade) Edges(id graph.NodeID) []graph.Edge {
	return f.result.Graph.EdgesOf(id)
}

// CellID returns the cell of node id.
func (f *PartitionFacade) CellID(id graph.NodeID) partition.CellID {
	return f.result.CellOf(id)
}

// NodesInBound returns the ids of nodes inside b in ascending order.
func (f *PartitionFacade) NodesInBound(b orb.Bound) []graph.NodeID {
	var ids []graph.NodeID
	f.index.Search(
		[2]float64{b.Min.Lon(), b.Min.Lat()},
		[2]float64{b.Max.Lon(), b.Max.Lat()},
		func(_, _ [2]float64, id graph.NodeID) bool {
			ids = append(ids, id)
			return true
		},
	)
	slices.Sort(ids)
	return ids
}

// NodesInTile returns the ids of nodes inside the web mercator tile t.
func (f *PartitionFacade) NodesInTile(t maptile.Tile) []graph.NodeID {
	return f.NodesInBound(t.Bound())
}
