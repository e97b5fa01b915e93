package graph

import (
	"github.com/paulmach/osm"

	"github.com/azybler/map_partitioner/pkg/geo"
	osmparser "github.com/azybler/map_partitioner/pkg/osm"
)

// Segment is an undirected road segment between dense node ids. Forward and
// Backward tell which traversals (U -> V, V -> U) exist.
type Segment struct {
	U, V     NodeID
	Forward  bool
	Backward bool
	LengthMM uint32
}

// Network is the node-based road graph: coordinates indexed by dense node id
// plus the segments between them.
type Network struct {
	Coordinates []geo.Coordinate
	OSMNodeIDs  []osm.NodeID // dense id -> OSM id
	Segments    []Segment
}

// NumberOfNodes returns the number of dense nodes.
func (n *Network) NumberOfNodes() int { return len(n.Coordinates) }

// BuildNetwork compacts OSM node ids into dense ids in first-seen order.
func BuildNetwork(result *osmparser.ParseResult) *Network {
	if len(result.Segments) == 0 {
		return &Network{}
	}

	dense := make(map[osm.NodeID]NodeID)
	net := &Network{Segments: make([]Segment, 0, len(result.Segments))}

	denseID := func(id osm.NodeID) NodeID {
		if d, ok := dense[id]; ok {
			return d
		}
		d := NodeID(len(net.OSMNodeIDs))
		dense[id] = d
		net.OSMNodeIDs = append(net.OSMNodeIDs, id)
		net.Coordinates = append(net.Coordinates, result.Coordinates[id])
		return d
	}

	for _, s := range result.Segments {
		net.Segments = append(net.Segments, Segment{
			U:        denseID(s.From),
			V:        denseID(s.To),
			Forward:  s.Forward,
			Backward: s.Backward,
			LengthMM: s.LengthMM,
		})
	}
	return net
}

// directedEdge is a traversal of a segment; the length is carried only to be
// discarded when adapting to the bisection edge shape.
type directedEdge struct {
	source, target NodeID
	lengthMM       uint32
}

// BisectionEdges returns both directions of every segment, regardless of
// oneway restrictions, grouped by source. Partitioning looks at connectivity,
// not at which way traffic may flow.
func (n *Network) BisectionEdges() []InputEdge {
	directed := make([]directedEdge, 0, 2*len(n.Segments))
	for _, s := range n.Segments {
		directed = append(directed,
			directedEdge{source: s.U, target: s.V, lengthMM: s.LengthMM},
			directedEdge{source: s.V, target: s.U, lengthMM: s.LengthMM},
		)
	}
	edges := AdaptToBisectionEdge(directed, func(e directedEdge) InputEdge {
		return InputEdge{Source: e.source, Target: e.target}
	})
	GroupEdgesBySource(edges)
	return edges
}

// BisectionGraph builds the BisectionGraph for the network.
func (n *Network) BisectionGraph() *BisectionGraph {
	return MakeBisectionGraph(n.Coordinates, n.BisectionEdges())
}
