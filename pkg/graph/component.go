package graph

import (
	"github.com/paulmach/osm"

	"github.com/azybler/map_partitioner/pkg/geo"
)

// UnionFind is a disjoint-set forest with path halving and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // max rank stays below 32 for any realistic size
	size   []uint32
}

// NewUnionFind creates a UnionFind over n singleton sets.
func NewUnionFind(n int) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range parent {
		parent[i] = uint32(i)
		size[i] = 1
	}
	return &UnionFind{parent: parent, rank: make([]byte, n), size: size}
}

// Find returns the representative of x's set.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets of x and y. It returns false if they were already
// merged.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the size of x's set.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// LargestComponent returns, in ascending order, the nodes of the network's
// largest connected component. Ties go to the component containing the
// lowest node id.
func LargestComponent(n *Network) []NodeID {
	num := n.NumberOfNodes()
	if num == 0 {
		return nil
	}

	uf := NewUnionFind(num)
	for _, s := range n.Segments {
		uf.Union(uint32(s.U), uint32(s.V))
	}

	var bestRoot, bestSize uint32
	for i := range uint32(num) {
		if size := uf.Size(i); size > bestSize {
			bestRoot, bestSize = uf.Find(i), size
		}
	}

	nodes := make([]NodeID, 0, bestSize)
	for i := range uint32(num) {
		if uf.Find(i) == bestRoot {
			nodes = append(nodes, NodeID(i))
		}
	}
	return nodes
}

// FilterToComponent returns a network restricted to nodes, renumbered in the
// given order. Segments with an endpoint outside nodes are dropped.
func FilterToComponent(n *Network, nodes []NodeID) *Network {
	if len(nodes) == 0 {
		return &Network{}
	}

	oldToNew := make([]NodeID, n.NumberOfNodes())
	for i := range oldToNew {
		oldToNew[i] = SpecialNodeID
	}
	out := &Network{
		Coordinates: make([]geo.Coordinate, len(nodes)),
		OSMNodeIDs:  make([]osm.NodeID, len(nodes)),
	}
	for newID, oldID := range nodes {
		oldToNew[oldID] = NodeID(newID)
		out.Coordinates[newID] = n.Coordinates[oldID]
		if n.OSMNodeIDs != nil {
			out.OSMNodeIDs[newID] = n.OSMNodeIDs[oldID]
		}
	}

	for _, s := range n.Segments {
		u, v := oldToNew[s.U], oldToNew[s.V]
		if u == SpecialNodeID || v == SpecialNodeID {
			continue
		}
		s.U, s.V = u, v
		out.Segments = append(out.Segments, s)
	}
	return out
}
