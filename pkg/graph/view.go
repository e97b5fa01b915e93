package graph

import (
	"fmt"
	"iter"
)

// View is a non-owning window [begin, end) over a BisectionGraph's node array.
// Creating one is O(1). Views over disjoint ranges touch disjoint memory and
// may be used from different goroutines without synchronization.
//
// Ids accepted and returned by a View are global node ids, not offsets into
// the window. Edge access is not restricted: edges leaving the window are
// returned like any other.
type View struct {
	graph *BisectionGraph
	begin NodeID
	end   NodeID
}

// Graph returns the underlying graph.
func (v View) Graph() *BisectionGraph { return v.graph }

// Begin returns the first global id in the view.
func (v View) Begin() NodeID { return v.begin }

// End returns one past the last global id in the view.
func (v View) End() NodeID { return v.end }

// NumberOfNodes returns end - begin.
func (v View) NumberOfNodes() int { return int(v.end - v.begin) }

// Contains reports whether the global id lies inside the view.
func (v View) Contains(id NodeID) bool { return id >= v.begin && id < v.end }

// Node returns the node at global id, which must lie inside the view.
func (v View) Node(id NodeID) *Node {
	if !v.Contains(id) {
		panic(fmt.Sprintf("graph: node %d outside view [%d, %d)", id, v.begin, v.end))
	}
	return &v.graph.nodes[id]
}

// GetID returns the global id of n.
func (v View) GetID(n *Node) NodeID {
	id := v.graph.GetID(n)
	if !v.Contains(id) {
		panic(fmt.Sprintf("graph: node %d outside view [%d, %d)", id, v.begin, v.end))
	}
	return id
}

// Nodes iterates the view's nodes with their global ids.
func (v View) Nodes() iter.Seq2[NodeID, *Node] {
	return func(yield func(NodeID, *Node) bool) {
		for id := v.begin; id < v.end; id++ {
			if !yield(id, &v.graph.nodes[id]) {
				return
			}
		}
	}
}

// Edges returns all outgoing edges of n, including those leaving the view.
func (v View) Edges(n *Node) []Edge {
	return v.graph.Edges(n)
}

// Split divides the view at global id mid into [begin, mid) and [mid, end).
func (v View) Split(mid NodeID) (left, right View) {
	if mid < v.begin || mid > v.end {
		panic(fmt.Sprintf("graph: split at %d outside view [%d, %d)", mid, v.begin, v.end))
	}
	return View{graph: v.graph, begin: v.begin, end: mid}, View{graph: v.graph, begin: mid, end: v.end}
}

// ApplyBisection stable-partitions the view's nodes so that every node whose
// local index i has right[i] == false comes first, rewrites the targets of
// edges that stay inside the view, and returns both halves.
//
// This is the only operation that mutates the node array. The caller must hold
// exclusive access to the view and must not read it again once the halves have
// been handed to other goroutines.
func (v View) ApplyBisection(right []bool) (left, rest View) {
	n := v.NumberOfNodes()
	if len(right) != n {
		panic(fmt.Sprintf("graph: bisection of %d nodes applied to view of %d", len(right), n))
	}

	nodes := v.graph.nodes[v.begin:v.end]
	newLocal := make([]NodeID, n)
	mid := NodeID(0)
	for i := range nodes {
		if !right[i] {
			newLocal[i] = mid
			mid++
		}
	}
	next := mid
	for i := range nodes {
		if right[i] {
			newLocal[i] = next
			next++
		}
	}

	scratch := make([]Node, n)
	for i := range nodes {
		scratch[newLocal[i]] = nodes[i]
	}
	copy(nodes, scratch)

	for i := range nodes {
		edges := v.graph.Edges(&nodes[i])
		for j := range edges {
			if t := edges[j].Target; v.Contains(t) {
				edges[j].Target = v.begin + newLocal[t-v.begin]
			}
		}
	}

	return View{graph: v.graph, begin: v.begin, end: v.begin + mid},
		View{graph: v.graph, begin: v.begin + mid, end: v.end}
}
