package graph

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"unsafe"

	"github.com/azybler/map_partitioner/pkg/geo"
)

// Node is a BisectionGraph node. It carries its own edge range so that it can
// be moved inside the node array without touching the edge array.
type Node struct {
	Coordinate geo.Coordinate
	OriginalID NodeID // id at construction time

	edgesBegin uint32
	edgesEnd   uint32
}

// Edge is an outgoing edge. Target is the current position of the target node
// for every edge whose endpoints have not been separated by a bisection.
type Edge struct {
	Target NodeID

	original NodeID // OriginalID of the target
}

// BisectionGraph is a CSR graph over a node array that may be permuted in
// place by recursive bisection. Edges are never added or removed after
// construction.
type BisectionGraph struct {
	nodes []Node
	edges []Edge
}

// AdaptToBisectionEdge converts arbitrary edges to the minimal edge shape.
func AdaptToBisectionEdge[E any](edges []E, adapt func(E) InputEdge) []InputEdge {
	out := make([]InputEdge, len(edges))
	for i, e := range edges {
		out[i] = adapt(e)
	}
	return out
}

// GroupEdgesBySource stable-sorts edges by source so that every node's
// outgoing edges are contiguous and in ascending source order.
func GroupEdgesBySource(edges []InputEdge) {
	slices.SortStableFunc(edges, func(a, b InputEdge) int {
		return cmp.Compare(a.Source, b.Source)
	})
}

// MakeBisectionGraph builds the graph in O(N+E). Node i receives coordinate i.
//
// edges must already be grouped by source (see GroupEdgesBySource). Ungrouped
// input is not detected and yields wrong edge ranges. Every target must be a
// valid node id; a target out of range panics.
func MakeBisectionGraph(coords []geo.Coordinate, edges []InputEdge) *BisectionGraph {
	n := len(coords)
	nodes := make([]Node, n)
	out := make([]Edge, len(edges))

	for i, e := range edges {
		if int(e.Target) >= n {
			panic(fmt.Sprintf("graph: edge %d target %d out of range [0, %d)", i, e.Target, n))
		}
		out[i] = Edge{Target: e.Target, original: e.Target}
	}

	next := 0
	for id := range nodes {
		begin := next
		for next < len(edges) && edges[next].Source == NodeID(id) {
			next++
		}
		nodes[id] = Node{
			Coordinate: coords[id],
			OriginalID: NodeID(id),
			edgesBegin: uint32(begin),
			edgesEnd:   uint32(next),
		}
	}

	return &BisectionGraph{nodes: nodes, edges: out}
}

// NumberOfNodes returns N.
func (g *BisectionGraph) NumberOfNodes() int { return len(g.nodes) }

// NumberOfEdges returns the number of directed edges.
func (g *BisectionGraph) NumberOfEdges() int { return len(g.edges) }

// Node returns the node currently stored at id.
func (g *BisectionGraph) Node(id NodeID) *Node { return &g.nodes[id] }

// GetID recovers the current position of n in O(1) from its address relative
// to the node array. n must point into this graph.
func (g *BisectionGraph) GetID(n *Node) NodeID {
	if len(g.nodes) == 0 || n == nil {
		panic("graph: GetID on a node outside the graph")
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(g.nodes)))
	addr := uintptr(unsafe.Pointer(n))
	size := unsafe.Sizeof(Node{})
	if addr < base || (addr-base)%size != 0 || (addr-base)/size >= uintptr(len(g.nodes)) {
		panic("graph: GetID on a node outside the graph")
	}
	return NodeID((addr - base) / size)
}

// Nodes iterates all nodes in their current physical order.
func (g *BisectionGraph) Nodes() iter.Seq2[NodeID, *Node] {
	return g.View().Nodes()
}

// Edges returns the outgoing edges of n.
func (g *BisectionGraph) Edges(n *Node) []Edge {
	return g.edges[n.edgesBegin:n.edgesEnd:n.edgesEnd]
}

// EdgesOf returns the outgoing edges of the node at id.
func (g *BisectionGraph) EdgesOf(id NodeID) []Edge {
	return g.Edges(&g.nodes[id])
}

// View returns a GraphView over the whole node array.
func (g *BisectionGraph) View() View {
	return View{graph: g, begin: 0, end: NodeID(len(g.nodes))}
}

// SubView returns a GraphView over [begin, end).
func (g *BisectionGraph) SubView(begin, end NodeID) View {
	if begin > end || int(end) > len(g.nodes) {
		panic(fmt.Sprintf("graph: view [%d, %d) out of range [0, %d)", begin, end, len(g.nodes)))
	}
	return View{graph: g, begin: begin, end: end}
}

// ResolveTargets rewrites every edge target to the current position of its
// target node. Recursive bisection only keeps targets current inside each
// view, so it calls this once after the whole run has finished.
func (g *BisectionGraph) ResolveTargets() {
	pos := make([]NodeID, len(g.nodes))
	for i := range g.nodes {
		pos[g.nodes[i].OriginalID] = NodeID(i)
	}
	for i := range g.edges {
		g.edges[i].Target = pos[g.edges[i].original]
	}
}
