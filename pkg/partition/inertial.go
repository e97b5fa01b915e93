package partition

import (
	"cmp"
	"math"
	"slices"

	"github.com/azybler/map_partitioner/pkg/geo"
	"github.com/azybler/map_partitioner/pkg/graph"
)

// InertialFlow bisects a view by projecting its nodes onto several lines,
// taking the extremal nodes of each projection as source and sink sets and
// cutting between them with a unit capacity max flow.
type InertialFlow struct {
	NumDirections  int     // lines, evenly spaced over [0, pi)
	SourceSinkRate float64 // fraction of nodes in each of the source and sink sets
}

// NewInertialFlow returns an InertialFlow with 4 directions and a 25% source
// and sink rate.
func NewInertialFlow() *InertialFlow {
	return &InertialFlow{NumDirections: 4, SourceSinkRate: 0.25}
}

// localGraph is the view restricted to edges with both ends inside it, in
// local indices. Self loops are dropped.
type localGraph struct {
	adj   [][]int32
	edges int
}

func buildLocalGraph(view graph.View) localGraph {
	begin := view.Begin()
	lg := localGraph{adj: make([][]int32, view.NumberOfNodes())}
	for id, node := range view.Nodes() {
		u := int32(id - begin)
		for _, e := range view.Edges(node) {
			if !view.Contains(e.Target) || e.Target == id {
				continue
			}
			lg.adj[u] = append(lg.adj[u], int32(e.Target-begin))
			lg.edges++
		}
	}
	return lg
}

// Bisect implements Bisector.
func (f *InertialFlow) Bisect(view graph.View, epsilon float64) (*Bisection, error) {
	n := view.NumberOfNodes()
	if n < 2 {
		return nil, ErrNotSplittable
	}

	lg := buildLocalGraph(view)
	if lg.edges == 0 {
		right := make([]bool, n)
		for i := n / 2; i < n; i++ {
			right[i] = true
		}
		return evaluate(view, right, epsilon), nil
	}

	var candidates [][]bool
	for _, order := range f.projections(view) {
		candidates = append(candidates, f.flowCuts(lg, order)...)
		candidates = append(candidates, medianSplit(order))
	}
	if packed, ok := packComponents(lg); ok {
		candidates = append(candidates, packed)
	}

	return pick(view, candidates, epsilon), nil
}

// projections returns, for each direction, the view's local indices sorted by
// their position along that direction. Ties go to the lower index.
func (f *InertialFlow) projections(view graph.View) [][]int32 {
	n := view.NumberOfNodes()
	coords := make([]geo.Coordinate, 0, n)
	for _, node := range view.Nodes() {
		coords = append(coords, node.Coordinate)
	}
	proj := geo.NewProjection(geo.FromPoint(geo.Bound(coords).Center()))

	directions := max(f.NumDirections, 1)
	orders := make([][]int32, directions)
	pos := make([]float64, n)
	for d := range directions {
		theta := math.Pi * float64(d) / float64(directions)
		for i, c := range coords {
			pos[i] = proj.Along(c, theta)
		}
		order := make([]int32, n)
		for i := range order {
			order[i] = int32(i)
		}
		slices.SortFunc(order, func(a, b int32) int {
			if c := cmp.Compare(pos[a], pos[b]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		orders[d] = order
	}
	return orders
}

// flowCuts returns the source side and the sink side minimum cuts between the
// first and last nodes of order.
func (f *InertialFlow) flowCuts(lg localGraph, order []int32) [][]bool {
	n := len(order)
	k := int(f.SourceSinkRate * float64(n))
	k = min(max(k, 1), n/2)

	s, t := int32(n), int32(n+1)
	net := newFlowNetwork(n + 2)
	for u, targets := range lg.adj {
		for _, v := range targets {
			net.addArc(int32(u), v, 1)
		}
	}
	for _, u := range order[:k] {
		net.addArc(s, u, infiniteCapacity)
	}
	for _, u := range order[n-k:] {
		net.addArc(u, t, infiniteCapacity)
	}
	net.maxFlow(s, t)

	reach := net.sourceSide(s)
	fromSource := make([]bool, n)
	for i := range fromSource {
		fromSource[i] = !reach[i]
	}
	toSink := net.sinkSide(t)[:n:n]
	return [][]bool{fromSource, toSink}
}

// medianSplit puts the upper half of order on the right.
func medianSplit(order []int32) []bool {
	right := make([]bool, len(order))
	for _, u := range order[len(order)/2:] {
		right[u] = true
	}
	return right
}

// packComponents assigns whole connected components to sides, largest first,
// each to the currently smaller side. It reports false for a connected view.
func packComponents(lg localGraph) ([]bool, bool) {
	n := len(lg.adj)
	uf := graph.NewUnionFind(n)
	for u, targets := range lg.adj {
		for _, v := range targets {
			uf.Union(uint32(u), uint32(v))
		}
	}

	type component struct {
		root, first, size uint32
	}
	var comps []component
	index := make(map[uint32]int)
	for u := range uint32(n) {
		root := uf.Find(u)
		if i, ok := index[root]; ok {
			comps[i].size++
			continue
		}
		index[root] = len(comps)
		comps = append(comps, component{root: root, first: u, size: 1})
	}
	if len(comps) < 2 {
		return nil, false
	}
	slices.SortFunc(comps, func(a, b component) int {
		if c := cmp.Compare(b.size, a.size); c != 0 {
			return c
		}
		return cmp.Compare(a.first, b.first)
	})

	side := make(map[uint32]bool, len(comps))
	var left, right uint32
	for _, c := range comps {
		if right < left {
			side[c.root] = true
			right += c.size
		} else {
			left += c.size
		}
	}
	out := make([]bool, n)
	for u := range uint32(n) {
		out[u] = side[uf.Find(u)]
	}
	return out, true
}

// pick evaluates every candidate and returns the best one. Balanced candidates
// win by fewest cut edges, then smaller imbalance, then lower index. Without a
// balanced candidate the smallest imbalance wins, then fewest cut edges, and
// the result is flagged degraded.
func pick(view graph.View, candidates [][]bool, epsilon float64) *Bisection {
	var best *Bisection
	for _, right := range candidates {
		b := evaluate(view, right, epsilon)
		if b.LeftSize == 0 || b.RightSize() == 0 {
			continue
		}
		if best == nil || better(b, best) {
			best = b
		}
	}
	return best
}

// better reports whether a beats b. Candidates are visited in index order, so
// equal scores keep the earlier one.
func better(a, b *Bisection) bool {
	if a.Degraded != b.Degraded {
		return !a.Degraded
	}
	if !a.Degraded {
		if a.CutEdges != b.CutEdges {
			return a.CutEdges < b.CutEdges
		}
		return a.Imbalance < b.Imbalance
	}
	if a.Imbalance != b.Imbalance {
		return a.Imbalance < b.Imbalance
	}
	return a.CutEdges < b.CutEdges
}
