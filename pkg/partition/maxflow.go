package partition

import "math"

const infiniteCapacity = math.MaxInt32 / 2

// flowNetwork is a residual graph for Dinic's algorithm. Arc a and its
// reverse arc a^1 are always added together.
type flowNetwork struct {
	adj      [][]int32
	to       []int32
	residual []int32

	level []int32
	next  []int
}

func newFlowNetwork(n int) *flowNetwork {
	return &flowNetwork{
		adj:   make([][]int32, n),
		level: make([]int32, n),
		next:  make([]int, n),
	}
}

func (f *flowNetwork) addArc(u, v, capacity int32) {
	f.adj[u] = append(f.adj[u], int32(len(f.to)))
	f.to = append(f.to, v)
	f.residual = append(f.residual, capacity)
	f.adj[v] = append(f.adj[v], int32(len(f.to)))
	f.to = append(f.to, u)
	f.residual = append(f.residual, 0)
}

// buildLevels runs the BFS phase and reports whether t is reachable.
func (f *flowNetwork) buildLevels(s, t int32) bool {
	for i := range f.level {
		f.level[i] = -1
	}
	f.level[s] = 0
	queue := []int32{s}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, a := range f.adj[u] {
			v := f.to[a]
			if f.residual[a] > 0 && f.level[v] < 0 {
				f.level[v] = f.level[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return f.level[t] >= 0
}

// augment pushes up to limit units along level-increasing arcs.
func (f *flowNetwork) augment(u, t, limit int32) int32 {
	if u == t {
		return limit
	}
	for ; f.next[u] < len(f.adj[u]); f.next[u]++ {
		a := f.adj[u][f.next[u]]
		v := f.to[a]
		if f.residual[a] <= 0 || f.level[v] != f.level[u]+1 {
			continue
		}
		if pushed := f.augment(v, t, min(limit, f.residual[a])); pushed > 0 {
			f.residual[a] -= pushed
			f.residual[a^1] += pushed
			return pushed
		}
	}
	return 0
}

// maxFlow returns the value of a maximum s-t flow and leaves the residual
// graph in its final state.
func (f *flowNetwork) maxFlow(s, t int32) int {
	total := 0
	for f.buildLevels(s, t) {
		for i := range f.next {
			f.next[i] = 0
		}
		for {
			pushed := f.augment(s, t, infiniteCapacity)
			if pushed == 0 {
				break
			}
			total += int(pushed)
		}
	}
	return total
}

// sourceSide marks nodes reachable from s in the residual graph.
func (f *flowNetwork) sourceSide(s int32) []bool {
	seen := make([]bool, len(f.adj))
	seen[s] = true
	stack := []int32{s}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range f.adj[u] {
			if v := f.to[a]; f.residual[a] > 0 && !seen[v] {
				seen[v] = true
				stack = append(stack, v)
			}
		}
	}
	return seen
}

// sinkSide marks nodes that can still reach t in the residual graph.
func (f *flowNetwork) sinkSide(t int32) []bool {
	seen := make([]bool, len(f.adj))
	seen[t] = true
	stack := []int32{t}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range f.adj[v] {
			// a runs v -> w, so a^1 runs w -> v.
			if w := f.to[a]; f.residual[a^1] > 0 && !seen[w] {
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}
	return seen
}
