package graph_test

import (
	"sync"
	"testing"

	"github.com/azybler/map_partitioner/internal/testutil"
	"github.com/azybler/map_partitioner/pkg/graph"
)

func TestViewRestrictsNodes(t *testing.T) {
	g := testutil.GridGraph(4, 4, 0.01)
	v := g.SubView(4, 12)

	if v.NumberOfNodes() != 8 {
		t.Fatalf("NumberOfNodes = %d, want 8", v.NumberOfNodes())
	}

	want := graph.NodeID(4)
	for id, n := range v.Nodes() {
		if id != want {
			t.Errorf("iterator id = %d, want %d", id, want)
		}
		if got := v.GetID(n); got != id {
			t.Errorf("GetID = %d, want global id %d", got, id)
		}
		want++
	}
	if want != 12 {
		t.Errorf("iteration stopped at %d, want 12", want)
	}
	if v.Contains(3) || !v.Contains(4) || !v.Contains(11) || v.Contains(12) {
		t.Error("Contains does not match [4, 12)")
	}
}

func TestViewEdgesAreUnrestricted(t *testing.T) {
	g := testutil.GridGraph(4, 4, 0.01)
	v := g.SubView(4, 8) // second row

	outside := 0
	for _, n := range v.Nodes() {
		if len(v.Edges(n)) != len(g.Edges(n)) {
			t.Errorf("view returned %d edges, graph %d", len(v.Edges(n)), len(g.Edges(n)))
		}
		for _, e := range v.Edges(n) {
			if !v.Contains(e.Target) {
				outside++
			}
		}
	}
	// Each of the 4 row nodes has one neighbour above and one below.
	if outside != 8 {
		t.Errorf("edges leaving the row = %d, want 8", outside)
	}
}

func TestViewGetIDPanicsOutsideRange(t *testing.T) {
	g := testutil.GridGraph(2, 2, 0.01)
	v := g.SubView(0, 2)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	v.GetID(g.Node(3))
}

func TestApplyBisectionKeepsIdentity(t *testing.T) {
	const cols = 4
	g := testutil.GridGraph(2, cols, 0.01)
	root := g.View()

	// Left half: column < 2.
	right := make([]bool, root.NumberOfNodes())
	for id, n := range root.Nodes() {
		right[id-root.Begin()] = int(n.OriginalID)%cols >= 2
	}

	left, rest := root.ApplyBisection(right)
	if left.NumberOfNodes() != 4 || rest.NumberOfNodes() != 4 {
		t.Fatalf("halves = %d/%d, want 4/4", left.NumberOfNodes(), rest.NumberOfNodes())
	}
	if left.End() != rest.Begin() || left.Begin() != 0 || rest.End() != 8 {
		t.Fatalf("halves [%d,%d) [%d,%d) do not tile [0,8)", left.Begin(), left.End(), rest.Begin(), rest.End())
	}

	// Stable: relative order of original ids is preserved on each side.
	wantLeft := []graph.NodeID{0, 1, 4, 5}
	wantRight := []graph.NodeID{2, 3, 6, 7}
	for i, id := range wantLeft {
		if got := g.Node(graph.NodeID(i)).OriginalID; got != id {
			t.Errorf("position %d holds original %d, want %d", i, got, id)
		}
	}
	for i, id := range wantRight {
		if got := g.Node(graph.NodeID(4 + i)).OriginalID; got != id {
			t.Errorf("position %d holds original %d, want %d", 4+i, got, id)
		}
	}

	for id, n := range g.Nodes() {
		if g.GetID(n) != id || g.GetID(g.Node(id)) != id {
			t.Errorf("GetID is not the inverse of Node after reorder at %d", id)
		}
	}

	// Edges inside the view now point at current positions.
	for id, n := range g.Nodes() {
		for _, e := range g.Edges(n) {
			target := g.Node(e.Target)
			du := int(n.OriginalID) - int(target.OriginalID)
			if du != 1 && du != -1 && du != cols && du != -cols {
				t.Errorf("edge %d -> %d connects originals %d and %d", id, e.Target, n.OriginalID, target.OriginalID)
			}
		}
	}
}

func TestResolveTargetsAfterNestedSplits(t *testing.T) {
	g := testutil.GridGraph(4, 4, 0.01)

	right := make([]bool, 16)
	for i := 8; i < 16; i++ {
		right[i] = i%2 == 0
	}
	for i := range 8 {
		right[i] = i%3 == 0
	}
	_, rest := g.View().ApplyBisection(right)

	rr := make([]bool, rest.NumberOfNodes())
	for i := range rr {
		rr[i] = i < len(rr)/2
	}
	rest.ApplyBisection(rr)

	g.ResolveTargets()
	for id, n := range g.Nodes() {
		for _, e := range g.Edges(n) {
			a, b := int(n.OriginalID), int(g.Node(e.Target).OriginalID)
			d := abs(a - b)
			if d != 1 && d != 4 {
				t.Errorf("after resolve, edge at %d connects originals %d and %d", id, a, b)
			}
		}
	}
}

func TestDisjointViewsConcurrently(t *testing.T) {
	g := testutil.GridGraph(16, 16, 0.01)
	views := []graph.View{g.SubView(0, 64), g.SubView(64, 128), g.SubView(128, 200), g.SubView(200, 256)}

	summarize := func(v graph.View) (ids, targets uint64) {
		for id, n := range v.Nodes() {
			ids += uint64(v.GetID(n)) + uint64(id)
			for _, e := range v.Edges(n) {
				targets += uint64(e.Target)
			}
		}
		return ids, targets
	}

	sequential := make([][2]uint64, len(views))
	for i, v := range views {
		sequential[i][0], sequential[i][1] = summarize(v)
	}

	concurrent := make([][2]uint64, len(views))
	var wg sync.WaitGroup
	for i, v := range views {
		wg.Add(1)
		go func() {
			defer wg.Done()
			concurrent[i][0], concurrent[i][1] = summarize(v)
		}()
	}
	wg.Wait()

	for i := range views {
		if sequential[i] != concurrent[i] {
			t.Errorf("view %d: sequential %v, concurrent %v", i, sequential[i], concurrent[i])
		}
	}
}
