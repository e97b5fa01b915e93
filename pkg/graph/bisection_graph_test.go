package graph_test

import (
	"testing"

	"github.com/azybler/map_partitioner/internal/testutil"
	"github.com/azybler/map_partitioner/pkg/geo"
	"github.com/azybler/map_partitioner/pkg/graph"
)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestAccessNodes(t *testing.T) {
	const (
		rows = 10
		cols = 4
		step = 0.01
	)
	coords := testutil.GridCoordinates(rows, cols, step, 0, 0)
	g := graph.MakeBisectionGraph(coords, nil)

	if g.NumberOfNodes() != 40 {
		t.Fatalf("NumberOfNodes = %d, want 40", g.NumberOfNodes())
	}

	expected := func(id graph.NodeID) geo.Coordinate {
		return geo.Coordinate{Lon: float64(int(id)%cols) * step, Lat: float64(int(id)/cols) * step}
	}

	want := graph.NodeID(0)
	for id, node := range g.Nodes() {
		if got := g.GetID(node); got != id || got != want {
			t.Errorf("GetID = %d, iterator id = %d, want %d", got, id, want)
		}
		if node.Coordinate != expected(id) {
			t.Errorf("node %d coordinate = %+v, want %+v", id, node.Coordinate, expected(id))
		}
		want++
	}
	if want != 40 {
		t.Errorf("iterated %d nodes, want 40", want)
	}

	for id := graph.NodeID(0); id < 40; id++ {
		if got := g.GetID(g.Node(id)); got != id {
			t.Errorf("GetID(Node(%d)) = %d", id, got)
		}
		if len(g.EdgesOf(id)) != 0 {
			t.Errorf("node %d has edges in an edgeless graph", id)
		}
	}
}

func TestAccessEdges(t *testing.T) {
	const (
		rows = 10
		cols = 4
	)
	g := testutil.GridGraph(rows, cols, 0.01)

	if g.NumberOfNodes() != 40 {
		t.Fatalf("NumberOfNodes = %d, want 40", g.NumberOfNodes())
	}
	// 2 * (rows*(cols-1) + cols*(rows-1)) directed edges.
	if g.NumberOfEdges() != 2*(rows*(cols-1)+cols*(rows-1)) {
		t.Fatalf("NumberOfEdges = %d", g.NumberOfEdges())
	}

	toRow := func(id graph.NodeID) int { return int(id) / cols }
	toCol := func(id graph.NodeID) int { return int(id) % cols }

	for _, node := range g.Nodes() {
		id := g.GetID(node)
		byNode := g.Edges(node)
		byID := g.EdgesOf(id)
		if len(byNode) != len(byID) {
			t.Errorf("node %d: Edges = %d entries, EdgesOf = %d", id, len(byNode), len(byID))
		}
		for _, e := range byNode {
			if int(e.Target) >= g.NumberOfNodes() {
				t.Errorf("edge %d -> %d: target out of range", id, e.Target)
			}
			if abs(toRow(id)-toRow(e.Target)) > 1 || abs(toCol(id)-toCol(e.Target)) > 1 {
				t.Errorf("edge %d -> %d is not a grid neighbour", id, e.Target)
			}
		}
	}
}

func TestAdaptDropsPayload(t *testing.T) {
	edges := []testutil.GridEdge{{Source: 1, Target: 0, Weight: 42}, {Source: 0, Target: 1, Weight: 7}}
	input := graph.AdaptToBisectionEdge(edges, func(e testutil.GridEdge) graph.InputEdge {
		return graph.InputEdge{Source: e.Source, Target: e.Target}
	})
	graph.GroupEdgesBySource(input)

	want := []graph.InputEdge{{Source: 0, Target: 1}, {Source: 1, Target: 0}}
	for i := range want {
		if input[i] != want[i] {
			t.Errorf("input[%d] = %+v, want %+v", i, input[i], want[i])
		}
	}
}

func TestGroupEdgesBySourceIsStable(t *testing.T) {
	edges := []graph.InputEdge{
		{Source: 2, Target: 9},
		{Source: 0, Target: 5},
		{Source: 2, Target: 1},
		{Source: 0, Target: 3},
	}
	graph.GroupEdgesBySource(edges)
	want := []graph.InputEdge{
		{Source: 0, Target: 5},
		{Source: 0, Target: 3},
		{Source: 2, Target: 9},
		{Source: 2, Target: 1},
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edges[%d] = %+v, want %+v", i, edges[i], want[i])
		}
	}
}

func TestSelfLoopsAndDuplicatesKept(t *testing.T) {
	coords := testutil.GridCoordinates(1, 2, 0.01, 0, 0)
	edges := []graph.InputEdge{{Source: 0, Target: 0}, {Source: 0, Target: 1}, {Source: 0, Target: 1}}
	g := graph.MakeBisectionGraph(coords, edges)

	if got := len(g.EdgesOf(0)); got != 3 {
		t.Errorf("node 0 has %d edges, want 3", got)
	}
	if got := len(g.EdgesOf(1)); got != 0 {
		t.Errorf("node 1 has %d edges, want 0", got)
	}
}

func TestMakeBisectionGraphPanicsOnBadTarget(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out of range target")
		}
	}()
	graph.MakeBisectionGraph(testutil.GridCoordinates(1, 2, 0.01, 0, 0), []graph.InputEdge{{Source: 0, Target: 2}})
}

func TestGetIDPanicsOnForeignNode(t *testing.T) {
	g := testutil.GridGraph(2, 2, 0.01)
	var foreign graph.Node

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for node outside the graph")
		}
	}()
	g.GetID(&foreign)
}
