// Package testutil builds synthetic road networks for tests.
package testutil

import (
	"math/rand/v2"

	"github.com/azybler/map_partitioner/pkg/geo"
	"github.com/azybler/map_partitioner/pkg/graph"
)

// GridEdge is a grid edge with a payload field that the bisection graph
// adaptation drops.
type GridEdge struct {
	Source, Target graph.NodeID
	Weight         uint32
}

// GridCoordinates lays out rows*cols nodes row by row, step degrees apart,
// starting at (lonBase, latBase). Node id r*cols+c sits in row r, column c.
func GridCoordinates(rows, cols int, step, lonBase, latBase float64) []geo.Coordinate {
	coords := make([]geo.Coordinate, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			coords = append(coords, geo.Coordinate{
				Lon: lonBase + float64(c)*step,
				Lat: latBase + float64(r)*step,
			})
		}
	}
	return coords
}

// GridEdges connects every grid node to its 4 neighbours in both directions.
// Ids are offset by idBase.
func GridEdges(rows, cols int, idBase graph.NodeID) []GridEdge {
	id := func(r, c int) graph.NodeID { return idBase + graph.NodeID(r*cols+c) }

	var edges []GridEdge
	for r := range rows {
		for c := range cols {
			if c > 0 {
				edges = append(edges, GridEdge{Source: id(r, c), Target: id(r, c-1), Weight: 1})
			}
			if c+1 < cols {
				edges = append(edges, GridEdge{Source: id(r, c), Target: id(r, c+1), Weight: 1})
			}
			if r > 0 {
				edges = append(edges, GridEdge{Source: id(r, c), Target: id(r-1, c), Weight: 1})
			}
			if r+1 < rows {
				edges = append(edges, GridEdge{Source: id(r, c), Target: id(r+1, c), Weight: 1})
			}
		}
	}
	return edges
}

// Shuffle permutes edges with a fixed seed.
func Shuffle(edges []GridEdge, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })
}

// GridGraph builds a BisectionGraph for a rows x cols grid anchored at (0, 0)
// from shuffled and regrouped edges.
func GridGraph(rows, cols int, step float64) *graph.BisectionGraph {
	return GridGraphAt(rows, cols, step, 0, 0)
}

// GridGraphAt is GridGraph anchored at (lonBase, latBase).
func GridGraphAt(rows, cols int, step, lonBase, latBase float64) *graph.BisectionGraph {
	edges := GridEdges(rows, cols, 0)
	Shuffle(edges, uint64(rows*cols))
	input := graph.AdaptToBisectionEdge(edges, func(e GridEdge) graph.InputEdge {
		return graph.InputEdge{Source: e.Source, Target: e.Target}
	})
	graph.GroupEdgesBySource(input)
	return graph.MakeBisectionGraph(GridCoordinates(rows, cols, step, lonBase, latBase), input)
}
