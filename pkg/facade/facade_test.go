package facade

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azybler/map_partitioner/internal/testutil"
	"github.com/azybler/map_partitioner/pkg/geo"
	"github.com/azybler/map_partitioner/pkg/graph"
	"github.com/azybler/map_partitioner/pkg/partition"
)

func partitionedGrid(t *testing.T) *partition.Result {
	t.Helper()
	g := testutil.GridGraphAt(10, 10, 0.01, 0.5, 0.5)
	state, err := partition.NewRecursiveBisectionState(g, partition.NewInertialFlow(),
		partition.Config{MaxDepth: 4, MinCellSize: 4, Epsilon: 0.25})
	require.NoError(t, err)
	res, err := state.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestFacadeLookups(t *testing.T) {
	res := partitionedGrid(t)
	f := NewPartitionFacade(res)

	require.Equal(t, 100, f.NumberOfNodes())
	for id := range graph.NodeID(100) {
		orig := res.Order[id]
		want := geo.Coordinate{Lon: 0.5 + float64(orig%10)*0.01, Lat: 0.5 + float64(orig/10)*0.01}
		assert.InDelta(t, want.Lon, f.Coordinate(id).Lon, 1e-12)
		assert.InDelta(t, want.Lat, f.Coordinate(id).Lat, 1e-12)
		assert.Equal(t, res.CellIDs[orig], f.CellID(id))
		for _, e := range f.Edges(id) {
			assert.Less(t, int(e.Target), 100)
		}
	}
}

func TestFacadeNodesInBound(t *testing.T) {
	res := partitionedGrid(t)
	f := NewPartitionFacade(res)

	// Columns 0-2 of rows 0-1.
	b := orb.Bound{Min: orb.Point{0.499, 0.499}, Max: orb.Point{0.521, 0.511}}
	ids := f.NodesInBound(b)
	require.Len(t, ids, 6)

	var originals []graph.NodeID
	for i, id := range ids {
		if i > 0 {
			assert.Less(t, ids[i-1], id)
		}
		assert.True(t, b.Contains(f.Coordinate(id).Point()))
		originals = append(originals, res.Order[id])
	}
	assert.ElementsMatch(t, []graph.NodeID{0, 1, 2, 10, 11, 12}, originals)

	assert.Empty(t, f.NodesInBound(orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{6, 6}}))
}

func TestFacadeNodesInTile(t *testing.T) {
	f := NewPartitionFacade(partitionedGrid(t))

	// The grid spans [0.5, 0.59] in both axes, well inside one z8 tile.
	tile := maptile.At(orb.Point{0.545, 0.545}, 8)
	assert.Len(t, f.NodesInTile(tile), 100)

	far := maptile.At(orb.Point{100, 40}, 8)
	assert.Empty(t, f.NodesInTile(far))
}
