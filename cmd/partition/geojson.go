package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/azybler/map_partitioner/pkg/facade"
	"github.com/azybler/map_partitioner/pkg/graph"
	"github.com/azybler/map_partitioner/pkg/partition"
)

// parseTile reads "z/x/y".
func parseTile(s string) (maptile.Tile, error) {
	var z, x, y uint32
	if _, err := fmt.Sscanf(s, "%d/%d/%d", &z, &x, &y); err != nil {
		return maptile.Tile{}, fmt.Errorf("invalid tile %q (expected z/x/y): %w", s, err)
	}
	if z > 32 || (z < 32 && (x >= 1<<z || y >= 1<<z)) {
		return maptile.Tile{}, fmt.Errorf("invalid tile %q: out of range", s)
	}
	return maptile.New(x, y, maptile.Zoom(z)), nil
}

// cellFeatures groups the given nodes by cell into one MultiPoint feature per
// cell, ordered by cell id.
func cellFeatures(f facade.DataFacade, maxDepth int, ids []graph.NodeID, depthOf func(graph.NodeID) int) *geojson.FeatureCollection {
	byCell := make(map[partition.CellID]orb.MultiPoint)
	depth := make(map[partition.CellID]int)
	for _, id := range ids {
		c := f.CellID(id)
		byCell[c] = append(byCell[c], f.Coordinate(id).Point())
		depth[c] = depthOf(id)
	}

	cells := make([]partition.CellID, 0, len(byCell))
	for c := range byCell {
		cells = append(cells, c)
	}
	slices.Sort(cells)

	fc := geojson.NewFeatureCollection()
	for _, c := range cells {
		feat := geojson.NewFeature(byCell[c])
		feat.Properties["cell"] = c.Format(depth[c], maxDepth)
		feat.Properties["depth"] = depth[c]
		feat.Properties["nodes"] = len(byCell[c])
		fc.Append(feat)
	}
	return fc
}

// writeGeoJSON exports the partition nodes, optionally restricted to one tile,
// for visual inspection.
func writeGeoJSON(path string, res *partition.Result, tile string) (int, error) {
	f := facade.NewPartitionFacade(res)

	var ids []graph.NodeID
	if tile != "" {
		t, err := parseTile(tile)
		if err != nil {
			return 0, err
		}
		ids = f.NodesInTile(t)
	} else {
		ids = make([]graph.NodeID, f.NumberOfNodes())
		for i := range ids {
			ids[i] = graph.NodeID(i)
		}
	}

	depthOf := func(id graph.NodeID) int { return int(res.Depth[res.Order[id]]) }
	fc := cellFeatures(f, res.MaxDepth, ids, depthOf)
	data, err := fc.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("encode geojson: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write geojson: %w", err)
	}
	return len(fc.Features), nil
}
