package main

import (
	"fmt"

	"github.com/azybler/map_partitioner/pkg/config"
)

// Preset regions.
var (
	singaporeBBox = config.BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
	klBBox        = config.BBox{MinLat: 2.75, MaxLat: 3.5, MinLng: 101.2, MaxLng: 102.0}
)

// parseBBox reads "minLat,minLng,maxLat,maxLng".
func parseBBox(s string) (*config.BBox, error) {
	var b config.BBox
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &b.MinLat, &b.MinLng, &b.MaxLat, &b.MaxLng); err != nil {
		return nil, fmt.Errorf("invalid bbox %q (expected minLat,minLng,maxLat,maxLng): %w", s, err)
	}
	if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return nil, fmt.Errorf("invalid bbox %q: min must be below max", s)
	}
	return &b, nil
}

// selectBBox applies the region flags in priority order: --kl, --singapore,
// --bbox. It returns nil when none is set.
func selectBBox(kl, singapore bool, bbox string) (*config.BBox, error) {
	switch {
	case kl:
		b := klBBox
		return &b, nil
	case singapore:
		b := singaporeBBox
		return &b, nil
	case bbox != "":
		return parseBBox(bbox)
	}
	return nil, nil
}
