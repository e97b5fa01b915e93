// Package osm extracts the drivable road network from OpenStreetMap PBF data.
package osm

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/azybler/map_partitioner/pkg/geo"
)

// Segment is one road segment between two consecutive way nodes. Direction
// flags are relative to From -> To.
type Segment struct {
	WayID    osm.WayID
	From     osm.NodeID
	To       osm.NodeID
	Forward  bool
	Backward bool
	LengthMM uint32
}

// ParseResult holds the road segments and the coordinates of every node they
// reference.
type ParseResult struct {
	Segments    []Segment
	Coordinates map[osm.NodeID]geo.Coordinate
}

// drivableHighways lists highway tag values accessible by car.
var drivableHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// isCarAccessible reports whether the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	if !drivableHighways[tags.Find("highway")] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	switch tags.Find("access") {
	case "no", "private":
		return false
	}
	return tags.Find("motor_vehicle") != "no"
}

// directionFlags returns (forward, backward) from highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward, backward = true, true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		return true, false
	case "-1", "reverse":
		return false, true
	case "no":
		return true, true
	case "reversible":
		// Time dependent, not routable.
		return false, false
	}
	return forward, backward
}

type wayInfo struct {
	ID       osm.WayID
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
}

// roadWay keeps a way when it has at least one segment, is drivable by car and
// can be traversed in at least one direction.
func roadWay(w *osm.Way) (wayInfo, bool) {
	if len(w.Nodes) < 2 || !isCarAccessible(w.Tags) {
		return wayInfo{}, false
	}
	fwd, bwd := directionFlags(w.Tags)
	if !fwd && !bwd {
		return wayInfo{}, false
	}
	ids := make([]osm.NodeID, len(w.Nodes))
	for i, wn := range w.Nodes {
		ids[i] = wn.ID
	}
	return wayInfo{ID: w.ID, NodeIDs: ids, Forward: fwd, Backward: bwd}, true
}

// BBox is a geographic filter. A zero BBox disables filtering.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero reports whether the bbox is unset.
func (b BBox) IsZero() bool {
	return b == BBox{}
}

// Contains reports whether c lies inside the box.
func (b BBox) Contains(c geo.Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLng && c.Lon <= b.MaxLng
}

// ParseOptions configures the parser.
type ParseOptions struct {
	BBox   BBox
	Logger *log.Logger
}

// Parse reads an OSM PBF stream and returns its drivable road segments.
// The stream is scanned twice (ways, then nodes), so rs must be seekable.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ParseOptions) (*ParseResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	ways, referenced, err := scanWays(ctx, rs)
	if err != nil {
		return nil, err
	}
	logger.Info("scanned ways", "ways", len(ways), "referenced_nodes", len(referenced))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for node pass: %w", err)
	}
	coords, err := scanNodes(ctx, rs, referenced)
	if err != nil {
		return nil, err
	}
	logger.Info("scanned nodes", "coordinates", len(coords))

	segments, missing, filtered := buildSegments(ways, coords, opts.BBox)
	if missing > 0 {
		logger.Warn("skipped segments with missing node coordinates", "count", missing)
	}
	if filtered > 0 {
		logger.Info("filtered segments outside bounding box", "count", filtered)
	}
	logger.Info("built road segments", "segments", len(segments))

	return &ParseResult{Segments: segments, Coordinates: coords}, nil
}

func scanWays(ctx context.Context, r io.Reader) ([]wayInfo, map[osm.NodeID]struct{}, error) {
	scanner := osmpbf.New(ctx, r, 1)
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo
	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		info, ok := roadWay(w)
		if !ok {
			continue
		}
		for _, id := range info.NodeIDs {
			referenced[id] = struct{}{}
		}
		ways = append(ways, info)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("way pass: %w", err)
	}
	return ways, referenced, nil
}

func scanNodes(ctx context.Context, r io.Reader, referenced map[osm.NodeID]struct{}) (map[osm.NodeID]geo.Coordinate, error) {
	scanner := osmpbf.New(ctx, r, 1)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	coords := make(map[osm.NodeID]geo.Coordinate, len(referenced))
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; needed {
			coords[n.ID] = geo.Coordinate{Lon: n.Lon, Lat: n.Lat}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("node pass: %w", err)
	}
	return coords, nil
}

// buildSegments cuts ways into consecutive node pairs. It returns the number of
// pairs dropped for missing coordinates and for lying outside bbox.
func buildSegments(ways []wayInfo, coords map[osm.NodeID]geo.Coordinate, bbox BBox) (segments []Segment, missing, filtered int) {
	useBBox := !bbox.IsZero()
	for _, w := range ways {
		for i := 0; i+1 < len(w.NodeIDs); i++ {
			from, to := w.NodeIDs[i], w.NodeIDs[i+1]
			a, okA := coords[from]
			b, okB := coords[to]
			if !okA || !okB {
				missing++
				continue
			}
			if useBBox && (!bbox.Contains(a) || !bbox.Contains(b)) {
				filtered++
				continue
			}
			segments = append(segments, Segment{
				WayID:    w.ID,
				From:     from,
				To:       to,
				Forward:  w.Forward,
				Backward: w.Backward,
				LengthMM: geo.LengthMillimeters(a, b),
			})
		}
	}
	return segments, missing, filtered
}
