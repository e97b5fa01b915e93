package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Point converts c to an orb.Point (lon, lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// FromPoint converts an orb.Point back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lon: p.Lon(), Lat: p.Lat()}
}

// Bound returns the bounding box of coords. An empty input yields an empty bound
// at the origin.
func Bound(coords []Coordinate) orb.Bound {
	if len(coords) == 0 {
		return orb.Bound{}
	}
	mp := make(orb.MultiPoint, len(coords))
	for i, c := range coords {
		mp[i] = c.Point()
	}
	return mp.Bound()
}

// Projection maps coordinates onto a local planar frame where one unit in x
// and y is roughly the same ground distance. Longitudes are scaled by the
// cosine of the reference latitude.
type Projection struct {
	cosLat float64
}

// NewProjection returns a projection centred on the latitude of ref.
func NewProjection(ref Coordinate) Projection {
	return Projection{cosLat: math.Cos(ref.Lat * math.Pi / 180)}
}

// XY returns the planar position of c in degree-scaled units.
func (p Projection) XY(c Coordinate) (x, y float64) {
	return c.Lon * p.cosLat, c.Lat
}

// Along returns the signed position of c on the line through the origin with
// direction angle theta (radians).
func (p Projection) Along(c Coordinate, theta float64) float64 {
	x, y := p.XY(c)
	return x*math.Cos(theta) + y*math.Sin(theta)
}
