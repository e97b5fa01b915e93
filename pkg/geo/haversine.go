package geo

import "math"

const earthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between a and b.
func Haversine(a, b Coordinate) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// LengthMillimeters returns the Haversine length of a segment in whole
// millimeters, never less than 1 so that no segment has zero length.
func LengthMillimeters(a, b Coordinate) uint32 {
	mm := uint32(math.Round(Haversine(a, b) * 1000))
	if mm == 0 {
		mm = 1
	}
	return mm
}
