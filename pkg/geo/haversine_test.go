package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		a, b             Coordinate
		wantMeters       float64
		tolerancePercent float64
	}{
		{
			name:             "Singapore CBD to Changi Airport",
			a:                Coordinate{Lat: 1.2830, Lon: 103.8513},
			b:                Coordinate{Lat: 1.3644, Lon: 103.9915},
			wantMeters:       18_023,
			tolerancePercent: 1,
		},
		{
			name: "Same point",
			a:    Coordinate{Lat: 1.3521, Lon: 103.8198},
			b:    Coordinate{Lat: 1.3521, Lon: 103.8198},
		},
		{
			name:             "London to Paris",
			a:                Coordinate{Lat: 51.5074, Lon: -0.1278},
			b:                Coordinate{Lat: 48.8566, Lon: 2.3522},
			wantMeters:       343_500,
			tolerancePercent: 1,
		},
		{
			name:             "Short distance (~100m)",
			a:                Coordinate{Lat: 1.3521, Lon: 103.8198},
			b:                Coordinate{Lat: 1.3530, Lon: 103.8198},
			wantMeters:       100,
			tolerancePercent: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.a, tt.b)
			if tt.wantMeters == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Haversine = %f m, want ~%f m (diff %.1f%%)", got, tt.wantMeters, diff)
			}
		})
	}
}

func TestLengthMillimetersNeverZero(t *testing.T) {
	c := Coordinate{Lat: 1.3521, Lon: 103.8198}
	if got := LengthMillimeters(c, c); got != 1 {
		t.Errorf("LengthMillimeters(same point) = %d, want 1", got)
	}
}

func TestProjectionAlong(t *testing.T) {
	p := NewProjection(Coordinate{})
	c := Coordinate{Lon: 2, Lat: 3}

	if got := p.Along(c, 0); math.Abs(got-2) > 1e-12 {
		t.Errorf("Along(0) = %f, want 2", got)
	}
	if got := p.Along(c, math.Pi/2); math.Abs(got-3) > 1e-12 {
		t.Errorf("Along(pi/2) = %f, want 3", got)
	}
}

func TestBound(t *testing.T) {
	b := Bound([]Coordinate{{Lon: 1, Lat: 2}, {Lon: -1, Lat: 5}, {Lon: 3, Lat: 0}})
	if b.Min.Lon() != -1 || b.Min.Lat() != 0 || b.Max.Lon() != 3 || b.Max.Lat() != 5 {
		t.Errorf("Bound = %v, want [(-1,0),(3,5)]", b)
	}
	if got := Bound(nil); !got.IsZero() {
		t.Errorf("Bound(nil) = %v, want zero bound", got)
	}
}
