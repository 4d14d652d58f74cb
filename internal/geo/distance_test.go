package geo

import (
	"math"
	"testing"
)

// TestDistanceKm verifies the haversine implementation against known distances.
func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lng1 float64
		lat2, lng2 float64
		expectedKm float64
		tolerance  float64
	}{
		{
			name:       "same point",
			lat1:       40.7128, lng1: -74.0060,
			lat2:       40.7128, lng2: -74.0060,
			expectedKm: 0,
			tolerance:  0.001,
		},
		{
			name:       "equator 0.05 degrees longitude",
			lat1:       0, lng1: 0,
			lat2:       0, lng2: 0.05,
			expectedKm: 5.56,
			tolerance:  0.05,
		},
		{
			name:       "equator 0.2 degrees longitude",
			lat1:       0, lng1: 0,
			lat2:       0, lng2: 0.2,
			expectedKm: 22.24,
			tolerance:  0.1,
		},
		{
			name:       "berlin to hamburg",
			lat1:       52.5200, lng1: 13.4050,
			lat2:       53.5511, lng2: 9.9937,
			expectedKm: 255.0,
			tolerance:  3.0,
		},
		{
			name:       "antipodal points",
			lat1:       0, lng1: 0,
			lat2:       0, lng2: 180,
			expectedKm: math.Pi * EarthRadiusKm,
			tolerance:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.expectedKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %.3f km, want %.3f km (±%.3f)", got, tt.expectedKm, tt.tolerance)
			}
		})
	}
}

// TestDistanceKmSymmetry verifies that distance is symmetric in its arguments.
func TestDistanceKmSymmetry(t *testing.T) {
	forward := DistanceKm(48.8566, 2.3522, 51.5074, -0.1278)
	backward := DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)

	if math.Abs(forward-backward) > 1e-9 {
		t.Errorf("distance not symmetric: %.9f vs %.9f", forward, backward)
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		name string
		km   float64
		want string
	}{
		{name: "sub-kilometer in meters", km: 0.85, want: "850 m"},
		{name: "rounds meters", km: 0.8449, want: "845 m"},
		{name: "exactly one km", km: 1.0, want: "1.0 km"},
		{name: "kilometers one decimal", km: 5.55, want: "5.5 km"},
		{name: "negative clamped to zero", km: -3, want: "0 m"},
		{name: "zero", km: 0, want: "0 m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDistance(tt.km); got != tt.want {
				t.Errorf("FormatDistance(%v) = %q, want %q", tt.km, got, tt.want)
			}
		})
	}
}

func TestCoarseGeohash(t *testing.T) {
	// Known geohash prefix: Berlin encodes to u33d... at precision 5.
	got := Coarse(52.5200, 13.4050)
	if len(got) != CoarsePrecision {
		t.Fatalf("Coarse() returned %d characters, want %d", len(got), CoarsePrecision)
	}
	if got[:3] != "u33" {
		t.Errorf("Coarse(52.52, 13.405) = %q, want prefix %q", got, "u33")
	}

	// Same coordinate always yields the same hash.
	if again := Coarse(52.5200, 13.4050); again != got {
		t.Errorf("Coarse() not stable: %q vs %q", got, again)
	}
}
