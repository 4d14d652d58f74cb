// Package geo provides geodesic distance math and coarse geohash encoding
// for listing ranking and result display.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean earth radius used by the spherical approximation.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// coordinates, computed with the haversine formula on a spherical earth.
// The function is total: callers are responsible for validating that the
// inputs are real coordinates.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// radians converts degrees to radians.
func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// FormatDistance renders a distance for API display.
// Distances under one kilometer are shown in meters ("850 m"),
// everything else in kilometers with one decimal ("5.5 km").
func FormatDistance(km float64) string {
	if km < 0 {
		km = 0
	}
	if km < 1.0 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}
