package geo

import "strings"

// CoarsePrecision is the geohash precision used for result map pins.
// Five characters resolve to roughly ±2.4 km, enough to place a listing
// in a neighborhood without exposing the exact address.
const CoarsePrecision = 5

// base32 is the geohash base32 alphabet (excludes a, i, l, o).
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Encode encodes a latitude/longitude pair into a geohash of the given
// precision using the standard interleaved base32 algorithm.
func Encode(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = CoarsePrecision
	}

	latRange := [2]float64{-90.0, 90.0}
	lngRange := [2]float64{-180.0, 180.0}

	var hash strings.Builder
	hash.Grow(precision)

	bits := 0
	var ch uint

	even := true
	for hash.Len() < precision {
		if even {
			mid := (lngRange[0] + lngRange[1]) / 2
			if lng > mid {
				ch |= (1 << (4 - bits))
				lngRange[0] = mid
			} else {
				lngRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat > mid {
				ch |= (1 << (4 - bits))
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}

		even = !even
		bits++

		if bits == 5 {
			hash.WriteByte(base32[ch])
			bits = 0
			ch = 0
		}
	}

	return hash.String()
}

// Coarse encodes a coordinate at CoarsePrecision for public display.
func Coarse(lat, lng float64) string {
	return Encode(lat, lng, CoarsePrecision)
}
