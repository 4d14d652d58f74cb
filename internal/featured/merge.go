package featured

import (
	"github.com/lokalo/boostrank/internal/geo"
	"github.com/lokalo/boostrank/internal/listing"
)

// Merge concatenates the selected featured candidates with the independently
// ranked organic stream: featured entries first in selector order, then
// organic entries in their own order. Organic entries whose ID matches a
// featured listing are dropped so no listing appears twice. Every entry is
// tagged with its featured flag at construction time.
func Merge(selected []Candidate, organic []listing.OrganicResult) []listing.RankedResult {
	merged := make([]listing.RankedResult, 0, len(selected)+len(organic))
	seen := make(map[string]bool, len(selected))

	for _, c := range selected {
		merged = append(merged, newResult(&c.Listing, c.DistanceKm, true))
		seen[c.Listing.ID] = true
	}

	for _, o := range organic {
		if seen[o.Listing.ID] {
			continue
		}
		seen[o.Listing.ID] = true
		merged = append(merged, newResult(&o.Listing, o.DistanceKm, false))
	}

	return merged
}

// newResult builds a display-ready result entry from a listing snapshot.
// A negative distance means the viewer's position is unknown; the distance
// string is left empty rather than fabricating a value.
func newResult(l *listing.Listing, distanceKm float64, isFeatured bool) listing.RankedResult {
	r := listing.RankedResult{
		ID:            l.ID,
		Name:          l.Name,
		PriceCents:    l.PriceCents,
		Category:      l.Category,
		Featured:      isFeatured,
		DistanceKm:    distanceKm,
		CoarseGeohash: geo.Coarse(l.Lat, l.Lng),
	}
	if distanceKm >= 0 {
		r.Distance = geo.FormatDistance(distanceKm)
	}
	return r
}
