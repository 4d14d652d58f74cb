// Package featured implements the sponsored listing ranking pipeline:
// geospatial eligibility filtering, fairness scoring, capped selection,
// merge with the organic stream, and pagination.
package featured

import (
	"time"

	"github.com/lokalo/boostrank/internal/geo"
	"github.com/lokalo/boostrank/internal/listing"
)

// Candidate is a boosted listing that passed eligibility, together with the
// computed distance and score components. It exists only for the lifetime of
// one ranking request; the components are retained for auditability.
type Candidate struct {
	Listing         listing.Listing
	DistanceKm      float64
	Score           float64
	DistanceScore   float64
	RecencyScore    float64
	RandomComponent float64
}

// Eligible reports whether a single candidate qualifies for featured
// placement for a viewer at the given instant, and returns the computed
// distance when it does. The five predicates are: boosted, unexpired
// (expiry on the current day still qualifies), unsold, boost radius present,
// and within that radius of the viewer. Distance exactly equal to the
// radius is eligible.
func Eligible(l *listing.Listing, viewer *listing.ViewerLocation, now time.Time) (float64, bool) {
	if viewer == nil {
		return 0, false
	}
	if !l.IsBoosted || l.Sold {
		return 0, false
	}
	// A boosted listing without a radius or expiry is malformed eligibility
	// data: excluded, never an error.
	if l.BoostRadiusKm == nil || l.BoostExpiresAt == nil {
		return 0, false
	}
	if l.BoostExpiresAt.Before(startOfDay(now)) {
		return 0, false
	}

	distance := geo.DistanceKm(viewer.Lat, viewer.Lng, l.Lat, l.Lng)
	if distance > *l.BoostRadiusKm {
		return 0, false
	}

	return distance, true
}

// FilterEligible evaluates every candidate in the pool against the shared
// viewer location and returns the eligible subset with distances attached.
// A nil viewer location yields an empty result; that is the expected
// degradation, not an error.
func FilterEligible(pool []listing.Listing, viewer *listing.ViewerLocation, now time.Time) []Candidate {
	var eligible []Candidate
	for i := range pool {
		distance, ok := Eligible(&pool[i], viewer, now)
		if !ok {
			continue
		}
		eligible = append(eligible, Candidate{
			Listing:    pool[i],
			DistanceKm: distance,
		})
	}
	return eligible
}

// startOfDay truncates an instant to midnight UTC so "expires today" still
// counts as unexpired for the whole day.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
