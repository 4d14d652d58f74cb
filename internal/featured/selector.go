package featured

import (
	"sort"
	"time"

	"github.com/lokalo/boostrank/internal/ranking"
)

// FeaturedCap is the hard upper bound on featured slots per result page.
// Eligible candidates beyond the cap compete again on the next request as
// recency decays and the boosted set changes.
const FeaturedCap = 2

// ScoreCandidates computes the fairness score for each eligible candidate
// in place. Pass nil weights to use the defaults.
func ScoreCandidates(candidates []Candidate, now time.Time, weights *ranking.Weights) {
	for i := range candidates {
		c := &candidates[i]

		radius := 0.0
		if c.Listing.BoostRadiusKm != nil {
			radius = *c.Listing.BoostRadiusKm
		}

		c.DistanceScore = ranking.ProximityWeight(c.DistanceKm, radius)
		c.RecencyScore = ranking.RecencyWeight(c.Listing.CreatedAt, now)
		c.RandomComponent = ranking.TieBreak(c.Listing.ID)
		c.Score = ranking.CompositeScore(c.DistanceScore, c.RecencyScore, c.RandomComponent, weights)
	}
}

// Select ranks scored candidates by score descending and truncates to
// FeaturedCap. Exact score ties keep their input order (the tie-break
// component already makes exact ties statistically rare). Returns an empty
// slice when nothing is eligible; that is a valid outcome, not an error.
func Select(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > FeaturedCap {
		ranked = ranked[:FeaturedCap]
	}
	return ranked
}
