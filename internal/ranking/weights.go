package ranking

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// RecencyWindowDays is the decay window for the recency component.
// Listings older than this receive a recency score of 0.
const RecencyWindowDays = 30

// Weights defines how much each fairness component contributes to the
// composite score. The defaults sum to 1.0 so the composite stays in [0, 1].
type Weights struct {
	Proximity float64 `json:"proximity"` // Distance-to-radius weight (default: 0.5)
	Recency   float64 `json:"recency"`   // Listing age weight (default: 0.3)
	Random    float64 `json:"random"`    // Deterministic tie-break weight (default: 0.2)
}

// DefaultWeights returns the default fairness weight configuration.
//
// Formula: score = (proximity * 0.5) + (recency * 0.3) + (random * 0.2)
func DefaultWeights() *Weights {
	return &Weights{
		Proximity: 0.5,
		Recency:   0.3,
		Random:    0.2,
	}
}

// ProximityWeight computes the distance component, normalized to [0, 1].
// A listing at the viewer's position scores 1.0; a listing exactly at the
// edge of its boost radius scores 0. Distances beyond the radius clamp to 0
// rather than going negative.
func ProximityWeight(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 {
		return 0
	}
	if distanceKm < 0 {
		distanceKm = 0
	}

	weight := 1.0 - distanceKm/radiusKm
	if weight < 0 {
		return 0
	}
	return weight
}

// RecencyWeight computes the age component, normalized to [0, 1].
// A listing created at the evaluation instant scores 1.0 and the score
// decays linearly to 0 over RecencyWindowDays. Creation timestamps in the
// future clamp to 1.0.
func RecencyWeight(createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24

	weight := (RecencyWindowDays - ageDays) / RecencyWindowDays
	if weight < 0 {
		return 0
	}
	if weight > 1 {
		return 1
	}
	return weight
}

// TieBreak maps a listing ID to a deterministic pseudo-random value in [0, 1).
// It is a pure function of the stable identifier: the same listing always
// yields the same value regardless of process, call order, or wall clock.
// Rotation of which listings surface over time comes from the recency decay
// and the boosted set changing, not from reseeding a generator per call.
func TieBreak(listingID string) float64 {
	return float64(xxhash.Sum64String(listingID)) / float64(1<<64)
}

// CompositeScore combines the three fairness components using the given
// weights. Pass nil to use the defaults. Components are expected to be in
// [0, 1], so with the default weights the result is also in [0, 1].
func CompositeScore(proximity, recency, random float64, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}

	return (proximity * weights.Proximity) +
		(recency * weights.Recency) +
		(random * weights.Random)
}
