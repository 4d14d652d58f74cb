// Package ranking provides the fairness score used to rank eligible boosted
// listings for the capped featured slots.
//
// The score combines three signals:
//
//   - Proximity (weight 0.5): sponsors pay for local reach, so distance from
//     the viewer dominates. A listing at the edge of its boost radius scores 0.
//   - Recency (weight 0.3): a linear 30-day decay gives newly boosted listings
//     a fair initial window.
//   - Tie-break (weight 0.2): a deterministic pseudo-random component derived
//     from the listing ID prevents permanent lock-in among otherwise-tied
//     candidates in dense areas.
//
// All components and the composite score are normalized to [0, 1].
// Weights can be recalibrated via a JSON calibration file without code changes.
package ranking
