package featured

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRankingRequests        = "ranking_requests_total"
	MetricCollaboratorFailures   = "ranking_collaborator_failures_total"
	MetricFeaturedSelected       = "ranking_featured_selected"
	MetricEligibleCandidates     = "ranking_eligible_candidates"
	MetricMissingViewerLocations = "ranking_missing_viewer_locations_total"
)

// Metrics contains Prometheus metrics for the ranking pipeline.
// All operations are thread-safe.
type Metrics struct {
	requests               prometheus.Counter
	collaboratorFailures   *prometheus.CounterVec
	featuredSelected       prometheus.Histogram
	eligibleCandidates     prometheus.Histogram
	missingViewerLocations prometheus.Counter
}

// NewMetrics creates a Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a
// registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricRankingRequests,
				Help: "Total number of ranking requests processed",
			},
		),
		collaboratorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCollaboratorFailures,
				Help: "Total number of collaborator fetch failures by source",
			},
			[]string{"source"},
		),
		featuredSelected: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricFeaturedSelected,
				Help:    "Number of featured slots filled per request",
				Buckets: []float64{0, 1, 2},
			},
		),
		eligibleCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricEligibleCandidates,
				Help:    "Number of eligible boosted candidates per request",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		missingViewerLocations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricMissingViewerLocations,
				Help: "Total number of ranking requests without a resolvable viewer location",
			},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requests,
		m.collaboratorFailures,
		m.featuredSelected,
		m.eligibleCandidates,
		m.missingViewerLocations,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRequest records one completed ranking computation.
func (m *Metrics) ObserveRequest(eligible, selected int) {
	m.requests.Inc()
	m.eligibleCandidates.Observe(float64(eligible))
	m.featuredSelected.Observe(float64(selected))
}

// ObserveCollaboratorFailure records a failed collaborator fetch by source
// name ("candidates", "organic", "location").
func (m *Metrics) ObserveCollaboratorFailure(source string) {
	m.collaboratorFailures.WithLabelValues(source).Inc()
}

// ObserveMissingViewerLocation records a request served without geofiltering.
func (m *Metrics) ObserveMissingViewerLocation() {
	m.missingViewerLocations.Inc()
}
