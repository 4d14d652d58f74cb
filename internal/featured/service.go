package featured

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lokalo/boostrank/internal/listing"
	"github.com/lokalo/boostrank/internal/ranking"
	"github.com/lokalo/boostrank/internal/tracing"
)

// Service runs the full ranking pipeline for one viewer request. It holds
// no per-request state: every computation works on request-scoped copies,
// so concurrent requests need no coordination.
type Service struct {
	candidates listing.CandidateSource
	locations  listing.LocationSource
	organic    listing.OrganicSource
	weights    *ranking.Weights
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithWeights overrides the default fairness weights.
func WithWeights(w *ranking.Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the evaluation clock. Tests freeze "now" with this to
// make recency and eligibility deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ranking service over the three collaborator sources.
func NewService(candidates listing.CandidateSource, locations listing.LocationSource, organic listing.OrganicSource, opts ...Option) *Service {
	s := &Service{
		candidates: candidates,
		locations:  locations,
		organic:    organic,
		weights:    ranking.DefaultWeights(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRankedPage computes one ranked result page for a viewer.
//
// Collaborator failures degrade instead of propagating: a failed candidate
// fetch serves organic-only results, a failed organic fetch serves the
// featured entries alone, and a missing viewer location disables the
// featured set entirely. The only errors a caller sees are its own
// context's cancellation.
func (s *Service) GetRankedPage(ctx context.Context, viewerID string, page, pageSize int) (*listing.RankedPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	now := s.now()

	ctx, endSpan := tracing.StartSpan(ctx, "rank_listings")
	defer endSpan(nil)
	tracing.SetAttributes(ctx,
		attribute.Int("ranking.page", page),
		attribute.Int("ranking.page_size", pageSize),
	)

	selected := s.selectFeatured(ctx, viewerID, now)

	featuredIDs := make([]string, len(selected))
	for i, c := range selected {
		featuredIDs[i] = c.Listing.ID
	}

	// Fetch the organic stream from the top through the requested page so
	// the merged sequence can be sliced at its natural offsets. The window
	// is small for realistic page depths; totals come from the collaborator.
	organic, organicTotal, err := s.organic.FetchOrganicRanked(ctx, viewerID, featuredIDs, 0, page*pageSize)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("organic fetch failed, serving featured results only",
			"viewer_id", viewerID,
			"error", err)
		if s.metrics != nil {
			s.metrics.ObserveCollaboratorFailure("organic")
		}
		organic, organicTotal = nil, 0
	}

	merged := Merge(selected, organic)
	pageOut := Paginate(merged, page, pageSize, len(selected)+organicTotal)

	// FeaturedCount reports the slots filled for this viewer even when the
	// requested page lies past the featured head of the sequence.
	pageOut.FeaturedCount = len(selected)

	return pageOut, nil
}

// selectFeatured runs eligibility filtering, scoring, and capped selection.
// Every failure path degrades to an empty featured set.
func (s *Service) selectFeatured(ctx context.Context, viewerID string, now time.Time) []Candidate {
	viewer, err := s.locations.FetchLatestLocation(ctx, viewerID)
	if err != nil {
		s.logger.Warn("viewer location fetch failed, skipping featured placement",
			"viewer_id", viewerID,
			"error", err)
		if s.metrics != nil {
			s.metrics.ObserveCollaboratorFailure("location")
		}
		return nil
	}
	if viewer == nil {
		s.logger.Info("viewer has no known location, skipping featured placement",
			"viewer_id", viewerID)
		if s.metrics != nil {
			s.metrics.ObserveMissingViewerLocation()
		}
		return nil
	}

	pool, err := s.candidates.FetchBoostedCandidates(ctx, viewerID)
	if err != nil {
		s.logger.Warn("candidate fetch failed, serving organic results only",
			"viewer_id", viewerID,
			"error", err)
		if s.metrics != nil {
			s.metrics.ObserveCollaboratorFailure("candidates")
		}
		return nil
	}

	eligible := FilterEligible(pool, viewer, now)
	ScoreCandidates(eligible, now, s.weights)
	selected := Select(eligible)

	if s.metrics != nil {
		s.metrics.ObserveRequest(len(eligible), len(selected))
	}
	s.logger.Debug("featured selection complete",
		"viewer_id", viewerID,
		"pool", len(pool),
		"eligible", len(eligible),
		"selected", len(selected))

	return selected
}
