package listing

import (
	"context"
	"sort"
	"sync"

	"github.com/lokalo/boostrank/internal/geo"
)

// CandidateSource supplies the pool of boosted listings for a viewer.
// Implementations return all currently-boosted, unsold listings regardless of
// owner; the engine re-checks every eligibility predicate itself.
type CandidateSource interface {
	FetchBoostedCandidates(ctx context.Context, viewerID string) ([]Listing, error)
}

// LocationSource resolves the most recent known location for a user.
// Returns (nil, nil) when no location is known; absence is not an error.
type LocationSource interface {
	FetchLatestLocation(ctx context.Context, userID string) (*ViewerLocation, error)
}

// OrganicSource supplies a window of the independently ranked organic stream.
// Listings whose ID appears in excludeIDs are removed before the window is
// cut, so offsets stay stable when featured listings are pulled out.
// Returns the window, the total organic count after exclusion, and any error.
type OrganicSource interface {
	FetchOrganicRanked(ctx context.Context, viewerID string, excludeIDs []string, offset, limit int) ([]OrganicResult, int, error)
}

// InMemoryStore is an in-memory implementation of all three collaborator
// interfaces. Used for tests and local development.
type InMemoryStore struct {
	mu        sync.RWMutex
	listings  map[string]*Listing
	locations map[string][]ViewerLocation
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		listings:  make(map[string]*Listing),
		locations: make(map[string][]ViewerLocation),
	}
}

// PutListing stores a copy of the listing, replacing any previous version.
func (s *InMemoryStore) PutListing(l *Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *l
	if l.BoostRadiusKm != nil {
		r := *l.BoostRadiusKm
		cp.BoostRadiusKm = &r
	}
	if l.BoostExpiresAt != nil {
		e := *l.BoostExpiresAt
		cp.BoostExpiresAt = &e
	}
	s.listings[cp.ID] = &cp
}

// RecordLocation appends a location sample for a user. FetchLatestLocation
// only ever surfaces the most recent sample.
func (s *InMemoryStore) RecordLocation(loc ViewerLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.UserID] = append(s.locations[loc.UserID], loc)
}

// FetchBoostedCandidates returns all boosted, unsold listings.
func (s *InMemoryStore) FetchBoostedCandidates(ctx context.Context, viewerID string) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Listing
	for _, l := range s.listings {
		if l.IsBoosted && !l.Sold {
			out = append(out, *l)
		}
	}

	// Map iteration order is random; sort for a stable candidate pool.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FetchLatestLocation returns the most recent recorded location for a user,
// or (nil, nil) when none is known.
func (s *InMemoryStore) FetchLatestLocation(ctx context.Context, userID string) (*ViewerLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.locations[userID]
	if len(history) == 0 {
		return nil, nil
	}

	latest := history[0]
	for _, loc := range history[1:] {
		if loc.RecordedAt.After(latest.RecordedAt) {
			latest = loc
		}
	}
	return &latest, nil
}

// FetchOrganicRanked returns unsold listings ordered by distance from the
// viewer's latest location, excluding the given IDs. When the viewer has no
// location the ordering falls back to newest-first and distances are -1.
func (s *InMemoryStore) FetchOrganicRanked(ctx context.Context, viewerID string, excludeIDs []string, offset, limit int) ([]OrganicResult, int, error) {
	viewer, err := s.FetchLatestLocation(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	s.mu.RLock()
	var results []OrganicResult
	for _, l := range s.listings {
		if l.Sold || excluded[l.ID] {
			continue
		}
		r := OrganicResult{Listing: *l, DistanceKm: -1}
		if viewer != nil {
			r.DistanceKm = geo.DistanceKm(viewer.Lat, viewer.Lng, l.Lat, l.Lng)
		}
		results = append(results, r)
	}
	s.mu.RUnlock()

	if viewer != nil {
		sort.Slice(results, func(i, j int) bool {
			if results[i].DistanceKm != results[j].DistanceKm {
				return results[i].DistanceKm < results[j].DistanceKm
			}
			return results[i].Listing.ID < results[j].Listing.ID
		})
	} else {
		sort.Slice(results, func(i, j int) bool {
			ti, tj := results[i].Listing.CreatedAt, results[j].Listing.CreatedAt
			if !ti.Equal(tj) {
				return ti.After(tj)
			}
			return results[i].Listing.ID < results[j].Listing.ID
		})
	}

	total := len(results)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return results[offset:end], total, nil
}
