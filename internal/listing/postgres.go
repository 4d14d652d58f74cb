package listing

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/lokalo/boostrank/internal/tracing"
)

// PostgresStore implements the collaborator interfaces against PostgreSQL.
// It is read-only: listings and locations are written by the listing
// management and location-sync services.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// haversineSQL computes the great-circle distance in kilometers between the
// bound viewer coordinates ($1 lat, $2 lng) and a listing row. Kept as a SQL
// fragment so organic ordering happens in the database instead of in memory.
const haversineSQL = `
	2 * 6371 * asin(sqrt(
		power(sin(radians((lat - $1) / 2)), 2) +
		cos(radians($1)) * cos(radians(lat)) *
		power(sin(radians((lng - $2) / 2)), 2)
	))`

// FetchBoostedCandidates returns all currently-boosted, unsold listings.
// Expiry, radius presence, and distance are deliberately not filtered here;
// the eligibility filter owns those predicates.
func (s *PostgresStore) FetchBoostedCandidates(ctx context.Context, viewerID string) (_ []Listing, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "listings", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `
		SELECT id, owner_id, name, price_cents, category, lat, lng,
		       is_boosted, boost_radius_km, boost_expires_at, sold, created_at
		FROM listings
		WHERE is_boosted = TRUE AND sold = FALSE
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query boosted candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Listing
	for rows.Next() {
		var l Listing
		var radius sql.NullFloat64
		var expires sql.NullTime
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Name, &l.PriceCents, &l.Category,
			&l.Lat, &l.Lng, &l.IsBoosted, &radius, &expires, &l.Sold, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if radius.Valid {
			l.BoostRadiusKm = &radius.Float64
		}
		if expires.Valid {
			l.BoostExpiresAt = &expires.Time
		}
		candidates = append(candidates, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}

	return candidates, nil
}

// FetchLatestLocation returns the most recent location row for a user,
// or (nil, nil) when the user has no recorded location.
func (s *PostgresStore) FetchLatestLocation(ctx context.Context, userID string) (_ *ViewerLocation, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "user_locations", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `
		SELECT user_id, lat, lng, recorded_at
		FROM user_locations
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var loc ViewerLocation
	err = s.db.QueryRowContext(ctx, query, userID).Scan(&loc.UserID, &loc.Lat, &loc.Lng, &loc.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest location: %w", err)
	}

	return &loc, nil
}

// FetchOrganicRanked returns a window of unsold listings ordered by distance
// from the viewer's latest location, excluding the given IDs. When the viewer
// has no location the ordering falls back to newest-first with distance -1.
func (s *PostgresStore) FetchOrganicRanked(ctx context.Context, viewerID string, excludeIDs []string, offset, limit int) (_ []OrganicResult, _ int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "listings", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	viewer, err := s.FetchLatestLocation(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	// pq.Array over an empty slice still binds correctly for <> ALL.
	exclude := pq.Array(excludeIDs)

	var total int
	countQuery := `
		SELECT count(*) FROM listings
		WHERE sold = FALSE AND id <> ALL($1)
	`
	if err := s.db.QueryRowContext(ctx, countQuery, exclude).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count organic listings: %w", err)
	}

	var rows *sql.Rows
	if viewer != nil {
		query := `
			SELECT id, owner_id, name, price_cents, category, lat, lng,
			       is_boosted, boost_radius_km, boost_expires_at, sold, created_at,
			       ` + haversineSQL + ` AS distance_km
			FROM listings
			WHERE sold = FALSE AND id <> ALL($3)
			ORDER BY distance_km ASC, id ASC
			OFFSET $4 LIMIT $5
		`
		rows, err = s.db.QueryContext(ctx, query, viewer.Lat, viewer.Lng, exclude, offset, limit)
	} else {
		query := `
			SELECT id, owner_id, name, price_cents, category, lat, lng,
			       is_boosted, boost_radius_km, boost_expires_at, sold, created_at,
			       -1::float8 AS distance_km
			FROM listings
			WHERE sold = FALSE AND id <> ALL($1)
			ORDER BY created_at DESC, id ASC
			OFFSET $2 LIMIT $3
		`
		rows, err = s.db.QueryContext(ctx, query, exclude, offset, limit)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query organic listings: %w", err)
	}
	defer rows.Close()

	var results []OrganicResult
	for rows.Next() {
		var r OrganicResult
		var radius sql.NullFloat64
		var expires sql.NullTime
		if err := rows.Scan(&r.Listing.ID, &r.Listing.OwnerID, &r.Listing.Name,
			&r.Listing.PriceCents, &r.Listing.Category, &r.Listing.Lat, &r.Listing.Lng,
			&r.Listing.IsBoosted, &radius, &expires, &r.Listing.Sold,
			&r.Listing.CreatedAt, &r.DistanceKm); err != nil {
			return nil, 0, fmt.Errorf("failed to scan organic listing: %w", err)
		}
		if radius.Valid {
			r.Listing.BoostRadiusKm = &radius.Float64
		}
		if expires.Valid {
			r.Listing.BoostExpiresAt = &expires.Time
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate organic listings: %w", err)
	}

	return results, total, nil
}
