package listing

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const testSchema = `
	CREATE TABLE listings (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		name             TEXT NOT NULL,
		price_cents      BIGINT NOT NULL DEFAULT 0,
		category         TEXT NOT NULL DEFAULT '',
		lat              DOUBLE PRECISION NOT NULL,
		lng              DOUBLE PRECISION NOT NULL,
		is_boosted       BOOLEAN NOT NULL DEFAULT FALSE,
		boost_radius_km  DOUBLE PRECISION,
		boost_expires_at TIMESTAMPTZ,
		sold             BOOLEAN NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE user_locations (
		user_id     TEXT NOT NULL,
		lat         DOUBLE PRECISION NOT NULL,
		lng         DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);
`

// startPostgres spins up a throwaway PostgreSQL container with the listing
// schema applied and returns an open connection to it.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("boostrank_test"),
		tcpostgres.WithUsername("boostrank"),
		tcpostgres.WithPassword("boostrank"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.ExecContext(ctx, testSchema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return db
}

func TestPostgresStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based integration test in short mode")
	}

	db := startPostgres(t)
	store := NewPostgresStore(db, nil)
	ctx := context.Background()

	now := time.Now().UTC()
	future := now.AddDate(0, 0, 7)

	insert := `
		INSERT INTO listings
			(id, owner_id, name, lat, lng, is_boosted, boost_radius_km, boost_expires_at, sold, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	rows := []struct {
		id         string
		lat, lng   float64
		boosted    bool
		radius     any
		expires    any
		sold       bool
	}{
		{id: "near-boosted", lat: 0, lng: 0.05, boosted: true, radius: 10.0, expires: future},
		{id: "far-boosted", lat: 0, lng: 0.5, boosted: true, radius: 10.0, expires: future},
		{id: "plain-near", lat: 0, lng: 0.01},
		{id: "plain-far", lat: 0, lng: 0.3},
		{id: "sold-one", lat: 0, lng: 0.02, sold: true},
	}
	for _, r := range rows {
		if _, err := db.ExecContext(ctx, insert,
			r.id, "owner-"+r.id, "name "+r.id, r.lat, r.lng,
			r.boosted, r.radius, r.expires, r.sold, now); err != nil {
			t.Fatalf("failed to insert %s: %v", r.id, err)
		}
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO user_locations (user_id, lat, lng, recorded_at) VALUES
			('viewer', 5, 5, $1),
			('viewer', 0, 0, $2)`,
		now.Add(-time.Hour), now); err != nil {
		t.Fatalf("failed to insert locations: %v", err)
	}

	t.Run("latest location wins", func(t *testing.T) {
		loc, err := store.FetchLatestLocation(ctx, "viewer")
		if err != nil {
			t.Fatalf("FetchLatestLocation() error = %v", err)
		}
		if loc == nil || loc.Lat != 0 || loc.Lng != 0 {
			t.Errorf("expected latest location (0,0), got %+v", loc)
		}
	})

	t.Run("absent location is nil not error", func(t *testing.T) {
		loc, err := store.FetchLatestLocation(ctx, "nobody")
		if err != nil {
			t.Fatalf("FetchLatestLocation() error = %v", err)
		}
		if loc != nil {
			t.Errorf("expected nil, got %+v", loc)
		}
	})

	t.Run("boosted candidates", func(t *testing.T) {
		candidates, err := store.FetchBoostedCandidates(ctx, "viewer")
		if err != nil {
			t.Fatalf("FetchBoostedCandidates() error = %v", err)
		}
		if len(candidates) != 2 {
			t.Fatalf("got %d candidates, want 2", len(candidates))
		}
		for _, c := range candidates {
			if c.BoostRadiusKm == nil || *c.BoostRadiusKm != 10.0 {
				t.Errorf("candidate %s missing boost radius", c.ID)
			}
			if c.BoostExpiresAt == nil {
				t.Errorf("candidate %s missing expiry", c.ID)
			}
		}
	})

	t.Run("organic ranked by distance with exclusion", func(t *testing.T) {
		results, total, err := store.FetchOrganicRanked(ctx, "viewer", []string{"near-boosted"}, 0, 10)
		if err != nil {
			t.Fatalf("FetchOrganicRanked() error = %v", err)
		}
		// 5 rows - 1 sold - 1 excluded = 3.
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		if len(results) != 3 {
			t.Fatalf("got %d results, want 3", len(results))
		}
		if results[0].Listing.ID != "plain-near" {
			t.Errorf("closest organic = %s, want plain-near", results[0].Listing.ID)
		}
		for i := 1; i < len(results); i++ {
			if results[i].DistanceKm < results[i-1].DistanceKm {
				t.Errorf("organic distances not ascending at %d", i)
			}
		}
		for _, r := range results {
			if r.Listing.ID == "near-boosted" || r.Listing.ID == "sold-one" {
				t.Errorf("excluded listing %s leaked into organic results", r.Listing.ID)
			}
		}
	})

	t.Run("organic window offset and limit", func(t *testing.T) {
		window, total, err := store.FetchOrganicRanked(ctx, "viewer", nil, 1, 2)
		if err != nil {
			t.Fatalf("FetchOrganicRanked() error = %v", err)
		}
		if total != 4 {
			t.Errorf("total = %d, want 4", total)
		}
		if len(window) != 2 {
			t.Errorf("window size = %d, want 2", len(window))
		}
	})
}
