// Package listing provides the marketplace listing model and the collaborator
// interfaces the ranking engine reads from. The engine never mutates listings
// or viewer locations; both are owned by the listing-management and
// location-sync services.
package listing

import "time"

// Point represents a geographic coordinate with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Listing is a read-only snapshot of a marketplace listing as seen by the
// ranking engine. BoostRadiusKm is nil when the owner never configured a
// boost radius; such listings are never eligible for featured placement.
type Listing struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Name           string     `json:"name"`
	PriceCents     int64      `json:"price_cents"`
	Category       string     `json:"category"`
	Lat            float64    `json:"lat"`
	Lng            float64    `json:"lng"`
	IsBoosted      bool       `json:"is_boosted"`
	BoostRadiusKm  *float64   `json:"boost_radius_km,omitempty"`
	BoostExpiresAt *time.Time `json:"boost_expires_at,omitempty"`
	Sold           bool       `json:"sold"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ViewerLocation is the most recent known position of a viewer.
// At most one current location is meaningful per viewer; if storage holds
// history, only the latest entry is surfaced.
type ViewerLocation struct {
	UserID     string    `json:"user_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OrganicResult is one entry of the independently ranked organic stream,
// already ordered by the browsing collaborator (distance-ascending by
// convention). DistanceKm may be negative when the viewer has no location
// and the collaborator fell back to a default ordering.
type OrganicResult struct {
	Listing    Listing `json:"listing"`
	DistanceKm float64 `json:"distance_km"`
}

// RankedResult is one entry of a merged page: the listing, whether it holds
// a paid featured slot, and display-ready location fields.
type RankedResult struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PriceCents    int64   `json:"price_cents"`
	Category      string  `json:"category"`
	Featured      bool    `json:"featured"`
	Distance      string  `json:"distance"`
	CoarseGeohash string  `json:"coarse_geohash,omitempty"`
	DistanceKm    float64 `json:"-"`
}

// RankedPage is the paginated response of the ranking engine.
type RankedPage struct {
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`
	TotalCount    int            `json:"total_count"`
	TotalPages    int            `json:"total_pages"`
	FeaturedCount int            `json:"featured_count"`
	Results       []RankedResult `json:"results"`
}
