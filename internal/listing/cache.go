package listing

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLocationTTL bounds how stale a cached viewer location can be.
// Locations sync frequently, so a short TTL keeps geofiltering honest.
const DefaultLocationTTL = 2 * time.Minute

// locationKeyPrefix namespaces cached locations in Redis.
const locationKeyPrefix = "viewer_location:"

// CachedLocationSource wraps a LocationSource with a Redis read-through
// cache. Redis failures never fail a lookup; the wrapper logs a warning and
// falls back to the underlying source.
type CachedLocationSource struct {
	inner  LocationSource
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedLocationSource creates a caching wrapper around inner.
// A non-positive ttl falls back to DefaultLocationTTL.
func NewCachedLocationSource(inner LocationSource, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedLocationSource {
	if ttl <= 0 {
		ttl = DefaultLocationTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLocationSource{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// FetchLatestLocation returns the cached location when present, otherwise
// reads through to the underlying source and caches the result. Absent
// locations are not cached so a first sync becomes visible immediately.
func (c *CachedLocationSource) FetchLatestLocation(ctx context.Context, userID string) (*ViewerLocation, error) {
	key := locationKeyPrefix + userID

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var loc ViewerLocation
		if jsonErr := json.Unmarshal(data, &loc); jsonErr == nil {
			return &loc, nil
		}
		// Corrupt cache entries are dropped and refetched.
		c.logger.Warn("dropping corrupt cached location", "user_id", userID)
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			c.logger.Warn("failed to drop corrupt cached location", "error", delErr)
		}
	} else if err != redis.Nil {
		c.logger.Warn("location cache read failed, falling back to source",
			"user_id", userID,
			"error", err)
	}

	loc, err := c.inner.FetchLatestLocation(ctx, userID)
	if err != nil || loc == nil {
		return loc, err
	}

	payload, err := json.Marshal(loc)
	if err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("failed to cache location", "user_id", userID, "error", setErr)
		}
	}

	return loc, nil
}
