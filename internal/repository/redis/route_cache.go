package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/smartcity/navigation/internal/domain"
)

// ErrCacheMiss is returned when no candidates are cached for a request
var ErrCacheMiss = errors.New("cache: miss")

// RouteCache stores routing candidates in Redis keyed by profile and endpoints.
// A nil client disables caching.
type RouteCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRouteCache creates a cache over client with the given expiration
func NewRouteCache(client *goredis.Client, ttl time.Duration) *RouteCache {
	return &RouteCache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client is configured
func (c *RouteCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get loads cached candidates for the request
func (c *RouteCache) Get(ctx context.Context, profile string, req domain.RouteRequest) ([]domain.RouteCandidate, error) {
	if !c.Enabled() {
		return nil, ErrCacheMiss
	}

	data, err := c.client.Get(ctx, RouteKey(profile, req)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: failed to read route: %w", err)
	}

	var candidates []domain.RouteCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("cache: failed to decode route: %w", err)
	}
	return candidates, nil
}

// Set stores candidates with the configured expiration
func (c *RouteCache) Set(ctx context.Context, profile string, req domain.RouteRequest, candidates []domain.RouteCandidate) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("cache: failed to encode route: %w", err)
	}

	if err := c.client.Set(ctx, RouteKey(profile, req), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to write route: %w", err)
	}
	return nil
}

// RouteKey builds the cache key route:{profile}:{start}:{end}.
// Coordinates are rounded to 5 decimals (about a meter).
func RouteKey(profile string, req domain.RouteRequest) string {
	return fmt.Sprintf("route:%s:%.5f,%.5f:%.5f,%.5f",
		profile, req.Start.Lat, req.Start.Lng, req.End.Lat, req.End.Lng)
}
