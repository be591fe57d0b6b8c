package maps

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/geo"
)

// minCacheTTL is the floor for the cache TTL; it must stay at or above the
// provider rate-limit window.
const minCacheTTL = 10 * time.Minute

const defaultCacheTTL = 15 * time.Minute

type cacheEntry struct {
	route     Route
	fetchedAt time.Time
}

// RouteCache memoizes provider lookups by (origin, destination, mode).
// Concurrent misses for the same key collapse into one upstream call.
type RouteCache struct {
	provider RouteProvider
	ttl      time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
	now     func() time.Time
}

// NewRouteCache wraps the provider with a memoizing cache.
func NewRouteCache(provider RouteProvider, ttl time.Duration) *RouteCache {
	if ttl < minCacheTTL {
		ttl = minCacheTTL
	}

	return &RouteCache{
		provider: provider,
		ttl:      ttl,
		entries:  make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// NewRouteCacheFromEnv reads ROUTE_CACHE_TTL_MIN (minutes).
func NewRouteCacheFromEnv(provider RouteProvider) *RouteCache {
	ttl := defaultCacheTTL
	if raw := os.Getenv("ROUTE_CACHE_TTL_MIN"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	return NewRouteCache(provider, ttl)
}

// CacheKey normalizes coordinates to five decimals, the same precision as
// the polyline encoding.
func CacheKey(origin, destination geo.Point, mode string) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f|%s", origin.Lat, origin.Lng, destination.Lat, destination.Lng, mode)
}

// Lookup returns the cached route when fresh, delegating to the provider on
// a miss. The second return reports whether the answer came from the cache.
func (c *RouteCache) Lookup(ctx context.Context, origin, destination geo.Point, mode string) (Route, bool, error) {
	if mode == "" {
		mode = "driving"
	}
	key := CacheKey(origin, destination, mode)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.route, true, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have refreshed the entry while we waited on
		// the flight group.
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
			return entry.route, nil
		}

		route, err := c.provider.Lookup(ctx, origin, destination, mode)
		if err != nil {
			return Route{}, err
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{route: route, fetchedAt: c.now()}
		c.mu.Unlock()

		return route, nil
	})
	if err != nil {
		return Route{}, false, err
	}

	return result.(Route), false, nil
}
