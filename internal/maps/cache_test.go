package maps

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/geo"
)

type fakeProvider struct {
	calls int32
	delay time.Duration
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Lookup(_ context.Context, origin, destination geo.Point, mode string) (Route, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return Route{}, f.err
	}
	return Route{DistanceMeters: 1000, DurationSeconds: 120, EncodedPolyline: "abc", Provider: "fake"}, nil
}

var (
	testOrigin      = geo.Point{Lat: 4.75459, Lng: -74.04570}
	testDestination = geo.Point{Lat: 4.68580, Lng: -74.05700}
)

func TestCacheKeyNormalization(t *testing.T) {
	a := CacheKey(geo.Point{Lat: 4.123456789, Lng: -74.1}, geo.Point{Lat: 4.2, Lng: -74.2}, "driving")
	b := CacheKey(geo.Point{Lat: 4.123459999, Lng: -74.1}, geo.Point{Lat: 4.2, Lng: -74.2}, "driving")

	// Five-decimal normalization merges sub-meter jitter
	assert.Equal(t, a, b)

	c := CacheKey(geo.Point{Lat: 4.123456789, Lng: -74.1}, geo.Point{Lat: 4.2, Lng: -74.2}, "walking")
	assert.NotEqual(t, a, c)
}

func TestLookupMissThenHit(t *testing.T) {
	provider := &fakeProvider{}
	cache := NewRouteCache(provider, 10*time.Minute)

	route, cached, err := cache.Lookup(context.Background(), testOrigin, testDestination, "driving")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1000.0, route.DistanceMeters)

	_, cached, err = cache.Lookup(context.Background(), testOrigin, testDestination, "driving")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestLookupExpiresAfterTTL(t *testing.T) {
	provider := &fakeProvider{}
	cache := NewRouteCache(provider, 10*time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	_, _, err := cache.Lookup(context.Background(), testOrigin, testDestination, "driving")
	require.NoError(t, err)

	// Advance past the TTL
	cache.now = func() time.Time { return now.Add(11 * time.Minute) }

	_, cached, err := cache.Lookup(context.Background(), testOrigin, testDestination, "driving")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&provider.calls))
}

func TestLookupSingleFlight(t *testing.T) {
	provider := &fakeProvider{delay: 50 * time.Millisecond}
	cache := NewRouteCache(provider, 10*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := cache.Lookup(context.Background(), testOrigin, testDestination, "driving")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Concurrent misses collapse into one upstream call
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestLookupProviderError(t *testing.T) {
	provider := &fakeProvider{err: &ProviderError{Provider: "fake", Status: "503", Err: errors.New("down")}}
	cache := NewRouteCache(provider, 10*time.Minute)

	_, _, err := cache.Lookup(context.Background(), testOrigin, testDestination, "driving")
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "fake", providerErr.Provider)

	// Errors are not cached
	_, _, err = cache.Lookup(context.Background(), testOrigin, testDestination, "driving")
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&provider.calls))
}

func TestTTLFloor(t *testing.T) {
	cache := NewRouteCache(&fakeProvider{}, time.Minute)
	assert.Equal(t, minCacheTTL, cache.ttl)
}

func TestLookupDefaultsMode(t *testing.T) {
	provider := &fakeProvider{}
	cache := NewRouteCache(provider, 10*time.Minute)

	_, _, err := cache.Lookup(context.Background(), testOrigin, testDestination, "")
	require.NoError(t, err)

	_, cached, err := cache.Lookup(context.Background(), testOrigin, testDestination, "driving")
	require.NoError(t, err)
	assert.True(t, cached)
}
