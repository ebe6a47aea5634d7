package geocode

import (
	"context"
	"testing"

	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/ishanyash/btr-propflip/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeoResult
	err    error
}

func (m *countingGeocoder) Geocode(_ context.Context, _ string) (domain.GeoResult, error) {
	m.calls++
	return m.result, m.err
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: westminster}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.Geocode(context.Background(), "Buckingham Palace, London SW1A 1AA")
	require.NoError(t, err)
	assert.Equal(t, "Westminster", r1.AdminDistrict)

	r2, err := cached.Geocode(context.Background(), "buckingham palace,  london sw1a1aa")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{result: westminster}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.Geocode(context.Background(), "SW1A 1AA")
	_, _ = cached.Geocode(context.Background(), "SW1A 2AA")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{err: domain.ErrSourceUnavailable}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Geocode(context.Background(), "SW1A 1AA")
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)

	inner.err = nil
	inner.result = westminster
	result, err := cached.Geocode(context.Background(), "SW1A 1AA")
	require.NoError(t, err)
	assert.Equal(t, westminster, result)
	assert.Equal(t, 2, inner.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("10 Downing St, London"), cacheKey("10 DOWNING STREET,  london"))
	assert.Equal(t, cacheKey("sw1a2aa"), cacheKey("SW1A 2AA"))
	assert.NotEqual(t, cacheKey("1 High Street, SW1A 2AA"), cacheKey("1 High Street, SW1A 2AB"))
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.GeoResult{Postcode: "A"})
	c.put("b", domain.GeoResult{Postcode: "B"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.Postcode)

	_, ok = c.get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeoResult{Postcode: "A"})
	c.put("b", domain.GeoResult{Postcode: "B"})
	c.put("c", domain.GeoResult{Postcode: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", result.Postcode)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.Postcode)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeoResult{Postcode: "A"})
	c.put("b", domain.GeoResult{Postcode: "B"})

	c.get("a")
	c.put("c", domain.GeoResult{Postcode: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeoResult{Postcode: "A1"})
	c.put("a", domain.GeoResult{Postcode: "A2"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.Postcode)
	assert.Equal(t, 1, c.len())
}
