package nominatim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/observability"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) Geocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: 19.07, Lon: 72.87, PlaceName: "Mumbai", DisplayName: "Mumbai, Maharashtra, India"},
	}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	r1, err := cached.Geocode(context.Background(), "Mumbai")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", r1.PlaceName)

	r2, err := cached.Geocode(context.Background(), "Mumbai")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedGeocoder_KeyFoldsCaseAndSpace(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: 19.07, Lon: 72.87, DisplayName: "Mumbai, Maharashtra, India"},
	}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.Geocode(context.Background(), "Mumbai")
	_, _ = cached.Geocode(context.Background(), "  MUMBAI ")
	_, _ = cached.Geocode(context.Background(), "mumbai")

	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_DifferentPlacesMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: 1, Lon: 1, DisplayName: "somewhere"},
	}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.Geocode(context.Background(), "Mumbai")
	_, _ = cached.Geocode(context.Background(), "Pune")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultsNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	_, err = cached.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "empty results should be retried")
}

func TestCachedGeocoder_ErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Geocode(context.Background(), "Mumbai")
	require.Error(t, err)
	_, err = cached.Geocode(context.Background(), "Mumbai")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.PlaceName)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})
	c.put("c", domain.GeocodingResult{PlaceName: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	_, ok = c.get("b")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A"})
	c.put("b", domain.GeocodingResult{PlaceName: "B"})

	c.get("a")

	// Inserting "c" evicts the least recently used "b", not "a".
	c.put("c", domain.GeocodingResult{PlaceName: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeocodingResult{PlaceName: "A1"})
	c.put("a", domain.GeocodingResult{PlaceName: "A2"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.PlaceName)
}
