//go:build nominatim

package nominatim

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisisconnect/report-enrichment/internal/observability"
)

// These tests hit the real public Nominatim endpoint and respect its one
// request per second policy.
// Run with: go test -tags=nominatim ./internal/adapter/nominatim/ -v -count=1

func smokeGeocoder() *GatedGeocoder {
	client := NewClient("report-enrichment-smoke/1.0 (dev test)", 10*time.Second,
		observability.NewMetricsForTesting(), discardLogger())
	return NewGatedGeocoder(client, clockwork.NewRealClock(), time.Second,
		observability.NewMetricsForTesting())
}

func TestSmoke_GeocodeKnownCity(t *testing.T) {
	g := smokeGeocoder()

	result, err := g.Geocode(context.Background(), "Mumbai")
	require.NoError(t, err)

	assert.InDelta(t, 19.08, result.Lat, 0.5, "lat should be near Mumbai")
	assert.InDelta(t, 72.88, result.Lon, 0.5, "lon should be near Mumbai")
	assert.Contains(t, result.DisplayName, "Mumbai")
	assert.Greater(t, result.Confidence, 0.3)
}

func TestSmoke_GeocodeUnknownPlace(t *testing.T) {
	g := smokeGeocoder()

	result, err := g.Geocode(context.Background(), "xyzzy nonexistent hamlet 99")
	require.NoError(t, err)
	assert.True(t, result.Empty())
}
