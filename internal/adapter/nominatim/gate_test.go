package nominatim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/observability"
)

// --- mock for gate tests ---

type stampingGeocoder struct {
	mu    sync.Mutex
	times []time.Time
}

func (m *stampingGeocoder) Geocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times = append(m.times, time.Now())
	return domain.GeocodingResult{DisplayName: "x", Lat: 1, Lon: 1}, nil
}

func TestGatedGeocoder_SpacesCalls(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := &stampingGeocoder{}
	interval := 30 * time.Millisecond
	gated := NewGatedGeocoder(inner, clockwork.NewRealClock(), interval, observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gated.Geocode(context.Background(), "Mumbai")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, inner.times, 4)
	for i := 1; i < len(inner.times); i++ {
		gap := inner.times[i].Sub(inner.times[i-1])
		// Generous tolerance for scheduler jitter; the invariant is spacing,
		// not exact timing.
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond,
			"calls %d and %d were %v apart", i-1, i, gap)
	}
}

func TestGatedGeocoder_FirstCallImmediate(t *testing.T) {
	inner := &stampingGeocoder{}
	gated := NewGatedGeocoder(inner, clockwork.NewRealClock(), time.Minute, observability.NewMetricsForTesting())

	start := time.Now()
	_, err := gated.Geocode(context.Background(), "Mumbai")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGatedGeocoder_ContextCancelsWait(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := &stampingGeocoder{}
	gated := NewGatedGeocoder(inner, clockwork.NewRealClock(), time.Hour, observability.NewMetricsForTesting())

	// First call takes the immediate slot.
	_, err := gated.Geocode(context.Background(), "Mumbai")
	require.NoError(t, err)

	// Second call would wait an hour; the context ends it early.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = gated.Geocode(ctx, "Pune")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, inner.times, 1)
}

func TestRateGate_ReservationsAccumulate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	gate := newRateGate(clock, time.Second)

	// The first reservation is immediate; each subsequent one lands a full
	// interval later regardless of how fast callers arrive.
	require.NoError(t, gate.wait(context.Background()))

	done := make(chan error, 1)
	go func() { done <- gate.wait(context.Background()) }()

	// The waiter must block until the clock advances past its slot.
	select {
	case <-done:
		t.Fatal("second caller should be waiting for its slot")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(time.Second)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second caller never released")
	}
}
