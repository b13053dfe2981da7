package nominatim

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/observability"
)

// rateGate spaces calls at least interval apart, process-wide. Each caller
// reserves the next free slot under the lock and then sleeps until its slot
// arrives, so concurrent workers queue up instead of bursting.
type rateGate struct {
	clock    clockwork.Clock
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func newRateGate(clock clockwork.Clock, interval time.Duration) *rateGate {
	return &rateGate{clock: clock, interval: interval}
}

// wait blocks until the caller's reserved slot arrives or the context ends.
func (g *rateGate) wait(ctx context.Context) error {
	g.mu.Lock()
	now := g.clock.Now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(g.interval)
	g.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return nil
	}

	timer := g.clock.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GatedGeocoder wraps a Geocoder with the usage-policy rate gate. The public
// Nominatim endpoint allows at most one request per second per client.
type GatedGeocoder struct {
	inner   domain.Geocoder
	gate    *rateGate
	metrics *observability.Metrics
}

// NewGatedGeocoder creates the rate-limiting decorator. The clock is
// injectable so tests run without real sleeps.
func NewGatedGeocoder(inner domain.Geocoder, clock clockwork.Clock, interval time.Duration, metrics *observability.Metrics) *GatedGeocoder {
	return &GatedGeocoder{
		inner:   inner,
		gate:    newRateGate(clock, interval),
		metrics: metrics,
	}
}

func (g *GatedGeocoder) Geocode(ctx context.Context, place string) (domain.GeocodingResult, error) {
	start := g.gate.clock.Now()
	if err := g.gate.wait(ctx); err != nil {
		return domain.GeocodingResult{}, err
	}
	g.metrics.GeocodeWait.Observe(g.gate.clock.Since(start).Seconds())
	return g.inner.Geocode(ctx, place)
}
