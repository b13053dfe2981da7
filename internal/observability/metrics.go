package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// enrichment pipeline.
type Metrics struct {
	ReportsConsumed prometheus.Counter
	ReportsEnriched prometheus.Counter
	ReportErrors    prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: tier={memory,store}, result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeWait        prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Oracle fallback metrics: stage={classify,extract}, outcome={success,error,rejected}.
	OracleCalls *prometheus.CounterVec
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := build()
	prometheus.MustRegister(
		m.ReportsConsumed,
		m.ReportsEnriched,
		m.ReportErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeWait,
		m.GeocodeEnabled,
		m.OracleCalls,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return build()
}

func build() *Metrics {
	return &Metrics{
		ReportsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enrichment",
			Name:      "reports_consumed_total",
			Help:      "Total reports read from the source topic.",
		}),
		ReportsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enrichment",
			Name:      "reports_enriched_total",
			Help:      "Total enriched reports written to the sink topic.",
		}),
		ReportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enrichment",
			Name:      "report_errors_total",
			Help:      "Total reports dropped as unprocessable.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "enrichment",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "enrichment",
			Name:      "batch_size",
			Help:      "Number of reports per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "enrichment",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-enrich-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrichment",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrichment",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "enrichment",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "enrichment",
			Name:      "geocode_wait_seconds",
			Help:      "Time spent queued behind the geocoding rate gate.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "enrichment",
			Name:      "geocode_enabled",
			Help:      "1 when the geocoding stage is enabled, 0 otherwise.",
		}),
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrichment",
			Name:      "oracle_calls_total",
			Help:      "External text oracle calls by stage and outcome.",
		}, []string{"stage", "outcome"}),
	}
}
