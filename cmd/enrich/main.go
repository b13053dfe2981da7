package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/crisisconnect/report-enrichment/internal/adapter/geocache"
	httpadapter "github.com/crisisconnect/report-enrichment/internal/adapter/http"
	kafkaadapter "github.com/crisisconnect/report-enrichment/internal/adapter/kafka"
	"github.com/crisisconnect/report-enrichment/internal/adapter/nominatim"
	"github.com/crisisconnect/report-enrichment/internal/adapter/openai"
	"github.com/crisisconnect/report-enrichment/internal/config"
	"github.com/crisisconnect/report-enrichment/internal/domain"
	"github.com/crisisconnect/report-enrichment/internal/enrich"
	"github.com/crisisconnect/report-enrichment/internal/nlp"
	"github.com/crisisconnect/report-enrichment/internal/observability"
	"github.com/crisisconnect/report-enrichment/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistent store for the geocode cache and the official event index
	// behind corroboration scoring. Optional; without it corroboration is
	// skipped and geocoding falls back to the in-memory cache alone.
	var store *geocache.Store
	if cfg.GeocodeCachePath != "" {
		store, err = geocache.Open(cfg.GeocodeCachePath)
		if err != nil {
			logger.Error("failed to open geocode store", "path", cfg.GeocodeCachePath, "error", err)
			os.Exit(1)
		}
		defer store.Close()

		if err := store.PruneEvents(ctx, cfg.EventRetention); err != nil {
			logger.Warn("pruning official events failed", "error", err)
		}
		logger.Info("geocode store opened", "path", cfg.GeocodeCachePath, "event_retention", cfg.EventRetention)
	}

	// Geocoder chain, outermost first: memory LRU, sqlite cache, rate gate,
	// Nominatim client. The gate sits inside both caches so hits never wait
	// out the courtesy interval.
	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		geocoder = nominatim.NewClient(cfg.GeocodeUserAgent, cfg.GeocodeTimeout, metrics, logger)
		geocoder = nominatim.NewGatedGeocoder(geocoder, clockwork.NewRealClock(), cfg.GeocodeInterval, metrics)
		if store != nil {
			geocoder = geocache.NewPersistentGeocoder(geocoder, store, metrics)
		}
		geocoder = nominatim.NewCachedGeocoder(geocoder, cfg.GeocodeCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("nominatim geocoding enabled",
			"interval", cfg.GeocodeInterval, "cache_size", cfg.GeocodeCacheSize)
	} else {
		logger.Info("geocoding disabled")
	}

	// Per-stage oracle fallback, sharing one client.
	var classifyOracle, extractOracle domain.TextOracle
	if cfg.OracleEnabled() {
		client := openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OracleTimeout)
		classifyOracle = openai.Instrument(client, "classify", metrics)
		extractOracle = openai.Instrument(client, "extract", metrics)
		logger.Info("oracle fallback enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("oracle fallback disabled")
	}

	var eventIndex enrich.EventIndex
	var recorder pipeline.EventRecorder
	if store != nil {
		eventIndex = store
		recorder = store
	}

	enricher := enrich.New(
		nlp.NewLanguageDetector(),
		enrich.NewClassifier(classifyOracle, cfg.OracleTimeout, logger),
		enrich.NewExtractor(nlp.NewEntityRecognizer(), extractOracle, cfg.OracleTimeout, cfg.LocationThreshold, logger),
		geocoder,
		enrich.NewScorer(enrich.DefaultScoreConfig(), eventIndex, logger),
		cfg.GeocodeTimeout,
		logger,
	)

	policy, err := enrich.ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		logger.Error("failed to parse merge policy", "error", err)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(enricher, policy, recorder, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize, cfg.WorkerCount)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
