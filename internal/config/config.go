// Package config loads service settings from environment variables, with a
// local .env file honored in development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize   int
	WorkerCount int

	// MergePolicy decides how a reprocessed report's previous enrichment is
	// combined with the fresh pass: "overwrite" or "fill".
	MergePolicy string

	// External oracle (OpenAI-compatible). An empty API key disables the
	// fallback entirely; per-report flags can only further restrict it.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OracleTimeout time.Duration

	// Location extraction: local results below this confidence trigger the
	// oracle fallback when the report allows it.
	LocationThreshold float64

	// Nominatim geocoding configuration.
	GeocodeEnabled   bool
	GeocodeUserAgent string
	GeocodeInterval  time.Duration
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// GeocodeCachePath enables the persistent sqlite cache and the official
	// event index when non-empty.
	GeocodeCachePath string
	EventRetention   time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	oracleTimeout, err := envDuration("OPENAI_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geocodeInterval, err := envDuration("GEOCODE_INTERVAL", time.Second)
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := envDuration("GEOCODE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	eventRetention, err := envDuration("EVENT_RETENTION", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	batchSize, err := envInt("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	workerCount, err := envInt("WORKER_COUNT", 4)
	if err != nil {
		return nil, err
	}
	cacheSize, err := envInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	locationThreshold, err := envFloat("LOCATION_THRESHOLD", 0.5)
	if err != nil {
		return nil, err
	}

	geocodeEnabled := true
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		geocodeEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:     splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-disaster-reports"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "enriched-disaster-reports"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "report-enrichment"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		BatchSize:   batchSize,
		WorkerCount: workerCount,
		MergePolicy: envOrDefault("MERGE_POLICY", "overwrite"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:   envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OracleTimeout: oracleTimeout,

		LocationThreshold: locationThreshold,

		GeocodeEnabled:   geocodeEnabled,
		GeocodeUserAgent: envOrDefault("GEOCODE_USER_AGENT", "report-enrichment/1.0"),
		GeocodeInterval:  geocodeInterval,
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: cacheSize,
		GeocodeCachePath: os.Getenv("GEOCODE_CACHE_PATH"),
		EventRetention:   eventRetention,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.BatchSize <= 0 {
		return errors.New("BATCH_SIZE must be positive")
	}
	if c.WorkerCount <= 0 {
		return errors.New("WORKER_COUNT must be positive")
	}
	if c.MergePolicy != "overwrite" && c.MergePolicy != "fill" {
		return fmt.Errorf("MERGE_POLICY must be overwrite or fill, got %q", c.MergePolicy)
	}
	if c.LocationThreshold < 0 || c.LocationThreshold > 1 {
		return errors.New("LOCATION_THRESHOLD must be in [0,1]")
	}
	if c.GeocodeEnabled && c.GeocodeUserAgent == "" {
		return errors.New("GEOCODE_USER_AGENT is required when geocoding is enabled")
	}
	if c.GeocodeEnabled && c.GeocodeInterval <= 0 {
		return errors.New("GEOCODE_INTERVAL must be positive")
	}
	return nil
}

// OracleEnabled reports whether the external fallback is configured at all.
func (c *Config) OracleEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitBrokers(value string) []string {
	parts := strings.Split(value, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
