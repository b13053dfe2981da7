package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-disaster-reports", cfg.KafkaSourceTopic)
	assert.Equal(t, "enriched-disaster-reports", cfg.KafkaSinkTopic)
	assert.Equal(t, "report-enrichment", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, "overwrite", cfg.MergePolicy)
	assert.False(t, cfg.OracleEnabled())
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", cfg.OpenAIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.OracleTimeout)
	assert.InDelta(t, 0.5, cfg.LocationThreshold, 1e-9)
	assert.True(t, cfg.GeocodeEnabled)
	assert.Equal(t, time.Second, cfg.GeocodeInterval)
	assert.Equal(t, 1000, cfg.GeocodeCacheSize)
	assert.Empty(t, cfg.GeocodeCachePath)
	assert.Equal(t, 7*24*time.Hour, cfg.EventRetention)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("MERGE_POLICY", "fill")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1/chat/completions")
	t.Setenv("OPENAI_MODEL", "llama3")
	t.Setenv("OPENAI_TIMEOUT", "20s")
	t.Setenv("LOCATION_THRESHOLD", "0.7")
	t.Setenv("GEOCODE_USER_AGENT", "my-deployment/2.0")
	t.Setenv("GEOCODE_INTERVAL", "1500ms")
	t.Setenv("GEOCODE_TIMEOUT", "5s")
	t.Setenv("GEOCODE_CACHE_SIZE", "500")
	t.Setenv("GEOCODE_CACHE_PATH", "/var/lib/enrichment/geocache.db")
	t.Setenv("EVENT_RETENTION", "48h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, "fill", cfg.MergePolicy)
	assert.True(t, cfg.OracleEnabled())
	assert.Equal(t, "llama3", cfg.OpenAIModel)
	assert.Equal(t, 20*time.Second, cfg.OracleTimeout)
	assert.InDelta(t, 0.7, cfg.LocationThreshold, 1e-9)
	assert.Equal(t, "my-deployment/2.0", cfg.GeocodeUserAgent)
	assert.Equal(t, 1500*time.Millisecond, cfg.GeocodeInterval)
	assert.Equal(t, 5*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 500, cfg.GeocodeCacheSize)
	assert.Equal(t, "/var/lib/enrichment/geocache.db", cfg.GeocodeCachePath)
	assert.Equal(t, 48*time.Hour, cfg.EventRetention)
}

func TestLoad_GeocodeDisabled(t *testing.T) {
	t.Setenv("GEOCODE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.GeocodeEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "soon"},
		{"bad batch size", "BATCH_SIZE", "many"},
		{"zero batch size", "BATCH_SIZE", "0"},
		{"zero workers", "WORKER_COUNT", "0"},
		{"bad merge policy", "MERGE_POLICY", "replace"},
		{"threshold above one", "LOCATION_THRESHOLD", "1.5"},
		{"bad geocode interval", "GEOCODE_INTERVAL", "-1s"},
		{"bad event retention", "EVENT_RETENTION", "forever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EmptyBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")

	_, err := Load()
	assert.Error(t, err)
}
