package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("NOTIFY_RATE", "")
	t.Setenv("DEDUP_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nws.raw", cfg.NATSSubjectRaw)
	assert.Equal(t, "nws.notify", cfg.NATSSubjectPrefix)
	assert.Equal(t, 20.0, cfg.NotifyRate)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10000, cfg.DedupSize)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5432, cfg.Storage.Postgres.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_TOPIC", "decoded")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("NOTIFY_RATE", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "decoded", cfg.KafkaTopic)
	assert.Equal(t, 6543, cfg.Storage.Postgres.Port)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 2.5, cfg.NotifyRate)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad rate", "NOTIFY_RATE", "fast"},
		{"zero rate", "NOTIFY_RATE", "0"},
		{"bad dedup", "DEDUP_SIZE", "-1"},
		{"bad port", "POSTGRES_PORT", "pg"},
		{"bad format", "LOG_FORMAT", "xml"},
		{"bad shutdown", "SHUTDOWN_TIMEOUT", "soon"},
		{"legacy boundary alone", "NWS_LEGACY_BOUNDARY_GEOJSON", "old.geojson"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NWS_BOUNDARY_GEOJSON", "")
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
