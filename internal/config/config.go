// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/storage"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	StationsDB     string
	UGCDB          string
	ArchivePath    string
	IndexPath      string
	Boundary       string
	LegacyBoundary string

	NATSURL           string
	NATSSubjectRaw    string
	NATSSubjectPrefix string
	NotifyRate        float64

	KafkaBrokers []string
	KafkaTopic   string

	Storage storage.Config

	LogLevel        string
	LogFormat       string
	MetricsAddr     string
	DedupSize       int
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	notifyRate, err := parseFloat("NOTIFY_RATE", 20)
	if err != nil {
		return nil, err
	}
	dedupSize, err := parseInt("DEDUP_SIZE", 10000)
	if err != nil {
		return nil, err
	}
	shutdown, err := time.ParseDuration(EnvOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdown <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	db := storage.DefaultConfig()
	db.Postgres.Host = EnvOrDefault("POSTGRES_HOST", db.Postgres.Host)
	db.Postgres.Database = EnvOrDefault("POSTGRES_DB", db.Postgres.Database)
	db.Postgres.User = EnvOrDefault("POSTGRES_USER", db.Postgres.User)
	db.Postgres.Password = EnvOrDefault("POSTGRES_PASSWORD", db.Postgres.Password)
	if db.Postgres.Port, err = parseInt("POSTGRES_PORT", db.Postgres.Port); err != nil {
		return nil, err
	}
	db.ClickHouse.Host = EnvOrDefault("CLICKHOUSE_HOST", db.ClickHouse.Host)
	db.ClickHouse.Database = EnvOrDefault("CLICKHOUSE_DB", db.ClickHouse.Database)
	db.ClickHouse.User = EnvOrDefault("CLICKHOUSE_USER", db.ClickHouse.User)
	db.ClickHouse.Password = EnvOrDefault("CLICKHOUSE_PASSWORD", db.ClickHouse.Password)
	if db.ClickHouse.Port, err = parseInt("CLICKHOUSE_PORT", db.ClickHouse.Port); err != nil {
		return nil, err
	}

	cfg := &Config{
		StationsDB:        os.Getenv("NWS_STATIONS_DB"),
		UGCDB:             os.Getenv("NWS_UGC_DB"),
		ArchivePath:       EnvOrDefault("ARCHIVE_PATH", "nws-archive.db"),
		IndexPath:         os.Getenv("NWS_INDEX_DB"),
		Boundary:          os.Getenv("NWS_BOUNDARY_GEOJSON"),
		LegacyBoundary:    os.Getenv("NWS_LEGACY_BOUNDARY_GEOJSON"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectRaw:    EnvOrDefault("NATS_SUBJECT_RAW", "nws.raw"),
		NATSSubjectPrefix: EnvOrDefault("NATS_SUBJECT_PREFIX", "nws.notify"),
		NotifyRate:        notifyRate,
		KafkaBrokers:      ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        EnvOrDefault("KAFKA_TOPIC", "nws-decoded"),
		Storage:           db,
		LogLevel:          EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         EnvOrDefault("LOG_FORMAT", "json"),
		MetricsAddr:       EnvOrDefault("METRICS_ADDR", ":9108"),
		DedupSize:         dedupSize,
		ShutdownTimeout:   shutdown,
	}

	if cfg.NotifyRate <= 0 {
		return nil, errors.New("NOTIFY_RATE must be positive")
	}
	if cfg.DedupSize <= 0 {
		return nil, errors.New("DEDUP_SIZE must be positive")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.LegacyBoundary != "" && cfg.Boundary == "" {
		return nil, errors.New("NWS_LEGACY_BOUNDARY_GEOJSON requires NWS_BOUNDARY_GEOJSON")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

// EnvOrDefault returns the environment value of key, or def when unset.
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
