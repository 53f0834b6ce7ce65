package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nws_parser/internal/archive"
	"nws_parser/internal/config"
	"nws_parser/internal/notify"
	"nws_parser/internal/observability"
	"nws_parser/internal/pipeline"
	"nws_parser/internal/registry"
	"nws_parser/internal/storage"
	"nws_parser/internal/stream"
)

var ingestFlags struct {
	Input        string
	NoStorage    bool
	CreateSchema bool
	NoNotify     bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingest service",
	Long: `Ingest subscribes to raw products on NATS (or reads an LDM feed from
--input), decodes them and fans the results out to the archive, the
databases, Kafka and the notification subjects.

Settings come from the environment; see NATS_URL, KAFKA_BROKERS,
POSTGRES_*, CLICKHOUSE_*, ARCHIVE_PATH and METRICS_ADDR.`,
	Example: `  NATS_URL=nats://localhost:4222 nws_parser ingest
  nws_parser ingest --input feed.ldm --no-storage --log-format console`,
	RunE: runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.Input, "input", "", "read an LDM feed from this file instead of NATS")
	f.BoolVar(&ingestFlags.NoStorage, "no-storage", false, "skip PostgreSQL and ClickHouse")
	f.BoolVar(&ingestFlags.CreateSchema, "create-schema", false, "create database tables before ingesting")
	f.BoolVar(&ingestFlags.NoNotify, "no-notify", false, "do not publish notifications")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if globalFlags.LogLevel != "" {
		cfg.LogLevel = globalFlags.LogLevel
	}
	if globalFlags.LogFormat != "" {
		cfg.LogFormat = globalFlags.LogFormat
	}
	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refs := references{
		StationsDB:     cfg.StationsDB,
		UGCDB:          cfg.UGCDB,
		Boundary:       cfg.Boundary,
		LegacyBoundary: cfg.LegacyBoundary,
		DedupSize:      cfg.DedupSize,
	}.withFlags()
	opts, err := loadOptions(ctx, refs, log)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	reg := registry.Default()
	reg.Sort()
	log.Info().Int("parsers", reg.ParserCount()).Msg("decoders registered")

	p := &pipeline.Pipeline{
		Registry:    reg,
		Options:     opts,
		Clock:       clock,
		Sinks:       make(map[string]pipeline.RecordSink),
		Log:         log,
		Metrics:     metrics,
		SinkRetries: 3,
	}

	if cfg.ArchivePath != "" {
		store, err := archive.Open(cfg.ArchivePath, clock)
		if err != nil {
			return err
		}
		defer store.Close()
		p.Archive = store
	}

	if cfg.IndexPath != "" {
		index, err := storage.OpenLocal(cfg.IndexPath)
		if err != nil {
			return err
		}
		defer index.Close()
		p.Sinks["sqlite"] = index
	}

	if !ingestFlags.NoStorage {
		db, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		defer db.Close()
		if ingestFlags.CreateSchema {
			if err := db.CreateSchemas(ctx); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		p.Sinks["db"] = db
	}

	if len(cfg.KafkaBrokers) > 0 {
		w := stream.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer w.Close()
		p.Stream = w
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka stream enabled")
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = notify.Connect(cfg.NATSURL, log)
		if err != nil {
			return err
		}
		defer nc.Close()
		if !ingestFlags.NoNotify {
			ncfg := notify.DefaultConfig(cfg.NATSSubjectPrefix)
			ncfg.Rate = cfg.NotifyRate
			p.Notifier = notify.New(nc, ncfg, log, metrics)
		}
	}

	srv := serveMetrics(cfg.MetricsAddr, log)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}()

	in := make(chan []byte, 256)
	switch {
	case ingestFlags.Input != "":
		go func() {
			defer close(in)
			if err := readFrames(ctx, ingestFlags.Input, in); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("read input")
			}
		}()
	case nc != nil:
		sub, err := nc.Subscribe(cfg.NATSSubjectRaw, func(m *nats.Msg) {
			select {
			case in <- m.Data:
			case <-ctx.Done():
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", cfg.NATSSubjectRaw, err)
		}
		defer func() { _ = sub.Unsubscribe() }()
		log.Info().Str("subject", cfg.NATSSubjectRaw).Msg("subscribed")
	default:
		return errors.New("no input: set NATS_URL or --input")
	}

	return p.Run(ctx, in)
}

func serveMetrics(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv
}
