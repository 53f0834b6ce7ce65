package storage

import (
	"context"
	"errors"
	"fmt"

	"nws_parser/internal/binary/nldn"
)

// Config holds database connection settings for both ClickHouse and PostgreSQL.
type Config struct {
	ClickHouse ClickHouseConfig
	Postgres   PostgresConfig
}

// DefaultConfig returns a configuration with default local development settings.
func DefaultConfig() Config {
	return Config{
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "nws",
			User:     "default",
			Password: "",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "nws",
			User:     "nws",
			Password: "nws",
		},
	}
}

// DB wraps both ClickHouse and PostgreSQL connections.
type DB struct {
	CH *ClickHouseDB // ClickHouse for observation series.
	PG *PostgresDB   // PostgreSQL for products and event state.
}

// Open opens connections to both ClickHouse and PostgreSQL.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}

	pg, err := OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &DB{CH: ch, PG: pg}, nil
}

// Close closes both database connections.
func (d *DB) Close() error {
	var err error
	if d.CH != nil {
		if cerr := d.CH.Close(); cerr != nil {
			err = fmt.Errorf("clickhouse: %w", cerr)
		}
	}
	if d.PG != nil {
		d.PG.Close()
	}
	return err
}

// CreateSchemas creates the schemas in both databases.
func (d *DB) CreateSchemas(ctx context.Context) error {
	if err := d.CH.CreateSchema(ctx); err != nil {
		return fmt.Errorf("clickhouse schema: %w", err)
	}
	if err := d.PG.CreateSchema(ctx); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

// Write routes one result's rows to the store that owns them.
func (d *DB) Write(ctx context.Context, rec Records) error {
	var errs []error
	if d.PG != nil {
		if err := d.PG.WriteRecords(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if d.CH != nil {
		if err := d.CH.InsertObservations(ctx, rec.Observations); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse: %w", err))
		}
	}
	return errors.Join(errs...)
}

// WriteLightning stores decoded strokes.
func (d *DB) WriteLightning(ctx context.Context, strokes []nldn.Stroke) error {
	if d.CH == nil {
		return nil
	}
	return d.CH.InsertLightning(ctx, strokes)
}
