// Package storage persists decoded products: mutable event state in
// PostgreSQL, long observation series in ClickHouse and reference
// snapshots in SQLite.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"nws_parser/internal/binary/nldn"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for observation storage.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			station         LowCardinality(String),
			valid           DateTime64(0, 'UTC'),
			family          LowCardinality(String),
			variable        LowCardinality(String),
			value           Nullable(Float64),
			product_id      String,
			inserted_at     DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = ReplacingMergeTree(inserted_at)
		PARTITION BY toYYYYMM(valid)
		ORDER BY (family, station, variable, valid)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS lightning (
			valid           DateTime64(9, 'UTC'),
			lat             Float32,
			lon             Float32,
			signal          Float32,
			multiplicity    UInt8,
			type            LowCardinality(String),
			axis_km         Float32
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMMDD(valid)
		ORDER BY (valid)`,
	}

	for _, q := range queries {
		if err := d.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// InsertObservations writes observation rows in one batch.
func (d *ClickHouseDB) InsertObservations(ctx context.Context, rows []ObservationRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO observations (station, valid, family, variable, value, product_id)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(r.Station, r.Valid, r.Family, r.Variable, r.Value, r.Product); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	return batch.Send()
}

// InsertLightning writes decoded strokes in one batch.
func (d *ClickHouseDB) InsertLightning(ctx context.Context, strokes []nldn.Stroke) error {
	if len(strokes) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO lightning (valid, lat, lon, signal, multiplicity, type, axis_km)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, s := range strokes {
		if err := batch.Append(s.Valid, float32(s.Lat), float32(s.Lon), float32(s.Amplitude),
			uint8(s.Multiplicity), s.Type, float32(s.EllipseKm)); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	return batch.Send()
}

// ObservationQuery selects a slice of the observation table.
type ObservationQuery struct {
	Station  string
	Variable string
	From     time.Time
	To       time.Time
	Limit    int
}

// QueryObservations returns rows matching q ordered by time.
func (d *ClickHouseDB) QueryObservations(ctx context.Context, q ObservationQuery) ([]ObservationRow, error) {
	if q.Limit <= 0 {
		q.Limit = 1000
	}
	rows, err := d.conn.Query(ctx, `
		SELECT station, valid, family, variable, value, product_id
		FROM observations FINAL
		WHERE station = ? AND variable = ? AND valid >= ? AND valid < ?
		ORDER BY valid
		LIMIT ?
	`, q.Station, q.Variable, q.From, q.To, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var out []ObservationRow
	for rows.Next() {
		var r ObservationRow
		if err := rows.Scan(&r.Station, &r.Valid, &r.Family, &r.Variable, &r.Value, &r.Product); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByFamily returns the number of stored observations per family.
func (d *ClickHouseDB) CountByFamily(ctx context.Context) (map[string]uint64, error) {
	rows, err := d.conn.Query(ctx, `SELECT family, count() FROM observations GROUP BY family`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]uint64)
	for rows.Next() {
		var family string
		var n uint64
		if err := rows.Scan(&family, &n); err != nil {
			return nil, err
		}
		out[family] = n
	}
	return out, rows.Err()
}
