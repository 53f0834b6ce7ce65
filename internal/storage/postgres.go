package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nws_parser/internal/nws"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB stores products and the event tables derived from them.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// Pool returns the underlying pool for ad hoc queries.
func (d *PostgresDB) Pool() *pgxpool.Pool {
	return d.pool
}

// CreateSchema creates the PostgreSQL tables. Geometry columns need the
// PostGIS extension.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS products (
		product_id      TEXT PRIMARY KEY,
		afos            TEXT,
		ttaaii          TEXT NOT NULL,
		source          TEXT NOT NULL,
		valid           TIMESTAMPTZ NOT NULL,
		is_correction   BOOLEAN NOT NULL DEFAULT FALSE,
		family          TEXT NOT NULL,
		text            TEXT NOT NULL,
		warnings        TEXT[],
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_products_afos_valid ON products(afos, valid);

	CREATE TABLE IF NOT EXISTS vtec_events (
		wfo             TEXT NOT NULL,
		phenomena       TEXT NOT NULL,
		significance    TEXT NOT NULL,
		etn             INTEGER NOT NULL,
		year            INTEGER NOT NULL,
		ugc             TEXT NOT NULL,
		status          TEXT NOT NULL,
		issue           TIMESTAMPTZ,
		expire          TIMESTAMPTZ,
		polygon         GEOMETRY(POLYGON, 4326),
		product_ids     TEXT[] NOT NULL,
		PRIMARY KEY (wfo, phenomena, significance, etn, year, ugc)
	);

	CREATE TABLE IF NOT EXISTS lsrs (
		product_id      TEXT NOT NULL,
		valid           TIMESTAMPTZ NOT NULL,
		type            TEXT NOT NULL,
		magnitude       DOUBLE PRECISION,
		unit            TEXT,
		city            TEXT,
		county          TEXT,
		state           TEXT,
		source          TEXT,
		remark          TEXT,
		wfo             TEXT,
		geom            GEOMETRY(POINT, 4326),
		duplicate       BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_lsrs_valid ON lsrs(valid);

	CREATE TABLE IF NOT EXISTS outlooks (
		product_id      TEXT NOT NULL,
		day             SMALLINT NOT NULL,
		cycle           SMALLINT NOT NULL,
		outlook_type    CHAR(1) NOT NULL,
		category        TEXT NOT NULL,
		threshold       TEXT NOT NULL,
		issue           TIMESTAMPTZ,
		expire          TIMESTAMPTZ,
		geom            GEOMETRY(MULTIPOLYGON, 4326),
		PRIMARY KEY (product_id, day, category, threshold)
	);

	CREATE TABLE IF NOT EXISTS watches (
		product_id      TEXT PRIMARY KEY,
		num             INTEGER NOT NULL,
		type            TEXT,
		action          TEXT NOT NULL,
		issue           TIMESTAMPTZ,
		expire          TIMESTAMPTZ,
		geom            GEOMETRY(POLYGON, 4326)
	);

	CREATE TABLE IF NOT EXISTS mcds (
		product_id      TEXT PRIMARY KEY,
		num             INTEGER NOT NULL,
		year            INTEGER NOT NULL,
		concerning      TEXT,
		watch_prob      SMALLINT,
		issue           TIMESTAMPTZ,
		expire          TIMESTAMPTZ,
		geom            GEOMETRY(POLYGON, 4326)
	);

	CREATE TABLE IF NOT EXISTS pireps (
		product_id      TEXT NOT NULL,
		valid           TIMESTAMPTZ NOT NULL,
		urgent          BOOLEAN NOT NULL,
		aircraft        TEXT,
		geom            GEOMETRY(POINT, 4326),
		report          TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sigmets (
		product_id      TEXT NOT NULL,
		class           TEXT NOT NULL,
		label           TEXT NOT NULL,
		issue           TIMESTAMPTZ,
		expire          TIMESTAMPTZ,
		geom            GEOMETRY(MULTIPOLYGON, 4326),
		raw             TEXT,
		PRIMARY KEY (label, issue)
	);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// VTECOp is how a VTEC action changes the event table.
type VTECOp int

const (
	VTECInsert VTECOp = iota
	VTECUpdate
	VTECClose
	VTECIgnore
)

// ClassifyVTEC maps an action to its event table operation.
func ClassifyVTEC(a nws.Action) VTECOp {
	switch a {
	case nws.ActionNew, nws.ActionExa, nws.ActionExb:
		return VTECInsert
	case nws.ActionCon, nws.ActionExt, nws.ActionCor, nws.ActionRou:
		return VTECUpdate
	case nws.ActionCan, nws.ActionExp, nws.ActionUpg:
		return VTECClose
	}
	return VTECIgnore
}

const (
	insertVTECSQL = `
		INSERT INTO vtec_events (wfo, phenomena, significance, etn, year, ugc, status, issue, expire, polygon, product_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, ST_GeomFromText($10, 4326), ARRAY[$11])
		ON CONFLICT (wfo, phenomena, significance, etn, year, ugc) DO UPDATE SET
			status = EXCLUDED.status,
			issue = COALESCE(vtec_events.issue, EXCLUDED.issue),
			expire = COALESCE(EXCLUDED.expire, vtec_events.expire),
			polygon = COALESCE(EXCLUDED.polygon, vtec_events.polygon),
			product_ids = array_append(vtec_events.product_ids, $11)`

	updateVTECSQL = `
		UPDATE vtec_events SET
			status = $7,
			expire = COALESCE($9, expire),
			polygon = COALESCE(ST_GeomFromText($10, 4326), polygon),
			product_ids = array_append(product_ids, $11)
		WHERE wfo = $1 AND phenomena = $2 AND significance = $3 AND etn = $4 AND year = $5 AND ugc = $6`

	closeVTECSQL = `
		UPDATE vtec_events SET
			status = $7,
			expire = LEAST(COALESCE(expire, $8), $8),
			product_ids = array_append(product_ids, $9)
		WHERE wfo = $1 AND phenomena = $2 AND significance = $3 AND etn = $4 AND year = $5 AND ugc = $6`
)

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func pointWKT(lon, lat *float64) *string {
	if lon == nil || lat == nil {
		return nil
	}
	s := fmt.Sprintf("POINT(%f %f)", *lon, *lat)
	return &s
}

// WriteRecords stores one result's rows in a single transaction.
func (d *PostgresDB) WriteRecords(ctx context.Context, rec Records) error {
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		p := rec.Product
		b.Queue(`
			INSERT INTO products (product_id, afos, ttaaii, source, valid, is_correction, family, text, warnings)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (product_id) DO UPDATE SET
				text = EXCLUDED.text,
				warnings = EXCLUDED.warnings,
				is_correction = EXCLUDED.is_correction,
				family = EXCLUDED.family,
				updated_at = NOW()
		`, p.ProductID, nullable(p.AFOS), p.TTAAII, p.Source, p.Valid, p.IsCorrection, p.Family, p.Text, p.Warnings)

		for _, v := range rec.VTEC {
			args := []any{v.WFO, v.Phenomena, v.Significance, v.ETN, v.Year, v.UGC, string(v.Action)}
			switch ClassifyVTEC(v.Action) {
			case VTECInsert:
				b.Queue(insertVTECSQL, append(args, v.Begin, v.End, nullable(v.PolygonWKT), v.ProductID)...)
			case VTECUpdate:
				b.Queue(updateVTECSQL, append(args, v.Begin, v.End, nullable(v.PolygonWKT), v.ProductID)...)
			case VTECClose:
				b.Queue(closeVTECSQL, append(args, p.Valid, v.ProductID)...)
			}
		}

		for _, l := range rec.LSRs {
			b.Queue(`
				INSERT INTO lsrs (product_id, valid, type, magnitude, unit, city, county, state, source, remark, wfo, geom, duplicate)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, ST_GeomFromText($12, 4326), $13)
			`, l.ProductID, l.Valid, l.Type, l.Magnitude, l.Unit, l.City, l.County, l.State, l.Source, l.Remark, l.WFO,
				pointWKT(&l.Lon, &l.Lat), l.Duplicate)
		}
		for _, o := range rec.Outlooks {
			b.Queue(`
				INSERT INTO outlooks (product_id, day, cycle, outlook_type, category, threshold, issue, expire, geom)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, ST_Multi(ST_GeomFromText($9, 4326)))
				ON CONFLICT (product_id, day, category, threshold) DO UPDATE SET geom = EXCLUDED.geom
			`, o.ProductID, o.Day, o.Cycle, o.Kind, o.Category, o.Threshold, o.Issue, o.Expire, nullable(o.GeomWKT))
		}
		for _, w := range rec.Watches {
			b.Queue(`
				INSERT INTO watches (product_id, num, type, action, issue, expire, geom)
				VALUES ($1, $2, $3, $4, $5, $6, ST_GeomFromText($7, 4326))
				ON CONFLICT (product_id) DO NOTHING
			`, w.ProductID, w.Num, w.Type, w.Action, w.Issue, w.Expire, nullable(w.GeomWKT))
		}
		for _, m := range rec.MCDs {
			b.Queue(`
				INSERT INTO mcds (product_id, num, year, concerning, watch_prob, issue, expire, geom)
				VALUES ($1, $2, $3, $4, $5, $6, $7, ST_GeomFromText($8, 4326))
				ON CONFLICT (product_id) DO UPDATE SET geom = EXCLUDED.geom, watch_prob = EXCLUDED.watch_prob
			`, m.ProductID, m.Num, m.Year, m.Concerning, m.WatchProb, m.Issue, m.Expire, nullable(m.GeomWKT))
		}
		for _, r := range rec.PIREPs {
			b.Queue(`
				INSERT INTO pireps (product_id, valid, urgent, aircraft, geom, report)
				VALUES ($1, $2, $3, $4, ST_GeomFromText($5, 4326), $6)
			`, r.ProductID, r.Valid, r.Urgent, r.Aircraft, pointWKT(r.Lon, r.Lat), r.Report)
		}
		for _, s := range rec.SIGMETs {
			b.Queue(`
				INSERT INTO sigmets (product_id, class, label, issue, expire, geom, raw)
				VALUES ($1, $2, $3, $4, $5, ST_Multi(ST_GeomFromText($6, 4326)), $7)
				ON CONFLICT (label, issue) DO UPDATE SET expire = EXCLUDED.expire, geom = EXCLUDED.geom, raw = EXCLUDED.raw
			`, s.ProductID, s.Class, s.Label, s.Issue, s.Expire, nullable(s.GeomWKT), s.Raw)
		}

		return tx.SendBatch(ctx, b).Close()
	})
}

// Product is a stored product row.
type Product struct {
	ProductID string
	AFOS      string
	Valid     time.Time
	Family    string
	Text      string
}

// LatestProduct returns the newest product for an AFOS PIL.
func (d *PostgresDB) LatestProduct(ctx context.Context, afos string) (*Product, error) {
	var p Product
	err := d.pool.QueryRow(ctx, `
		SELECT product_id, afos, valid, family, text FROM products
		WHERE afos = $1 ORDER BY valid DESC LIMIT 1
	`, afos).Scan(&p.ProductID, &p.AFOS, &p.Valid, &p.Family, &p.Text)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
