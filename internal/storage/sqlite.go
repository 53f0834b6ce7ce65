package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite"

	"nws_parser/internal/geo"
)

// LocalDB is a SQLite file holding the reference snapshot and a local,
// searchable copy of decoded products.
type LocalDB struct {
	db *sql.DB
}

// OpenLocal opens or creates a SQLite database at the given path.
func OpenLocal(path string) (*LocalDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createLocalSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &LocalDB{db: db}, nil
}

// Close closes the database connection.
func (d *LocalDB) Close() error {
	return d.db.Close()
}

func createLocalSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		state TEXT,
		network TEXT,
		wfo TEXT,
		tzname TEXT,
		lon REAL NOT NULL,
		lat REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ugcs (
		ugc TEXT NOT NULL,
		name TEXT NOT NULL,
		state TEXT,
		wfos TEXT,
		source TEXT NOT NULL,
		begin_ts TEXT NOT NULL,
		end_ts TEXT,
		centroid_lon REAL,
		centroid_lat REAL,
		geom BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_ugcs_code ON ugcs(ugc);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id TEXT NOT NULL UNIQUE,
		afos TEXT,
		valid TEXT NOT NULL,
		family TEXT NOT NULL,
		text TEXT NOT NULL,
		warnings TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_products_afos ON products(afos, valid);

	CREATE VIRTUAL TABLE IF NOT EXISTS products_fts USING fts5(
		text,
		content='products',
		content_rowid='id'
	);

	CREATE TRIGGER IF NOT EXISTS products_ai AFTER INSERT ON products BEGIN
		INSERT INTO products_fts(rowid, text) VALUES (new.id, new.text);
	END;

	CREATE TRIGGER IF NOT EXISTS products_ad AFTER DELETE ON products BEGIN
		INSERT INTO products_fts(products_fts, rowid, text) VALUES ('delete', old.id, old.text);
	END;
	`
	_, err := db.Exec(schema)
	return err
}

// PutStations replaces the station snapshot.
func (d *LocalDB) PutStations(ctx context.Context, stations []geo.Station) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stations`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stations (id, name, state, network, wfo, tzname, lon, lat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, s := range stations {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.State, s.Network, s.WFO, s.TZName, s.Lon, s.Lat); err != nil {
			return fmt.Errorf("insert station %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

// LoadStationsSQLite builds a station table from the snapshot.
func (d *LocalDB) LoadStationsSQLite(ctx context.Context) (*geo.StationTable, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(state, ''), COALESCE(network, ''), COALESCE(wfo, ''),
			COALESCE(tzname, ''), lon, lat
		FROM stations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []geo.Station
	for rows.Next() {
		var s geo.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.State, &s.Network, &s.WFO, &s.TZName, &s.Lon, &s.Lat); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return geo.NewStationTable(out), nil
}

// PutUGCs replaces the UGC snapshot. Geometries are stored as WKB.
func (d *LocalDB) PutUGCs(ctx context.Context, records []geo.UGCRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ugcs`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ugcs (ugc, name, state, wfos, source, begin_ts, end_ts, centroid_lon, centroid_lat, geom)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		var end any
		if r.End != nil {
			end = r.End.UTC().Format(time.RFC3339)
		}
		var geom []byte
		if r.Geometry != nil {
			if geom, err = wkb.Marshal(r.Geometry); err != nil {
				return fmt.Errorf("encode %s geometry: %w", r.Code, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, r.Code, r.Name, r.State, strings.Join(r.WFOs, ","), r.Source,
			r.Begin.UTC().Format(time.RFC3339), end, r.Centroid.Lon(), r.Centroid.Lat(), geom); err != nil {
			return fmt.Errorf("insert ugc %s: %w", r.Code, err)
		}
	}
	return tx.Commit()
}

// LoadUGCsSQLite builds a UGC table from the snapshot.
func (d *LocalDB) LoadUGCsSQLite(ctx context.Context) (*geo.UGCTable, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT ugc, name, COALESCE(state, ''), COALESCE(wfos, ''), source, begin_ts, end_ts,
			COALESCE(centroid_lon, 0), COALESCE(centroid_lat, 0), geom
		FROM ugcs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []geo.UGCRecord
	for rows.Next() {
		var (
			r        geo.UGCRecord
			wfos     string
			begin    string
			end      sql.NullString
			lon, lat float64
			geom     []byte
		)
		if err := rows.Scan(&r.Code, &r.Name, &r.State, &wfos, &r.Source, &begin, &end, &lon, &lat, &geom); err != nil {
			return nil, err
		}
		if wfos != "" {
			r.WFOs = strings.Split(wfos, ",")
		}
		if r.Begin, err = time.Parse(time.RFC3339, begin); err != nil {
			return nil, fmt.Errorf("ugc %s begin_ts: %w", r.Code, err)
		}
		if end.Valid {
			t, err := time.Parse(time.RFC3339, end.String)
			if err != nil {
				return nil, fmt.Errorf("ugc %s end_ts: %w", r.Code, err)
			}
			r.End = &t
		}
		r.Centroid = orb.Point{lon, lat}
		if len(geom) > 0 {
			if r.Geometry, err = wkb.Unmarshal(geom); err != nil {
				return nil, fmt.Errorf("ugc %s geometry: %w", r.Code, err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return geo.NewUGCTable(out), nil
}

// PutProduct stores a product row, replacing an earlier copy with the same
// identifier.
func (d *LocalDB) PutProduct(ctx context.Context, p ProductRow) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE product_id = ?`, p.ProductID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO products (product_id, afos, valid, family, text, warnings)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ProductID, p.AFOS, p.Valid.UTC().Format(time.RFC3339), p.Family, p.Text,
		strings.Join(p.Warnings, "\n")); err != nil {
		return err
	}
	return tx.Commit()
}

// Write indexes the product row of rec for full text search.
func (d *LocalDB) Write(ctx context.Context, rec Records) error {
	return d.PutProduct(ctx, rec.Product)
}

// SearchParams filters a product search.
type SearchParams struct {
	Text   string
	AFOS   string
	Family string
	Limit  int
}

// SearchProducts returns stored products, newest first.
func (d *LocalDB) SearchProducts(ctx context.Context, p SearchParams) ([]ProductRow, error) {
	var where []string
	var args []any

	if p.Text != "" {
		where = append(where, "id IN (SELECT rowid FROM products_fts WHERE products_fts MATCH ?)")
		args = append(args, p.Text)
	}
	if p.AFOS != "" {
		where = append(where, "afos = ?")
		args = append(args, p.AFOS)
	}
	if p.Family != "" {
		where = append(where, "family = ?")
		args = append(args, p.Family)
	}

	query := "SELECT product_id, COALESCE(afos, ''), valid, family, text, COALESCE(warnings, '') FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY valid DESC"
	if p.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", p.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var out []ProductRow
	for rows.Next() {
		var r ProductRow
		var valid, warnings string
		if err := rows.Scan(&r.ProductID, &r.AFOS, &valid, &r.Family, &r.Text, &warnings); err != nil {
			return nil, err
		}
		r.Valid, _ = time.Parse(time.RFC3339, valid)
		if warnings != "" {
			r.Warnings = strings.Split(warnings, "\n")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
