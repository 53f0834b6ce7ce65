package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
	"nws_parser/internal/parsers/vtecproduct"
)

// setupTestPostgres returns nil when no PostgreSQL server is reachable.
func setupTestPostgres(t *testing.T) *PostgresDB {
	t.Helper()

	cfg := DefaultConfig().Postgres
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		cfg.Host = host
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("POSTGRES_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if database := os.Getenv("POSTGRES_DB"); database != "" {
		cfg.Database = database
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pg, err := OpenPostgres(ctx, cfg)
	if err != nil {
		return nil
	}
	if err := pg.CreateSchema(ctx); err != nil {
		pg.Close()
		return nil
	}
	return pg
}

func TestWriteRecordsVTECLifecycle(t *testing.T) {
	pg := setupTestPostgres(t)
	if pg == nil {
		t.Skip("No PostgreSQL connection available")
	}
	defer pg.Close()

	ctx := context.Background()
	cleanup := func() {
		_, _ = pg.pool.Exec(ctx, "DELETE FROM vtec_events WHERE wfo = 'KDMX' AND etn = 99 AND year = 2014")
		_, _ = pg.pool.Exec(ctx, "DELETE FROM products WHERE afos = 'SVRDMX'")
	}
	cleanup()
	defer cleanup()

	prod, err := nws.ParseString(svrText, nws.Options{Now: time.Date(2014, 3, 10, 4, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.NoError(t, pg.WriteRecords(ctx, BuildRecords(&vtecproduct.Result{TextProduct: prod})))

	var status string
	var ids []string
	err = pg.pool.QueryRow(ctx, `
		SELECT status, product_ids FROM vtec_events
		WHERE wfo = 'KDMX' AND phenomena = 'SV' AND etn = 99 AND year = 2014 AND ugc = 'IAC153'
	`).Scan(&status, &ids)
	require.NoError(t, err)
	assert.Equal(t, "NEW", status)
	assert.Len(t, ids, 1)

	latest, err := pg.LatestProduct(ctx, "SVRDMX")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "text", latest.Family)

	none, err := pg.LatestProduct(ctx, "ZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, none)
}
