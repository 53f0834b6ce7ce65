package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/geo"
)

func openTestLocal(t *testing.T) *LocalDB {
	t.Helper()
	db, err := OpenLocal(filepath.Join(t.TempDir(), "nws.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStationSnapshot(t *testing.T) {
	db := openTestLocal(t)
	ctx := context.Background()

	require.NoError(t, db.PutStations(ctx, []geo.Station{
		{ID: "DSM", Name: "Des Moines", State: "IA", Network: "IA_ASOS", WFO: "DMX", TZName: "America/Chicago", Lon: -93.65, Lat: 41.53},
		{ID: "AMW", Name: "Ames", State: "IA", Lon: -93.62, Lat: 41.99},
	}))

	table, err := db.LoadStationsSQLite(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	st, ok := table.Station("DSM")
	require.True(t, ok)
	assert.Equal(t, "Des Moines", st.Name)
	assert.Equal(t, "America/Chicago", st.TZName)
	assert.InDelta(t, 41.53, st.Lat, 1e-9)
}

func TestUGCSnapshot(t *testing.T) {
	db := openTestLocal(t)
	ctx := context.Background()

	end := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ring := orb.Ring{{-94, 41}, {-93, 41}, {-93, 42}, {-94, 42}, {-94, 41}}
	require.NoError(t, db.PutUGCs(ctx, []geo.UGCRecord{
		{Code: "IAC153", Name: "Polk", State: "IA", WFOs: []string{"DMX"}, Source: geo.SourceCounty,
			Begin: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Centroid: orb.Point{-93.5, 41.5},
			Geometry: orb.Polygon{ring}},
		{Code: "IAC999", Name: "Gone", State: "IA", Source: geo.SourceCounty,
			Begin: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), End: &end},
	}))

	table, err := db.LoadUGCsSQLite(ctx)
	require.NoError(t, err)

	polk, ok := table.UGC("IAC153", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), geo.SourceCounty)
	require.True(t, ok)
	assert.Equal(t, []string{"DMX"}, polk.WFOs)
	assert.Equal(t, orb.Point{-93.5, 41.5}, polk.Centroid)
	poly, ok := polk.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly[0], 5)

	_, ok = table.UGC("IAC999", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), geo.SourceCounty)
	assert.False(t, ok)
}

func TestProductSearch(t *testing.T) {
	db := openTestLocal(t)
	ctx := context.Background()

	valid := time.Date(2014, 3, 10, 3, 35, 0, 0, time.UTC)
	require.NoError(t, db.PutProduct(ctx, ProductRow{
		ProductID: "201403100335-KDMX-WUUS53-SVRDMX", AFOS: "SVRDMX", Valid: valid,
		Family: "text", Text: "SEVERE THUNDERSTORM WARNING FOR POLK COUNTY",
	}))
	require.NoError(t, db.PutProduct(ctx, ProductRow{
		ProductID: "201403100400-KDMX-NWUS53-LSRDMX", AFOS: "LSRDMX", Valid: valid.Add(25 * time.Minute),
		Family: "lsr", Text: "HAIL REPORTED NEAR ANKENY", Warnings: []string{"unknown_code: x"},
	}))
	// A second copy replaces the first.
	require.NoError(t, db.PutProduct(ctx, ProductRow{
		ProductID: "201403100335-KDMX-WUUS53-SVRDMX", AFOS: "SVRDMX", Valid: valid,
		Family: "text", Text: "SEVERE THUNDERSTORM WARNING FOR POLK AND STORY COUNTIES",
	}))

	all, err := db.SearchProducts(ctx, SearchParams{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "LSRDMX", all[0].AFOS)
	assert.Equal(t, []string{"unknown_code: x"}, all[0].Warnings)

	hits, err := db.SearchProducts(ctx, SearchParams{Text: "STORY"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, valid, hits[0].Valid)

	hits, err = db.SearchProducts(ctx, SearchParams{Family: "lsr", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}
