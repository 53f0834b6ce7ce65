package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/geometry"
	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

const svrProduct = "WUUS53 KDMX 100335\nSVRDMX\nIAC153-100415-\n" +
	"/O.NEW.KDMX.SV.W.0099.140310T0335Z-140310T0415Z/\n\n" +
	"SEVERE THUNDERSTORM WARNING\nNATIONAL WEATHER SERVICE DES MOINES IA\n" +
	"1035 PM CDT SUN MAR 9 2014\n\n$$\n"

func TestPrintSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	printSimpleTable(&buf, []string{"ID", "NAME"}, func(add func(...string)) {
		add("DSM", "Des Moines")
	})
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Des Moines")
}

func TestWriteJSONFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeJSON(os.Stdout, p, map[string]int{"n": 1}, false))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "{\"n\":1}\n", string(b))
}

func TestFormatting(t *testing.T) {
	v := 3.14159
	assert.Equal(t, "3.14", fmtFloat(&v, 2))
	assert.Equal(t, "M", fmtFloat(nil, 2))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
}

func TestDecodeOne(t *testing.T) {
	reg := registry.Default()
	reg.Sort()
	opts := nws.Options{Now: time.Date(2014, 3, 10, 4, 0, 0, 0, time.UTC)}

	st := &Stats{}
	entry, ok := decodeOne(reg, []byte(svrProduct), opts, st)
	require.True(t, ok)
	assert.Equal(t, "201403100335-KDMX-WUUS53-SVRDMX", entry.ProductID)
	assert.NotEmpty(t, entry.Family)
	assert.Equal(t, 1, st.Decoded)

	entry, ok = decodeOne(reg, []byte("not a product"), opts, st)
	assert.False(t, ok)
	assert.NotEmpty(t, entry.Error)
	assert.Equal(t, 1, st.Failed)
}

func TestReferenceTime(t *testing.T) {
	globalFlags.Now = "2014-03-10T04:00:00Z"
	t.Cleanup(func() { globalFlags.Now = "" })

	now, err := referenceTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2014, 3, 10, 4, 0, 0, 0, time.UTC), now)

	globalFlags.Now = "yesterday"
	_, err = referenceTime()
	assert.Error(t, err)
}

func TestLoadBoundaries(t *testing.T) {
	prev := geometry.CONUS()
	prevLegacy := geometry.BoundaryAt(geometry.LegacyCutover.Add(-time.Hour))
	t.Cleanup(func() { require.NoError(t, geometry.UseBoundaries(prev, prevLegacy)) })

	dir := t.TempDir()
	path := filepath.Join(dir, "square.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[-100,30],[-100,40],[-90,40],[-90,30],[-100,30]]]}}`), 0o644))

	require.NoError(t, loadBoundaries(path, ""))
	assert.InDelta(t, 100.0, geometry.Area(orb.MultiPolygon{geometry.CONUS().Polygon}), 1e-9)
	assert.Equal(t, "conus_marine", geometry.BoundaryAt(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)).Name)

	assert.Error(t, loadBoundaries(filepath.Join(dir, "missing.geojson"), ""))
}
