package igra

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

func header(id string, hour, rel, numlev, lat, lon int) string {
	return fmt.Sprintf("#%-11s %4d %02d %02d %02d %04d %4d %-8s %-8s %7d %8d",
		id, 2023, 6, 10, hour, rel, numlev, "ncdc-gts", "ncdc-gts", lat, lon)
}

func level(lt string, etime, press, gph, temp, rh, dpdp, wdir, wspd int) string {
	return fmt.Sprintf("%-2s %5d %6d %5d %5d %5d %5d %5d %5d",
		lt, etime, press, gph, temp, rh, dpdp, wdir, wspd)
}

func TestReadAll(t *testing.T) {
	lines := []string{
		header("USM00072250", 0, 2315, 3, 259022, -974378),
		level("21", 0, 100800, 7, 285, 820, 32, 150, 51),
		level("10", 130, 92500, 806, 224, -9999, 55, 175, 129),
		level("20", -9999, 85000, 1520, 181, -9999, -9999, -9999, -9999),
		header("USM00072251", 12, 9999, 2, 259022, -974378),
		level("21", -9999, 100500, 7, 300, -9999, 40, 90, 20),
		header("BADHEADER", 0, 0, 0, 0, 0)[:40],
		level("21", 0, 100000, 0, 0, 0, 0, 0, 0),
	}
	soundings, warns, err := ReadAll(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.Len(t, soundings, 2)

	s := soundings[0]
	assert.Equal(t, "USM00072250", s.Station)
	assert.Equal(t, time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC), s.Valid)
	require.NotNil(t, s.ReleaseValid)
	assert.Equal(t, time.Date(2023, 6, 9, 23, 15, 0, 0, time.UTC), *s.ReleaseValid)
	assert.InDelta(t, 25.9022, s.Lat, 1e-9)
	assert.InDelta(t, -97.4378, s.Lon, 1e-9)
	assert.Equal(t, "ncdc-gts", s.Source)
	require.Len(t, s.Levels, 3)

	sfc := s.Levels[0]
	assert.Equal(t, "21", sfc.LevelType)
	assert.Equal(t, 1008.0, *sfc.PressureMB)
	assert.Equal(t, 28.5, *sfc.TempC)
	assert.Equal(t, 25.3, *sfc.DewC)
	assert.Equal(t, 82.0, *sfc.RH)
	assert.Equal(t, 9.9, *sfc.WindKt)

	mid := s.Levels[1]
	assert.Equal(t, time.Date(2023, 6, 9, 23, 16, 30, 0, time.UTC), *mid.Valid)
	assert.Nil(t, mid.RH)
	assert.Equal(t, 16.9, *mid.DewC)

	top := s.Levels[2]
	assert.Nil(t, top.Valid)
	assert.Nil(t, top.DewC)
	assert.Nil(t, top.WindDir)

	second := soundings[1]
	assert.Nil(t, second.ReleaseValid)
	assert.Equal(t, 12, second.Valid.Hour())
	assert.Nil(t, second.Levels[0].Valid)

	require.Len(t, warns, 2)
	assert.True(t, warns.Has(nws.ErrInvalidEnvelope))
	assert.True(t, warns.Has(nws.ErrOutOfBounds))
}
