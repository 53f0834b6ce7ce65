package geo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStations() *StationTable {
	return NewStationTable([]Station{
		{ID: "DSM", Name: "Des Moines", State: "IA", WFO: "DMX", Lon: -93.66, Lat: 41.53},
		{ID: "PANC", Name: "Anchorage", State: "AK", WFO: "AFC", Lon: -149.99, Lat: 61.17},
	})
}

func TestStationVariants(t *testing.T) {
	tbl := testStations()

	tests := []struct {
		name string
		id   string
		want string
		ok   bool
	}{
		{"nwsli", "DSM", "DSM", true},
		{"icao to faa", "KDSM", "DSM", true},
		{"iata to alaska icao", "ANC", "PANC", true},
		{"lower case", "dsm", "DSM", true},
		{"unknown", "ZZZ", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := tbl.Station(tc.id)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, st.ID)
		})
	}
}

func TestOffset(t *testing.T) {
	tbl := testStations()
	lon, lat, err := Offset(tbl, "DSM", 10, "N")
	require.NoError(t, err)
	assert.InDelta(t, -93.66, lon, 1e-6)
	assert.InDelta(t, 41.53+10/69.09, lat, 0.01)

	_, _, err = Offset(tbl, "XXX", 10, "N")
	assert.Error(t, err)
	_, _, err = Offset(tbl, "DSM", 10, "Q")
	assert.Error(t, err)
}

func TestBearingRoundTrip(t *testing.T) {
	lon, lat := Destination(-93.0, 41.0, 45, 100)
	assert.InDelta(t, 45, Bearing(-93.0, 41.0, lon, lat), 0.5)
}

func TestUGCTableFirewxAmbiguity(t *testing.T) {
	end := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := NewUGCTable([]UGCRecord{
		{Code: "IAZ048", Name: "Polk", Source: SourceZone, Begin: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Code: "IAZ048", Name: "Polk Fire", Source: SourceFireZone, Begin: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Code: "IAC153", Name: "Old Polk", Source: SourceCounty, Begin: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), End: &end},
		{Code: "IAC153", Name: "Polk", Source: SourceCounty, Begin: end},
	})
	valid := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	r, ok := tbl.UGC("IAZ048", valid, "")
	require.True(t, ok)
	assert.Equal(t, "Polk", r.Name)

	r, ok = tbl.UGC("IAZ048", valid, SourceFireZone)
	require.True(t, ok)
	assert.Equal(t, "Polk Fire", r.Name)

	r, ok = tbl.UGC("IAC153", time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), "")
	require.True(t, ok)
	assert.Equal(t, "Old Polk", r.Name)

	r, ok = tbl.UGC("IAC153", valid, "")
	require.True(t, ok)
	assert.Equal(t, "Polk", r.Name)

	_, ok = tbl.UGC("IAC999", valid, "")
	assert.False(t, ok)
	assert.Equal(t, SourceFireZone, SourceForProduct("RFWDMX"))
}

func TestLoadStationsCSV(t *testing.T) {
	in := "id,name,state,network,wfo,tzname,lon,lat\nDSM,Des Moines,IA,IA_ASOS,DMX,America/Chicago,-93.66,41.53\n"
	tbl, err := LoadStationsCSV(strings.NewReader(in))
	require.NoError(t, err)
	st, ok := tbl.Station("KDSM")
	require.True(t, ok)
	assert.Equal(t, "America/Chicago", st.TZName)

	_, err = LoadStationsCSV(strings.NewReader("id,name\nDSM,x\n"))
	assert.Error(t, err)
}
