package metarcollect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/dedup"
	"nws_parser/internal/geo"
	"nws_parser/internal/metar"
	"nws_parser/internal/nws"
)

const collective = `SAUS43 KDMX 101800
MTRDMX
METAR KDSM 101754Z 31015G30KT 10SM FEW050 24/12 A2992 RMK AO2 SLP123
     T02390122=
KAMW 101755Z AUTO 32045G62KT 2SM +TSRA BKN020CB 21/19 A2985 RMK AO2 PK WND
     32062/1750=
KMIW 101755Z 18005KT 10SM CLR 25/11 A2990 ZZZZ=
101755Z KOTM 18005KT 10SM CLR 25/11 A2990=
KCID 102355Z 18005KT 10SM CLR 25/11 A2990=
`

var now = time.Date(2023, 6, 10, 18, 5, 0, 0, time.UTC)

var stations = geo.NewStationTable([]geo.Station{
	{ID: "KAMW", Name: "Ames", State: "IA", WFO: "DMX", Lon: -93.62, Lat: 42.0},
})

func decode(t *testing.T, opts nws.Options) *Result {
	t.Helper()
	prod, err := nws.ParseString(collective, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	return out.(*Result)
}

func TestParseCollective(t *testing.T) {
	res := decode(t, nws.Options{Now: now, Stations: stations})

	assert.Equal(t, "metar", res.Type())
	require.Len(t, res.Observations, 3)
	assert.Equal(t, "KDSM", res.Observations[0].Station)
	assert.Equal(t, "KAMW", res.Observations[1].Station)
	assert.Equal(t, "KMIW", res.Observations[2].Station)

	amw := res.Observations[1]
	require.NotNil(t, amw.Lat)
	assert.Equal(t, 42.0, *amw.Lat)
	assert.Equal(t, "DMX", amw.WFO)
	assert.Equal(t, 62, *amw.PeakWindSpeed)

	assert.Equal(t, []string{"ZZZZ"}, res.Observations[2].Stripped)
	assert.Equal(t, 29.90, *res.Observations[2].Altimeter)
}

func TestUndecodableDropped(t *testing.T) {
	res := decode(t, nws.Options{Now: now})
	for _, ob := range res.Observations {
		assert.NotEqual(t, "KOTM", ob.Station)
	}
	assert.True(t, res.Warnings.Has(nws.ErrUnknownCode))
}

func TestParseWithRetry(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		stripped []string
		sky      int
		wantErr  error
	}{
		{"clean", "KDSM 101754Z 31015KT 10SM CLR 24/12 A2992", nil, 1, nil},
		{"unparsed groups stripped", "KDSM 101754Z 31015KT 10SM FOO CLR BAR 24/12 A2992", []string{"FOO", "BAR"}, 1, nil},
		{"not retryable", "101754Z 31015KT", nil, 0, metar.ErrNoStation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rep, stripped, err := parseWithRetry(tc.raw, now)
			assert.Equal(t, tc.stripped, stripped)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				var perr *metar.ParserError
				assert.False(t, errors.As(err, &perr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.raw, rep.Raw)
			assert.Len(t, rep.Sky, tc.sky)
		})
	}
}

func TestFutureRejected(t *testing.T) {
	res := decode(t, nws.Options{Now: now})
	for _, ob := range res.Observations {
		assert.NotEqual(t, "KCID", ob.Station)
	}
	assert.True(t, res.Warnings.Has(nws.ErrFutureTimestamp))
}

func TestWindAlertDeduplicated(t *testing.T) {
	d := dedup.New(10)
	opts := nws.Options{Now: now, Stations: stations, WindAlerts: d}

	first := decode(t, opts)
	require.Len(t, first.Notes, 1)
	assert.Contains(t, first.Notes[0].Plain, "KAMW gust of 62 knots (71 mph) from NW @ 1755Z")
	assert.Contains(t, first.Notes[0].Attributes.Channels, "WIND.DMX")

	second := decode(t, opts)
	assert.Empty(t, second.Notes)
}

func TestRemoveGroupsKeepsRemarks(t *testing.T) {
	got := removeGroups("KDSM 101754Z FOO 10SM RMK FOO", []string{"FOO"})
	assert.Equal(t, "KDSM 101754Z 10SM RMK FOO", got)
}
