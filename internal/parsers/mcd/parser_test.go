package mcd

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

const mcdText = `ACUS11 KWNS 101934
SWOMCD
SPC MCD 101934
KSZ000-OKZ000-102130-

MESOSCALE DISCUSSION 1678
NWS STORM PREDICTION CENTER NORMAN OK
0234 PM CDT MON SEP 10 2012

AREAS AFFECTED...SOUTHERN KANSAS...NORTHERN
OKLAHOMA

CONCERNING...SEVERE POTENTIAL...WATCH POSSIBLE

VALID 101934Z - 102130Z

PROBABILITY OF WATCH ISSUANCE...20 PERCENT

SUMMARY...ISOLATED SEVERE STORMS ARE POSSIBLE THIS AFTERNOON.

..SMITH.. 09/10/2012

ATTN...WFO...ICT...OUN...

LAT...LON   37009800 37009600 38009600 38009800 37009800

MOST PROBABLE PEAK WIND GUST...55-70 MPH
MOST PROBABLE PEAK HAIL SIZE...1.00-1.75 IN
`

const mpdText = `AWUS01 KWBC 021805
FFGMPD
TXZ000-030000-

MESOSCALE PRECIPITATION DISCUSSION 0412
NWS WEATHER PREDICTION CENTER COLLEGE PARK MD
205 PM EDT SUN JUL 2 2023

AREAS AFFECTED...CENTRAL TEXAS

CONCERNING...HEAVY RAINFALL...FLASH FLOODING LIKELY

VALID 021805Z - 030000Z

SUMMARY...TRAINING CELLS.

ATTN...WFO...EWX...FWD...RFC...WGRFC...

LAT...LON   31009800 31009700 30009700 30009800 31009800
`

func decode(t *testing.T, text string, now time.Time) *Result {
	t.Helper()
	opts := nws.Options{Now: now}
	prod, err := nws.ParseString(text, opts)
	require.NoError(t, err)
	out, err := (&Parser{}).Parse(prod, opts)
	require.NoError(t, err)
	return out.(*Result)
}

func TestParseMCD(t *testing.T) {
	res := decode(t, mcdText, time.Date(2012, 9, 10, 20, 0, 0, 0, time.UTC))

	assert.Equal(t, 1678, res.DiscussionNum)
	require.NotNil(t, res.WatchProb)
	assert.Equal(t, 20, *res.WatchProb)
	assert.Equal(t, "SOUTHERN KANSAS...NORTHERN OKLAHOMA", res.AreasAffected)
	assert.Equal(t, "SEVERE POTENTIAL...WATCH POSSIBLE", res.Concerning)
	require.NotNil(t, res.Sts)
	require.NotNil(t, res.Ets)
	assert.Equal(t, time.Date(2012, 9, 10, 19, 34, 0, 0, time.UTC), *res.Sts)
	assert.Equal(t, time.Date(2012, 9, 10, 21, 30, 0, 0, time.UTC), *res.Ets)
	assert.Equal(t, []string{"ICT", "OUN"}, res.AttnWFO)
	assert.Empty(t, res.AttnRFC)
	assert.InDelta(t, 2.0, res.Area(), 1e-9)
	assert.Equal(t, "55-70 MPH", res.GustTag)
	assert.Equal(t, "1.00-1.75 IN", res.HailTag)
	assert.False(t, res.IsMPD())

	notes := res.Notifications()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Plain, "SPC issues Mesoscale Discussion #1678")
	assert.Contains(t, notes[0].Plain, "[watch probability: 20%]")
	assert.Contains(t, notes[0].Attributes.Channels, "SWOMCD.ICT")
}

func TestParseMPD(t *testing.T) {
	res := decode(t, mpdText, time.Date(2023, 7, 2, 18, 30, 0, 0, time.UTC))

	assert.True(t, res.IsMPD())
	assert.Equal(t, 412, res.DiscussionNum)
	assert.Nil(t, res.WatchProb)
	assert.Equal(t, []string{"EWX", "FWD"}, res.AttnWFO)
	assert.Equal(t, []string{"WGRFC"}, res.AttnRFC)
	assert.InDelta(t, 1.0, res.Area(), 1e-9)
	assert.Contains(t, res.Notifications()[0].Plain, "WPC issues Mesoscale Precipitation Discussion #412")
}

func TestParseAttn(t *testing.T) {
	w, r := parseAttn("WFO...LWX...PHI...\nRFC...MARFC...")
	assert.Equal(t, []string{"LWX", "PHI"}, w)
	assert.Equal(t, []string{"MARFC"}, r)
}

func TestDiscussionFixture(t *testing.T) {
	raw, err := os.ReadFile("testdata/SWOMCD_1678.txt")
	require.NoError(t, err)
	res := decode(t, string(raw), time.Date(2012, 9, 10, 20, 0, 0, 0, time.UTC))

	assert.Equal(t, 1678, res.DiscussionNum)
	require.NotNil(t, res.WatchProb)
	assert.Equal(t, 20, *res.WatchProb)
	assert.Equal(t, "SOUTH CENTRAL KANSAS", res.AreasAffected)
	assert.Equal(t, []string{"ICT", "DDC"}, res.AttnWFO)
	require.Len(t, res.Polygon, 1)
	assert.Len(t, res.Polygon[0], 8)
	assert.InDelta(t, 2.444, res.Area(), 0.001)
	assert.False(t, res.Warnings.Has(nws.ErrInvalidGeometry))
}
