package lsr

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

const lsrText = `NWUS53 KDMX 230406
LSRDMX

PRELIMINARY LOCAL STORM REPORT...SUMMARY
NATIONAL WEATHER SERVICE DES MOINES IA
1106 PM CDT MON JUL 22 2013

..TIME...   ...EVENT...      ...CITY LOCATION...     ...LAT.LON...
..DATE...   ....MAG....      ..COUNTY LOCATION..ST.. ...SOURCE....
            ..REMARKS..

0930 PM     HAIL             3 N AMES                42.07N 93.62W
07/22/2013  E1.00 INCH       STORY              IA   TRAINED SPOTTER

            QUARTER SIZE HAIL.

1005 PM     TSTM WND DMG     GRINNELL                41.74N 92.72W
07/22/2013                   POWESHIEK          IA   LAW ENFORCEMENT

            TREES DOWN ACROSS HIGHWAY 6.
            POWER LINES ALSO DOWN.

1010 PM     DUST WHIRLWIND   NEWTON                  41.70N 93.05W
07/22/2013                   JASPER             IA   PUBLIC

1030 PM     HEAVY RAIN       PELLA                   41.41N 92.92W
07/22/2013  T                MARION             IA   COCORAHS

1055 PM     TSTM WND GST     2 SE KNOXVILLE          41.30N 93.08W
07/22/2013  M73 MPH          MARION             IA   ASOS

            ASOS STATION KOXV KNOXVILLE AIRPORT.

1055 PM     TSTM WND GST     2 SE KNOXVILLE          41.30N 93.08W
07/22/2013  M73 MPH          MARION             IA   ASOS

&&

$$
`

var lsrNow = time.Date(2013, 7, 23, 4, 30, 0, 0, time.UTC)

func decode(t *testing.T, text string, now time.Time) *Result {
	t.Helper()
	opts := nws.Options{Now: now}
	prod, err := nws.ParseString(text, opts)
	require.NoError(t, err)
	out, err := (&Parser{}).Parse(prod, opts)
	require.NoError(t, err)
	return out.(*Result)
}

func TestParseCollective(t *testing.T) {
	res := decode(t, lsrText, lsrNow)

	assert.Equal(t, "lsr", res.Type())
	assert.True(t, res.IsSummary)
	require.Len(t, res.Reports, 5)
	assert.True(t, res.Warnings.Has(nws.ErrUnknownCode))

	last := res.Reports[3]
	require.NotNil(t, last.Magnitude)
	assert.Equal(t, 73.0, *last.Magnitude)
	assert.Equal(t, "MPH", last.MagUnits)
	assert.Equal(t, "M", last.MagQualifier)
	assert.Equal(t, "MARION", last.County)
	assert.Equal(t, "DMX", last.WFO)
	assert.Equal(t, "G", last.TypeCode)
	assert.Equal(t, time.Date(2013, 7, 23, 3, 55, 0, 0, time.UTC), last.Valid)
	assert.Equal(t, 22, last.Local.Day())
	assert.Equal(t, "ASOS STATION KOXV KNOXVILLE AIRPORT.", last.Remark)
	assert.InDelta(t, -93.08, last.Lon, 1e-9)
	assert.InDelta(t, 41.30, last.Lat, 1e-9)
	assert.False(t, last.Duplicate)
	assert.True(t, res.Reports[4].Duplicate)
}

func TestSourceOrder(t *testing.T) {
	res := decode(t, lsrText, lsrNow)
	var cities []string
	for _, r := range res.Reports {
		cities = append(cities, r.City)
	}
	assert.Equal(t, []string{"3 N AMES", "GRINNELL", "PELLA", "2 SE KNOXVILLE", "2 SE KNOXVILLE"}, cities)
}

func TestRemarkAndMagnitude(t *testing.T) {
	res := decode(t, lsrText, lsrNow)

	hail := res.Reports[0]
	assert.Equal(t, "E", hail.MagQualifier)
	assert.Equal(t, "INCH", hail.MagUnits)
	assert.Equal(t, "E1 INCH", hail.MagnitudeText())

	wind := res.Reports[1]
	assert.Nil(t, wind.Magnitude)
	assert.Equal(t, "TREES DOWN ACROSS HIGHWAY 6. POWER LINES ALSO DOWN.", wind.Remark)

	rain := res.Reports[2]
	require.NotNil(t, rain.Magnitude)
	assert.Equal(t, patterns.TraceValue, *rain.Magnitude)
	assert.Equal(t, "TRACE", rain.MagnitudeText())
}

func TestMagnitudeGrammar(t *testing.T) {
	tests := []struct {
		in   string
		val  float64
		qual string
		dir  string
		unit string
	}{
		{"M73 MPH", 73, "M", "", "MPH"},
		{"E65 KTS", 65, "E", "", "KTS"},
		{"U>2.50 INCH", 2.5, "U", ">", "INCH"},
		{"<0.5 MI", 0.5, "", "<", "MILE"},
		{"1200 ACRES", 1200, "", "", "ACRE"},
		{"8.0 INCHES", 8, "", "", "INCH"},
		{"3 FT", 3, "", "", "FT"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			var r Report
			require.NoError(t, parseMagnitude(&r, tc.in))
			require.NotNil(t, r.Magnitude)
			assert.Equal(t, tc.val, *r.Magnitude)
			assert.Equal(t, tc.qual, r.MagQualifier)
			assert.Equal(t, tc.dir, r.MagDirection)
			assert.Equal(t, tc.unit, r.MagUnits)
		})
	}

	var r Report
	assert.ErrorIs(t, parseMagnitude(&r, "LOTS OF HAIL"), nws.ErrUnknownCode)
}

func TestFutureReportDropped(t *testing.T) {
	// Wall clock well before the last reports.
	res := decode(t, lsrText, time.Date(2013, 7, 23, 2, 40, 0, 0, time.UTC))
	assert.True(t, res.Warnings.Has(nws.ErrFutureTimestamp))
	for _, r := range res.Reports {
		assert.LessOrEqual(t, r.Valid.Sub(time.Date(2013, 7, 23, 2, 40, 0, 0, time.UTC)), time.Hour)
	}
}

func TestNotifications(t *testing.T) {
	res := decode(t, lsrText, lsrNow)
	notes := res.Notifications()
	require.Len(t, notes, 4)

	n := notes[3]
	assert.Contains(t, n.Plain, "[Summary] DMX 2 SE KNOXVILLE [MARION Co, IA] ASOS reports TSTM WND GST of M73 MPH")
	assert.Contains(t, n.Attributes.Channels, "LSRDMX")
	assert.Contains(t, n.Attributes.Channels, "LSR.DMX.G")
	assert.Contains(t, n.Attributes.Channels, "LSR.IA")
	assert.Equal(t, "201307230406-KDMX-NWUS53-LSRDMX", n.Attributes.ProductID)
}

func TestSummaryCollective(t *testing.T) {
	raw, err := os.ReadFile("testdata/LSRDMX_summary.txt")
	require.NoError(t, err)
	res := decode(t, string(raw), lsrNow)

	assert.True(t, res.IsSummary)
	require.Len(t, res.Reports, 58)
	assert.False(t, res.Warnings.Has(nws.ErrUnknownCode))
	assert.False(t, res.Warnings.Has(nws.ErrFutureTimestamp))

	last := res.Reports[57]
	require.NotNil(t, last.Magnitude)
	assert.Equal(t, 73.0, *last.Magnitude)
	assert.Equal(t, "MPH", last.MagUnits)
	assert.Equal(t, "MARION", last.County)
	assert.Equal(t, "DMX", last.WFO)
	assert.Equal(t, time.Date(2013, 7, 23, 3, 55, 0, 0, time.UTC), last.Valid)
	for i := 1; i < len(res.Reports); i++ {
		assert.True(t, res.Reports[i].Valid.After(res.Reports[i-1].Valid), "report %d out of order", i)
	}
}

func TestMissingTimeZone(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		warn  bool
		first time.Time
	}{
		{"with MND", lsrText, false, time.Date(2013, 7, 23, 2, 30, 0, 0, time.UTC)},
		{"without MND", strings.Replace(lsrText, "1106 PM CDT MON JUL 22 2013\n", "", 1), true, time.Date(2013, 7, 22, 21, 30, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := decode(t, tc.text, lsrNow)
			require.NotEmpty(t, res.Reports)
			assert.Equal(t, tc.warn, res.Warnings.Has(nws.ErrInvalidTimestamp))
			assert.Equal(t, tc.first, res.Reports[0].Valid)
		})
	}
}
