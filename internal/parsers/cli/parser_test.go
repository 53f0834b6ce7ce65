package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

const cliText = `CDUS43 KDMX 110654
CLIDSM

CLIMATE REPORT
NATIONAL WEATHER SERVICE DES MOINES IA
154 AM CDT SUN JUN 11 2023

...................................

...THE DES MOINES IA CLIMATE SUMMARY FOR JUNE 10 2023...

CLIMATE NORMAL PERIOD 1991 TO 2020
CLIMATE RECORD PERIOD 1878 TO 2023

WEATHER ITEM   OBSERVED TIME   RECORD YEAR NORMAL DEPARTURE LAST
                VALUE   (LST)  VALUE       VALUE  FROM      YEAR
...................................................................
TEMPERATURE (F)
 YESTERDAY
  MAXIMUM         88   3:52 PM 100    1933  82      6       84
                                          1956
  MINIMUM         65   5:40 AM  45    1913  62      3       61
  AVERAGE         77                        72      5       73

PRECIPITATION (IN)
  YESTERDAY          T          2.10 1905   0.17  -0.17     0.00
  MONTH TO DATE    0.50                      1.65  -1.15     0.88
  SINCE JAN 1     10.25                     15.80  -5.55    12.01

SNOWFALL (IN)
  YESTERDAY        0.0           0.0  1900   0.0    0.0      0.0
  MONTH TO DATE    0.0                       0.0    0.0      0.0
  SINCE JUL 1     30.1                      32.5   -2.4     40.2
  SNOW DEPTH       MM

WIND (MPH)
  HIGHEST WIND SPEED    21   HIGHEST WIND DIRECTION    SW (220)
  HIGHEST GUST SPEED    29   HIGHEST GUST DIRECTION    SW (230)
  AVERAGE WIND SPEED   9.4

$$
`

func TestParseCLI(t *testing.T) {
	opts := nws.Options{Now: time.Date(2023, 6, 11, 7, 0, 0, 0, time.UTC)}
	prod, err := nws.ParseString(cliText, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	res := out.(*Result)

	require.Len(t, res.Summaries, 1)
	s := res.Summaries[0]
	assert.Equal(t, "DSM", s.Station)
	assert.Equal(t, "DES MOINES IA", s.Name)
	assert.Equal(t, time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC), s.Date)

	require.NotNil(t, s.High)
	assert.Equal(t, 88.0, *s.High.Observed)
	assert.Equal(t, "3:52 PM", s.High.Time)
	assert.Equal(t, 100.0, *s.High.Record)
	assert.Equal(t, []int{1933}, s.High.RecordYears)
	assert.Equal(t, 82.0, *s.High.Normal)
	assert.Equal(t, 6.0, *s.High.Departure)
	assert.Equal(t, 84.0, *s.High.LastYear)

	require.NotNil(t, s.Low)
	assert.Equal(t, 65.0, *s.Low.Observed)

	require.NotNil(t, s.Precip)
	assert.Equal(t, patterns.TraceValue, *s.Precip.Observed)
	assert.Equal(t, 2.10, *s.Precip.Record)
	assert.Equal(t, 1.65, *s.PrecipMonth.Normal)
	assert.Equal(t, 10.25, *s.PrecipJan1.Observed)
	assert.Nil(t, s.PrecipMonth.Record)

	assert.Equal(t, 30.1, *s.SnowJul1.Observed)
	require.NotNil(t, s.SnowDepth)
	assert.Nil(t, s.SnowDepth.Observed)

	assert.Equal(t, 9.4, *s.AverageWindMPH)
	assert.Equal(t, 29.0, *s.HighestGustMPH)

	require.Len(t, res.Notes, 1)
	assert.Equal(t, "DES MOINES IA Climate Report for Jun 10, 2023: High: 88 Low: 65 Precip: Trace Snow: 0.00", res.Notes[0].Plain)
	assert.Contains(t, res.Notes[0].Attributes.Channels, "CLIDSM")
}
