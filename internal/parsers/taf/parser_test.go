package taf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

const tafText = `FTUS43 KDMX 101720
TAFDSM
TAF
KDSM 101720Z 1018/1118 18010KT P6SM SCT050
     FM102000 20015G25KT P6SM VCTS BKN040CB
     TEMPO 1022/1102 3SM TSRA BKN030CB
     PROB30 TEMPO 1104/1108 1SM +TSRA OVC015CB
     FM110600 30008KT P6SM SKC WS020/24045KT
     BECMG 1112/1114 33012KT=
`

func decode(t *testing.T, text string) *Result {
	t.Helper()
	opts := nws.Options{Now: time.Date(2023, 6, 10, 17, 30, 0, 0, time.UTC)}
	prod, err := nws.ParseString(text, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	return out.(*Result)
}

func TestParseTAF(t *testing.T) {
	res := decode(t, tafText)

	assert.Equal(t, "taf", res.Type())
	require.Len(t, res.Reports, 1)
	rep := res.Reports[0]
	assert.Equal(t, "KDSM", rep.Station)
	assert.Equal(t, time.Date(2023, 6, 10, 17, 20, 0, 0, time.UTC), rep.Issued)
	assert.Equal(t, time.Date(2023, 6, 10, 18, 0, 0, 0, time.UTC), rep.Valid)
	assert.Equal(t, time.Date(2023, 6, 11, 18, 0, 0, 0, time.UTC), rep.End)

	ob := rep.Observation
	assert.Equal(t, KindObservation, ob.Kind)
	assert.Equal(t, 180, *ob.WindDir)
	assert.Equal(t, 10, *ob.WindSpeed)
	assert.Equal(t, AboveSixMiles, *ob.Visibility)
	require.Len(t, ob.Sky, 1)
	assert.Equal(t, 5000, *ob.Sky[0].BaseFt)

	require.Len(t, rep.Forecasts, 5)
	fm := rep.Forecasts[0]
	assert.Equal(t, KindFrom, fm.Kind)
	assert.Equal(t, time.Date(2023, 6, 10, 20, 0, 0, 0, time.UTC), fm.Valid)
	assert.Equal(t, 25, *fm.WindGust)
	assert.Equal(t, []string{"VCTS"}, fm.Weather)

	tempo := rep.Forecasts[1]
	assert.Equal(t, KindTempo, tempo.Kind)
	assert.Equal(t, time.Date(2023, 6, 10, 22, 0, 0, 0, time.UTC), tempo.Valid)
	require.NotNil(t, tempo.End)
	assert.Equal(t, time.Date(2023, 6, 11, 2, 0, 0, 0, time.UTC), *tempo.End)
	assert.Equal(t, 3.0, *tempo.Visibility)
	assert.Equal(t, "TEMPO 1022/1102 3SM TSRA BKN030CB", tempo.Raw)

	prob := rep.Forecasts[2]
	assert.Equal(t, KindTempo, prob.Kind)
	assert.Equal(t, 30, *prob.Probability)
	assert.Equal(t, "PROB30 TEMPO 1104/1108 1SM +TSRA OVC015CB", prob.Raw)

	shear := rep.Forecasts[3]
	assert.Equal(t, 2, *shear.ShearLevel)
	assert.Equal(t, 240, *shear.ShearDir)
	assert.Equal(t, 45, *shear.ShearSpeed)

	becmg := rep.Forecasts[4]
	assert.Equal(t, KindBecoming, becmg.Kind)
	assert.Equal(t, time.Date(2023, 6, 11, 12, 0, 0, 0, time.UTC), becmg.Valid)
}

func TestHourTwentyFour(t *testing.T) {
	res := decode(t, "FTUS43 KDMX 101720\nTAFAMW\nTAF AMD\nKAMW 101720Z 1018/1024 18010KT P6SM SKC=\n")

	require.Len(t, res.Reports, 1)
	assert.True(t, res.Reports[0].Amendment)
	assert.Equal(t, time.Date(2023, 6, 11, 0, 0, 0, 0, time.UTC), res.Reports[0].End)
}

func TestNoReport(t *testing.T) {
	opts := nws.Options{Now: time.Date(2023, 6, 10, 17, 30, 0, 0, time.UTC)}
	prod, err := nws.ParseString("FTUS43 KDMX 101720\nTAFDSM\nKDSM 101720Z 99/99 GARBAGE=\n", opts)
	require.NoError(t, err)
	assert.False(t, (&Parser{}).QuickCheck(prod))
}

func TestDayHourMinuteMonthRollover(t *testing.T) {
	tests := []struct {
		name   string
		ddhhmm string
		issued time.Time
		want   time.Time
	}{
		{"same day", "101800", time.Date(2023, 6, 10, 17, 20, 0, 0, time.UTC), time.Date(2023, 6, 10, 18, 0, 0, 0, time.UTC)},
		{"next month", "010600", time.Date(2023, 6, 30, 23, 40, 0, 0, time.UTC), time.Date(2023, 7, 1, 6, 0, 0, 0, time.UTC)},
		{"previous month", "302100", time.Date(2023, 7, 1, 0, 10, 0, 0, time.UTC), time.Date(2023, 6, 30, 21, 0, 0, 0, time.UTC)},
		{"previous year", "312300", time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC), time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)},
		{"hour 24", "302400", time.Date(2023, 6, 30, 5, 40, 0, 0, time.UTC), time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := dayHourMinute(tc.ddhhmm, tc.issued)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := dayHourMinute("311200", time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, nws.ErrInvalidTimestamp)
}

func TestPeriodFromPreviousMonth(t *testing.T) {
	opts := nws.Options{Now: time.Date(2023, 7, 1, 0, 30, 0, 0, time.UTC)}
	prod, err := nws.ParseString("FTUS43 KDMX 010005\nTAFDSM\nTAF\nKDSM 302340Z 3024/0106 18010KT P6SM SKC\n     FM010300 20012KT P6SM SKC=\n", opts)
	require.NoError(t, err)
	out, err := (&Parser{}).Parse(prod, opts)
	require.NoError(t, err)

	rep := out.(*Result).Reports[0]
	assert.Equal(t, time.Date(2023, 6, 30, 23, 40, 0, 0, time.UTC), rep.Issued)
	assert.Equal(t, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), rep.Valid)
	assert.Equal(t, time.Date(2023, 7, 1, 6, 0, 0, 0, time.UTC), rep.End)
	require.Len(t, rep.Forecasts, 1)
	assert.Equal(t, time.Date(2023, 7, 1, 3, 0, 0, 0, time.UTC), rep.Forecasts[0].Valid)
}
