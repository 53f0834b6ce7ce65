package metar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/patterns"
)

var ref = time.Date(2023, 6, 10, 18, 30, 0, 0, time.UTC)

func TestParseFull(t *testing.T) {
	raw := "METAR KDSM 101754Z 31015G30KT 10SM -TSRA FEW050CB BKN100 24/12 A2992 RMK AO2 PK WND 30045/1730 SLP123 P0012 60034 T02390122 10250 21211 58012="
	r, err := Parse(raw, ref)
	require.NoError(t, err)

	assert.Equal(t, "KDSM", r.Station)
	assert.Equal(t, "METAR", r.Kind)
	assert.Equal(t, time.Date(2023, 6, 10, 17, 54, 0, 0, time.UTC), r.Time)
	assert.Equal(t, 310, *r.WindDir)
	assert.Equal(t, 15, *r.WindSpeed)
	assert.Equal(t, 30, *r.WindGust)
	assert.Equal(t, 10.0, *r.Visibility)
	assert.Equal(t, []string{"-TSRA"}, r.Weather)
	require.Len(t, r.Sky, 2)
	assert.Equal(t, "FEW", r.Sky[0].Cover)
	assert.Equal(t, 5000, *r.Sky[0].BaseFt)
	assert.Equal(t, "CB", r.Sky[0].Type)
	assert.InDelta(t, 23.9, *r.Temp, 1e-9)
	assert.InDelta(t, 12.2, *r.Dewpoint, 1e-9)
	assert.InDelta(t, 29.92, *r.Altimeter, 1e-9)
	assert.InDelta(t, 1012.3, *r.SLP, 1e-9)
	assert.InDelta(t, 0.12, *r.Precip1h, 1e-9)
	assert.InDelta(t, 0.34, *r.Precip6h, 1e-9)
	assert.Nil(t, r.Precip3h)
	assert.InDelta(t, 25.0, *r.Max6h, 1e-9)
	assert.InDelta(t, -21.1, *r.Min6h, 1e-9)
	assert.Equal(t, 300, *r.PeakWindDir)
	assert.Equal(t, 45, *r.PeakWindSpeed)
	assert.Equal(t, time.Date(2023, 6, 10, 17, 30, 0, 0, time.UTC), *r.PeakWindTime)
}

func TestParseGroups(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, r *Report)
	}{
		{
			name:  "variable wind",
			input: "KAMW 101755Z AUTO VRB03KT 10SM CLR 20/10 A3001",
			check: func(t *testing.T, r *Report) {
				assert.True(t, r.Auto)
				assert.Equal(t, patterns.VariableWind, *r.WindDir)
			},
		},
		{
			name:  "split fraction visibility",
			input: "KAMW 101755Z 18005KT 1 1/2SM BR OVC004 M02/M03 A2990",
			check: func(t *testing.T, r *Report) {
				assert.InDelta(t, 1.5, *r.Visibility, 1e-9)
				assert.Equal(t, -2.0, *r.Temp)
				assert.Equal(t, -3.0, *r.Dewpoint)
			},
		},
		{
			name:  "less than quarter mile",
			input: "KAMW 101755Z 00000KT M1/4SM FG VV001 10/10 A2990",
			check: func(t *testing.T, r *Report) {
				assert.InDelta(t, 0.25, *r.Visibility, 1e-9)
				assert.Equal(t, "VV", r.Sky[0].Cover)
			},
		},
		{
			name:  "metric station",
			input: "EGLL 101750Z 24010MPS 9999 SCT030 18/09 Q1013 NOSIG",
			check: func(t *testing.T, r *Report) {
				assert.Equal(t, 19, *r.WindSpeed)
				assert.InDelta(t, 29.91, *r.Altimeter, 0.01)
			},
		},
		{
			name:  "trace and ice",
			input: "KAMW 101755Z 36010KT 2SM -FZRA OVC010 M01/M02 A2980 RMK AO2 P0000 I1002 4/005",
			check: func(t *testing.T, r *Report) {
				assert.Equal(t, patterns.TraceValue, *r.Precip1h)
				assert.InDelta(t, 0.02, *r.Ice1h, 1e-9)
				assert.Equal(t, 5.0, *r.SnowDepth)
			},
		},
		{
			name:  "speci correction",
			input: "SPECI COR KAMW 101712Z 27030G45KT 3SM +TSRA BKN020 21/19 A2985",
			check: func(t *testing.T, r *Report) {
				assert.Equal(t, "SPECI", r.Kind)
				assert.True(t, r.Correction)
				assert.Equal(t, 45, *r.WindGust)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.input, ref)
			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}

func TestParseUnparsedGroups(t *testing.T) {
	_, err := Parse("KDSM 101754Z 31015KT 10SM GARBAGE CLR 24/12 A2992", ref)

	var perr *ParserError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, []string{"GARBAGE"}, perr.Unparsed)
	assert.Contains(t, err.Error(), "Unparsed groups")
}

func TestParseNoStation(t *testing.T) {
	_, err := Parse("101754Z 31015KT", ref)
	assert.ErrorIs(t, err, ErrNoStation)
}

func TestDayFromPreviousMonth(t *testing.T) {
	r, err := Parse("KDSM 302354Z 31015KT 10SM CLR 24/12 A2992", time.Date(2023, 7, 1, 0, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 30, 23, 54, 0, 0, time.UTC), r.Time)
}
