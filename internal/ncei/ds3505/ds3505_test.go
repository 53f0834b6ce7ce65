package ds3505

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

const (
	mandatory  = "0216725460149332023061014544+41534-093653FM-15+0294KDSM V0302701N005110152419N016093199+02501+01501101321"
	additional = "ADDAA101002591GA1041+015241999KA1120M+03001MA1101351098141OC101031MW1611"
)

func TestParse(t *testing.T) {
	o, err := Parse(mandatory + additional + "REMMET069METAR KDSM 101454Z 27010KT 10SM")
	require.NoError(t, err)

	assert.Equal(t, "725460-14933", o.Station())
	assert.Equal(t, time.Date(2023, 6, 10, 14, 54, 0, 0, time.UTC), o.Valid)
	assert.InDelta(t, 41.534, o.Lat, 1e-9)
	assert.InDelta(t, -93.653, o.Lon, 1e-9)
	assert.Equal(t, "FM-15", o.ReportType)
	assert.Equal(t, "KDSM", o.CallSign)
	assert.Equal(t, 294.0, *o.ElevationM)
	assert.Equal(t, 270, *o.WindDir)
	assert.Equal(t, 9.9, *o.WindKt)
	assert.Equal(t, 5000, *o.CeilingFt)
	assert.Equal(t, 10.0, *o.VisMiles)
	assert.Equal(t, 77.0, *o.TempF)
	assert.Equal(t, 59.0, *o.DewF)
	assert.Equal(t, 1013.2, *o.MSLP)

	require.Len(t, o.Precip, 1)
	assert.Equal(t, 1, o.Precip[0].Hours)
	assert.Equal(t, 0.1, *o.Precip[0].Inches)
	require.Len(t, o.Sky, 1)
	assert.Equal(t, "SCT", o.Sky[0].Cover)
	assert.Equal(t, 5000, *o.Sky[0].BaseFt)
	require.Len(t, o.Extremes, 1)
	assert.Equal(t, 12, o.Extremes[0].Hours)
	assert.Equal(t, 86.0, *o.Extremes[0].TempF)
	assert.Equal(t, 29.93, *o.AltimeterIn)
	assert.Equal(t, 20.0, *o.GustKt)
	assert.Equal(t, []string{"61"}, o.PresentWx)
	assert.Equal(t, "MET069METAR KDSM 101454Z 27010KT 10SM", o.Remarks)
	assert.Empty(t, o.Warnings)

	layers := o.SkyLayers()
	require.Len(t, layers, 1)
	assert.Equal(t, "SCT", layers[0].Cover)
}

func TestParseMissingAndVariable(t *testing.T) {
	line := []byte(mandatory)
	copy(line[60:70], "9991V99999")
	copy(line[87:93], "+99999")
	copy(line[99:105], "999999")
	o, err := Parse(string(line) + "ADDZZ9123")
	require.NoError(t, err)
	assert.Equal(t, patterns.VariableWind, *o.WindDir)
	assert.Nil(t, o.WindKt)
	assert.Nil(t, o.TempF)
	assert.Nil(t, o.MSLP)
	assert.True(t, o.Warnings.Has(nws.ErrUnknownCode))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"short", mandatory[:80], nws.ErrInvalidEnvelope},
		{"bad time", mandatory[:15] + "2023061X1454" + mandatory[27:], nws.ErrInvalidTimestamp},
		{"bad latitude", mandatory[:28] + "+99999" + mandatory[34:], nws.ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadAll(t *testing.T) {
	input := mandatory + "\n\n" + mandatory[:50] + "\n" + mandatory + additional + "\n"
	obs, warns, err := ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, obs, 2)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Message, "line 3")
}
