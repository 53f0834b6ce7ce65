package sigmet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/geo"
	"nws_parser/internal/nws"
)

var stations = geo.NewStationTable([]geo.Station{
	{ID: "DSM", Name: "Des Moines", State: "IA", Lon: -93.66, Lat: 41.53},
	{ID: "MCW", Name: "Mason City", State: "IA", Lon: -93.33, Lat: 43.16},
	{ID: "SEA", Name: "Seattle", State: "WA", Lon: -122.31, Lat: 47.45},
	{ID: "PDX", Name: "Portland", State: "OR", Lon: -122.60, Lat: 45.59},
})

var sigmetNow = time.Date(2023, 6, 10, 17, 0, 0, 0, time.UTC)

const convectiveText = `WSUS32 KKCI 101655
SIGC

CONVECTIVE SIGMET 45C
VALID UNTIL 1855Z
IA MO
FROM 30SW DSM-40NW MCW-20E DSM-30SW DSM
AREA SEV TS MOV FROM 26025KT. TOPS TO FL450.
HAIL TO 1 IN...WIND GUSTS TO 50KT POSS.

CONVECTIVE SIGMET 46C
VALID UNTIL 1855Z
IA
FROM 20N DSM-20S DSM
LINE TS 20 NM WIDE MOV FROM 27020KT. TOPS TO FL400.

CONVECTIVE SIGMET 47C
VALID UNTIL 1855Z
IA
30W MCW
ISOL SEV TS D30 MOV FROM 25015KT. TOPS ABV FL450.

OUTLOOK VALID 101855-102255
FROM 60N MCW-DSM-60N MCW
WST ISSUANCES EXPD.
`

func decode(t *testing.T, text string) (*Result, *nws.TextProduct) {
	t.Helper()
	opts := nws.Options{Now: sigmetNow, Stations: stations}
	prod, err := nws.ParseString(text, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out.(*Result), prod
}

func TestParseConvective(t *testing.T) {
	res, _ := decode(t, convectiveText)

	require.Len(t, res.Sigmets, 3)

	area := res.Sigmets[0]
	assert.Equal(t, Convective, area.Class)
	assert.Equal(t, "45C", area.Label)
	assert.Equal(t, []string{"IA", "MO"}, area.States)
	assert.Equal(t, "AREA", area.Kind)
	assert.Equal(t, time.Date(2023, 6, 10, 18, 55, 0, 0, time.UTC), area.End)
	require.NotNil(t, area.TopFL)
	assert.Equal(t, 450, *area.TopFL)
	require.NotNil(t, area.MoveDir)
	assert.Equal(t, 260, *area.MoveDir)
	assert.Equal(t, 25, *area.MoveKt)
	require.Len(t, area.Geometry, 1)
	ring := area.Geometry[0][0]
	assert.Len(t, ring, 4)
	assert.Equal(t, ring[0], ring[len(ring)-1])

	line := res.Sigmets[1]
	assert.Equal(t, "LINE", line.Kind)
	assert.Equal(t, 20, line.WidthNM)
	assert.NotEmpty(t, line.Geometry)

	isol := res.Sigmets[2]
	assert.Equal(t, "ISOL", isol.Kind)
	assert.Equal(t, 30, isol.WidthNM)
	require.Len(t, isol.Geometry, 1)
	assert.Len(t, isol.Geometry[0][0], 37)
}

func TestParseConvectiveUnknownStation(t *testing.T) {
	text := "WSUS32 KKCI 101655\nSIGC\n\nCONVECTIVE SIGMET 50C\nVALID UNTIL 1855Z\nIA\nFROM 30SW XYZ-DSM-MCW\nAREA TS MOV LTL. TOPS TO FL300.\n"
	res, prod := decode(t, text)

	require.Len(t, res.Sigmets, 1)
	assert.Empty(t, res.Sigmets[0].Geometry)
	assert.Equal(t, 0, *res.Sigmets[0].MoveKt)
	assert.True(t, prod.Warnings.Has(nws.ErrUnknownCode))
}

func TestParseDomestic(t *testing.T) {
	text := `WSUS01 KKCI 101600
WS1R

SFOR WS 101600
SIGMET ROMEO 2 VALID UNTIL 102000
OR WA
FROM SEA TO 40E PDX TO 50SW PDX TO SEA
OCNL SEV TURB BTN FL250 AND FL380. DUE TO JTST. CONDS CONTG BYD 2000Z.
`
	res, _ := decode(t, text)

	require.Len(t, res.Sigmets, 1)
	s := res.Sigmets[0]
	assert.Equal(t, Domestic, s.Class)
	assert.Equal(t, "ROMEO 2", s.Label)
	assert.Equal(t, []string{"OR", "WA"}, s.States)
	assert.Equal(t, time.Date(2023, 6, 10, 20, 0, 0, 0, time.UTC), s.End)
	assert.Equal(t, "OCNL SEV TURB BTN FL250 AND FL380", s.Phenomenon)
	assert.Equal(t, 250, *s.BaseFL)
	assert.Equal(t, 380, *s.TopFL)
	require.Len(t, s.Geometry, 1)
	assert.Len(t, s.Geometry[0][0], 4)
}

func TestParseInternational(t *testing.T) {
	text := `WSNT01 KKCI 101200
SIGA0A

KZWY SIGMET ALFA 1 VALID 101200/101600 KKCI-
NEW YORK OCEANIC FIR EMBD TS OBS AT 1145Z WI N3500 W06500 - N3600
W06300 - N3400 W06200 - N3500 W06500. TOP FL450. MOV NE 15KT. NC.=
`
	res, _ := decode(t, text)

	require.Len(t, res.Sigmets, 1)
	s := res.Sigmets[0]
	assert.Equal(t, International, s.Class)
	assert.Equal(t, "ALFA 1", s.Label)
	assert.Equal(t, "KZWY", s.Issuer)
	assert.Equal(t, "NEW YORK OCEANIC", s.FIR)
	assert.Equal(t, "EMBD TS OBS AT 1145Z", s.Phenomenon)
	assert.Equal(t, time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC), s.Start)
	assert.Equal(t, time.Date(2023, 6, 10, 16, 0, 0, 0, time.UTC), s.End)
	assert.Equal(t, 450, *s.TopFL)
	assert.Equal(t, 225, *s.MoveDir)
	assert.Equal(t, 15, *s.MoveKt)
	require.Len(t, s.Geometry, 1)
	ring := s.Geometry[0][0]
	require.Len(t, ring, 4)
	assert.InDelta(t, -65.0, ring[0][0], 0.001)
	assert.InDelta(t, 35.0, ring[0][1], 0.001)
}
