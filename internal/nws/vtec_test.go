package nws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVTECRoundTrip(t *testing.T) {
	tests := []string{
		"/O.NEW.KDMX.TO.W.0001.130723T0355Z-130723T0430Z/",
		"/O.CON.KDMX.SV.A.0503.000000T0000Z-140310T0900Z/",
		"/O.EXP.KBOX.WS.W.9999.000000T0000Z-000000T0000Z/",
		"/E.UPG.KTBW.HU.A.1001.240101T0000Z-240102T0000Z/",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			v, err := ParseVTEC(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, v.String())

			again, err := ParseVTEC(v.String())
			require.NoError(t, err)
			assert.Equal(t, v, again)
		})
	}
}

func TestVTECNullTimes(t *testing.T) {
	v, err := ParseVTEC("/O.CON.KDMX.SV.A.0503.000000T0000Z-140310T0900Z/")
	require.NoError(t, err)
	assert.Nil(t, v.Begin)
	require.NotNil(t, v.End)
	assert.Equal(t, time.Date(2014, 3, 10, 9, 0, 0, 0, time.UTC), *v.End)
	assert.Equal(t, "DMX", v.WFO())
	assert.Equal(t, "2014.KDMX.SV.A.0503", v.Key(2014))
}

func TestVTECRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind error
	}{
		{"bad action", "/O.ZZZ.KDMX.TO.W.0001.130723T0355Z-130723T0430Z/", ErrUnknownCode},
		{"bad significance", "/O.NEW.KDMX.TO.Q.0001.130723T0355Z-130723T0430Z/", ErrUnknownCode},
		{"zero etn", "/O.NEW.KDMX.TO.W.0000.130723T0355Z-130723T0430Z/", ErrOutOfBounds},
		{"hvtec is not vtec", "/DESM5.1.ER.130723T0355Z.130724T0000Z.130725T0000Z.NO/", ErrUnknownCode},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseVTEC(tc.raw)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestFindVTECEndBeforeBegin(t *testing.T) {
	vs, ws := FindVTEC("/O.NEW.KDMX.TO.W.0001.130723T0455Z-130723T0430Z/")
	require.Len(t, vs, 1)
	assert.Nil(t, vs[0].End)
	assert.True(t, ws.Has(ErrOutOfBounds))
}

func TestFindHVTEC(t *testing.T) {
	text := "/O.NEW.KDMX.FL.W.0042.130723T0355Z-130726T1200Z/\n/DESI4.2.ER.130723T0355Z.130724T1800Z.130726T0000Z.NO/\n"
	hs, ws := FindHVTEC(text)
	assert.Empty(t, ws)
	require.Len(t, hs, 1)
	h := hs[0]
	assert.Equal(t, "DESI4", h.NWSLI)
	assert.Equal(t, "2", h.Severity)
	assert.Equal(t, "ER", h.ImmediateCause)
	assert.Equal(t, "NO", h.Record)
	require.NotNil(t, h.Crest)
	assert.Equal(t, time.Date(2013, 7, 24, 18, 0, 0, 0, time.UTC), *h.Crest)

	vs, _ := FindVTEC(text)
	assert.Len(t, vs, 1)
}

func TestParseUGCBlock(t *testing.T) {
	valid := time.Date(2013, 7, 31, 20, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		block  string
		want   []string
		expire *time.Time
	}{
		{
			name:  "range and state change",
			block: "IAC001-003>005-MNZ010-311200-",
			want:  []string{"IAC001", "IAC003", "IAC004", "IAC005", "MNZ010"},
		},
		{
			name:  "split across lines with whitespace",
			block: "IAZ001>003-005- \n 007-010800-",
			want:  []string{"IAZ001", "IAZ002", "IAZ003", "IAZ005", "IAZ007"},
		},
		{
			name:  "until further notice",
			block: "TXZ100-000000-",
			want:  []string{"TXZ100"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, ws := ParseUGCBlock(tc.block, valid)
			assert.Empty(t, ws)
			got := make([]string, len(b.UGCs))
			for i, u := range b.UGCs {
				got[i] = u.String()
			}
			assert.Equal(t, tc.want, got)
		})
	}

	b, _ := ParseUGCBlock("IAZ001-010800-", valid)
	require.NotNil(t, b.Expire)
	assert.Equal(t, time.Date(2013, 8, 1, 8, 0, 0, 0, time.UTC), *b.Expire)

	b, _ = ParseUGCBlock("TXZ100-000000-", valid)
	assert.Nil(t, b.Expire)
}

func TestUGCEquality(t *testing.T) {
	a, err := ParseUGC("IAC001")
	require.NoError(t, err)
	b := UGC{State: "IA", Class: 'C', Number: 1}
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, UGC{State: "IA", Class: 'Z', Number: 1})

	_, err = ParseUGC("IAX001")
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestExtractUGCBlockMultiline(t *testing.T) {
	text := "\nIAZ004>007-015>017-023>028-033>039-044>050-057>062-070>075-081>086-\n092>097-311200-\n/O.NEW.KDMX.HT.Y.0003.130731T1700Z-130801T0100Z/\n"
	block, ok := ExtractUGCBlock(text)
	require.True(t, ok)
	b, ws := ParseUGCBlock(block, time.Date(2013, 7, 31, 10, 0, 0, 0, time.UTC))
	assert.Empty(t, ws)
	assert.Equal(t, "IAZ004", b.UGCs[0].String())
	assert.Equal(t, "IAZ097", b.UGCs[len(b.UGCs)-1].String())
}

func TestHeadlinesAndTags(t *testing.T) {
	text := `...TORNADO WARNING REMAINS IN EFFECT UNTIL 1045 PM CDT FOR
NORTHEASTERN POLK COUNTY...

AT 1030 PM CDT...A CONFIRMED TORNADO WAS LOCATED NEAR ANKENY.

TORNADO...OBSERVED
TORNADO DAMAGE THREAT...CATASTROPHIC
HAIL...>2.75IN
WATERSPOUT...POSSIBLE
`
	hs := ParseHeadlines(text)
	require.Len(t, hs, 1)
	assert.Equal(t, "TORNADO WARNING REMAINS IN EFFECT UNTIL 1045 PM CDT FOR NORTHEASTERN POLK COUNTY", hs[0])

	tags, ws := ParseTags(text)
	assert.Empty(t, ws)
	assert.Equal(t, TornadoObserved, tags.Tornado)
	assert.Equal(t, DamageCatastrophic, tags.Damage)
	require.NotNil(t, tags.HailSize)
	assert.Equal(t, 2.75, *tags.HailSize)
	assert.Equal(t, ">", tags.HailComparator)
	assert.Equal(t, "POSSIBLE", tags.Waterspout)

	_, ws = ParseTags("TORNADO...MAYBE\n")
	assert.True(t, ws.Has(ErrUnknownCode))
}

func TestHeadlineParagraphs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single line", "...WIND ADVISORY IN EFFECT...\n\nBODY\n", []string{"WIND ADVISORY IN EFFECT"}},
		{"wrapped", "...HEAT ADVISORY FOR\nPOLK COUNTY...\n\n", []string{"HEAT ADVISORY FOR POLK COUNTY"}},
		{"two headlines", "...FIRST...\n\n...SECOND...\n\n", []string{"FIRST", "SECOND"}},
		{"unclosed does not span paragraphs", "...NO CLOSE\n\nTEXT BODY...\n\n", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseHeadlines(tc.text))
		})
	}
}

func TestParsePolygonDefects(t *testing.T) {
	_, err := ParsePolygon("LAT...LON 4150 9360 4180\n\n")
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = ParsePolygon("LAT...LON 4150 9360 4180 9360\n\n")
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	poly, err := ParsePolygon("LAT...LON 41509360 41809360 41809320\n\n")
	require.NoError(t, err)
	assert.Len(t, poly[0], 4)

	// Bow tie ring crossing itself.
	_, err = ParsePolygon("LAT...LON 41509360 41809320 41809360 41609320\n\n")
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	poly, err = ParsePolygon("no polygon here")
	assert.NoError(t, err)
	assert.Nil(t, poly)
}

func TestTimeMotLocLine(t *testing.T) {
	valid := time.Date(2014, 3, 10, 0, 5, 0, 0, time.UTC)
	tml, err := ParseTimeMotLoc("TIME...MOT...LOC 2358Z 240DEG 35KT 4165 9350 4170 9340\n", valid)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2014, 3, 9, 23, 58, 0, 0, time.UTC), tml.Valid)
	assert.Len(t, tml.Points, 2)
	assert.Equal(t, "LineString", tml.Geometry().GeoJSONType())
}
