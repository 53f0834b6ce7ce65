package patterns

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalToUTC(t *testing.T) {
	tests := []struct {
		name string
		abbr string
		in   time.Time
		want time.Time
	}{
		{"EDT summer", "EDT", time.Date(2005, 7, 1, 0, 49, 0, 0, time.UTC), time.Date(2005, 7, 1, 4, 49, 0, 0, time.UTC)},
		{"EST winter", "EST", time.Date(2014, 1, 15, 3, 0, 0, 0, time.UTC), time.Date(2014, 1, 15, 8, 0, 0, 0, time.UTC)},
		{"CDT", "CDT", time.Date(2013, 7, 22, 22, 55, 0, 0, time.UTC), time.Date(2013, 7, 23, 3, 55, 0, 0, time.UTC)},
		{"CST", "CST", time.Date(2014, 3, 9, 21, 35, 0, 0, time.UTC), time.Date(2014, 3, 10, 3, 35, 0, 0, time.UTC)},
		{"MDT", "MDT", time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 6, 1, 18, 0, 0, 0, time.UTC)},
		{"MST", "MST", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 19, 0, 0, 0, time.UTC)},
		{"PDT", "PDT", time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 6, 1, 19, 0, 0, 0, time.UTC)},
		{"PST", "PST", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 20, 0, 0, 0, time.UTC)},
		{"ADT", "ADT", time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 6, 1, 15, 0, 0, 0, time.UTC)},
		{"AST", "AST", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 16, 0, 0, 0, time.UTC)},
		{"NST", "NST", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 15, 30, 0, 0, time.UTC)},
		{"HST", "HST", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 22, 0, 0, 0, time.UTC)},
		{"AKDT", "AKDT", time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 6, 1, 20, 0, 0, 0, time.UTC)},
		{"AKST", "AKST", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 21, 0, 0, 0, time.UTC)},
		{"LST", "LST", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 21, 0, 0, 0, time.UTC)},
		{"CHST", "CHST", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 2, 0, 0, 0, time.UTC)},
		{"UTC", "UTC", time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"bare CT in summer", "CT", time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC), time.Date(2014, 6, 1, 17, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalToUTC(tc.in.Year(), tc.in.Month(), tc.in.Day(), tc.in.Hour(), tc.in.Minute(), tc.abbr)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s, want %s", got, tc.want)
		})
	}
}

func TestLocalToUTCMatchesZoneRules(t *testing.T) {
	// In the middle of a season the fixed offsets agree with the tz database.
	for _, abbr := range []string{"CDT", "EDT", "MDT", "PDT", "ADT", "AKDT"} {
		loc, err := LoadTimezone(abbr)
		require.NoError(t, err)
		want := time.Date(2020, 7, 4, 15, 30, 0, 0, loc).UTC()
		got, err := LocalToUTC(2020, 7, 4, 15, 30, abbr)
		require.NoError(t, err)
		assert.Equal(t, want, got, abbr)
	}
}

func TestUnknownTimezone(t *testing.T) {
	_, err := LoadTimezone("XYZ")
	assert.Error(t, err)
	assert.False(t, KnownTimezone("QQT"))
	assert.True(t, KnownTimezone("CHST"))
}

func TestNormalizeText(t *testing.T) {
	raw := "\x01\r\r\n123 \r\r\nWUUS53 KDMX 100335\r\r\nSVRDMX\r\r\n\r\r\nBODY\r\r\n\x03"
	got := NormalizeText(raw)
	assert.Equal(t, "WUUS53 KDMX 100335\nSVRDMX\n\nBODY\n", got)
	assert.True(t, HasLDMEnvelope(raw))

	framed := FrameLDM(42, got)
	assert.Equal(t, got, NormalizeText(framed))
}

func TestNormalizeSequenceLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"framed", "\x01\r\r\n042 \r\r\nFXUS63 KDMX 100335\r\r\n\x03", "FXUS63 KDMX 100335\n"},
		{"bare digits kept", "12345\nFXUS63 KDMX 100335\n", "12345\nFXUS63 KDMX 100335\n"},
		{"bare product", "FXUS63 KDMX 100335\nAFDDMX\n", "FXUS63 KDMX 100335\nAFDDMX\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeText(tc.raw))
		})
	}
}

func TestScanLDM(t *testing.T) {
	feed := "noise" + FrameLDM(1, "AAA\n") + "\r\n" + FrameLDM(2, "BBB\n") + "\x01\r\r\n003 \r\r\nCCC"
	sc := bufio.NewScanner(strings.NewReader(feed))
	sc.Split(ScanLDM)
	var got []string
	for sc.Scan() {
		got = append(got, NormalizeText(sc.Text()))
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"AAA\n", "BBB\n", "CCC"}, got)
}

func TestParseHundredthsPair(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon string
		wantLon  float64
		wantLat  float64
		wantErr  bool
	}{
		{"three digit west", "4150", "9360", -93.60, 41.50, false},
		{"leading one dropped", "3550", "0350", -103.50, 35.50, false},
		{"five digit longitude", "4800", "12020", -120.20, 48.00, false},
		{"garbage", "41A0", "9360", 0, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lon, lat, err := ParseHundredthsPair(tc.lat, tc.lon)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.wantLon, lon, 1e-9)
			assert.InDelta(t, tc.wantLat, lat, 1e-9)
		})
	}
}

func TestSPCTokenRoundTrip(t *testing.T) {
	for _, tok := range []string{"37009800", "45002500", "45000000", "29999999", "48506600"} {
		lon, lat, err := ParseSPCToken(tok)
		require.NoError(t, err)
		assert.Equal(t, tok, FormatSPCToken(lon, lat), tok)
	}
}

func TestParseDMSCoord(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		degDigits int
		dir       string
		want      float64
		ok        bool
	}{
		{"DDMM north", "2500", 2, "N", 25.0, true},
		{"DDDMM west", "07000", 3, "W", -70.0, true},
		{"DDMM.M", "3413.8", 2, "S", -34.23, true},
		{"DDMMSS", "341348", 2, "N", 34.23, true},
		{"minutes overflow", "2575", 2, "N", 0, false},
		{"too short", "2", 2, "N", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDMSCoord(tc.input, tc.degDigits, tc.dir)
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.want, got, 0.001)
		})
	}
}

func TestMissingSentinels(t *testing.T) {
	for _, s := range []string{"", "M", "MM", " M "} {
		assert.True(t, Missing(s), s)
	}
	for _, s := range []string{"0", "1009", "99", "999", "9999", "T"} {
		assert.False(t, Missing(s), s)
	}
	require.NotNil(t, ParseFloat("T"))
	assert.Equal(t, TraceValue, *ParseFloat("T"))
	require.NotNil(t, ParseInt("9999"))
	assert.Equal(t, 9999, *ParseInt("9999"))
}

func TestFixedSentinels(t *testing.T) {
	tests := []struct {
		in       string
		sentinel string
		want     *int
	}{
		{"+9999", "9999", nil},
		{"-9999", "9999", nil},
		{"99999", "99999", nil},
		{"999", "999", nil},
		{"9999", "99999", Int(9999)},
		{"0999", "9999", Int(999)},
		{"+0125", "9999", Int(125)},
		{"-0042", "9999", Int(-42)},
	}
	for _, tc := range tests {
		t.Run(tc.in+"/"+tc.sentinel, func(t *testing.T) {
			assert.Equal(t, tc.want, FixedInt(tc.in, tc.sentinel))
		})
	}

	v := FixedScaled("+0125", "9999", 10)
	require.NotNil(t, v)
	assert.InDelta(t, 12.5, *v, 1e-9)
	assert.Nil(t, FixedScaled("+9999", "9999", 10))
}

func TestCompilerExpandsLongestFirst(t *testing.T) {
	c := NewCompiler([]Format{
		{Name: "offset", Pattern: `^(?P<dist>{DIST})\s*(?P<dir>{COMPASS})\s+(?P<stid>{STID})$`},
	}, nil).MustCompile()

	m := c.Parse("10 NNE DSM")
	require.NotNil(t, m)
	assert.Equal(t, "10", m.GetCapture("dist", ""))
	assert.Equal(t, "NNE", m.GetCapture("dir", ""))
	assert.Equal(t, "DSM", m.GetCapture("stid", ""))
	assert.Nil(t, c.Parse("nothing here"))
}
