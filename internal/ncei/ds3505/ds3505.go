// Package ds3505 decodes NCEI Integrated Surface Data (DS3505) records:
// a fixed 105 character mandatory section followed by the ADD section of
// coded additional groups.
package ds3505

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/metar"
	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

// MandatoryLength is the size of the control plus mandatory data section.
const MandatoryLength = 105

// addLengths gives the payload length of each additional data group. A
// group not listed here cannot be skipped, so decoding of the ADD section
// stops with a warning when one is met.
var addLengths = map[string]int{
	"AA1": 8, "AA2": 8, "AA3": 8, "AA4": 8,
	"AB1": 7, "AC1": 3, "AD1": 19, "AE1": 12,
	"AG1": 4, "AH1": 15, "AH2": 15, "AH3": 15, "AH4": 15, "AH5": 15, "AH6": 15,
	"AI1": 15, "AI2": 15, "AI3": 15, "AI4": 15, "AI5": 15, "AI6": 15,
	"AJ1": 14, "AK1": 12, "AL1": 7, "AL2": 7, "AL3": 7, "AL4": 7,
	"AM1": 18, "AN1": 9, "AO1": 8, "AO2": 8, "AO3": 8, "AO4": 8,
	"AP1": 6, "AP2": 6, "AP3": 6, "AP4": 6,
	"AU1": 8, "AU2": 8, "AU3": 8, "AU4": 8, "AU5": 8, "AU6": 8, "AU7": 8, "AU8": 8, "AU9": 8,
	"AW1": 3, "AW2": 3, "AW3": 3, "AW4": 3,
	"AX1": 6, "AX2": 6, "AX3": 6, "AX4": 6, "AX5": 6, "AX6": 6,
	"AY1": 5, "AY2": 5, "AZ1": 5, "AZ2": 5,
	"CB1": 10, "CB2": 10, "CF1": 6, "CF2": 6, "CF3": 6,
	"CG1": 8, "CG2": 8, "CG3": 8, "CH1": 15, "CH2": 15,
	"CI1": 28, "CN1": 18, "CN2": 18, "CN3": 16, "CN4": 19,
	"CO1": 5, "CR1": 7, "CT1": 7, "CT2": 7, "CT3": 7,
	"CU1": 13, "CU2": 13, "CU3": 13, "CV1": 26, "CV2": 26, "CV3": 26,
	"CW1": 14, "CX1": 26, "CX2": 26, "CX3": 26,
	"ED1": 8, "GA1": 13, "GA2": 13, "GA3": 13, "GA4": 13, "GA5": 13, "GA6": 13,
	"GD1": 12, "GD2": 12, "GD3": 12, "GD4": 12, "GD5": 12, "GD6": 12,
	"GE1": 19, "GF1": 23, "GG1": 15, "GG2": 15, "GG3": 15, "GG4": 15, "GG5": 15, "GG6": 15,
	"GH1": 28, "GJ1": 5, "GK1": 4, "GL1": 6, "GM1": 30, "GN1": 28, "GO1": 19, "GP1": 31, "GQ1": 14, "GR1": 14,
	"HL1": 4, "IA1": 3, "IA2": 9, "IB1": 27, "IB2": 13, "IC1": 25,
	"KA1": 10, "KA2": 10, "KA3": 10, "KA4": 10,
	"KB1": 10, "KB2": 10, "KB3": 10, "KC1": 14, "KC2": 14,
	"KD1": 9, "KD2": 9, "KE1": 12, "KF1": 6, "KG1": 11, "KG2": 11,
	"MA1": 12, "MD1": 11, "ME1": 6, "MF1": 12, "MG1": 12, "MH1": 12, "MK1": 24,
	"MV1": 3, "MV2": 3, "MV3": 3, "MV4": 3, "MV5": 3, "MV6": 3, "MV7": 3,
	"MW1": 3, "MW2": 3, "MW3": 3, "MW4": 3, "MW5": 3, "MW6": 3, "MW7": 3,
	"OA1": 8, "OA2": 8, "OA3": 8, "OB1": 28, "OB2": 28, "OC1": 5,
	"OD1": 11, "OD2": 11, "OD3": 11, "OE1": 16, "OE2": 16, "OE3": 16,
	"RH1": 9, "RH2": 9, "RH3": 9, "SA1": 5, "ST1": 17,
	"UA1": 10, "UG1": 9, "UG2": 9, "WA1": 6, "WD1": 20, "WG1": 11,
}

// SkyCover is a GA group: layer coverage in oktas and base in feet.
type SkyCover struct {
	Oktas  *int   `json:"oktas"`
	BaseFt *int   `json:"base_ft,omitempty"`
	Cover  string `json:"cover"`
}

// Precip is an AA group.
type Precip struct {
	Hours  int      `json:"hours"`
	Inches *float64 `json:"inches"`
}

// Extreme is a KA group: a max or min temperature over a period.
type Extreme struct {
	Hours int      `json:"hours"`
	Code  string   `json:"code"`
	TempF *float64 `json:"tmpf"`
}

// Observation is one decoded record. Units follow the surface observation
// convention: Fahrenheit, knots, statute miles, feet, inches and hPa or
// inHg for pressure.
type Observation struct {
	USAF        string            `json:"usaf"`
	WBAN        string            `json:"wban"`
	Valid       time.Time         `json:"valid"`
	Source      string            `json:"source"`
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	ReportType  string            `json:"report_type"`
	ElevationM  *float64          `json:"elevation_m,omitempty"`
	CallSign    string            `json:"call_id,omitempty"`
	WindDir     *int              `json:"drct,omitempty"`
	WindKt      *float64          `json:"sknt,omitempty"`
	GustKt      *float64          `json:"gust,omitempty"`
	CeilingFt   *int              `json:"ceiling_ft,omitempty"`
	VisMiles    *float64          `json:"vsby,omitempty"`
	TempF       *float64          `json:"tmpf,omitempty"`
	DewF        *float64          `json:"dwpf,omitempty"`
	MSLP        *float64          `json:"mslp,omitempty"`
	AltimeterIn *float64          `json:"alti,omitempty"`
	Precip      []Precip          `json:"precip,omitempty"`
	Sky         []SkyCover        `json:"sky,omitempty"`
	Extremes    []Extreme         `json:"extremes,omitempty"`
	PresentWx   []string          `json:"present_wx,omitempty"`
	SnowDepthIn *float64          `json:"snowd,omitempty"`
	Groups      map[string]string `json:"groups,omitempty"`
	Remarks     string            `json:"remarks,omitempty"`
	Warnings    nws.Warnings      `json:"warnings,omitempty"`
}

// Station formats the USAF-WBAN identifier.
func (o *Observation) Station() string { return o.USAF + "-" + o.WBAN }

// Parse decodes one record.
func Parse(line string) (*Observation, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < MandatoryLength {
		return nil, fmt.Errorf("%w: ds3505 record has %d characters", nws.ErrInvalidEnvelope, len(line))
	}
	o := &Observation{
		USAF:       line[4:10],
		WBAN:       line[10:15],
		Source:     line[27:28],
		ReportType: strings.TrimSpace(line[41:46]),
	}
	valid, err := time.Parse("200601021504", line[15:27])
	if err != nil {
		return nil, fmt.Errorf("%w: ds3505 time %q", nws.ErrInvalidTimestamp, line[15:27])
	}
	o.Valid = valid
	lat := patterns.FixedScaled(line[28:34], "99999", 1000)
	lon := patterns.FixedScaled(line[34:41], "999999", 1000)
	if lat == nil || lon == nil || math.Abs(*lat) > 90 || math.Abs(*lon) > 180 {
		return nil, fmt.Errorf("%w: ds3505 location %q %q", nws.ErrOutOfBounds, line[28:34], line[34:41])
	}
	o.Lat, o.Lon = *lat, *lon
	o.ElevationM = patterns.FixedScaled(line[46:51], "9999", 1)
	if call := strings.TrimSpace(line[51:56]); call != "99999" {
		o.CallSign = call
	}

	o.decodeWind(line[60:70])
	if ceil := patterns.FixedInt(line[70:75], "99999"); ceil != nil && good(line[75]) {
		ft := int(math.Round(float64(*ceil) * 3.28084))
		o.CeilingFt = &ft
	}
	if vis := patterns.FixedInt(line[78:84], "999999"); vis != nil && good(line[84]) {
		mi := patterns.Round(float64(*vis)/1609.344, 2)
		o.VisMiles = &mi
	}
	o.TempF = tenthsCtoF(line[87:92], line[92])
	o.DewF = tenthsCtoF(line[93:98], line[98])
	if p := patterns.FixedScaled(line[99:104], "99999", 10); p != nil && good(line[104]) {
		o.MSLP = p
	}

	rest := line[MandatoryLength:]
	if strings.HasPrefix(rest, "ADD") {
		rest = o.decodeAdditional(rest[3:])
	}
	if i := strings.Index(rest, "REM"); i >= 0 {
		o.Remarks = strings.TrimSpace(rest[i+3:])
		if j := strings.Index(o.Remarks, "EQD"); j >= 0 {
			o.Remarks = strings.TrimSpace(o.Remarks[:j])
		}
	}
	return o, nil
}

// good reports whether a quality code passed. Codes 2, 3, 6 and 7 mark
// suspect or erroneous values.
func good(q byte) bool {
	return !strings.ContainsRune("2367", rune(q))
}

func tenthsCtoF(s string, q byte) *float64 {
	c := patterns.FixedScaled(s, "9999", 10)
	if c == nil || !good(q) {
		return nil
	}
	f := patterns.Round(*c*1.8+32, 1)
	return &f
}

func (o *Observation) decodeWind(s string) {
	dir := patterns.FixedInt(s[0:3], "999")
	kind := s[4]
	speed := patterns.FixedScaled(s[5:9], "9999", 10)
	if speed != nil && good(s[9]) {
		kt := patterns.Round(*speed*1.943844, 1)
		o.WindKt = &kt
	}
	switch {
	case kind == 'V':
		o.WindDir = patterns.Int(patterns.VariableWind)
	case kind == 'C':
		o.WindDir = patterns.Int(0)
	case dir != nil && good(s[3]):
		o.WindDir = dir
	}
}

// decodeAdditional walks the ADD section and returns what follows it.
func (o *Observation) decodeAdditional(s string) string {
	o.Groups = map[string]string{}
	for len(s) >= 3 {
		code := s[:3]
		if code == "REM" || code == "EQD" || code == "QNN" {
			return s
		}
		n, ok := addLengths[code]
		if !ok {
			o.Warnings.Add(nws.ErrUnknownCode, "ds3505 additional group %q", code)
			return ""
		}
		if len(s) < 3+n {
			o.Warnings.Add(nws.ErrOutOfBounds, "ds3505 group %s truncated", code)
			return ""
		}
		val := s[3 : 3+n]
		o.Groups[code] = val
		o.decodeGroup(code, val)
		s = s[3+n:]
	}
	return s
}

var coverCodes = []string{"CLR", "FEW", "FEW", "SCT", "SCT", "BKN", "BKN", "BKN", "OVC", "VV"}

func (o *Observation) decodeGroup(code, v string) {
	switch {
	case strings.HasPrefix(code, "AA"):
		hours, err := strconv.Atoi(v[0:2])
		if err != nil || hours == 99 {
			return
		}
		p := Precip{Hours: hours}
		if mm := patterns.FixedScaled(v[2:6], "9999", 10); mm != nil && good(v[7]) {
			in := patterns.Round(*mm/25.4, 2)
			if *mm == 0 && v[6] == '2' {
				in = patterns.TraceValue
			}
			p.Inches = &in
		}
		o.Precip = append(o.Precip, p)
	case code == "AJ1":
		if cm := patterns.FixedInt(v[0:4], "9999"); cm != nil && good(v[5]) {
			in := patterns.Round(float64(*cm)/2.54, 1)
			o.SnowDepthIn = &in
		}
	case strings.HasPrefix(code, "GA"):
		sc := SkyCover{}
		if okta := patterns.FixedInt(v[0:2], "99"); okta != nil && *okta <= 9 {
			sc.Oktas = okta
			sc.Cover = coverCodes[*okta]
		}
		if m := patterns.FixedInt(v[3:9], "99999"); m != nil && good(v[9]) {
			ft := int(math.Round(float64(*m)*3.28084/100) * 100)
			sc.BaseFt = &ft
		}
		o.Sky = append(o.Sky, sc)
	case strings.HasPrefix(code, "KA"):
		hours := patterns.FixedScaled(v[0:3], "999", 10)
		if hours == nil {
			return
		}
		e := Extreme{Hours: int(*hours), Code: v[3:4], TempF: tenthsCtoF(v[4:9], v[9])}
		o.Extremes = append(o.Extremes, e)
	case code == "MA1":
		if p := patterns.FixedScaled(v[0:5], "99999", 10); p != nil && good(v[5]) {
			in := patterns.Round(*p*0.0295301, 2)
			o.AltimeterIn = &in
		}
	case code == "OC1":
		if g := patterns.FixedScaled(v[0:4], "9999", 10); g != nil && good(v[4]) {
			kt := patterns.Round(*g*1.943844, 1)
			o.GustKt = &kt
		}
	case strings.HasPrefix(code, "MW"):
		o.PresentWx = append(o.PresentWx, v[0:2])
	}
}

// SkyLayers renders the GA groups as METAR cloud groups.
func (o *Observation) SkyLayers() []metar.SkyLayer {
	out := make([]metar.SkyLayer, 0, len(o.Sky))
	for _, s := range o.Sky {
		if s.Cover == "" {
			continue
		}
		out = append(out, metar.SkyLayer{Cover: s.Cover, BaseFt: s.BaseFt})
	}
	return out
}

// ReadAll decodes every line of r. Lines that fail to decode are reported
// as warnings and skipped.
func ReadAll(r io.Reader) ([]*Observation, nws.Warnings, error) {
	var out []*Observation
	var ws nws.Warnings
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		o, err := Parse(sc.Text())
		if err != nil {
			w := nws.AsWarning(err)
			w.Message = fmt.Sprintf("line %d: %s", n, w.Message)
			ws = append(ws, w)
			continue
		}
		out = append(out, o)
	}
	return out, ws, sc.Err()
}
