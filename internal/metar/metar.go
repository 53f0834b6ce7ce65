// Package metar decodes single METAR and SPECI surface observations.
//
// Parse is strict: any body group it cannot classify is reported through a
// *ParserError listing the unparsed groups, so callers can strip them and
// try again.
package metar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/patterns"
)

// ErrNoStation is returned when the report carries no station identifier.
var ErrNoStation = errors.New("metar: no station identifier")

// ParserError lists body groups that matched no known grammar.
type ParserError struct {
	Raw      string
	Unparsed []string
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("Unparsed groups in body '%s' while processing '%s'", strings.Join(e.Unparsed, " "), e.Raw)
}

// SkyLayer is one cloud group.
type SkyLayer struct {
	Cover  string `json:"cover"`
	BaseFt *int   `json:"base_ft,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Report is a decoded observation. Temperatures are Celsius, speeds knots,
// visibility statute miles, precipitation inches and pressure inHg
// (altimeter) or mb (sea level).
type Report struct {
	Station    string    `json:"station"`
	Kind       string    `json:"kind"`
	Time       time.Time `json:"valid"`
	Auto       bool      `json:"auto,omitempty"`
	Correction bool      `json:"correction,omitempty"`
	Nil        bool      `json:"nil,omitempty"`

	WindDir    *int       `json:"drct,omitempty"`
	WindSpeed  *int       `json:"sknt,omitempty"`
	WindGust   *int       `json:"gust,omitempty"`
	Visibility *float64   `json:"vsby,omitempty"`
	Weather    []string   `json:"wxcodes,omitempty"`
	Sky        []SkyLayer `json:"sky,omitempty"`
	Temp       *float64   `json:"tmpc,omitempty"`
	Dewpoint   *float64   `json:"dwpc,omitempty"`
	Altimeter  *float64   `json:"alti,omitempty"`
	SLP        *float64   `json:"mslp,omitempty"`

	Precip1h  *float64 `json:"p01i,omitempty"`
	Precip3h  *float64 `json:"p03i,omitempty"`
	Precip6h  *float64 `json:"p06i,omitempty"`
	Precip24h *float64 `json:"p24i,omitempty"`
	SnowDepth *float64 `json:"snowd,omitempty"`

	Max6h  *float64 `json:"max_tmpc_6hr,omitempty"`
	Min6h  *float64 `json:"min_tmpc_6hr,omitempty"`
	Max24h *float64 `json:"max_tmpc_24hr,omitempty"`
	Min24h *float64 `json:"min_tmpc_24hr,omitempty"`

	PeakWindDir   *int       `json:"peak_wind_drct,omitempty"`
	PeakWindSpeed *int       `json:"peak_wind_gust,omitempty"`
	PeakWindTime  *time.Time `json:"peak_wind_time,omitempty"`

	Ice1h *float64 `json:"ice_accretion_1hr,omitempty"`
	Ice3h *float64 `json:"ice_accretion_3hr,omitempty"`
	Ice6h *float64 `json:"ice_accretion_6hr,omitempty"`

	Remarks string `json:"remarks,omitempty"`
	Raw     string `json:"raw"`
}

// Body group grammar.
var (
	stationRe   = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)
	timeRe      = regexp.MustCompile(`^([0-9]{2})([0-9]{2})([0-9]{2})Z$`)
	windRe      = regexp.MustCompile(`^(VRB|[0-9]{3}|///)([0-9]{2,3}|//)(?:G([0-9]{2,3}))?(KT|MPS)$`)
	varyRe      = regexp.MustCompile(`^[0-9]{3}V[0-9]{3}$`)
	visRe       = regexp.MustCompile(`^([MP])?(?:([0-9]+)|([0-9])/([0-9]{1,2}))SM$`)
	visWholeRe  = regexp.MustCompile(`^[0-9]$`)
	visMetersRe = regexp.MustCompile(`^[0-9]{4}$`)
	rvrRe       = regexp.MustCompile(`^R[0-9]{2}[LRC]?/`)
	wxRe        = regexp.MustCompile(`^(-|\+|VC)?(MI|PR|BC|DR|BL|SH|TS|FZ)?((?:DZ|RA|SN|SG|IC|PL|GR|GS|UP|BR|FG|FU|VA|DU|SA|HZ|PY|PO|SQ|FC|SS|DS)*)$`)
	skyRe       = regexp.MustCompile(`^(SKC|CLR|NSC|NCD|FEW|SCT|BKN|OVC|VV)([0-9]{3}|///)?(CB|TCU|///)?$`)
	tempRe      = regexp.MustCompile(`^(M?[0-9]{2})/(M?[0-9]{2})?$`)
	altRe       = regexp.MustCompile(`^A([0-9]{4})$`)
	qnhRe       = regexp.MustCompile(`^Q([0-9]{4})$`)
)

// hpaToInHg converts hectopascals to inches of mercury.
const hpaToInHg = 0.0295299830714

// mpsToKnots converts meters per second to knots.
const mpsToKnots = 1.94384

var ignoredGroups = map[string]bool{
	"NOSIG": true, "CAVOK": true, "$": true, "/////": true, "//": true, "////": true,
}

// Parse decodes one report. ref anchors the day-of-month timestamp.
func Parse(raw string, ref time.Time) (*Report, error) {
	text := patterns.CollapseSpace(strings.TrimRight(strings.TrimSpace(raw), "="))
	r := &Report{Raw: text, Kind: "METAR"}

	body, rmk, _ := strings.Cut(text+" ", " RMK ")
	tokens := strings.Fields(body)
	r.Remarks = strings.TrimSpace(rmk)

	i := 0
	for i < len(tokens) && (tokens[i] == "METAR" || tokens[i] == "SPECI" || tokens[i] == "COR") {
		switch tokens[i] {
		case "SPECI":
			r.Kind = "SPECI"
		case "COR":
			r.Correction = true
		}
		i++
	}
	if i >= len(tokens) || !stationRe.MatchString(tokens[i]) {
		return nil, ErrNoStation
	}
	r.Station = tokens[i]
	i++
	if i < len(tokens) {
		if m := timeRe.FindStringSubmatch(tokens[i]); m != nil {
			r.Time = resolveDay(m, ref)
			i++
		}
	}

	var unparsed []string
	for ; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "AUTO":
			r.Auto = true
		case tok == "COR":
			r.Correction = true
		case tok == "NIL":
			r.Nil = true
		case ignoredGroups[tok], rvrRe.MatchString(tok), varyRe.MatchString(tok):
		case windRe.MatchString(tok):
			r.parseWind(windRe.FindStringSubmatch(tok))
		case visWholeRe.MatchString(tok) && i+1 < len(tokens) && visRe.MatchString(tokens[i+1]):
			whole, _ := strconv.Atoi(tok)
			r.parseVisibility(visRe.FindStringSubmatch(tokens[i+1]))
			if r.Visibility != nil {
				v := *r.Visibility + float64(whole)
				r.Visibility = &v
			}
			i++
		case visRe.MatchString(tok):
			r.parseVisibility(visRe.FindStringSubmatch(tok))
		case visMetersRe.MatchString(tok) && r.Visibility == nil:
			m, _ := strconv.Atoi(tok)
			v := patterns.Round(float64(m)/1609.344, 2)
			r.Visibility = &v
		case skyRe.MatchString(tok):
			r.Sky = append(r.Sky, parseSky(skyRe.FindStringSubmatch(tok)))
		case tempRe.MatchString(tok):
			m := tempRe.FindStringSubmatch(tok)
			r.Temp = signedM(m[1])
			r.Dewpoint = signedM(m[2])
		case altRe.MatchString(tok):
			v, _ := strconv.Atoi(altRe.FindStringSubmatch(tok)[1])
			r.Altimeter = patterns.Float(float64(v) / 100)
		case qnhRe.MatchString(tok):
			v, _ := strconv.Atoi(qnhRe.FindStringSubmatch(tok)[1])
			r.Altimeter = patterns.Float(patterns.Round(float64(v)*hpaToInHg, 2))
		case isWeather(tok):
			r.Weather = append(r.Weather, tok)
		default:
			unparsed = append(unparsed, tok)
		}
	}
	if len(unparsed) > 0 {
		return nil, &ParserError{Raw: text, Unparsed: unparsed}
	}
	if r.Remarks != "" {
		r.parseRemarks(strings.Fields(r.Remarks))
	}
	return r, nil
}

// resolveDay places DDHHMM in the month of ref, stepping back a month when
// the day has not happened yet.
func resolveDay(m []string, ref time.Time) time.Time {
	day, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[2])
	minute, _ := strconv.Atoi(m[3])
	ref = ref.UTC()
	t := time.Date(ref.Year(), ref.Month(), day, hour, minute, 0, 0, time.UTC)
	if day > ref.Day()+1 {
		t = time.Date(ref.Year(), ref.Month()-1, day, hour, minute, 0, 0, time.UTC)
	}
	return t
}

func (r *Report) parseWind(m []string) {
	switch m[1] {
	case "VRB":
		r.WindDir = patterns.Int(patterns.VariableWind)
	case "///":
	default:
		d, _ := strconv.Atoi(m[1])
		r.WindDir = &d
	}
	scale := 1.0
	if m[4] == "MPS" {
		scale = mpsToKnots
	}
	if m[2] != "//" {
		s, _ := strconv.Atoi(m[2])
		s = int(float64(s)*scale + 0.5)
		r.WindSpeed = &s
	}
	if m[3] != "" {
		g, _ := strconv.Atoi(m[3])
		g = int(float64(g)*scale + 0.5)
		r.WindGust = &g
	}
}

func (r *Report) parseVisibility(m []string) {
	var v float64
	if m[2] != "" {
		n, _ := strconv.Atoi(m[2])
		v = float64(n)
	} else {
		num, _ := strconv.Atoi(m[3])
		den, _ := strconv.Atoi(m[4])
		if den == 0 {
			return
		}
		v = float64(num) / float64(den)
	}
	r.Visibility = &v
}

func parseSky(m []string) SkyLayer {
	l := SkyLayer{Cover: m[1]}
	if m[2] != "" && m[2] != "///" {
		h, _ := strconv.Atoi(m[2])
		h *= 100
		l.BaseFt = &h
	}
	if m[3] != "///" {
		l.Type = m[3]
	}
	return l
}

func isWeather(tok string) bool {
	m := wxRe.FindStringSubmatch(tok)
	if m == nil {
		return false
	}
	// A bare intensity or vicinity prefix is not a weather group.
	return m[2] != "" || m[3] != ""
}

// signedM parses the M-prefixed negative integers of the temperature group.
func signedM(s string) *float64 {
	if s == "" {
		return nil
	}
	neg := strings.HasPrefix(s, "M")
	v, err := strconv.Atoi(strings.TrimPrefix(s, "M"))
	if err != nil {
		return nil
	}
	f := float64(v)
	if neg {
		f = -f
	}
	return &f
}
