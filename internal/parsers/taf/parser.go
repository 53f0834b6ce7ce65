// Package taf decodes Terminal Aerodrome Forecasts.
package taf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/metar"
	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// AboveSixMiles is the visibility recorded for P6SM.
const AboveSixMiles = 6.01

// Forecast kinds.
const (
	KindObservation = "OB"
	KindFrom        = "FM"
	KindTempo       = "TEMPO"
	KindBecoming    = "BECMG"
	KindProbability = "PROB"
)

// Forecast is one period of a TAF.
type Forecast struct {
	Kind        string           `json:"kind"`
	Valid       time.Time        `json:"valid"`
	End         *time.Time       `json:"end_valid,omitempty"`
	WindDir     *int             `json:"sknt_drct,omitempty"`
	WindSpeed   *int             `json:"sknt,omitempty"`
	WindGust    *int             `json:"gust,omitempty"`
	Visibility  *float64         `json:"visibility,omitempty"`
	Weather     []string         `json:"presentwx,omitempty"`
	Sky         []metar.SkyLayer `json:"sky,omitempty"`
	ShearLevel  *int             `json:"ws_level,omitempty"`
	ShearDir    *int             `json:"ws_drct,omitempty"`
	ShearSpeed  *int             `json:"ws_sknt,omitempty"`
	Probability *int             `json:"prob,omitempty"`
	Raw         string           `json:"raw"`
}

// Report is one station's forecast.
type Report struct {
	Station     string     `json:"station"`
	Issued      time.Time  `json:"observation_time"`
	Valid       time.Time  `json:"valid"`
	End         time.Time  `json:"end_valid"`
	Amendment   bool       `json:"amendment,omitempty"`
	Observation Forecast   `json:"observation"`
	Forecasts   []Forecast `json:"forecasts"`
	Raw         string     `json:"raw"`
}

// Result is a decoded TAF product.
type Result struct {
	*nws.TextProduct
	Reports []Report `json:"reports"`
}

func (r *Result) Type() string           { return "taf" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes TAF products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "taf" }
func (p *Parser) Prefixes() []string    { return []string{"TAF"} }
func (p *Parser) WMOPrefixes() []string { return []string{"FT"} }
func (p *Parser) Priority() int         { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return headerRe.MatchString(prod.Text)
}

var (
	headerRe = regexp.MustCompile(`(?m)^\s*(?:TAF\s+)?(?:(AMD|COR)\s+)?([A-Z][A-Z0-9]{3})\s+([0-9]{6})Z\s+([0-9]{4})/([0-9]{4})\s`)
	periodRe = regexp.MustCompile(`^([0-9]{4})/([0-9]{4})$`)
	fromRe   = regexp.MustCompile(`^FM([0-9]{6})$`)
	probRe   = regexp.MustCompile(`^PROB([0-9]{2})$`)
	shearRe  = regexp.MustCompile(`^WS([0-9]{3})/([0-9]{3})([0-9]{2,3})KT$`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	locs := headerRe.FindAllStringSubmatchIndex(prod.Text, -1)
	for i, loc := range locs {
		end := len(prod.Text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		chunk := prod.Text[loc[0]:end]
		if j := strings.Index(chunk, "="); j >= 0 {
			chunk = chunk[:j]
		}
		rep, err := parseReport(patterns.CollapseSpace(chunk), prod.Valid)
		if err != nil {
			prod.AddWarning(err)
			continue
		}
		res.Reports = append(res.Reports, rep)
	}
	if len(res.Reports) == 0 {
		return nil, fmt.Errorf("%w: no decodable TAF", nws.ErrInvalidTimestamp)
	}
	return res, nil
}

func parseReport(text string, anchor time.Time) (Report, error) {
	rep := Report{Raw: text}
	tokens := strings.Fields(text)
	i := 0
	for i < len(tokens) && (tokens[i] == "TAF" || tokens[i] == "AMD" || tokens[i] == "COR") {
		if tokens[i] != "TAF" {
			rep.Amendment = true
		}
		i++
	}
	if i+2 >= len(tokens) {
		return rep, fmt.Errorf("%w: short TAF %q", nws.ErrInvalidTimestamp, text)
	}
	rep.Station = tokens[i]
	issued, err := nws.ResolveDDHHMM(strings.TrimSuffix(tokens[i+1], "Z"), anchor)
	if err != nil {
		return rep, err
	}
	rep.Issued = issued
	m := periodRe.FindStringSubmatch(tokens[i+2])
	if m == nil {
		return rep, fmt.Errorf("%w: TAF %s period %q", nws.ErrInvalidTimestamp, rep.Station, tokens[i+2])
	}
	if rep.Valid, rep.End, err = period(m[1], m[2], issued); err != nil {
		return rep, err
	}
	i += 3

	cur := &Forecast{Kind: KindObservation, Valid: rep.Valid}
	var raw []string
	flush := func() {
		cur.Raw = strings.Join(raw, " ")
		if cur.Kind == KindObservation {
			rep.Observation = *cur
		} else {
			rep.Forecasts = append(rep.Forecasts, *cur)
		}
		raw = nil
	}

	for ; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case fromRe.MatchString(tok):
			flush()
			from, err := dayHourMinute(fromRe.FindStringSubmatch(tok)[1], issued)
			if err != nil {
				return rep, err
			}
			cur = &Forecast{Kind: KindFrom, Valid: from}
		case tok == KindTempo || tok == KindBecoming || probRe.MatchString(tok):
			flush()
			cur = &Forecast{Kind: tok}
			if pm := probRe.FindStringSubmatch(tok); pm != nil {
				v, _ := strconv.Atoi(pm[1])
				cur.Kind, cur.Probability = KindProbability, &v
				// PROB30 TEMPO reads as one group.
				if i+1 < len(tokens) && tokens[i+1] == KindTempo {
					raw = append(raw, tok)
					i++
					tok = tokens[i]
					cur.Kind = KindTempo
				}
			}
			if i+1 < len(tokens) {
				if pm := periodRe.FindStringSubmatch(tokens[i+1]); pm != nil {
					start, end, err := period(pm[1], pm[2], issued)
					if err != nil {
						return rep, err
					}
					cur.Valid, cur.End = start, &end
					raw = append(raw, tok)
					i++
					tok = tokens[i]
				}
			}
		default:
			cur.decode(tok)
		}
		raw = append(raw, tok)
	}
	flush()
	return rep, nil
}

func (f *Forecast) decode(tok string) {
	if w, ok := metar.ParseWind(tok); ok {
		f.WindDir, f.WindSpeed, f.WindGust = w.Dir, w.Speed, w.Gust
		return
	}
	if v, prefix, ok := metar.ParseVisibility(tok); ok {
		if prefix == "P" && v >= 6 {
			v = AboveSixMiles
		}
		f.Visibility = &v
		return
	}
	if m := shearRe.FindStringSubmatch(tok); m != nil {
		lvl, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		f.ShearLevel, f.ShearDir, f.ShearSpeed = &lvl, &d, &s
		return
	}
	if l, ok := metar.ParseSky(tok); ok {
		f.Sky = append(f.Sky, l)
		return
	}
	if metar.IsWeather(tok) || tok == "NSW" {
		f.Weather = append(f.Weather, tok)
	}
}

// period resolves a DDHH/DDHH validity range.
func period(from, to string, issued time.Time) (time.Time, time.Time, error) {
	start, err := dayHourMinute(from+"00", issued)
	if err != nil {
		return start, start, err
	}
	end, err := dayHourMinute(to+"00", issued)
	return start, end, err
}

// dayHourMinute resolves a DDHHMM stamp near the issuance time, crossing
// month boundaries in either direction. Hour 24 rolls into the next day.
func dayHourMinute(ddhhmm string, issued time.Time) (time.Time, error) {
	if len(ddhhmm) == 6 && ddhhmm[2:4] == "24" {
		t, err := nws.ResolveDDHHMM(ddhhmm[:2]+"00"+ddhhmm[4:], issued)
		if err != nil {
			return t, err
		}
		return t.Add(24 * time.Hour), nil
	}
	return nws.ResolveDDHHMM(ddhhmm, issued)
}
