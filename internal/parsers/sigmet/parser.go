// Package sigmet decodes convective, domestic and international SIGMETs
// issued by the Aviation Weather Center and the oceanic centers.
package sigmet

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"nws_parser/internal/geo"
	"nws_parser/internal/geometry"
	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Class distinguishes the three SIGMET families.
type Class string

const (
	Convective    Class = "convective"
	Domestic      Class = "domestic"
	International Class = "international"
)

// Sigmet is one decoded advisory.
type Sigmet struct {
	Class      Class            `json:"class"`
	Label      string           `json:"label"`
	Issuer     string           `json:"issuer,omitempty"`
	FIR        string           `json:"fir,omitempty"`
	Start      time.Time        `json:"sts"`
	End        time.Time        `json:"ets"`
	States     []string         `json:"states,omitempty"`
	Kind       string           `json:"kind,omitempty"`
	WidthNM    int              `json:"width_nm,omitempty"`
	Geometry   orb.MultiPolygon `json:"geom,omitempty"`
	Phenomenon string           `json:"phenomenon,omitempty"`
	BaseFL     *int             `json:"base_fl,omitempty"`
	TopFL      *int             `json:"top_fl,omitempty"`
	MoveDir    *int             `json:"move_drct,omitempty"`
	MoveKt     *int             `json:"move_sknt,omitempty"`
	Raw        string           `json:"raw"`
}

// Result holds every SIGMET of a product.
type Result struct {
	*nws.TextProduct
	Sigmets []Sigmet `json:"sigmets"`
}

func (r *Result) Type() string           { return "sigmet" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes SIGMET products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "sigmet" }
func (p *Parser) Prefixes() []string    { return []string{"SIG"} }
func (p *Parser) WMOPrefixes() []string { return []string{"WS"} }
func (p *Parser) Priority() int         { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "SIGMET")
}

var (
	convectiveRe = regexp.MustCompile(`CONVECTIVE SIGMET\s+([0-9]+[CEW])\b`)
	outlookRe    = regexp.MustCompile(`(?m)^OUTLOOK VALID`)
	untilHHMMRe  = regexp.MustCompile(`VALID UNTIL ([0-9]{4})Z`)
	domesticRe   = regexp.MustCompile(`SIGMET ([A-Z]+ [0-9]+) VALID UNTIL ([0-9]{6})`)

	// Example: KZWY SIGMET ALFA 1 VALID 101200/101600 KKCI-
	// NEW YORK OCEANIC FIR EMBD TS OBS AT 1145Z WI N3500 W06500 - N3600 W06300 ...
	internationalRe = regexp.MustCompile(`(?s)(?:([A-Z]{4})\s+)?SIGMET\s+([A-Z]+\s+[0-9]+|\w+)\s+VALID\s+([0-9]{6})/([0-9]{6})\s+([A-Z]{4})-\s*(.+?)\s+(?:FIR|CTA|UIR)(?:/UIR)?\s+(.+?)(?:=|$)`)

	altRe     = regexp.MustCompile(`FL([0-9]{3})/([0-9]{3})|(?:TOP|TOPS TO|TOPS ABV|TOPS TO ABV)\s+FL([0-9]{3})|SFC/FL([0-9]{3})|BTN FL([0-9]{3}) AND FL([0-9]{3})`)
	moveFrom  = regexp.MustCompile(`MOV FROM ([0-9]{3})([0-9]{2,3})KT`)
	moveToRe  = regexp.MustCompile(`MOV ([NESW]{1,3}) ([0-9]+)KT`)
	diamRe    = regexp.MustCompile(`\bD([0-9]+)\b`)
	widthRe   = regexp.MustCompile(`([0-9]+) NM WIDE`)
	statesRe  = regexp.MustCompile(`^(?:[A-Z]{2}\s*)+$`)
	coordRe   = regexp.MustCompile(`([NS])([0-9]{2})([0-9]{2})?\s*([EW])([0-9]{3})([0-9]{2})?`)
	circleRe  = regexp.MustCompile(`WI ([0-9]+)\s?NM OF ([NS][0-9]{2,4}\s*[EW][0-9]{3,5})`)
	coordsRe  = regexp.MustCompile(`WI ((?:[NS][0-9]{2,4}\s*[EW][0-9]{3,5}\s*-?\s*)+)`)
	isolKinds = map[string]bool{"AREA": true, "LINE": true, "ISOL": true}
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	switch {
	case convectiveRe.MatchString(prod.Text):
		res.Sigmets = parseConvective(prod, opts)
	case domesticRe.MatchString(prod.Text):
		res.Sigmets = parseDomestic(prod, opts)
	default:
		res.Sigmets = parseInternational(prod)
	}
	if len(res.Sigmets) == 0 {
		return nil, nil
	}
	return res, nil
}

// sections cuts text at every match of re, ending the last at stop.
func sections(text string, re *regexp.Regexp, stop *regexp.Regexp) []string {
	if loc := stop.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	idx := re.FindAllStringIndex(text, -1)
	out := make([]string, 0, len(idx))
	for i, loc := range idx {
		end := len(text)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		out = append(out, strings.TrimSpace(text[loc[0]:end]))
	}
	return out
}

// untilTime places HHMM on or after the product issuance.
func untilTime(hhmm string, issued time.Time) time.Time {
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[2:])
	t := time.Date(issued.Year(), issued.Month(), issued.Day(), h, m, 0, 0, time.UTC)
	if t.Before(issued) {
		t = t.Add(24 * time.Hour)
	}
	return t
}

func parseConvective(prod *nws.TextProduct, opts nws.Options) []Sigmet {
	var out []Sigmet
	for _, sec := range sections(prod.Text, convectiveRe, outlookRe) {
		lines := strings.Split(sec, "\n")
		label := convectiveRe.FindStringSubmatch(lines[0])[1]
		if strings.Contains(sec, "NONE") && len(lines) < 3 {
			continue
		}
		s := Sigmet{Class: Convective, Label: label, Start: prod.Valid, Raw: sec}
		if m := untilHHMMRe.FindStringSubmatch(sec); m != nil {
			s.End = untilTime(m[1], prod.Valid)
		} else {
			prod.Warn(nws.ErrInvalidTimestamp, "convective SIGMET %s without VALID UNTIL", label)
			continue
		}

		var location string
		var body []string
		for _, line := range lines[1:] {
			line = strings.TrimSpace(line)
			switch {
			case line == "" || strings.HasPrefix(line, "VALID UNTIL"):
			case s.States == nil && location == "" && statesRe.MatchString(line):
				s.States = strings.Fields(line)
			case location == "" && (strings.HasPrefix(line, "FROM ") || geo.IsOffsetPoint(line)):
				location = strings.TrimPrefix(line, "FROM ")
			default:
				body = append(body, line)
			}
		}
		text := patterns.CollapseSpace(strings.Join(body, " "))
		s.Phenomenon = strings.TrimSuffix(text, ".")
		if f := strings.Fields(text); len(f) > 0 && isolKinds[f[0]] {
			s.Kind = f[0]
		}
		applyAltitude(&s, text)
		applyMovement(&s, text)

		pts, err := geo.OffsetPoints(opts.Stations, strings.Split(location, "-"), geo.NauticalMile)
		if err != nil {
			prod.Warn(nws.ErrUnknownCode, "convective SIGMET %s: %v", label, err)
			out = append(out, s)
			continue
		}
		switch {
		case s.Kind == "ISOL" || len(pts) == 1:
			s.Kind = "ISOL"
			d := 10
			if m := diamRe.FindStringSubmatch(text); m != nil {
				d, _ = strconv.Atoi(m[1])
			}
			s.WidthNM = d
			s.Geometry = orb.MultiPolygon{geo.Circle(pts[0], float64(d)/2*geo.NauticalMile)}
		case s.Kind == "LINE":
			if m := widthRe.FindStringSubmatch(text); m != nil {
				s.WidthNM, _ = strconv.Atoi(m[1])
			}
			g, err := geometry.Buffer(orb.LineString(pts), float64(s.WidthNM)/2/60)
			if err != nil {
				prod.Warn(nws.ErrInvalidGeometry, "convective SIGMET %s line: %v", label, err)
			}
			s.Geometry = g
		default:
			s.Kind = "AREA"
			s.Geometry = orb.MultiPolygon{{geo.CloseRing(pts)}}
		}
		out = append(out, s)
	}
	return out
}

func parseDomestic(prod *nws.TextProduct, opts nws.Options) []Sigmet {
	var out []Sigmet
	for _, sec := range sections(prod.Text, domesticRe, outlookRe) {
		m := domesticRe.FindStringSubmatch(sec)
		s := Sigmet{Class: Domestic, Label: m[1], Start: prod.Valid, Raw: sec}
		end, err := nws.ResolveDDHHMM(m[2], prod.Valid)
		if err != nil {
			prod.AddWarning(err)
			continue
		}
		s.End = end

		var location string
		var body []string
		for _, line := range strings.Split(sec, "\n")[1:] {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case s.States == nil && location == "" && statesRe.MatchString(line):
				s.States = strings.Fields(line)
			case location == "" && strings.HasPrefix(line, "FROM "):
				location = strings.TrimPrefix(line, "FROM ")
			default:
				body = append(body, line)
			}
		}
		text := patterns.CollapseSpace(strings.Join(body, " "))
		s.Phenomenon = firstSentence(text)
		applyAltitude(&s, text)
		applyMovement(&s, text)

		pts, err := geo.OffsetPoints(opts.Stations, strings.Split(location, " TO "), geo.NauticalMile)
		if err != nil {
			prod.Warn(nws.ErrUnknownCode, "SIGMET %s: %v", s.Label, err)
		} else if len(pts) >= 3 {
			s.Kind = "AREA"
			s.Geometry = orb.MultiPolygon{{geo.CloseRing(pts)}}
		}
		out = append(out, s)
	}
	return out
}

func parseInternational(prod *nws.TextProduct) []Sigmet {
	var out []Sigmet
	for _, m := range internationalRe.FindAllStringSubmatch(prod.Text, -1) {
		s := Sigmet{
			Class:  International,
			Label:  patterns.CollapseSpace(m[2]),
			Issuer: m[1],
			FIR:    patterns.CollapseSpace(m[6]),
			Raw:    strings.TrimSpace(m[0]),
		}
		if s.Issuer == "" {
			s.Issuer = m[5]
		}
		var err error
		if s.Start, err = nws.ResolveDDHHMM(m[3], prod.Valid); err != nil {
			prod.AddWarning(err)
			continue
		}
		if s.End, err = nws.ResolveDDHHMM(m[4], prod.Valid); err != nil {
			prod.AddWarning(err)
			continue
		}

		body := patterns.CollapseSpace(m[7])
		for _, marker := range []string{" WI ", " OBS ", " FCST "} {
			if idx := strings.Index(" "+body, marker); idx > 0 {
				s.Phenomenon = strings.TrimSpace(body[:idx-1])
				break
			}
		}
		applyAltitude(&s, body)
		applyMovement(&s, body)

		if cm := circleRe.FindStringSubmatch(body); cm != nil {
			r, _ := strconv.Atoi(cm[1])
			if pt, ok := parseCoord(cm[2]); ok {
				s.Kind, s.WidthNM = "ISOL", 2*r
				s.Geometry = orb.MultiPolygon{geo.Circle(pt, float64(r)*geo.NauticalMile)}
			}
		} else if wm := coordsRe.FindStringSubmatch(body); wm != nil {
			var pts []orb.Point
			for _, c := range coordRe.FindAllString(wm[1], -1) {
				if pt, ok := parseCoord(c); ok {
					pts = append(pts, pt)
				}
			}
			if len(pts) >= 3 {
				s.Kind = "AREA"
				s.Geometry = orb.MultiPolygon{{geo.CloseRing(pts)}}
			} else {
				prod.Warn(nws.ErrInvalidGeometry, "SIGMET %s has %d vertices", s.Label, len(pts))
			}
		}
		out = append(out, s)
	}
	return out
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i > 0 {
		return s[:i]
	}
	return strings.TrimSuffix(s, ".")
}

func applyAltitude(s *Sigmet, text string) {
	m := altRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	switch {
	case m[1] != "":
		s.BaseFL, s.TopFL = patterns.ParseInt(m[1]), patterns.ParseInt(m[2])
	case m[3] != "":
		s.TopFL = patterns.ParseInt(m[3])
	case m[4] != "":
		s.BaseFL, s.TopFL = patterns.Int(0), patterns.ParseInt(m[4])
	case m[5] != "":
		s.BaseFL, s.TopFL = patterns.ParseInt(m[5]), patterns.ParseInt(m[6])
	}
}

// applyMovement records the direction the system moves from.
func applyMovement(s *Sigmet, text string) {
	if m := moveFrom.FindStringSubmatch(text); m != nil {
		s.MoveDir, s.MoveKt = patterns.ParseInt(m[1]), patterns.ParseInt(m[2])
		return
	}
	if m := moveToRe.FindStringSubmatch(text); m != nil {
		if deg, ok := geo.CompassToDegrees(m[1]); ok {
			s.MoveDir = patterns.Int((int(deg) + 180) % 360)
			s.MoveKt = patterns.ParseInt(m[2])
		}
		return
	}
	if strings.Contains(text, "STNR") || strings.Contains(text, "MOV LTL") {
		s.MoveKt = patterns.Int(0)
	}
}

func parseCoord(s string) (orb.Point, bool) {
	m := coordRe.FindStringSubmatch(s)
	if m == nil {
		return orb.Point{}, false
	}
	lat, ok1 := patterns.ParseLatitude(m[2]+m[3], m[1])
	lon, ok2 := patterns.ParseLongitude(m[5]+m[6], m[4])
	if !ok1 || !ok2 {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}
