// Package cwa decodes Center Weather Advisories issued by the CWSUs.
package cwa

import (
	"fmt"
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

// Advisory is one decoded CWA.
type Advisory struct {
	Center    string           `json:"center"`
	Sequence  int              `json:"sequence"`
	Number    int              `json:"num"`
	Issued    time.Time        `json:"issue"`
	Expire    time.Time        `json:"expire"`
	Kind      string           `json:"kind"`
	WidthNM   int              `json:"width_nm,omitempty"`
	Narrative string           `json:"narrative"`
	TopFL     *int             `json:"top_fl,omitempty"`
	MoveDir   *int             `json:"move_drct,omitempty"`
	MoveKt    *int             `json:"move_sknt,omitempty"`
	Geometry  orb.MultiPolygon `json:"geom,omitempty"`
}

// Result is a decoded CWA product.
type Result struct {
	*nws.TextProduct
	Advisory Advisory `json:"cwa"`
}

func (r *Result) Type() string           { return "cwa" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Notifications announces the advisory on the center's channel.
func (r *Result) Notifications() []nws.Notification {
	a := r.Advisory
	plain := fmt.Sprintf("%s issues CWA %d till %s: %s", a.Center, a.Number, a.Expire.Format("1504Z"), nws.Clip(a.Narrative, 200))
	html := fmt.Sprintf("<p>%s issues <a href=\"%s\">CWA %d</a> till %s</p>", a.Center, r.ProductID(), a.Number, a.Expire.Format("1504Z"))
	return []nws.Notification{nws.NewNotification(plain, html, []string{"CWA", "CWA." + a.Center}, r.ProductID())}
}

// Parser decodes CWA products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "cwa" }
func (p *Parser) Prefixes() []string { return []string{"CWA"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return headerRe.MatchString(prod.Text)
}

var (
	// Example: ZMP1 CWA 101700
	issueRe  = regexp.MustCompile(`(?m)^([A-Z]{3})([0-9]) CWA ([0-9]{6})`)
	// Example: ZMP CWA 101 VALID UNTIL 101900
	headerRe = regexp.MustCompile(`(?m)^([A-Z]{3}) CWA ([0-9]{3}) VALID UNTIL ([0-9]{6})Z?`)
	diamRe   = regexp.MustCompile(`DIAM ([0-9]+)\s?NM`)
	widthRe  = regexp.MustCompile(`([0-9]+)\s?NM WIDE`)
	topsRe   = regexp.MustCompile(`TOPS? (?:TO |ABV )*FL([0-9]{3})`)
	moveRe   = regexp.MustCompile(`MOV FROM ([0-9]{3})([0-9]{2,3})KT`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	m := headerRe.FindStringSubmatchIndex(prod.Text)
	if m == nil {
		return nil, nil
	}
	text := prod.Text
	a := Advisory{Center: text[m[2]:m[3]], Issued: prod.Valid}
	a.Number, _ = strconv.Atoi(text[m[4]:m[5]])
	expire, err := nws.ResolveDDHHMM(text[m[6]:m[7]], prod.Valid)
	if err != nil {
		return nil, err
	}
	a.Expire = expire
	if im := issueRe.FindStringSubmatch(text); im != nil {
		a.Sequence, _ = strconv.Atoi(im[2])
		if t, err := nws.ResolveDDHHMM(im[3], prod.Valid); err == nil {
			a.Issued = t
		}
	}

	var location string
	var body []string
	for _, line := range strings.Split(text[m[1]:], "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "" || line == "=" || line == "$$":
		case location == "" && strings.HasPrefix(line, "FROM "):
			location = strings.TrimPrefix(line, "FROM ")
		case location == "" && len(body) == 0 && geo.IsOffsetPoint(line):
			location = line
		default:
			body = append(body, strings.TrimSuffix(line, "="))
		}
	}
	a.Narrative = patterns.CollapseSpace(strings.Join(body, " "))
	if tm := topsRe.FindStringSubmatch(a.Narrative); tm != nil {
		a.TopFL = patterns.ParseInt(tm[1])
	}
	if mm := moveRe.FindStringSubmatch(a.Narrative); mm != nil {
		a.MoveDir, a.MoveKt = patterns.ParseInt(mm[1]), patterns.ParseInt(mm[2])
	}

	pts, err := geo.OffsetPoints(opts.Stations, strings.Split(location, "-"), geo.NauticalMile)
	if err != nil {
		prod.Warn(nws.ErrUnknownCode, "CWA %s %d: %v", a.Center, a.Number, err)
	} else {
		a.Geometry, a.Kind, a.WidthNM = shape(prod, pts, a.Narrative)
	}
	return &Result{TextProduct: prod, Advisory: a}, nil
}

// shape builds the advisory area: a circle for DIAM, a buffered line for
// NM WIDE, otherwise a polygon.
func shape(prod *nws.TextProduct, pts []orb.Point, narrative string) (orb.MultiPolygon, string, int) {
	if dm := diamRe.FindStringSubmatch(narrative); dm != nil || len(pts) == 1 {
		d := 10
		if dm != nil {
			d, _ = strconv.Atoi(dm[1])
		}
		return orb.MultiPolygon{geo.Circle(pts[0], float64(d)/2*geo.NauticalMile)}, "ISOL", d
	}
	if wm := widthRe.FindStringSubmatch(narrative); wm != nil || len(pts) == 2 {
		w := 10
		if wm != nil {
			w, _ = strconv.Atoi(wm[1])
		}
		g, err := geometry.Buffer(orb.LineString(pts), float64(w)/2/60)
		if err != nil {
			prod.Warn(nws.ErrInvalidGeometry, "CWA line: %v", err)
		}
		return g, "LINE", w
	}
	return orb.MultiPolygon{{geo.CloseRing(pts)}}, "AREA", 0
}
