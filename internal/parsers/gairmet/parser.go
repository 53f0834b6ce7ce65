// Package gairmet decodes graphical AIRMETs, which arrive as GML documents
// wrapped in a text product.
package gairmet

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

// featureCollection is the root of the GML document.
type featureCollection struct {
	XMLName xml.Name        `xml:"FeatureCollection"`
	Members []featureMember `xml:"featureMember"`
}

type featureMember struct {
	Airmet *airmetXML `xml:"GAIRMET"`
}

type airmetXML struct {
	ID        string      `xml:"id,attr"`
	IssueTime string      `xml:"issueTime>TimeInstant>timePosition"`
	ValidTime string      `xml:"validTime>TimeInstant>timePosition"`
	Hazard    hazardXML   `xml:"hazard"`
	Altitude  altitudeXML `xml:"altitude"`
	DueTo     string      `xml:"dueTo"`
	PosList   string      `xml:"geometry>Polygon>exterior>LinearRing>posList"`
	LinePos   string      `xml:"geometry>LineString>posList"`
}

type hazardXML struct {
	Type     string `xml:"type,attr"`
	Severity string `xml:"severity,attr"`
}

type altitudeXML struct {
	Bottom string `xml:"bottom,attr"`
	Top    string `xml:"top,attr"`
}

// Airmet is one hazard area at one forecast hour.
type Airmet struct {
	Label    string         `json:"label"`
	Hazard   string         `json:"hazard"`
	Severity string         `json:"severity,omitempty"`
	Issued   time.Time      `json:"issue"`
	Valid    time.Time      `json:"valid"`
	BaseFt   *int           `json:"base_ft,omitempty"`
	TopFt    *int           `json:"top_ft,omitempty"`
	DueTo    string         `json:"due_to,omitempty"`
	Polygon  orb.Polygon    `json:"geom,omitempty"`
	Line     orb.LineString `json:"line,omitempty"`
}

// Result holds every G-AIRMET of a product.
type Result struct {
	*nws.TextProduct
	Airmets []Airmet `json:"airmets"`
}

func (r *Result) Type() string           { return "gairmet" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes G-AIRMET products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "gairmet" }
func (p *Parser) Prefixes() []string    { return []string{"GMT"} }
func (p *Parser) WMOPrefixes() []string { return []string{"LWUS"} }
func (p *Parser) Priority() int         { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "GAIRMET")
}

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	start := strings.Index(prod.Text, "<")
	if start < 0 {
		return nil, nil
	}
	var doc featureCollection
	if err := xml.Unmarshal([]byte(prod.Text[start:]), &doc); err != nil {
		return nil, fmt.Errorf("%w: G-AIRMET XML: %v", nws.ErrInvalidEnvelope, err)
	}

	res := &Result{TextProduct: prod}
	for _, m := range doc.Members {
		if m.Airmet == nil {
			continue
		}
		a, err := convert(m.Airmet)
		if err != nil {
			prod.AddWarning(err)
			continue
		}
		res.Airmets = append(res.Airmets, a)
	}
	if len(res.Airmets) == 0 {
		return nil, nil
	}
	return res, nil
}

func convert(x *airmetXML) (Airmet, error) {
	a := Airmet{
		Label:    x.ID,
		Hazard:   x.Hazard.Type,
		Severity: x.Hazard.Severity,
		DueTo:    strings.TrimSpace(x.DueTo),
	}
	var err error
	if a.Issued, err = time.Parse(time.RFC3339, strings.TrimSpace(x.IssueTime)); err != nil {
		return a, fmt.Errorf("%w: G-AIRMET %s issue time %q", nws.ErrInvalidTimestamp, x.ID, x.IssueTime)
	}
	if a.Valid, err = time.Parse(time.RFC3339, strings.TrimSpace(x.ValidTime)); err != nil {
		return a, fmt.Errorf("%w: G-AIRMET %s valid time %q", nws.ErrInvalidTimestamp, x.ID, x.ValidTime)
	}
	a.BaseFt = altitude(x.Altitude.Bottom)
	a.TopFt = altitude(x.Altitude.Top)

	switch {
	case strings.TrimSpace(x.PosList) != "":
		pts, err := posList(x.PosList)
		if err != nil {
			return a, fmt.Errorf("G-AIRMET %s: %w", x.ID, err)
		}
		ring := orb.Ring(pts)
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		if len(ring) < 4 {
			return a, fmt.Errorf("%w: G-AIRMET %s ring has %d vertices", nws.ErrInvalidGeometry, x.ID, len(ring))
		}
		a.Polygon = orb.Polygon{ring}
	case strings.TrimSpace(x.LinePos) != "":
		pts, err := posList(x.LinePos)
		if err != nil {
			return a, fmt.Errorf("G-AIRMET %s: %w", x.ID, err)
		}
		a.Line = orb.LineString(pts)
	default:
		return a, fmt.Errorf("%w: G-AIRMET %s has no geometry", nws.ErrInvalidGeometry, x.ID)
	}
	return a, nil
}

// altitude decodes flight levels ("FL180"), "SFC" and plain feet.
func altitude(s string) *int {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil
	case s == "SFC":
		v := 0
		return &v
	case strings.HasPrefix(s, "FL"):
		v, err := strconv.Atoi(s[2:])
		if err != nil {
			return nil
		}
		v *= 100
		return &v
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// posList decodes a GML lat/lon pair list.
func posList(s string) ([]orb.Point, error) {
	f := strings.Fields(s)
	if len(f)%2 != 0 || len(f) < 4 {
		return nil, fmt.Errorf("%w: posList with %d values", nws.ErrInvalidGeometry, len(f))
	}
	pts := make([]orb.Point, 0, len(f)/2)
	for i := 0; i < len(f); i += 2 {
		lat, err1 := strconv.ParseFloat(f[i], 64)
		lon, err2 := strconv.ParseFloat(f[i+1], 64)
		if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon <= -180 || lon > 180 {
			return nil, fmt.Errorf("%w: posList pair %s %s", nws.ErrInvalidGeometry, f[i], f[i+1])
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts, nil
}
