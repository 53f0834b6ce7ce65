// Package hml decodes Hydrologic Markup Language products: per site
// observed and forecast stage/flow series.
package hml

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

type siteXML struct {
	ID             string     `xml:"id,attr"`
	Name           string     `xml:"name,attr"`
	Originator     string     `xml:"originator,attr"`
	GenerationTime string     `xml:"generationtime,attr"`
	Observed       *seriesXML `xml:"observed"`
	Forecast       *seriesXML `xml:"forecast"`
}

type seriesXML struct {
	Issued string     `xml:"issued,attr"`
	Data   []datumXML `xml:"datum"`
}

type datumXML struct {
	Valid     string       `xml:"valid"`
	Primary   *quantityXML `xml:"primary"`
	Secondary *quantityXML `xml:"secondary"`
}

type quantityXML struct {
	Name  string `xml:"name,attr"`
	Units string `xml:"units,attr"`
	Value string `xml:",chardata"`
}

// Quantity is one value with its label and units.
type Quantity struct {
	Name  string   `json:"name"`
	Units string   `json:"units"`
	Value *float64 `json:"value"`
}

// Datum is one time step.
type Datum struct {
	Valid     time.Time `json:"valid"`
	Primary   *Quantity `json:"primary,omitempty"`
	Secondary *Quantity `json:"secondary,omitempty"`
}

// Series is the observed or forecast block of a site.
type Series struct {
	Issued *time.Time `json:"issued,omitempty"`
	Data   []Datum    `json:"data"`
}

// Site is one <site> document.
type Site struct {
	ID         string    `json:"station"`
	Name       string    `json:"name"`
	Originator string    `json:"originator"`
	Generated  time.Time `json:"generationtime"`
	Observed   *Series   `json:"observed,omitempty"`
	Forecast   *Series   `json:"forecast,omitempty"`
}

// Result holds every site of a product.
type Result struct {
	*nws.TextProduct
	Sites []Site `json:"sites"`
}

func (r *Result) Type() string           { return "hml" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes HML products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "hml" }
func (p *Parser) Prefixes() []string { return []string{"HML"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "<site")
}

var siteRe = regexp.MustCompile(`(?s)<site\b.*?</site>`)

// hmlMissing is the value HML writers use for absent quantities.
const hmlMissing = -999

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	for _, block := range siteRe.FindAllString(prod.Text, -1) {
		var x siteXML
		if err := xml.Unmarshal([]byte(block), &x); err != nil {
			prod.Warn(nws.ErrInvalidEnvelope, "HML site: %v", err)
			continue
		}
		site := Site{ID: x.ID, Name: x.Name, Originator: x.Originator}
		if t, err := parseTime(x.GenerationTime); err == nil {
			site.Generated = t
		} else {
			site.Generated = prod.Valid
		}
		site.Observed = convertSeries(prod, x.ID, x.Observed)
		site.Forecast = convertSeries(prod, x.ID, x.Forecast)
		res.Sites = append(res.Sites, site)
	}
	if len(res.Sites) == 0 {
		return nil, nil
	}
	return res, nil
}

func convertSeries(prod *nws.TextProduct, id string, x *seriesXML) *Series {
	if x == nil {
		return nil
	}
	s := &Series{}
	if x.Issued != "" {
		if t, err := parseTime(x.Issued); err == nil {
			s.Issued = &t
		}
	}
	for _, d := range x.Data {
		valid, err := parseTime(d.Valid)
		if err != nil {
			prod.Warn(nws.ErrInvalidTimestamp, "HML %s valid %q", id, d.Valid)
			continue
		}
		s.Data = append(s.Data, Datum{
			Valid:     valid,
			Primary:   convertQuantity(d.Primary),
			Secondary: convertQuantity(d.Secondary),
		})
	}
	return s
}

func convertQuantity(q *quantityXML) *Quantity {
	if q == nil {
		return nil
	}
	out := &Quantity{Name: q.Name, Units: q.Units}
	if v, err := strconv.ParseFloat(strings.TrimSpace(q.Value), 64); err == nil && v > hmlMissing {
		out.Value = &v
	}
	return out
}

// parseTime accepts the "-00:00" offsets HML writers emit.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", nws.ErrInvalidTimestamp, s)
}
