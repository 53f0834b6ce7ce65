// Package xteus decodes the national high and low temperature product,
// which carries its table as an XML document.
package xteus

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

type documentXML struct {
	XMLName xml.Name    `xml:"HighLow"`
	Date    string      `xml:"date,attr"`
	Records []recordXML `xml:"record"`
}

type recordXML struct {
	Kind  string `xml:"type,attr"`
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	State string `xml:"state,attr"`
	Value string `xml:"value,attr"`
}

// Kind separates national maxima from minima.
type Kind string

const (
	KindHigh Kind = "max"
	KindLow  Kind = "min"
)

// Record is one extreme station reading.
type Record struct {
	Kind    Kind    `json:"kind"`
	Station string  `json:"station"`
	Name    string  `json:"name"`
	State   string  `json:"state"`
	ValueF  float64 `json:"value"`
}

// Result is the day's national extremes.
type Result struct {
	*nws.TextProduct
	Date    time.Time `json:"date"`
	Records []Record  `json:"records"`
}

func (r *Result) Type() string           { return "xteus" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Notifications announces the first high and the first low.
func (r *Result) Notifications() []nws.Notification {
	var parts []string
	for _, k := range []Kind{KindHigh, KindLow} {
		for _, rec := range r.Records {
			if rec.Kind == k {
				label := "High"
				if k == KindLow {
					label = "Low"
				}
				parts = append(parts, fmt.Sprintf("%s %.0fF at %s, %s", label, rec.ValueF, rec.Name, rec.State))
				break
			}
		}
	}
	if len(parts) == 0 {
		return nil
	}
	plain := fmt.Sprintf("National extremes for %s: %s", r.Date.Format("2 Jan 2006"), strings.Join(parts, "; "))
	return []nws.Notification{nws.NewNotification(plain, plain, []string{"XTEUS"}, r.ProductID())}
}

// Parser decodes XTEUS products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "xteus" }
func (p *Parser) Prefixes() []string { return []string{"XTE"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "<HighLow")
}

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	start := strings.Index(prod.Text, "<")
	if start < 0 {
		return nil, nil
	}
	var doc documentXML
	if err := xml.Unmarshal([]byte(prod.Text[start:]), &doc); err != nil {
		return nil, fmt.Errorf("%w: XTEUS XML: %v", nws.ErrInvalidEnvelope, err)
	}
	res := &Result{TextProduct: prod}
	if d, err := time.Parse("2006-01-02", strings.TrimSpace(doc.Date)); err == nil {
		res.Date = d
	} else {
		prod.Warn(nws.ErrInvalidTimestamp, "XTEUS date %q", doc.Date)
		y, m, day := prod.Valid.Date()
		res.Date = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	for _, x := range doc.Records {
		kind := Kind(strings.ToLower(strings.TrimSpace(x.Kind)))
		if kind != KindHigh && kind != KindLow {
			prod.Warn(nws.ErrUnknownCode, "XTEUS record type %q", x.Kind)
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(x.Value), 64)
		if err != nil {
			prod.Warn(nws.ErrOutOfBounds, "XTEUS %s value %q", x.ID, x.Value)
			continue
		}
		res.Records = append(res.Records, Record{
			Kind:    kind,
			Station: strings.TrimSpace(x.ID),
			Name:    strings.TrimSpace(x.Name),
			State:   strings.TrimSpace(x.State),
			ValueF:  v,
		})
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	return res, nil
}
