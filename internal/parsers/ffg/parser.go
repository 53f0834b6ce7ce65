// Package ffg decodes flash flood guidance. The guidance is a SHEF .B
// table of PP forecasts keyed by UGC, one column per accumulation window.
package ffg

import (
	"sort"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/parsers/shef"
	"nws_parser/internal/registry"
)

// Guidance is the rainfall (inches) needed to cause flooding in each
// window for one zone or county.
type Guidance struct {
	UGC    string    `json:"ugc"`
	Valid  time.Time `json:"valid"`
	Hour1  *float64  `json:"hour01,omitempty"`
	Hour3  *float64  `json:"hour03,omitempty"`
	Hour6  *float64  `json:"hour06,omitempty"`
	Hour12 *float64  `json:"hour12,omitempty"`
	Hour24 *float64  `json:"hour24,omitempty"`
}

// Result holds every guidance row of a product in UGC order.
type Result struct {
	*nws.TextProduct
	Guidance []Guidance `json:"guidance"`
}

func (r *Result) Type() string           { return "ffg" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes FFG products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "ffg" }
func (p *Parser) Prefixes() []string { return []string{"FFG"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, ".B")
}

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	decoded, err := shef.Decode(prod)
	if err != nil || decoded == nil {
		return nil, err
	}
	rows := map[string]*Guidance{}
	for _, el := range decoded.(*shef.Result).Elements {
		if el.PhysicalElement != "PP" {
			continue
		}
		if _, err := nws.ParseUGC(el.Station); err != nil {
			prod.Warn(nws.ErrUnknownCode, "FFG location %s is not a UGC", el.Station)
			continue
		}
		g, ok := rows[el.Station]
		if !ok {
			g = &Guidance{UGC: el.Station, Valid: el.Valid}
			rows[el.Station] = g
		}
		switch el.Duration {
		case "H":
			g.Hour1 = el.NumValue
		case "T":
			g.Hour3 = el.NumValue
		case "Q":
			g.Hour6 = el.NumValue
		case "K":
			g.Hour12 = el.NumValue
		case "D":
			g.Hour24 = el.NumValue
		default:
			prod.Warn(nws.ErrUnknownCode, "FFG duration %s for %s", el.Duration, el.Station)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	res := &Result{TextProduct: prod}
	for _, g := range rows {
		res.Guidance = append(res.Guidance, *g)
	}
	sort.Slice(res.Guidance, func(i, j int) bool { return res.Guidance[i].UGC < res.Guidance[j].UGC })
	return res, nil
}
