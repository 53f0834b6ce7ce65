// Package scp decodes the GOES satellite cloud product: per station cloud
// layers and effective cloud amount in METAR-like groups.
package scp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/metar"
	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

// Row is one station line.
type Row struct {
	Station string           `json:"station"`
	Valid   time.Time        `json:"valid"`
	ECA     *int             `json:"eca,omitempty"`
	Layers  []metar.SkyLayer `json:"layers"`
	Raw     string           `json:"raw"`
}

// Result holds every row of a product.
type Result struct {
	*nws.TextProduct
	Rows []Row `json:"rows"`
}

func (r *Result) Type() string           { return "scp" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes SCP products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "scp" }
func (p *Parser) Prefixes() []string { return []string{"SCP"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return rowRe.MatchString(prod.Text)
}

// rowRe matches "DSM 1715 ECA 23 SCT040 BKN120"; the ECA group is
// optional on clear rows.
var rowRe = regexp.MustCompile(`(?m)^([A-Z0-9]{3,4}) +([0-9]{4})Z? +(?:ECA *([0-9]{1,3}) +)?((?:(?:CLR|FEW|SCT|BKN|OVC)[0-9]{0,3} *)+)$`)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	for _, m := range rowRe.FindAllStringSubmatch(prod.Text, -1) {
		row := Row{Station: m[1], Raw: strings.TrimSpace(m[0])}
		valid, err := resolveHHMM(m[2], prod.Valid)
		if err != nil {
			prod.AddWarning(err)
			continue
		}
		row.Valid = valid
		if m[3] != "" {
			eca, _ := strconv.Atoi(m[3])
			if eca > 100 {
				prod.Warn(nws.ErrOutOfBounds, "SCP %s ECA %d", row.Station, eca)
			} else {
				row.ECA = &eca
			}
		}
		for _, tok := range strings.Fields(m[4]) {
			if layer, ok := metar.ParseSky(tok); ok {
				row.Layers = append(row.Layers, layer)
			}
		}
		if opts.Stations != nil {
			if _, ok := opts.Stations.Station(row.Station); !ok {
				prod.Warn(nws.ErrUnknownCode, "SCP station %s", row.Station)
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return res, nil
}

// resolveHHMM places an hour/minute on the day of the product, stepping
// back a day when it would fall after issuance.
func resolveHHMM(hhmm string, issued time.Time) (time.Time, error) {
	h, _ := strconv.Atoi(hhmm[:2])
	mi, _ := strconv.Atoi(hhmm[2:])
	if h > 23 || mi > 59 {
		return time.Time{}, fmt.Errorf("%w: SCP time %s", nws.ErrInvalidTimestamp, hhmm)
	}
	t := time.Date(issued.Year(), issued.Month(), issued.Day(), h, mi, 0, 0, time.UTC)
	if t.After(issued.Add(time.Hour)) {
		t = t.AddDate(0, 0, -1)
	}
	return t, nil
}
