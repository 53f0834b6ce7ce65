// Package mos decodes Model Output Statistics guidance bulletins.
package mos

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

// Forecast holds the variables valid at one time. Missing and NG values
// have no key.
type Forecast struct {
	Valid  time.Time          `json:"ftime"`
	Values map[string]float64 `json:"values,omitempty"`
	Codes  map[string]string  `json:"codes,omitempty"`
}

// Run is one station's guidance.
type Run struct {
	Station   string     `json:"station"`
	Model     string     `json:"model"`
	RunTime   time.Time  `json:"runtime"`
	Forecasts []Forecast `json:"forecasts"`
}

// Result is a decoded MOS bulletin.
type Result struct {
	*nws.TextProduct
	Runs []Run `json:"runs"`
}

func (r *Result) Type() string           { return "mos" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes MOS products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string { return "mos" }
func (p *Parser) Prefixes() []string {
	return []string{"MAV", "MET", "MEX", "LAV", "NBS", "NBE", "FWC", "ECS", "ECM", "ECX"}
}
func (p *Parser) Priority() int { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return headerRe.MatchString(prod.Text)
}

var (
	headerRe = regexp.MustCompile(`(?m)^\s*([A-Z0-9]{3,5})\s+(.+?)\s+GUIDANCE\s+([0-9]{1,2})/([0-9]{1,2})/([0-9]{4})\s+([0-9]{2})([0-9]{2})\s+UTC`)
	tokenRe  = regexp.MustCompile(`\S+`)
	pairRe   = regexp.MustCompile(`([0-9]+)/\s*([0-9]+)`)
)

// column is a position on the time axis, keyed by the line offset of the
// last character of its label.
type column struct {
	end   int
	valid time.Time
}

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	locs := headerRe.FindAllStringSubmatchIndex(prod.Text, -1)
	for i, loc := range locs {
		end := len(prod.Text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sub := func(k int) string { return prod.Text[loc[2*k]:loc[2*k+1]] }
		month, _ := strconv.Atoi(sub(3))
		day, _ := strconv.Atoi(sub(4))
		year, _ := strconv.Atoi(sub(5))
		hh, _ := strconv.Atoi(sub(6))
		mi, _ := strconv.Atoi(sub(7))
		run := Run{
			Station: sub(1),
			Model:   strings.TrimSuffix(strings.TrimSpace(sub(2)), " MOS"),
			RunTime: time.Date(year, time.Month(month), day, hh, mi, 0, 0, time.UTC),
		}
		if err := run.parseSection(prod.Text[loc[1]:end]); err != nil {
			prod.AddWarning(err)
			continue
		}
		res.Runs = append(res.Runs, run)
	}
	if len(res.Runs) == 0 {
		return nil, fmt.Errorf("%w: no MOS section decoded", nws.ErrInvalidTimestamp)
	}
	return res, nil
}

func (r *Run) parseSection(body string) error {
	lines := strings.Split(body, "\n")
	var cols []column
	for _, line := range lines {
		name := rowName(line)
		switch name {
		case "HR":
			cols = r.hourAxis(line)
			continue
		case "FHR":
			cols = r.offsetAxis(line)
			continue
		case "", "DT":
			continue
		}
		if len(cols) == 0 {
			continue
		}
		switch name {
		case "T06", "T12":
			r.pairs(name, line, cols)
		default:
			r.row(name, line, cols)
		}
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: MOS %s has no time axis", nws.ErrInvalidTimestamp, r.Station)
	}
	return nil
}

func rowName(line string) string {
	f := strings.Fields(line)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// hourAxis walks HR labels forward from the run time; each label is the
// next occurrence of that UTC hour.
func (r *Run) hourAxis(line string) []column {
	var cols []column
	t := r.RunTime
	for _, idx := range tokenRe.FindAllStringIndex(line, -1)[1:] {
		hour, err := strconv.Atoi(line[idx[0]:idx[1]])
		if err != nil || hour > 23 {
			continue
		}
		next := time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, time.UTC)
		for !next.After(t) {
			next = next.Add(24 * time.Hour)
		}
		t = next
		cols = append(cols, column{end: idx[1] - 1, valid: t})
	}
	r.ensure(cols)
	return cols
}

// offsetAxis reads FHR labels as hours after the run time.
func (r *Run) offsetAxis(line string) []column {
	var cols []column
	for _, idx := range tokenRe.FindAllStringIndex(line, -1)[1:] {
		tok := strings.Trim(line[idx[0]:idx[1]], "|")
		fhr, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		end := idx[1] - 1
		if strings.HasSuffix(line[idx[0]:idx[1]], "|") {
			end--
		}
		cols = append(cols, column{end: end, valid: r.RunTime.Add(time.Duration(fhr) * time.Hour)})
	}
	r.ensure(cols)
	return cols
}

func (r *Run) ensure(cols []column) {
	for _, c := range cols {
		if r.find(c.valid) == nil {
			r.Forecasts = append(r.Forecasts, Forecast{Valid: c.valid})
		}
	}
}

func (r *Run) find(t time.Time) *Forecast {
	for i := range r.Forecasts {
		if r.Forecasts[i].Valid.Equal(t) {
			return &r.Forecasts[i]
		}
	}
	return nil
}

// nearest returns the column whose label ends within two characters of
// pos, optionally restricted to hours divisible by every.
func nearest(cols []column, pos, every int) *column {
	var best *column
	bestDist := 3
	for i := range cols {
		if every > 0 && cols[i].valid.Hour()%every != 0 {
			continue
		}
		d := cols[i].end - pos
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = &cols[i], d
		}
	}
	return best
}

func (r *Run) row(name, line string, cols []column) {
	for _, idx := range tokenRe.FindAllStringIndex(line, -1)[1:] {
		tok := strings.Trim(line[idx[0]:idx[1]], "|")
		if tok == "" || tok == "NG" {
			continue
		}
		c := nearest(cols, idx[1]-1, 0)
		if c == nil {
			continue
		}
		f := r.find(c.valid)
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			if name == "WDR" {
				v *= 10
			}
			if f.Values == nil {
				f.Values = make(map[string]float64)
			}
			f.Values[name] = v
			continue
		}
		if f.Codes == nil {
			f.Codes = make(map[string]string)
		}
		f.Codes[name] = tok
	}
}

// pairs decodes the x/y thunderstorm groups onto synoptic hours: every six
// hours for T06 and every twelve for T12.
func (r *Run) pairs(name, line string, cols []column) {
	every := 6
	if name == "T12" {
		every = 12
	}
	for _, idx := range pairRe.FindAllStringSubmatchIndex(line, -1) {
		c := nearest(cols, idx[1]-1, every)
		if c == nil {
			continue
		}
		f := r.find(c.valid)
		if f.Values == nil {
			f.Values = make(map[string]float64)
		}
		a, _ := strconv.Atoi(line[idx[2]:idx[3]])
		b, _ := strconv.Atoi(line[idx[4]:idx[5]])
		f.Values[name+"_1"] = float64(a)
		f.Values[name+"_2"] = float64(b)
	}
}
