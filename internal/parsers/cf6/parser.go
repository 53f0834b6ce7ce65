// Package cf6 decodes the preliminary monthly climate table (WS form F-6).
package cf6

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Day is one row of the table.
type Day struct {
	Valid       time.Time `json:"valid"`
	High        *float64  `json:"max"`
	Low         *float64  `json:"min"`
	Average     *float64  `json:"avg"`
	Departure   *float64  `json:"dep"`
	HDD         *float64  `json:"hdd"`
	CDD         *float64  `json:"cdd"`
	Precip      *float64  `json:"wtr"`
	Snow        *float64  `json:"snw"`
	SnowDepth   *float64  `json:"dpth"`
	AvgWind     *float64  `json:"avg_spd"`
	MaxWind     *float64  `json:"max_spd"`
	MaxWindDir  *float64  `json:"max_drct"`
	Sunshine    *float64  `json:"minsun"`
	PossibleSun *float64  `json:"psbl"`
	SkyCover    *float64  `json:"avg_sky"`
	Weather     string    `json:"wx,omitempty"`
	PeakGust    *float64  `json:"gust_spd"`
	PeakGustDir *float64  `json:"gust_drct"`
}

// Result is a decoded CF6 product.
type Result struct {
	*nws.TextProduct
	Station string     `json:"station"`
	Name    string     `json:"name"`
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Days    []Day      `json:"days"`
}

func (r *Result) Type() string           { return "cf6" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes CF6 products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "cf6" }
func (p *Parser) Prefixes() []string { return []string{"CF6"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "MONTH:") && strings.Contains(prod.Text, "YEAR:")
}

var (
	stationRe = regexp.MustCompile(`(?m)STATION:\s+(.+?)\s*$`)
	monthRe   = regexp.MustCompile(`(?m)MONTH:\s+([A-Z]+)`)
	yearRe    = regexp.MustCompile(`(?m)YEAR:\s+([0-9]{4})`)
	rowRe     = regexp.MustCompile(`^\s{0,2}([0-9]{1,2})\s+(\S+)\s+(\S+)\s`)
)

// minColumns is the day plus the sixteen fixed columns before weather.
const minColumns = 17

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod, Station: prod.WFO()}
	if len(prod.AFOS) == 6 {
		res.Station = prod.AFOS[3:]
	}
	if m := stationRe.FindStringSubmatch(prod.Text); m != nil {
		res.Name = m[1]
	}
	ym := yearRe.FindStringSubmatch(prod.Text)
	mm := monthRe.FindStringSubmatch(prod.Text)
	if ym == nil || mm == nil {
		return nil, fmt.Errorf("%w: CF6 missing MONTH/YEAR", nws.ErrInvalidTimestamp)
	}
	res.Year, _ = strconv.Atoi(ym[1])
	mon, err := time.Parse("January", mm[1])
	if err != nil {
		return nil, fmt.Errorf("%w: CF6 month %q", nws.ErrInvalidTimestamp, mm[1])
	}
	res.Month = mon.Month()

	// Rows sit between the second and third separator lines.
	separators := 0
	for _, line := range strings.Split(prod.Text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "=====") {
			separators++
			continue
		}
		if separators > 2 {
			break
		}
		if separators < 2 || !rowRe.MatchString(line) {
			continue
		}
		d, err := res.parseRow(strings.Fields(line))
		if err != nil {
			prod.AddWarning(err)
			continue
		}
		res.Days = append(res.Days, d)
	}
	return res, nil
}

func (r *Result) parseRow(f []string) (Day, error) {
	if len(f) < minColumns {
		return Day{}, fmt.Errorf("%w: CF6 row %q has %d columns", nws.ErrOutOfBounds, strings.Join(f, " "), len(f))
	}
	dd, _ := strconv.Atoi(f[0])
	valid := time.Date(r.Year, r.Month, dd, 0, 0, 0, 0, time.UTC)
	if valid.Day() != dd {
		return Day{}, fmt.Errorf("%w: CF6 day %d", nws.ErrOutOfBounds, dd)
	}
	d := Day{
		Valid:       valid,
		High:        patterns.ParseFloat(f[1]),
		Low:         patterns.ParseFloat(f[2]),
		Average:     patterns.ParseFloat(f[3]),
		Departure:   patterns.ParseFloat(f[4]),
		HDD:         patterns.ParseFloat(f[5]),
		CDD:         patterns.ParseFloat(f[6]),
		Precip:      patterns.ParseFloat(f[7]),
		Snow:        patterns.ParseFloat(f[8]),
		SnowDepth:   patterns.ParseFloat(f[9]),
		AvgWind:     patterns.ParseFloat(f[10]),
		MaxWind:     patterns.ParseFloat(f[11]),
		MaxWindDir:  patterns.ParseFloat(f[12]),
		Sunshine:    patterns.ParseFloat(f[13]),
		PossibleSun: patterns.ParseFloat(f[14]),
		SkyCover:    patterns.ParseFloat(f[15]),
	}
	// Weather digits sit between the sky cover and the trailing peak gust
	// speed and direction.
	tail := f[16:]
	if len(tail) >= 2 {
		d.PeakGust = patterns.ParseFloat(tail[len(tail)-2])
		d.PeakGustDir = patterns.ParseFloat(tail[len(tail)-1])
		d.Weather = strings.Join(tail[:len(tail)-2], " ")
	} else {
		d.PeakGust = patterns.ParseFloat(tail[0])
	}
	return d, nil
}
