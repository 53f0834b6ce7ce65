// Package fd decodes winds and temperatures aloft forecasts.
package fd

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

// LightAndVariable is the direction recorded for the 9900 group.
const LightAndVariable = -1

// Level is the forecast for one station and altitude.
type Level struct {
	Station  string `json:"station"`
	Feet     int    `json:"level_ft"`
	WindDir  *int   `json:"drct,omitempty"`
	WindKt   *int   `json:"sknt,omitempty"`
	TempC    *int   `json:"tmpc,omitempty"`
	RawGroup string `json:"raw"`
}

// Result is a decoded FD bulletin.
type Result struct {
	*nws.TextProduct
	BasedOn time.Time `json:"obtime"`
	Valid   time.Time `json:"ftime"`
	UseFrom string    `json:"use_from,omitempty"`
	UseTo   string    `json:"use_to,omitempty"`
	Levels  []Level   `json:"levels"`
}

func (r *Result) Type() string           { return "fd" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes FD products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "fd" }
func (p *Parser) Prefixes() []string    { return []string{"FD"} }
func (p *Parser) WMOPrefixes() []string { return []string{"FB"} }
func (p *Parser) Priority() int         { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return validRe.MatchString(prod.Text)
}

var (
	basedRe = regexp.MustCompile(`DATA BASED ON ([0-9]{6})Z`)
	validRe = regexp.MustCompile(`VALID ([0-9]{6})Z\s+FOR USE ([0-9]{4})-([0-9]{4})Z`)
	tokenRe = regexp.MustCompile(`\S+`)
	groupRe = regexp.MustCompile(`^([0-9]{2})([0-9]{2})([+-]?[0-9]{2})?$`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	vm := validRe.FindStringSubmatch(prod.Text)
	if vm == nil {
		return nil, fmt.Errorf("%w: FD without VALID line", nws.ErrInvalidTimestamp)
	}
	valid, err := nws.ResolveDDHHMM(vm[1], prod.Valid)
	if err != nil {
		return nil, err
	}
	res.Valid, res.UseFrom, res.UseTo = valid, vm[2], vm[3]
	if bm := basedRe.FindStringSubmatch(prod.Text); bm != nil {
		if t, err := nws.ResolveDDHHMM(bm[1], prod.Valid); err == nil {
			res.BasedOn = t
		}
	}

	type column struct {
		end  int
		feet int
	}
	var cols []column
	for _, line := range strings.Split(prod.Text, "\n") {
		idxs := tokenRe.FindAllStringIndex(line, -1)
		if len(idxs) < 2 {
			continue
		}
		first := line[idxs[0][0]:idxs[0][1]]
		if first == "FT" {
			cols = cols[:0]
			for _, idx := range idxs[1:] {
				ft, err := strconv.Atoi(line[idx[0]:idx[1]])
				if err != nil {
					continue
				}
				cols = append(cols, column{end: idx[1] - 1, feet: ft})
			}
			continue
		}
		if len(cols) == 0 || len(first) != 3 {
			continue
		}
		for _, idx := range idxs[1:] {
			grp := line[idx[0]:idx[1]]
			feet := 0
			for _, c := range cols {
				if d := c.end - (idx[1] - 1); d >= -1 && d <= 1 {
					feet = c.feet
				}
			}
			if feet == 0 {
				prod.Warn(nws.ErrOutOfBounds, "FD %s group %q not under a level", first, grp)
				continue
			}
			lvl, err := decodeGroup(first, feet, grp)
			if err != nil {
				prod.AddWarning(err)
				continue
			}
			res.Levels = append(res.Levels, lvl)
		}
	}
	if len(res.Levels) == 0 {
		return nil, nil
	}
	return res, nil
}

// decodeGroup decodes ddff[±tt]. Directions above 50 carry 100 knots, and
// temperatures above 24000 ft are implicitly negative.
func decodeGroup(station string, feet int, grp string) (Level, error) {
	lvl := Level{Station: station, Feet: feet, RawGroup: grp}
	m := groupRe.FindStringSubmatch(grp)
	if m == nil {
		return lvl, fmt.Errorf("%w: FD group %q", nws.ErrUnknownCode, grp)
	}
	dd, _ := strconv.Atoi(m[1])
	ff, _ := strconv.Atoi(m[2])
	switch {
	case dd == 99 && ff == 0:
		lvl.WindDir, lvl.WindKt = patterns.Int(LightAndVariable), patterns.Int(0)
	case dd > 50:
		lvl.WindDir, lvl.WindKt = patterns.Int((dd-50)*10), patterns.Int(ff+100)
	case dd <= 36:
		lvl.WindDir, lvl.WindKt = patterns.Int(dd*10), patterns.Int(ff)
	default:
		return lvl, fmt.Errorf("%w: FD direction in %q", nws.ErrOutOfBounds, grp)
	}
	if t := m[3]; t != "" {
		v, _ := strconv.Atoi(strings.TrimPrefix(t, "+"))
		if feet > 24000 && !strings.HasPrefix(t, "+") && !strings.HasPrefix(t, "-") {
			v = -v
		}
		lvl.TempC = &v
	}
	return lvl, nil
}

