// Package dsm decodes ASOS Daily Summary Messages.
package dsm

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

// Summary is one station's daily summary. Times are local standard time
// converted to UTC when the station's zone is known.
type Summary struct {
	Station      string     `json:"station"`
	Date         time.Time  `json:"date"`
	High         *int       `json:"high,omitempty"`
	HighTime     *time.Time `json:"high_time,omitempty"`
	Low          *int       `json:"low,omitempty"`
	LowTime      *time.Time `json:"low_time,omitempty"`
	CoopHigh     *int       `json:"coop_high,omitempty"`
	CoopLow      *int       `json:"coop_low,omitempty"`
	MinSLP       *float64   `json:"min_slp,omitempty"`
	MinSLPTime   *time.Time `json:"min_slp_time,omitempty"`
	Precip       *float64   `json:"pday,omitempty"`
	HourlyPrecip []*float64 `json:"hourly_precip,omitempty"`
	MaxWind      *int       `json:"max_sknt,omitempty"`
	MaxWindDir   *int       `json:"max_drct,omitempty"`
	MaxWindTime  *time.Time `json:"max_sknt_time,omitempty"`
	MaxGust      *int       `json:"max_gust,omitempty"`
	MaxGustDir   *int       `json:"max_gust_drct,omitempty"`
	MaxGustTime  *time.Time `json:"max_gust_time,omitempty"`
	Correction   bool       `json:"correction,omitempty"`
	Raw          string     `json:"raw"`
}

// Result is a decoded DSM product.
type Result struct {
	*nws.TextProduct
	Summaries []Summary `json:"summaries"`
}

func (r *Result) Type() string           { return "dsm" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

// Parser decodes DSM products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "dsm" }
func (p *Parser) Prefixes() []string    { return []string{"DSM"} }
func (p *Parser) WMOPrefixes() []string { return []string{"CXUS"} }
func (p *Parser) Priority() int         { return 20 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return dsmStartRe.MatchString(prod.Text)
}

var (
	dsmStartRe = regexp.MustCompile(`(?m)^[A-Z][A-Z0-9]{3} DS `)
	dsmRe      = regexp.MustCompile(`^(?P<station>[A-Z][A-Z0-9]{3})\s+DS\s+` +
		`(?P<cor>COR\s+)?(?:[0-9]{4}\s+)?` +
		`(?P<day>[0-9]{2})/(?P<month>[0-9]{2})\s?` +
		`(?:M|(?P<high>-?[0-9]+)(?P<hightime>[0-9]{4}))/\s?` +
		`(?:M|(?P<low>-?[0-9]+)(?P<lowtime>[0-9]{4}))//\s?` +
		`(?P<coophigh>-?[0-9]+|M)?/\s?` +
		`(?P<cooplow>-?[0-9]+|M)?//\s?` +
		`(?:M|(?P<minslp>[0-9]{3,5})(?P<slptime>[0-9]{4}))?/\s?` +
		`(?P<precip>T|M|[0-9]{1,4})?/\s?` +
		`(?P<hourly>(?:(?:[0-9]{2}|T|M)/\s?){23}(?:[0-9]{2}|T|M))?/\s?` +
		`(?P<wind>M|[0-9]{2,3})/\s?` +
		`(?:M|(?P<winddir>[0-9]{2})(?P<windtime>[0-9]{4}))/\s?` +
		`(?P<gust>M|[0-9]{2,3})/\s?` +
		`(?:M|(?P<gustdir>[0-9]{2})(?P<gusttime>[0-9]{4}))`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	for _, raw := range strings.Split(prod.Text, "=") {
		raw = patterns.CollapseSpace(raw)
		if i := strings.Index(raw, " DS "); i >= 4 {
			raw = raw[i-4:]
		} else {
			continue
		}
		m := dsmRe.FindStringSubmatch(raw)
		if m == nil {
			prod.Warn(nws.ErrUnknownCode, "undecodable DSM %q", raw)
			continue
		}
		s, err := build(captures(m), prod.Valid, opts)
		if err != nil {
			prod.AddWarning(err)
			continue
		}
		s.Raw = raw
		res.Summaries = append(res.Summaries, s)
	}
	if len(res.Summaries) == 0 {
		return nil, nil
	}
	return res, nil
}

func captures(m []string) map[string]string {
	out := make(map[string]string)
	for i, name := range dsmRe.SubexpNames() {
		if name != "" {
			out[name] = m[i]
		}
	}
	return out
}

func build(c map[string]string, valid time.Time, opts nws.Options) (Summary, error) {
	s := Summary{Station: c["station"], Correction: c["cor"] != ""}
	day, _ := strconv.Atoi(c["day"])
	month, _ := strconv.Atoi(c["month"])
	year := valid.Year()
	if time.Month(month) > valid.Month() {
		year--
	}
	s.Date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if s.Date.Day() != day {
		return s, fmt.Errorf("%w: DSM %s date %s/%s", nws.ErrInvalidTimestamp, s.Station, c["day"], c["month"])
	}

	loc := standardZone(s.Station, year, opts)
	at := func(hhmm string) *time.Time {
		if loc == nil || len(hhmm) != 4 {
			return nil
		}
		hh, _ := strconv.Atoi(hhmm[:2])
		mi, _ := strconv.Atoi(hhmm[2:])
		t := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), hh, mi, 0, 0, loc).UTC()
		return &t
	}

	s.High, s.HighTime = patterns.ParseInt(c["high"]), at(c["hightime"])
	s.Low, s.LowTime = patterns.ParseInt(c["low"]), at(c["lowtime"])
	s.CoopHigh, s.CoopLow = patterns.ParseInt(c["coophigh"]), patterns.ParseInt(c["cooplow"])
	if v := c["minslp"]; v != "" {
		s.MinSLP = slp(v)
		s.MinSLPTime = at(c["slptime"])
	}
	s.Precip = hundredths(c["precip"])
	if h := c["hourly"]; h != "" {
		for _, v := range strings.Split(strings.ReplaceAll(h, " ", ""), "/") {
			s.HourlyPrecip = append(s.HourlyPrecip, hundredths(v))
		}
	}
	s.MaxWind = patterns.ParseInt(c["wind"])
	if d := patterns.ParseInt(c["winddir"]); d != nil {
		s.MaxWindDir = patterns.Int(*d * 10)
		s.MaxWindTime = at(c["windtime"])
	}
	s.MaxGust = patterns.ParseInt(c["gust"])
	if d := patterns.ParseInt(c["gustdir"]); d != nil {
		s.MaxGustDir = patterns.Int(*d * 10)
		s.MaxGustTime = at(c["gusttime"])
	}
	return s, nil
}

// standardZone returns the fixed standard-time offset of the station's
// zone, or nil when the station or zone is unknown.
func standardZone(station string, year int, opts nws.Options) *time.Location {
	if opts.Stations == nil {
		return nil
	}
	st, ok := opts.Stations.Station(station)
	if !ok || st.TZName == "" {
		return nil
	}
	loc, err := time.LoadLocation(st.TZName)
	if err != nil {
		return nil
	}
	_, off := time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	return time.FixedZone("LST", off)
}

// slp decodes the minimum pressure in tenths of mb with the leading 9 or
// 10 dropped.
func slp(v string) *float64 {
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	f := float64(n) / 10
	if len(v) == 3 {
		f += 1000
		if n >= 500 {
			f -= 100
		}
	}
	return patterns.Float(patterns.Round(f, 1))
}

func hundredths(v string) *float64 {
	switch v {
	case "", "M":
		return nil
	case "T":
		return patterns.Float(patterns.TraceValue)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return patterns.Float(float64(n) / 100)
}
