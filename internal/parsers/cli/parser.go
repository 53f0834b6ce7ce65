// Package cli decodes daily climate reports.
package cli

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Value is one observed row of the report.
type Value struct {
	Observed    *float64 `json:"observed"`
	Time        string   `json:"time,omitempty"`
	Record      *float64 `json:"record,omitempty"`
	RecordYears []int    `json:"record_years,omitempty"`
	Normal      *float64 `json:"normal,omitempty"`
	Departure   *float64 `json:"departure,omitempty"`
	LastYear    *float64 `json:"last_year,omitempty"`
}

// Summary is one station's daily climate data.
type Summary struct {
	Station string    `json:"station"`
	Name    string    `json:"name"`
	Date    time.Time `json:"valid"`

	High *Value `json:"high,omitempty"`
	Low  *Value `json:"low,omitempty"`

	Precip         *Value   `json:"precip,omitempty"`
	PrecipMonth    *Value   `json:"precip_month,omitempty"`
	PrecipJan1     *Value   `json:"precip_jan1,omitempty"`
	PrecipJul1     *Value   `json:"precip_jul1,omitempty"`
	Snow           *Value   `json:"snow,omitempty"`
	SnowMonth      *Value   `json:"snow_month,omitempty"`
	SnowJul1       *Value   `json:"snow_jul1,omitempty"`
	SnowDepth      *Value   `json:"snowdepth,omitempty"`
	AverageWindMPH *float64 `json:"average_wind_mph,omitempty"`
	HighestGustMPH *float64 `json:"highest_gust_mph,omitempty"`
}

// Result is a decoded CLI product.
type Result struct {
	*nws.TextProduct
	Summaries []Summary          `json:"data"`
	Notes     []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "cli" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes CLI products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "cli" }
func (p *Parser) Prefixes() []string { return []string{"CLI"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return headerRe.MatchString(prod.Text)
}

var (
	headerRe   = regexp.MustCompile(`\.\.\.THE ([A-Z0-9 .'/\-]+?) CLIMATE SUMMARY FOR\s+([A-Z]+ [0-9]{1,2} [0-9]{4})`)
	sectionRe  = regexp.MustCompile(`^(TEMPERATURE|PRECIPITATION|SNOWFALL|WIND)\b`)
	rowLabelRe = regexp.MustCompile(`^\s*(MAXIMUM|MINIMUM|YESTERDAY|TODAY|MONTH TO DATE|SINCE [A-Z]{3} 1|SNOW DEPTH|AVERAGE WIND SPEED|HIGHEST GUST SPEED)\b\s*(.*)$`)
	clockRe    = regexp.MustCompile(`^[0-9]{1,2}:[0-9]{2}$`)
	yearRe     = regexp.MustCompile(`^(?:18|19|20)[0-9]{2}$`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	locs := headerRe.FindAllStringSubmatchIndex(prod.Text, -1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: no climate summary header", nws.ErrInvalidTimestamp)
	}
	for i, loc := range locs {
		end := len(prod.Text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		name := prod.Text[loc[2]:loc[3]]
		date, err := time.Parse("January 2 2006", prod.Text[loc[4]:loc[5]])
		if err != nil {
			prod.Warn(nws.ErrInvalidTimestamp, "climate date %q", prod.Text[loc[4]:loc[5]])
			continue
		}
		s := Summary{Station: prod.WFO(), Name: name, Date: date}
		if len(prod.AFOS) == 6 {
			s.Station = prod.AFOS[3:]
		}
		s.parseBody(prod.Text[loc[1]:end])
		res.Summaries = append(res.Summaries, s)
		res.Notes = append(res.Notes, res.notification(s))
	}
	return res, nil
}

func (s *Summary) parseBody(body string) {
	section := ""
	for _, line := range strings.Split(body, "\n") {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			section = m[1]
			continue
		}
		m := rowLabelRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label, toks := m[1], strings.Fields(m[2])
		switch section {
		case "TEMPERATURE":
			switch label {
			case "MAXIMUM":
				s.High = parseRow(toks)
			case "MINIMUM":
				s.Low = parseRow(toks)
			}
		case "PRECIPITATION":
			switch {
			case label == "YESTERDAY" || label == "TODAY":
				s.Precip = parseRow(toks)
			case label == "MONTH TO DATE":
				s.PrecipMonth = parseRow(toks)
			case label == "SINCE JAN 1":
				s.PrecipJan1 = parseRow(toks)
			case label == "SINCE JUL 1":
				s.PrecipJul1 = parseRow(toks)
			}
		case "SNOWFALL":
			switch {
			case label == "YESTERDAY" || label == "TODAY":
				s.Snow = parseRow(toks)
			case label == "MONTH TO DATE":
				s.SnowMonth = parseRow(toks)
			case label == "SINCE JUL 1":
				s.SnowJul1 = parseRow(toks)
			case label == "SNOW DEPTH":
				s.SnowDepth = parseRow(toks)
			}
		case "WIND":
			if len(toks) == 0 {
				continue
			}
			switch label {
			case "AVERAGE WIND SPEED":
				s.AverageWindMPH = value(toks[0])
			case "HIGHEST GUST SPEED":
				s.HighestGustMPH = value(toks[0])
			}
		}
	}
}

// parseRow reads observed [time AM|PM] [record year...] normal departure
// last-year.
func parseRow(toks []string) *Value {
	if len(toks) == 0 {
		return nil
	}
	v := &Value{Observed: value(toks[0])}
	i := 1
	if i+1 < len(toks) && clockRe.MatchString(toks[i]) && (toks[i+1] == "AM" || toks[i+1] == "PM") {
		v.Time = toks[i] + " " + toks[i+1]
		i += 2
	}
	if i+1 < len(toks) && yearRe.MatchString(toks[i+1]) {
		v.Record = value(toks[i])
		i++
		for i < len(toks) && yearRe.MatchString(toks[i]) {
			y, _ := strconv.Atoi(toks[i])
			v.RecordYears = append(v.RecordYears, y)
			i++
		}
	}
	rest := toks[i:]
	if len(rest) > 0 {
		v.Normal = value(rest[0])
	}
	if len(rest) > 1 {
		v.Departure = value(rest[1])
	}
	if len(rest) > 2 {
		v.LastYear = value(rest[2])
	}
	return v
}

// value parses a climate number: MM is missing, T is trace and a trailing
// R marks a new record.
func value(s string) *float64 {
	return patterns.ParseFloat(strings.TrimSuffix(s, "R"))
}

func (r *Result) notification(s Summary) nws.Notification {
	parts := []string{fmt.Sprintf("%s Climate Report for %s:", s.Name, s.Date.Format("Jan 2, 2006"))}
	if s.High != nil && s.High.Observed != nil {
		parts = append(parts, fmt.Sprintf("High: %.0f", *s.High.Observed))
	}
	if s.Low != nil && s.Low.Observed != nil {
		parts = append(parts, fmt.Sprintf("Low: %.0f", *s.Low.Observed))
	}
	if s.Precip != nil && s.Precip.Observed != nil {
		parts = append(parts, "Precip: "+amount(*s.Precip.Observed))
	}
	if s.Snow != nil && s.Snow.Observed != nil {
		parts = append(parts, "Snow: "+amount(*s.Snow.Observed))
	}
	plain := strings.Join(parts, " ")
	channels := append(r.BaseChannels(), "CLI"+s.Station)
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}

func amount(v float64) string {
	if v == patterns.TraceValue {
		return "Trace"
	}
	return fmt.Sprintf("%.2f", v)
}
