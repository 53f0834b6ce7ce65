// Package pirep decodes pilot report collectives.
package pirep

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"nws_parser/internal/geo"
	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Priority of a report.
type Priority string

const (
	Routine Priority = "UA"
	Urgent  Priority = "UUA"
)

// Report is one decoded PIREP.
type Report struct {
	Priority    Priority  `json:"priority"`
	Base        string    `json:"base_loc,omitempty"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Valid       time.Time `json:"valid"`
	FlightLevel *int      `json:"flight_level,omitempty"`
	Aircraft    string    `json:"aircraft_type,omitempty"`
	Sky         string    `json:"sky,omitempty"`
	Weather     string    `json:"weather,omitempty"`
	Temperature *int      `json:"temp_c,omitempty"`
	Wind        string    `json:"wind,omitempty"`
	Turbulence  string    `json:"turbulence,omitempty"`
	Icing       string    `json:"icing,omitempty"`
	Remarks     string    `json:"remarks,omitempty"`
	Raw         string    `json:"raw"`
}

// Result is a decoded PIREP collective.
type Result struct {
	*nws.TextProduct
	Reports []Report           `json:"reports"`
	Notes   []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "pirep" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes PIREP products.
type Parser struct{}

// Grok compiler singleton.
var (
	grokCompiler *patterns.Compiler
	grokOnce     sync.Once
	grokErr      error
)

func getCompiler() (*patterns.Compiler, error) {
	grokOnce.Do(func() {
		grokCompiler = patterns.NewCompiler(LocationFormats, nil)
		grokErr = grokCompiler.Compile()
	})
	return grokCompiler, grokErr
}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "pirep" }
func (p *Parser) Prefixes() []string    { return []string{"PIR", "PRC"} }
func (p *Parser) WMOPrefixes() []string { return []string{"UB"} }
func (p *Parser) Priority() int         { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return reportStartRe.MatchString(prod.Text)
}

var (
	reportStartRe = regexp.MustCompile(`(?m)^(?:([A-Z0-9]{3,4})\s+)?(UUA|UA)\s*/`)
	flRe          = regexp.MustCompile(`^FL\s*([0-9]{3})`)
	tempRe        = regexp.MustCompile(`^(M|-)?([0-9]{1,2})`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	c, err := getCompiler()
	if err != nil {
		return nil, err
	}
	res := &Result{TextProduct: prod}
	for _, raw := range splitReports(prod.Text) {
		rep, err := parseReport(c, raw, prod.Valid, opts.Stations)
		if err != nil {
			prod.AddWarning(err)
			continue
		}
		if rep.Latitude == nil {
			prod.Warn(nws.ErrUnknownCode, "pirep location %q unresolved", rep.Location)
		}
		res.Reports = append(res.Reports, rep)
		if rep.Priority == Urgent {
			res.Notes = append(res.Notes, res.notification(rep))
		}
	}
	return res, nil
}

// splitReports joins continuation lines and cuts on "=" and report starts.
func splitReports(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, line := range strings.Split(text, "\n") {
		if reportStartRe.MatchString(line) {
			flush()
		} else if cur.Len() == 0 {
			continue
		}
		for {
			before, after, found := strings.Cut(line, "=")
			cur.WriteString(before)
			cur.WriteByte(' ')
			if !found {
				break
			}
			flush()
			if strings.TrimSpace(after) == "" {
				break
			}
			line = after
		}
	}
	flush()
	return out
}

func parseReport(c *patterns.Compiler, raw string, valid time.Time, stations geo.StationResolver) (Report, error) {
	rep := Report{Raw: raw}
	parts := strings.Split(raw, "/")
	head := strings.Fields(parts[0])
	switch len(head) {
	case 1:
		rep.Priority = Priority(head[0])
	case 2:
		rep.Base, rep.Priority = head[0], Priority(head[1])
	default:
		return rep, fmt.Errorf("%w: pirep header %q", nws.ErrUnknownCode, parts[0])
	}
	if rep.Priority != Routine && rep.Priority != Urgent {
		return rep, fmt.Errorf("%w: pirep priority %q", nws.ErrUnknownCode, rep.Priority)
	}

	haveTime := false
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if len(part) < 2 {
			continue
		}
		key, val := part[:2], strings.TrimSpace(part[2:])
		switch key {
		case "OV":
			rep.Location = val
		case "TM":
			ts, err := resolveTime(val, valid)
			if err != nil {
				return rep, err
			}
			rep.Valid = ts
			haveTime = true
		case "FL":
			if m := flRe.FindStringSubmatch(part); m != nil {
				v, _ := strconv.Atoi(m[1])
				v *= 100
				rep.FlightLevel = &v
			}
		case "TP":
			rep.Aircraft = val
		case "SK":
			rep.Sky = val
		case "WX":
			rep.Weather = val
		case "TA":
			if m := tempRe.FindStringSubmatch(val); m != nil {
				v, _ := strconv.Atoi(m[2])
				if m[1] != "" {
					v = -v
				}
				rep.Temperature = &v
			}
		case "WV":
			rep.Wind = val
		case "TB":
			rep.Turbulence = val
		case "IC":
			rep.Icing = val
		case "RM":
			rep.Remarks = val
		}
	}
	if !haveTime {
		return rep, fmt.Errorf("%w: pirep without /TM: %q", nws.ErrInvalidTimestamp, raw)
	}
	if lon, lat, ok := resolveLocation(c, rep.Location, stations); ok {
		rep.Longitude, rep.Latitude = &lon, &lat
	}
	return rep, nil
}

// resolveTime places HHMM on the product date, going back a day when the
// result would be in the future.
func resolveTime(hhmm string, valid time.Time) (time.Time, error) {
	hhmm = strings.TrimSpace(hhmm)
	if len(hhmm) < 4 || !patterns.IsDigits(hhmm[:4]) {
		return time.Time{}, fmt.Errorf("%w: pirep time %q", nws.ErrInvalidTimestamp, hhmm)
	}
	hh, _ := strconv.Atoi(hhmm[:2])
	mi, _ := strconv.Atoi(hhmm[2:4])
	if hh > 23 || mi > 59 {
		return time.Time{}, fmt.Errorf("%w: pirep time %q", nws.ErrInvalidTimestamp, hhmm)
	}
	ts := time.Date(valid.Year(), valid.Month(), valid.Day(), hh, mi, 0, 0, time.UTC)
	if ts.After(valid) {
		ts = ts.Add(-24 * time.Hour)
	}
	return ts, nil
}

func resolveLocation(c *patterns.Compiler, loc string, stations geo.StationResolver) (float64, float64, bool) {
	m := c.Parse(strings.TrimSpace(loc))
	if m == nil {
		return 0, 0, false
	}
	switch m.FormatName {
	case "latlon":
		lat, ok1 := patterns.ParseLatitude(m.Captures["lat"], m.Captures["lat_dir"])
		lon, ok2 := patterns.ParseLongitude(m.Captures["lon"], m.Captures["lon_dir"])
		return lon, lat, ok1 && ok2
	case "radial":
		return radial(stations, m.Captures["stid"], m.Captures["brg"], m.Captures["dist"])
	case "offset":
		dist, _ := strconv.ParseFloat(m.Captures["dist"], 64)
		lon, lat, err := geo.Offset(stations, m.Captures["stid"], dist*geo.NauticalMile, m.Captures["dir"])
		return lon, lat, err == nil
	case "station":
		lon, lat, err := geo.Offset(stations, m.Captures["stid"], 0, "")
		return lon, lat, err == nil
	case "route":
		lon1, lat1, ok1 := resolveLocation(c, m.Captures["a"], stations)
		lon2, lat2, ok2 := resolveLocation(c, m.Captures["b"], stations)
		if !ok1 || !ok2 {
			return 0, 0, false
		}
		return (lon1 + lon2) / 2, (lat1 + lat2) / 2, true
	}
	return 0, 0, false
}

func radial(stations geo.StationResolver, stid, brg, dist string) (float64, float64, bool) {
	if stations == nil {
		return 0, 0, false
	}
	st, ok := stations.Station(stid)
	if !ok {
		return 0, 0, false
	}
	b, _ := strconv.ParseFloat(brg, 64)
	d, _ := strconv.ParseFloat(dist, 64)
	if b > 360 {
		return 0, 0, false
	}
	lon, lat := geo.Destination(st.Lon, st.Lat, b, d*geo.NauticalMile)
	return lon, lat, true
}

func (r *Result) notification(rep Report) nws.Notification {
	plain := fmt.Sprintf("Urgent pilot report over %s at %s", rep.Location, rep.Valid.Format("15:04Z"))
	if rep.Aircraft != "" {
		plain += " by " + rep.Aircraft
	}
	if rep.Turbulence != "" {
		plain += ", turbulence " + rep.Turbulence
	}
	if rep.Icing != "" {
		plain += ", icing " + rep.Icing
	}
	channels := append(r.BaseChannels(), "UUA")
	if rep.Base != "" {
		channels = append(channels, "UUA."+rep.Base)
	}
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}
