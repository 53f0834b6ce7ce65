// Package metarcollect decodes METAR/SPECI collectives.
package metarcollect

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"nws_parser/internal/metar"
	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// MaxRetries bounds how many times unparsed groups are stripped from one
// report before giving up on it.
const MaxRetries = 5

// WindAlertKnots is the sustained or gust speed that triggers an alert.
const WindAlertKnots = 50

// maxFuture is how far past now a report time may be.
const maxFuture = time.Hour

// Observation is a decoded report with its resolved station position.
type Observation struct {
	*metar.Report
	Lon      *float64 `json:"lon,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	WFO      string   `json:"wfo,omitempty"`
	Stripped []string `json:"stripped,omitempty"`
}

// Result is a decoded collective.
type Result struct {
	*nws.TextProduct
	Observations []Observation      `json:"observations"`
	Notes        []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "metar" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes METAR collectives.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string          { return "metarcollect" }
func (p *Parser) Prefixes() []string    { return []string{"MTR"} }
func (p *Parser) WMOPrefixes() []string { return []string{"SA", "SP"} }
func (p *Parser) Priority() int         { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "=") || strings.Contains(prod.Text, "METAR") || strings.Contains(prod.Text, "SPECI")
}

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	now := opts.NowUTC()
	res := &Result{TextProduct: prod}
	for _, raw := range splitReports(prod) {
		rep, stripped, err := parseWithRetry(raw, prod.Valid)
		if err != nil {
			prod.Warn(nws.ErrUnknownCode, "metar %q: %v", raw, err)
			continue
		}
		if len(stripped) > 0 {
			prod.Warn(nws.ErrUnknownCode, "metar %s: stripped groups %s", rep.Station, strings.Join(stripped, " "))
		}
		if rep.Time.IsZero() {
			prod.Warn(nws.ErrInvalidTimestamp, "metar %s has no observation time", rep.Station)
			continue
		}
		if rep.Time.Sub(now) > maxFuture {
			prod.Warn(nws.ErrFutureTimestamp, "metar %s time %s is in the future", rep.Station, rep.Time.Format(time.RFC3339))
			continue
		}
		ob := Observation{Report: rep, Stripped: stripped}
		if opts.Stations != nil {
			if st, ok := opts.Stations.Station(rep.Station); ok {
				ob.Lon, ob.Lat, ob.WFO = patterns.Float(st.Lon), patterns.Float(st.Lat), st.WFO
			}
		}
		res.Observations = append(res.Observations, ob)
		if n, ok := res.windAlert(ob, opts.WindAlerts); ok {
			res.Notes = append(res.Notes, n)
		}
	}
	return res, nil
}

// splitReports returns the "=" terminated reports after the heading lines.
func splitReports(prod *nws.TextProduct) []string {
	lines := strings.Split(prod.Text, "\n")
	start := 0
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if patterns.WMOPattern.MatchString(line) || (prod.AFOS != "" && line == prod.AFOS) {
			start = i + 1
		}
		if i > 3 {
			break
		}
	}
	body := strings.Join(lines[start:], " ")
	var out []string
	for _, chunk := range strings.Split(body, "=") {
		chunk = patterns.CollapseSpace(chunk)
		chunk = strings.TrimPrefix(chunk, "METAR ")
		chunk = strings.TrimPrefix(chunk, "SPECI ")
		if len(chunk) < 10 || chunk == "NNNN" {
			continue
		}
		out = append(out, chunk)
	}
	return out
}

// parseWithRetry strips the unparsed groups reported by the METAR parser
// and tries again, up to MaxRetries times.
func parseWithRetry(raw string, ref time.Time) (*metar.Report, []string, error) {
	var stripped []string
	text := raw
	for attempt := 0; ; attempt++ {
		rep, err := metar.Parse(text, ref)
		if err == nil {
			rep.Raw = raw
			return rep, stripped, nil
		}
		var perr *metar.ParserError
		if !errors.As(err, &perr) || attempt >= MaxRetries {
			return nil, stripped, err
		}
		text = removeGroups(text, perr.Unparsed)
		stripped = append(stripped, perr.Unparsed...)
	}
}

func removeGroups(text string, groups []string) string {
	drop := make(map[string]bool, len(groups))
	for _, g := range groups {
		drop[g] = true
	}
	fields := strings.Fields(text)
	kept := fields[:0]
	inRemarks := false
	for _, f := range fields {
		if f == "RMK" {
			inRemarks = true
		}
		if !inRemarks && drop[f] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func (r *Result) windAlert(ob Observation, dedup nws.Deduper) (nws.Notification, bool) {
	speed, label := 0, ""
	if ob.WindSpeed != nil && *ob.WindSpeed >= WindAlertKnots {
		speed, label = *ob.WindSpeed, "wind"
	}
	if ob.WindGust != nil && *ob.WindGust >= WindAlertKnots && *ob.WindGust > speed {
		speed, label = *ob.WindGust, "gust"
	}
	if speed == 0 {
		return nws.Notification{}, false
	}
	key := fmt.Sprintf("%s|%d|%s", ob.Station, speed, ob.Time.Format("200601021504"))
	if dedup != nil && dedup.Seen(key) {
		return nws.Notification{}, false
	}
	dir := ""
	if ob.WindDir != nil && *ob.WindDir >= 0 {
		dir = " from " + compass(*ob.WindDir)
	}
	mph := int(float64(speed)*1.15078 + 0.5)
	plain := fmt.Sprintf("%s %s of %d knots (%d mph)%s @ %s", ob.Station, label, speed, mph, dir, ob.Time.Format("1504Z"))
	channels := []string{"METAR." + ob.Station}
	if ob.WFO != "" {
		channels = append(channels, "WIND."+ob.WFO)
	}
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID()), true
}

var compassPoints = []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE", "S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}

func compass(deg int) string {
	idx := int((float64(deg)+11.25)/22.5) % 16
	return compassPoints[idx]
}
