// Package lsr decodes Local Storm Report collectives.
package lsr

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/reference"
	"nws_parser/internal/registry"
)

// Report is one storm report.
type Report struct {
	Valid        time.Time `json:"valid"`
	Local        time.Time `json:"local_valid"`
	TypeText     string    `json:"typetext"`
	TypeCode     string    `json:"type"`
	Magnitude    *float64  `json:"magnitude,omitempty"`
	MagUnits     string    `json:"unit,omitempty"`
	MagQualifier string    `json:"qualifier,omitempty"`
	MagDirection string    `json:"magdir,omitempty"`
	City         string    `json:"city"`
	County       string    `json:"county"`
	State        string    `json:"state"`
	Source       string    `json:"source"`
	Remark       string    `json:"remark,omitempty"`
	Lon          float64   `json:"lon"`
	Lat          float64   `json:"lat"`
	WFO          string    `json:"wfo"`
	Duplicate    bool      `json:"duplicate"`
	Raw          string    `json:"-"`
}

// Geometry is the report location.
func (r Report) Geometry() orb.Point { return orb.Point{r.Lon, r.Lat} }

// MagnitudeText renders "M73 MPH" style text.
func (r Report) MagnitudeText() string {
	if r.Magnitude == nil {
		return ""
	}
	if *r.Magnitude == patterns.TraceValue {
		return "TRACE"
	}
	v := strconv.FormatFloat(*r.Magnitude, 'f', -1, 64)
	return strings.TrimSpace(r.MagQualifier + r.MagDirection + v + " " + r.MagUnits)
}

// Result is a decoded LSR product.
type Result struct {
	*nws.TextProduct
	Reports   []Report           `json:"reports"`
	IsSummary bool               `json:"is_summary"`
	Notes     []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "lsr" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes LSR products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "lsr" }
func (p *Parser) Prefixes() []string { return []string{"LSR"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "..TIME...")
}

var (
	timeLineRe = regexp.MustCompile(`^[0-9]{3,4} [AP]M`)
	dateLineRe = regexp.MustCompile(`^[0-9]{1,2}/[0-9]{1,2}/[0-9]{4}`)
	magRe      = regexp.MustCompile(`^(?P<qual>[EMU])?\s?(?P<dir>[<>])?\s?(?P<val>[0-9.]+)?\s?(?P<unit>MPH|KTS|INCHES|INCH|IN|FT|MILES|MILE|MI|ACRES|ACRE|TRACE|T)?$`)
)

var unitAliases = map[string]string{
	"INCHES": "INCH", "IN": "INCH",
	"MILES": "MILE", "MI": "MILE",
	"ACRES": "ACRE",
	"T":     "TRACE",
}

// futureLimit bounds how far past the product or wall clock a report may be.
const futureLimit = time.Hour

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	res.IsSummary = strings.Contains(prod.Text, "...SUMMARY") || strings.Contains(prod.Text, "SUMMARY OF")

	lines := strings.Split(prod.Text, "\n")
	for i := 0; i+1 < len(lines); i++ {
		if !timeLineRe.MatchString(lines[i]) || !dateLineRe.MatchString(lines[i+1]) {
			continue
		}
		end := reportEnd(lines, i+2)
		rep, err := parseReport(prod, lines[i], lines[i+1], lines[i+2:end], opts.NowUTC())
		i = end - 1
		if err != nil {
			prod.AddWarning(err)
			continue
		}
		res.Reports = append(res.Reports, rep)
	}
	if prod.TZAbbr == "" && len(res.Reports) > 0 {
		prod.Warn(nws.ErrInvalidTimestamp, "no MND time zone, %d report times taken as UTC", len(res.Reports))
	}

	markDuplicates(res.Reports)
	for _, r := range res.Reports {
		if r.Duplicate {
			continue
		}
		res.Notes = append(res.Notes, notification(prod, r, res.IsSummary))
	}
	return res, nil
}

// reportEnd returns the index of the first line after the remark block.
func reportEnd(lines []string, from int) int {
	i := from
	for ; i+1 < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == "&&" || strings.HasPrefix(t, "$$") {
			return i
		}
		if timeLineRe.MatchString(lines[i]) && dateLineRe.MatchString(lines[i+1]) {
			return i
		}
	}
	if i < len(lines) {
		t := strings.TrimSpace(lines[i])
		if t == "&&" || strings.HasPrefix(t, "$$") {
			return i
		}
	}
	return len(lines)
}

func parseReport(prod *nws.TextProduct, l0, l1 string, remark []string, now time.Time) (Report, error) {
	r := Report{WFO: prod.WFO(), Raw: l0 + "\n" + l1}
	r.TypeText = patterns.Field(l0, 12, 29)
	r.City = patterns.Field(l0, 29, 53)
	r.County = patterns.Field(l1, 29, 48)
	r.State = patterns.Field(l1, 48, 50)
	r.Source = patterns.Field(l1, 53, -1)

	code, ok := reference.LSRTypeCode(r.TypeText)
	if !ok {
		return r, fmt.Errorf("%w: lsr type %q", nws.ErrUnknownCode, r.TypeText)
	}
	r.TypeCode = code

	local, err := parseLocal(patterns.Field(l0, 0, 12), patterns.Field(l1, 0, 12))
	if err != nil {
		return r, err
	}
	r.Valid = local.Add(-prod.LocalOffset()).UTC()
	r.Local = r.Valid.In(prod.LocalZone())
	if r.Valid.Sub(prod.Valid) > futureLimit || r.Valid.Sub(now) > futureLimit {
		return r, fmt.Errorf("%w: lsr %s at %s", nws.ErrFutureTimestamp, r.TypeText, r.Valid.Format(time.RFC3339))
	}

	if err := parseMagnitude(&r, patterns.Field(l1, 12, 29)); err != nil {
		return r, err
	}
	if r.Lat, r.Lon, err = parseLatLon(patterns.Field(l0, 53, -1)); err != nil {
		return r, err
	}

	var rem []string
	for _, line := range remark {
		if t := strings.TrimSpace(line); t != "" {
			rem = append(rem, t)
		}
	}
	r.Remark = strings.Join(rem, " ")
	return r, nil
}

// parseLocal combines "1055 PM" and "07/22/2013" into a wall-clock time
// expressed in UTC fields.
func parseLocal(clock, date string) (time.Time, error) {
	if i := strings.IndexByte(clock, ' '); i == 3 {
		clock = "0" + clock
	}
	t, err := time.Parse("0304 PM 1/2/2006", clock+" "+date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: lsr time %q %q", nws.ErrInvalidTimestamp, clock, date)
	}
	return t, nil
}

func parseMagnitude(r *Report, text string) error {
	if text == "" {
		return nil
	}
	m := magRe.FindStringSubmatch(text)
	if m == nil {
		return fmt.Errorf("%w: lsr magnitude %q", nws.ErrUnknownCode, text)
	}
	r.MagQualifier = m[1]
	r.MagDirection = m[2]
	unit := m[4]
	if alias, ok := unitAliases[unit]; ok {
		unit = alias
	}
	r.MagUnits = unit
	switch {
	case unit == "TRACE":
		v := patterns.TraceValue
		r.Magnitude = &v
		r.MagUnits = "INCH"
	case m[3] != "":
		v, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return fmt.Errorf("%w: lsr magnitude %q", nws.ErrUnknownCode, text)
		}
		r.Magnitude = &v
	}
	return nil
}

func parseLatLon(text string) (float64, float64, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: lsr location %q", nws.ErrInvalidGeometry, text)
	}
	lat, err := patterns.ParseDecimalCoord(fields[0], "")
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", nws.ErrInvalidGeometry, err)
	}
	lon, err := patterns.ParseDecimalCoord(fields[1], "")
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", nws.ErrInvalidGeometry, err)
	}
	// Longitudes are always west in this product even without the suffix.
	if lon > 0 && !strings.HasSuffix(fields[1], "E") {
		lon = -lon
	}
	if lat < -90 || lat > 90 || lon <= -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: lsr location %q", nws.ErrOutOfBounds, text)
	}
	return lat, lon, nil
}

// markDuplicates flags reports repeating an earlier one verbatim.
func markDuplicates(reports []Report) {
	seen := make(map[string]bool, len(reports))
	for i := range reports {
		r := &reports[i]
		key := fmt.Sprintf("%d|%s|%.4f|%.4f|%s", r.Valid.Unix(), r.TypeText, r.Lon, r.Lat, r.MagnitudeText())
		if seen[key] {
			r.Duplicate = true
			continue
		}
		seen[key] = true
	}
}

func notification(prod *nws.TextProduct, r Report, summary bool) nws.Notification {
	mag := r.MagnitudeText()
	if mag != "" {
		mag = " of " + mag
	}
	prefix := ""
	if summary {
		prefix = "[Summary] "
	}
	plain := fmt.Sprintf("%s%s %s [%s Co, %s] %s reports %s%s at %s -- %s",
		prefix, r.WFO, r.City, r.County, r.State, r.Source, r.TypeText, mag,
		prod.FormatLocal(r.Valid), r.Remark)
	plain = strings.TrimSuffix(plain, " -- ")
	channels := append(prod.BaseChannels(),
		"LSR"+r.WFO, "LSR.ALL", "LSR."+r.State, "LSR."+r.WFO+"."+r.TypeCode)
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, prod.ProductID())
}
