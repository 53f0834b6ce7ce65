package outlook

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"nws_parser/internal/geo"
	"nws_parser/internal/geometry"
	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

// Outlook is one category and threshold area.
type Outlook struct {
	Category    string           `json:"category"`
	Threshold   Threshold        `json:"threshold"`
	Geometry    orb.MultiPolygon `json:"-"`
	Differenced orb.MultiPolygon `json:"-"`
	WFOs        []string         `json:"wfos,omitempty"`
	Segments    []orb.LineString `json:"-"`
}

// Area is the layered area in square degrees.
func (o *Outlook) Area() float64 { return geometry.Area(o.Geometry) }

// Feature renders the differenced area as GeoJSON.
func (o *Outlook) Feature() *geojson.Feature {
	f := geojson.NewFeature(o.Differenced)
	f.Properties["category"] = o.Category
	f.Properties["threshold"] = string(o.Threshold)
	if len(o.WFOs) > 0 {
		f.Properties["wfos"] = strings.Join(o.WFOs, ",")
	}
	return f
}

// Collection is every outlook sharing one valid period.
type Collection struct {
	Issue    time.Time  `json:"issue"`
	Expire   time.Time  `json:"expire"`
	Day      int        `json:"day"`
	Outlooks []*Outlook `json:"outlooks"`
}

// Get returns the outlook for a category and threshold.
func (c *Collection) Get(category string, threshold Threshold) *Outlook {
	for _, o := range c.Outlooks {
		if o.Category == category && o.Threshold == threshold {
			return o
		}
	}
	return nil
}

// Categories lists the categories in first-seen order.
func (c *Collection) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, o := range c.Outlooks {
		if !seen[o.Category] {
			seen[o.Category] = true
			out = append(out, o.Category)
		}
	}
	return out
}

// FeatureCollection renders every outlook in severity order.
func (c *Collection) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range c.Outlooks {
		f := o.Feature()
		f.Properties["day"] = c.Day
		f.Properties["issue"] = c.Issue.Format(time.RFC3339)
		f.Properties["expire"] = c.Expire.Format(time.RFC3339)
		fc.Append(f)
	}
	return fc
}

// DayFromDates numbers a collection by how many UTC days its issue time
// falls after the product date.
func DayFromDates(valid time.Time) DayFunc {
	base := time.Date(valid.Year(), valid.Month(), valid.Day(), 0, 0, 0, 0, time.UTC)
	return func(issue time.Time) int {
		return int(issue.Sub(base)/(24*time.Hour)) + 1
	}
}

// FixedDay numbers every collection the same.
func FixedDay(day int) DayFunc {
	return func(time.Time) int { return day }
}

var (
	validTimeRe = regexp.MustCompile(`VALID TIME ([0-9]{6})Z\s*-\s*([0-9]{6})Z`)
	sectionRe   = regexp.MustCompile(`(?m)^\.\.\.\s*(.+?)\s*\.\.\.\s*$`)
)

const segmentBreak = "99999999"

// DayFunc assigns a day number to a collection from its issue time.
type DayFunc func(issue time.Time) int

// Parse reads every VALID TIME block of an outlook product. Geometry
// defects become warnings on the product and drop the affected outlook.
func Parse(p *nws.TextProduct, day DayFunc, ugcs geo.UGCResolver) ([]*Collection, error) {
	locs := validTimeRe.FindAllStringSubmatchIndex(p.Text, -1)
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: outlook without VALID TIME", nws.ErrInvalidTimestamp)
	}
	boundary := geometry.BoundaryAt(p.Valid)

	var out []*Collection
	for i, loc := range locs {
		end := len(p.Text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		issue, err := nws.ResolveDDHHMM(p.Text[loc[2]:loc[3]], p.Valid)
		if err != nil {
			p.AddWarning(err)
			continue
		}
		expire, err := nws.ResolveDDHHMM(p.Text[loc[4]:loc[5]], issue)
		if err != nil {
			p.AddWarning(err)
			continue
		}
		if expire.Before(issue) {
			expire = expire.AddDate(0, 1, 0)
		}
		c := &Collection{Issue: issue, Expire: expire, Day: day(issue)}
		c.Outlooks = parseSections(p, boundary, p.Text[loc[1]:end])
		c.sort()
		c.difference(p)
		if lister, ok := ugcs.(geo.UGCLister); ok {
			c.assignWFOs(lister.Records(issue))
		}
		out = append(out, c)
	}
	return out, nil
}

func parseSections(p *nws.TextProduct, b *geometry.Boundary, text string) []*Outlook {
	var out []*Outlook
	heads := sectionRe.FindAllStringSubmatchIndex(text, -1)
	for i, h := range heads {
		label := text[h[2]:h[3]]
		category, ok := ParseCategory(label)
		if !ok {
			continue
		}
		end := len(text)
		if i+1 < len(heads) {
			end = heads[i+1][0]
		}
		body := text[h[1]:end]
		if j := strings.Index(body, "&&"); j >= 0 {
			body = body[:j]
		}
		out = append(out, parseThresholds(p, b, category, body)...)
	}
	return out
}

func parseThresholds(p *nws.TextProduct, b *geometry.Boundary, category, body string) []*Outlook {
	var out []*Outlook
	var cur *Outlook
	var seg orb.LineString
	flushSeg := func() {
		if cur != nil && len(seg) > 0 {
			cur.Segments = append(cur.Segments, seg)
		}
		seg = nil
	}
	finish := func() {
		flushSeg()
		if cur == nil {
			return
		}
		mp, err := geometry.Build(b, cur.Segments)
		if err != nil {
			p.Warn(nws.ErrInvalidGeometry, "%s %s: %v", category, cur.Threshold, err)
		} else {
			cur.Geometry = mp
			out = append(out, cur)
		}
		cur = nil
	}

	for _, tok := range strings.Fields(body) {
		switch {
		case tok == segmentBreak:
			flushSeg()
		case len(tok) == 8 && patterns.IsDigits(tok):
			if cur == nil {
				continue
			}
			lon, lat, err := patterns.ParseSPCToken(tok)
			if err != nil {
				p.Warn(nws.ErrOutOfBounds, "%s %s: %v", category, cur.Threshold, err)
				continue
			}
			seg = append(seg, orb.Point{lon, lat})
		default:
			thr, err := ParseThreshold(tok)
			if err != nil {
				p.AddWarning(err)
				finish()
				continue
			}
			finish()
			cur = &Outlook{Category: category, Threshold: thr}
		}
	}
	finish()
	return out
}

// Render writes collections back out as VALID TIME blocks of point
// segments, the layout Parse reads.
func Render(cols []*Collection) string {
	var b strings.Builder
	for _, c := range cols {
		fmt.Fprintf(&b, "VALID TIME %sZ - %sZ\n\n", c.Issue.Format("021504"), c.Expire.Format("021504"))
		cat := ""
		for _, o := range c.Outlooks {
			if o.Category != cat {
				if cat != "" {
					b.WriteString("&&\n\n")
				}
				cat = o.Category
				fmt.Fprintf(&b, "... %s ...\n\n", cat)
			}
			writePoints(&b, o)
		}
		if cat != "" {
			b.WriteString("&&\n\n")
		}
	}
	return b.String()
}

// pointsPerLine matches the width SPC uses.
const pointsPerLine = 6

func writePoints(b *strings.Builder, o *Outlook) {
	var toks []string
	for i, seg := range o.Segments {
		if i > 0 {
			toks = append(toks, segmentBreak)
		}
		for _, p := range seg {
			toks = append(toks, patterns.FormatSPCToken(p[0], p[1]))
		}
	}
	for i := 0; i < len(toks); i += pointsPerLine {
		label := ""
		if i == 0 {
			label = string(o.Threshold)
		}
		end := min(i+pointsPerLine, len(toks))
		fmt.Fprintf(b, "%-7s%s\n", label, strings.Join(toks[i:end], " "))
	}
}

func (c *Collection) sort() {
	order := map[string]int{}
	for i, cat := range c.Categories() {
		order[cat] = i
	}
	sort.SliceStable(c.Outlooks, func(i, j int) bool {
		a, b := c.Outlooks[i], c.Outlooks[j]
		if order[a.Category] != order[b.Category] {
			return order[a.Category] < order[b.Category]
		}
		return a.Threshold.Rank() < b.Threshold.Rank()
	})
}

// difference subtracts the next more severe layered threshold so each
// outlook only covers its own band.
func (c *Collection) difference(p *nws.TextProduct) {
	for i, o := range c.Outlooks {
		o.Differenced = o.Geometry
		if !o.Threshold.Layered() {
			continue
		}
		for _, higher := range c.Outlooks[i+1:] {
			if higher.Category != o.Category || !higher.Threshold.Layered() {
				continue
			}
			diff, err := geometry.Difference(o.Geometry, higher.Geometry)
			if err != nil {
				p.Warn(nws.ErrInvalidGeometry, "difference %s %s: %v", o.Category, o.Threshold, err)
				break
			}
			o.Differenced = diff
			break
		}
	}
}

// assignWFOs attributes each outlook to the offices whose counties have a
// centroid inside it.
func (c *Collection) assignWFOs(records []geo.UGCRecord) {
	for _, o := range c.Outlooks {
		seen := map[string]bool{}
		for _, r := range records {
			if r.Source != geo.SourceCounty || len(r.WFOs) == 0 {
				continue
			}
			if !planar.MultiPolygonContains(o.Geometry, r.Centroid) {
				continue
			}
			for _, w := range r.WFOs {
				seen[w] = true
			}
		}
		o.WFOs = o.WFOs[:0]
		for w := range seen {
			o.WFOs = append(o.WFOs, w)
		}
		sort.Strings(o.WFOs)
	}
}
