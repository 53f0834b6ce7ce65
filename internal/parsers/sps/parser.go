// Package sps decodes Special Weather Statements.
package sps

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Statement is the decoded content of one SPS segment.
type Statement struct {
	Segment  int         `json:"segment"`
	Headline string      `json:"headline,omitempty"`
	UGCs     []nws.UGC   `json:"ugcs"`
	Expire   *time.Time  `json:"expire,omitempty"`
	Polygon  orb.Polygon `json:"-"`
	Tags     nws.Tags    `json:"tags"`
}

// Result is a decoded SPS.
type Result struct {
	*nws.TextProduct
	Statements []Statement        `json:"statements"`
	Notes      []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "sps" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes SPS products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "sps" }
func (p *Parser) Prefixes() []string { return []string{"SPS"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool { return true }

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	namer := prod.Namer(opts.UGCs)
	for i := range prod.Segments {
		seg := &prod.Segments[i]
		if len(seg.UGCs) == 0 {
			continue
		}
		st := Statement{
			Segment:  seg.Index,
			UGCs:     seg.UGCs,
			Expire:   seg.UGCExpire,
			Polygon:  seg.Polygon,
			Tags:     seg.Tags,
			Headline: headline(seg),
		}
		res.Statements = append(res.Statements, st)
		res.Notes = append(res.Notes, res.notification(st, namer))
	}
	return res, nil
}

// headline prefers a ...HEADLINE... and falls back to the first line of
// text after the MND block.
func headline(seg *nws.Segment) string {
	if len(seg.Headlines) > 0 {
		return seg.Headlines[0]
	}
	for _, para := range strings.Split(seg.Text, "\n\n") {
		p := strings.TrimSpace(para)
		if p == "" || strings.Contains(p, "SPECIAL WEATHER STATEMENT") || strings.HasPrefix(p, "LAT...LON") {
			continue
		}
		if patterns.WMOPattern.MatchString(p) || patterns.UGCStartPattern.MatchString(p) || patterns.MNDPattern.MatchString(p) {
			continue
		}
		return strings.Join(strings.Fields(p), " ")
	}
	return ""
}

func (r *Result) notification(st Statement, namer nws.UGCNamer) nws.Notification {
	plain := fmt.Sprintf("%s issues Special Weather Statement for %s", r.WFO(), nws.UGCNames(st.UGCs, namer))
	if st.Expire != nil {
		plain += " till " + r.FormatLocal(*st.Expire)
	}
	if st.Headline != "" {
		plain += ": " + st.Headline
	}
	channels := r.BaseChannels()
	for _, u := range st.UGCs {
		channels = append(channels, u.String())
	}
	if len(st.Polygon) > 0 {
		channels = append(channels, "SPS.POLYGON")
	}
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}
