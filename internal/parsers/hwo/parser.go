// Package hwo decodes Hazardous Weather Outlooks.
package hwo

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Outlook is one HWO segment.
type Outlook struct {
	Segment        int       `json:"segment"`
	UGCs           []nws.UGC `json:"ugcs"`
	DayOne         string    `json:"day_one,omitempty"`
	DaysTwoToSeven string    `json:"days_two_seven,omitempty"`
	Spotter        string    `json:"spotter,omitempty"`
	SpotterNeeded  bool      `json:"spotter_activation"`
}

// Result is a decoded HWO.
type Result struct {
	*nws.TextProduct
	Outlooks []Outlook          `json:"outlooks"`
	Notes    []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "hwo" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes HWO products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "hwo" }
func (p *Parser) Prefixes() []string { return []string{"HWO"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool { return true }

var sectionRe = regexp.MustCompile(`(?m)^\.(DAY ONE|DAYS TWO THROUGH SEVEN|SPOTTER INFORMATION STATEMENT)\.\.\.`)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	namer := prod.Namer(opts.UGCs)
	for i := range prod.Segments {
		seg := &prod.Segments[i]
		if len(seg.UGCs) == 0 {
			continue
		}
		o := Outlook{Segment: seg.Index, UGCs: seg.UGCs}
		for name, body := range sections(seg.Text) {
			switch name {
			case "DAY ONE":
				o.DayOne = body
			case "DAYS TWO THROUGH SEVEN":
				o.DaysTwoToSeven = body
			case "SPOTTER INFORMATION STATEMENT":
				o.Spotter = body
			}
		}
		o.SpotterNeeded = o.Spotter != "" && !strings.Contains(o.Spotter, "NOT EXPECTED") &&
			!strings.Contains(o.Spotter, "NOT ANTICIPATED")
		res.Outlooks = append(res.Outlooks, o)
		res.Notes = append(res.Notes, res.notification(o, namer))
	}
	return res, nil
}

// sections returns the text of each .SECTION... block, collapsed to a
// single line.
func sections(text string) map[string]string {
	out := map[string]string{}
	locs := sectionRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := text[loc[1]:end]
		if j := strings.Index(body, "$$"); j >= 0 {
			body = body[:j]
		}
		out[text[loc[2]:loc[3]]] = patterns.CollapseSpace(body)
	}
	return out
}

func (r *Result) notification(o Outlook, namer nws.UGCNamer) nws.Notification {
	plain := fmt.Sprintf("%s issues Hazardous Weather Outlook (HWO) for %s", r.WFO(), nws.UGCNames(o.UGCs, namer))
	if o.SpotterNeeded {
		plain += ", spotter activation possible"
	}
	channels := r.BaseChannels()
	for _, u := range o.UGCs {
		channels = append(channels, "HWO."+u.String())
	}
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}
