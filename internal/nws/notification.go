package nws

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"nws_parser/internal/geo"
	"nws_parser/internal/reference"
)

// twitterLimit is the maximum length of the short notification variant.
const twitterLimit = 280

// Attributes accompany a notification.
type Attributes struct {
	Channels  []string `json:"channels"`
	Twitter   string   `json:"twitter"`
	ProductID string   `json:"product_id"`
}

// ChannelList renders channels comma separated.
func (a Attributes) ChannelList() string {
	return strings.Join(a.Channels, ",")
}

// Notification is the (plain, html, attributes) triple handed to the
// outbound transport.
type Notification struct {
	Plain      string     `json:"plain"`
	HTML       string     `json:"html"`
	Attributes Attributes `json:"attributes"`
}

// NewNotification builds a triple, deduplicating channels in order and
// clipping the short text.
func NewNotification(plain, htmlText string, channels []string, productID string) Notification {
	return Notification{
		Plain: plain,
		HTML:  htmlText,
		Attributes: Attributes{
			Channels:  uniqueStrings(channels),
			Twitter:   Clip(plain, twitterLimit),
			ProductID: productID,
		},
	}
}

// Clip shortens s to at most n bytes, ending with "..." when cut. The cut
// never splits a UTF-8 sequence.
func Clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	end := n - 3
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// BaseChannels are the routing keys every notification of p carries.
func (p *TextProduct) BaseChannels() []string {
	ch := []string{}
	if p.AFOS != "" {
		ch = append(ch, p.AFOS, p.Category()+"."+p.WFO())
	}
	return append(ch, p.WFO())
}

// UGCNamer resolves a UGC code to a display name.
type UGCNamer interface {
	UGCName(code string) string
}

// ResolverNamer adapts a UGC resolver for a product valid time.
type ResolverNamer struct {
	Resolver geo.UGCResolver
	Valid    time.Time
	Source   string
}

// UGCName implements UGCNamer.
func (n ResolverNamer) UGCName(code string) string {
	if n.Resolver == nil {
		return ""
	}
	r, ok := n.Resolver.UGC(code, n.Valid, n.Source)
	if !ok {
		return ""
	}
	return r.Name
}

// Namer returns a UGCNamer bound to the product.
func (p *TextProduct) Namer(r geo.UGCResolver) UGCNamer {
	return ResolverNamer{Resolver: r, Valid: p.Valid, Source: geo.SourceForProduct(p.AFOS)}
}

// UGCNames renders the names of ugcs through the resolver, falling back
// to codes, grouped by state.
func UGCNames(ugcs []UGC, r UGCNamer) string {
	byState := map[string][]string{}
	var states []string
	for _, u := range ugcs {
		name := u.String()
		if r != nil {
			if n := r.UGCName(u.String()); n != "" {
				name = n
			}
		}
		if _, ok := byState[u.State]; !ok {
			states = append(states, u.State)
		}
		byState[u.State] = append(byState[u.State], name)
	}
	parts := make([]string, 0, len(states))
	for _, st := range states {
		names := byState[st]
		sort.Strings(names)
		parts = append(parts, fmt.Sprintf("%s [%s]", strings.Join(names, ", "), st))
	}
	return strings.Join(parts, ", ")
}

// VTECNotifications renders one notification per VTEC string of every
// segment. Segments without UGCs are skipped.
func (p *TextProduct) VTECNotifications(names UGCNamer) []Notification {
	var out []Notification
	pid := p.ProductID()
	for i := range p.Segments {
		seg := &p.Segments[i]
		if len(seg.UGCs) == 0 {
			continue
		}
		area := UGCNames(seg.UGCs, names)
		for _, v := range seg.VTEC {
			if v.Class != "O" && v.Class != "E" {
				continue
			}
			verb := reference.ActionVerbs[string(v.Action)]
			plain := fmt.Sprintf("%s %s %s (%s) for %s%s", p.WFO(), verb, v.EventName(),
				tagSummary(seg), area, p.untilText(v))
			plain = strings.Replace(plain, " () ", " ", 1)
			htmlText := fmt.Sprintf("<p>%s %s <a href=\"%s\">%s</a> for %s%s</p>",
				html.EscapeString(p.WFO()), html.EscapeString(verb), html.EscapeString(v.String()),
				html.EscapeString(v.EventName()), html.EscapeString(area), html.EscapeString(p.untilText(v)))

			channels := append(p.BaseChannels(),
				v.Phenomena+"."+string(v.Significance),
				v.Phenomena+"."+string(v.Significance)+"."+v.WFO())
			for _, u := range seg.UGCs {
				channels = append(channels, u.String())
			}
			out = append(out, NewNotification(plain, htmlText, channels, pid))
		}
	}
	return out
}

func tagSummary(seg *Segment) string {
	var parts []string
	if seg.Tags.Tornado != "" {
		parts = append(parts, "tornado: "+string(seg.Tags.Tornado))
	}
	if seg.Tags.Damage != "" {
		parts = append(parts, "damage threat: "+string(seg.Tags.Damage))
	}
	if seg.Tags.HailSize != nil {
		parts = append(parts, fmt.Sprintf("hail: %s%.2f IN", seg.Tags.HailComparator, *seg.Tags.HailSize))
	}
	if seg.Tags.WindGust != nil {
		parts = append(parts, fmt.Sprintf("wind: %s%d %s", seg.Tags.WindComparator, *seg.Tags.WindGust, seg.Tags.WindUnits))
	}
	return strings.Join(parts, ", ")
}

func (p *TextProduct) untilText(v VTEC) string {
	if v.End == nil {
		return " until further notice"
	}
	switch v.Action {
	case ActionCan, ActionExp:
		return ""
	}
	local := v.End.In(p.LocalZone())
	if p.TZAbbr == "" {
		return " till " + v.End.UTC().Format("2 Jan 15:04 UTC")
	}
	return " till " + local.Format("3:04 PM") + " " + p.TZAbbr
}

// FormatLocal renders t as "10:55 PM CDT" in the product zone.
func (p *TextProduct) FormatLocal(t time.Time) string {
	if p.TZAbbr == "" {
		return t.UTC().Format("15:04 UTC")
	}
	return t.In(p.LocalZone()).Format("3:04 PM") + " " + p.TZAbbr
}
