// Package mcd decodes SPC Mesoscale Convective Discussions and WPC
// Mesoscale Precipitation Discussions.
package mcd

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Result is a decoded discussion.
type Result struct {
	*nws.TextProduct
	DiscussionNum int                `json:"discussion_num"`
	AreasAffected string             `json:"areas_affected,omitempty"`
	Concerning    string             `json:"concerning,omitempty"`
	WatchProb     *int               `json:"watch_prob,omitempty"`
	Sts           *time.Time         `json:"sts,omitempty"`
	Ets           *time.Time         `json:"ets,omitempty"`
	AttnWFO       []string           `json:"attn_wfo,omitempty"`
	AttnRFC       []string           `json:"attn_rfc,omitempty"`
	Polygon       orb.Polygon        `json:"-"`
	TornadoTag    string             `json:"most_prob_tornado,omitempty"`
	GustTag       string             `json:"most_prob_gust,omitempty"`
	HailTag       string             `json:"most_prob_hail,omitempty"`
	Notes         []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "mcd" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// IsMPD reports whether this is a WPC precipitation discussion.
func (r *Result) IsMPD() bool { return strings.HasPrefix(r.AFOS, "FFGMPD") }

// Area is the polygon area in square degrees.
func (r *Result) Area() float64 {
	if len(r.Polygon) == 0 {
		return 0
	}
	return planar.Area(r.Polygon)
}

// Parser decodes SWOMCD and FFGMPD products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "mcd" }
func (p *Parser) Prefixes() []string { return []string{"SWOMCD", "FFGMPD"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return discussionRe.MatchString(prod.Text)
}

var (
	discussionRe = regexp.MustCompile(`(?m)^MESOSCALE (?:PRECIPITATION )?DISCUSSION\s+#?([0-9]+)`)
	areasRe      = regexp.MustCompile(`(?s)AREAS AFFECTED\.\.\.(.*?)\n\n`)
	concerningRe = regexp.MustCompile(`(?s)CONCERNING\.\.\.(.*?)\n\n`)
	probRe       = regexp.MustCompile(`PROBABILITY OF (?:WATCH ISSUANCE|ISSUANCE)\.\.\.\s*([0-9]+) PERCENT`)
	validRe      = regexp.MustCompile(`VALID\s+([0-9]{6})Z?\s*-\s*([0-9]{6})Z?`)
	attnRe       = regexp.MustCompile(`(?s)ATTN\.\.\.(.*?)\n\n`)
	tornadoRe    = regexp.MustCompile(`MOST PROBABLE PEAK TORNADO INTENSITY\.\.\.(.*)`)
	gustRe       = regexp.MustCompile(`MOST PROBABLE PEAK WIND GUST\.\.\.(.*)`)
	hailRe       = regexp.MustCompile(`MOST PROBABLE PEAK HAIL SIZE\.\.\.(.*)`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	m := discussionRe.FindStringSubmatch(prod.Text)
	if m == nil {
		return nil, fmt.Errorf("%w: discussion number not found", nws.ErrUnknownCode)
	}
	res := &Result{TextProduct: prod}
	res.DiscussionNum, _ = strconv.Atoi(m[1])

	text := prod.Text + "\n\n"
	if m := areasRe.FindStringSubmatch(text); m != nil {
		res.AreasAffected = patterns.CollapseSpace(m[1])
	}
	if m := concerningRe.FindStringSubmatch(text); m != nil {
		res.Concerning = patterns.CollapseSpace(m[1])
	}
	if m := probRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		if v < 0 || v > 100 {
			prod.Warn(nws.ErrOutOfBounds, "watch probability %d", v)
		} else {
			res.WatchProb = &v
		}
	}
	if m := validRe.FindStringSubmatch(text); m != nil {
		if sts, err := nws.ResolveDDHHMM(m[1], prod.Valid); err == nil {
			res.Sts = &sts
			if ets, err := nws.ResolveDDHHMM(m[2], sts); err == nil {
				res.Ets = &ets
			}
		} else {
			prod.AddWarning(err)
		}
	}
	if m := attnRe.FindStringSubmatch(text); m != nil {
		res.AttnWFO, res.AttnRFC = parseAttn(m[1])
	}
	res.TornadoTag = firstCapture(tornadoRe, text)
	res.GustTag = firstCapture(gustRe, text)
	res.HailTag = firstCapture(hailRe, text)

	poly, err := nws.ParsePolygon(prod.Text)
	if err != nil {
		prod.AddWarning(err)
	}
	res.Polygon = poly

	res.Notes = []nws.Notification{res.notification()}
	return res, nil
}

func firstCapture(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// parseAttn reads "ATTN...WFO...ICT...OUN...RFC...ABRFC..." into office lists.
func parseAttn(s string) ([]string, []string) {
	var wfos, rfcs []string
	target := &wfos
	for _, tok := range strings.Split(patterns.CollapseSpace(s), "...") {
		tok = strings.TrimSpace(tok)
		switch tok {
		case "":
			continue
		case "WFO":
			target = &wfos
			continue
		case "RFC":
			target = &rfcs
			continue
		}
		*target = append(*target, tok)
	}
	return wfos, rfcs
}

func (r *Result) notification() nws.Notification {
	kind := "Mesoscale Discussion"
	center := "SPC"
	if r.IsMPD() {
		kind = "Mesoscale Precipitation Discussion"
		center = "WPC"
	}
	plain := fmt.Sprintf("%s issues %s #%d", center, kind, r.DiscussionNum)
	if r.Concerning != "" {
		plain += " concerning " + strings.ToLower(r.Concerning)
	}
	if r.WatchProb != nil {
		plain += fmt.Sprintf(" [watch probability: %d%%]", *r.WatchProb)
	}
	channels := r.BaseChannels()
	for _, w := range r.AttnWFO {
		channels = append(channels, r.AFOS+"."+w)
	}
	for _, w := range r.AttnRFC {
		channels = append(channels, r.AFOS+"."+w)
	}
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}
