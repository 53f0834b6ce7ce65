// Package sel decodes SPC public watch (SEL) products.
package sel

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

// Result is a decoded watch statement.
type Result struct {
	*nws.TextProduct
	Num       int                `json:"ww_num"`
	WWType    string             `json:"ww_type"`
	IsPDS     bool               `json:"is_pds"`
	IsTest    bool               `json:"is_test"`
	Cancelled bool               `json:"cancelled"`
	Areas     []string           `json:"areas,omitempty"`
	Notes     []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "sel" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes SEL products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "sel" }
func (p *Parser) Prefixes() []string { return []string{"SEL"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return numberRe.MatchString(prod.Text)
}

var numberRe = regexp.MustCompile(`(TORNADO|SEVERE THUNDERSTORM) WATCH (?:NUMBER\s+)?([0-9]+)`)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	m := numberRe.FindStringSubmatch(prod.Text)
	if m == nil {
		return nil, fmt.Errorf("%w: watch number not found", nws.ErrUnknownCode)
	}
	res := &Result{TextProduct: prod, WWType: m[1]}
	res.Num, _ = strconv.Atoi(m[2])
	flat := strings.ReplaceAll(prod.Text, "\n", " ")
	res.IsPDS = strings.Contains(flat, "PARTICULARLY DANGEROUS SITUATION")
	res.IsTest = strings.Contains(flat, "...TEST...") || strings.Contains(flat, "THIS IS A TEST")
	res.Cancelled = strings.Contains(flat, "CANCELLED") || strings.Contains(flat, "CANCELED")

	res.Areas = splitAreas(prod.Text)
	res.Notes = []nws.Notification{res.notification()}
	return res, nil
}

// splitAreas returns the indented lines under the "FOR PORTIONS OF" bullet.
func splitAreas(text string) []string {
	var out []string
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(line, "WATCH FOR PORTIONS OF") {
			continue
		}
		for _, next := range lines[i+1:] {
			if !strings.HasPrefix(next, "  ") || strings.TrimSpace(next) == "" {
				break
			}
			out = append(out, strings.TrimSpace(next))
		}
		break
	}
	return out
}

func (r *Result) notification() nws.Notification {
	verb := "issues"
	if r.Cancelled {
		verb = "cancels"
	}
	label := "Tornado Watch"
	if r.WWType != "TORNADO" {
		label = "Severe Thunderstorm Watch"
	}
	plain := fmt.Sprintf("SPC %s %s %d", verb, label, r.Num)
	if r.IsPDS {
		plain += " (Particularly Dangerous Situation)"
	}
	if len(r.Areas) > 0 {
		plain += " for " + strings.Join(r.Areas, ", ")
	}
	channels := append(r.BaseChannels(), "SPC", fmt.Sprintf("SEL.%d", r.Num))
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}
