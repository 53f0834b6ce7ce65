// Package wwp decodes SPC watch probability (WWP) products.
package wwp

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

// Result is a decoded watch probability table.
type Result struct {
	*nws.TextProduct
	Num          int                `json:"ww_num"`
	WWType       string             `json:"ww_type"`
	Prob2Torn    *int               `json:"prob_2torn,omitempty"`
	Prob1STorn   *int               `json:"prob_1storn,omitempty"`
	Prob10Wind   *int               `json:"prob_10wind,omitempty"`
	Prob1SigWind *int               `json:"prob_1sigwind,omitempty"`
	Prob10Hail   *int               `json:"prob_10hail,omitempty"`
	Prob1SigHail *int               `json:"prob_1sighail,omitempty"`
	Prob6Combo   *int               `json:"prob_6comb,omitempty"`
	MaxHail      *float64           `json:"max_hail_size,omitempty"`
	MaxGust      *int               `json:"max_wind_gust_knots,omitempty"`
	MaxTops      *int               `json:"max_tops_feet,omitempty"`
	MotionDrct   *int               `json:"storm_motion_drct,omitempty"`
	MotionSknt   *int               `json:"storm_motion_sknt,omitempty"`
	IsPDS        bool               `json:"is_pds"`
	Notes        []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "wwp" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes WWP products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "wwp" }
func (p *Parser) Prefixes() []string { return []string{"WWP"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "PROBABILITY TABLE")
}

var (
	headerRe = regexp.MustCompile(`(?m)^(WT|WS)\s+([0-9]{4})`)
	rowRe    = regexp.MustCompile(`(?m)^(.+?)\s*:\s*(\S+)\s*$`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	m := headerRe.FindStringSubmatch(prod.Text)
	if m == nil {
		return nil, fmt.Errorf("%w: WWP watch header not found", nws.ErrUnknownCode)
	}
	res := &Result{TextProduct: prod, WWType: "TORNADO"}
	if m[1] == "WS" {
		res.WWType = "SEVERE THUNDERSTORM"
	}
	res.Num, _ = strconv.Atoi(m[2])

	for _, row := range rowRe.FindAllStringSubmatch(prod.Text, -1) {
		label := strings.Join(strings.Fields(row[1]), " ")
		value := row[2]
		switch {
		case strings.HasPrefix(label, "PROB OF 2 OR MORE TORNADOES"):
			res.Prob2Torn = percent(prod, label, value)
		case strings.HasPrefix(label, "PROB OF 1 OR MORE STRONG"):
			res.Prob1STorn = percent(prod, label, value)
		case strings.HasPrefix(label, "PROB OF 10 OR MORE SEVERE WIND"):
			res.Prob10Wind = percent(prod, label, value)
		case strings.HasPrefix(label, "PROB OF 1 OR MORE WIND EVENTS"):
			res.Prob1SigWind = percent(prod, label, value)
		case strings.HasPrefix(label, "PROB OF 10 OR MORE SEVERE HAIL"):
			res.Prob10Hail = percent(prod, label, value)
		case strings.HasPrefix(label, "PROB OF 1 OR MORE HAIL EVENTS"):
			res.Prob1SigHail = percent(prod, label, value)
		case strings.HasPrefix(label, "PROB OF 6 OR MORE COMBINED"):
			res.Prob6Combo = percent(prod, label, value)
		case strings.HasPrefix(label, "MAX HAIL"):
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				res.MaxHail = &v
			}
		case strings.HasPrefix(label, "MAX WIND GUSTS"):
			res.MaxGust = atoi(value)
		case strings.HasPrefix(label, "MAX TOPS"):
			if v := atoi(value); v != nil {
				feet := *v * 100
				res.MaxTops = &feet
			}
		case strings.HasPrefix(label, "MEAN STORM MOTION VECTOR"):
			if len(value) == 5 {
				res.MotionDrct = atoi(value[:3])
				res.MotionSknt = atoi(value[3:])
			}
		case strings.HasPrefix(label, "PARTICULARLY DANGEROUS SITUATION"):
			res.IsPDS = value == "YES"
		}
	}
	res.Notes = []nws.Notification{res.notification()}
	return res, nil
}

func percent(prod *nws.TextProduct, label, value string) *int {
	v := atoi(strings.TrimSuffix(strings.TrimPrefix(value, "<"), "%"))
	if v == nil {
		prod.Warn(nws.ErrUnknownCode, "%s: %q", label, value)
		return nil
	}
	if *v < 0 || *v > 100 {
		prod.Warn(nws.ErrOutOfBounds, "%s: %d%%", label, *v)
		return nil
	}
	return v
}

func atoi(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func (r *Result) notification() nws.Notification {
	plain := fmt.Sprintf("SPC issues watch probabilities for watch %d", r.Num)
	if r.Prob2Torn != nil {
		plain += fmt.Sprintf(", 2+ tornadoes %d%%", *r.Prob2Torn)
	}
	if r.Prob6Combo != nil {
		plain += fmt.Sprintf(", 6+ severe events %d%%", *r.Prob6Combo)
	}
	channels := append(r.BaseChannels(), fmt.Sprintf("WWP.%d", r.Num))
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}
