// Package saw decodes SPC Aviation Watch (SAW) products, the first
// notice of a tornado or severe thunderstorm watch.
package saw

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
	"nws_parser/internal/registry"
)

// WatchType is the kind of watch.
type WatchType string

const (
	Tornado      WatchType = "TORNADO"
	SevereTstorm WatchType = "SEVERE THUNDERSTORM"
)

// Action is what the SAW does to the watch.
type Action string

const (
	Issues   Action = "ISSUES"
	Cancels  Action = "CANCELS"
	Replaces Action = "REPLACES"
)

// Result is a decoded SAW.
type Result struct {
	*nws.TextProduct
	Num      int                `json:"ww_num"`
	WWType   WatchType          `json:"ww_type"`
	Action   Action             `json:"action"`
	Sts      time.Time          `json:"sts"`
	Ets      time.Time          `json:"ets"`
	Replaces []int              `json:"replaces,omitempty"`
	Hail     *float64           `json:"hail_size,omitempty"`
	Gust     *int               `json:"max_gust_kt,omitempty"`
	Tops     *int               `json:"max_tops,omitempty"`
	Motion   string             `json:"storm_motion,omitempty"`
	Polygon  orb.Polygon        `json:"-"`
	Notes    []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "saw" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Area is the watch polygon area in square degrees.
func (r *Result) Area() float64 {
	if len(r.Polygon) == 0 {
		return 0
	}
	return planar.Area(r.Polygon)
}

// Parser decodes SAW products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "saw" }
func (p *Parser) Prefixes() []string { return []string{"SAW"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return wwRe.MatchString(prod.Text) || cancelRe.MatchString(prod.Text)
}

var (
	wwRe       = regexp.MustCompile(`(?m)^WW\s+([0-9]+)\s+(?:TEST\s+)?(TORNADO|SEVERE TSTM|SEVERE THUNDERSTORM)\b.*?([0-9]{6})Z\s*-\s*([0-9]{6})Z`)
	cancelRe   = regexp.MustCompile(`(?m)^CANCEL\s+WW\s+([0-9]+)`)
	replacesRe = regexp.MustCompile(`REPLACES WW\s+([0-9 ,]+)`)
	hailRe     = regexp.MustCompile(`HAIL SURFACE AND ALOFT\.\.([0-9.]+) INCH`)
	gustRe     = regexp.MustCompile(`WIND GUSTS\.\.([0-9]+) KNOTS`)
	topsRe     = regexp.MustCompile(`MAX TOPS TO ([0-9]+)`)
	motionRe   = regexp.MustCompile(`MEAN STORM MOTION VECTOR ([0-9]{5})`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}

	if m := cancelRe.FindStringSubmatch(prod.Text); m != nil {
		res.Action = Cancels
		res.Num, _ = strconv.Atoi(m[1])
		res.Sts = prod.Valid
		res.Ets = prod.Valid
		res.Notes = []nws.Notification{res.notification()}
		return res, nil
	}

	m := wwRe.FindStringSubmatch(prod.Text)
	if m == nil {
		return nil, fmt.Errorf("%w: watch line not found", nws.ErrUnknownCode)
	}
	res.Action = Issues
	res.Num, _ = strconv.Atoi(m[1])
	res.WWType = SevereTstorm
	if m[2] == "TORNADO" {
		res.WWType = Tornado
	}
	sts, err := nws.ResolveDDHHMM(m[3], prod.Valid)
	if err != nil {
		return nil, err
	}
	ets, err := nws.ResolveDDHHMM(m[4], sts)
	if err != nil {
		return nil, err
	}
	if !ets.After(sts) {
		prod.Warn(nws.ErrInvalidTimestamp, "watch %d ends %s before it starts", res.Num, ets.Format(time.RFC3339))
	}
	res.Sts, res.Ets = sts, ets

	if m := replacesRe.FindStringSubmatch(prod.Text); m != nil {
		for _, tok := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ' ' || r == ',' }) {
			if n, err := strconv.Atoi(tok); err == nil {
				res.Replaces = append(res.Replaces, n)
			}
		}
		if len(res.Replaces) > 0 {
			res.Action = Replaces
		}
	}
	if m := hailRe.FindStringSubmatch(prod.Text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			res.Hail = &v
		}
	}
	res.Gust = atoiPtr(gustRe, prod.Text)
	res.Tops = atoiPtr(topsRe, prod.Text)
	if m := motionRe.FindStringSubmatch(prod.Text); m != nil {
		res.Motion = m[1][:3] + "/" + m[1][3:]
	}

	poly, err := nws.ParsePolygon(prod.Text)
	if err != nil {
		prod.AddWarning(err)
	}
	res.Polygon = poly

	res.Notes = []nws.Notification{res.notification()}
	return res, nil
}

func atoiPtr(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

func (r *Result) label() string {
	if r.WWType == Tornado {
		return "Tornado Watch"
	}
	return "Severe Thunderstorm Watch"
}

func (r *Result) notification() nws.Notification {
	var plain string
	switch r.Action {
	case Cancels:
		plain = fmt.Sprintf("SPC cancels Watch %d", r.Num)
	case Replaces:
		plain = fmt.Sprintf("SPC issues %s %d till %s, replaces watch %d",
			r.label(), r.Num, r.Ets.UTC().Format("15:04Z"), r.Replaces[0])
	default:
		plain = fmt.Sprintf("SPC issues %s %d till %s", r.label(), r.Num, r.Ets.UTC().Format("15:04Z"))
	}
	channels := append(r.BaseChannels(), "SPC", fmt.Sprintf("SAW.%d", r.Num))
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}
