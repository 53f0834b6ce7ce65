// Package nhc decodes tropical cyclone public advisories (TCP) and
// updates (TCU).
package nhc

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Result is a decoded advisory.
type Result struct {
	*nws.TextProduct
	StormType   string             `json:"storm_type"`
	StormName   string             `json:"storm_name"`
	StormID     string             `json:"storm_id,omitempty"`
	Advisory    string             `json:"advisory_num,omitempty"`
	IsUpdate    bool               `json:"is_update"`
	Center      *orb.Point         `json:"-"`
	MaxWindMPH  *int               `json:"max_sustained_mph,omitempty"`
	MovementDir string             `json:"movement_dir,omitempty"`
	MovementDeg *int               `json:"movement_drct,omitempty"`
	MovementMPH *int               `json:"movement_mph,omitempty"`
	PressureMB  *int               `json:"min_pressure_mb,omitempty"`
	Headline    string             `json:"headline,omitempty"`
	Notes       []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "tropical" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser decodes TCP and TCU products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "nhc" }
func (p *Parser) Prefixes() []string { return []string{"TCP", "TCU"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return titleRe.MatchString(prod.Text)
}

var (
	titleRe    = regexp.MustCompile(`(?m)^((?:POTENTIAL |POST-)?(?:TROPICAL|SUBTROPICAL) (?:DEPRESSION|STORM|CYCLONE)|HURRICANE|TYPHOON|SUPER TYPHOON|REMNANTS OF) ([A-Z0-9-]+)(?: (?:INTERMEDIATE )?ADVISORY NUMBER\s+([0-9]+[A-Z]?)| TROPICAL CYCLONE UPDATE| SPECIAL ADVISORY NUMBER\s+([0-9]+[A-Z]?))?`)
	stormIDRe  = regexp.MustCompile(`\b((?:AL|EP|CP)[0-9]{6})\b`)
	locationRe = regexp.MustCompile(`LOCATION\.\.\.([0-9.]+[NS])\s+([0-9.]+[EW])`)
	windRe     = regexp.MustCompile(`MAXIMUM SUSTAINED WINDS\.\.\.([0-9]+) MPH`)
	moveRe     = regexp.MustCompile(`PRESENT MOVEMENT\.\.\.(?:([A-Z]+) OR ([0-9]+) DEGREES AT ([0-9]+) MPH|(STATIONARY))`)
	pressureRe = regexp.MustCompile(`MINIMUM CENTRAL PRESSURE\.\.\.([0-9]+) MB`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	m := titleRe.FindStringSubmatch(prod.Text)
	if m == nil {
		return nil, fmt.Errorf("%w: storm title not found", nws.ErrUnknownCode)
	}
	res := &Result{
		TextProduct: prod,
		StormType:   m[1],
		StormName:   m[2],
		Advisory:    m[3],
		IsUpdate:    strings.HasPrefix(prod.AFOS, "TCU") || strings.Contains(m[0], "TROPICAL CYCLONE UPDATE"),
	}
	if m[4] != "" {
		res.Advisory = m[4]
	}
	if m := stormIDRe.FindStringSubmatch(prod.Text); m != nil {
		res.StormID = m[1]
	}
	if m := locationRe.FindStringSubmatch(prod.Text); m != nil {
		lat, err1 := patterns.ParseDecimalCoord(m[1], "")
		lon, err2 := patterns.ParseDecimalCoord(m[2], "")
		switch {
		case err1 != nil || err2 != nil:
			prod.Warn(nws.ErrInvalidGeometry, "storm location %s %s", m[1], m[2])
		case lat < -90 || lat > 90 || lon <= -180 || lon > 180:
			prod.Warn(nws.ErrOutOfBounds, "storm location %s %s", m[1], m[2])
		default:
			res.Center = &orb.Point{lon, lat}
		}
	}
	res.MaxWindMPH = capture(windRe, prod.Text)
	res.PressureMB = capture(pressureRe, prod.Text)
	if m := moveRe.FindStringSubmatch(prod.Text); m != nil {
		if m[4] != "" {
			res.MovementDir = m[4]
		} else {
			res.MovementDir = m[1]
			res.MovementDeg = atoi(m[2])
			res.MovementMPH = atoi(m[3])
		}
	}
	if hl := nws.ParseHeadlines(prod.Text); len(hl) > 0 {
		res.Headline = hl[0]
	}
	res.Notes = []nws.Notification{res.notification()}
	return res, nil
}

func capture(re *regexp.Regexp, text string) *int {
	if m := re.FindStringSubmatch(text); m != nil {
		return atoi(m[1])
	}
	return nil
}

func atoi(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func (r *Result) notification() nws.Notification {
	kind := "Advisory " + r.Advisory
	if r.IsUpdate {
		kind = "Update"
	}
	name := strings.TrimSpace(titleCase(r.StormType) + " " + titleCase(r.StormName))
	plain := fmt.Sprintf("NHC issues %s %s", name, kind)
	if r.Headline != "" {
		plain += ": " + r.Headline
	}
	channels := r.BaseChannels()
	if r.StormID != "" {
		channels = append(channels, "NHC."+r.StormID)
	}
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
