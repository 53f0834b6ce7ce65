// Package spcpts decodes SPC convective (PTS) and fire weather (PFW)
// outlook point products.
package spcpts

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"nws_parser/internal/nws"
	"nws_parser/internal/outlook"
	"nws_parser/internal/patterns"
	"nws_parser/internal/registry"
)

// Outlook kinds.
const (
	KindConvective = "C"
	KindFire       = "F"
)

// Result is a decoded outlook product.
type Result struct {
	*nws.TextProduct
	Kind        string                      `json:"outlook_type"`
	Collections map[int]*outlook.Collection `json:"outlook_collections"`
	Cycle       int                         `json:"cycle"`
	Notes       []nws.Notification          `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "spc_outlook" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Days returns the collection days in ascending order.
func (r *Result) Days() []int {
	days := make([]int, 0, len(r.Collections))
	for d := range r.Collections {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Outlook finds one outlook by category, threshold and day.
func (r *Result) Outlook(category string, threshold outlook.Threshold, day int) *outlook.Outlook {
	c, ok := r.Collections[day]
	if !ok {
		return nil
	}
	return c.Get(category, threshold)
}

// Render rebuilds the product from the decoded point segments. The heading
// before the first VALID TIME line is kept as sent.
func (r *Result) Render() []byte {
	head := r.Text
	if i := strings.Index(head, "VALID TIME"); i >= 0 {
		head = head[:i]
	}
	cols := make([]*outlook.Collection, 0, len(r.Collections))
	for _, d := range r.Days() {
		cols = append(cols, r.Collections[d])
	}
	return []byte(patterns.FrameLDM(0, head+outlook.Render(cols)))
}

// Parser decodes PTS and PFW products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "spcpts" }
func (p *Parser) Prefixes() []string { return []string{"PTS", "PFW"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "VALID TIME")
}

var afosDays = map[string]int{
	"PTSDY1": 1, "PTSDY2": 2, "PTSDY3": 3,
	"PFWFD1": 1, "PFWFD2": 2,
}

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod, Kind: KindConvective, Collections: map[int]*outlook.Collection{}}
	if strings.HasPrefix(prod.AFOS, "PFW") {
		res.Kind = KindFire
	}

	dayFn := outlook.DayFromDates(prod.Valid)
	if d, ok := afosDays[prod.AFOS]; ok {
		dayFn = outlook.FixedDay(d)
	}
	cols, err := outlook.Parse(prod, dayFn, opts.UGCs)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		res.Collections[c.Day] = c
	}
	if days := res.Days(); len(days) > 0 {
		res.Cycle = Cycle(res.Kind, days[0], prod.Valid.Hour())
	}
	res.Notes = res.notifications()
	return res, nil
}

// Cycle maps the issuance hour to the nominal outlook cycle.
func Cycle(kind string, day, hour int) int {
	if kind == KindFire {
		switch day {
		case 1:
			if hour < 12 {
				return 7
			}
			return 17
		case 2:
			if hour < 12 {
				return 8
			}
			return 18
		}
		return -1
	}
	switch day {
	case 1:
		switch {
		case hour < 4:
			return 1
		case hour <= 12:
			return 6
		case hour == 13:
			return 13
		case hour < 18:
			return 16
		}
		return 20
	case 2:
		if hour < 12 {
			return 7
		}
		return 17
	case 3:
		if hour < 12 {
			return 7
		}
		return 19
	}
	return 9
}

func (r *Result) notifications() []nws.Notification {
	label := "Convective"
	if r.Kind == KindFire {
		label = "Fire Weather"
	}
	var notes []nws.Notification
	for _, day := range r.Days() {
		c := r.Collections[day]
		highest := ""
		for _, o := range c.Outlooks {
			if o.Category == outlook.Categorical || o.Category == outlook.FireWeather {
				highest = string(o.Threshold)
			}
		}
		plain := fmt.Sprintf("SPC issues Day %d %s Outlook at %s", day, label, r.Valid.Format("15:04Z"))
		if highest != "" {
			plain += fmt.Sprintf(", highest risk %s", highest)
		}
		channels := append(r.BaseChannels(), fmt.Sprintf("SPC.%s.D%d", r.Kind, day))
		for _, o := range c.Outlooks {
			for _, w := range o.WFOs {
				channels = append(channels, "SPC"+w)
			}
		}
		notes = append(notes, nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID()))
	}
	return notes
}
