// Package ero decodes WPC Excessive Rainfall Outlook point products.
package ero

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"nws_parser/internal/nws"
	"nws_parser/internal/outlook"
	"nws_parser/internal/registry"
)

// Result is a decoded ERO.
type Result struct {
	*nws.TextProduct
	Collections map[int]*outlook.Collection `json:"outlook_collections"`
	Cycle       int                         `json:"cycle"`
	Notes       []nws.Notification          `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "ero" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Outlook finds one outlook by threshold and day.
func (r *Result) Outlook(threshold outlook.Threshold, day int) *outlook.Outlook {
	c, ok := r.Collections[day]
	if !ok {
		return nil
	}
	return c.Get(outlook.Categorical, threshold)
}

// Parser decodes RBG products.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "ero" }
func (p *Parser) Prefixes() []string { return []string{"RBG"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "VALID TIME")
}

var afosDays = map[string]int{"RBG94E": 1, "RBG98E": 2, "RBG99E": 3}

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	dayFn := outlook.DayFromDates(prod.Valid)
	if d, ok := afosDays[prod.AFOS]; ok {
		dayFn = outlook.FixedDay(d)
	}
	cols, err := outlook.Parse(prod, dayFn, opts.UGCs)
	if err != nil {
		return nil, err
	}
	res := &Result{TextProduct: prod, Collections: map[int]*outlook.Collection{}}
	days := make([]int, 0, len(cols))
	for _, c := range cols {
		res.Collections[c.Day] = c
		days = append(days, c.Day)
	}
	sort.Ints(days)
	if len(days) > 0 {
		res.Cycle = Cycle(days[0], prod.Valid.Hour())
	}
	for _, d := range days {
		res.Notes = append(res.Notes, res.notification(res.Collections[d]))
	}
	return res, nil
}

// Cycle maps the issuance hour to the nominal ERO cycle.
func Cycle(day, hour int) int {
	switch day {
	case 1:
		switch {
		case hour < 6:
			return 1
		case hour < 15:
			return 8
		}
		return 16
	case 2, 3:
		if hour < 12 {
			return 8
		}
		return 20
	}
	return -1
}

func (r *Result) notification(c *outlook.Collection) nws.Notification {
	plain := fmt.Sprintf("WPC issues Day %d Excessive Rainfall Outlook valid %s till %s",
		c.Day, c.Issue.Format("02/15Z"), c.Expire.Format("02/15Z"))
	if n := len(c.Outlooks); n > 0 {
		plain += ", highest risk " + string(c.Outlooks[n-1].Threshold)
	}
	channels := append(r.BaseChannels(), fmt.Sprintf("WPC.ERO.D%d", c.Day))
	return nws.NewNotification(plain, "<p>"+html.EscapeString(plain)+"</p>", channels, r.ProductID())
}
