package registry

import (
	"nws_parser/internal/nws"
)

// Attempt records one decoder considered while routing a product.
type Attempt struct {
	ParserName string `json:"parser"`
	Route      string `json:"route"`
	QuickCheck bool   `json:"quick_check"`
	Matched    bool   `json:"matched"`
	Error      string `json:"error,omitempty"`
}

// Trace lists every decoder the dispatcher would consider for p, in
// routing order, and whether each one produced a record. It runs every
// candidate, so it is meant for debugging only.
func (r *Registry) Trace(p *nws.TextProduct, opts nws.Options) []Attempt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Attempt
	run := func(route string, ps []Parser, check bool) {
		for _, dec := range ps {
			a := Attempt{ParserName: dec.Name(), Route: route, QuickCheck: true}
			if check {
				a.QuickCheck = dec.QuickCheck(p)
			}
			if a.QuickCheck {
				res, err := dec.Parse(p, opts)
				a.Matched = res != nil
				if err != nil {
					a.Error = err.Error()
				}
			}
			out = append(out, a)
		}
	}

	run("cccc:"+p.WMO.CCCC, r.byCenter[p.WMO.CCCC], true)
	for n := len(p.AFOS); n >= 2; n-- {
		run("afos:"+p.AFOS[:n], r.byPrefix[p.AFOS[:n]], true)
	}
	for n := len(p.WMO.TTAAII); n >= 2; n-- {
		run("wmo:"+p.WMO.TTAAII[:n], r.byWMO[p.WMO.TTAAII[:n]], true)
	}
	run("content", r.global, true)
	run("fallback", r.catchAll, false)
	return out
}
