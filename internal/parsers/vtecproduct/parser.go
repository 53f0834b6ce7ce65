// Package vtecproduct is the fallback decoder: the generic envelope plus
// VTEC notifications for any product no family decoder claims.
package vtecproduct

import (
	"fmt"
	"html"

	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

// Result is a generic text product.
type Result struct {
	*nws.TextProduct
	Notes []nws.Notification `json:"notifications,omitempty"`
}

func (r *Result) Type() string                      { return "text" }
func (r *Result) Base() *nws.TextProduct            { return r.TextProduct }
func (r *Result) Notifications() []nws.Notification { return r.Notes }

// Parser is the catch-all decoder.
type Parser struct{}

func init() {
	registry.RegisterCatchAll(&Parser{})
}

func (p *Parser) Name() string                         { return "vtecproduct" }
func (p *Parser) Prefixes() []string                   { return nil }
func (p *Parser) Priority() int                        { return 1000 }
func (p *Parser) QuickCheck(prod *nws.TextProduct) bool { return true }

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	res := &Result{TextProduct: prod}
	if prod.HasVTEC() {
		res.Notes = prod.VTECNotifications(prod.Namer(opts.UGCs))
		return res, nil
	}
	if prod.AFOS == "" {
		return res, nil
	}
	plain := fmt.Sprintf("%s issues %s at %s", prod.WFO(), prod.AFOS, prod.FormatLocal(prod.Valid))
	htmlText := "<p>" + html.EscapeString(plain) + "</p>"
	res.Notes = []nws.Notification{nws.NewNotification(plain, htmlText, prod.BaseChannels(), prod.ProductID())}
	return res, nil
}
