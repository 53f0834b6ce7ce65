// Package spacewx decodes Space Weather Prediction Center messages.
package spacewx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/registry"
)

// Message is one SWPC alert, watch, warning or summary.
type Message struct {
	Code    string            `json:"message_code"`
	Serial  int               `json:"serial_number"`
	Issued  time.Time         `json:"issue_time"`
	Kind    string            `json:"kind"`
	Title   string            `json:"title"`
	Details map[string]string `json:"details,omitempty"`
	Body    string            `json:"body"`
}

// Result is a decoded SWPC product.
type Result struct {
	*nws.TextProduct
	Message Message `json:"message"`
}

func (r *Result) Type() string           { return "spacewx" }
func (r *Result) Base() *nws.TextProduct { return r.TextProduct }

func (r *Result) Notifications() []nws.Notification {
	m := r.Message
	plain := fmt.Sprintf("SWPC issues %s: %s", m.Kind, m.Title)
	if m.Serial > 0 {
		plain += fmt.Sprintf(" (serial %d)", m.Serial)
	}
	channels := []string{"WNP"}
	if m.Code != "" {
		channels = append(channels, "WNP."+m.Code)
	}
	return []nws.Notification{nws.NewNotification(plain, plain, channels, r.ProductID())}
}

// Parser claims every product from the SWPC center.
type Parser struct{}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string       { return "spacewx" }
func (p *Parser) Prefixes() []string { return nil }
func (p *Parser) Centers() []string  { return []string{"KWNP"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(prod *nws.TextProduct) bool {
	return strings.Contains(prod.Text, "Space Weather Message Code:")
}

var (
	codeRe   = regexp.MustCompile(`(?m)^Space Weather Message Code:\s*(\S+)`)
	serialRe = regexp.MustCompile(`(?m)^Serial Number:\s*([0-9]+)`)
	issueRe  = regexp.MustCompile(`(?m)^Issue Time:\s*([0-9]{4} [A-Za-z]{3} [0-9]{1,2} [0-9]{4}) UTC`)
	titleRe  = regexp.MustCompile(`(?m)^((?:EXTENDED |CANCEL )?(?:ALERT|WARNING|WATCH|SUMMARY)):\s*(.+)$`)
	detailRe = regexp.MustCompile(`^([A-Z][A-Za-z ]+):\s*(.+)$`)
)

func (p *Parser) Parse(prod *nws.TextProduct, opts nws.Options) (registry.Result, error) {
	cm := codeRe.FindStringSubmatch(prod.Text)
	if cm == nil {
		return nil, nil
	}
	msg := Message{Code: cm[1], Issued: prod.Valid}
	if sm := serialRe.FindStringSubmatch(prod.Text); sm != nil {
		msg.Serial, _ = strconv.Atoi(sm[1])
	}
	if im := issueRe.FindStringSubmatch(prod.Text); im != nil {
		t, err := time.Parse("2006 Jan 2 1504", im[1])
		if err != nil {
			prod.Warn(nws.ErrInvalidTimestamp, "SWPC issue time %q", im[1])
		} else {
			msg.Issued = t
		}
	}

	loc := titleRe.FindStringSubmatchIndex(prod.Text)
	if loc == nil {
		prod.Warn(nws.ErrUnknownCode, "SWPC message %s has no title line", msg.Code)
		msg.Kind = "MESSAGE"
		return &Result{TextProduct: prod, Message: msg}, nil
	}
	msg.Kind = prod.Text[loc[2]:loc[3]]
	msg.Title = strings.TrimSpace(prod.Text[loc[4]:loc[5]])
	body := strings.TrimSpace(prod.Text[loc[1]:])
	msg.Body = body
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if m := detailRe.FindStringSubmatch(line); m != nil {
			if msg.Details == nil {
				msg.Details = map[string]string{}
			}
			msg.Details[m[1]] = strings.TrimSpace(m[2])
		}
	}
	return &Result{TextProduct: prod, Message: msg}, nil
}
