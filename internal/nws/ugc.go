package nws

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/patterns"
)

// UGC is a Universal Geographic Code, SSFNNN.
type UGC struct {
	State  string `json:"state"`
	Class  byte   `json:"class"`
	Number int    `json:"number"`
}

func (u UGC) String() string {
	return fmt.Sprintf("%s%c%03d", u.State, u.Class, u.Number)
}

// MarshalText renders the code form so UGCs serialize as "IAC001".
func (u UGC) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// ParseUGC decodes a single SSFNNN code.
func ParseUGC(code string) (UGC, error) {
	if len(code) != 6 || (code[2] != 'C' && code[2] != 'Z') {
		return UGC{}, fmt.Errorf("%w: ugc %q", ErrUnknownCode, code)
	}
	for i := 0; i < 2; i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return UGC{}, fmt.Errorf("%w: ugc %q", ErrUnknownCode, code)
		}
	}
	n, err := ugcNumber(code[3:])
	if err != nil {
		return UGC{}, err
	}
	return UGC{State: code[:2], Class: code[2], Number: n}, nil
}

func ugcNumber(s string) (int, error) {
	if s == "ALL" {
		return 0, nil
	}
	if len(s) != 3 || !patterns.IsDigits(s) {
		return 0, fmt.Errorf("%w: ugc number %q", ErrUnknownCode, s)
	}
	n, _ := strconv.Atoi(s)
	return n, nil
}

// UGCBlock is the decoded UGC header of a segment.
type UGCBlock struct {
	UGCs   []UGC
	Expire *time.Time
	Raw    string
}

// ExtractUGCBlock finds the UGC lines of a segment. The block may be split
// over several physical lines and always ends with the DDHHMM- expiration.
func ExtractUGCBlock(text string) (string, bool) {
	loc := patterns.UGCStartPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	var b strings.Builder
	for _, line := range strings.Split(text[loc[0]:], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		b.WriteString(line)
		if patterns.UGCExpirePattern.MatchString(line) {
			return b.String(), true
		}
	}
	// No expiration found; accept it only if it looks like pure codes.
	s := b.String()
	if strings.Count(s, "-") > 0 {
		return s, true
	}
	return "", false
}

// ParseUGCBlock tokenizes a joined UGC block such as
// "IAC001-003>005-MNZ010-101200-" against the product valid time.
func ParseUGCBlock(block string, valid time.Time) (UGCBlock, Warnings) {
	var ws Warnings
	out := UGCBlock{Raw: block}
	block = strings.Join(strings.Fields(block), "")

	tokens := strings.Split(block, "-")
	// Trailing empty token from the final dash.
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	if n := len(tokens); n > 0 && len(tokens[n-1]) == 6 && patterns.IsDigits(tokens[n-1]) {
		exp, err := resolveUGCExpire(tokens[n-1], valid)
		if err != nil {
			ws.Add(ErrInvalidTimestamp, "ugc expiration %q: %v", tokens[n-1], err)
		} else {
			out.Expire = exp
		}
		tokens = tokens[:n-1]
	}

	var state string
	var class byte
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		rest := tok
		if len(tok) >= 6 && isAlpha(tok[0]) && isAlpha(tok[1]) && (tok[2] == 'C' || tok[2] == 'Z') {
			state, class = tok[:2], tok[2]
			rest = tok[3:]
		}
		if state == "" {
			ws.Add(ErrUnknownCode, "ugc token %q without state", tok)
			continue
		}
		lo, hi, isRange := strings.Cut(rest, ">")
		a, err := ugcNumber(lo)
		if err != nil {
			ws.Add(ErrUnknownCode, "ugc token %q", tok)
			continue
		}
		b := a
		if isRange {
			if b, err = ugcNumber(hi); err != nil || b < a {
				ws.Add(ErrUnknownCode, "ugc range %q", tok)
				continue
			}
		}
		for n := a; n <= b; n++ {
			out.UGCs = append(out.UGCs, UGC{State: state, Class: class, Number: n})
		}
	}
	return out, ws
}

func isAlpha(c byte) bool { return c >= 'A' && c <= 'Z' }

// resolveUGCExpire anchors DDHHMM to the product valid time. 000000 means
// "until further notice" and decodes to nil.
func resolveUGCExpire(ddhhmm string, valid time.Time) (*time.Time, error) {
	if ddhhmm == "000000" {
		return nil, nil
	}
	dd, _ := strconv.Atoi(ddhhmm[:2])
	hh, _ := strconv.Atoi(ddhhmm[2:4])
	mi, _ := strconv.Atoi(ddhhmm[4:])
	if dd < 1 || dd > 31 || hh > 24 || mi > 59 {
		return nil, fmt.Errorf("out of range")
	}
	month := valid.Month()
	switch {
	case dd < valid.Day()-15:
		month++
	case dd > valid.Day()+15:
		month--
	}
	t := time.Date(valid.Year(), month, dd, hh, mi, 0, 0, time.UTC)
	return &t, nil
}
