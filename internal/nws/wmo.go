package nws

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/patterns"
)

// WMOHeader is the abbreviated heading TTAAII CCCC DDHHMM [BBB].
type WMOHeader struct {
	TTAAII string `json:"ttaaii"`
	CCCC   string `json:"cccc"`
	DDHHMM string `json:"ddhhmm"`
	BBB    string `json:"bbb,omitempty"`
}

func (h WMOHeader) String() string {
	s := h.TTAAII + " " + h.CCCC + " " + h.DDHHMM
	if h.BBB != "" {
		s += " " + h.BBB
	}
	return s
}

// wmoScanLimit bounds how far into the product the heading may start.
const wmoScanLimit = 100

// ParseWMOHeader locates the WMO heading in the first 100 characters.
func ParseWMOHeader(text string) (WMOHeader, int, error) {
	head := text
	if len(head) > wmoScanLimit+40 {
		head = head[:wmoScanLimit+40]
	}
	loc := patterns.WMOPattern.FindStringSubmatchIndex(head)
	if loc == nil || loc[0] > wmoScanLimit {
		return WMOHeader{}, 0, fmt.Errorf("%w: WMO heading not found", ErrInvalidEnvelope)
	}
	sub := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return head[loc[2*i]:loc[2*i+1]]
	}
	return WMOHeader{
		TTAAII: sub(1),
		CCCC:   sub(2),
		DDHHMM: sub(3),
		BBB:    sub(4),
	}, loc[1], nil
}

// ResolveDDHHMM anchors a day-hour-minute stamp to a month using now.
// A day early in the month seen late in the anchor's month belongs to the
// following month; a late day seen early in the anchor's month belongs to
// the previous one.
func ResolveDDHHMM(ddhhmm string, now time.Time) (time.Time, error) {
	if len(ddhhmm) != 6 || !patterns.IsDigits(ddhhmm) {
		return time.Time{}, fmt.Errorf("%w: bad ddhhmm %q", ErrInvalidTimestamp, ddhhmm)
	}
	dd, _ := strconv.Atoi(ddhhmm[:2])
	hh, _ := strconv.Atoi(ddhhmm[2:4])
	mi, _ := strconv.Atoi(ddhhmm[4:])
	if dd < 1 || dd > 31 || hh > 23 || mi > 59 {
		return time.Time{}, fmt.Errorf("%w: ddhhmm %q out of range", ErrInvalidTimestamp, ddhhmm)
	}
	now = now.UTC()
	year, month := now.Year(), now.Month()
	switch {
	case dd < 5 && now.Day() > 25:
		month++
	case dd > 25 && now.Day() < 5:
		month--
	}
	t := time.Date(year, month, dd, hh, mi, 0, 0, time.UTC)
	// time.Date normalises Feb 30 into March; that is not a real stamp.
	if t.Day() != dd {
		return time.Time{}, fmt.Errorf("%w: day %d not in month", ErrInvalidTimestamp, dd)
	}
	return t, nil
}

var monthAbbr = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// MND is a decoded Mass News Dissemination date line.
type MND struct {
	UTC    time.Time
	Local  time.Time
	TZAbbr string
	Loc    *time.Location
}

// ParseMND finds and decodes the first MND line in text.
func ParseMND(text string) (*MND, error) {
	m := patterns.MNDPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	clock := strings.ReplaceAll(m[1], ":", "")
	var hh, mi int
	switch len(clock) {
	case 1, 2:
		hh, _ = strconv.Atoi(clock)
	case 3, 4:
		hh, _ = strconv.Atoi(clock[:len(clock)-2])
		mi, _ = strconv.Atoi(clock[len(clock)-2:])
	default:
		return nil, fmt.Errorf("%w: MND clock %q", ErrInvalidTimestamp, m[1])
	}
	if hh < 1 || hh > 12 || mi > 59 {
		return nil, fmt.Errorf("%w: MND clock %q", ErrInvalidTimestamp, m[1])
	}
	if hh == 12 {
		hh = 0
	}
	if m[2] == "PM" {
		hh += 12
	}
	month, ok := monthAbbr[m[4]]
	if !ok {
		return nil, fmt.Errorf("%w: MND month %q", ErrInvalidTimestamp, m[4])
	}
	day, _ := strconv.Atoi(m[5])
	year, _ := strconv.Atoi(m[6])
	if day < 1 || day > 31 {
		return nil, fmt.Errorf("%w: MND day %d", ErrInvalidTimestamp, day)
	}

	abbr := m[3]
	loc, err := patterns.LoadTimezone(abbr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}
	utc, err := patterns.LocalToUTC(year, month, day, hh, mi, abbr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}
	wall := time.Date(year, month, day, hh, mi, 0, 0, time.UTC)
	return &MND{
		UTC:    utc,
		Local:  utc.In(time.FixedZone(abbr, int(wall.Sub(utc)/time.Second))),
		TZAbbr: abbr,
		Loc:    loc,
	}, nil
}
