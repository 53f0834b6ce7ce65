package shef

import (
	"fmt"
	"strconv"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

// span is a signed count of calendar units used by DR and DI modifiers.
// Unit E moves to the end of a month.
type span struct {
	unit byte
	n    int
}

func parseSpan(s string) (span, error) {
	if s == "" {
		return span{}, fmt.Errorf("%w: empty SHEF interval", nws.ErrUnknownCode)
	}
	sp := span{unit: s[0]}
	switch sp.unit {
	case 'S', 'N', 'H', 'D', 'M', 'Y', 'E':
	default:
		return span{}, fmt.Errorf("%w: SHEF interval unit %q", nws.ErrUnknownCode, s[:1])
	}
	if rest := s[1:]; rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return span{}, fmt.Errorf("%w: SHEF interval %q", nws.ErrUnknownCode, s)
		}
		sp.n = n
	} else if sp.unit != 'E' {
		sp.n = 1
	}
	return sp, nil
}

func (s span) isZero() bool { return s.unit == 0 }

// apply moves t by k multiples of the span.
func (s span) apply(t time.Time, k int) time.Time {
	n := s.n * k
	switch s.unit {
	case 'S':
		return t.Add(time.Duration(n) * time.Second)
	case 'N':
		return t.Add(time.Duration(n) * time.Minute)
	case 'H':
		return t.Add(time.Duration(n) * time.Hour)
	case 'D':
		return t.AddDate(0, 0, n)
	case 'M':
		return t.AddDate(0, n, 0)
	case 'Y':
		return t.AddDate(n, 0, 0)
	case 'E':
		first := time.Date(t.Year(), t.Month()+time.Month(n)+1, 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
		return first.AddDate(0, 0, -1)
	}
	return t
}

// zones maps SHEF time zone codes to locations. Single letters follow
// daylight saving; the S and D suffixes pin standard or daylight time.
var zones = map[string]*time.Location{
	"Z":  time.UTC,
	"N":  mustLoad("America/St_Johns"),
	"NS": time.FixedZone("NS", -(3*3600 + 1800)),
	"ND": time.FixedZone("ND", -(2*3600 + 1800)),
	"A":  mustLoad("America/Halifax"),
	"AS": time.FixedZone("AS", -4*3600),
	"AD": time.FixedZone("AD", -3*3600),
	"E":  mustLoad("America/New_York"),
	"ES": time.FixedZone("ES", -5*3600),
	"ED": time.FixedZone("ED", -4*3600),
	"C":  mustLoad("America/Chicago"),
	"CS": time.FixedZone("CS", -6*3600),
	"CD": time.FixedZone("CD", -5*3600),
	"M":  mustLoad("America/Denver"),
	"MS": time.FixedZone("MS", -7*3600),
	"MD": time.FixedZone("MD", -6*3600),
	"P":  mustLoad("America/Los_Angeles"),
	"PS": time.FixedZone("PS", -8*3600),
	"PD": time.FixedZone("PD", -7*3600),
	"L":  mustLoad("America/Anchorage"),
	"LS": time.FixedZone("LS", -9*3600),
	"LD": time.FixedZone("LD", -8*3600),
	"H":  mustLoad("Pacific/Honolulu"),
	"HS": time.FixedZone("HS", -10*3600),
	"B":  mustLoad("America/Adak"),
	"BS": time.FixedZone("BS", -10*3600),
	"BD": time.FixedZone("BD", -9*3600),
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// clock is the running date/time and modifier state of one record.
type clock struct {
	anchor time.Time
	loc    *time.Location

	year, month, day     int
	hour, minute, second int

	rel       span
	interval  span
	units     string
	qualifier string
	created   *time.Time
	dv        string
}

func newClock(anchor time.Time, loc *time.Location) *clock {
	hour := 24
	if loc == time.UTC {
		hour = 12
	}
	return &clock{anchor: anchor, loc: loc, hour: hour, units: "E"}
}

// setDate applies a record header date: MMDD, YYMMDD or CCYYMMDD.
func (c *clock) setDate(tok string) error {
	if !patterns.IsDigits(tok) {
		return fmt.Errorf("%w: SHEF date %q", nws.ErrInvalidTimestamp, tok)
	}
	switch len(tok) {
	case 4:
		c.month, c.day = atoi(tok[:2]), atoi(tok[2:])
		c.year = c.nearestYear(c.month, c.day)
	case 6:
		c.year = c.century(atoi(tok[:2]))
		c.month, c.day = atoi(tok[2:4]), atoi(tok[4:])
	case 8:
		c.year = atoi(tok[:4])
		c.month, c.day = atoi(tok[4:6]), atoi(tok[6:])
	default:
		return fmt.Errorf("%w: SHEF date %q", nws.ErrInvalidTimestamp, tok)
	}
	return c.check()
}

// nearestYear picks the year placing month/day within six months of the
// anchor.
func (c *clock) nearestYear(month, day int) int {
	y := c.anchor.Year()
	t := time.Date(y, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	switch {
	case t.Sub(c.anchor) > 183*24*time.Hour:
		y--
	case c.anchor.Sub(t) > 183*24*time.Hour:
		y++
	}
	return y
}

func (c *clock) century(yy int) int {
	y := 2000 + yy
	if y > c.anchor.Year()+10 {
		y -= 100
	}
	return y
}

func (c *clock) check() error {
	if c.month < 1 || c.month > 12 || c.day < 1 || c.day > 31 ||
		c.hour > 24 || c.minute > 59 || c.second > 59 {
		return fmt.Errorf("%w: SHEF date %04d-%02d-%02d %02d:%02d", nws.ErrOutOfBounds, c.year, c.month, c.day, c.hour, c.minute)
	}
	return nil
}

// base is the explicit observation time before relative offsets.
func (c *clock) base() time.Time {
	h, extra := c.hour, 0
	if h == 24 {
		h, extra = 0, 1
	}
	return time.Date(c.year, time.Month(c.month), c.day+extra, h, c.minute, c.second, 0, c.loc)
}

func (c *clock) valid() time.Time {
	t := c.base()
	if !c.rel.isZero() {
		t = c.rel.apply(t, 1)
	}
	return t
}

// modify applies one D modifier token. timeChanged reports whether the
// observation time moved.
func (c *clock) modify(tok string) (timeChanged bool, err error) {
	if len(tok) < 3 || tok[0] != 'D' {
		return false, fmt.Errorf("%w: SHEF modifier %q", nws.ErrUnknownCode, tok)
	}
	arg := tok[2:]
	switch tok[1] {
	case 'S', 'N', 'H', 'D', 'M', 'Y', 'T', 'J':
		if err := c.setFields(tok[1], arg); err != nil {
			return false, err
		}
		c.rel = span{}
		return true, nil
	case 'R':
		sp, err := parseSpan(arg)
		if err != nil {
			return false, err
		}
		c.rel = sp
		return true, nil
	case 'I':
		sp, err := parseSpan(arg)
		if err != nil {
			return false, err
		}
		c.interval = sp
	case 'U':
		if arg != "E" && arg != "S" {
			return false, fmt.Errorf("%w: SHEF unit convention %q", nws.ErrUnknownCode, arg)
		}
		c.units = arg
	case 'Q':
		if len(arg) != 1 || !containsByte(qualifierCodes, arg[0]) {
			return false, fmt.Errorf("%w: SHEF qualifier %q", nws.ErrUnknownCode, arg)
		}
		c.qualifier = arg
	case 'C':
		t, err := c.creation(arg)
		if err != nil {
			return false, err
		}
		c.created = &t
	case 'V':
		if _, err := parseSpan(arg); err != nil {
			return false, err
		}
		c.dv = arg
	default:
		return false, fmt.Errorf("%w: SHEF parameter %q uses reserved D element", nws.ErrUnknownCode, tok)
	}
	return false, nil
}

// setFields applies the digit pairs of a DS/DN/DH/DD/DM/DY/DT/DJ modifier.
// Minutes and seconds not given reset to zero.
func (c *clock) setFields(kind byte, digits string) error {
	if !patterns.IsDigits(digits) {
		return fmt.Errorf("%w: SHEF D%c%s", nws.ErrInvalidTimestamp, kind, digits)
	}
	if kind == 'J' {
		return c.setJulian(digits)
	}
	var yy, ccyy int
	var fields []*int
	switch kind {
	case 'S':
		fields = []*int{&c.second}
	case 'N':
		fields = []*int{&c.minute, &c.second}
	case 'H':
		fields = []*int{&c.hour, &c.minute, &c.second}
	case 'D':
		fields = []*int{&c.day, &c.hour, &c.minute, &c.second}
	case 'M':
		fields = []*int{&c.month, &c.day, &c.hour, &c.minute, &c.second}
	case 'Y':
		fields = []*int{&yy, &c.month, &c.day, &c.hour, &c.minute, &c.second}
	case 'T':
		fields = []*int{&ccyy, &yy, &c.month, &c.day, &c.hour, &c.minute, &c.second}
	}
	n := len(digits) / 2
	if len(digits)%2 != 0 || n == 0 || n > len(fields) {
		return fmt.Errorf("%w: SHEF D%c%s", nws.ErrInvalidTimestamp, kind, digits)
	}
	for i := 0; i < n; i++ {
		*fields[i] = atoi(digits[2*i : 2*i+2])
	}
	for _, f := range fields[n:] {
		if f == &c.minute || f == &c.second {
			*f = 0
		}
	}
	switch kind {
	case 'Y':
		c.year = c.century(yy)
	case 'T':
		c.year = ccyy*100 + yy
	}
	return c.check()
}

func (c *clock) setJulian(digits string) error {
	var doy int
	switch len(digits) {
	case 3:
		doy = atoi(digits)
	case 5:
		c.year, doy = c.century(atoi(digits[:2])), atoi(digits[2:])
	case 7:
		c.year, doy = atoi(digits[:4]), atoi(digits[4:])
	default:
		return fmt.Errorf("%w: SHEF DJ%s", nws.ErrInvalidTimestamp, digits)
	}
	if doy < 1 || doy > 366 {
		return fmt.Errorf("%w: SHEF day of year %d", nws.ErrOutOfBounds, doy)
	}
	t := time.Date(c.year, 1, doy, 0, 0, 0, 0, time.UTC)
	c.month, c.day = int(t.Month()), t.Day()
	return nil
}

// creation decodes a DC stamp: MMDDHHNN, YYMMDDHHNN or CCYYMMDDHHNN.
func (c *clock) creation(digits string) (time.Time, error) {
	if !patterns.IsDigits(digits) {
		return time.Time{}, fmt.Errorf("%w: SHEF DC%s", nws.ErrInvalidTimestamp, digits)
	}
	tmp := *c
	var err error
	switch len(digits) {
	case 4, 6, 8:
		tmp.year = c.anchor.Year()
		err = tmp.setFields('M', digits)
	case 10:
		err = tmp.setFields('Y', digits)
	case 12:
		err = tmp.setFields('T', digits)
	default:
		err = fmt.Errorf("%w: SHEF DC%s", nws.ErrInvalidTimestamp, digits)
	}
	if err != nil {
		return time.Time{}, err
	}
	return tmp.base().UTC(), nil
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func containsByte(set string, b byte) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == b {
			return true
		}
	}
	return false
}
