package shef

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"nws_parser/internal/nws"
)

// Code is a PEDTSEP parameter key: physical element, duration, type,
// source, extremum and probability.
type Code struct {
	PhysicalElement string `json:"physical_element"`
	Duration        string `json:"duration"`
	Type            string `json:"type"`
	Source          string `json:"source"`
	Extremum        string `json:"extremum"`
	Probability     string `json:"probability"`
}

// Key renders the full seven character parameter code.
func (c Code) Key() string {
	return c.PhysicalElement + c.Duration + c.Type + c.Source + c.Extremum + c.Probability
}

var codeRe = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{0,5}$`)

// durationCodes lists the legal duration letters.
const durationCodes = "IUEGCJHBTFQAKLDWNMYPVSRXZ"

// defaultDurations overrides the instantaneous default for accumulations.
var defaultDurations = map[string]string{
	"PP": "D",
	"PR": "D",
	"SF": "D",
}

// ParseCode expands an abbreviated parameter code with SHEF defaults.
// Physical elements starting with D are reserved for date modifiers.
func ParseCode(tok string) (Code, error) {
	if !codeRe.MatchString(tok) {
		return Code{}, fmt.Errorf("%w: SHEF parameter %q", nws.ErrUnknownCode, tok)
	}
	if tok[0] == 'D' {
		return Code{}, fmt.Errorf("%w: SHEF parameter %q uses reserved D element", nws.ErrUnknownCode, tok)
	}
	c := Code{
		PhysicalElement: tok[:2],
		Duration:        "I",
		Type:            "R",
		Source:          "Z",
		Extremum:        "Z",
		Probability:     "Z",
	}
	if d, ok := defaultDurations[c.PhysicalElement]; ok {
		c.Duration = d
	}
	slots := []*string{&c.Duration, &c.Type, &c.Source, &c.Extremum, &c.Probability}
	for i := 2; i < len(tok); i++ {
		*slots[i-2] = tok[i : i+1]
	}
	if !strings.Contains(durationCodes, c.Duration) {
		return Code{}, fmt.Errorf("%w: SHEF duration %q in %q", nws.ErrUnknownCode, c.Duration, tok)
	}
	return c, nil
}

// pairedElements carry depth.value encodings.
var pairedElements = map[string]bool{
	"HQ": true, "MD": true, "MN": true, "MS": true, "MV": true,
	"NO": true, "ST": true, "TB": true, "TE": true, "TV": true,
}

// splitPaired separates depth and value. The depth is the integer part; the
// value is the fraction in thousandths and takes the sign of the whole.
func splitPaired(v float64) (int, float64) {
	abs := math.Abs(v)
	depth := math.Floor(abs)
	val := math.Round((abs - depth) * 1000)
	if v < 0 {
		val = -val
	}
	return int(depth), val
}

// tensOfDegrees elements report direction in tens of degrees.
var tensOfDegrees = map[string]bool{
	"UH": true,
	"UR": true,
}

type linear struct {
	scale  float64
	offset float64
}

func (l linear) apply(v float64) float64 { return v*l.scale + l.offset }

// siByElement takes precedence over siByCategory.
var siByElement = map[string]linear{
	"PA": {0.2953, 0},
	"PD": {0.2953, 0},
	"PL": {0.2953, 0},
	"SD": {1 / 2.54, 0},
	"SF": {1 / 2.54, 0},
	"SW": {1 / 25.4, 0},
	"UD": {1, 0},
	"XR": {1, 0},
	"XV": {0.621371, 0},
}

// siByCategory converts by the element's first letter.
var siByCategory = map[byte]linear{
	'H': {3.28084, 0},
	'P': {1 / 25.4, 0},
	'Q': {0.0353147, 0},
	'T': {1.8, 32},
	'U': {2.23694, 0},
}

// toEnglish converts an SI value. The second return is false for elements
// without a known conversion, in which case v is returned unchanged.
func toEnglish(pe string, v float64) (float64, bool) {
	if tensOfDegrees[pe] {
		return v, true
	}
	if l, ok := siByElement[pe]; ok {
		return l.apply(v), true
	}
	if l, ok := siByCategory[pe[0]]; ok {
		return l.apply(v), true
	}
	return v, false
}

// qualifierCodes are the data qualifier letters allowed as value suffixes.
const qualifierCodes = "BDEFGLMNPQRSTVWZ"

func isMissing(s string) bool {
	switch s {
	case "M", "MM", "+", "-9999", "-9999.0", "-9999.00":
		return true
	}
	return false
}
