package patterns

import (
	"math"
	"strconv"
	"strings"
)

// TraceValue represents a trace amount of precipitation (inches).
const TraceValue = 0.0001

// VariableWind is the wind direction sentinel for "VRB" reports. Valid
// directions are 0 to 360.
const VariableWind = -1

// Missing returns true for the text product missing markers "M", "MM" and
// an empty field. All-nines values are real numbers here; fixed-format
// records declare their sentinel per field through FixedInt.
func Missing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "M" || s == "MM"
}

// ParseFloat parses a number, returning nil for sentinels and garbage.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if Missing(s) {
		return nil
	}
	if s == "T" || s == "TRACE" {
		v := TraceValue
		return &v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ParseInt parses an integer, returning nil for sentinels and garbage.
func ParseInt(s string) *int {
	s = strings.TrimSpace(s)
	if Missing(s) {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return nil
	}
	return &v
}

// FixedInt parses a fixed-format integer field whose missing value is
// sentinel. The sign is ignored when comparing, so "+9999" matches "9999".
func FixedInt(s, sentinel string) *int {
	if strings.TrimLeft(strings.TrimSpace(s), "+-") == sentinel {
		return nil
	}
	return ParseInt(s)
}

// FixedScaled is FixedInt divided by scale.
func FixedScaled(s, sentinel string, scale float64) *float64 {
	i := FixedInt(s, sentinel)
	if i == nil {
		return nil
	}
	v := float64(*i) / scale
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Round rounds v to the given number of decimals.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
