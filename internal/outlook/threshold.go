// Package outlook decodes the point sections shared by SPC convective and
// fire weather outlooks and WPC excessive rainfall outlooks.
package outlook

import (
	"fmt"
	"strings"

	"nws_parser/internal/nws"
)

// Threshold is a probability or category label such as "0.15" or "ENH".
type Threshold string

// Thresholds in ascending severity.
var thresholdOrder = []Threshold{
	"0.02", "0.05", "0.10", "0.15", "0.25", "0.30", "0.35", "0.40", "0.45", "0.60",
	"TSTM", "MRGL", "SLGT", "ENH", "MDT", "HIGH",
	"IDRT", "SDRT", "ELEV", "CRIT", "EXTM",
	"SIGN",
}

var thresholdRank = func() map[Threshold]int {
	m := make(map[Threshold]int, len(thresholdOrder))
	for i, t := range thresholdOrder {
		m[t] = i
	}
	return m
}()

// ParseThreshold validates a threshold label.
func ParseThreshold(s string) (Threshold, error) {
	t := Threshold(strings.TrimSpace(s))
	if _, ok := thresholdRank[t]; !ok {
		return "", fmt.Errorf("%w: outlook threshold %q", nws.ErrUnknownCode, s)
	}
	return t, nil
}

// Rank orders thresholds by severity.
func (t Threshold) Rank() int {
	if r, ok := thresholdRank[t]; ok {
		return r
	}
	return -1
}

// Layered reports whether the threshold nests inside lower ones of its
// category. Hatched significant areas and dry thunderstorm areas stand
// alone.
func (t Threshold) Layered() bool {
	switch t {
	case "SIGN", "IDRT", "SDRT", "":
		return false
	}
	return true
}

// Categories seen in outlook products.
const (
	Categorical = "CATEGORICAL"
	Tornado     = "TORNADO"
	Hail        = "HAIL"
	Wind        = "WIND"
	AnySevere   = "ANY SEVERE"
	FireWeather = "FIRE WEATHER"
	DryThunder  = "DRY THUNDERSTORM"
)

var categoryAliases = map[string]string{
	"CATEGORICAL":                   Categorical,
	"TORNADO":                       Tornado,
	"HAIL":                          Hail,
	"WIND":                          Wind,
	"ANY SEVERE":                    AnySevere,
	"SEVERE":                        AnySevere,
	"TOTAL SEVERE":                  AnySevere,
	"WINDRH":                        FireWeather,
	"FIRE WEATHER":                  FireWeather,
	"CRITICAL FIRE WEATHER AREA":    FireWeather,
	"DRYT":                          DryThunder,
	"DRY THUNDERSTORM":              DryThunder,
	"DRY THUNDERSTORM FIRE WEATHER": DryThunder,
}

// ParseCategory normalizes a "... HAIL ..." section label.
func ParseCategory(s string) (string, bool) {
	c, ok := categoryAliases[strings.TrimSpace(s)]
	return c, ok
}
