package reference

import "strings"

// LSREventTypes is the closed catalog of LSR type text mapped to a one
// letter type code.
var LSREventTypes = map[string]string{
	"AVALANCHE":        "V",
	"BLIZZARD":         "B",
	"BLOWING DUST":     "D",
	"BLOWING SNOW":     "B",
	"COASTAL FLOOD":    "E",
	"DEBRIS FLOW":      "x",
	"DENSE FOG":        "F",
	"DOWNBURST":        "d",
	"DROUGHT":          "u",
	"DUST DEVIL":       "w",
	"DUST STORM":       "2",
	"EXCESSIVE HEAT":   "H",
	"EXTREME COLD":     "X",
	"EXTR WIND CHILL":  "X",
	"FLASH FLOOD":      "F",
	"FLOOD":            "E",
	"FOG":              "F",
	"FREEZE":           "Z",
	"FREEZING DRIZZLE": "5",
	"FREEZING RAIN":    "5",
	"FUNNEL CLOUD":     "C",
	"HAIL":             "H",
	"HEAVY RAIN":       "R",
	"HEAVY SLEET":      "s",
	"HEAVY SNOW":       "S",
	"HIGH ASTR TIDES":  "K",
	"HIGH SURF":        "I",
	"HIGH SUST WINDS":  "N",
	"HURRICANE":        "Q",
	"ICE STORM":        "I",
	"LAKESHORE FLOOD":  "M",
	"LIGHTNING":        "L",
	"LOW ASTR TIDES":   "k",
	"MARINE HAIL":      "h",
	"MARINE TSTM WIND": "m",
	"NON-TSTM WND DMG": "O",
	"NON-TSTM WND GST": "N",
	"RAIN":             "R",
	"RIP CURRENTS":     "r",
	"SEICHE":           "b",
	"SLEET":            "s",
	"SNOW":             "S",
	"SNOW SQUALL":      "q",
	"STORM SURGE":      "E",
	"TORNADO":          "T",
	"TROPICAL STORM":   "Q",
	"TSTM WND DMG":     "D",
	"TSTM WND GST":     "G",
	"TSUNAMI":          "t",
	"WATERSPOUT":       "W",
	"WILDFIRE":         "z",
	"ASHFALL":          "a",
	"OTHER":            "o",
	"SNOW/ICE":         "S",
}

// LSRTypeCode returns the one letter code for a typetext.
func LSRTypeCode(typetext string) (string, bool) {
	c, ok := LSREventTypes[strings.ToUpper(strings.TrimSpace(typetext))]
	return c, ok
}
