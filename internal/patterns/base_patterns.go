// This file contains grok-style base patterns for use with the Compiler.

package patterns

// BasePatterns defines reusable regex components referenced in format
// patterns with {NAME} syntax.
var BasePatterns = map[string]string{
	// Identifiers.
	"ICAO":  `[A-Z][A-Z0-9]{3}`,
	"STID":  `[A-Z0-9]{3,4}`,
	"NWSLI": `[A-Z0-9]{5}`,
	"WFO":   `[A-Z]{3}`,
	"STATE": `[A-Z]{2}`,

	// Times.
	"DDHHMM": `[0-3][0-9][0-2][0-9][0-5][0-9]`,
	"HHMM":   `[0-2][0-9][0-5][0-9]`,
	"ZTIME":  `[0-3][0-9][0-2][0-9][0-5][0-9]Z`,

	// Positions.
	"LAT4":     `[0-9]{4}`,
	"LON4":     `[0-9]{4,5}`,
	"LATLON8":  `[0-9]{8}`,
	"DDMM_LAT": `[0-9]{4}[NS]`,
	"DDMM_LON": `[0-9]{5}[EW]`,
	"BEARING":  `[0-9]{3}`,
	"DIST":     `[0-9]{1,3}`,
	"COMPASS":  `(?:NNE|ENE|ESE|SSE|SSW|WSW|WNW|NNW|NE|SE|SW|NW|N|E|S|W)`,

	// Levels and quantities.
	"FL":      `[0-9]{3}`,
	"NUM":     `[0-9]+`,
	"DECIMAL": `[0-9]+(?:\.[0-9]+)?`,
	"PERCENT": `[0-9]{1,3}`,
}
