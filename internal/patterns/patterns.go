// Package patterns provides shared regex patterns and lexical helpers for NWS
// product decoding.
package patterns

import (
	"regexp"
	"strings"
)

// Envelope patterns.
var (
	// WMOPattern matches the WMO abbreviated heading: TTAAII CCCC DDHHMM [BBB].
	WMOPattern = regexp.MustCompile(`(?m)^([A-Z0-9]{4,6}) ([A-Z]{4}) ([0-3][0-9][0-2][0-9][0-5][0-9])\s*([ACR][ACMORT][A-Z])?\s*$`)

	// AFOSPattern matches a PIL on its own line.
	AFOSPattern = regexp.MustCompile(`^[A-Z0-9]{4,6}$`)

	// MNDPattern matches the human readable issuance line, e.g.
	// "1249 AM EDT JUL 1 2005" or "1030 PM CST TUE MAR 4 2014".
	MNDPattern = regexp.MustCompile(`(?m)^([0-9:]{1,5}) (AM|PM) ([A-Z]{1,4}) (?:(?:MON|TUE|WED|THU|FRI|SAT|SUN) )?([A-Z]{3}) ([0-9]{1,2}) ([12][0-9]{3})\s*$`)
)

// Segment patterns.
var (
	// UGCStartPattern finds the first line of a UGC block.
	UGCStartPattern = regexp.MustCompile(`(?m)^[A-Z]{2}[CZ][0-9A-Z]{3}[->]`)

	// UGCExpirePattern marks the final token of a UGC block.
	UGCExpirePattern = regexp.MustCompile(`[0-9]{6}-\s*$`)

	VTECPattern = regexp.MustCompile(`/([OTEX])\.([A-Z]{3})\.([A-Z]{4})\.([A-Z]{2})\.([A-Z])\.([0-9]{4})\.([0-9]{6}T[0-9]{4}Z)-([0-9]{6}T[0-9]{4}Z)/`)

	HVTECPattern = regexp.MustCompile(`/([A-Z0-9]{5})\.([N0123U])\.([A-Z]{2})\.([0-9]{6}T[0-9]{4}Z)\.([0-9]{6}T[0-9]{4}Z)\.([0-9]{6}T[0-9]{4}Z)\.([A-Z]{2})/`)

	// HeadlinePattern never crosses a blank line.
	HeadlinePattern = regexp.MustCompile(`(?m)^\.\.\.((?:[^\n]|\n[^\n])*?)\.\.\.[ ]*\n\n`)

	LatLonPattern = regexp.MustCompile(`LAT\.\.\.LON\s+((?:[0-9]{4,8}\s+)+)`)

	TMLPattern = regexp.MustCompile(`TIME\.\.\.MOT\.\.\.LOC\s+([0-9]{4})Z\s+([0-9]{1,3})DEG\s+([0-9]{1,3})KT\s+((?:[0-9]{4,5}\s+[0-9]{4,5}\s*)+)`)
)

// Tag phrase patterns found near the bottom of warning segments.
var (
	WindHailTagPattern   = regexp.MustCompile(`WIND\.\.\.HAIL\s+(<|>)?([0-9]+)?(MPH|KTS)?\s+(<|>)?([0-9.]+)IN`)
	HailTagPattern       = regexp.MustCompile(`(?:MAX )?HAIL(?: SIZE)?\.\.\.(<|>)?([0-9.]+)\s?IN`)
	WindTagPattern       = regexp.MustCompile(`(?:MAX )?WIND(?: GUST)?\.\.\.(<|>)?([0-9]+)\s?(MPH|KTS)`)
	TornadoTagPattern    = regexp.MustCompile(`(?m)TORNADO\.\.\.([A-Z ]+?)\s*$`)
	DamageTagPattern     = regexp.MustCompile(`(?:TORNADO|THUNDERSTORM|FLASH FLOOD) DAMAGE\s+THREAT\.\.\.([A-Z]+)`)
	WaterspoutTagPattern = regexp.MustCompile(`(?m)WATERSPOUT\.\.\.([A-Z ]+?)\s*$`)
	LandspoutTagPattern  = regexp.MustCompile(`(?m)LANDSPOUT\.\.\.([A-Z ]+?)\s*$`)
	FlashFloodTagPattern = regexp.MustCompile(`(?m)FLASH FLOOD\.\.\.([A-Z ]+?)\s*$`)
)

// StationOffsetPattern matches "10 NNE DSM" style offsets.
var StationOffsetPattern = regexp.MustCompile(`^([0-9]+)\s*([NSEW]{1,3})\s+([A-Z0-9]{3,5})$`)

// Tokenize splits text on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// CollapseSpace joins a possibly multi-line phrase into a single line.
func CollapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Field returns s[start:end] clamped to the string length and trimmed.
// Fixed-column decoders use it so short lines yield empty fields.
func Field(s string, start, end int) string {
	if start >= len(s) {
		return ""
	}
	if end > len(s) || end < 0 {
		end = len(s)
	}
	return strings.TrimSpace(s[start:end])
}
