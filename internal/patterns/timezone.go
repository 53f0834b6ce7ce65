package patterns

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// tzZones maps the letter stem of an MND timezone abbreviation (the
// trailing "T" removed) to its IANA zone.
var tzZones = map[string]string{
	"C": "America/Chicago", "CD": "America/Chicago", "CS": "America/Chicago",
	"E": "America/New_York", "ED": "America/New_York", "ES": "America/New_York",
	"M": "America/Denver", "MD": "America/Denver", "MS": "America/Denver",
	"P": "America/Los_Angeles", "PD": "America/Los_Angeles", "PS": "America/Los_Angeles",
	"A": "Canada/Atlantic", "AD": "Canada/Atlantic", "AS": "Canada/Atlantic",
	"N": "Canada/Newfoundland", "NS": "Canada/Newfoundland",
	"H": "US/Hawaii", "HS": "US/Hawaii",
	"L": "US/Alaska", "LD": "US/Alaska", "LS": "US/Alaska",
	"AK": "US/Alaska", "AKD": "US/Alaska", "AKS": "US/Alaska",
	"Y": "Canada/Yukon", "YD": "Canada/Yukon", "YS": "Canada/Yukon",
	"CHS": "Pacific/Guam",
	"Z":   "UTC",
}

// TZStem normalizes an abbreviation such as "CDT" to its table key "CD".
func TZStem(abbr string) string {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	switch abbr {
	case "UTC", "GMT", "Z":
		return "Z"
	case "CHST":
		return "CHS"
	}
	return strings.TrimSuffix(abbr, "T")
}

// KnownTimezone reports whether abbr resolves through the timezone table.
func KnownTimezone(abbr string) bool {
	_, ok := tzZones[TZStem(abbr)]
	return ok
}

// LoadTimezone returns the IANA location for an MND abbreviation.
func LoadTimezone(abbr string) (*time.Location, error) {
	name, ok := tzZones[TZStem(abbr)]
	if !ok {
		return nil, fmt.Errorf("unknown timezone abbreviation %q", abbr)
	}
	return time.LoadLocation(name)
}

// LocalToUTC converts a wall-clock time written with the given abbreviation
// to UTC. Explicit standard ("S") and daylight ("D") abbreviations use a
// fixed offset regardless of the calendar date, since offices occasionally
// keep issuing the wrong one across a transition. Bare abbreviations defer
// to the zone rules.
func LocalToUTC(year int, month time.Month, day, hour, minute int, abbr string) (time.Time, error) {
	stem := TZStem(abbr)
	loc, err := LoadTimezone(abbr)
	if err != nil {
		return time.Time{}, err
	}
	if stem == "Z" {
		return time.Date(year, month, day, hour, minute, 0, 0, time.UTC), nil
	}
	offset, fixed := fixedOffset(stem, loc, year)
	if !fixed {
		return time.Date(year, month, day, hour, minute, 0, 0, loc).UTC(), nil
	}
	wall := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return wall.Add(-time.Duration(offset) * time.Second), nil
}

// fixedOffset returns the UTC offset in seconds for explicit standard or
// daylight abbreviations.
func fixedOffset(stem string, loc *time.Location, year int) (int, bool) {
	if len(stem) < 2 {
		return 0, false
	}
	last := stem[len(stem)-1]
	if last != 'S' && last != 'D' {
		return 0, false
	}
	_, std := standardZone(loc, year)
	if last == 'D' {
		return std + 3600, true
	}
	return std, true
}

// standardZone returns the name and offset in effect outside daylight time.
// The January and July offsets are compared and the smaller one wins.
func standardZone(loc *time.Location, year int) (string, int) {
	jn, jo := time.Date(year, time.January, 15, 12, 0, 0, 0, loc).Zone()
	yn, yo := time.Date(year, time.July, 15, 12, 0, 0, 0, loc).Zone()
	if yo < jo {
		return yn, yo
	}
	return jn, jo
}
