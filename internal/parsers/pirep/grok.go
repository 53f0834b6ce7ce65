// Package pirep provides grok-style pattern definitions for PIREP
// location (/OV) parsing.
package pirep

import "nws_parser/internal/patterns"

// LocationFormats are the supported /OV spellings, tried in order.
var LocationFormats = []patterns.Format{
	// Raw position.
	// Example: 2500N07000W
	{
		Name:    "latlon",
		Pattern: `^(?P<lat>[0-9]{4})(?P<lat_dir>[NS])\s*(?P<lon>[0-9]{5})(?P<lon_dir>[EW])$`,
	},
	// Station, bearing and distance in nautical miles.
	// Example: DSM090010
	{
		Name:    "radial",
		Pattern: `^(?P<stid>{STID})(?P<brg>{BEARING})(?P<dist>[0-9]{3})$`,
	},
	// Distance and compass direction from a station.
	// Example: 15NW OF DSM, 20 SW DSM
	{
		Name:    "offset",
		Pattern: `^(?P<dist>{DIST})\s*(?P<dir>{COMPASS})\s+(?:OF\s+)?(?P<stid>{STID})$`,
	},
	// Bare station.
	// Example: DSM
	{
		Name:    "station",
		Pattern: `^(?P<stid>{STID})$`,
	},
	// Two locations, each optionally with a radial.
	// Example: DSM-MCW, DSM090010-MCW
	{
		Name:    "route",
		Pattern: `^(?P<a>{STID}(?:{BEARING}[0-9]{3})?)\s*-\s*(?P<b>{STID}(?:{BEARING}[0-9]{3})?)$`,
	},
}
