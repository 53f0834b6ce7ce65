// This file contains coordinate conversion utilities.

package patterns

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDMSCoord parses a degrees-minutes coordinate and returns decimal
// degrees. Supported layouts:
//   - DDMM / DDDMM (whole minutes)
//   - DDMMSS / DDDMMSS (seconds)
//   - DDMM.M / DDDMM.M (decimal minutes)
//
// degDigits is 2 for latitude and 3 for longitude. S and W directions
// yield negative values. ok is false when the value cannot be decoded.
func ParseDMSCoord(s string, degDigits int, dir string) (float64, bool) {
	s = strings.TrimSpace(s)
	if len(s) < degDigits {
		return 0, false
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(whole) < degDigits || !IsDigits(whole) {
		return 0, false
	}
	deg, _ := strconv.Atoi(whole[:degDigits])
	rest := whole[degDigits:]

	var min float64
	switch {
	case frac != "":
		v, err := strconv.ParseFloat(rest+"."+frac, 64)
		if err != nil {
			return 0, false
		}
		min = v
	case len(rest) == 0:
	case len(rest) == 2:
		m, _ := strconv.Atoi(rest)
		min = float64(m)
	case len(rest) == 4:
		m, _ := strconv.Atoi(rest[:2])
		sec, _ := strconv.Atoi(rest[2:])
		min = float64(m) + float64(sec)/60.0
	default:
		return 0, false
	}
	if min >= 60 {
		return 0, false
	}

	v := float64(deg) + min/60.0
	if dir == "S" || dir == "W" {
		v = -v
	}
	return v, true
}

// ParseLatitude parses DDMM[SS] with a hemisphere letter.
func ParseLatitude(value, dir string) (float64, bool) {
	return ParseDMSCoord(value, 2, dir)
}

// ParseLongitude parses DDDMM[SS] with a hemisphere letter.
func ParseLongitude(value, dir string) (float64, bool) {
	return ParseDMSCoord(value, 3, dir)
}

// ParseDecimalCoord parses coordinates already in decimal form. S and W
// suffixes or directions negate the value.
func ParseDecimalCoord(s string, dir string) (float64, error) {
	s = strings.TrimSpace(s)
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'N', 'E':
			s = s[:n-1]
		case 'S', 'W':
			s = s[:n-1]
			dir = "W"
		}
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse coordinate %q: %w", s, err)
	}
	if dir == "S" || dir == "W" {
		return -val, nil
	}
	return val, nil
}

// ParseHundredthsPair decodes the LAT...LON / SPC point encoding: latitude
// in hundredths of a degree (4 digits) and longitude in hundredths of a
// degree west. Three digit western longitudes lose their leading 1, so a
// decoded longitude under 40 degrees gets 100 added.
func ParseHundredthsPair(lat, lon string) (float64, float64, error) {
	if !IsDigits(lat) || !IsDigits(lon) {
		return 0, 0, fmt.Errorf("non numeric point %q %q", lat, lon)
	}
	la, _ := strconv.Atoi(lat)
	lo, _ := strconv.Atoi(lon)
	y := float64(la) / 100.0
	x := float64(lo) / 100.0
	if x < 40 {
		x += 100
	}
	if y > 90 || x > 180 {
		return 0, 0, fmt.Errorf("point %s %s out of bounds", lat, lon)
	}
	return -x, y, nil
}

// FormatSPCToken is the inverse of ParseSPCToken for western longitudes.
// Longitudes west of 100W drop their leading one.
func FormatSPCToken(lon, lat float64) string {
	la := int(math.Round(lat * 100))
	lo := int(math.Round(-lon * 100))
	if lo >= 10000 {
		lo -= 10000
	}
	return fmt.Sprintf("%04d%04d", la, lo)
}

// ParseSPCToken decodes an 8 digit LLLLOOOO token.
func ParseSPCToken(tok string) (float64, float64, error) {
	if len(tok) != 8 {
		return 0, 0, fmt.Errorf("bad point token %q", tok)
	}
	return ParseHundredthsPair(tok[:4], tok[4:])
}
