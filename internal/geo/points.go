package geo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

var offsetPointRe = regexp.MustCompile(`^(?:([0-9]+)\s?([NESW]{1,3})\s+)?([A-Z0-9]{3,4})$`)

// OffsetPoints resolves tokens such as "30SW DSM" or "DSM". Distances are
// multiplied by unit to give statute miles, so aviation products pass
// NauticalMile.
func OffsetPoints(r StationResolver, tokens []string, unit float64) ([]orb.Point, error) {
	var pts []orb.Point
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		m := offsetPointRe.FindStringSubmatch(tok)
		if m == nil {
			return nil, fmt.Errorf("unparsed point %q", tok)
		}
		dist := 0.0
		if m[1] != "" {
			v, _ := strconv.Atoi(m[1])
			dist = float64(v) * unit
		}
		lon, lat, err := Offset(r, m[3], dist, m[2])
		if err != nil {
			return nil, err
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no points")
	}
	return pts, nil
}

// IsOffsetPoint reports whether tok looks like an OffsetPoints token.
func IsOffsetPoint(tok string) bool {
	return offsetPointRe.MatchString(strings.TrimSpace(tok))
}

// Circle approximates a circle of radius statute miles with 36 vertices.
func Circle(center orb.Point, miles float64) orb.Polygon {
	const steps = 36
	ring := make(orb.Ring, 0, steps+1)
	for i := 0; i < steps; i++ {
		lon, lat := Destination(center[0], center[1], float64(i)*360/steps, miles)
		ring = append(ring, orb.Point{lon, lat})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// CloseRing returns pts as a ring whose last vertex repeats the first.
func CloseRing(pts []orb.Point) orb.Ring {
	ring := orb.Ring(append([]orb.Point(nil), pts...))
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}
