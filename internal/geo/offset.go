package geo

import (
	"fmt"
	"math"
	"strings"
)

const earthRadiusMiles = 3958.7613

// NauticalMile in statute miles.
const NauticalMile = 1.150779

var compassDegrees = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

// CompassToDegrees converts a 16 point compass direction.
func CompassToDegrees(dir string) (float64, bool) {
	v, ok := compassDegrees[strings.ToUpper(dir)]
	return v, ok
}

// Destination moves from (lon, lat) along bearing (degrees true) by
// distance statute miles on a sphere.
func Destination(lon, lat, bearing, miles float64) (float64, float64) {
	if miles == 0 {
		return lon, lat
	}
	d := miles / earthRadiusMiles
	b := bearing * math.Pi / 180
	p1 := lat * math.Pi / 180
	l1 := lon * math.Pi / 180

	p2 := math.Asin(math.Sin(p1)*math.Cos(d) + math.Cos(p1)*math.Sin(d)*math.Cos(b))
	l2 := l1 + math.Atan2(math.Sin(b)*math.Sin(d)*math.Cos(p1), math.Cos(d)-math.Sin(p1)*math.Sin(p2))

	lon2 := math.Mod(l2*180/math.Pi+540, 360) - 180
	return lon2, p2 * 180 / math.Pi
}

// Offset resolves "distance direction station" to a point.
func Offset(r StationResolver, stid string, miles float64, dir string) (float64, float64, error) {
	if r == nil {
		return 0, 0, fmt.Errorf("no station resolver for %s", stid)
	}
	st, ok := r.Station(stid)
	if !ok {
		return 0, 0, fmt.Errorf("unknown station %q", stid)
	}
	if dir == "" {
		return st.Lon, st.Lat, nil
	}
	deg, ok := CompassToDegrees(dir)
	if !ok {
		return 0, 0, fmt.Errorf("bad direction %q", dir)
	}
	lon, lat := Destination(st.Lon, st.Lat, deg, miles)
	return lon, lat, nil
}

// Bearing returns the initial bearing in degrees from point 1 to point 2.
func Bearing(lon1, lat1, lon2, lat2 float64) float64 {
	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dl := (lon2 - lon1) * math.Pi / 180
	y := math.Sin(dl) * math.Cos(p2)
	x := math.Cos(p1)*math.Sin(p2) - math.Sin(p1)*math.Cos(p2)*math.Cos(dl)
	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}
