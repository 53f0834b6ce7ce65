package metar

// Exported group decoders shared with the TAF decoder.

// Wind is a decoded wind group in knots.
type Wind struct {
	Dir   *int
	Speed *int
	Gust  *int
}

// ParseWind decodes dddffGggKT, VRBffKT and the MPS variants.
func ParseWind(tok string) (Wind, bool) {
	m := windRe.FindStringSubmatch(tok)
	if m == nil {
		return Wind{}, false
	}
	var r Report
	r.parseWind(m)
	return Wind{Dir: r.WindDir, Speed: r.WindSpeed, Gust: r.WindGust}, true
}

// ParseVisibility decodes a statute mile group. The prefix is "M" for less
// than and "P" for more than.
func ParseVisibility(tok string) (float64, string, bool) {
	m := visRe.FindStringSubmatch(tok)
	if m == nil {
		return 0, "", false
	}
	var r Report
	r.parseVisibility(m)
	if r.Visibility == nil {
		return 0, "", false
	}
	return *r.Visibility, m[1], true
}

// ParseSky decodes a cloud layer group.
func ParseSky(tok string) (SkyLayer, bool) {
	m := skyRe.FindStringSubmatch(tok)
	if m == nil {
		return SkyLayer{}, false
	}
	return parseSky(m), true
}

// IsWeather reports whether tok is a present weather group.
func IsWeather(tok string) bool {
	return isWeather(tok)
}
