// Package bufkit decodes BUFKIT model sounding bundles: a run of forecast
// soundings for one station followed by a table of surface fields.
package bufkit

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
)

// Missing is the bundle's fill value.
const Missing = -9999.0

// Sounding is one forecast hour.
type Sounding struct {
	Valid   time.Time             `json:"valid"`
	Station string                `json:"station"`
	WMO     string                `json:"wmo,omitempty"`
	Lat     float64               `json:"lat"`
	Lon     float64               `json:"lon"`
	ElevM   float64               `json:"elevation_m"`
	Hour    int                   `json:"forecast_hour"`
	Indices map[string]*float64   `json:"indices"`
	Levels  []map[string]*float64 `json:"levels"`
}

// Bundle is a decoded file.
type Bundle struct {
	LevelParams   []string              `json:"level_params"`
	StationParams []string              `json:"station_params"`
	Soundings     []Sounding            `json:"soundings"`
	SurfaceParams []string              `json:"surface_params"`
	Surface       []map[string]*float64 `json:"surface"`
	SurfaceValid  []time.Time           `json:"surface_valid"`
	Warnings      nws.Warnings          `json:"warnings,omitempty"`
}

var (
	assignRe = regexp.MustCompile(`([A-Z0-9]+)\s*=\s*(\S+)`)
	timeRe   = regexp.MustCompile(`^[0-9]{6}/[0-9]{4}$`)
)

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse("060102/1504", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bufkit time %q", nws.ErrInvalidTimestamp, s)
	}
	return t, nil
}

func value(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v == Missing {
		return nil
	}
	return &v
}

func isNumber(tok string) bool {
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}

type section int

const (
	sectionPreamble section = iota
	sectionSounding
	sectionSurface
)

// Decode reads a bundle.
func Decode(r io.Reader) (*Bundle, error) {
	b := &Bundle{}
	var cur *Sounding
	var numbers []string
	var surfaceTokens []string
	state := sectionPreamble

	finish := func() {
		if cur == nil {
			return
		}
		b.closeSounding(cur, numbers)
		cur, numbers = nil, nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "SNPARM"):
			b.LevelParams = splitParams(line)
			continue
		case strings.HasPrefix(line, "STNPRM"):
			b.StationParams = splitParams(line)
			continue
		case strings.HasPrefix(line, "STID"):
			finish()
			cur = &Sounding{Indices: map[string]*float64{}}
			state = sectionSounding
		case strings.HasPrefix(line, "STN "):
			finish()
			state = sectionSurface
			b.SurfaceParams = strings.Fields(line)
			continue
		}

		switch state {
		case sectionSounding:
			if m := assignRe.FindAllStringSubmatch(line, -1); m != nil && !isNumber(strings.Fields(line)[0]) {
				b.assign(cur, m)
				continue
			}
			fields := strings.Fields(line)
			if !isNumber(fields[0]) {
				continue
			}
			numbers = append(numbers, fields...)
		case sectionSurface:
			fields := strings.Fields(line)
			if !isNumber(fields[0]) && len(surfaceTokens) == 0 && len(b.Surface) == 0 {
				b.SurfaceParams = append(b.SurfaceParams, fields...)
				continue
			}
			surfaceTokens = append(surfaceTokens, fields...)
			for len(b.SurfaceParams) > 0 && len(surfaceTokens) >= len(b.SurfaceParams) {
				b.surfaceRow(surfaceTokens[:len(b.SurfaceParams)])
				surfaceTokens = surfaceTokens[len(b.SurfaceParams):]
			}
		}
	}
	finish()
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(surfaceTokens) > 0 {
		b.Warnings.Add(nws.ErrOutOfBounds, "bufkit surface table ends with %d stray values", len(surfaceTokens))
	}
	if len(b.Soundings) == 0 {
		return nil, fmt.Errorf("%w: bufkit bundle has no soundings", nws.ErrInvalidEnvelope)
	}
	return b, nil
}

func splitParams(line string) []string {
	_, rest, _ := strings.Cut(line, "=")
	var out []string
	for _, p := range strings.Split(rest, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (b *Bundle) assign(s *Sounding, pairs [][]string) {
	for _, m := range pairs {
		key, val := m[1], m[2]
		switch key {
		case "STID":
			s.Station = val
		case "STNM":
			s.WMO = val
		case "TIME":
			if timeRe.MatchString(val) {
				t, err := parseTime(val)
				if err != nil {
					b.Warnings = append(b.Warnings, nws.AsWarning(err))
					continue
				}
				s.Valid = t
			}
		case "SLAT":
			s.Lat, _ = strconv.ParseFloat(val, 64)
		case "SLON":
			s.Lon, _ = strconv.ParseFloat(val, 64)
		case "SELV":
			s.ElevM, _ = strconv.ParseFloat(val, 64)
		case "STIM":
			s.Hour, _ = strconv.Atoi(val)
		default:
			s.Indices[key] = value(val)
		}
	}
}

// closeSounding groups the flattened level values by parameter count.
func (b *Bundle) closeSounding(s *Sounding, numbers []string) {
	n := len(b.LevelParams)
	if n == 0 {
		b.Warnings.Add(nws.ErrInvalidEnvelope, "bufkit sounding %s before SNPARM", s.Station)
		return
	}
	if len(numbers)%n != 0 {
		b.Warnings.Add(nws.ErrOutOfBounds, "bufkit %s hour %d has %d values for %d parameters", s.Station, s.Hour, len(numbers), n)
	}
	for i := 0; i+n <= len(numbers); i += n {
		lvl := make(map[string]*float64, n)
		for j, p := range b.LevelParams {
			lvl[p] = value(numbers[i+j])
		}
		s.Levels = append(s.Levels, lvl)
	}
	b.Soundings = append(b.Soundings, *s)
}

// surfaceRow decodes "STN YYMMDD/HHMM v1 v2 ..." rows; the first two
// columns are the station number and time.
func (b *Bundle) surfaceRow(tokens []string) {
	row := make(map[string]*float64, len(tokens))
	var valid time.Time
	for i, p := range b.SurfaceParams {
		switch p {
		case "STN":
			row[p] = value(tokens[i])
		case "YYMMDD/HHMM":
			t, err := parseTime(tokens[i])
			if err != nil {
				b.Warnings = append(b.Warnings, nws.AsWarning(err))
				return
			}
			valid = t
		default:
			row[p] = value(tokens[i])
		}
	}
	b.Surface = append(b.Surface, row)
	b.SurfaceValid = append(b.SurfaceValid, valid)
}
