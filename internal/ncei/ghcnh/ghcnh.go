// Package ghcnh decodes the Global Historical Climatology Network hourly
// pipe-delimited files. Column positions come from the header row; each
// variable is a packet of value, measurement code, quality code, report
// type, source code and source station.
package ghcnh

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

// packetSuffixes follow the variable name in the header.
var packetSuffixes = []string{
	"_Measurement_Code", "_Quality_Code", "_Report_Type", "_Source_Code", "_Source_Station_ID",
}

// conversions maps a variable to its output unit.
var conversions = map[string]func(float64) float64{
	"temperature":            cToF,
	"dew_point_temperature":  cToF,
	"wet_bulb_temperature":   cToF,
	"station_level_pressure": hPaToInHg,
	"sea_level_pressure":     hPaToInHg,
	"altimeter":              hPaToInHg,
	"pressure_3hr_change":    hPaToInHg,
	"wind_speed":             mpsToKt,
	"wind_gust":              mpsToKt,
	"visibility":             kmToMi,
	"precipitation":          mmToIn,
	"precipitation_3_hour":   mmToIn,
	"precipitation_6_hour":   mmToIn,
	"precipitation_24_hour":  mmToIn,
	"snow_depth":             mmToIn,
	"sky_cover_baseht_1":     mToFt,
	"sky_cover_baseht_2":     mToFt,
	"sky_cover_baseht_3":     mToFt,
	"wind_direction":         identity,
	"relative_humidity":      identity,
}

func cToF(v float64) float64      { return patterns.Round(v*1.8+32, 1) }
func hPaToInHg(v float64) float64 { return patterns.Round(v*0.0295301, 2) }
func mpsToKt(v float64) float64   { return patterns.Round(v*1.943844, 1) }
func kmToMi(v float64) float64    { return patterns.Round(v*0.621371, 2) }
func mmToIn(v float64) float64    { return patterns.Round(v/25.4, 2) }
func mToFt(v float64) float64     { return float64(int(v*3.28084/10+0.5) * 10) }
func identity(v float64) float64  { return v }

// Value is one variable packet.
type Value struct {
	Value         *float64 `json:"value"`
	Measurement   string   `json:"measurement_code,omitempty"`
	Quality       string   `json:"quality_code,omitempty"`
	ReportType    string   `json:"report_type,omitempty"`
	Source        string   `json:"source_code,omitempty"`
	SourceStation string   `json:"source_station,omitempty"`
	Erroneous     bool     `json:"erroneous,omitempty"`
}

// Observation is one row.
type Observation struct {
	Station    string           `json:"station"`
	Name       string           `json:"name"`
	Valid      time.Time        `json:"valid"`
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
	ElevationM *float64         `json:"elevation_m,omitempty"`
	Values     map[string]Value `json:"values"`
}

// Get returns the converted value of a variable when present and not
// flagged erroneous.
func (o *Observation) Get(name string) *float64 {
	v, ok := o.Values[name]
	if !ok || v.Erroneous {
		return nil
	}
	return v.Value
}

// Reader decodes rows of one file.
type Reader struct {
	cr    *csv.Reader
	col   map[string]int
	vars  []string
	line  int
	warns nws.Warnings
}

// NewReader reads the header row and returns a row reader.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read ghcnh header: %w", err)
	}
	rd := &Reader{cr: cr, col: make(map[string]int, len(header)), line: 1}
	for i, h := range header {
		rd.col[strings.TrimSpace(h)] = i
	}
	for _, need := range []string{"Station_ID", "Year", "Month", "Day", "Hour", "Latitude", "Longitude"} {
		if _, ok := rd.col[need]; !ok {
			return nil, fmt.Errorf("%w: ghcnh header missing %q", nws.ErrInvalidEnvelope, need)
		}
	}
	for _, h := range header {
		h = strings.TrimSpace(h)
		if _, ok := rd.col[h+"_Quality_Code"]; ok {
			rd.vars = append(rd.vars, h)
		}
	}
	return rd, nil
}

func (rd *Reader) get(row []string, name string) string {
	i, ok := rd.col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Next returns the next row, or io.EOF. Rows that cannot be decoded are
// skipped with a warning.
func (rd *Reader) Next() (*Observation, error) {
	for {
		row, err := rd.cr.Read()
		rd.line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rd.warns.Add(nws.ErrInvalidEnvelope, "ghcnh line %d: %v", rd.line, err)
				continue
			}
			return nil, err
		}
		o, err := rd.decode(row)
		if err != nil {
			w := nws.AsWarning(err)
			w.Message = fmt.Sprintf("line %d: %s", rd.line, w.Message)
			rd.warns = append(rd.warns, w)
			continue
		}
		return o, nil
	}
}

// Warnings returns the rows skipped so far.
func (rd *Reader) Warnings() nws.Warnings { return rd.warns }

func (rd *Reader) decode(row []string) (*Observation, error) {
	ints := make([]int, 5)
	for i, name := range []string{"Year", "Month", "Day", "Hour", "Minute"} {
		s := rd.get(row, name)
		if s == "" && name == "Minute" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: ghcnh %s %q", nws.ErrInvalidTimestamp, name, s)
		}
		ints[i] = v
	}
	o := &Observation{
		Station: rd.get(row, "Station_ID"),
		Name:    rd.get(row, "Station_name"),
		Valid:   time.Date(ints[0], time.Month(ints[1]), ints[2], ints[3], ints[4], 0, 0, time.UTC),
		Values:  map[string]Value{},
	}
	lat, err1 := strconv.ParseFloat(rd.get(row, "Latitude"), 64)
	lon, err2 := strconv.ParseFloat(rd.get(row, "Longitude"), 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: ghcnh location %q %q", nws.ErrOutOfBounds, rd.get(row, "Latitude"), rd.get(row, "Longitude"))
	}
	o.Lat, o.Lon = lat, lon
	o.ElevationM = patterns.ParseFloat(rd.get(row, "Elevation"))

	for _, name := range rd.vars {
		raw := rd.get(row, name)
		if raw == "" {
			continue
		}
		v := Value{
			Measurement:   rd.get(row, name+packetSuffixes[0]),
			Quality:       rd.get(row, name+packetSuffixes[1]),
			ReportType:    rd.get(row, name+packetSuffixes[2]),
			Source:        rd.get(row, name+packetSuffixes[3]),
			SourceStation: rd.get(row, name+packetSuffixes[4]),
		}
		v.Erroneous = v.Quality == "3" || v.Quality == "7"
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			if conv, ok := conversions[name]; ok {
				f = conv(f)
			}
			v.Value = &f
		}
		o.Values[name] = v
	}
	return o, nil
}

// ReadAll decodes every row of r.
func ReadAll(r io.Reader) ([]*Observation, nws.Warnings, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	var out []*Observation
	for {
		o, err := rd.Next()
		if err == io.EOF {
			return out, rd.Warnings(), nil
		}
		if err != nil {
			return out, rd.Warnings(), err
		}
		out = append(out, o)
	}
}
