// Package igra decodes Integrated Global Radiosonde Archive (version 2)
// sounding files: a "#" header line per sounding followed by fixed column
// level records.
package igra

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

// Level is one record of a sounding.
type Level struct {
	LevelType  string     `json:"levelcode"`
	Valid      *time.Time `json:"valid,omitempty"`
	PressureMB *float64   `json:"pressure"`
	HeightM    *float64   `json:"height"`
	TempC      *float64   `json:"tmpc"`
	DewC       *float64   `json:"dwpc"`
	RH         *float64   `json:"relh"`
	WindDir    *float64   `json:"drct"`
	WindKt     *float64   `json:"smps"`
}

// Sounding is one ascent.
type Sounding struct {
	Station      string     `json:"station"`
	Valid        time.Time  `json:"valid"`
	ReleaseValid *time.Time `json:"release_valid,omitempty"`
	Lat          float64    `json:"lat"`
	Lon          float64    `json:"lon"`
	Source       string     `json:"source"`
	NonPSource   string     `json:"np_source,omitempty"`
	Levels       []Level    `json:"levels"`
}

func missing(s string) bool {
	return s == "" || s == "-9999" || s == "-8888"
}

func number(s string, scale float64) *float64 {
	s = strings.TrimSpace(s)
	if missing(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v /= scale
	return &v
}

// parseHeader decodes the "#USM00072250 2023 06 10 00 2315 ..." line.
func parseHeader(line string) (*Sounding, int, error) {
	if len(line) < 71 {
		return nil, 0, fmt.Errorf("%w: igra header has %d characters", nws.ErrInvalidEnvelope, len(line))
	}
	s := &Sounding{
		Station:    patterns.Field(line, 1, 12),
		Source:     patterns.Field(line, 37, 45),
		NonPSource: patterns.Field(line, 46, 54),
	}
	year, err1 := strconv.Atoi(patterns.Field(line, 13, 17))
	month, err2 := strconv.Atoi(patterns.Field(line, 18, 20))
	day, err3 := strconv.Atoi(patterns.Field(line, 21, 23))
	hour, err4 := strconv.Atoi(patterns.Field(line, 24, 26))
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, 0, fmt.Errorf("%w: igra header time %q", nws.ErrInvalidTimestamp, line[13:26])
	}
	if hour == 99 {
		hour = 0
	}
	s.Valid = time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)

	if rel := patterns.Field(line, 27, 31); rel != "9999" && len(rel) == 4 {
		rh, _ := strconv.Atoi(rel[:2])
		rm, _ := strconv.Atoi(rel[2:])
		if rm == 99 {
			rm = 0
		}
		if rh < 24 {
			t := time.Date(year, time.Month(month), day, rh, rm, 0, 0, time.UTC)
			// A release late in the evening belongs to the next synoptic day.
			if t.Sub(s.Valid) > 12*time.Hour {
				t = t.AddDate(0, 0, -1)
			}
			s.ReleaseValid = &t
		}
	}
	numlev, err := strconv.Atoi(patterns.Field(line, 32, 36))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: igra level count %q", nws.ErrInvalidEnvelope, line[32:36])
	}
	lat := number(patterns.Field(line, 55, 62), 10000)
	lon := number(patterns.Field(line, 63, 71), 10000)
	if lat == nil || lon == nil || *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return nil, 0, fmt.Errorf("%w: igra location", nws.ErrOutOfBounds)
	}
	s.Lat, s.Lon = *lat, *lon
	return s, numlev, nil
}

func (s *Sounding) parseLevel(line string) Level {
	l := Level{LevelType: patterns.Field(line, 0, 2)}
	if et := patterns.Field(line, 3, 8); !missing(et) && et != "-1" && s.ReleaseValid != nil {
		if v, err := strconv.Atoi(et); err == nil {
			t := s.ReleaseValid.Add(time.Duration(v/100)*time.Minute + time.Duration(v%100)*time.Second)
			l.Valid = &t
		}
	}
	l.PressureMB = number(patterns.Field(line, 9, 15), 100)
	l.HeightM = number(patterns.Field(line, 16, 21), 1)
	l.TempC = number(patterns.Field(line, 22, 27), 10)
	l.RH = number(patterns.Field(line, 28, 33), 10)
	if dpd := number(patterns.Field(line, 34, 39), 10); dpd != nil && l.TempC != nil {
		d := patterns.Round(*l.TempC-*dpd, 1)
		l.DewC = &d
	}
	l.WindDir = number(patterns.Field(line, 40, 45), 1)
	if mps := number(patterns.Field(line, 46, 51), 10); mps != nil {
		kt := patterns.Round(*mps*1.943844, 1)
		l.WindKt = &kt
	}
	return l
}

// ReadAll decodes every sounding in r. A sounding whose header fails to
// decode is skipped with its levels.
func ReadAll(r io.Reader) ([]*Sounding, nws.Warnings, error) {
	var out []*Sounding
	var ws nws.Warnings
	var cur *Sounding
	expect := 0
	flush := func() {
		if cur == nil {
			return
		}
		if len(cur.Levels) != expect {
			ws.Add(nws.ErrOutOfBounds, "igra %s %s has %d of %d levels", cur.Station, cur.Valid.Format("2006010215"), len(cur.Levels), expect)
		}
		out = append(out, cur)
		cur = nil
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] == '#' {
			flush()
			s, n, err := parseHeader(line)
			if err != nil {
				ws = append(ws, nws.AsWarning(err))
				continue
			}
			cur, expect = s, n
			continue
		}
		if cur == nil {
			continue
		}
		cur.Levels = append(cur.Levels, cur.parseLevel(line))
	}
	flush()
	return out, ws, sc.Err()
}
