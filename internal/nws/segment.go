package nws

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"

	"nws_parser/internal/patterns"
)

// TornadoTag is the tornado certainty phrase.
type TornadoTag string

const (
	TornadoObserved       TornadoTag = "OBSERVED"
	TornadoRadarIndicated TornadoTag = "RADAR INDICATED"
	TornadoPossible       TornadoTag = "POSSIBLE"
)

// ParseTornadoTag validates a tornado tag.
func ParseTornadoTag(s string) (TornadoTag, error) {
	switch t := TornadoTag(s); t {
	case TornadoObserved, TornadoRadarIndicated, TornadoPossible:
		return t, nil
	}
	return "", fmt.Errorf("%w: tornado tag %q", ErrUnknownCode, s)
}

// DamageTag is the damage threat phrase.
type DamageTag string

const (
	DamageConsiderable DamageTag = "CONSIDERABLE"
	DamageSignificant  DamageTag = "SIGNIFICANT"
	DamageCatastrophic DamageTag = "CATASTROPHIC"
)

// ParseDamageTag validates a damage tag.
func ParseDamageTag(s string) (DamageTag, error) {
	switch t := DamageTag(s); t {
	case DamageConsiderable, DamageSignificant, DamageCatastrophic:
		return t, nil
	}
	return "", fmt.Errorf("%w: damage tag %q", ErrUnknownCode, s)
}

// Tags holds the impact-based tag lines of a warning segment.
type Tags struct {
	HailSize       *float64   `json:"hailtag,omitempty"`
	HailComparator string     `json:"haildirtag,omitempty"`
	WindGust       *int       `json:"windtag,omitempty"`
	WindUnits      string     `json:"windtagunits,omitempty"`
	WindComparator string     `json:"winddirtag,omitempty"`
	Tornado        TornadoTag `json:"tornadotag,omitempty"`
	Damage         DamageTag  `json:"damagetag,omitempty"`
	Waterspout     string     `json:"waterspouttag,omitempty"`
	Landspout      string     `json:"landspouttag,omitempty"`
	FlashFlood     string     `json:"flood_tags,omitempty"`
}

// IsEmpty reports whether no tag was found.
func (t Tags) IsEmpty() bool {
	return t == Tags{}
}

// TimeMotLoc is the TIME...MOT...LOC storm motion vector.
type TimeMotLoc struct {
	Valid     time.Time   `json:"valid"`
	Direction int         `json:"drct"`
	SpeedKt   int         `json:"sknt"`
	Points    []orb.Point `json:"points"`
}

// Geometry is a point for a single location, otherwise a line.
func (t TimeMotLoc) Geometry() orb.Geometry {
	if len(t.Points) == 1 {
		return t.Points[0]
	}
	return orb.LineString(t.Points)
}

// Segment is one $$-delimited portion of a product.
type Segment struct {
	Index       int         `json:"index"`
	Text        string      `json:"text"`
	UGCs        []UGC       `json:"ugcs,omitempty"`
	UGCExpire   *time.Time  `json:"ugcexpire,omitempty"`
	VTEC        []VTEC      `json:"vtec,omitempty"`
	HVTEC       []HVTEC     `json:"hvtec,omitempty"`
	Headlines   []string    `json:"headlines,omitempty"`
	Bullets     []string    `json:"bullets,omitempty"`
	Polygon     orb.Polygon `json:"-"`
	TML         *TimeMotLoc `json:"tml,omitempty"`
	Tags        Tags        `json:"tags"`
	IsEmergency bool        `json:"is_emergency,omitempty"`
	IsPDS       bool        `json:"is_pds,omitempty"`

	// Copied from the product so a segment can be used on its own.
	Valid time.Time      `json:"-"`
	TZ    *time.Location `json:"-"`
}

// HasPolygon reports whether a LAT...LON polygon was decoded.
func (s *Segment) HasPolygon() bool {
	return len(s.Polygon) > 0 && len(s.Polygon[0]) >= 4
}

// parseSegment decodes one segment. Defects are returned as warnings.
func parseSegment(index int, text string, valid time.Time, tz *time.Location) (Segment, Warnings) {
	var ws Warnings
	seg := Segment{Index: index, Text: text, Valid: valid, TZ: tz}

	if block, ok := ExtractUGCBlock(text); ok {
		ub, w := ParseUGCBlock(block, valid)
		ws = append(ws, w...)
		seg.UGCs = ub.UGCs
		seg.UGCExpire = ub.Expire
	}

	var w Warnings
	seg.VTEC, w = FindVTEC(text)
	ws = append(ws, w...)
	seg.HVTEC, w = FindHVTEC(text)
	ws = append(ws, w...)

	seg.Headlines = ParseHeadlines(text)
	seg.Bullets = ParseBullets(text)

	if poly, err := ParsePolygon(text); err != nil {
		ws = append(ws, AsWarning(err))
	} else if poly != nil {
		seg.Polygon = poly
	}

	if tml, err := ParseTimeMotLoc(text, valid); err != nil {
		ws = append(ws, AsWarning(err))
	} else {
		seg.TML = tml
	}

	seg.Tags, w = ParseTags(text)
	ws = append(ws, w...)

	flat := patterns.CollapseSpace(text)
	seg.IsEmergency = strings.Contains(flat, "TORNADO EMERGENCY") || strings.Contains(flat, "FLASH FLOOD EMERGENCY")
	seg.IsPDS = strings.Contains(flat, "PARTICULARLY DANGEROUS SITUATION")

	return seg, ws
}

// ParseHeadlines returns ...HEADLINE... paragraphs, newlines collapsed.
func ParseHeadlines(text string) []string {
	var out []string
	for _, m := range patterns.HeadlinePattern.FindAllStringSubmatch(text+"\n\n", -1) {
		h := patterns.CollapseSpace(m[1])
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// ParseBullets returns "* " paragraphs. A bullet runs until a blank line
// or the next bullet.
func ParseBullets(text string) []string {
	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, patterns.CollapseSpace(strings.Join(cur, " ")))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "* "):
			flush()
			cur = append(cur, strings.TrimPrefix(trimmed, "* "))
		case trimmed == "" || trimmed == "&&":
			flush()
		case cur != nil:
			cur = append(cur, trimmed)
		}
	}
	flush()
	return out
}

// ParsePolygon decodes a LAT...LON block into a closed ring. It returns
// nil, nil when no block is present.
func ParsePolygon(text string) (orb.Polygon, error) {
	m := patterns.LatLonPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	var nums []string
	for _, tok := range strings.Fields(m[1]) {
		if len(tok) == 8 {
			nums = append(nums, tok[:4], tok[4:])
			continue
		}
		nums = append(nums, tok)
	}
	if len(nums)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of LAT...LON values", ErrInvalidGeometry)
	}
	ring := make(orb.Ring, 0, len(nums)/2+1)
	for i := 0; i < len(nums); i += 2 {
		lon, lat, err := patterns.ParseHundredthsPair(nums[i], nums[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		if lon <= -180 || lon > 180 || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("%w: vertex %.2f %.2f out of bounds", ErrOutOfBounds, lon, lat)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, fmt.Errorf("%w: polygon needs three vertices", ErrInvalidGeometry)
	}
	if planar.Area(ring) == 0 {
		return nil, fmt.Errorf("%w: degenerate polygon", ErrInvalidGeometry)
	}
	poly := orb.Polygon{ring}
	if err := checkSimple(poly); err != nil {
		return nil, err
	}
	return poly, nil
}

// checkSimple rejects self-intersecting rings.
func checkSimple(poly orb.Polygon) error {
	data, err := wkb.Marshal(poly)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	g, err := geos.NewGeomFromWKB(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if !g.IsValid() {
		return fmt.Errorf("%w: polygon is not simple: %s", ErrInvalidGeometry, g.IsValidReason())
	}
	return nil
}

// ParseTimeMotLoc decodes TIME...MOT...LOC. The HHMMZ time is placed on
// the product valid date, moving back a day when that lands far in the
// future.
func ParseTimeMotLoc(text string, valid time.Time) (*TimeMotLoc, error) {
	m := patterns.TMLPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	hh, _ := strconv.Atoi(m[1][:2])
	mi, _ := strconv.Atoi(m[1][2:])
	if hh > 23 || mi > 59 {
		return nil, fmt.Errorf("%w: TIME...MOT...LOC %s", ErrInvalidTimestamp, m[1])
	}
	ts := time.Date(valid.Year(), valid.Month(), valid.Day(), hh, mi, 0, 0, time.UTC)
	if ts.Sub(valid) > 12*time.Hour {
		ts = ts.Add(-24 * time.Hour)
	} else if valid.Sub(ts) > 12*time.Hour {
		ts = ts.Add(24 * time.Hour)
	}
	drct, _ := strconv.Atoi(m[2])
	sknt, _ := strconv.Atoi(m[3])
	if drct > 360 {
		return nil, fmt.Errorf("%w: motion direction %d", ErrOutOfBounds, drct)
	}
	toks := strings.Fields(m[4])
	tml := &TimeMotLoc{Valid: ts, Direction: drct, SpeedKt: sknt}
	for i := 0; i+1 < len(toks); i += 2 {
		lon, lat, err := patterns.ParseHundredthsPair(toks[i], toks[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		tml.Points = append(tml.Points, orb.Point{lon, lat})
	}
	if len(tml.Points) == 0 {
		return nil, fmt.Errorf("%w: TIME...MOT...LOC without location", ErrInvalidGeometry)
	}
	return tml, nil
}

// ParseTags extracts the hail, wind and threat tag phrases.
func ParseTags(text string) (Tags, Warnings) {
	var ws Warnings
	var t Tags
	flat := strings.ReplaceAll(text, "\n", " ")

	if m := patterns.WindHailTagPattern.FindStringSubmatch(flat); m != nil {
		if m[2] != "" {
			v, _ := strconv.Atoi(m[2])
			t.WindGust = &v
			t.WindComparator = m[1]
			t.WindUnits = m[3]
		}
		t.HailComparator = m[4]
		t.HailSize = parseTagFloat(m[5])
	}
	if m := patterns.HailTagPattern.FindStringSubmatch(flat); m != nil {
		t.HailComparator = m[1]
		t.HailSize = parseTagFloat(m[2])
	}
	if m := patterns.WindTagPattern.FindStringSubmatch(flat); m != nil {
		v, _ := strconv.Atoi(m[2])
		t.WindGust = &v
		t.WindComparator = m[1]
		t.WindUnits = m[3]
	}
	if m := patterns.TornadoTagPattern.FindStringSubmatch(text); m != nil {
		if tag, err := ParseTornadoTag(strings.TrimSpace(m[1])); err != nil {
			ws = append(ws, AsWarning(err))
		} else {
			t.Tornado = tag
		}
	}
	if m := patterns.DamageTagPattern.FindStringSubmatch(flat); m != nil {
		if tag, err := ParseDamageTag(m[1]); err != nil {
			ws = append(ws, AsWarning(err))
		} else {
			t.Damage = tag
		}
	}
	if m := patterns.WaterspoutTagPattern.FindStringSubmatch(text); m != nil {
		t.Waterspout = strings.TrimSpace(m[1])
	}
	if m := patterns.LandspoutTagPattern.FindStringSubmatch(text); m != nil {
		t.Landspout = strings.TrimSpace(m[1])
	}
	if m := patterns.FlashFloodTagPattern.FindStringSubmatch(text); m != nil {
		t.FlashFlood = strings.TrimSpace(m[1])
	}
	return t, ws
}

func parseTagFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
