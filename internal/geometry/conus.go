// Package geometry builds outlook polygons from the open and closed point
// segments carried by SPC, WPC and fire weather outlooks.
package geometry

import (
	_ "embed"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"
)

// LegacyCutover is when outlooks switched from the combined land and
// marine boundary to the land-only outline.
var LegacyCutover = time.Date(2019, 5, 9, 16, 0, 0, 0, time.UTC)

// legacyMargin widens the land outline into the older marine boundary.
const legacyMargin = 0.5

// conusGeoJSON is a generalized outline of the lower 48 states.
//
//go:embed data/conus.geojson
var conusGeoJSON []byte

var (
	boundaryMu sync.RWMutex
	conus      *Boundary
	legacy     *Boundary
)

// ReadBoundary decodes a GeoJSON Feature, FeatureCollection or bare
// geometry. The largest polygon found becomes the boundary.
func ReadBoundary(name string, data []byte) (*Boundary, error) {
	var g orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		var mp orb.MultiPolygon
		for _, f := range fc.Features {
			mp = append(mp, polygons(f.Geometry)...)
		}
		g = mp
	} else if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		g = f.Geometry
	} else {
		gg, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("boundary %s: %w", name, err)
		}
		g = gg.Geometry()
	}
	var best orb.Polygon
	bestArea := 0.0
	for _, poly := range polygons(g) {
		if a := planar.Area(poly); a > bestArea {
			best, bestArea = poly, a
		}
	}
	if best == nil {
		return nil, fmt.Errorf("boundary %s has no polygon", name)
	}
	return NewBoundary(name, best)
}

// LegacyFrom widens a land outline into a stand-in for the combined land
// and marine boundary.
func LegacyFrom(b *Boundary) (*Boundary, error) {
	poly, err := fromGEOS(b.geos().Buffer(legacyMargin, 4))
	if err != nil {
		return nil, err
	}
	if len(poly) == 0 {
		return nil, fmt.Errorf("legacy boundary is empty")
	}
	return NewBoundary("conus_marine", orb.Polygon{poly[0][0]})
}

// UseBoundaries replaces the current and legacy boundaries. A nil legacy
// boundary is derived from current.
func UseBoundaries(current, old *Boundary) error {
	if current == nil {
		return fmt.Errorf("current boundary is required")
	}
	if old == nil {
		var err error
		if old, err = LegacyFrom(current); err != nil {
			return err
		}
	}
	boundaryMu.Lock()
	conus, legacy = current, old
	boundaryMu.Unlock()
	return nil
}

func loadDefaults() (*Boundary, *Boundary) {
	boundaryMu.RLock()
	c, l := conus, legacy
	boundaryMu.RUnlock()
	if c != nil {
		return c, l
	}
	current, err := ReadBoundary("conus", conusGeoJSON)
	if err != nil {
		panic(err)
	}
	boundaryMu.Lock()
	defer boundaryMu.Unlock()
	if conus == nil {
		old, err := LegacyFrom(current)
		if err != nil {
			panic(err)
		}
		conus, legacy = current, old
	}
	return conus, legacy
}

// CONUS returns the current land boundary.
func CONUS() *Boundary {
	c, _ := loadDefaults()
	return c
}

// BoundaryAt returns the boundary in force at valid.
func BoundaryAt(valid time.Time) *Boundary {
	c, l := loadDefaults()
	if valid.Before(LegacyCutover) {
		return l
	}
	return c
}

// Boundary is a clockwise outline used to close open outlook segments.
type Boundary struct {
	Name    string
	Polygon orb.Polygon

	ring orb.Ring
	cum  []float64
	g    *geos.Geom
}

// NewBoundary prepares poly for projection. Only the exterior ring is used.
func NewBoundary(name string, poly orb.Polygon) (*Boundary, error) {
	if len(poly) == 0 || len(poly[0]) < 4 {
		return nil, fmt.Errorf("boundary %s needs a ring", name)
	}
	ring := append(orb.Ring(nil), poly[0]...)
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if ring.Orientation() == orb.CCW {
		ring.Reverse()
	}
	b := &Boundary{Name: name, Polygon: orb.Polygon{ring}, ring: ring}
	b.cum = make([]float64, len(ring))
	for i := 1; i < len(ring); i++ {
		b.cum[i] = b.cum[i-1] + planar.Distance(ring[i-1], ring[i])
	}
	g, err := toGEOS(b.Polygon)
	if err != nil {
		return nil, err
	}
	b.g = g
	return b, nil
}

func (b *Boundary) geos() *geos.Geom { return b.g }

// Ring is the clockwise exterior.
func (b *Boundary) Ring() orb.Ring { return b.ring }

// Length is the ring perimeter in degrees.
func (b *Boundary) Length() float64 { return b.cum[len(b.cum)-1] }

// Contains reports whether p lies inside the boundary.
func (b *Boundary) Contains(p orb.Point) bool {
	return planar.RingContains(b.ring, p)
}

// Nearest returns the closest point on the ring to p, the distance to it
// and its position along the ring.
func (b *Boundary) Nearest(p orb.Point) (orb.Point, float64, float64) {
	best := math.Inf(1)
	var bestPt orb.Point
	var bestT float64
	for i := 0; i+1 < len(b.ring); i++ {
		q, frac := nearestOnSegment(p, b.ring[i], b.ring[i+1])
		d := planar.Distance(p, q)
		if d < best {
			best = d
			bestPt = q
			bestT = b.cum[i] + frac*(b.cum[i+1]-b.cum[i])
		}
	}
	return bestPt, best, bestT
}

// Project returns the position along the ring nearest to p.
func (b *Boundary) Project(p orb.Point) float64 {
	_, _, t := b.Nearest(p)
	return t
}

// Walk returns the ring vertices strictly after position from and before
// position to, travelling clockwise and wrapping at the ring start.
func (b *Boundary) Walk(from, to float64) []orb.Point {
	n := len(b.ring) - 1
	var out []orb.Point
	if to > from {
		for i := 0; i < n; i++ {
			if b.cum[i] > from && b.cum[i] < to {
				out = append(out, b.ring[i])
			}
		}
		return out
	}
	for i := 0; i < n; i++ {
		if b.cum[i] > from {
			out = append(out, b.ring[i])
		}
	}
	for i := 0; i < n; i++ {
		if b.cum[i] < to {
			out = append(out, b.ring[i])
		}
	}
	return out
}

func nearestOnSegment(p, a, c orb.Point) (orb.Point, float64) {
	dx, dy := c[0]-a[0], c[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a, 0
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return orb.Point{a[0] + t*dx, a[1] + t*dy}, t
}
