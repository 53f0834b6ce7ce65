package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// minArea drops slivers left behind by clipping and differencing.
const minArea = 1e-6

func toGEOS(g orb.Geometry) (*geos.Geom, error) {
	data, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	out, err := geos.NewGeomFromWKB(data)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	return out, nil
}

// fromGEOS converts a polygonal result into a multipolygon, dropping any
// lines or points a topology operation produced along the way.
func fromGEOS(g *geos.Geom) (orb.MultiPolygon, error) {
	if g == nil || g.IsEmpty() {
		return nil, nil
	}
	decoded, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	return polygons(decoded), nil
}

func polygons(g orb.Geometry) orb.MultiPolygon {
	switch v := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{v}
	case orb.MultiPolygon:
		return v
	case orb.Collection:
		var out orb.MultiPolygon
		for _, sub := range v {
			out = append(out, polygons(sub)...)
		}
		return out
	}
	return nil
}

// Area is the planar area in square degrees as computed by GEOS.
func Area(mp orb.MultiPolygon) float64 {
	if len(mp) == 0 {
		return 0
	}
	g, err := toGEOS(mp)
	if err != nil {
		return 0
	}
	return g.Area()
}

// Difference returns a minus b.
func Difference(a, b orb.MultiPolygon) (orb.MultiPolygon, error) {
	if len(a) == 0 || len(b) == 0 {
		return a, nil
	}
	ga, err := toGEOS(a)
	if err != nil {
		return nil, err
	}
	gb, err := toGEOS(b)
	if err != nil {
		return nil, err
	}
	out, err := fromGEOS(ga.MakeValid().Difference(gb.MakeValid()))
	if err != nil {
		return nil, err
	}
	return dropSlivers(out), nil
}

// Intersection returns the overlap of a and b.
func Intersection(a, b orb.MultiPolygon) (orb.MultiPolygon, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}
	ga, err := toGEOS(a)
	if err != nil {
		return nil, err
	}
	gb, err := toGEOS(b)
	if err != nil {
		return nil, err
	}
	return fromGEOS(ga.MakeValid().Intersection(gb.MakeValid()))
}

func union(parts []*geos.Geom) *geos.Geom {
	var acc *geos.Geom
	for _, p := range parts {
		if p == nil || p.IsEmpty() {
			continue
		}
		if acc == nil {
			acc = p
			continue
		}
		acc = acc.Union(p)
	}
	return acc
}

func dropSlivers(mp orb.MultiPolygon) orb.MultiPolygon {
	out := mp[:0]
	for _, p := range mp {
		if len(p) > 0 && Area(orb.MultiPolygon{p}) > minArea {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Buffer widens a point or line by degrees on every side.
func Buffer(g orb.Geometry, degrees float64) (orb.MultiPolygon, error) {
	gg, err := toGEOS(g)
	if err != nil {
		return nil, err
	}
	return fromGEOS(gg.Buffer(degrees, 8))
}
