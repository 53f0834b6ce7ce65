package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"

	"nws_parser/internal/nws"
)

// nudge is how far an endpoint is pushed past the boundary.
const nudge = 0.01

// ConditionSegment prepares one raw segment for conversion. A closed
// segment is returned as is. An open segment whose ends sit inside the
// boundary close to each other is closed. One crossing the boundary three
// or more times is split at the crossings. Remaining open ends inside the
// boundary are extended just past it.
func ConditionSegment(b *Boundary, seg orb.LineString) ([]orb.LineString, error) {
	if len(seg) < 2 {
		return nil, fmt.Errorf("%w: segment with %d points", nws.ErrInvalidGeometry, len(seg))
	}
	if seg[0].Equal(seg[len(seg)-1]) {
		if len(seg) < 4 {
			return nil, fmt.Errorf("%w: closed segment with %d points", nws.ErrInvalidGeometry, len(seg))
		}
		return []orb.LineString{seg}, nil
	}

	pieces := []orb.LineString{seg}
	if crossings(b, seg) >= 3 {
		pieces = splitAtCrossings(b, seg)
	}

	var out []orb.LineString
	for _, piece := range pieces {
		if len(piece) < 2 {
			continue
		}
		start, end := piece[0], piece[len(piece)-1]
		if b.Contains(start) && b.Contains(end) {
			_, ds, _ := b.Nearest(start)
			_, de, _ := b.Nearest(end)
			if gap := planar.Distance(start, end); gap < ds && gap < de {
				closed := append(append(orb.LineString(nil), piece...), start)
				if len(closed) >= 4 {
					out = append(out, closed)
				}
				continue
			}
		}
		out = append(out, extendEnds(b, piece))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable segments", nws.ErrInvalidGeometry)
	}
	return out, nil
}

func crossings(b *Boundary, seg orb.LineString) int {
	n := 0
	prev := b.Contains(seg[0])
	for _, p := range seg[1:] {
		in := b.Contains(p)
		if in != prev {
			n++
		}
		prev = in
	}
	return n
}

// splitAtCrossings keeps each run of interior vertices together with the
// exterior vertex on either side of it.
func splitAtCrossings(b *Boundary, seg orb.LineString) []orb.LineString {
	var out []orb.LineString
	var cur orb.LineString
	for i, p := range seg {
		if b.Contains(p) {
			if cur == nil && i > 0 {
				cur = append(cur, seg[i-1])
			}
			cur = append(cur, p)
			continue
		}
		if cur != nil {
			cur = append(cur, p)
			out = append(out, cur)
			cur = nil
		}
	}
	if cur != nil {
		out = append(out, cur)
	}
	return out
}

func extendEnds(b *Boundary, line orb.LineString) orb.LineString {
	out := append(orb.LineString(nil), line...)
	if p, ok := pushOut(b, out[0], out[1]); ok {
		out = append(orb.LineString{p}, out...)
	}
	n := len(out)
	if p, ok := pushOut(b, out[n-1], out[n-2]); ok {
		out = append(out, p)
	}
	return out
}

// pushOut returns a point just outside the boundary beyond an interior
// endpoint. neighbour gives the direction when the endpoint sits on the
// boundary itself.
func pushOut(b *Boundary, end, neighbour orb.Point) (orb.Point, bool) {
	if !b.Contains(end) {
		return orb.Point{}, false
	}
	q, d, _ := b.Nearest(end)
	dx, dy := q[0]-end[0], q[1]-end[1]
	if d == 0 {
		dx, dy = end[0]-neighbour[0], end[1]-neighbour[1]
		d = math.Hypot(dx, dy)
		if d == 0 {
			return orb.Point{}, false
		}
	}
	return orb.Point{q[0] + dx/d*nudge, q[1] + dy/d*nudge}, true
}

// Converted holds segments sorted by role.
type Converted struct {
	Exteriors []orb.Ring
	Holes     []orb.Ring
	Open      []orb.LineString
}

// ConvertSegments classifies conditioned segments. The area of interest
// lies to the right of the drawn line, so a clockwise ring is an exterior
// and a counter-clockwise one is a hole. This follows how SPC draws
// outlooks, where a closed ring traced counter-clockwise cuts an area out
// of the enclosing threshold.
func ConvertSegments(segs []orb.LineString) Converted {
	var c Converted
	for _, s := range segs {
		if !s[0].Equal(s[len(s)-1]) {
			c.Open = append(c.Open, s)
			continue
		}
		ring := orb.Ring(append(orb.LineString(nil), s...))
		if ring.Orientation() == orb.CCW {
			c.Holes = append(c.Holes, ring)
			continue
		}
		c.Exteriors = append(c.Exteriors, ring)
	}
	return c
}

type projected struct {
	line       orb.LineString
	start, end float64
}

// WindingLogic closes open lines against the boundary. Lines are ordered by
// where their start projects onto the ring. From the end of a line the ring
// is followed clockwise until the next unused line start, which is chained
// in, until the walk returns to the first line.
func WindingLogic(b *Boundary, open []orb.LineString) []orb.Polygon {
	lines := make([]projected, 0, len(open))
	for _, l := range open {
		lines = append(lines, projected{
			line:  l,
			start: b.Project(l[0]),
			end:   b.Project(l[len(l)-1]),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].start < lines[j].start })

	length := b.Length()
	used := make([]bool, len(lines))
	var out []orb.Polygon
	for first := range lines {
		if used[first] {
			continue
		}
		var ring orb.Ring
		cur := first
		for guard := 0; guard <= len(lines); guard++ {
			used[cur] = true
			ring = append(ring, lines[cur].line...)
			next, best := first, forward(lines[cur].end, lines[first].start, length)
			for j := range lines {
				if used[j] {
					continue
				}
				if d := forward(lines[cur].end, lines[j].start, length); d < best {
					next, best = j, d
				}
			}
			ring = append(ring, b.Walk(lines[cur].end, lines[next].start)...)
			if next == first {
				break
			}
			cur = next
		}
		ring = append(ring, ring[0])
		if len(ring) >= 4 {
			out = append(out, orb.Polygon{ring})
		}
	}
	return out
}

// forward is the clockwise distance along a ring of the given length.
func forward(from, to, length float64) float64 {
	d := math.Mod(to-from, length)
	if d < 0 {
		d += length
	}
	return d
}

// Build runs raw segments through conditioning, conversion and winding and
// returns the resulting area clipped to the boundary.
func Build(b *Boundary, segs []orb.LineString) (orb.MultiPolygon, error) {
	var conditioned []orb.LineString
	var firstErr error
	for _, s := range segs {
		parts, err := ConditionSegment(b, s)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		conditioned = append(conditioned, parts...)
	}
	if len(conditioned) == 0 {
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: no segments", nws.ErrInvalidGeometry)
		}
		return nil, firstErr
	}

	conv := ConvertSegments(conditioned)
	polys := WindingLogic(b, conv.Open)
	for _, r := range conv.Exteriors {
		polys = append(polys, orb.Polygon{r})
	}

	var parts []*geos.Geom
	for _, p := range polys {
		g, err := toGEOS(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, g.MakeValid().Intersection(b.geos()))
	}

	for _, h := range conv.Holes {
		hole := append(orb.Ring(nil), h...)
		hole.Reverse()
		hg, err := toGEOS(orb.Polygon{hole})
		if err != nil {
			return nil, err
		}
		hg = hg.MakeValid()
		placed := false
		for i, p := range parts {
			if p != nil && p.Contains(hg) {
				parts[i] = p.Difference(hg)
				placed = true
				break
			}
		}
		if !placed {
			parts = append(parts, b.geos().Difference(hg))
		}
	}

	merged := union(parts)
	out, err := fromGEOS(merged)
	if err != nil {
		return nil, err
	}
	out = dropSlivers(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: outlook produced an empty area", nws.ErrInvalidGeometry)
	}
	return out, nil
}
