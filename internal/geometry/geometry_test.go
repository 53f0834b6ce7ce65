package geometry

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

func square(t *testing.T) *Boundary {
	t.Helper()
	b, err := NewBoundary("square", orb.Polygon{{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}})
	require.NoError(t, err)
	return b
}

func TestBoundaryProjection(t *testing.T) {
	b := square(t)
	assert.Equal(t, 40.0, b.Length())
	assert.InDelta(t, 7.0, b.Project(orb.Point{-1, 7}), 1e-9)
	assert.InDelta(t, 23.0, b.Project(orb.Point{11, 7}), 1e-9)
	assert.Equal(t, []orb.Point{{10, 0}, {0, 0}}, b.Walk(25, 5))
	assert.Equal(t, []orb.Point{{0, 10}, {10, 10}}, b.Walk(5, 25))
	assert.True(t, b.Contains(orb.Point{5, 5}))
	assert.False(t, b.Contains(orb.Point{11, 5}))
}

func TestBoundaryOrientation(t *testing.T) {
	b, err := NewBoundary("ccw", orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}})
	require.NoError(t, err)
	assert.Equal(t, orb.CW, b.Ring().Orientation())
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		segs []orb.LineString
		area float64
	}{
		{
			name: "single crossing line keeps right side",
			segs: []orb.LineString{{{-1, 5}, {11, 5}}},
			area: 50,
		},
		{
			name: "two lines make a band",
			segs: []orb.LineString{{{-1, 7}, {11, 7}}, {{11, 3}, {-1, 3}}},
			area: 40,
		},
		{
			name: "clockwise ring is an exterior",
			segs: []orb.LineString{{{2, 2}, {2, 8}, {8, 8}, {8, 2}, {2, 2}}},
			area: 36,
		},
		{
			name: "nearly closed line is closed",
			segs: []orb.LineString{{{2, 2}, {2, 8}, {8, 8}, {8, 2}, {2.5, 2}}},
			area: 36,
		},
		{
			name: "orphan hole cuts the boundary",
			segs: []orb.LineString{{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}},
			area: 96,
		},
		{
			name: "hole inside exterior",
			segs: []orb.LineString{
				{{1, 1}, {1, 9}, {9, 9}, {9, 1}, {1, 1}},
				{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
			},
			area: 60,
		},
	}
	b := square(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mp, err := Build(b, tc.segs)
			require.NoError(t, err)
			assert.InDelta(t, tc.area, Area(mp), 1e-6)
		})
	}
}

func TestBuildRejectsEmpty(t *testing.T) {
	_, err := Build(square(t), []orb.LineString{{{1, 1}}})
	assert.ErrorIs(t, err, nws.ErrInvalidGeometry)
}

func TestConditionSplitsRepeatedCrossings(t *testing.T) {
	b := square(t)
	seg := orb.LineString{{-1, 2}, {3, 2}, {3, -1}, {6, -1}, {6, 2}, {11, 2}}
	parts, err := ConditionSegment(b, seg)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, orb.LineString{{-1, 2}, {3, 2}, {3, -1}}, parts[0])
	assert.Equal(t, orb.LineString{{6, -1}, {6, 2}, {11, 2}}, parts[1])
}

func TestConditionPushesInteriorEnd(t *testing.T) {
	b := square(t)
	parts, err := ConditionSegment(b, orb.LineString{{5, 5}, {5, 12}})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	require.Len(t, parts[0], 3)
	assert.False(t, b.Contains(parts[0][0]))
}

func TestConvertSegments(t *testing.T) {
	c := ConvertSegments([]orb.LineString{
		{{1, 1}, {1, 9}, {9, 9}, {9, 1}, {1, 1}},
		{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
		{{-1, 5}, {11, 5}},
	})
	require.Len(t, c.Exteriors, 1)
	require.Len(t, c.Holes, 1)
	assert.Len(t, c.Open, 1)
	assert.Equal(t, orb.CW, c.Exteriors[0].Orientation())
	assert.Equal(t, orb.CCW, c.Holes[0].Orientation())
}

func TestDifference(t *testing.T) {
	big := orb.MultiPolygon{{{{0, 0}, {0, 4}, {4, 4}, {4, 0}, {0, 0}}}}
	small := orb.MultiPolygon{{{{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}}}}
	diff, err := Difference(big, small)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, Area(diff), 1e-9)

	same, err := Difference(big, nil)
	require.NoError(t, err)
	assert.Equal(t, big, same)
}

func TestCONUSLoads(t *testing.T) {
	c := CONUS()
	assert.True(t, c.Contains(orb.Point{-93.6, 41.6}))
	assert.False(t, c.Contains(orb.Point{-60, 30}))
	assert.Greater(t, Area(orb.MultiPolygon{c.Polygon}), 500.0)
}

func TestReadBoundary(t *testing.T) {
	ring := `[[0,0],[0,10],[10,10],[10,0],[0,0]]`
	small := `[[20,20],[20,21],[21,21],[21,20],[20,20]]`
	tests := []struct {
		name string
		data string
		area float64
		err  bool
	}{
		{"feature", `{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[` + ring + `]}}`, 100, false},
		{"collection keeps largest", `{"type":"FeatureCollection","features":[` +
			`{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[` + small + `]}},` +
			`{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[` + ring + `]}}]}`, 100, false},
		{"bare multipolygon", `{"type":"MultiPolygon","coordinates":[[` + small + `],[` + ring + `]]}`, 100, false},
		{"no polygon", `{"type":"Point","coordinates":[1,2]}`, 0, true},
		{"garbage", `not json`, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := ReadBoundary("test", []byte(tc.data))
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.area, Area(orb.MultiPolygon{b.Polygon}), 1e-9)
			assert.Equal(t, orb.CW, b.Ring().Orientation())
		})
	}
}

func TestUseBoundaries(t *testing.T) {
	prevCurrent := CONUS()
	prevLegacy := BoundaryAt(LegacyCutover.Add(-time.Hour))
	t.Cleanup(func() { require.NoError(t, UseBoundaries(prevCurrent, prevLegacy)) })

	sq := square(t)
	require.NoError(t, UseBoundaries(sq, nil))
	assert.Same(t, sq, CONUS())
	assert.Same(t, sq, BoundaryAt(LegacyCutover))

	old := BoundaryAt(LegacyCutover.Add(-time.Minute))
	assert.Equal(t, "conus_marine", old.Name)
	assert.True(t, old.Contains(orb.Point{-0.25, 5}))
	assert.Greater(t, old.Length(), sq.Length())

	assert.Error(t, UseBoundaries(nil, nil))
}

func TestEmbeddedBoundaries(t *testing.T) {
	current, err := ReadBoundary("conus", conusGeoJSON)
	require.NoError(t, err)
	old, err := LegacyFrom(current)
	require.NoError(t, err)

	assert.Greater(t, Area(orb.MultiPolygon{old.Polygon}), Area(orb.MultiPolygon{current.Polygon}))
	// Coastal water just off Cape Hatteras is only inside the legacy outline.
	off := orb.Point{-75.2, 35.2}
	assert.False(t, current.Contains(off))
	assert.True(t, old.Contains(off))
}
