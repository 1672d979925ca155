package geo

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/paulmach/orb"
)

// a square with jitter vertices along the edges
func jitterySquare() orb.Polygon {
	return orb.Polygon{{
		{0, 0}, {1, 0.01}, {2, 0}, {3, -0.01}, {4, 0},
		{4, 2}, {4, 4},
		{2, 4.01}, {0, 4},
		{0, 2}, {0, 0},
	}}
}

func TestSimplifyPolygonReducesVertices(t *testing.T) {
	p := jitterySquare()
	simplified := SimplifyPolygon(p, 0.1)
	assert.True(t, len(simplified[0]) < len(p[0]))
	assert.True(t, simplified[0].Closed())
	assert.False(t, RingSelfIntersects(simplified[0]))
}

func TestSimplifyPolygonIdempotent(t *testing.T) {
	p := jitterySquare()
	once := SimplifyPolygon(p, 0.1)
	twice := SimplifyPolygon(once, 0.1)
	assert.Equal(t, once, twice)
}

func TestSimplifyPolygonKeepsValidity(t *testing.T) {
	// a star-ish valid ring that Douglas-Peucker could degrade
	p := orb.Polygon{{
		{0, 0}, {5, 1}, {10, 0}, {9, 5}, {10, 10},
		{5, 9}, {0, 10}, {1, 5}, {0, 0},
	}}
	simplified := SimplifyPolygon(p, 3)
	assert.False(t, RingSelfIntersects(simplified[0]))
}

func TestSimplifyLineKeepsEndpoints(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 0.001}, {2, -0.001}, {3, 0}}
	simplified := SimplifyLine(ls, 0.1)
	assert.Equal(t, ls[0], simplified[0])
	assert.Equal(t, ls[len(ls)-1], simplified[len(simplified)-1])
	assert.Equal(t, 2, len(simplified))
}

func TestRingSelfIntersects(t *testing.T) {
	square := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}
	assert.False(t, RingSelfIntersects(square))

	bowtie := orb.Ring{{0, 0}, {4, 4}, {4, 0}, {0, 4}, {0, 0}}
	assert.True(t, RingSelfIntersects(bowtie))
}

func TestAreaRoundTrip(t *testing.T) {
	p := orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}
	assert.Equal(t, 4.0, Area(p))

	back := ToWGS84(ToMercator(p))
	assert.Equal(t, len(p[0]), len(back[0]))
	for i := range p[0] {
		assert.True(t, back[0][i][0]-p[0][i][0] < 1e-9 && p[0][i][0]-back[0][i][0] < 1e-9)
		assert.True(t, back[0][i][1]-p[0][i][1] < 1e-9 && p[0][i][1]-back[0][i][1] < 1e-9)
	}
}
