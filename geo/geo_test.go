package geo

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestLineBounds(t *testing.T) {
	line := Line{
		{Lat: 56.0, Lon: -4.5},
		{Lat: 56.75, Lon: -5.25},
		{Lat: 56.5, Lon: -4.25},
	}
	b := line.Bounds()
	assert.Equal(t, -5.25, b.MinLon)
	assert.Equal(t, -4.25, b.MaxLon)
	assert.Equal(t, 56.0, b.MinLat)
	assert.Equal(t, 56.75, b.MaxLat)
	assert.Equal(t, 1.0, b.Width())
	assert.Equal(t, 0.75, b.Height())
}

func TestLineStartEnd(t *testing.T) {
	line := Line{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}, {Lat: 5, Lon: 6}}
	assert.Equal(t, Pos{Lat: 1, Lon: 2}, line.Start())
	assert.Equal(t, Pos{Lat: 5, Lon: 6}, line.End())

	line.Reverse()
	assert.Equal(t, Pos{Lat: 5, Lon: 6}, line.Start())
	assert.Equal(t, Pos{Lat: 1, Lon: 2}, line.End())
}

func TestMergeLines(t *testing.T) {
	merged := MergeLines([]Line{
		{{Lat: 1}, {Lat: 2}},
		{{Lat: 3}},
		{{Lat: 4}, {Lat: 5}},
	})
	assert.Equal(t, Line{{Lat: 1}, {Lat: 2}, {Lat: 3}, {Lat: 4}, {Lat: 5}}, merged)
}

func TestDistance(t *testing.T) {
	// Glasgow to Fort William is roughly 100km
	glasgow := Pos{Lat: 55.8642, Lon: -4.2518}
	fortWilliam := Pos{Lat: 56.8198, Lon: -5.1052}
	d := glasgow.Distance(fortWilliam)
	assert.True(t, d > 100 && d < 125)
}

func TestLineLength(t *testing.T) {
	glasgow := Pos{Lat: 55.8642, Lon: -4.2518}
	fortWilliam := Pos{Lat: 56.8198, Lon: -5.1052}
	line := Line{glasgow, fortWilliam}
	assert.Equal(t, glasgow.Distance(fortWilliam), line.Length())
	assert.Equal(t, 0.0, Line{glasgow}.Length())
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{MinLon: -5, MinLat: 56, MaxLon: -4, MaxLat: 57}
	assert.True(t, b.Contains(Pos{Lat: 56.5, Lon: -4.5}))
	assert.True(t, b.Contains(Pos{Lat: 56, Lon: -5}))
	assert.False(t, b.Contains(Pos{Lat: 55.9, Lon: -4.5}))
	assert.False(t, b.Contains(Pos{Lat: 56.5, Lon: -3.9}))
}

func TestBoundsUnion(t *testing.T) {
	a := Bounds{MinLon: -5, MinLat: 56, MaxLon: -4, MaxLat: 57}
	b := Bounds{MinLon: -4.5, MinLat: 55, MaxLon: -3, MaxLat: 56.5}
	u := a.Union(b)
	assert.Equal(t, Bounds{MinLon: -5, MinLat: 55, MaxLon: -3, MaxLat: 57}, u)
}

func TestLineString(t *testing.T) {
	line := Line{{Lat: 56, Lon: -4, Ele: 100}, {Lat: 57, Lon: -5, Ele: 200}}
	ls := line.LineString()
	assert.Equal(t, 2, len(ls))
	assert.Equal(t, -4.0, ls[0][0])
	assert.Equal(t, 56.0, ls[0][1])
}
