package geo

import (
	"math"

	"github.com/paulmach/orb"
)

type Line []Pos

func (l Line) Length() float64 {
	var total float64
	for i, pos := range l {
		if i == 0 {
			continue
		}
		total += l[i-1].Distance(pos)
	}
	return total
}

func (l Line) Reverse() {
	for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
		l[i], l[j] = l[j], l[i]
	}
}

// Start is the first Pos in the line
func (l Line) Start() Pos {
	return l[0]
}

// End is the last Pos in the line
func (l Line) End() Pos {
	return l[len(l)-1]
}

// Bounds is the lon/lat bounding box of the line.
func (l Line) Bounds() Bounds {
	b := Bounds{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, pos := range l {
		b = b.Extend(pos)
	}
	return b
}

// LineString converts to an orb geometry, dropping elevations.
func (l Line) LineString() orb.LineString {
	ls := make(orb.LineString, len(l))
	for i, pos := range l {
		ls[i] = orb.Point{pos.Lon, pos.Lat}
	}
	return ls
}

func MergeLines(lines []Line) Line {
	var totalLen int
	for _, s := range lines {
		totalLen += len(s)
	}
	tmp := make(Line, totalLen)
	var i int
	for _, s := range lines {
		i += copy(tmp[i:], s)
	}
	return tmp
}

type Pos struct {
	Lat, Lon, Ele float64
}

// distance in km to another location (only considering lat and lon)
func (p1 Pos) Distance(p2 Pos) float64 {
	const PI float64 = 3.141592653589793

	radlat1 := float64(PI * p1.Lat / 180)
	radlat2 := float64(PI * p2.Lat / 180)

	theta := float64(p1.Lon - p2.Lon)
	radtheta := float64(PI * theta / 180)

	dist := math.Sin(radlat1)*math.Sin(radlat2) + math.Cos(radlat1)*math.Cos(radlat2)*math.Cos(radtheta)

	if dist > 1 {
		dist = 1
	}

	dist = math.Acos(dist)
	dist = dist * 180 / PI
	dist = dist * 60 * 1.1515

	dist = dist * 1.609344

	return dist
}

// Bounds is a lon/lat axis-aligned bounding box.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

func (b Bounds) Extend(pos Pos) Bounds {
	if pos.Lon < b.MinLon {
		b.MinLon = pos.Lon
	}
	if pos.Lon > b.MaxLon {
		b.MaxLon = pos.Lon
	}
	if pos.Lat < b.MinLat {
		b.MinLat = pos.Lat
	}
	if pos.Lat > b.MaxLat {
		b.MaxLat = pos.Lat
	}
	return b
}

func (b Bounds) Union(other Bounds) Bounds {
	return b.Extend(Pos{Lat: other.MinLat, Lon: other.MinLon}).Extend(Pos{Lat: other.MaxLat, Lon: other.MaxLon})
}

func (b Bounds) Width() float64 {
	return b.MaxLon - b.MinLon
}

func (b Bounds) Height() float64 {
	return b.MaxLat - b.MinLat
}

func (b Bounds) Center() (lon, lat float64) {
	return (b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2
}

func (b Bounds) Contains(pos Pos) bool {
	return pos.Lon >= b.MinLon && pos.Lon <= b.MaxLon && pos.Lat >= b.MinLat && pos.Lat <= b.MaxLat
}
