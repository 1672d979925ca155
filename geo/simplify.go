package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/orb/simplify"
)

// SimplifyPolygon reduces the vertex count of every ring with
// Douglas-Peucker at the given tolerance (same units as the coordinates).
// A simplified ring that self-intersects or collapses is discarded in
// favor of the input ring, so a valid polygon stays valid.
func SimplifyPolygon(p orb.Polygon, tolerance float64) orb.Polygon {
	out := make(orb.Polygon, 0, len(p))
	dp := simplify.DouglasPeucker(tolerance)
	for _, ring := range p {
		candidate := dp.Ring(ring.Clone())
		if len(candidate) < 4 || !candidate.Closed() || RingSelfIntersects(candidate) {
			out = append(out, ring)
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// SimplifyLine reduces the vertex count of an open line, keeping the first
// and last vertex.
func SimplifyLine(ls orb.LineString, tolerance float64) orb.LineString {
	if len(ls) < 3 {
		return ls
	}
	return simplify.DouglasPeucker(tolerance).LineString(ls.Clone())
}

// RingSelfIntersects reports whether any two non-adjacent edges of the ring
// cross. Quadratic, but the rings here are already vertex-filtered for
// print scale.
func RingSelfIntersects(ring orb.Ring) bool {
	n := len(ring) - 1 // closing point duplicates the first
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			if segmentsCross(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a, b, c, d orb.Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// Area is the absolute polygon area in the squared units of its
// coordinates. Project to mercator first for an area in m².
func Area(p orb.Polygon) float64 {
	a := planar.Area(p)
	if a < 0 {
		return -a
	}
	return a
}

// ToMercator projects a lon/lat polygon to web mercator meters.
func ToMercator(p orb.Polygon) orb.Polygon {
	return project.Polygon(p.Clone(), project.WGS84.ToMercator)
}

// ToWGS84 projects a web mercator polygon back to lon/lat.
func ToWGS84(p orb.Polygon) orb.Polygon {
	return project.Polygon(p, project.Mercator.ToWGS84)
}
