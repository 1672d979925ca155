package geo

import "github.com/paulmach/orb"

// Smooth applies Chaikin corner cutting to an open line. The first and last
// vertex are kept exactly; each interior corner is replaced by two points at
// 1/4 and 3/4 of the adjoining edges. Elevation is interpolated with the
// same weights.
func Smooth(line Line, iterations int) Line {
	if iterations <= 0 || len(line) < 3 {
		return line
	}
	out := line
	for n := 0; n < iterations; n++ {
		smoothed := make(Line, 0, 2*len(out))
		smoothed = append(smoothed, out[0])
		for i := 0; i < len(out)-1; i++ {
			a, b := out[i], out[i+1]
			smoothed = append(smoothed,
				Pos{
					Lat: 0.75*a.Lat + 0.25*b.Lat,
					Lon: 0.75*a.Lon + 0.25*b.Lon,
					Ele: 0.75*a.Ele + 0.25*b.Ele,
				},
				Pos{
					Lat: 0.25*a.Lat + 0.75*b.Lat,
					Lon: 0.25*a.Lon + 0.75*b.Lon,
					Ele: 0.25*a.Ele + 0.75*b.Ele,
				},
			)
		}
		smoothed = append(smoothed, out[len(out)-1])
		out = smoothed
	}
	return out
}

// SmoothRing applies Chaikin corner cutting to a closed ring. Every corner
// is cut, so the output is closed but does not retain any original vertex.
func SmoothRing(ring orb.Ring, iterations int) orb.Ring {
	if iterations <= 0 || len(ring) < 4 {
		return ring
	}
	closed := ring.Closed()
	out := ring
	if closed {
		out = out[:len(out)-1]
	}
	for n := 0; n < iterations; n++ {
		smoothed := make(orb.Ring, 0, 2*len(out))
		for i := range out {
			a, b := out[i], out[(i+1)%len(out)]
			smoothed = append(smoothed,
				orb.Point{0.75*a[0] + 0.25*b[0], 0.75*a[1] + 0.25*b[1]},
				orb.Point{0.25*a[0] + 0.75*b[0], 0.25*a[1] + 0.75*b[1]},
			)
		}
		out = smoothed
	}
	out = append(out, out[0])
	return out
}

// SmoothPolygon smooths every ring of the polygon.
func SmoothPolygon(p orb.Polygon, iterations int) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		out[i] = SmoothRing(ring, iterations)
	}
	return out
}
