// Package geom holds the small amount of 3-D vector math used by skeletons.
// Coordinates are in the volume's z, y, x axis order.
package geom

import "math"

// Point is a position in z, y, x order.
type Point struct {
	Z, Y, X float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.Z - q.Z, p.Y - q.Y, p.X - q.X}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.Z*q.Z + p.Y*q.Y + p.X*q.X
}

// Dist returns the Euclidean distance between p and q.
func Dist(p, q Point) float64 {
	return math.Sqrt(DistSq(p, q))
}

// DistSq returns the squared Euclidean distance between p and q.
// Use for candidate ordering, where the square root is wasted work.
func DistSq(p, q Point) float64 {
	d := p.Sub(q)
	return d.Dot(d)
}

// PointToSegmentDist computes the distance from point p to segment ab,
// and returns the projection ratio along ab (clamped to [0,1]).
// A degenerate segment (a == b) yields the distance to a and ratio 0.
func PointToSegmentDist(p, a, b Point) (dist float64, ratio float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return Dist(p, a), 0
	}

	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := Point{a.Z + t*ab.Z, a.Y + t*ab.Y, a.X + t*ab.X}
	return Dist(p, closest), t
}
