// Package geometry provides the planar helpers the procession engine is built on:
// distance, interpolation and polyline length over 2D points.
//
// Every function is pure. Nothing here clamps its inputs; callers decide what an
// out-of-range interpolation factor means.
package geometry

import "math"

// Point is a 2D position in map units.
type Point struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p * k.
func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Lerp returns a + (b-a)*t. t is not clamped.
func Lerp(a, b Point, t float64) Point {
	return a.Add(b.Sub(a).Scale(t))
}

// PolylineLength sums the distances between consecutive points.
// Fewer than two points have length 0.
func PolylineLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// Heading returns the angle in radians of the vector a→b, measured from +X
// toward +Y. A zero-length segment has heading 0.
func Heading(a, b Point) float64 {
	d := b.Sub(a)
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	return math.Atan2(d.Y, d.X)
}

// Within reports whether p lies at most radius away from centre.
func Within(p, centre Point, radius float64) bool {
	return Distance(p, centre) <= radius
}
