// Package geom provides the small value types used for workspace geometry.
//
// All coordinates are workspace units with x growing to the right and y
// growing downward. Values are plain structs and safe to copy.
package geom

import (
	"fmt"
	"math"
)

// Point is a position (or a displacement) in workspace coordinates.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Less orders points by x, breaking ties on y.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

// MirrorX negates the horizontal component. Used for right-to-left layouts
// where offsets grow leftward from a block's origin.
func (p Point) MirrorX() Point { return Point{-p.X, p.Y} }

func (p Point) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// Size is the extent of a rendered block.
type Size struct {
	Width, Height float64
}
