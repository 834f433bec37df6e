package placement

import "math"

const (
	// MinScale and MaxScale bound every background and instance scale.
	MinScale = 0.1
	MaxScale = 2.0
)

// ClampScale bounds f to [MinScale, MaxScale]. NaN maps to 1.
func ClampScale(f float64) float64 {
	if math.IsNaN(f) {
		return 1
	}
	return math.Min(MaxScale, math.Max(MinScale, f))
}

// Point is a position in canvas space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Rect is an axis-aligned box in canvas space.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies inside the box, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// centred returns the box of size w×h centred at c.
func centred(c Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}
