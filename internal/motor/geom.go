// internal/motor/geom.go
package motor

import "math"

// ScreenPoint is an integer pixel coordinate local to the client canvas.
type ScreenPoint struct {
	X, Y int
}

// Pt is a shorthand constructor for ScreenPoint.
func Pt(x, y int) ScreenPoint {
	return ScreenPoint{X: x, Y: y}
}

// Vec returns the point as a float vector for trajectory math.
func (p ScreenPoint) Vec() Vec {
	return Vec{X: float64(p.X), Y: float64(p.Y)}
}

// Dist returns the Euclidean distance to other in pixels.
func (p ScreenPoint) Dist(other ScreenPoint) float64 {
	return math.Hypot(float64(p.X-other.X), float64(p.Y-other.Y))
}

// Vec represents a point or vector in continuous 2D space.
type Vec struct {
	X, Y float64
}

// Add returns the vector sum of v and other.
func (v Vec) Add(other Vec) Vec {
	return Vec{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the vector difference of v and other.
func (v Vec) Sub(other Vec) Vec {
	return Vec{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul returns the vector v scaled by the scalar factor.
func (v Vec) Mul(scalar float64) Vec {
	return Vec{X: v.X * scalar, Y: v.Y * scalar}
}

// Mag calculates the magnitude (length) of the vector.
func (v Vec) Mag() float64 {
	// Use math.Hypot for numerical stability.
	return math.Hypot(v.X, v.Y)
}

// Normalize returns a unit vector in the same direction as v.
func (v Vec) Normalize() Vec {
	mag := v.Mag()
	if mag < 1e-9 {
		return Vec{}
	}
	return v.Mul(1.0 / mag)
}

// Perp returns the counter-clockwise perpendicular of v.
func (v Vec) Perp() Vec {
	return Vec{X: -v.Y, Y: v.X}
}

// Point rounds the vector back to integer screen coordinates.
func (v Vec) Point() ScreenPoint {
	return ScreenPoint{X: int(math.Round(v.X)), Y: int(math.Round(v.Y))}
}

// Region is a closed 2D target area a click can land inside.
type Region interface {
	// Bounds returns the axis-aligned bounding rectangle.
	Bounds() Rect
	// Contains reports whether the point lies inside the region.
	Contains(p ScreenPoint) bool
}

// Rect is an axis-aligned rectangle region. Degenerate rectangles
// (width or height below 1) are treated as a single point.
type Rect struct {
	X, Y, W, H int
}

// Bounds implements Region.
func (r Rect) Bounds() Rect {
	if r.W < 1 {
		r.W = 1
	}
	if r.H < 1 {
		r.H = 1
	}
	return r
}

// Contains implements Region.
func (r Rect) Contains(p ScreenPoint) bool {
	b := r.Bounds()
	return p.X >= b.X && p.X < b.X+b.W && p.Y >= b.Y && p.Y < b.Y+b.H
}

// Center returns the geometric center of the rectangle.
func (r Rect) Center() ScreenPoint {
	b := r.Bounds()
	return ScreenPoint{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Clamp forces the point into the rectangle bounds.
func (r Rect) Clamp(p ScreenPoint) ScreenPoint {
	b := r.Bounds()
	if p.X < b.X {
		p.X = b.X
	}
	if p.X > b.X+b.W-1 {
		p.X = b.X + b.W - 1
	}
	if p.Y < b.Y {
		p.Y = b.Y
	}
	if p.Y > b.Y+b.H-1 {
		p.Y = b.Y + b.H - 1
	}
	return p
}

// Poly is an arbitrary closed polygon region, e.g. the projected hull of a
// game object. Vertices are in order; the edge from the last vertex back to
// the first closes the shape.
type Poly struct {
	Vertices []ScreenPoint
}

// Bounds implements Region.
func (pl Poly) Bounds() Rect {
	if len(pl.Vertices) == 0 {
		return Rect{W: 1, H: 1}
	}
	minX, minY := pl.Vertices[0].X, pl.Vertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range pl.Vertices[1:] {
		if v.X < minX {
			minX = v.X
		}
		if v.X > maxX {
			maxX = v.X
		}
		if v.Y < minY {
			minY = v.Y
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}

// Contains implements Region using the even-odd ray casting rule.
func (pl Poly) Contains(p ScreenPoint) bool {
	n := len(pl.Vertices)
	if n < 3 {
		return pl.Bounds().Contains(p)
	}
	px, py := float64(p.X), float64(p.Y)
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := float64(pl.Vertices[i].X), float64(pl.Vertices[i].Y)
		xj, yj := float64(pl.Vertices[j].X), float64(pl.Vertices[j].Y)
		if (yi > py) != (yj > py) && px < (xj-xi)*(py-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}
