package physics

import "math"

// Vec2f is a 2D vector in meters (physics space). A fixed pixels-per-meter
// constant converts to render space at the boundary, not here.
type Vec2f struct {
	X, Y float32
}

func (a Vec2f) Add(b Vec2f) Vec2f { return Vec2f{a.X + b.X, a.Y + b.Y} }
func (a Vec2f) Sub(b Vec2f) Vec2f { return Vec2f{a.X - b.X, a.Y - b.Y} }
func (a Vec2f) Scale(s float32) Vec2f { return Vec2f{a.X * s, a.Y * s} }
func (a Vec2f) Dot(b Vec2f) float32   { return a.X*b.X + a.Y*b.Y }
func (a Vec2f) Neg() Vec2f            { return Vec2f{-a.X, -a.Y} }

// Perp returns a rotated 90 degrees counter-clockwise. The friction
// impulse solver does not use it: it takes the contact tangent from the
// relative velocity's component off the normal.
func (a Vec2f) Perp() Vec2f { return Vec2f{-a.Y, a.X} }

func (a Vec2f) LengthSq() float32 { return a.X*a.X + a.Y*a.Y }
func (a Vec2f) Length() float32   { return float32(math.Sqrt(float64(a.LengthSq()))) }

// Normalized returns a/|a|, or the zero vector if a is degenerate.
func (a Vec2f) Normalized() Vec2f {
	l := a.Length()
	if l == 0 {
		return Vec2f{}
	}
	return a.Scale(1 / l)
}

// AngleFromUp returns the signed angle from the +Y axis to a, in
// radians, clockwise positive: Up is 0, Right is +pi/2, Left is -pi/2,
// Down is pi.
func (a Vec2f) AngleFromUp() float32 {
	return float32(math.Atan2(float64(a.X), float64(a.Y)))
}
