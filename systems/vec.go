package systems

import "math"

// minMag is the floor divisor used when normalizing near-zero vectors.
const minMag = 1e-5

// Vec2 is a 2D point/vector. Methods are value-based and allocation-free.
type Vec2 struct {
	X, Y float32
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// MagSq returns the squared magnitude. Cheaper than Mag for comparisons.
func (v Vec2) MagSq() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Mag returns the magnitude.
func (v Vec2) Mag() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Norm returns a unit vector in the direction of v. Near-zero vectors
// divide by minMag instead of producing NaN.
func (v Vec2) Norm() Vec2 {
	mag := v.Mag()
	if mag < minMag {
		mag = minMag
	}
	return Vec2{v.X / mag, v.Y / mag}
}

// Limit caps the magnitude of v at max.
func (v Vec2) Limit(max float32) Vec2 {
	magSq := v.MagSq()
	if magSq > max*max && magSq > 0 {
		mag := float32(math.Sqrt(float64(magSq)))
		return v.Scale(max / mag)
	}
	return v
}

// DistSq returns the squared distance between the points v and o.
func (v Vec2) DistSq(o Vec2) float32 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

// Heading returns the vector's angle in radians, range [-Pi, Pi].
func (v Vec2) Heading() float32 {
	return float32(math.Atan2(float64(v.Y), float64(v.X)))
}

// FromAngle returns a unit vector pointing along the given angle.
func FromAngle(a float32) Vec2 {
	return Vec2{float32(math.Cos(float64(a))), float32(math.Sin(float64(a)))}
}
