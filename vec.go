package sdfview

import "math"

// Vec3 represents a 3D vector in single precision.
//
// The ray marcher and the distance field evaluation work entirely in
// float32 so that the CPU evaluator reproduces what the compiled shader
// computes on the GPU, keeping golden-image comparisons meaningful.
type Vec3 struct {
	X, Y, Z float32
}

// V3 is a convenience function to create a Vec3.
func V3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Mul returns the vector scaled by a scalar.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// MulVec returns the component-wise product of two vectors.
func (v Vec3) MulVec(w Vec3) Vec3 {
	return Vec3{X: v.X * w.X, Y: v.Y * w.Y, Z: v.Z * w.Z}
}

// Neg returns the negation of the vector.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(w Vec3) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product of two vectors.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the length (magnitude) of the vector.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// LengthSq returns the squared length of the vector.
// This is faster than Length() when you only need to compare magnitudes.
func (v Vec3) LengthSq() float32 {
	return v.Dot(v)
}

// Normalize returns a unit vector in the same direction.
// Returns zero vector if the original vector has zero length.
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{}
	}
	return v.Mul(1 / length)
}

// Abs returns the component-wise absolute value.
func (v Vec3) Abs() Vec3 {
	return Vec3{
		X: float32(math.Abs(float64(v.X))),
		Y: float32(math.Abs(float64(v.Y))),
		Z: float32(math.Abs(float64(v.Z))),
	}
}

// Max returns the component-wise maximum with a scalar.
func (v Vec3) Max(s float32) Vec3 {
	return Vec3{X: max32(v.X, s), Y: max32(v.Y, s), Z: max32(v.Z, s)}
}

// MaxElem returns the largest component.
func (v Vec3) MaxElem() float32 {
	return max32(v.X, max32(v.Y, v.Z))
}

// Lerp performs linear interpolation between two vectors.
// t=0 returns v, t=1 returns w, intermediate values interpolate.
func (v Vec3) Lerp(w Vec3, t float32) Vec3 {
	return v.Add(w.Sub(v).Mul(t))
}

// IsFinite reports whether all components are finite.
// The ray marcher signals a miss with an infinite hit point.
func (v Vec3) IsFinite() bool {
	return !math.IsInf(float64(v.X), 0) && !math.IsInf(float64(v.Y), 0) && !math.IsInf(float64(v.Z), 0) &&
		!math.IsNaN(float64(v.X)) && !math.IsNaN(float64(v.Y)) && !math.IsNaN(float64(v.Z))
}

// Approx returns true if two vectors are approximately equal within epsilon.
func (v Vec3) Approx(w Vec3, epsilon float32) bool {
	return abs32(v.X-w.X) < epsilon && abs32(v.Y-w.Y) < epsilon && abs32(v.Z-w.Z) < epsilon
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func abs32(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
