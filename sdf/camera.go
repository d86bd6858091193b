package sdf

import (
	"math"

	"github.com/gogpu/sdfview"
)

// Camera describes the viewer's eye: a position looking at the scene origin
// with a vertical field of view. It matches the ray_direction function in
// the generated shader.
type Camera struct {
	// Origin is the eye position. The camera always looks toward (0,0,0).
	Origin sdfview.Vec3

	// FOV is the field of view in radians. Default Pi/2 (90 degrees).
	FOV float32
}

// DefaultCamera places the eye where the original playground did, on a
// raised diagonal looking at the scene center.
func DefaultCamera() Camera {
	return Camera{
		Origin: sdfview.V3(7, 4, 7),
		FOV:    math.Pi / 2,
	}
}

// RayDirection returns the unit ray direction through the pixel at
// normalized screen coordinate (u, v), both in [0, 1] with v growing
// downward. The basis is a look-at frame from Origin toward the scene
// center with +y up; v is flipped so the image is not upside down.
func (c Camera) RayDirection(u, v float32) sdfview.Vec3 {
	up := sdfview.V3(0, 1, 0)
	fwd := c.Origin.Neg().Normalize()
	side := fwd.Cross(up).Normalize()
	upv := side.Cross(fwd)

	ndcX := u*2 - 1
	ndcY := 1 - v*2
	half := float32(math.Tan(float64(c.FOV) * 0.5))

	return side.Mul(ndcX * half).
		Add(upv.Mul(ndcY * half)).
		Add(fwd).
		Normalize()
}
