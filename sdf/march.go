// Package sdf implements the per-pixel ray-marching evaluation of a signed
// distance field: ray generation, sphere-tracing against the field, and a
// small shading model.
//
// The same algorithm exists in WGSL inside the generated viewer shader; this
// package is the deterministic CPU twin used by the software presenter and
// by golden-image tests. All arithmetic is single precision and free of
// randomness, so a given (scene, time, pixel) always produces the same color.
package sdf

import (
	"github.com/gogpu/sdfview"
)

// Field is a time-varying signed distance field.
// scene.Node implements Field.
type Field interface {
	// Dist returns the signed distance from p to the nearest surface at
	// the given time: negative inside, positive outside.
	Dist(time float32, p sdfview.Vec3) float32
}

// FieldFunc adapts a plain function to the Field interface.
type FieldFunc func(time float32, p sdfview.Vec3) float32

// Dist calls f.
func (f FieldFunc) Dist(time float32, p sdfview.Vec3) float32 { return f(time, p) }

// Config holds the marching tuning constants. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// MaxSteps bounds the number of marching iterations per ray.
	// Default 128.
	MaxSteps int

	// HitEps is the distance below which a sample counts as a surface hit.
	// It also seeds the initial ray offset so rays starting exactly on a
	// surface make progress. Default 1e-4.
	HitEps float32

	// Far is the distance beyond which a ray is a miss. Default 100.
	Far float32

	// NormalEps is the central-difference offset for normal estimation.
	// Default 1e-3.
	NormalEps float32
}

// DefaultConfig returns the documented marching defaults.
func DefaultConfig() Config {
	return Config{
		MaxSteps:  128,
		HitEps:    1e-4,
		Far:       100,
		NormalEps: 1e-3,
	}
}

// Hit is the result of marching one ray.
type Hit struct {
	// OK reports whether the ray reached a surface.
	OK bool

	// Point is the surface point for a hit; undefined for a miss.
	Point sdfview.Vec3

	// T is the accumulated ray distance at termination.
	T float32

	// Steps is the number of iterations consumed.
	Steps int
}

// March sphere-traces a ray from origin along dir (unit length) against the
// field. Each step advances by the sampled distance, which is safe because
// an SDF is a 1-Lipschitz lower bound on true distance. The ray terminates
// on a hit (sample < HitEps), on leaving the far plane, or after MaxSteps.
func March(f Field, time float32, origin, dir sdfview.Vec3, cfg Config) Hit {
	t := cfg.HitEps

	for i := 0; i < cfg.MaxSteps; i++ {
		p := origin.Add(dir.Mul(t))
		d := f.Dist(time, p)

		if d < cfg.HitEps {
			return Hit{OK: true, Point: p, T: t, Steps: i + 1}
		}

		t += d
		if t > cfg.Far {
			return Hit{T: t, Steps: i + 1}
		}
	}

	return Hit{T: t, Steps: cfg.MaxSteps}
}

// Normal estimates the surface normal at p via central differences of the
// field along the three axes.
func Normal(f Field, time float32, p sdfview.Vec3, cfg Config) sdfview.Vec3 {
	e := cfg.NormalEps
	dx := sdfview.V3(e, 0, 0)
	dy := sdfview.V3(0, e, 0)
	dz := sdfview.V3(0, 0, e)

	g := sdfview.V3(
		f.Dist(time, p.Add(dx))-f.Dist(time, p.Sub(dx)),
		f.Dist(time, p.Add(dy))-f.Dist(time, p.Sub(dy)),
		f.Dist(time, p.Add(dz))-f.Dist(time, p.Sub(dz)),
	)
	return g.Normalize()
}
