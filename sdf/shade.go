package sdf

import (
	"math"

	"github.com/gogpu/sdfview"
)

// Lighting holds the shading constants. The values mirror the constants in
// the generated shader so CPU and GPU output match.
type Lighting struct {
	// SunPos is the light position.
	SunPos sdfview.Vec3

	// Ambient is the color a surface receives with no direct light at all.
	Ambient sdfview.Vec3

	// BaseColor scales the diffuse term.
	BaseColor sdfview.Vec3

	// SpecularPow is the exponent of the specular highlight.
	SpecularPow float32
}

// DefaultLighting returns the shading constants baked into the default shader.
func DefaultLighting() Lighting {
	return Lighting{
		SunPos:      sdfview.V3(50, 100, 50),
		Ambient:     sdfview.V3(0.002, 0.019, 0.058),
		BaseColor:   sdfview.V3(0.02, 0.19, 0.58),
		SpecularPow: 50,
	}
}

// Shade computes the color of a surface point: an ambient-occlusion-scaled
// ambient+diffuse term plus a specular highlight. The diffuse factor is the
// clamped cosine between the surface normal and the sun direction.
func Shade(f Field, time float32, p, n sdfview.Vec3, l Lighting) sdfview.Vec3 {
	sunDir := l.SunPos.Sub(p).Normalize()
	sunCos := clamp01(n.Dot(sunDir))

	ao := Occlusion(f, time, p, n)
	diffuse := l.BaseColor.Mul(sunCos)
	specular := sdfview.V3(1, 1, 1).Mul(pow32(sunCos, l.SpecularPow))

	return l.Ambient.Add(diffuse).Mul(ao).Add(specular)
}

// Occlusion approximates ambient occlusion with four short-range field
// samples along the normal. When the field value grows slower than the
// sampling distance, nearby geometry is crowding the point and it darkens.
// The result is clamped to [0, 1], 1 meaning fully open.
func Occlusion(f Field, time float32, p, n sdfview.Vec3) float32 {
	var occ float32
	w := float32(1.0)
	for i := 1; i <= 4; i++ {
		h := 0.05 * float32(i)
		occ += w * (h - f.Dist(time, p.Add(n.Mul(h))))
		w *= 0.6
	}
	return clamp01(1 - 2*occ)
}

// Background returns the miss color: a vertical gradient keyed on the ray
// direction's y component, dark below and a faint blue above.
func Background(dir sdfview.Vec3) sdfview.Vec3 {
	t := 0.5 * (dir.Y + 1)
	lo := sdfview.V3(0.010, 0.010, 0.020)
	hi := sdfview.V3(0.020, 0.050, 0.100)
	return lo.Lerp(hi, t)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func pow32(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}
