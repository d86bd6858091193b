package scene

import (
	"math"

	"github.com/gogpu/sdfview"
)

// Union combines two signed distances: min(d1, d2).
func Union(d1, d2 float32) float32 {
	return min(d1, d2)
}

// Intersection combines two signed distances: max(d1, d2).
func Intersection(d1, d2 float32) float32 {
	return max(d1, d2)
}

// Subtraction carves the second surface out of the first: max(d1, -d2).
func Subtraction(d1, d2 float32) float32 {
	return max(d1, -d2)
}

// SmoothMin is the exponential smooth minimum
//
//	smin(d1, d2, k) = -k * log2(exp2(-d1/k) + exp2(-d2/k))
//
// for blend radius k > 0. Near the crossover |d1-d2| < k the surfaces blend
// smoothly instead of creasing; as k approaches zero the result converges
// to min(d1, d2). Non-positive k degenerates to a hard Union.
//
// The formula is fixed so that generated shaders and the CPU evaluator
// produce bit-comparable images for the same scene.
func SmoothMin(d1, d2, k float32) float32 {
	if k <= 0 {
		return Union(d1, d2)
	}
	// Factor out min(d1,d2) to keep exp2 arguments bounded; the naive form
	// underflows to -Inf for distances a few hundred units out.
	m := min(d1, d2)
	a := float64((m - d1) / k)
	b := float64((m - d2) / k)
	return m - k*float32(math.Log2(math.Exp2(a)+math.Exp2(b)))
}

// SphereDist returns the signed distance from p to a sphere of radius r
// centered at the origin.
func SphereDist(p sdfview.Vec3, r float32) float32 {
	return p.Length() - r
}

// BoxDist returns the signed distance from p to an axis-aligned box with
// half-extents b centered at the origin.
func BoxDist(p sdfview.Vec3, b sdfview.Vec3) float32 {
	q := p.Abs().Sub(b)
	return q.Max(0).Length() + min(q.MaxElem(), 0)
}

// oceanOctaves is the number of directional waves summed by OceanDist.
const oceanOctaves = 15

// OceanDist returns the signed distance from p to an animated wave height
// field: a sum of 15 directional sine waves with per-octave frequency and
// weight falloff, each wave dragging the sample position along its own
// gradient. The field is offset by (128, 0, 128) to keep the ripple artifact
// at the domain origin out of view, and time runs at double speed.
//
// This is only a distance bound near the surface (height fields are not
// 1-Lipschitz in general), which is fine for marching from above.
func OceanDist(time float32, p sdfview.Vec3) float32 {
	px := p.X + 128
	pz := p.Z + 128
	t := 2 * time

	var hSum, hWeight float32

	wavePosX, wavePosZ := px, pz
	waveFreq := float32(1.0)
	waveWeight := float32(1.0)
	noise := float32(0.0)

	for i := 0; i < oceanOctaves; i++ {
		dirX := cos32(noise)
		dirZ := sin32(noise)

		wave := (dirX*wavePosX+dirZ*wavePosZ)*waveFreq + t

		waveH := exp32(sin32(wave) - 1)
		waveDH := -waveH * cos32(wave)

		hSum += waveH * waveWeight
		hWeight += waveWeight

		wavePosX += 0.25 * waveDH * dirX * waveWeight
		wavePosZ += 0.25 * waveDH * dirZ * waveWeight

		waveFreq *= 1.18
		waveWeight *= 0.82

		noise += 1234.4321
	}

	return p.Y - hSum/hWeight
}

func sin32(v float32) float32 { return float32(math.Sin(float64(v))) }
func cos32(v float32) float32 { return float32(math.Cos(float64(v))) }
func exp32(v float32) float32 { return float32(math.Exp(float64(v))) }
