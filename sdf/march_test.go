package sdf

import (
	"testing"

	"github.com/gogpu/sdfview"
	"github.com/gogpu/sdfview/scene"
)

func unitSphere() Field {
	return scene.Sphere(1)
}

func TestMarchHitsSphere(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		origin sdfview.Vec3
		dir    sdfview.Vec3
		wantT  float32
	}{
		{"head on from +z", sdfview.V3(0, 0, 5), sdfview.V3(0, 0, -1), 4},
		{"head on from +x", sdfview.V3(5, 0, 0), sdfview.V3(-1, 0, 0), 4},
		{"from a diagonal", sdfview.V3(3, 4, 0).Mul(2), sdfview.V3(-3, -4, 0).Normalize(), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := March(unitSphere(), 0, tt.origin, tt.dir, cfg)
			if !hit.OK {
				t.Fatalf("March missed, steps=%d t=%f", hit.Steps, hit.T)
			}
			if diff := hit.T - tt.wantT; diff < -0.01 || diff > 0.01 {
				t.Errorf("hit at t=%f, want ~%f", hit.T, tt.wantT)
			}
			if hit.Steps > cfg.MaxSteps {
				t.Errorf("used %d steps, budget %d", hit.Steps, cfg.MaxSteps)
			}
		})
	}
}

func TestMarchMissesSphere(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		origin sdfview.Vec3
		dir    sdfview.Vec3
	}{
		{"parallel ray", sdfview.V3(0, 2, 5), sdfview.V3(0, 0, -1)},
		{"pointing away", sdfview.V3(0, 0, 5), sdfview.V3(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := March(unitSphere(), 0, tt.origin, tt.dir, cfg)
			if hit.OK {
				t.Fatalf("March hit at %v, want miss", hit.Point)
			}
			if hit.Steps > cfg.MaxSteps {
				t.Errorf("used %d steps, budget %d", hit.Steps, cfg.MaxSteps)
			}
		})
	}
}

func TestMarchAlwaysTerminates(t *testing.T) {
	// A grazing ray skims the sphere: steps shrink but the budget holds.
	cfg := DefaultConfig()
	origin := sdfview.V3(0, 1.0001, 5)
	dir := sdfview.V3(0, 0, -1)

	hit := March(unitSphere(), 0, origin, dir, cfg)
	if hit.Steps > cfg.MaxSteps {
		t.Fatalf("steps = %d, exceeded budget %d", hit.Steps, cfg.MaxSteps)
	}
}

func TestMarchEpsilonBoundary(t *testing.T) {
	// A ray passing within HitEps of the surface counts as a hit; one
	// passing just outside a loose threshold does not.
	strict := DefaultConfig()

	// Offset the ray so closest approach is between the two thresholds.
	loose := strict
	loose.HitEps = 1e-2
	origin := sdfview.V3(0, 1.005, 5)
	dir := sdfview.V3(0, 0, -1)

	if hit := March(unitSphere(), 0, origin, dir, loose); !hit.OK {
		t.Errorf("loose threshold: want hit, got miss after %d steps", hit.Steps)
	}
	if hit := March(unitSphere(), 0, origin, dir, strict); hit.OK {
		t.Errorf("strict threshold: want miss, got hit at %v", hit.Point)
	}
}

func TestMarchFarPlane(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Far = 3 // sphere surface is at t=4, beyond the far plane

	hit := March(unitSphere(), 0, sdfview.V3(0, 0, 5), sdfview.V3(0, 0, -1), cfg)
	if hit.OK {
		t.Fatalf("want miss beyond far plane, got hit at t=%f", hit.T)
	}
}

func TestNormalOnSphere(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		p    sdfview.Vec3
		want sdfview.Vec3
	}{
		{"+z pole", sdfview.V3(0, 0, 1), sdfview.V3(0, 0, 1)},
		{"+x pole", sdfview.V3(1, 0, 0), sdfview.V3(1, 0, 0)},
		{"-y pole", sdfview.V3(0, -1, 0), sdfview.V3(0, -1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normal(unitSphere(), 0, tt.p, cfg)
			if !got.Approx(tt.want, 1e-3) {
				t.Errorf("Normal(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestFieldFunc(t *testing.T) {
	plane := FieldFunc(func(_ float32, p sdfview.Vec3) float32 { return p.Y })
	hit := March(plane, 0, sdfview.V3(0, 2, 0), sdfview.V3(0, -1, 0), DefaultConfig())
	if !hit.OK {
		t.Fatal("March missed the plane")
	}
	if hit.Point.Y > 0.01 {
		t.Errorf("hit at y=%f, want ~0", hit.Point.Y)
	}
}
