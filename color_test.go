package sdfview

import (
	"image/color"
	"testing"
)

func TestRGBConversion(t *testing.T) {
	tests := []struct {
		name string
		c    RGBA
		want color.NRGBA
	}{
		{"black", Black, color.NRGBA{0, 0, 0, 255}},
		{"white", White, color.NRGBA{255, 255, 255, 255}},
		{"transparent", Transparent, color.NRGBA{0, 0, 0, 0}},
		{"mid gray", RGB(0.5, 0.5, 0.5), color.NRGBA{128, 128, 128, 255}},
		{"clamped high", RGB(1.5, 2, 1), color.NRGBA{255, 255, 255, 255}},
		{"clamped low", RGB(-0.5, 0, 0), color.NRGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Color(); got != tt.want {
				t.Errorf("Color() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromVec3Roundtrip(t *testing.T) {
	v := V3(0.1, 0.5, 0.9)
	c := FromVec3(v)
	if c.A != 1 {
		t.Errorf("FromVec3 alpha = %v, want 1", c.A)
	}
	if !c.Vec3().Approx(v, eps) {
		t.Errorf("Vec3() = %v, want %v", c.Vec3(), v)
	}
}

func TestLuminanceOrdering(t *testing.T) {
	if White.Luminance() <= Black.Luminance() {
		t.Error("white should be brighter than black")
	}
	// Rec. 709 weights green heaviest.
	g := RGB(0, 1, 0).Luminance()
	r := RGB(1, 0, 0).Luminance()
	b := RGB(0, 0, 1).Luminance()
	if g <= r || r <= b {
		t.Errorf("luminance ordering g=%v r=%v b=%v, want g > r > b", g, r, b)
	}
	if got, want := White.Luminance(), float32(1); abs32(got-want) > eps {
		t.Errorf("white luminance = %v, want 1", got)
	}
}
