package sdfview

import "image/color"

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1]. Components are single precision,
// matching the shader's arithmetic.
type RGBA struct {
	R, G, B, A float32
}

// Common colors.
var (
	Black       = RGBA{0, 0, 0, 1}
	White       = RGBA{1, 1, 1, 1}
	Transparent = RGBA{0, 0, 0, 0}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float32) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// FromVec3 creates an opaque color from a shading result.
// Components outside [0, 1] are clamped on conversion to 8-bit.
func FromVec3(v Vec3) RGBA {
	return RGBA{R: v.X, G: v.Y, B: v.Z, A: 1}
}

// Vec3 returns the color components as a vector, dropping alpha.
func (c RGBA) Vec3() Vec3 {
	return Vec3{X: c.R, Y: c.G, Z: c.B}
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: c.byteR(),
		G: c.byteG(),
		B: c.byteB(),
		A: c.byteA(),
	}
}

// Luminance returns the relative luminance of the color (Rec. 709 weights).
// Used by tests to compare "brighter than" without pinning exact channels.
func (c RGBA) Luminance() float32 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

func (c RGBA) byteR() uint8 { return toByte(c.R) }
func (c RGBA) byteG() uint8 { return toByte(c.G) }
func (c RGBA) byteB() uint8 { return toByte(c.B) }
func (c RGBA) byteA() uint8 { return toByte(c.A) }

// toByte converts a [0,1] component to 8-bit with clamping and rounding.
func toByte(v float32) uint8 {
	return uint8(clamp32(v, 0, 1)*255 + 0.5)
}
