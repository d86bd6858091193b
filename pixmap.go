package sdfview

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// Pixmap represents a rectangular pixel buffer in RGBA format,
// 4 bytes per pixel. It is the render target of the software presenter
// and the comparison medium for golden tests.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// NewPixmap creates a new pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// SetPixel sets the color of a single pixel. Out-of-bounds writes are ignored.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = c.byteR()
	p.data[i+1] = c.byteG()
	p.data[i+2] = c.byteB()
	p.data[i+3] = c.byteA()
}

// GetPixel returns the color of a single pixel.
// Out-of-bounds reads return Transparent.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	return RGBA{
		R: float32(p.data[i+0]) / 255,
		G: float32(p.data[i+1]) / 255,
		B: float32(p.data[i+2]) / 255,
		A: float32(p.data[i+3]) / 255,
	}
}

// Clear fills the entire pixmap with a color.
func (p *Pixmap) Clear(c RGBA) {
	r, g, b, a := c.byteR(), c.byteG(), c.byteB(), c.byteA()
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// ToImage converts the pixmap to an image.RGBA sharing no storage.
func (p *Pixmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// SavePNG writes the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, p.ToImage())
}
