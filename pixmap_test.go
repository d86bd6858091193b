package sdfview

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestPixmapSetGet(t *testing.T) {
	p := NewPixmap(4, 3)
	if p.Width() != 4 || p.Height() != 3 {
		t.Fatalf("size = %dx%d, want 4x3", p.Width(), p.Height())
	}

	p.SetPixel(2, 1, RGB(1, 0, 0.5))
	got := p.GetPixel(2, 1)
	if abs32(got.R-1) > 0.01 || abs32(got.G) > 0.01 || abs32(got.B-0.5) > 0.01 || got.A != 1 {
		t.Errorf("GetPixel(2,1) = %v", got)
	}

	// Untouched pixels stay zero.
	if got := p.GetPixel(0, 0); got != Transparent {
		t.Errorf("GetPixel(0,0) = %v, want transparent", got)
	}
}

func TestPixmapOutOfBounds(t *testing.T) {
	p := NewPixmap(2, 2)
	p.SetPixel(-1, 0, White)
	p.SetPixel(0, 2, White)
	p.SetPixel(5, 5, White)
	for _, b := range p.Data() {
		if b != 0 {
			t.Fatal("out-of-bounds SetPixel wrote into the buffer")
		}
	}
	if got := p.GetPixel(-1, 5); got != Transparent {
		t.Errorf("out-of-bounds GetPixel = %v, want transparent", got)
	}
}

func TestPixmapClear(t *testing.T) {
	p := NewPixmap(3, 3)
	p.Clear(RGB(0, 1, 0))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if got := p.GetPixel(x, y); got.G < 0.99 || got.R > 0.01 {
				t.Fatalf("pixel (%d,%d) = %v after Clear", x, y, got)
			}
		}
	}
}

func TestPixmapToImageCopies(t *testing.T) {
	p := NewPixmap(2, 2)
	img := p.ToImage()
	img.Pix[0] = 0xFF
	if p.Data()[0] != 0 {
		t.Error("ToImage shares storage with the pixmap")
	}
}

func TestPixmapSavePNG(t *testing.T) {
	p := NewPixmap(8, 8)
	p.Clear(RGB(0.2, 0.4, 0.6))

	path := filepath.Join(t.TempDir(), "out.png")
	if err := p.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open saved PNG: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode saved PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("decoded size = %dx%d, want 8x8", b.Dx(), b.Dy())
	}
}
