// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"runtime"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/sdfview"
	"github.com/gogpu/sdfview/pipeline"
	"github.com/gogpu/sdfview/sdf"
)

// SoftwareOption configures a SoftwarePresenter.
type SoftwareOption func(*SoftwarePresenter)

// WithRenderScale renders internally at scale times the target resolution
// and rescales the result. Values below 1 trade sharpness for speed; the
// useful range is (0, 1].
func WithRenderScale(scale float32) SoftwareOption {
	return func(p *SoftwarePresenter) { p.scale = scale }
}

// WithMarchConfig overrides the ray-march tuning.
func WithMarchConfig(cfg sdf.Config) SoftwareOption {
	return func(p *SoftwarePresenter) { p.cfg = cfg }
}

// WithLighting overrides the shading parameters.
func WithLighting(l sdf.Lighting) SoftwareOption {
	return func(p *SoftwarePresenter) { p.lighting = l }
}

// SoftwarePresenter ray-marches the scene on the CPU. It renders the field
// it was built with; pipeline state is tracked for lifecycle parity with the
// GPU path but the shader itself is not evaluated.
//
// Rows are rendered in parallel across all CPUs.
type SoftwarePresenter struct {
	field    sdf.Field
	cfg      sdf.Config
	lighting sdf.Lighting
	scale    float32

	mu            sync.Mutex
	width, height uint32
	last          *sdfview.Pixmap
	lastFrame     uint64
}

// NewSoftwarePresenter creates a CPU presenter at the given resolution.
func NewSoftwarePresenter(field sdf.Field, width, height uint32, opts ...SoftwareOption) *SoftwarePresenter {
	p := &SoftwarePresenter{
		field:    field,
		cfg:      sdf.DefaultConfig(),
		lighting: sdf.DefaultLighting(),
		scale:    1,
		width:    width,
		height:   height,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.scale <= 0 || p.scale > 1 {
		p.scale = 1
	}
	return p
}

// Size returns the target dimensions.
func (p *SoftwarePresenter) Size() (uint32, uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Reconfigure resizes the target.
func (p *SoftwarePresenter) Reconfigure(width, height uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
	p.height = height
	return nil
}

// Close releases nothing; it exists to satisfy Presenter.
func (p *SoftwarePresenter) Close() error { return nil }

// Last returns the most recently presented frame, or nil before the first.
func (p *SoftwarePresenter) Last() (*sdfview.Pixmap, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.lastFrame
}

// Present renders one frame into an internal pixmap.
func (p *SoftwarePresenter) Present(frame uint64, fc FrameContext, _ *pipeline.State) error {
	iw := max(1, int(float32(fc.Width)*p.scale))
	ih := max(1, int(float32(fc.Height)*p.scale))

	pix := sdfview.NewPixmap(iw, ih)
	p.renderRows(pix, fc)

	if iw != int(fc.Width) || ih != int(fc.Height) {
		src := pix.ToImage()
		dst := image.NewRGBA(image.Rect(0, 0, int(fc.Width), int(fc.Height)))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

		full := sdfview.NewPixmap(int(fc.Width), int(fc.Height))
		copy(full.Data(), dst.Pix)
		pix = full
	}

	p.mu.Lock()
	p.last = pix
	p.lastFrame = frame
	p.mu.Unlock()
	return nil
}

// renderRows marches every pixel, splitting rows across CPUs.
func (p *SoftwarePresenter) renderRows(pix *sdfview.Pixmap, fc FrameContext) {
	w, h := pix.Width(), pix.Height()
	workers := min(runtime.NumCPU(), h)

	var wg sync.WaitGroup
	rows := make(chan int)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				p.renderRow(pix, fc, y, w, h)
			}
		}()
	}
	for y := 0; y < h; y++ {
		rows <- y
	}
	close(rows)
	wg.Wait()
}

func (p *SoftwarePresenter) renderRow(pix *sdfview.Pixmap, fc FrameContext, y, w, h int) {
	for x := 0; x < w; x++ {
		u := (float32(x) + 0.5) / float32(w)
		v := (float32(y) + 0.5) / float32(h)
		dir := fc.Camera.RayDirection(u, v)

		var col sdfview.Vec3
		hit := sdf.March(p.field, fc.Time, fc.Camera.Origin, dir, p.cfg)
		if hit.OK {
			n := sdf.Normal(p.field, fc.Time, hit.Point, p.cfg)
			col = sdf.Shade(p.field, fc.Time, hit.Point, n, p.lighting)
		} else {
			col = sdf.Background(dir)
		}
		pix.SetPixel(x, y, sdfview.FromVec3(col))
	}
}
