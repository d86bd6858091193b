package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sdfview"
	"github.com/gogpu/sdfview/pipeline"
	"github.com/gogpu/sdfview/render"
)

// fenceTimeout bounds the per-frame GPU wait.
const fenceTimeout = 5 * time.Second

// Presenter renders frames into an offscreen HAL texture and reads them
// back to a Pixmap. Present is synchronous: when it returns, the GPU has
// finished the frame.
type Presenter struct {
	device  hal.Device
	queue   hal.Queue
	adapter *Adapter

	width, height uint32
	tex           hal.Texture
	view          hal.TextureView

	last      *sdfview.Pixmap
	lastFrame uint64
}

var _ render.Presenter = (*Presenter)(nil)

// NewPresenter creates an offscreen presenter at the given resolution.
func NewPresenter(ctx *Context, adapter *Adapter, width, height uint32) (*Presenter, error) {
	p := &Presenter{
		device:  ctx.Device(),
		queue:   ctx.Queue(),
		adapter: adapter,
		width:   width,
		height:  height,
	}
	if err := p.createTarget(); err != nil {
		return nil, err
	}
	return p, nil
}

// Size returns the target dimensions.
func (p *Presenter) Size() (uint32, uint32) { return p.width, p.height }

// Reconfigure recreates the target texture at a new size.
func (p *Presenter) Reconfigure(width, height uint32) error {
	p.destroyTarget()
	p.width = width
	p.height = height
	return p.createTarget()
}

// Close destroys the target texture. The device outlives the presenter.
func (p *Presenter) Close() error {
	p.destroyTarget()
	return nil
}

// Last returns the most recently presented frame, or nil before the first.
func (p *Presenter) Last() (*sdfview.Pixmap, uint64) {
	return p.last, p.lastFrame
}

func (p *Presenter) createTarget() error {
	size := hal.Extent3D{Width: p.width, Height: p.height, DepthOrArrayLayers: 1}

	tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sdfview_target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target texture: %w", err)
	}
	p.tex = tex

	view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "sdfview_target_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.destroyTarget()
		return fmt.Errorf("create target view: %w", err)
	}
	p.view = view
	return nil
}

func (p *Presenter) destroyTarget() {
	if p.view != nil {
		p.device.DestroyTextureView(p.view)
		p.view = nil
	}
	if p.tex != nil {
		p.device.DestroyTexture(p.tex)
		p.tex = nil
	}
}

// Present encodes one frame with the given pipeline state, submits it, and
// waits for the fence before reading the result back.
func (p *Presenter) Present(frame uint64, fc render.FrameContext, state *pipeline.State) error {
	if fc.Width != p.width || fc.Height != p.height {
		return render.ErrSurfaceOutdated
	}

	halPipeline, ok := p.adapter.renderPipeline(state.Pipeline)
	if !ok {
		return fmt.Errorf("pipeline %d not found on device", state.Pipeline)
	}
	bindLayout, ok := p.adapter.bindGroupLayout(state.BindLayout)
	if !ok {
		return fmt.Errorf("bind group layout %d not found on device", state.BindLayout)
	}

	// Per-frame uniform with the packed frame parameters.
	uniformData := fc.Pack()
	uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sdfview_frame_uniform",
		Size:  uint64(len(uniformData)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	defer p.device.DestroyBuffer(uniformBuf)
	p.queue.WriteBuffer(uniformBuf, 0, uniformData)

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sdfview_frame_bind",
		Layout: bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(uniformData)),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer p.device.DestroyBindGroup(bindGroup)

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sdfview_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(fmt.Sprintf("sdfview_frame_%d", frame)); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sdfview_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       p.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	rp.SetPipeline(halPipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	// VK-LAYOUT-001: the attachment must transition to TRANSFER_SRC before
	// CopyTextureToBuffer. No-op on backends without explicit layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: p.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(p.width) * uint64(p.height) * 4
	stagingBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sdfview_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer p.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(p.tex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: p.width * 4, RowsPerImage: p.height},
		TextureBase:  hal.ImageCopyTexture{Texture: p.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: p.width, Height: p.height, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	fence, err := p.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer p.device.DestroyFence(fence)

	if err := p.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := p.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, pixelBufSize)
	if err := p.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}

	pix := sdfview.NewPixmap(int(p.width), int(p.height))
	bgraToRGBA(readback, pix.Data())
	p.last = pix
	p.lastFrame = frame
	return nil
}

// bgraToRGBA converts readback pixels in place into the pixmap's layout.
func bgraToRGBA(src, dst []byte) {
	n := min(len(src), len(dst))
	for i := 0; i+3 < n; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}
