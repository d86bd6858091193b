package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/sdfview"
	"github.com/gogpu/sdfview/compile"
)

//go:embed shaders/fullscreen.wgsl
var fullscreenVertexWGSL string

// Manager errors.
var (
	// ErrNilArtifact is returned when Swap is called with a nil artifact.
	ErrNilArtifact = errors.New("pipeline: artifact is nil")

	// ErrStaleGeneration is returned when an artifact's generation is not
	// newer than the active pipeline's.
	ErrStaleGeneration = errors.New("pipeline: artifact generation not newer than active")

	// ErrClosed is returned when the manager has been closed.
	ErrClosed = errors.New("pipeline: manager is closed")
)

// DefaultUniformSize is the byte size of the frame parameter uniform the
// viewer binds at group 0, binding 0.
const DefaultUniformSize = 32

// State is one complete, immutable pipeline build. The render loop reads it
// through Manager.Active and never mutates it.
type State struct {
	Shader     ShaderModuleID
	BindLayout BindGroupLayoutID
	Layout     PipelineLayoutID
	Pipeline   RenderPipelineID

	// VertexShader is set when the artifact lacked a vertex entry and the
	// built-in full-screen stage was used. Zero otherwise.
	VertexShader ShaderModuleID

	// Generation is the source generation this pipeline was built from.
	Generation uint64

	// Fingerprint is the source fingerprint of that generation.
	Fingerprint uint64
}

// retiredState is a displaced pipeline waiting for GPU completion.
type retiredState struct {
	state *State
	frame uint64 // last frame that may reference the pipeline
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFormat sets the color target format. Default is BGRA8Unorm.
func WithFormat(format gputypes.TextureFormat) ManagerOption {
	return func(m *Manager) { m.format = format }
}

// WithUniformSize sets the minimum uniform buffer size in the bind group
// layout. Default is DefaultUniformSize.
func WithUniformSize(size uint64) ManagerOption {
	return func(m *Manager) { m.uniformSize = size }
}

// Manager builds pipelines from artifacts and swaps them in atomically.
//
// Active is lock-free and safe to call from the render loop every frame.
// Swap, RetireCompleted, and Close are serialized internally; they are
// expected to be called from a single control goroutine but tolerate
// concurrent use.
type Manager struct {
	device      Device
	format      gputypes.TextureFormat
	uniformSize uint64

	active atomic.Pointer[State]

	mu      sync.Mutex
	retired []retiredState
	closed  bool
}

// NewManager creates a pipeline manager on the given device.
func NewManager(device Device, opts ...ManagerOption) *Manager {
	m := &Manager{
		device:      device,
		format:      gputypes.TextureFormatBGRA8Unorm,
		uniformSize: DefaultUniformSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Active returns the current pipeline state, or nil before the first
// successful Swap.
func (m *Manager) Active() *State {
	return m.active.Load()
}

// Swap builds a pipeline from the artifact and installs it as the active
// one. The build is completed in full before the active pointer moves, so a
// failure leaves the previous pipeline rendering undisturbed.
//
// frame is the index of the frame currently in flight; the displaced
// pipeline is destroyed once RetireCompleted reports that frame done.
func (m *Manager) Swap(a *compile.Artifact, frame uint64) error {
	if a == nil {
		return ErrNilArtifact
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if prev := m.active.Load(); prev != nil && a.Generation <= prev.Generation {
		return fmt.Errorf("%w: artifact %d, active %d",
			ErrStaleGeneration, a.Generation, prev.Generation)
	}

	next, err := m.build(a)
	if err != nil {
		return err
	}

	prev := m.active.Swap(next)
	if prev != nil {
		m.retired = append(m.retired, retiredState{state: prev, frame: frame})
	}

	sdfview.Logger().Info("pipeline: swapped",
		"generation", next.Generation, "fingerprint", next.Fingerprint)
	return nil
}

// build creates every GPU object for one artifact. On any failure it
// destroys what it already created and returns the error.
func (m *Manager) build(a *compile.Artifact) (*State, error) {
	s := &State{Generation: a.Generation, Fingerprint: a.Fingerprint}

	label := fmt.Sprintf("scene_gen%d", a.Generation)

	shader, err := m.device.CreateShaderModule(ShaderSource{
		WGSL:  a.WGSL,
		SPIRV: a.SPIRV,
	}, label+"_shader")
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	s.Shader = shader

	vertexModule := shader
	vertexEntry := a.VertexEntry
	if vertexEntry == "" {
		vs, err := m.device.CreateShaderModule(ShaderSource{
			WGSL: fullscreenVertexWGSL,
		}, label+"_fullscreen_vs")
		if err != nil {
			m.destroyState(s)
			return nil, fmt.Errorf("create fallback vertex module: %w", err)
		}
		s.VertexShader = vs
		vertexModule = vs
		vertexEntry = compile.DefaultVertexEntry
	}

	bindLayout, err := m.device.CreateBindGroupLayout(&BindGroupLayoutDesc{
		Label: label + "_bind_layout",
		Entries: []BindGroupLayoutEntry{
			{
				Binding:        0,
				Visibility:     StageVertex | StageFragment,
				UniformMinSize: m.uniformSize,
			},
		},
	})
	if err != nil {
		m.destroyState(s)
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	s.BindLayout = bindLayout

	layout, err := m.device.CreatePipelineLayout([]BindGroupLayoutID{bindLayout})
	if err != nil {
		m.destroyState(s)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	s.Layout = layout

	pipeline, err := m.device.CreateRenderPipeline(&RenderPipelineDesc{
		Label:          label + "_pipeline",
		Layout:         layout,
		VertexModule:   vertexModule,
		VertexEntry:    vertexEntry,
		FragmentModule: shader,
		FragmentEntry:  a.FragmentEntry,
		Format:         m.format,
	})
	if err != nil {
		m.destroyState(s)
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	s.Pipeline = pipeline

	return s, nil
}

// destroyState releases a state's resources in reverse creation order.
// Zero IDs are skipped, which makes it usable on partial builds.
func (m *Manager) destroyState(s *State) {
	if s.Pipeline != 0 {
		m.device.DestroyRenderPipeline(s.Pipeline)
	}
	if s.Layout != 0 {
		m.device.DestroyPipelineLayout(s.Layout)
	}
	if s.BindLayout != 0 {
		m.device.DestroyBindGroupLayout(s.BindLayout)
	}
	if s.VertexShader != 0 {
		m.device.DestroyShaderModule(s.VertexShader)
	}
	if s.Shader != 0 {
		m.device.DestroyShaderModule(s.Shader)
	}
}

// RetireCompleted destroys retired pipelines whose last referencing frame
// the GPU has finished. completedFrame comes from the render loop's fence
// wait.
func (m *Manager) RetireCompleted(completedFrame uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.retired[:0]
	for _, r := range m.retired {
		if r.frame <= completedFrame {
			sdfview.Logger().Debug("pipeline: destroying retired",
				"generation", r.state.Generation, "frame", r.frame)
			m.destroyState(r.state)
		} else {
			kept = append(kept, r)
		}
	}
	m.retired = kept
}

// PendingRetire reports how many displaced pipelines await destruction.
func (m *Manager) PendingRetire() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.retired)
}

// Close destroys the active pipeline and everything on the retire list.
// The caller must ensure the GPU is idle first.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	for _, r := range m.retired {
		m.destroyState(r.state)
	}
	m.retired = nil

	if s := m.active.Swap(nil); s != nil {
		m.destroyState(s)
	}
}
