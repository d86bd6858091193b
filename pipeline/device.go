// Package pipeline owns the lifetime of GPU render pipelines for the viewer.
//
// The manager holds at most one active pipeline at a time. A new artifact is
// built into a complete pipeline off to the side and then swapped in
// atomically; the displaced pipeline is destroyed only after the GPU has
// finished every frame that may still reference it.
package pipeline

import (
	"github.com/gogpu/gputypes"
)

// Resource IDs handed out by a Device. IDs become invalid after the matching
// Destroy call and must not be reused.
type (
	// ShaderModuleID identifies a compiled shader module.
	ShaderModuleID uint64

	// BindGroupLayoutID identifies a bind group layout.
	BindGroupLayoutID uint64

	// PipelineLayoutID identifies a pipeline layout.
	PipelineLayoutID uint64

	// RenderPipelineID identifies a render pipeline.
	RenderPipelineID uint64
)

// ShaderStage is a bitmask of pipeline stages a binding is visible to.
type ShaderStage uint32

const (
	// StageVertex makes a binding visible to the vertex stage.
	StageVertex ShaderStage = 1 << iota

	// StageFragment makes a binding visible to the fragment stage.
	StageFragment
)

// ShaderSource carries shader code in exactly one representation.
type ShaderSource struct {
	// WGSL is shader source text.
	WGSL string

	// SPIRV is compiled bytecode as little-endian 32-bit words.
	SPIRV []uint32
}

// BindGroupLayoutEntry describes one uniform buffer binding slot.
type BindGroupLayoutEntry struct {
	// Binding is the @binding index in the shader.
	Binding uint32

	// Visibility selects which stages see the binding.
	Visibility ShaderStage

	// UniformMinSize is the minimum buffer size bound at this slot.
	UniformMinSize uint64
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// RenderPipelineDesc describes a render pipeline drawing a full-screen
// triangle with no vertex buffers.
type RenderPipelineDesc struct {
	Label  string
	Layout PipelineLayoutID

	// VertexModule and FragmentModule may name the same module.
	VertexModule   ShaderModuleID
	VertexEntry    string
	FragmentModule ShaderModuleID
	FragmentEntry  string

	// Format is the color target format.
	Format gputypes.TextureFormat
}

// Device is the subset of GPU resource management the pipeline manager
// needs. The HAL-backed implementation lives in internal/gpu; tests use
// in-memory fakes.
//
// Implementations must be safe for concurrent use and must never hand out
// the zero ID; zero marks an absent resource.
type Device interface {
	CreateShaderModule(src ShaderSource, label string) (ShaderModuleID, error)
	DestroyShaderModule(id ShaderModuleID)

	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)
	DestroyBindGroupLayout(id BindGroupLayoutID)

	CreatePipelineLayout(layouts []BindGroupLayoutID) (PipelineLayoutID, error)
	DestroyPipelineLayout(id PipelineLayoutID)

	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)
	DestroyRenderPipeline(id RenderPipelineID)
}
