package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sdfview/pipeline"
)

// Adapter implements pipeline.Device over a HAL device. Resources are
// tracked in ID maps so the pipeline manager can stay free of HAL types and
// the presenter can resolve IDs back to HAL objects when encoding.
type Adapter struct {
	device hal.Device

	mu              sync.Mutex
	nextID          uint64
	shaderModules   map[pipeline.ShaderModuleID]hal.ShaderModule
	bindLayouts     map[pipeline.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts map[pipeline.PipelineLayoutID]hal.PipelineLayout
	pipelines       map[pipeline.RenderPipelineID]hal.RenderPipeline
}

var _ pipeline.Device = (*Adapter)(nil)

// NewAdapter wraps a HAL device.
func NewAdapter(device hal.Device) *Adapter {
	return &Adapter{
		device:          device,
		shaderModules:   make(map[pipeline.ShaderModuleID]hal.ShaderModule),
		bindLayouts:     make(map[pipeline.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts: make(map[pipeline.PipelineLayoutID]hal.PipelineLayout),
		pipelines:       make(map[pipeline.RenderPipelineID]hal.RenderPipeline),
	}
}

// id must be called with mu held. IDs start at 1; zero marks absence.
func (a *Adapter) id() uint64 {
	a.nextID++
	return a.nextID
}

// CreateShaderModule compiles WGSL source or loads SPIR-V bytecode.
func (a *Adapter) CreateShaderModule(src pipeline.ShaderSource, label string) (pipeline.ShaderModuleID, error) {
	module, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			WGSL:  src.WGSL,
			SPIRV: src.SPIRV,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("create shader module %s: %w", label, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := pipeline.ShaderModuleID(a.id())
	a.shaderModules[id] = module
	return id, nil
}

func (a *Adapter) DestroyShaderModule(id pipeline.ShaderModuleID) {
	a.mu.Lock()
	module, ok := a.shaderModules[id]
	delete(a.shaderModules, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyShaderModule(module)
	}
}

// CreateBindGroupLayout creates a layout of uniform buffer bindings.
func (a *Adapter) CreateBindGroupLayout(desc *pipeline.BindGroupLayoutDesc) (pipeline.BindGroupLayoutID, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: stageFlags(e.Visibility),
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: e.UniformMinSize,
			},
		}
	}

	layout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return 0, fmt.Errorf("create bind group layout %s: %w", desc.Label, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := pipeline.BindGroupLayoutID(a.id())
	a.bindLayouts[id] = layout
	return id, nil
}

func (a *Adapter) DestroyBindGroupLayout(id pipeline.BindGroupLayoutID) {
	a.mu.Lock()
	layout, ok := a.bindLayouts[id]
	delete(a.bindLayouts, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyBindGroupLayout(layout)
	}
}

func (a *Adapter) CreatePipelineLayout(layouts []pipeline.BindGroupLayoutID) (pipeline.PipelineLayoutID, error) {
	a.mu.Lock()
	halLayouts := make([]hal.BindGroupLayout, 0, len(layouts))
	for _, lid := range layouts {
		layout, ok := a.bindLayouts[lid]
		if !ok {
			a.mu.Unlock()
			return 0, fmt.Errorf("unknown bind group layout %d", lid)
		}
		halLayouts = append(halLayouts, layout)
	}
	a.mu.Unlock()

	layout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sdfview_pipe_layout",
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return 0, fmt.Errorf("create pipeline layout: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := pipeline.PipelineLayoutID(a.id())
	a.pipelineLayouts[id] = layout
	return id, nil
}

func (a *Adapter) DestroyPipelineLayout(id pipeline.PipelineLayoutID) {
	a.mu.Lock()
	layout, ok := a.pipelineLayouts[id]
	delete(a.pipelineLayouts, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyPipelineLayout(layout)
	}
}

// CreateRenderPipeline creates the full-screen triangle pipeline: no vertex
// buffers, opaque color target, no multisampling.
func (a *Adapter) CreateRenderPipeline(desc *pipeline.RenderPipelineDesc) (pipeline.RenderPipelineID, error) {
	a.mu.Lock()
	layout, ok := a.pipelineLayouts[desc.Layout]
	if !ok {
		a.mu.Unlock()
		return 0, fmt.Errorf("unknown pipeline layout %d", desc.Layout)
	}
	vertexModule, ok := a.shaderModules[desc.VertexModule]
	if !ok {
		a.mu.Unlock()
		return 0, fmt.Errorf("unknown vertex module %d", desc.VertexModule)
	}
	fragmentModule, ok := a.shaderModules[desc.FragmentModule]
	if !ok {
		a.mu.Unlock()
		return 0, fmt.Errorf("unknown fragment module %d", desc.FragmentModule)
	}
	a.mu.Unlock()

	halPipeline, err := a.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     vertexModule,
			EntryPoint: desc.VertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     fragmentModule,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    desc.Format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("create render pipeline %s: %w", desc.Label, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := pipeline.RenderPipelineID(a.id())
	a.pipelines[id] = halPipeline
	return id, nil
}

func (a *Adapter) DestroyRenderPipeline(id pipeline.RenderPipelineID) {
	a.mu.Lock()
	halPipeline, ok := a.pipelines[id]
	delete(a.pipelines, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyRenderPipeline(halPipeline)
	}
}

// renderPipeline resolves an ID for command encoding.
func (a *Adapter) renderPipeline(id pipeline.RenderPipelineID) (hal.RenderPipeline, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pipelines[id]
	return p, ok
}

// bindGroupLayout resolves an ID for bind group creation.
func (a *Adapter) bindGroupLayout(id pipeline.BindGroupLayoutID) (hal.BindGroupLayout, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.bindLayouts[id]
	return l, ok
}

// stageFlags converts pipeline stage visibility to HAL flags.
func stageFlags(s pipeline.ShaderStage) gputypes.ShaderStage {
	var out gputypes.ShaderStage
	if s&pipeline.StageVertex != 0 {
		out |= gputypes.ShaderStageVertex
	}
	if s&pipeline.StageFragment != 0 {
		out |= gputypes.ShaderStageFragment
	}
	return out
}
