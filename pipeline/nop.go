package pipeline

import "sync/atomic"

// NopDevice is a Device that allocates IDs and creates nothing. It backs the
// software presenter, which evaluates the scene on the CPU but still runs
// the full artifact-to-pipeline lifecycle.
type NopDevice struct {
	next atomic.Uint64
}

func (d *NopDevice) id() uint64 { return d.next.Add(1) }

func (d *NopDevice) CreateShaderModule(_ ShaderSource, _ string) (ShaderModuleID, error) {
	return ShaderModuleID(d.id()), nil
}

func (d *NopDevice) DestroyShaderModule(ShaderModuleID) {}

func (d *NopDevice) CreateBindGroupLayout(_ *BindGroupLayoutDesc) (BindGroupLayoutID, error) {
	return BindGroupLayoutID(d.id()), nil
}

func (d *NopDevice) DestroyBindGroupLayout(BindGroupLayoutID) {}

func (d *NopDevice) CreatePipelineLayout(_ []BindGroupLayoutID) (PipelineLayoutID, error) {
	return PipelineLayoutID(d.id()), nil
}

func (d *NopDevice) DestroyPipelineLayout(PipelineLayoutID) {}

func (d *NopDevice) CreateRenderPipeline(_ *RenderPipelineDesc) (RenderPipelineID, error) {
	return RenderPipelineID(d.id()), nil
}

func (d *NopDevice) DestroyRenderPipeline(RenderPipelineID) {}
