package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/rasterizer/raster/rt/layout"
	"github.com/gekko3d/rasterizer/raster/rt/shaders"
)

var ErrShaderProgram = errors.New("shader program")

// ProgramSource is the WGSL of the two scene stages.
type ProgramSource struct {
	Vertex   string
	Fragment string
}

func DefaultProgramSource() ProgramSource {
	return ProgramSource{Vertex: shaders.SceneVertexWGSL, Fragment: shaders.SceneFragmentWGSL}
}

// Program is the linked scene pipeline: both stages, the explicit scene bind
// group layout and the vertex layout of the packed geometry.
type Program struct {
	VertexModule    *wgpu.ShaderModule
	FragmentModule  *wgpu.ShaderModule
	BindGroupLayout *wgpu.BindGroupLayout
	PipelineLayout  *wgpu.PipelineLayout
	Pipeline        *wgpu.RenderPipeline
}

// CompileProgram compiles both stages and links them into a pipeline that
// renders into targets laid out like plan. Depth testing keeps the nearer
// fragment.
func (m *BufferManager) CompileProgram(src ProgramSource, plan layout.FrameTargetPlan) (*Program, error) {
	p := &Program{}
	var err error

	p.VertexModule, err = m.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Scene VS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Vertex},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vertex stage: %w", ErrShaderProgram, err)
	}
	m.Tracker.Track("scene vertex module", p.VertexModule)

	p.FragmentModule, err = m.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Scene FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Fragment},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fragment stage: %w", ErrShaderProgram, err)
	}
	m.Tracker.Track("scene fragment module", p.FragmentModule)

	p.BindGroupLayout, err = m.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Scene BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: layout.MaterialRecordSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(layout.NewSceneUniforms().Size()),
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2DArray,
					Multisampled:  false,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return nil, createErr("scene bind group layout", err)
	}
	m.Tracker.Track("scene bind group layout", p.BindGroupLayout)

	p.PipelineLayout, err = m.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Scene Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.BindGroupLayout},
	})
	if err != nil {
		return nil, createErr("scene pipeline layout", err)
	}
	m.Tracker.Track("scene pipeline layout", p.PipelineLayout)

	var targets []wgpu.ColorTargetState
	var depthFormat wgpu.TextureFormat
	for _, a := range plan.Multisampled {
		if a.Format.IsDepth() {
			depthFormat = TextureFormat(a.Format)
			continue
		}
		targets = append(targets, wgpu.ColorTargetState{
			Format:    TextureFormat(a.Format),
			WriteMask: wgpu.ColorWriteMaskAll,
		})
	}

	stencilFace := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}

	p.Pipeline, err = m.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Scene Pipeline",
		Layout: p.PipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.VertexModule,
			EntryPoint: shaders.VertexEntry,
			Buffers:    []wgpu.VertexBufferLayout{VertexBufferLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.FragmentModule,
			EntryPoint: shaders.FragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      stencilFace,
			StencilBack:       stencilFace,
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: plan.Samples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: link: %w", ErrShaderProgram, err)
	}
	m.Tracker.Track("scene pipeline", p.Pipeline)
	return p, nil
}

// CreateSceneBindGroup binds the material table, the uniforms and the
// resident textures to group 0 of the program.
func (m *BufferManager) CreateSceneBindGroup(p *Program, mt *MaterialTable, u *UniformBuffer) (*wgpu.BindGroup, error) {
	bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Scene BG",
		Layout: p.BindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: mt.Buffer, Size: mt.Buffer.GetSize()},
			{Binding: 1, Buffer: u.Buffer, Size: u.Buffer.GetSize()},
			{Binding: 2, TextureView: mt.View},
			{Binding: 3, Sampler: mt.Sampler},
		},
	})
	if err != nil {
		return nil, createErr("scene bind group", err)
	}
	m.Tracker.Track("scene bind group", bg)
	return bg, nil
}
