package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/rasterizer/raster/rt/layout"
	"github.com/gekko3d/rasterizer/raster/rt/res"
	"github.com/gekko3d/rasterizer/raster/rt/shaders"
)

// PresentPass draws the downsample color image over the whole swapchain
// image with point sampling.
type PresentPass struct {
	Device    *wgpu.Device
	Pipeline  *wgpu.RenderPipeline
	Sampler   *wgpu.Sampler
	BindGroup *wgpu.BindGroup

	bindings *res.Tracker
}

func (m *BufferManager) NewPresentPass(surfaceFormat wgpu.TextureFormat, filter layout.Filter) (*PresentPass, error) {
	module, err := m.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Present VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PresentWGSL},
	})
	if err != nil {
		return nil, createErr("present shader", err)
	}
	m.Tracker.Track("present module", module)

	p := &PresentPass{Device: m.Device}

	// Layout auto
	p.Pipeline, err = m.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Present Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: shaders.VertexEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: shaders.FragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format:    surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, createErr("present pipeline", err)
	}
	m.Tracker.Track("present pipeline", p.Pipeline)

	p.Sampler, err = m.Device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Present Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filterMode(filter),
		MinFilter:     filterMode(filter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, createErr("present sampler", err)
	}
	m.Tracker.Track("present sampler", p.Sampler)

	p.bindings = m.Tracker.Sub("present bindings")
	return p, nil
}

// Bind points the pass at a new source image, e.g. after a resize.
func (p *PresentPass) Bind(source *wgpu.TextureView) error {
	p.bindings.ReleaseAll()
	p.BindGroup = nil

	bgl := p.Pipeline.GetBindGroupLayout(0)
	p.bindings.Track("present bind group layout", bgl)

	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Present BG",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: source},
			{Binding: 1, Sampler: p.Sampler},
		},
	})
	if err != nil {
		return createErr("present bind group", err)
	}
	p.bindings.Track("present bind group", bg)
	p.BindGroup = bg
	return nil
}

// Encode records the present draw into target.
func (p *PresentPass) Encode(encoder *wgpu.CommandEncoder, target *wgpu.TextureView) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Present Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	defer pass.Release()
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	return pass.End()
}
