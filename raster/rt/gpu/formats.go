package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/rasterizer/raster/rt/layout"
)

func TextureFormat(f layout.Format) wgpu.TextureFormat {
	switch f {
	case layout.FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case layout.FormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case layout.FormatDepth24PlusStencil8:
		return wgpu.TextureFormatDepth24PlusStencil8
	}
	return wgpu.TextureFormatUndefined
}

// LayoutFormat is the inverse of TextureFormat for the formats the frame
// target uses.
func LayoutFormat(f wgpu.TextureFormat) layout.Format {
	switch f {
	case wgpu.TextureFormatRGBA16Float:
		return layout.FormatRGBA16Float
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return layout.FormatRGBA8UnormSrgb
	case wgpu.TextureFormatDepth24PlusStencil8:
		return layout.FormatDepth24PlusStencil8
	}
	return layout.FormatUndefined
}

func vertexFormat(f layout.VertexFormat) wgpu.VertexFormat {
	switch f {
	case layout.VertexFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case layout.VertexFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case layout.VertexUint32:
		return wgpu.VertexFormatUint32
	}
	panic(fmt.Sprintf("gpu: unmapped vertex format %s", f))
}

// VertexBufferLayout describes the packed core.Vertex stream.
func VertexBufferLayout() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, len(layout.VertexAttributes))
	for i, a := range layout.VertexAttributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         vertexFormat(a.Format),
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: layout.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func filterMode(f layout.Filter) wgpu.FilterMode {
	if f == layout.FilterLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}
