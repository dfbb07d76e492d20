package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/rasterizer/raster/rt/layout"
)

// MaterialTable is the resident material set: the record storage buffer and
// the texture array every record handle points into.
type MaterialTable struct {
	Buffer  *wgpu.Buffer
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
	Count   int
	Layers  int
}

// UploadMaterialTable makes the table resident. The table's host texture
// data is dropped once it has been copied.
func (m *BufferManager) UploadMaterialTable(table *layout.MaterialTable) (*MaterialTable, error) {
	if err := layout.ValidateRecords(table.Records, table.Textures.Layers); err != nil {
		return nil, err
	}
	mt := &MaterialTable{Count: len(table.Records), Layers: table.Textures.Layers}

	if err := m.ensureBuffer("Material Records", &mt.Buffer, table.Bytes(), wgpu.BufferUsageStorage); err != nil {
		return nil, err
	}
	m.Tracker.Track("material records", mt.Buffer)

	arr := &table.Textures
	size := wgpu.Extent3D{
		Width:              uint32(arr.Width),
		Height:             uint32(arr.Height),
		DepthOrArrayLayers: uint32(arr.Layers),
	}
	var err error
	mt.Texture, err = m.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Material Textures",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, createErr("material texture array", err)
	}
	m.Tracker.Track("material textures", mt.Texture)

	m.Queue.WriteTexture(mt.Texture.AsImageCopy(), arr.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(arr.Width * 4),
		RowsPerImage: uint32(arr.Height),
	}, &size)

	mt.View, err = mt.Texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Material Textures View",
		Format:          wgpu.TextureFormatRGBA8UnormSrgb,
		Dimension:       wgpu.TextureViewDimension2DArray,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: uint32(arr.Layers),
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return nil, createErr("material texture view", err)
	}
	m.Tracker.Track("material textures view", mt.View)

	mt.Sampler, err = m.Device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Material Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, createErr("material sampler", err)
	}
	m.Tracker.Track("material sampler", mt.Sampler)

	m.Log.Debugf("materials: %d records, %d layers of %dx%d", mt.Count, arr.Layers, arr.Width, arr.Height)
	table.Release()
	return mt, nil
}
