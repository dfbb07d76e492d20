package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/rasterizer"
	"github.com/gekko3d/rasterizer/raster/rt/core"
	"github.com/gekko3d/rasterizer/raster/rt/layout"
	"github.com/gekko3d/rasterizer/raster/rt/res"
)

var ErrCreate = errors.New("gpu object creation failed")

// BufferManager creates and uploads the renderer's GPU resources. Every
// object it creates is registered with Tracker.
type BufferManager struct {
	Device  *wgpu.Device
	Queue   *wgpu.Queue
	Tracker *res.Tracker
	Log     rasterizer.Logger
}

func NewBufferManager(device *wgpu.Device, tracker *res.Tracker, logger rasterizer.Logger) *BufferManager {
	return &BufferManager{
		Device:  device,
		Queue:   device.GetQueue(),
		Tracker: tracker,
		Log:     rasterizer.OrNop(logger),
	}
}

func createErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCreate, what, err)
}

// ensureBuffer creates buf when missing or too small and writes data to it.
// Sizes are rounded up to the 4-byte copy alignment.
func (m *BufferManager) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage) error {
	neededSize := uint64(len(data))
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}

	if current := *buf; current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
		}
		newBuf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: name,
			Size:  neededSize,
			Usage: usage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			*buf = nil
			return createErr(name, err)
		}
		*buf = newBuf
		m.Log.Debugf("buffer %q: %d bytes", name, neededSize)
	}

	if len(data) > 0 {
		m.Queue.WriteBuffer(*buf, 0, data)
	}
	return nil
}

// VertexBuffer holds the packed scene geometry.
type VertexBuffer struct {
	Buffer *wgpu.Buffer
	Count  uint32
}

// UploadGeometry copies the packed vertices into a vertex buffer. The host
// slice is not retained.
func (m *BufferManager) UploadGeometry(vertices []core.Vertex) (*VertexBuffer, error) {
	if len(vertices) == 0 {
		return nil, layout.ErrEmptyGeometry
	}
	vb := &VertexBuffer{Count: uint32(len(vertices))}
	if err := m.ensureBuffer("Scene Vertices", &vb.Buffer, layout.VertexBytes(vertices), wgpu.BufferUsageVertex); err != nil {
		return nil, err
	}
	m.Tracker.Track("scene vertices", vb.Buffer)
	return vb, nil
}

// Bind attaches the buffer to vertex slot 0 of pass.
func (vb *VertexBuffer) Bind(pass *wgpu.RenderPassEncoder) {
	pass.SetVertexBuffer(0, vb.Buffer, 0, vb.Buffer.GetSize())
}

// UniformBuffer is the GPU copy of a layout.UniformBlock.
type UniformBuffer struct {
	Buffer *wgpu.Buffer
	Block  *layout.UniformBlock
}

func (m *BufferManager) NewUniformBuffer(block *layout.UniformBlock) (*UniformBuffer, error) {
	u := &UniformBuffer{Block: block}
	if err := m.ensureBuffer("Scene Uniforms", &u.Buffer, block.Bytes(), wgpu.BufferUsageUniform); err != nil {
		return nil, err
	}
	block.ClearDirty()
	m.Tracker.Track("scene uniforms", u.Buffer)
	return u, nil
}

// Flush uploads the block if any member changed since the last upload.
func (u *UniformBuffer) Flush(queue *wgpu.Queue) {
	if !u.Block.Dirty() {
		return
	}
	queue.WriteBuffer(u.Buffer, 0, u.Block.Bytes())
	u.Block.ClearDirty()
}
