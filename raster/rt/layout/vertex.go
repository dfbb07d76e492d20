package layout

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/gekko3d/rasterizer/raster/rt/core"
)

var (
	ErrMaterialIndex   = errors.New("material index out of range")
	ErrSurfaceStorage  = errors.New("surface triangle storage mismatch")
	ErrTooManyVertices = errors.New("vertex count exceeds draw range")
	ErrEmptyGeometry   = errors.New("scene has no triangles")
)

type VertexFormat int

const (
	VertexFloat32x2 VertexFormat = iota
	VertexFloat32x3
	VertexUint32
)

func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFloat32x2:
		return 8
	case VertexFloat32x3:
		return 12
	case VertexUint32:
		return 4
	}
	return 0
}

func (f VertexFormat) String() string {
	switch f {
	case VertexFloat32x2:
		return "float32x2"
	case VertexFloat32x3:
		return "float32x3"
	case VertexUint32:
		return "uint32"
	}
	return fmt.Sprintf("VertexFormat(%d)", int(f))
}

// VertexAttribute binds one field of core.Vertex to a shader input slot.
type VertexAttribute struct {
	Name     string
	Location uint32
	Format   VertexFormat
	Offset   uint64
}

// VertexStride is the byte distance between consecutive packed vertices.
const VertexStride = uint64(unsafe.Sizeof(core.Vertex{}))

// VertexAttributes is the fixed attribute contract between the packed
// vertex buffer and the scene vertex shader.
var VertexAttributes = []VertexAttribute{
	{Name: "position", Location: 0, Format: VertexFloat32x3, Offset: uint64(unsafe.Offsetof(core.Vertex{}.Position))},
	{Name: "normal", Location: 1, Format: VertexFloat32x3, Offset: uint64(unsafe.Offsetof(core.Vertex{}.Normal))},
	{Name: "tangent", Location: 2, Format: VertexFloat32x3, Offset: uint64(unsafe.Offsetof(core.Vertex{}.Tangent))},
	{Name: "texcoord", Location: 3, Format: VertexFloat32x2, Offset: uint64(unsafe.Offsetof(core.Vertex{}.TexCoord))},
	{Name: "bitangent", Location: 4, Format: VertexFloat32x3, Offset: uint64(unsafe.Offsetof(core.Vertex{}.Bitangent))},
	{Name: "material", Location: 5, Format: VertexUint32, Offset: uint64(unsafe.Offsetof(core.Vertex{}.MaterialIndex))},
}

// PackGeometry flattens the surfaces into one vertex array, surface by
// surface, triangle by triangle, corner 0..2. Every vertex takes its
// surface's material index.
func PackGeometry(surfaces []*core.Surface, materialCount int) ([]core.Vertex, error) {
	total := 0
	for i, s := range surfaces {
		if s.MaterialIndex < 0 || s.MaterialIndex >= materialCount {
			return nil, fmt.Errorf("%w: surface %d (%q) uses material %d of %d",
				ErrMaterialIndex, i, s.Name, s.MaterialIndex, materialCount)
		}
		if s.TriangleCount() != len(s.Triangles) {
			return nil, fmt.Errorf("%w: surface %d (%q) declares %d triangles, stores %d",
				ErrSurfaceStorage, i, s.Name, s.TriangleCount(), len(s.Triangles))
		}
		total += s.TriangleCount()
	}
	if total == 0 {
		return nil, ErrEmptyGeometry
	}
	if uint64(total)*3 > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d triangles", ErrTooManyVertices, total)
	}

	vertices := make([]core.Vertex, 0, total*3)
	for _, s := range surfaces {
		material := uint32(s.MaterialIndex)
		for t := 0; t < s.TriangleCount(); t++ {
			tri := s.Triangle(t)
			for c := 0; c < 3; c++ {
				v := tri.Vertex(c)
				v.MaterialIndex = material
				vertices = append(vertices, v)
			}
		}
	}
	return vertices, nil
}

// VertexBytes reinterprets the packed vertices as the bytes uploaded to the
// vertex buffer. The result aliases vertices.
func VertexBytes(vertices []core.Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(VertexStride))
}
