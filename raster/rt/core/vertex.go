package core

import "github.com/go-gl/mathgl/mgl32"

// Vertex is the interleaved vertex record uploaded to the GPU. The field
// order and sizes are the vertex-attribute contract with the scene shader;
// see layout.VertexAttributes.
type Vertex struct {
	Position      mgl32.Vec3
	Normal        mgl32.Vec3
	Tangent       mgl32.Vec3
	TexCoord      mgl32.Vec2
	Bitangent     mgl32.Vec3
	MaterialIndex uint32
}

// Triangle is three vertices in winding order.
type Triangle struct {
	Vertices [3]Vertex
}

func (t *Triangle) Vertex(i int) Vertex {
	return t.Vertices[i]
}

// FaceNormal returns the normalized geometric normal, or zero for a
// degenerate triangle.
func (t *Triangle) FaceNormal() mgl32.Vec3 {
	e1 := t.Vertices[1].Position.Sub(t.Vertices[0].Position)
	e2 := t.Vertices[2].Position.Sub(t.Vertices[0].Position)
	n := e1.Cross(e2)
	if n.Len() == 0 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}
