package core

// Surface is a run of flat triangles sharing one material. Material is
// assigned per surface, never per triangle.
type Surface struct {
	Name          string
	MaterialIndex int
	Triangles     []Triangle

	// Declared is the triangle count the source announced for this surface.
	// Zero means "trust the storage".
	Declared int
}

func NewSurface(name string, materialIndex int) *Surface {
	return &Surface{
		Name:          name,
		MaterialIndex: materialIndex,
	}
}

func (s *Surface) AddTriangle(t Triangle) {
	s.Triangles = append(s.Triangles, t)
}

// TriangleCount reports the number of triangles the surface claims to hold.
func (s *Surface) TriangleCount() int {
	if s.Declared > 0 {
		return s.Declared
	}
	return len(s.Triangles)
}

// Triangle returns triangle i, or nil when i is outside the stored range.
func (s *Surface) Triangle(i int) *Triangle {
	if i < 0 || i >= len(s.Triangles) {
		return nil
	}
	return &s.Triangles[i]
}
