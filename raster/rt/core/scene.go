package core

// Scene owns the surfaces and materials produced by the loader for the
// lifetime of the renderer.
type Scene struct {
	Surfaces  []*Surface
	Materials []*Material
}

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) AddSurface(surface *Surface) {
	s.Surfaces = append(s.Surfaces, surface)
}

// AddMaterial appends m and returns its index in the material list.
func (s *Scene) AddMaterial(m *Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

func (s *Scene) TriangleCount() int {
	n := 0
	for _, surface := range s.Surfaces {
		n += surface.TriangleCount()
	}
	return n
}

func (s *Scene) VertexCount() int {
	return 3 * s.TriangleCount()
}

func (s *Scene) TexturedMaterialCount() int {
	n := 0
	for _, m := range s.Materials {
		if m.HasDiffuseTexture() {
			n++
		}
	}
	return n
}

// Release drops all scene data. Safe to call more than once.
func (s *Scene) Release() {
	if s == nil {
		return
	}
	s.Surfaces = nil
	s.Materials = nil
}
