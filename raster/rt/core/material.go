package core

import "github.com/go-gl/mathgl/mgl32"

// Texture is decoded RGBA8 pixel data, rows top to bottom.
type Texture struct {
	ID     string
	Path   string
	Width  int
	Height int
	Pix    []uint8
}

// WhiteTexture is the 1x1 opaque-white placeholder bound to materials that
// carry no diffuse map.
func WhiteTexture() *Texture {
	return &Texture{
		ID:     "white",
		Width:  1,
		Height: 1,
		Pix:    []uint8{255, 255, 255, 255},
	}
}

type Material struct {
	Name     string
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec3
	Ambient  mgl32.Vec3

	// DiffuseTexture is nil when the material has no diffuse map.
	DiffuseTexture *Texture
}

func (m *Material) HasDiffuseTexture() bool {
	return m.DiffuseTexture != nil
}

// DefaultMaterial is the light gray material given to faces that reference
// no known material.
func DefaultMaterial() *Material {
	return &Material{
		Name:     "default",
		Diffuse:  mgl32.Vec3{0.63, 0.63, 0.63},
		Specular: mgl32.Vec3{0.5, 0.5, 0.5},
		Ambient:  mgl32.Vec3{0.1, 0.1, 0.1},
	}
}
