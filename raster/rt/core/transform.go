package core

import "github.com/go-gl/mathgl/mgl32"

// Transforms are the per-frame matrices consumed by the scene shader.
type Transforms struct {
	Model mgl32.Mat4
	// MVP = projection * view * model
	MVP mgl32.Mat4
	// MV = view * model
	MV mgl32.Mat4
	// MVN transforms normals into eye space: the inverse-transpose of MV.
	MVN mgl32.Mat4
	// EyeLight is the light position in eye space.
	EyeLight mgl32.Vec3
}

// ComputeTransforms derives the frame matrices for the given model matrix
// and world-space light position.
func ComputeTransforms(cam *Camera, model mgl32.Mat4, light mgl32.Vec3) Transforms {
	mv := cam.View.Mul4(model)
	return Transforms{
		Model:    model,
		MVP:      cam.Projection.Mul4(mv),
		MV:       mv,
		MVN:      NormalMatrix(mv),
		EyeLight: cam.View.Mul4x1(light.Vec4(1)).Vec3(),
	}
}

// NormalMatrix returns the inverse-transpose of m, restricted to its upper
// 3x3 block. A singular m is returned unchanged.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat4 {
	m3 := m.Mat3()
	if m3.Det() == 0 {
		return m
	}
	return m3.Inv().Transpose().Mat4()
}
