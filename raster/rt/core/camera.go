package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// clipDepthRemap maps OpenGL-style clip depth [-w, w] onto the [0, w] range
// WebGPU rasterizes with.
var clipDepthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera is a fixed pinhole camera. Projection and View are recomputed on
// construction and whenever the viewport changes.
type Camera struct {
	Width  int
	Height int
	FovY   float32 // radians
	Near   float32
	Far    float32
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	Projection mgl32.Mat4
	View       mgl32.Mat4
}

// NewCamera builds a Z-up camera looking from eye at target. fovY is in
// radians.
func NewCamera(width, height int, fovY float32, eye, target mgl32.Vec3) *Camera {
	c := &Camera{
		Width:  width,
		Height: height,
		FovY:   fovY,
		Near:   1,
		Far:    1000,
		Eye:    eye,
		Target: target,
		Up:     mgl32.Vec3{0, 0, 1},
	}
	c.update()
	return c
}

func (c *Camera) SetClipRange(near, far float32) {
	c.Near, c.Far = near, far
	c.update()
}

// SetViewport updates the aspect ratio after a framebuffer resize.
func (c *Camera) SetViewport(width, height int) {
	c.Width, c.Height = width, height
	c.update()
}

func (c *Camera) Aspect() float32 {
	if c.Height == 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

func (c *Camera) update() {
	up := c.Up
	forward := c.Target.Sub(c.Eye)
	// LookAt degenerates when looking straight along the up axis.
	if forward.Len() > 0 && mgl32.Abs(forward.Normalize().Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 1, 0}
	}
	c.View = mgl32.LookAtV(c.Eye, c.Target, up)
	c.Projection = clipDepthRemap.Mul4(mgl32.Perspective(c.FovY, c.Aspect(), c.Near, c.Far))
}
