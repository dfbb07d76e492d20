package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func project(cam *Camera, p mgl32.Vec3) mgl32.Vec3 {
	clip := cam.Projection.Mul4(cam.View).Mul4x1(p.Vec4(1))
	return clip.Vec3().Mul(1 / clip.W())
}

func TestCameraDepthRange(t *testing.T) {
	eye := mgl32.Vec3{0, -10, 0}
	cam := NewCamera(800, 600, mgl32.DegToRad(45), eye, mgl32.Vec3{0, 0, 0})
	cam.SetClipRange(1, 100)

	near := project(cam, mgl32.Vec3{0, -9, 0})
	far := project(cam, mgl32.Vec3{0, 90, 0})
	mid := project(cam, mgl32.Vec3{0, 0, 0})

	if !mgl32.FloatEqualThreshold(near.Z(), 0, 1e-4) {
		t.Errorf("near plane depth = %f, want 0", near.Z())
	}
	if !mgl32.FloatEqualThreshold(far.Z(), 1, 1e-4) {
		t.Errorf("far plane depth = %f, want 1", far.Z())
	}
	if mid.Z() <= 0 || mid.Z() >= 1 {
		t.Errorf("target depth %f outside (0, 1)", mid.Z())
	}
	if !mgl32.FloatEqualThreshold(mid.X(), 0, 1e-5) || !mgl32.FloatEqualThreshold(mid.Y(), 0, 1e-5) {
		t.Errorf("target should project to the center, got %v", mid)
	}
}

func TestCameraZUp(t *testing.T) {
	cam := NewCamera(100, 100, mgl32.DegToRad(60), mgl32.Vec3{0, -10, 0}, mgl32.Vec3{0, 0, 0})
	above := project(cam, mgl32.Vec3{0, 0, 1})
	if above.Y() <= 0 {
		t.Errorf("+Z should appear above the center, got y=%f", above.Y())
	}
}

func TestCameraLookingAlongUp(t *testing.T) {
	cam := NewCamera(100, 100, mgl32.DegToRad(60), mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0})
	for i := 0; i < 16; i++ {
		v := cam.View[i]
		if v != v {
			t.Fatalf("view matrix contains NaN: %v", cam.View)
		}
	}
}

func TestCameraSetViewport(t *testing.T) {
	cam := NewCamera(640, 480, mgl32.DegToRad(45), mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	before := cam.Projection
	cam.SetViewport(1280, 480)
	if cam.Projection == before {
		t.Error("projection should change with the aspect ratio")
	}
	if cam.Aspect() != 1280.0/480.0 {
		t.Errorf("aspect = %f", cam.Aspect())
	}

	cam.SetViewport(0, 0)
	if cam.Aspect() != 1 {
		t.Errorf("zero-height viewport should fall back to aspect 1, got %f", cam.Aspect())
	}
}
