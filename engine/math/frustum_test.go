package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z.
	plane := Plane{Normal: mgl32.Vec3{0, 0, 1}, D: 0}

	tests := []struct {
		name  string
		point mgl32.Vec3
		want  float32
	}{
		{"origin", mgl32.Vec3{0, 0, 0}, 0},
		{"in front", mgl32.Vec3{0, 0, 5}, 5},
		{"behind", mgl32.Vec3{0, 0, -3}, -3},
		{"offset XY", mgl32.Vec3{10, -5, 2}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := plane.DistanceToPoint(tc.point); !NearEqual(got, tc.want, 1e-6) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: mgl32.Vec3{0, 3, 4}, D: 10}
	plane.Normalize()

	if l := plane.Normal.Len(); !NearEqual(l, 1, 1e-6) {
		t.Errorf("normal length = %v, want 1", l)
	}
	if !NearEqual(plane.Normal.Y(), 0.6, 1e-6) || !NearEqual(plane.Normal.Z(), 0.8, 1e-6) {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	if !NearEqual(plane.D, 2, 1e-6) {
		t.Errorf("D = %v, want 2", plane.D)
	}

	zero := Plane{D: 7}
	zero.Normalize()
	if zero.D != 7 {
		t.Errorf("zero normal should leave the plane untouched")
	}
}

// testFrustum looks down -Z from (0, 0, 5) with a 60 degree square fov,
// near 0.1 and far 100. World-space planes: near z=4.9, far z=-95.
func testFrustum() Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	return NewFrustumFromMatrix(proj.Mul4(view))
}

func TestFrustumContainsPoint(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name  string
		point mgl32.Vec3
		want  bool
	}{
		{"origin", mgl32.Vec3{0, 0, 0}, true},
		{"deep but inside far", mgl32.Vec3{0, 0, -90}, true},
		{"lateral inside", mgl32.Vec3{2, 0, 0}, true},
		{"behind camera", mgl32.Vec3{0, 0, 6}, false},
		{"between camera and near", mgl32.Vec3{0, 0, 4.95}, false},
		{"beyond far", mgl32.Vec3{0, 0, -120}, false},
		{"outside right", mgl32.Vec3{10, 0, 0}, false},
		{"outside top", mgl32.Vec3{0, 10, 0}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.ContainsPoint(tc.point); got != tc.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	f := testFrustum()

	// The far plane sits at z=-95; a center 25 behind it needs radius > 25.
	center := mgl32.Vec3{0, 0, -120}
	if f.IntersectsSphere(center, 10) {
		t.Errorf("sphere well beyond the far plane should be culled")
	}
	if !f.IntersectsSphere(center, 30) {
		t.Errorf("sphere crossing the far plane should survive")
	}
	if !f.IntersectsSphere(mgl32.Vec3{}, 1000) {
		t.Errorf("sphere engulfing the whole frustum should survive")
	}
}
