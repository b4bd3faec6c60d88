package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func vec4Near(a, b mgl32.Vec4, tol float32) bool {
	return a.Sub(b).Len() <= tol
}

func TestTransformLocalComposition(t *testing.T) {
	tr := NewTransform()
	tr.SetPosition(mgl32.Vec3{1, 2, 3})
	tr.SetScale(mgl32.Vec3{2, 2, 2})

	// Scale applies before translation: (1,0,0) -> (2,0,0) -> (3,2,3).
	got := tr.GetLocal().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !vec4Near(got, mgl32.Vec4{3, 2, 3, 1}, 1e-5) {
		t.Errorf("local * (1,0,0,1) = %v, want (3,2,3,1)", got)
	}
}

func TestTransformRotate(t *testing.T) {
	tr := NewTransform()
	tr.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}))

	got := tr.GetLocal().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !vec4Near(got, mgl32.Vec4{0, 1, 0, 1}, 1e-5) {
		t.Errorf("rotated x axis = %v, want the y axis", got)
	}

	// Rotate composes on top of the current rotation.
	tr.Rotate(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1}))
	got = tr.GetLocal().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !vec4Near(got, mgl32.Vec4{-1, 0, 0, 1}, 1e-5) {
		t.Errorf("twice-rotated x axis = %v, want the negative x axis", got)
	}
}

func TestTransformSettersRegenerate(t *testing.T) {
	tr := NewTransform()
	before := tr.GetLocal()

	// Direct field writes bypass the dirty flag; the cached matrix stays.
	tr.Position = mgl32.Vec3{5, 0, 0}
	if tr.GetLocal() != before {
		t.Errorf("direct field write should not regenerate the cached matrix")
	}

	tr.SetPosition(mgl32.Vec3{5, 0, 0})
	after := tr.GetLocal()
	if after == before {
		t.Errorf("setter should regenerate the cached matrix")
	}
	if got := after.Mul4x1(mgl32.Vec4{0, 0, 0, 1}); !vec4Near(got, mgl32.Vec4{5, 0, 0, 1}, 1e-6) {
		t.Errorf("regenerated matrix moved the origin to %v", got)
	}
}

func TestTransformParent(t *testing.T) {
	parent := TransformFromPosition(mgl32.Vec3{10, 0, 0})
	child := TransformFromPosition(mgl32.Vec3{0, 1, 0})
	child.Parent = parent

	got := child.GetWorld().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !vec4Near(got, mgl32.Vec4{10, 1, 0, 1}, 1e-6) {
		t.Errorf("child origin in world space = %v, want (10,1,0,1)", got)
	}
}

func TestTransformNilReceiver(t *testing.T) {
	var tr *Transform
	if tr.GetLocal() != mgl32.Ident4() {
		t.Errorf("nil transform should read as identity")
	}
	if tr.GetWorld() != mgl32.Ident4() {
		t.Errorf("nil transform world should read as identity")
	}
}
