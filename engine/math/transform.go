package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is the placement of an object in the world. Transforms can have a
// parent whose own transform is taken into account. Mutate it through the
// setters so the cached local matrix is regenerated.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	isDirty bool
	local   mgl32.Mat4
	Parent  *Transform
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		isDirty:  false,
		local:    mgl32.Ident4(),
	}
}

func TransformFromPosition(position mgl32.Vec3) *Transform {
	t := NewTransform()
	t.SetPosition(position)
	return t
}

func TransformFromPositionRotation(position mgl32.Vec3, rotation mgl32.Quat) *Transform {
	t := NewTransform()
	t.Position = position
	t.Rotation = rotation
	t.isDirty = true
	return t
}

func TransformFromPositionRotationScale(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) *Transform {
	t := NewTransform()
	t.Position = position
	t.Rotation = rotation
	t.Scale = scale
	t.isDirty = true
	return t
}

func (t *Transform) SetPosition(position mgl32.Vec3) {
	t.Position = position
	t.isDirty = true
}

func (t *Transform) Translate(translation mgl32.Vec3) {
	t.Position = t.Position.Add(translation)
	t.isDirty = true
}

func (t *Transform) SetRotation(rotation mgl32.Quat) {
	t.Rotation = rotation
	t.isDirty = true
}

func (t *Transform) Rotate(rotation mgl32.Quat) {
	t.Rotation = t.Rotation.Mul(rotation)
	t.isDirty = true
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.Scale = scale
	t.isDirty = true
}

// GetLocal returns the local matrix, regenerating it first when the
// position, rotation or scale changed since the last call.
func (t *Transform) GetLocal() mgl32.Mat4 {
	if t == nil {
		return mgl32.Ident4()
	}
	if t.isDirty {
		tr := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
		r := t.Rotation.Mat4()
		s := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
		t.local = tr.Mul4(r).Mul4(s)
		t.isDirty = false
	}
	return t.local
}

// GetWorld returns the world matrix, walking parent transforms.
func (t *Transform) GetWorld() mgl32.Mat4 {
	if t == nil {
		return mgl32.Ident4()
	}
	l := t.GetLocal()
	if t.Parent != nil {
		p := t.Parent.GetWorld()
		return p.Mul4(l)
	}
	return l
}
