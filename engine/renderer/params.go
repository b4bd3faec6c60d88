package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// ParamKind tags the type a parameter was first written with.
type ParamKind uint8

const (
	ParamFloat ParamKind = iota
	ParamInt
	ParamVec2
	ParamVec3
	ParamVec4
	ParamMat3
	ParamMat4
	ParamTexture
)

func (k ParamKind) String() string {
	switch k {
	case ParamFloat:
		return "float"
	case ParamInt:
		return "int"
	case ParamVec2:
		return "vec2"
	case ParamVec3:
		return "vec3"
	case ParamVec4:
		return "vec4"
	case ParamMat3:
		return "mat3"
	case ParamMat4:
		return "mat4"
	case ParamTexture:
		return "texture"
	}
	return "unknown"
}

// paramValue is one tagged slot. The kind fixed by the first write is
// final; access through any other kind is refused.
type paramValue struct {
	kind ParamKind
	f32  float32
	i32  int32
	v2   mgl32.Vec2
	v3   mgl32.Vec3
	v4   mgl32.Vec4
	m3   mgl32.Mat3
	m4   mgl32.Mat4
	tex  *resources.Texture
}

// ParamSet is a name-addressed bag of shading parameters. Every slot keeps
// the kind of its first write and refuses cross-kind reads and writes, so a
// 3x3 normal matrix can never be smuggled through a 4x4 accessor or the
// other way around. Refusals are logged once per parameter to stay useful
// inside per-fragment code.
//
// Methods tolerate a nil receiver and report absence, which lets fragment
// stages run with no material attached.
type ParamSet struct {
	owner  string
	values map[string]*paramValue
	warned map[string]bool
}

func NewParamSet(owner string) *ParamSet {
	return &ParamSet{
		owner:  owner,
		values: make(map[string]*paramValue),
	}
}

func (ps *ParamSet) Owner() string {
	if ps == nil {
		return ""
	}
	return ps.owner
}

// Has reports whether a parameter exists under any kind.
func (ps *ParamSet) Has(name string) bool {
	if ps == nil {
		return false
	}
	_, ok := ps.values[name]
	return ok
}

func (ps *ParamSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.values)
}

// slot returns the value cell for a write, creating it on first use. It
// returns nil when the name is already bound to a different kind.
func (ps *ParamSet) slot(name string, kind ParamKind) *paramValue {
	if ps == nil {
		return nil
	}
	v, ok := ps.values[name]
	if !ok {
		v = &paramValue{kind: kind}
		ps.values[name] = v
		return v
	}
	if v.kind != kind {
		ps.refuse(name, v.kind, kind)
		return nil
	}
	return v
}

// get returns the value cell for a read of the given kind, or nil when the
// parameter is absent or bound to a different kind.
func (ps *ParamSet) get(name string, kind ParamKind) *paramValue {
	if ps == nil {
		return nil
	}
	v, ok := ps.values[name]
	if !ok {
		return nil
	}
	if v.kind != kind {
		ps.refuse(name, v.kind, kind)
		return nil
	}
	return v
}

func (ps *ParamSet) refuse(name string, have, want ParamKind) {
	if ps.warned == nil {
		ps.warned = make(map[string]bool)
	}
	if ps.warned[name] {
		return
	}
	ps.warned[name] = true
	core.LogError("param %q on %q holds %s, refusing %s access", name, ps.owner, have, want)
}

func (ps *ParamSet) SetFloat(name string, value float32) bool {
	v := ps.slot(name, ParamFloat)
	if v == nil {
		return false
	}
	v.f32 = value
	return true
}

func (ps *ParamSet) Float(name string) (float32, bool) {
	v := ps.get(name, ParamFloat)
	if v == nil {
		return 0, false
	}
	return v.f32, true
}

func (ps *ParamSet) SetInt(name string, value int32) bool {
	v := ps.slot(name, ParamInt)
	if v == nil {
		return false
	}
	v.i32 = value
	return true
}

func (ps *ParamSet) Int(name string) (int32, bool) {
	v := ps.get(name, ParamInt)
	if v == nil {
		return 0, false
	}
	return v.i32, true
}

func (ps *ParamSet) SetVec2(name string, value mgl32.Vec2) bool {
	v := ps.slot(name, ParamVec2)
	if v == nil {
		return false
	}
	v.v2 = value
	return true
}

func (ps *ParamSet) Vec2(name string) (mgl32.Vec2, bool) {
	v := ps.get(name, ParamVec2)
	if v == nil {
		return mgl32.Vec2{}, false
	}
	return v.v2, true
}

func (ps *ParamSet) SetVec3(name string, value mgl32.Vec3) bool {
	v := ps.slot(name, ParamVec3)
	if v == nil {
		return false
	}
	v.v3 = value
	return true
}

func (ps *ParamSet) Vec3(name string) (mgl32.Vec3, bool) {
	v := ps.get(name, ParamVec3)
	if v == nil {
		return mgl32.Vec3{}, false
	}
	return v.v3, true
}

func (ps *ParamSet) SetVec4(name string, value mgl32.Vec4) bool {
	v := ps.slot(name, ParamVec4)
	if v == nil {
		return false
	}
	v.v4 = value
	return true
}

func (ps *ParamSet) Vec4(name string) (mgl32.Vec4, bool) {
	v := ps.get(name, ParamVec4)
	if v == nil {
		return mgl32.Vec4{}, false
	}
	return v.v4, true
}

func (ps *ParamSet) SetMat3(name string, value mgl32.Mat3) bool {
	v := ps.slot(name, ParamMat3)
	if v == nil {
		return false
	}
	v.m3 = value
	return true
}

func (ps *ParamSet) Mat3(name string) (mgl32.Mat3, bool) {
	v := ps.get(name, ParamMat3)
	if v == nil {
		return mgl32.Mat3{}, false
	}
	return v.m3, true
}

func (ps *ParamSet) SetMat4(name string, value mgl32.Mat4) bool {
	v := ps.slot(name, ParamMat4)
	if v == nil {
		return false
	}
	v.m4 = value
	return true
}

func (ps *ParamSet) Mat4(name string) (mgl32.Mat4, bool) {
	v := ps.get(name, ParamMat4)
	if v == nil {
		return mgl32.Mat4{}, false
	}
	return v.m4, true
}

func (ps *ParamSet) SetTexture(name string, value *resources.Texture) bool {
	v := ps.slot(name, ParamTexture)
	if v == nil {
		return false
	}
	v.tex = value
	return true
}

func (ps *ParamSet) Texture(name string) (*resources.Texture, bool) {
	v := ps.get(name, ParamTexture)
	if v == nil {
		return nil, false
	}
	return v.tex, true
}
