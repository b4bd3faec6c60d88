package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// VertexOut is what a vertex stage hands the rasterizer: a clip-space
// position plus the varyings interpolated across the triangle.
type VertexOut struct {
	Position mgl32.Vec4
	World    mgl32.Vec3
	Normal   mgl32.Vec3
	Texcoord mgl32.Vec2
	Color    mgl32.Vec4
}

// Fragment carries the interpolated varyings for one covered pixel.
type Fragment struct {
	World    mgl32.Vec3
	Normal   mgl32.Vec3
	Texcoord mgl32.Vec2
	Color    mgl32.Vec4
}

// Sampler reads bound textures inside fragment stages. The device
// implements it; slots follow the global texture slot convention.
type Sampler interface {
	Sample2D(slot uint8, uv mgl32.Vec2) mgl32.Vec4
	Sample3D(slot uint8, coord mgl32.Vec3) mgl32.Vec4
	// SampleDepth reads a depth attachment. Coordinates outside [0,1]
	// return 1, the far plane, so everything outside a shadow map is lit.
	SampleDepth(slot uint8, uv mgl32.Vec2) float32
	Bound(slot uint8) bool
}

// VertexFn transforms one vertex. pass carries the pass-owned parameters
// and mat the bound material's; instance is the per-instance model matrix
// on instanced draws and identity otherwise.
type VertexFn func(pass, mat *ParamSet, vertex resources.Vertex, instance mgl32.Mat4) VertexOut

// FragmentFn shades one fragment. Returning false discards it, skipping
// every buffer write.
type FragmentFn func(pass, mat *ParamSet, s Sampler, frag Fragment) (mgl32.Vec4, bool)

// Program is a shading program expressed as Go stages over two parameter
// sets. Params is the pass-owned side: transforms, view state and light
// data written directly by pass code. The material side is attached only
// through Material.Apply; the two are never folded together. A nil
// Fragment stage makes the program write depth and stencil only.
type Program struct {
	ID     uint32
	Name   string
	Params *ParamSet

	Vertex   VertexFn
	Fragment FragmentFn

	material *ParamSet

	InternalData interface{}
}

// MaterialParams returns the parameter set of the last applied material,
// or nil when none is attached.
func (p *Program) MaterialParams() *ParamSet {
	return p.material
}

func (p *Program) bindMaterial(params *ParamSet) {
	p.material = params
}

// Built-in program names, resolved through a ProgramLibrary.
const (
	ProgramForward          = "Program.Builtin.Forward"
	ProgramForwardInstanced = "Program.Builtin.ForwardInstanced"
	ProgramDepth            = "Program.Builtin.Depth"
	ProgramBackdrop         = "Program.Builtin.Backdrop"
	ProgramOutlineMask      = "Program.Builtin.OutlineMask"
	ProgramOutline          = "Program.Builtin.Outline"
	ProgramBloomBright      = "Program.Builtin.BloomBright"
	ProgramBloomBlur        = "Program.Builtin.BloomBlur"
	ProgramTone             = "Program.Builtin.Tone"
	ProgramGrade            = "Program.Builtin.Grade"
)

// ProgramLibrary lazily builds and caches the built-in programs for one
// renderer. Every renderer owns its own library, so two renderers in one
// process never share program state.
type ProgramLibrary struct {
	device   Device
	builders map[string]func(name string) *Program
	programs map[string]*Program
}

func NewProgramLibrary(device Device) *ProgramLibrary {
	return &ProgramLibrary{
		device: device,
		builders: map[string]func(string) *Program{
			ProgramForward:          newForwardProgram,
			ProgramForwardInstanced: newForwardInstancedProgram,
			ProgramDepth:            newDepthProgram,
			ProgramBackdrop:         newBackdropProgram,
			ProgramOutlineMask:      newOutlineMaskProgram,
			ProgramOutline:          newOutlineProgram,
			ProgramBloomBright:      newBloomBrightProgram,
			ProgramBloomBlur:        newBloomBlurProgram,
			ProgramTone:             newToneProgram,
			ProgramGrade:            newGradeProgram,
		},
		programs: make(map[string]*Program),
	}
}

// Get returns the named built-in, building and registering it with the
// device on first use.
func (l *ProgramLibrary) Get(name string) (*Program, error) {
	if p, ok := l.programs[name]; ok {
		return p, nil
	}
	build, ok := l.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown program %q", name)
	}
	p := build(name)
	if err := l.device.CreateProgram(p); err != nil {
		return nil, fmt.Errorf("create program %q: %w", name, err)
	}
	l.programs[name] = p
	return p, nil
}

// Shutdown destroys every built program. The library can be used again
// afterwards; programs rebuild on demand.
func (l *ProgramLibrary) Shutdown() {
	for name, p := range l.programs {
		l.device.DestroyProgram(p)
		delete(l.programs, name)
	}
	core.LogDebug("program library shut down")
}
