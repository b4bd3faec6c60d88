package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/resources"
)

// Material owns the appearance half of the parameter split: color factors
// and the material texture maps. Appearance is staged here through the
// typed setters and uploaded as one batch by Apply. Pass code never writes
// appearance into a program directly, and transforms never pass through a
// material; Material deliberately has no matrix setters.
type Material struct {
	Name   string
	params *ParamSet

	BaseColorMap      *resources.Texture
	NormalMap         *resources.Texture
	MetalRoughnessMap *resources.Texture
	OcclusionMap      *resources.Texture
	EmissiveMap       *resources.Texture
}

func NewMaterial(name string) *Material {
	m := &Material{
		Name:   name,
		params: NewParamSet(name),
	}
	m.params.SetVec4("base_colour", mgl32.Vec4{1, 1, 1, 1})
	m.params.SetFloat("metallic", 0.0)
	m.params.SetFloat("roughness", 0.5)
	m.params.SetFloat("occlusion", 1.0)
	m.params.SetVec3("emissive", mgl32.Vec3{0, 0, 0})
	return m
}

func (m *Material) SetBaseColor(c mgl32.Vec4) {
	m.params.SetVec4("base_colour", c)
}

func (m *Material) SetMetallic(v float32) {
	m.params.SetFloat("metallic", v)
}

func (m *Material) SetRoughness(v float32) {
	m.params.SetFloat("roughness", v)
}

func (m *Material) SetOcclusion(v float32) {
	m.params.SetFloat("occlusion", v)
}

func (m *Material) SetEmissive(c mgl32.Vec3) {
	m.params.SetVec3("emissive", c)
}

// Params exposes the material's parameter set, mostly for tests that
// verify the appearance/transform split.
func (m *Material) Params() *ParamSet {
	return m.params
}

// Apply attaches the staged parameter batch to the program and binds the
// material maps to their reserved slots. Nil maps unbind their slot so
// stale textures from the previous surface cannot leak through.
func (m *Material) Apply(device Device, program *Program) {
	program.bindMaterial(m.params)
	device.BindTexture(SlotBaseColorMap, m.BaseColorMap)
	device.BindTexture(SlotNormalMap, m.NormalMap)
	device.BindTexture(SlotMetalRoughnessMap, m.MetalRoughnessMap)
	device.BindTexture(SlotOcclusionMap, m.OcclusionMap)
	device.BindTexture(SlotEmissiveMap, m.EmissiveMap)
}
