package renderer

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/scene"
)

// ForwardRenderPath shades every surface in a single pass over the scene:
// opaque surfaces front to back order-independent, then instanced batches,
// then transparent surfaces blended back to front with depth writes off.
type ForwardRenderPath struct {
	device   Device
	programs *ProgramLibrary

	opaque    *Program
	instanced *Program

	width  uint32
	height uint32

	drawn  int
	culled int

	warnedIncomplete bool
}

func NewForwardRenderPath(device Device, programs *ProgramLibrary) *ForwardRenderPath {
	return &ForwardRenderPath{device: device, programs: programs}
}

func (f *ForwardRenderPath) Name() string { return PathForward.String() }

// NeedsDepthPrepass is false: forward shading reads no depth before the
// main pass.
func (f *ForwardRenderPath) NeedsDepthPrepass() bool { return false }

func (f *ForwardRenderPath) Initialize(width, height uint32) error {
	opaque, err := f.programs.Get(ProgramForward)
	if err != nil {
		return err
	}
	instanced, err := f.programs.Get(ProgramForwardInstanced)
	if err != nil {
		return err
	}
	f.opaque = opaque
	f.instanced = instanced
	f.width = width
	f.height = height
	return nil
}

func (f *ForwardRenderPath) OnResize(width, height uint32) {
	f.width = width
	f.height = height
}

func (f *ForwardRenderPath) Shutdown() {
	f.opaque = nil
	f.instanced = nil
}

// Stats returns how many surfaces the last Execute drew and culled.
func (f *ForwardRenderPath) Stats() (drawn, culled int) {
	return f.drawn, f.culled
}

// Execute renders the frame described by data into data.Target. Incomplete
// pass data makes Execute a no-op rather than an error: a frame with
// nothing to render is a valid frame, a frame without its shared resources
// is skipped with a warning.
func (f *ForwardRenderPath) Execute(data *RenderPassData) {
	f.drawn = 0
	f.culled = 0
	if data == nil || data.Scene == nil || data.Camera == nil {
		return
	}
	if data.Target == nil || data.Material == nil || f.opaque == nil || f.instanced == nil {
		if !f.warnedIncomplete {
			core.LogWarn("forward path is missing its target, material or programs, skipping the scene pass")
			f.warnedIncomplete = true
		}
		return
	}

	dev := f.device
	dev.BindTarget(data.Target)
	dev.SetViewport(Viewport{Width: int32(data.Target.Width), Height: int32(data.Target.Height)})
	dev.Clear(ClearColorBuffer|ClearDepthBuffer|ClearStencilBuffer, data.ClearColor)
	dev.SetDepthTest(true)
	dev.SetDepthWrite(true)
	dev.SetBlend(false, BlendOne, BlendZero)

	f.uploadFrameParams(f.opaque.Params, data)
	f.uploadFrameParams(f.instanced.Params, data)
	f.bindFrameTextures(data)

	frustum := math.NewFrustumFromMatrix(data.Camera.ViewProjection())

	var opaque, transparent, instanced []*scene.Surface
	for _, surface := range data.Scene.Surfaces() {
		if !surface.Active || surface.Geometry == nil {
			continue
		}
		// Instanced batches carry one transform per instance, so the
		// single-sphere cull below does not apply to them.
		if surface.InstanceCount() > 0 {
			instanced = append(instanced, surface)
			continue
		}
		center, radius := surface.WorldBounds()
		if !frustum.IntersectsSphere(center, radius) {
			f.culled++
			continue
		}
		if surface.Transparent() {
			transparent = append(transparent, surface)
		} else {
			opaque = append(opaque, surface)
		}
	}

	for _, surface := range opaque {
		f.drawSurface(surface, data.Material)
	}

	for _, surface := range instanced {
		applySurfaceMaterial(data.Material, surface)
		data.Material.Apply(dev, f.instanced)
		dev.DrawInstanced(surface.Geometry, f.instanced, surface.Instances)
		f.drawn++
	}

	if len(transparent) > 0 {
		sortSurfacesBackToFront(transparent, data.Camera.Position())
		dev.SetBlend(true, BlendSrcAlpha, BlendOneMinusSrcAlpha)
		dev.SetDepthWrite(false)
		for _, surface := range transparent {
			f.drawSurface(surface, data.Material)
		}
		dev.SetBlend(false, BlendOne, BlendZero)
		dev.SetDepthWrite(true)
	}
}

func (f *ForwardRenderPath) drawSurface(surface *scene.Surface, material *Material) {
	model := surface.Transform.GetWorld()
	f.opaque.Params.SetMat4("model", model)
	f.opaque.Params.SetMat3("normal_matrix", math.NormalMatrix(model))
	applySurfaceMaterial(material, surface)
	material.Apply(f.device, f.opaque)
	f.device.Draw(surface.Geometry, f.opaque)
	f.drawn++
}

// applySurfaceMaterial copies a surface's shading properties onto the
// frame's shared material before it is bound.
func applySurfaceMaterial(material *Material, surface *scene.Surface) {
	material.SetBaseColor(surface.BaseColor)
	material.SetMetallic(surface.Metallic)
	material.SetRoughness(surface.Roughness)
	material.SetEmissive(surface.Emissive)
	material.BaseColorMap = surface.BaseColorMap
}

func (f *ForwardRenderPath) uploadFrameParams(ps *ParamSet, data *RenderPassData) {
	ps.SetMat4("view", data.Camera.View())
	ps.SetMat4("projection", data.Camera.Projection())
	ps.SetVec3("view_position", data.Camera.Position())
	ps.SetVec4("ambient_colour", data.AmbientColor)
	ps.SetFloat("ambient_intensity", data.AmbientIntensity)

	if light := data.Scene.DirectionalLight(); light != nil {
		ps.SetInt("dir_light", 1)
		ps.SetVec3("dir_light_direction", light.Direction)
		ps.SetVec3("dir_light_colour", light.Color)
		ps.SetFloat("dir_light_intensity", light.Intensity)
	} else {
		ps.SetInt("dir_light", 0)
	}

	if data.Shadow.Valid && data.Shadow.DepthMap != nil {
		ps.SetInt("use_shadow", 1)
		ps.SetMat4("light_space", data.Shadow.LightSpace)
	} else {
		ps.SetInt("use_shadow", 0)
	}

	envIntensity := float32(0)
	if data.Environment.Enabled && data.Environment.Complete() {
		envIntensity = data.Environment.Intensity
	}
	ps.SetFloat("environment_intensity", envIntensity)
	ps.SetFloat("environment_max_detail", data.Environment.MaxDetail)

	numLights := len(data.PointLights)
	if numLights > MaxPointLights {
		numLights = MaxPointLights
	}
	ps.SetInt("num_p_lights", int32(numLights))
	for i := 0; i < numLights; i++ {
		ps.SetVec3(pLightPositions[i], data.PointLights[i].Position)
		ps.SetVec3(pLightColors[i], data.PointLights[i].Color)
		ps.SetFloat(pLightIntensities[i], data.PointLights[i].Intensity)
	}
}

func (f *ForwardRenderPath) bindFrameTextures(data *RenderPassData) {
	dev := f.device
	if data.Shadow.Valid && data.Shadow.DepthMap != nil {
		dev.BindTexture(SlotShadowMap, data.Shadow.DepthMap)
	} else {
		dev.BindTexture(SlotShadowMap, nil)
	}
	if data.Environment.Enabled && data.Environment.Complete() {
		dev.BindTexture(SlotIrradianceMap, data.Environment.Irradiance)
		dev.BindTexture(SlotReflectionMap, data.Environment.Reflection)
		dev.BindTexture(SlotBRDFLookup, data.Environment.BRDFLookup)
	} else {
		dev.BindTexture(SlotIrradianceMap, nil)
		dev.BindTexture(SlotReflectionMap, nil)
		dev.BindTexture(SlotBRDFLookup, nil)
	}
}

// sortSurfacesBackToFront orders transparent surfaces by descending
// distance from the eye so closer surfaces blend over farther ones.
func sortSurfacesBackToFront(surfaces []*scene.Surface, eye mgl32.Vec3) {
	sort.SliceStable(surfaces, func(i, j int) bool {
		ci, _ := surfaces[i].WorldBounds()
		cj, _ := surfaces[j].WorldBounds()
		di := ci.Sub(eye)
		dj := cj.Sub(eye)
		return di.Dot(di) > dj.Dot(dj)
	})
}
