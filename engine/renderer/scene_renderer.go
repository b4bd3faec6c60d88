package renderer

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/config"
	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/resources"
	"github.com/spaghettifunk/chiaro/engine/scene"
)

// RenderStats aggregates the device counters and the render path counters
// for the last completed frame.
type RenderStats struct {
	DrawCalls int
	Instances int
	Triangles int
	Drawn     int
	Culled    int
}

// SceneRenderer drives a full frame: the shadow pass, the active render
// path into an HDR scene target, the environment backdrop, selection
// outlines and finally the post-processing chain onto the backbuffer.
// The pass order is fixed; callers only decide what the scene contains
// and which features are switched on.
type SceneRenderer struct {
	device   Device
	programs *ProgramLibrary

	width  uint32
	height uint32

	hdr  *resources.Target
	quad *resources.Geometry

	shadow   *ShadowPass
	path     RenderPath
	pathType PathType
	post     *PostProcessPipeline

	material    *Material
	environment EnvironmentSet

	backdropProgram *Program
	maskProgram     *Program
	outlineProgram  *Program

	cfg config.RendererConfig

	stats    RenderStats
	valid    bool
	degraded bool
}

// NewSceneRenderer builds the frame graph for the given output size. A
// construction failure is logged and leaves the renderer invalid: Render
// becomes a no-op instead of half-drawing frames.
func NewSceneRenderer(device Device, width, height uint32, cfg config.RendererConfig) *SceneRenderer {
	r := &SceneRenderer{
		device:   device,
		programs: NewProgramLibrary(device),
		width:    width,
		height:   height,
		cfg:      cfg,
	}
	if width == 0 || height == 0 {
		core.LogError("scene renderer needs a non-zero output size, got %dx%d", width, height)
		return r
	}

	hdr, err := newSceneTarget(device, width, height)
	if err != nil {
		core.LogError("failed to create the scene target: %s", err.Error())
		return r
	}
	r.hdr = hdr

	quad, err := newFullscreenQuad(device)
	if err != nil {
		core.LogError("failed to create the fullscreen quad: %s", err.Error())
		return r
	}
	r.quad = quad

	r.shadow = NewShadowPass(device, r.programs, cfg.Shadow)

	path := NewForwardRenderPath(device, r.programs)
	if err := path.Initialize(width, height); err != nil {
		core.LogError("failed to initialize the forward render path: %s", err.Error())
		return r
	}
	r.path = path
	r.pathType = PathForward

	r.post = NewPostProcessPipeline(device, r.programs, quad, width, height, cfg)
	if !r.post.Valid() {
		return r
	}

	r.material = NewMaterial("material_shared")

	if cfg.Environment.Enabled {
		env, err := NewProceduralEnvironment(device, cfg.Environment.Intensity)
		if err != nil {
			core.LogWarn("environment textures unavailable, rendering without them: %s", err.Error())
		} else {
			r.environment = env
		}
	}

	// The backdrop and outline programs are optional features: a build
	// failure switches the feature off rather than the renderer.
	if r.backdropProgram, err = r.programs.Get(ProgramBackdrop); err != nil {
		core.LogWarn("backdrop disabled: %s", err.Error())
	}
	if r.maskProgram, err = r.programs.Get(ProgramOutlineMask); err != nil {
		core.LogWarn("outlines disabled: %s", err.Error())
	}
	if r.outlineProgram, err = r.programs.Get(ProgramOutline); err != nil {
		core.LogWarn("outlines disabled: %s", err.Error())
	}

	r.valid = true
	return r
}

// Valid reports whether construction succeeded.
func (r *SceneRenderer) Valid() bool { return r.valid }

// Degraded reports whether the renderer or its post pipeline kept stale
// targets after a failed resize.
func (r *SceneRenderer) Degraded() bool {
	if r.post != nil && r.post.Degraded() {
		return true
	}
	return r.degraded
}

// Stats returns the counters gathered during the last Render call.
func (r *SceneRenderer) Stats() RenderStats { return r.stats }

// Size returns the current output dimensions.
func (r *SceneRenderer) Size() (uint32, uint32) { return r.width, r.height }

// PathName names the active render path.
func (r *SceneRenderer) PathName() string {
	if r.path == nil {
		return "none"
	}
	return r.path.Name()
}

// Render draws one frame of the scene through the camera. Pass data is
// rebuilt from scratch every call; nothing of the previous frame's data
// survives into the next one.
func (r *SceneRenderer) Render(scn *scene.Scene, cam *scene.Camera) {
	if !r.valid || scn == nil || cam == nil {
		return
	}
	r.device.ResetFrameStats()

	var shadow ShadowResult
	if light := scn.DirectionalLight(); r.cfg.Shadow.Enabled && light != nil && r.shadow.Valid() {
		shadow = r.shadow.Process(scn, light)
	}

	data := r.buildPassData(scn, cam, shadow)
	r.path.Execute(data)
	r.drawBackdrop(data)
	r.drawOutlines(data)
	r.post.Process(r.hdr)

	fs := r.device.FrameStats()
	r.stats = RenderStats{DrawCalls: fs.DrawCalls, Instances: fs.Instances, Triangles: fs.Triangles}
	if counted, ok := r.path.(interface{ Stats() (int, int) }); ok {
		r.stats.Drawn, r.stats.Culled = counted.Stats()
	}
}

func (r *SceneRenderer) buildPassData(scn *scene.Scene, cam *scene.Camera, shadow ShadowResult) *RenderPassData {
	points := scn.PointLights()
	if len(points) > MaxPointLights {
		points = points[:MaxPointLights]
	}
	env := r.environment
	env.Enabled = env.Enabled && r.cfg.Environment.Enabled

	return &RenderPassData{
		Device:           r.device,
		Scene:            scn,
		Camera:           cam,
		Target:           r.hdr,
		Material:         r.material,
		Shadow:           shadow,
		Environment:      env,
		PointLights:      points,
		ClearColor:       mgl32.Vec4(r.cfg.ClearColor),
		AmbientColor:     mgl32.Vec4(r.cfg.AmbientColor),
		AmbientIntensity: r.cfg.AmbientIntensity,
	}
}

// drawBackdrop fills pixels the scene pass left at the clear depth with
// the environment's reflection map.
func (r *SceneRenderer) drawBackdrop(data *RenderPassData) {
	if r.backdropProgram == nil || !data.Environment.Enabled || !data.Environment.Complete() {
		return
	}
	inv := data.Camera.ViewProjection().Inv()
	if inv == (mgl32.Mat4{}) {
		return
	}
	dev := r.device
	dev.BindTarget(data.Target)
	dev.SetDepthTest(true)
	dev.SetDepthWrite(false)
	dev.SetBlend(false, BlendOne, BlendZero)
	r.backdropProgram.Params.SetMat4("inverse_view_projection", inv)
	r.backdropProgram.Params.SetFloat("environment_intensity", data.Environment.Intensity)
	dev.BindTexture(SlotReflectionMap, data.Environment.Reflection)
	dev.Draw(r.quad, r.backdropProgram)
	dev.SetDepthWrite(true)
}

// drawOutlines draws a rim around every selected surface: the surface
// marks its pixels in the stencil buffer, then a scaled flat-colored copy
// draws only where the mark is absent.
func (r *SceneRenderer) drawOutlines(data *RenderPassData) {
	if !r.cfg.Outline.Enabled || r.maskProgram == nil || r.outlineProgram == nil {
		return
	}
	var selected []*scene.Surface
	for _, surface := range data.Scene.Surfaces() {
		if surface.Active && surface.Selected && surface.Geometry != nil && surface.InstanceCount() == 0 {
			selected = append(selected, surface)
		}
	}
	if len(selected) == 0 {
		return
	}

	dev := r.device
	dev.BindTarget(data.Target)
	vp := data.Camera.ViewProjection()
	r.maskProgram.Params.SetMat4("view_projection", vp)
	r.outlineProgram.Params.SetMat4("view_projection", vp)
	r.outlineProgram.Params.SetFloat("outline_scale", r.cfg.Outline.Scale)
	r.outlineProgram.Params.SetVec4("outline_colour", mgl32.Vec4(r.cfg.Outline.Color))

	// Depth stays off for the whole effect so the outline reads through
	// occluders, the way selection highlights usually behave.
	dev.SetDepthTest(false)
	dev.SetDepthWrite(false)
	for _, surface := range selected {
		dev.Clear(ClearStencilBuffer, mgl32.Vec4{})
		dev.SetStencil(true, CompareAlways, 1, 0xFF, StencilKeep, StencilKeep, StencilReplace)
		r.maskProgram.Params.SetMat4("model", surface.Transform.GetWorld())
		dev.Draw(surface.Geometry, r.maskProgram)

		dev.SetStencil(true, CompareNotEqual, 1, 0xFF, StencilKeep, StencilKeep, StencilKeep)
		r.outlineProgram.Params.SetMat4("model", surface.Transform.GetWorld())
		r.outlineProgram.Params.SetVec3("outline_origin", surface.Geometry.Center)
		dev.Draw(surface.Geometry, r.outlineProgram)
	}
	dev.SetStencil(false, CompareAlways, 0, 0xFF, StencilKeep, StencilKeep, StencilKeep)
	dev.SetDepthTest(true)
	dev.SetDepthWrite(true)
}

// OnResize rebuilds the size-dependent targets. The new scene target is
// created before the old one goes away; on failure the renderer keeps
// rendering at the old size and reports itself degraded.
func (r *SceneRenderer) OnResize(width, height int32) {
	if width <= 0 || height <= 0 {
		core.LogWarn("ignoring resize to %dx%d", width, height)
		return
	}
	if !r.valid {
		return
	}
	w, h := uint32(width), uint32(height)
	if w == r.width && h == r.height {
		return
	}

	next, err := newSceneTarget(r.device, w, h)
	if err != nil {
		core.LogError("scene target resize to %dx%d failed, keeping %dx%d: %s",
			w, h, r.width, r.height, err.Error())
		r.degraded = true
		return
	}
	r.device.DestroyTarget(r.hdr)
	r.hdr = next
	r.width = w
	r.height = h
	r.degraded = false

	r.path.OnResize(w, h)
	r.post.OnResize(w, h)
}

// SetRenderPath swaps the active render path strategy as a whole: the old
// path shuts down before the replacement initializes, so a path never sees
// another path's leftovers. Unimplemented path types fall back to forward.
func (r *SceneRenderer) SetRenderPath(pathType PathType) {
	if !r.valid {
		return
	}
	resolved := pathType
	switch pathType {
	case PathForward:
	case PathTiledForward, PathDeferred:
		core.LogWarn("%s render path is not available yet, using forward", pathType.String())
		resolved = PathForward
	default:
		core.LogWarn("unknown render path %d, using forward", int(pathType))
		resolved = PathForward
	}
	if resolved == r.pathType {
		return
	}

	if r.path != nil {
		r.path.Shutdown()
	}
	next := NewForwardRenderPath(r.device, r.programs)
	if err := next.Initialize(r.width, r.height); err != nil {
		// Execute no-ops without its programs, so the renderer keeps
		// running with the scene pass missing instead of crashing.
		core.LogError("the %s render path failed to initialize: %s", resolved.String(), err.Error())
	}
	r.path = next
	r.pathType = resolved
}

// ApplyConfig replaces every runtime-tunable setting at once, typically
// after a config file reload. The output size and the shadow map
// resolution are fixed at construction and stay untouched.
func (r *SceneRenderer) ApplyConfig(cfg config.RendererConfig) {
	if !r.valid {
		return
	}
	r.cfg = cfg
	r.post.Apply(cfg)
	if r.shadow.Valid() {
		r.shadow.SetOrthoSize(cfg.Shadow.OrthoSize)
		r.shadow.SetBias(cfg.Shadow.BiasFactor, cfg.Shadow.BiasUnits)
	}
	r.environment.Intensity = cfg.Environment.Intensity
	if cfg.Environment.Enabled {
		r.ensureEnvironment()
	}
}

// Feature toggles and tone controls, the knobs a host application binds
// to keys or exposes in a debug panel.

func (r *SceneRenderer) SetToneMode(mode ToneMode) { r.post.SetToneMode(mode) }
func (r *SceneRenderer) ToneMode() ToneMode        { return r.post.ToneMode() }

func (r *SceneRenderer) SetExposure(exposure float32) { r.post.SetExposure(exposure) }
func (r *SceneRenderer) Exposure() float32            { return r.post.Exposure() }

func (r *SceneRenderer) SetGamma(gamma float32) { r.post.SetGamma(gamma) }
func (r *SceneRenderer) Gamma() float32         { return r.post.Gamma() }

func (r *SceneRenderer) SetWhitePoint(white float32) { r.post.SetWhitePoint(white) }
func (r *SceneRenderer) WhitePoint() float32         { return r.post.WhitePoint() }

func (r *SceneRenderer) SetBloomEnabled(enabled bool) { r.post.SetBloomEnabled(enabled) }
func (r *SceneRenderer) BloomEnabled() bool           { return r.post.BloomEnabled() }

func (r *SceneRenderer) SetBloomThreshold(threshold float32) { r.post.SetBloomThreshold(threshold) }
func (r *SceneRenderer) BloomThreshold() float32             { return r.post.BloomThreshold() }

func (r *SceneRenderer) SetBloomKnee(knee float32) { r.post.SetBloomKnee(knee) }
func (r *SceneRenderer) BloomKnee() float32        { return r.post.BloomKnee() }

func (r *SceneRenderer) SetBloomIntensity(intensity float32) { r.post.SetBloomIntensity(intensity) }
func (r *SceneRenderer) BloomIntensity() float32             { return r.post.BloomIntensity() }

func (r *SceneRenderer) SetBloomPasses(passes int) { r.post.SetBloomPasses(passes) }
func (r *SceneRenderer) BloomPasses() int          { return r.post.BloomPasses() }

func (r *SceneRenderer) SetGradingEnabled(enabled bool) { r.post.SetGradingEnabled(enabled) }
func (r *SceneRenderer) GradingEnabled() bool           { return r.post.GradingEnabled() }

// SetGradingLUT hands a grading volume to the post pipeline. The caller
// keeps ownership of the texture.
func (r *SceneRenderer) SetGradingLUT(lut *resources.Texture) { r.post.SetGradingLUT(lut) }

func (r *SceneRenderer) SetGradingContribution(contribution float32) {
	r.post.SetGradingContribution(contribution)
}
func (r *SceneRenderer) GradingContribution() float32 { return r.post.GradingContribution() }

func (r *SceneRenderer) SetGradingSaturation(saturation float32) {
	r.post.SetGradingSaturation(saturation)
}
func (r *SceneRenderer) GradingSaturation() float32 { return r.post.GradingSaturation() }

func (r *SceneRenderer) SetGradingContrast(contrast float32) { r.post.SetGradingContrast(contrast) }
func (r *SceneRenderer) GradingContrast() float32            { return r.post.GradingContrast() }

func (r *SceneRenderer) SetGradingBrightness(brightness float32) {
	r.post.SetGradingBrightness(brightness)
}
func (r *SceneRenderer) GradingBrightness() float32 { return r.post.GradingBrightness() }

func (r *SceneRenderer) SetShadowEnabled(enabled bool) { r.cfg.Shadow.Enabled = enabled }
func (r *SceneRenderer) ShadowEnabled() bool           { return r.cfg.Shadow.Enabled }

func (r *SceneRenderer) SetOutlineEnabled(enabled bool) { r.cfg.Outline.Enabled = enabled }
func (r *SceneRenderer) OutlineEnabled() bool           { return r.cfg.Outline.Enabled }

func (r *SceneRenderer) SetOutlineColor(color mgl32.Vec4) {
	r.cfg.Outline.Color = [4]float32(color)
}
func (r *SceneRenderer) OutlineColor() mgl32.Vec4 { return mgl32.Vec4(r.cfg.Outline.Color) }

func (r *SceneRenderer) SetOutlineScale(scale float32) {
	r.cfg.Outline.Scale = math.Clamp(scale, 1, 2)
}
func (r *SceneRenderer) OutlineScale() float32 { return r.cfg.Outline.Scale }

func (r *SceneRenderer) SetEnvironmentEnabled(enabled bool) {
	r.cfg.Environment.Enabled = enabled
	if enabled {
		r.ensureEnvironment()
	}
}

func (r *SceneRenderer) EnvironmentEnabled() bool {
	return r.cfg.Environment.Enabled && r.environment.Complete()
}

func (r *SceneRenderer) SetEnvironmentIntensity(intensity float32) {
	r.cfg.Environment.Intensity = math.Clamp(intensity, 0, 10)
	r.environment.Intensity = r.cfg.Environment.Intensity
}

func (r *SceneRenderer) EnvironmentIntensity() float32 { return r.cfg.Environment.Intensity }

// ensureEnvironment builds the procedural environment on first use when
// the renderer was constructed with it disabled.
func (r *SceneRenderer) ensureEnvironment() {
	if r.environment.Irradiance != nil {
		return
	}
	env, err := NewProceduralEnvironment(r.device, r.cfg.Environment.Intensity)
	if err != nil {
		core.LogWarn("environment textures unavailable, rendering without them: %s", err.Error())
		return
	}
	r.environment = env
}

// Shutdown releases everything the renderer owns. The device itself stays
// alive for its owner to destroy.
func (r *SceneRenderer) Shutdown() {
	if r.shadow != nil {
		r.shadow.Destroy()
	}
	if r.path != nil {
		r.path.Shutdown()
		r.path = nil
	}
	if r.post != nil {
		r.post.Destroy()
	}
	DestroyEnvironment(r.device, &r.environment)
	if r.quad != nil {
		r.device.DestroyGeometry(r.quad)
		r.quad = nil
	}
	if r.hdr != nil {
		r.device.DestroyTarget(r.hdr)
		r.hdr = nil
	}
	if r.programs != nil {
		r.programs.Shutdown()
	}
	r.valid = false
}

func newSceneTarget(device Device, width, height uint32) (*resources.Target, error) {
	target := &resources.Target{
		Name:       "scene_hdr",
		Width:      width,
		Height:     height,
		Format:     resources.TextureFormatRGBA32F,
		HasDepth:   true,
		HasStencil: true,
	}
	if err := device.CreateTarget(target); err != nil {
		return nil, err
	}
	return target, nil
}

// newFullscreenQuad builds the clip-space quad shared by the post passes
// and the backdrop draw. Texcoord row zero is the top of the image.
func newFullscreenQuad(device Device) (*resources.Geometry, error) {
	white := mgl32.Vec4{1, 1, 1, 1}
	geo := &resources.Geometry{
		Name:   "fullscreen_quad",
		Radius: float32(gomath.Sqrt2),
		Vertices: []resources.Vertex{
			{Position: mgl32.Vec3{-1, -1, 0}, Texcoord: mgl32.Vec2{0, 1}, Color: white},
			{Position: mgl32.Vec3{1, -1, 0}, Texcoord: mgl32.Vec2{1, 1}, Color: white},
			{Position: mgl32.Vec3{1, 1, 0}, Texcoord: mgl32.Vec2{1, 0}, Color: white},
			{Position: mgl32.Vec3{-1, 1, 0}, Texcoord: mgl32.Vec2{0, 0}, Color: white},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	if err := device.CreateGeometry(geo); err != nil {
		return nil, err
	}
	return geo, nil
}
