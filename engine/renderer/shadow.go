package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/config"
	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/resources"
	"github.com/spaghettifunk/chiaro/engine/scene"
)

const (
	defaultShadowMapSize   = 1024
	defaultShadowOrthoSize = 30
)

// ShadowPass renders the scene's shadow casters into a depth-only map from
// the directional light's point of view. The resulting depth texture and
// light-space matrix feed the lighting pass through RenderPassData.
type ShadowPass struct {
	device  Device
	target  *resources.Target
	program *Program

	orthoSize  float32
	biasFactor float32
	biasUnits  float32

	valid           bool
	warnedDirection bool
}

// NewShadowPass allocates the shadow map and fetches the depth program. A
// failed allocation leaves the pass in a disabled state where Process
// reports no shadow instead of erroring every frame.
func NewShadowPass(device Device, programs *ProgramLibrary, cfg config.ShadowConfig) *ShadowPass {
	p := &ShadowPass{
		device:     device,
		orthoSize:  cfg.OrthoSize,
		biasFactor: cfg.BiasFactor,
		biasUnits:  cfg.BiasUnits,
	}
	if p.orthoSize <= 0 {
		p.orthoSize = defaultShadowOrthoSize
	}

	mapSize := cfg.MapSize
	if mapSize == 0 {
		core.LogWarn("shadow map size not set, falling back to %d", defaultShadowMapSize)
		mapSize = defaultShadowMapSize
	}

	target := &resources.Target{
		Name:     "shadow_map",
		Width:    mapSize,
		Height:   mapSize,
		Format:   resources.TextureFormatDepth32F,
		HasDepth: true,
	}
	if err := device.CreateTarget(target); err != nil {
		core.LogError("failed to create shadow map target: %s", err.Error())
		return p
	}
	p.target = target

	program, err := programs.Get(ProgramDepth)
	if err != nil {
		core.LogError("failed to build shadow depth program: %s", err.Error())
		device.DestroyTarget(target)
		p.target = nil
		return p
	}
	p.program = program
	p.valid = true
	return p
}

// Valid reports whether the pass owns a usable shadow map.
func (p *ShadowPass) Valid() bool {
	return p.valid
}

// SetOrthoSize resizes the working volume around the scene origin.
func (p *ShadowPass) SetOrthoSize(size float32) {
	if size <= 0 {
		core.LogWarn("ignoring non-positive shadow ortho size %f", size)
		return
	}
	p.orthoSize = size
}

// SetBias adjusts the polygon offset applied while rendering the map.
func (p *ShadowPass) SetBias(factor, units float32) {
	p.biasFactor = factor
	p.biasUnits = units
}

// Process renders every active opaque surface into the shadow map and
// returns the map with its light-space matrix. A nil light, a degenerate
// light direction or an invalid pass all yield a zero ShadowResult, which
// downstream passes read as "no shadowing this frame".
func (p *ShadowPass) Process(scn *scene.Scene, light *scene.DirectionalLight) ShadowResult {
	if !p.valid || scn == nil || light == nil {
		return ShadowResult{}
	}

	dir := light.Direction
	if dir.Dot(dir) < 1e-3 {
		if !p.warnedDirection {
			core.LogWarn("directional light has a degenerate direction, skipping shadows")
			p.warnedDirection = true
		}
		return ShadowResult{}
	}
	dir = dir.Normalize()

	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(dir.Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}

	o := p.orthoSize
	view := mgl32.LookAtV(dir.Mul(-o), mgl32.Vec3{}, up)
	proj := mgl32.Ortho(-o, o, -o, o, -o, 3*o)
	lightSpace := proj.Mul4(view)

	p.device.BindTarget(p.target)
	p.device.PushViewport(Viewport{Width: int32(p.target.Width), Height: int32(p.target.Height)})
	defer p.device.PopViewport()

	p.device.Clear(ClearDepthBuffer, mgl32.Vec4{})
	p.device.SetDepthTest(true)
	p.device.SetDepthWrite(true)
	p.device.SetPolygonOffset(true, p.biasFactor, p.biasUnits)
	defer p.device.SetPolygonOffset(false, 0, 0)

	p.program.Params.SetMat4("light_space", lightSpace)
	for _, surface := range scn.Surfaces() {
		// Instanced and transparent surfaces do not cast shadows.
		if !surface.Active || surface.Geometry == nil || surface.InstanceCount() > 0 || surface.Transparent() {
			continue
		}
		p.program.Params.SetMat4("model", surface.Transform.GetWorld())
		p.device.Draw(surface.Geometry, p.program)
	}

	return ShadowResult{
		DepthMap:   p.target.Depth,
		LightSpace: lightSpace,
		Valid:      true,
	}
}

// Destroy releases the shadow map.
func (p *ShadowPass) Destroy() {
	if p.target != nil {
		p.device.DestroyTarget(p.target)
		p.target = nil
	}
	p.valid = false
}
