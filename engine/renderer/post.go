package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/config"
	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// defaultLUTSize is the edge length of the identity grading volume built
// when no lookup table has been supplied.
const defaultLUTSize = 16

// postTargets bundles the intermediate render targets so a resize can
// build a complete replacement set before the old one is released.
type postTargets struct {
	bright *resources.Target
	blur   [2]*resources.Target
	tone   *resources.Target
}

// PostProcessPipeline turns the HDR scene target into the final image on
// the backbuffer. The stage order is fixed: bloom reads the unclamped
// scene colors, tone reproduction compresses them to [0,1], grading and
// the gamma encode run last.
type PostProcessPipeline struct {
	device Device
	quad   *resources.Geometry

	brightProgram *Program
	blurProgram   *Program
	toneProgram   *Program
	gradeProgram  *Program

	targets     postTargets
	identityLUT *resources.Texture
	lut         *resources.Texture

	bloomCfg   config.BloomConfig
	toneCfg    config.ToneConfig
	gradingCfg config.GradingConfig

	width  uint32
	height uint32

	valid    bool
	degraded bool
}

// NewPostProcessPipeline builds the intermediate targets and fetches the
// post programs. The fullscreen quad is shared with the owning renderer
// and stays owned by it. Construction failure leaves the pipeline invalid
// and every entry point a no-op.
func NewPostProcessPipeline(device Device, programs *ProgramLibrary, quad *resources.Geometry,
	width, height uint32, cfg config.RendererConfig) *PostProcessPipeline {

	p := &PostProcessPipeline{
		device:     device,
		quad:       quad,
		bloomCfg:   cfg.Bloom,
		toneCfg:    cfg.Tone,
		gradingCfg: cfg.Grading,
		width:      width,
		height:     height,
	}
	if quad == nil || width == 0 || height == 0 {
		core.LogError("post pipeline needs a quad and a non-zero size")
		return p
	}

	var err error
	if p.brightProgram, err = programs.Get(ProgramBloomBright); err != nil {
		core.LogError("failed to build bloom bright program: %s", err.Error())
		return p
	}
	if p.blurProgram, err = programs.Get(ProgramBloomBlur); err != nil {
		core.LogError("failed to build bloom blur program: %s", err.Error())
		return p
	}
	if p.toneProgram, err = programs.Get(ProgramTone); err != nil {
		core.LogError("failed to build tone program: %s", err.Error())
		return p
	}
	if p.gradeProgram, err = programs.Get(ProgramGrade); err != nil {
		core.LogError("failed to build grade program: %s", err.Error())
		return p
	}

	targets, err := buildPostTargets(device, width, height)
	if err != nil {
		core.LogError("failed to create post-processing targets: %s", err.Error())
		return p
	}
	p.targets = targets

	if p.identityLUT, err = NewIdentityLUT(device, defaultLUTSize); err != nil {
		// Grading still works without a table, it just loses the lookup
		// part and keeps the parametric controls.
		core.LogWarn("failed to create identity grading lut: %s", err.Error())
	}
	p.lut = p.identityLUT

	p.valid = true
	return p
}

// Valid reports whether construction succeeded.
func (p *PostProcessPipeline) Valid() bool { return p.valid }

// Degraded reports whether the pipeline is running on stale targets after
// a failed resize.
func (p *PostProcessPipeline) Degraded() bool { return p.degraded }

// Apply replaces the bloom, tone and grading settings wholesale.
func (p *PostProcessPipeline) Apply(cfg config.RendererConfig) {
	p.bloomCfg = cfg.Bloom
	p.toneCfg = cfg.Tone
	p.gradingCfg = cfg.Grading
}

func (p *PostProcessPipeline) ApplyBloom(cfg config.BloomConfig)     { p.bloomCfg = cfg }
func (p *PostProcessPipeline) ApplyTone(cfg config.ToneConfig)       { p.toneCfg = cfg }
func (p *PostProcessPipeline) ApplyGrading(cfg config.GradingConfig) { p.gradingCfg = cfg }

// SetToneMode switches the tone operator; unknown modes are ignored.
func (p *PostProcessPipeline) SetToneMode(mode ToneMode) {
	if !mode.Valid() {
		core.LogWarn("ignoring unknown tone mode %d", int32(mode))
		return
	}
	p.toneCfg.Mode = int(mode)
}

func (p *PostProcessPipeline) ToneMode() ToneMode { return ToneMode(p.toneCfg.Mode) }

func (p *PostProcessPipeline) SetExposure(exposure float32) {
	p.toneCfg.Exposure = exposure
}

func (p *PostProcessPipeline) Exposure() float32 { return p.toneCfg.Exposure }

func (p *PostProcessPipeline) SetGamma(gamma float32) {
	if gamma <= 0 {
		core.LogWarn("ignoring non-positive gamma %f", gamma)
		return
	}
	p.toneCfg.Gamma = gamma
}

func (p *PostProcessPipeline) Gamma() float32 { return p.toneCfg.Gamma }

func (p *PostProcessPipeline) SetWhitePoint(white float32) {
	if white <= 0 {
		core.LogWarn("ignoring non-positive white point %f", white)
		return
	}
	p.toneCfg.WhitePoint = white
}

func (p *PostProcessPipeline) WhitePoint() float32 { return p.toneCfg.WhitePoint }

// The numeric tunables clamp to the ranges config validation enforces.

func (p *PostProcessPipeline) SetBloomEnabled(enabled bool) { p.bloomCfg.Enabled = enabled }
func (p *PostProcessPipeline) BloomEnabled() bool           { return p.bloomCfg.Enabled }

func (p *PostProcessPipeline) SetBloomThreshold(threshold float32) {
	p.bloomCfg.Threshold = math.Clamp(threshold, 0, 100)
}

func (p *PostProcessPipeline) BloomThreshold() float32 { return p.bloomCfg.Threshold }

func (p *PostProcessPipeline) SetBloomKnee(knee float32) {
	p.bloomCfg.Knee = math.Clamp(knee, 0, 1)
}

func (p *PostProcessPipeline) BloomKnee() float32 { return p.bloomCfg.Knee }

func (p *PostProcessPipeline) SetBloomIntensity(intensity float32) {
	p.bloomCfg.Intensity = math.Clamp(intensity, 0, 10)
}

func (p *PostProcessPipeline) BloomIntensity() float32 { return p.bloomCfg.Intensity }

func (p *PostProcessPipeline) SetBloomPasses(passes int) {
	p.bloomCfg.BlurPass = math.Clamp(passes, 1, 8)
}

func (p *PostProcessPipeline) BloomPasses() int { return p.bloomCfg.BlurPass }

func (p *PostProcessPipeline) SetGradingEnabled(enabled bool) { p.gradingCfg.Enabled = enabled }
func (p *PostProcessPipeline) GradingEnabled() bool           { return p.gradingCfg.Enabled }

func (p *PostProcessPipeline) SetGradingContribution(contribution float32) {
	p.gradingCfg.Contribution = math.Clamp(contribution, 0, 1)
}

func (p *PostProcessPipeline) GradingContribution() float32 { return p.gradingCfg.Contribution }

func (p *PostProcessPipeline) SetGradingSaturation(saturation float32) {
	p.gradingCfg.Saturation = math.Clamp(saturation, 0, 2)
}

func (p *PostProcessPipeline) GradingSaturation() float32 { return p.gradingCfg.Saturation }

func (p *PostProcessPipeline) SetGradingContrast(contrast float32) {
	p.gradingCfg.Contrast = math.Clamp(contrast, 0, 2)
}

func (p *PostProcessPipeline) GradingContrast() float32 { return p.gradingCfg.Contrast }

func (p *PostProcessPipeline) SetGradingBrightness(brightness float32) {
	p.gradingCfg.Brightness = math.Clamp(brightness, -1, 1)
}

func (p *PostProcessPipeline) GradingBrightness() float32 { return p.gradingCfg.Brightness }

// SetGradingLUT replaces the grading volume. The texture stays owned by
// the caller; passing nil restores the built-in identity table.
func (p *PostProcessPipeline) SetGradingLUT(lut *resources.Texture) {
	if lut == nil {
		p.lut = p.identityLUT
		return
	}
	if lut.Kind != resources.TextureKind3D {
		core.LogWarn("grading lut %q is not a volume texture, keeping the current table", lut.Name)
		return
	}
	p.lut = lut
}

// Process runs the post chain on the given HDR scene target and leaves
// the final image on the backbuffer.
func (p *PostProcessPipeline) Process(source *resources.Target) {
	if !p.valid || source == nil || source.Color == nil {
		return
	}
	dev := p.device
	dev.SetDepthTest(false)
	dev.SetDepthWrite(false)
	dev.SetBlend(false, BlendOne, BlendZero)
	dev.SetStencil(false, CompareAlways, 0, 0xFF, StencilKeep, StencilKeep, StencilKeep)

	var bloomTex *resources.Texture
	if p.bloomCfg.Enabled {
		bloomTex = p.runBloom(source)
	}

	// Tone reproduction, full resolution. Bloom composites onto the HDR
	// color before the operator so the glow is tone mapped with the rest
	// of the frame.
	dev.BindTarget(p.targets.tone)
	dev.SetViewport(Viewport{Width: int32(p.targets.tone.Width), Height: int32(p.targets.tone.Height)})
	tp := p.toneProgram.Params
	tp.SetInt("tone_mode", int32(p.toneCfg.Mode))
	tp.SetFloat("exposure", p.toneCfg.Exposure)
	tp.SetFloat("white_point", p.toneCfg.WhitePoint)
	if bloomTex != nil {
		tp.SetInt("use_bloom", 1)
		tp.SetFloat("bloom_intensity", p.bloomCfg.Intensity)
		dev.BindTexture(SlotPostBloom, bloomTex)
	} else {
		tp.SetInt("use_bloom", 0)
		dev.BindTexture(SlotPostBloom, nil)
	}
	dev.BindTexture(SlotPostSource, source.Color)
	dev.Draw(p.quad, p.toneProgram)

	// Grading plus the gamma encode, straight to the backbuffer.
	dev.BindTarget(nil)
	dev.SetViewport(Viewport{Width: int32(p.width), Height: int32(p.height)})
	gp := p.gradeProgram.Params
	if p.gradingCfg.Enabled {
		gp.SetInt("grading", 1)
		gp.SetFloat("grading_contribution", p.gradingCfg.Contribution)
		gp.SetFloat("saturation", p.gradingCfg.Saturation)
		gp.SetFloat("contrast", p.gradingCfg.Contrast)
		gp.SetFloat("brightness", p.gradingCfg.Brightness)
		if p.lut != nil && p.lut.Width > 0 {
			n := float32(p.lut.Width)
			gp.SetFloat("lut_scale", (n-1)/n)
			gp.SetFloat("lut_offset", 0.5/n)
		}
		dev.BindTexture(SlotGradingLUT, p.lut)
	} else {
		gp.SetInt("grading", 0)
		dev.BindTexture(SlotGradingLUT, nil)
	}
	gp.SetFloat("gamma", p.toneCfg.Gamma)
	dev.BindTexture(SlotPostSource, p.targets.tone.Color)
	dev.Draw(p.quad, p.gradeProgram)
}

// runBloom extracts and blurs the bright regions at half resolution and
// returns the blurred texture, nil when bloom produced nothing usable.
func (p *PostProcessPipeline) runBloom(source *resources.Target) *resources.Texture {
	dev := p.device
	bright := p.targets.bright
	dev.PushViewport(Viewport{Width: int32(bright.Width), Height: int32(bright.Height)})
	defer dev.PopViewport()

	bp := p.brightProgram.Params
	bp.SetFloat("bloom_threshold", p.bloomCfg.Threshold)
	bp.SetFloat("bloom_knee", p.bloomCfg.Knee)
	dev.BindTarget(bright)
	dev.BindTexture(SlotPostSource, source.Color)
	dev.Draw(p.quad, p.brightProgram)

	passes := p.bloomCfg.BlurPass
	if passes < 1 {
		passes = 1
	}
	lp := p.blurProgram.Params
	lp.SetVec2("texel_size", mgl32.Vec2{1 / float32(bright.Width), 1 / float32(bright.Height)})

	src := bright
	horizontal := true
	for i := 0; i < passes*2; i++ {
		dst := p.targets.blur[i%2]
		dev.BindTarget(dst)
		if horizontal {
			lp.SetInt("blur_horizontal", 1)
		} else {
			lp.SetInt("blur_horizontal", 0)
		}
		dev.BindTexture(SlotPostSource, src.Color)
		dev.Draw(p.quad, p.blurProgram)
		src = dst
		horizontal = !horizontal
	}
	return src.Color
}

// OnResize rebuilds the intermediate targets for the new output size. The
// replacement set is created before the old one is destroyed; when
// creation fails the pipeline keeps rendering at the old size and reports
// itself degraded.
func (p *PostProcessPipeline) OnResize(width, height uint32) {
	if !p.valid || width == 0 || height == 0 {
		return
	}
	if width == p.width && height == p.height {
		return
	}
	targets, err := buildPostTargets(p.device, width, height)
	if err != nil {
		core.LogError("post target resize to %dx%d failed, keeping %dx%d: %s",
			width, height, p.width, p.height, err.Error())
		p.degraded = true
		return
	}
	p.destroyTargets()
	p.targets = targets
	p.width = width
	p.height = height
	p.degraded = false
}

// Destroy releases the intermediate targets and the identity table. The
// quad and any caller-supplied grading volume stay alive.
func (p *PostProcessPipeline) Destroy() {
	p.destroyTargets()
	if p.identityLUT != nil {
		p.device.DestroyTexture(p.identityLUT)
		p.identityLUT = nil
	}
	p.lut = nil
	p.valid = false
}

func (p *PostProcessPipeline) destroyTargets() {
	for _, t := range []*resources.Target{p.targets.bright, p.targets.blur[0], p.targets.blur[1], p.targets.tone} {
		if t != nil {
			p.device.DestroyTarget(t)
		}
	}
	p.targets = postTargets{}
}

// buildPostTargets creates the half resolution bloom chain and the full
// resolution tone target. All or nothing: a partial set is destroyed and
// the error returned.
func buildPostTargets(device Device, width, height uint32) (postTargets, error) {
	halfW := max(width/2, 1)
	halfH := max(height/2, 1)

	var t postTargets
	create := func(name string, w, h uint32) (*resources.Target, error) {
		target := &resources.Target{
			Name:   name,
			Width:  w,
			Height: h,
			Format: resources.TextureFormatRGBA32F,
		}
		if err := device.CreateTarget(target); err != nil {
			return nil, err
		}
		return target, nil
	}

	var err error
	if t.bright, err = create("post_bloom_bright", halfW, halfH); err == nil {
		if t.blur[0], err = create("post_bloom_blur_0", halfW, halfH); err == nil {
			if t.blur[1], err = create("post_bloom_blur_1", halfW, halfH); err == nil {
				t.tone, err = create("post_tone", width, height)
			}
		}
	}
	if err != nil {
		for _, target := range []*resources.Target{t.bright, t.blur[0], t.blur[1], t.tone} {
			if target != nil {
				device.DestroyTarget(target)
			}
		}
		return postTargets{}, err
	}
	return t, nil
}

// NewIdentityLUT builds a grading volume that maps every color to itself.
// Useful as the neutral starting point for grading and in tests that need
// a known-good table.
func NewIdentityLUT(device Device, size uint32) (*resources.Texture, error) {
	if size < 2 {
		size = 2
	}
	den := float32(size - 1)
	pixels := make([]float32, 0, size*size*size*4)
	for b := uint32(0); b < size; b++ {
		for g := uint32(0); g < size; g++ {
			for r := uint32(0); r < size; r++ {
				pixels = append(pixels, float32(r)/den, float32(g)/den, float32(b)/den, 1)
			}
		}
	}
	tex := &resources.Texture{
		Name:   "grading_identity_lut",
		Kind:   resources.TextureKind3D,
		Format: resources.TextureFormatRGBA32F,
		Filter: resources.TextureFilterLinear,
		Repeat: resources.TextureRepeatClamp,
		Width:  size,
		Height: size,
		Depth:  size,
	}
	if err := device.CreateTexture(tex, pixels); err != nil {
		return nil, err
	}
	return tex, nil
}
