package renderer_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/config"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/renderer/soft"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// failingDevice wraps the software device with switchable target-creation
// failures, to exercise the degraded paths.
type failingDevice struct {
	*soft.Device
	failTargets bool
}

func (d *failingDevice) CreateTarget(target *resources.Target) error {
	if d.failTargets {
		return errors.New("injected target failure")
	}
	return d.Device.CreateTarget(target)
}

func fullscreenQuad(t *testing.T, d renderer.Device) *resources.Geometry {
	t.Helper()
	white := mgl32.Vec4{1, 1, 1, 1}
	geo := &resources.Geometry{
		Name: "post_quad",
		Vertices: []resources.Vertex{
			{Position: mgl32.Vec3{-1, -1, 0}, Texcoord: mgl32.Vec2{0, 1}, Color: white},
			{Position: mgl32.Vec3{1, -1, 0}, Texcoord: mgl32.Vec2{1, 1}, Color: white},
			{Position: mgl32.Vec3{1, 1, 0}, Texcoord: mgl32.Vec2{1, 0}, Color: white},
			{Position: mgl32.Vec3{-1, 1, 0}, Texcoord: mgl32.Vec2{0, 0}, Color: white},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	if err := d.CreateGeometry(geo); err != nil {
		t.Fatalf("CreateGeometry: %v", err)
	}
	return geo
}

func hdrTarget(t *testing.T, d renderer.Device, name string, w, h uint32) *resources.Target {
	t.Helper()
	rt := &resources.Target{
		Name:       name,
		Width:      w,
		Height:     h,
		Format:     resources.TextureFormatRGBA32F,
		HasDepth:   true,
		HasStencil: true,
	}
	if err := d.CreateTarget(rt); err != nil {
		t.Fatalf("CreateTarget(%s): %v", name, err)
	}
	return rt
}

// postConfig is the neutral baseline: no bloom, no grading, clamp tone
// with gamma one, so bytes on the backbuffer mirror the scene values.
func postConfig() config.RendererConfig {
	cfg := config.Default().Renderer
	cfg.Bloom.Enabled = false
	cfg.Grading.Enabled = false
	cfg.Tone.Mode = int(renderer.ToneClamp)
	cfg.Tone.Exposure = 1
	cfg.Tone.Gamma = 1
	return cfg
}

func pixelAt(img []uint8, width, x, y int) []uint8 {
	i := (y*width + x) * 4
	return img[i : i+4]
}

func wantByte(t *testing.T, got, want uint8, slack int, what string) {
	t.Helper()
	diff := int(got) - int(want)
	if diff < -slack || diff > slack {
		t.Errorf("%s = %d, want %d within %d", what, got, want, slack)
	}
}

func TestPostIdentityGradingPassthrough(t *testing.T) {
	d := soft.New(4, 4)
	programs := renderer.NewProgramLibrary(d)
	cfg := postConfig()
	cfg.Grading.Enabled = true // the default table is the identity volume

	p := renderer.NewPostProcessPipeline(d, programs, fullscreenQuad(t, d), 4, 4, cfg)
	if !p.Valid() {
		t.Fatalf("pipeline should be valid")
	}
	defer p.Destroy()

	src := hdrTarget(t, d, "hdr", 4, 4)
	d.BindTarget(src)
	d.Clear(renderer.ClearColorBuffer, mgl32.Vec4{0.25, 0.5, 0.75, 1})
	d.BindTarget(nil)

	p.Process(src)

	px := pixelAt(d.Backbuffer().Pix, 4, 2, 2)
	wantByte(t, px[0], 64, 1, "red")
	wantByte(t, px[1], 128, 1, "green")
	wantByte(t, px[2], 191, 1, "blue")
	wantByte(t, px[3], 255, 0, "alpha")
}

func TestPostGradingLUTSwap(t *testing.T) {
	d := soft.New(4, 4)
	programs := renderer.NewProgramLibrary(d)
	cfg := postConfig()
	cfg.Grading.Enabled = true

	p := renderer.NewPostProcessPipeline(d, programs, fullscreenQuad(t, d), 4, 4, cfg)
	if !p.Valid() {
		t.Fatalf("pipeline should be valid")
	}
	defer p.Destroy()

	// A 2x2x2 inverting table: every channel maps to its complement.
	pixels := make([]float32, 0, 2*2*2*4)
	for b := 0; b < 2; b++ {
		for g := 0; g < 2; g++ {
			for r := 0; r < 2; r++ {
				pixels = append(pixels, float32(1-r), float32(1-g), float32(1-b), 1)
			}
		}
	}
	invert := &resources.Texture{
		Name:   "invert_lut",
		Kind:   resources.TextureKind3D,
		Format: resources.TextureFormatRGBA32F,
		Filter: resources.TextureFilterLinear,
		Repeat: resources.TextureRepeatClamp,
		Width:  2,
		Height: 2,
		Depth:  2,
	}
	if err := d.CreateTexture(invert, pixels); err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer d.DestroyTexture(invert)

	src := hdrTarget(t, d, "hdr", 4, 4)
	d.BindTarget(src)
	d.Clear(renderer.ClearColorBuffer, mgl32.Vec4{0.25, 0.25, 0.25, 1})
	d.BindTarget(nil)

	render := func() uint8 {
		p.Process(src)
		return pixelAt(d.Backbuffer().Pix, 4, 1, 1)[0]
	}

	p.SetGradingLUT(invert)
	wantByte(t, render(), 191, 1, "inverted red")

	// A flat 2D texture is not a usable table; the current one stays.
	flat := &resources.Texture{Name: "flat", Width: 1, Height: 1, Format: resources.TextureFormatRGBA32F}
	if err := d.CreateTexture(flat, []float32{0, 0, 0, 1}); err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer d.DestroyTexture(flat)
	p.SetGradingLUT(flat)
	wantByte(t, render(), 191, 1, "red after refused swap")

	// Nil restores the identity volume.
	p.SetGradingLUT(nil)
	wantByte(t, render(), 64, 1, "red with identity restored")
}

func TestPostBloomReadsHDRBeforeToneMapping(t *testing.T) {
	d := soft.New(8, 8)
	programs := renderer.NewProgramLibrary(d)
	cfg := postConfig()
	cfg.Bloom = config.BloomConfig{Enabled: true, Threshold: 1.25, Knee: 0.5, Intensity: 1, BlurPass: 1}

	p := renderer.NewPostProcessPipeline(d, programs, fullscreenQuad(t, d), 8, 8, cfg)
	if !p.Valid() {
		t.Fatalf("pipeline should be valid")
	}
	defer p.Destroy()

	// Paint the left half of the scene with HDR white at 2.0, far above
	// the displayable range.
	fill := &renderer.Program{
		Name:   "hdr_fill",
		Params: renderer.NewParamSet("hdr_fill"),
		Vertex: func(pass, mat *renderer.ParamSet, v resources.Vertex, instance mgl32.Mat4) renderer.VertexOut {
			return renderer.VertexOut{Position: v.Position.Vec4(1)}
		},
		Fragment: func(pass, mat *renderer.ParamSet, s renderer.Sampler, f renderer.Fragment) (mgl32.Vec4, bool) {
			return mgl32.Vec4{2, 2, 2, 1}, true
		},
	}
	if err := d.CreateProgram(fill); err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	half := &resources.Geometry{
		Name: "left_half",
		Vertices: []resources.Vertex{
			{Position: mgl32.Vec3{-1, -1, 0}},
			{Position: mgl32.Vec3{0, -1, 0}},
			{Position: mgl32.Vec3{0, 1, 0}},
			{Position: mgl32.Vec3{-1, 1, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	if err := d.CreateGeometry(half); err != nil {
		t.Fatalf("CreateGeometry: %v", err)
	}

	src := hdrTarget(t, d, "hdr", 8, 8)
	d.BindTarget(src)
	d.SetViewport(renderer.Viewport{Width: 8, Height: 8})
	d.Clear(renderer.ClearColorBuffer|renderer.ClearDepthBuffer, mgl32.Vec4{0, 0, 0, 1})
	d.Draw(half, fill)
	d.BindTarget(nil)

	p.Process(src)
	img := d.Backbuffer().Pix

	// The lit half clamps to full white.
	wantByte(t, pixelAt(img, 8, 1, 4)[0], 255, 0, "lit half")

	// Glow just outside the lit region. The threshold sits above the
	// clamped range, so any glow at all proves the bright pass sampled
	// the scene before tone mapping.
	if glow := pixelAt(img, 8, 5, 4)[0]; glow == 0 {
		t.Errorf("no glow outside the lit region, bloom must read the HDR input")
	}

	// Control: without bloom the same pixel stays black.
	p.SetBloomEnabled(false)
	p.Process(src)
	if stray := pixelAt(d.Backbuffer().Pix, 8, 5, 4)[0]; stray != 0 {
		t.Errorf("pixel outside the lit region = %d without bloom, want 0", stray)
	}
}

func TestPostResizeFailureKeepsOldTargets(t *testing.T) {
	base := soft.New(8, 8)
	d := &failingDevice{Device: base}
	programs := renderer.NewProgramLibrary(d)

	p := renderer.NewPostProcessPipeline(d, programs, fullscreenQuad(t, d), 8, 8, postConfig())
	if !p.Valid() {
		t.Fatalf("pipeline should be valid")
	}
	defer p.Destroy()

	d.failTargets = true
	p.OnResize(16, 16)
	if !p.Degraded() {
		t.Errorf("failed resize should mark the pipeline degraded")
	}

	// Still renders with the retained targets.
	src := hdrTarget(t, base, "hdr", 8, 8)
	base.BindTarget(src)
	base.Clear(renderer.ClearColorBuffer, mgl32.Vec4{0.5, 0.5, 0.5, 1})
	base.BindTarget(nil)
	base.ResetFrameStats()
	p.Process(src)
	if stats := base.FrameStats(); stats.DrawCalls == 0 {
		t.Errorf("degraded pipeline should keep rendering")
	}

	d.failTargets = false
	p.OnResize(16, 16)
	if p.Degraded() {
		t.Errorf("successful resize should clear the degraded state")
	}
}

func TestPostInvalidConstruction(t *testing.T) {
	t.Run("missing quad", func(t *testing.T) {
		d := soft.New(4, 4)
		programs := renderer.NewProgramLibrary(d)
		p := renderer.NewPostProcessPipeline(d, programs, nil, 4, 4, postConfig())
		if p.Valid() {
			t.Fatalf("pipeline without a quad should be invalid")
		}

		src := hdrTarget(t, d, "hdr", 4, 4)
		d.ResetFrameStats()
		p.Process(nil)
		p.Process(src)
		if stats := d.FrameStats(); stats.DrawCalls != 0 {
			t.Errorf("invalid pipeline submitted %d draws", stats.DrawCalls)
		}
		p.OnResize(8, 8)
		p.Destroy()
	})

	t.Run("target creation fails", func(t *testing.T) {
		base := soft.New(4, 4)
		d := &failingDevice{Device: base, failTargets: true}
		programs := renderer.NewProgramLibrary(d)
		p := renderer.NewPostProcessPipeline(d, programs, fullscreenQuad(t, d), 4, 4, postConfig())
		if p.Valid() {
			t.Fatalf("pipeline should be invalid when targets cannot be created")
		}
	})
}

func TestPostSettingGuards(t *testing.T) {
	d := soft.New(4, 4)
	programs := renderer.NewProgramLibrary(d)
	p := renderer.NewPostProcessPipeline(d, programs, fullscreenQuad(t, d), 4, 4, postConfig())
	defer p.Destroy()

	p.SetToneMode(renderer.ToneACES)
	if got := p.ToneMode(); got != renderer.ToneACES {
		t.Errorf("tone mode = %v, want aces", got)
	}
	p.SetToneMode(renderer.ToneMode(42))
	if got := p.ToneMode(); got != renderer.ToneACES {
		t.Errorf("unknown tone mode should be ignored, got %v", got)
	}

	p.SetGamma(2.4)
	p.SetGamma(-1)
	if got := p.Gamma(); got != 2.4 {
		t.Errorf("gamma = %v, non-positive values should be ignored", got)
	}

	p.SetWhitePoint(8)
	p.SetWhitePoint(0)
	if got := p.WhitePoint(); got != 8 {
		t.Errorf("white point = %v, non-positive values should be ignored", got)
	}

	p.SetExposure(2)
	if got := p.Exposure(); got != 2 {
		t.Errorf("exposure = %v, want 2", got)
	}

	// Out-of-range values clamp instead of being rejected.
	clamped := []struct {
		name string
		set  func(float32)
		get  func() float32
		in   float32
		want float32
	}{
		{"bloom threshold", p.SetBloomThreshold, p.BloomThreshold, -3, 0},
		{"bloom knee", p.SetBloomKnee, p.BloomKnee, 2, 1},
		{"bloom intensity", p.SetBloomIntensity, p.BloomIntensity, 50, 10},
		{"grading contribution", p.SetGradingContribution, p.GradingContribution, 1.5, 1},
		{"grading saturation", p.SetGradingSaturation, p.GradingSaturation, 9, 2},
		{"grading contrast", p.SetGradingContrast, p.GradingContrast, -1, 0},
		{"grading brightness", p.SetGradingBrightness, p.GradingBrightness, -4, -1},
	}
	for _, tc := range clamped {
		tc.set(tc.in)
		if got := tc.get(); got != tc.want {
			t.Errorf("%s = %v after setting %v, want %v", tc.name, got, tc.in, tc.want)
		}
	}

	p.SetBloomPasses(0)
	if got := p.BloomPasses(); got != 1 {
		t.Errorf("blur passes = %d, want 1", got)
	}
	p.SetBloomPasses(20)
	if got := p.BloomPasses(); got != 8 {
		t.Errorf("blur passes = %d, want 8", got)
	}
}
