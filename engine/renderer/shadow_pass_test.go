package renderer_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/config"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/renderer/soft"
	"github.com/spaghettifunk/chiaro/engine/resources"
	"github.com/spaghettifunk/chiaro/engine/scene"
)

func shadowConfig() config.ShadowConfig {
	return config.ShadowConfig{
		Enabled:    true,
		MapSize:    64,
		OrthoSize:  30,
		BiasFactor: 1.1,
		BiasUnits:  4,
	}
}

// groundQuad is a 10x10 horizontal quad at the origin, well inside the
// shadow working volume.
func groundQuad(t *testing.T, d renderer.Device) *resources.Geometry {
	t.Helper()
	up := mgl32.Vec3{0, 1, 0}
	white := mgl32.Vec4{1, 1, 1, 1}
	geo := &resources.Geometry{
		Name:   "ground",
		Radius: 7.1,
		Vertices: []resources.Vertex{
			{Position: mgl32.Vec3{-5, 0, -5}, Normal: up, Color: white},
			{Position: mgl32.Vec3{5, 0, -5}, Normal: up, Color: white},
			{Position: mgl32.Vec3{5, 0, 5}, Normal: up, Color: white},
			{Position: mgl32.Vec3{-5, 0, 5}, Normal: up, Color: white},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	if err := d.CreateGeometry(geo); err != nil {
		t.Fatalf("CreateGeometry: %v", err)
	}
	return geo
}

func TestShadowPassProcess(t *testing.T) {
	d := soft.New(8, 8)
	programs := renderer.NewProgramLibrary(d)
	pass := renderer.NewShadowPass(d, programs, shadowConfig())
	if !pass.Valid() {
		t.Fatalf("pass should be valid after construction")
	}
	defer pass.Destroy()

	geo := groundQuad(t, d)
	scn := scene.New("shadow")
	scn.AddSurface(scene.NewSurface("caster", geo))

	pane := scene.NewSurface("pane", geo)
	pane.BaseColor = mgl32.Vec4{1, 1, 1, 0.5}
	scn.AddSurface(pane)

	ring := scene.NewSurface("ring", geo)
	ring.Instances = []mgl32.Mat4{mgl32.Ident4()}
	scn.AddSurface(ring)

	off := scene.NewSurface("off", geo)
	off.Active = false
	scn.AddSurface(off)

	light := &scene.DirectionalLight{
		Direction: mgl32.Vec3{-0.4, -0.8, -0.3}.Normalize(),
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 1,
	}

	d.ResetFrameStats()
	result := pass.Process(scn, light)

	if !result.Valid {
		t.Fatalf("result should be valid")
	}
	if result.DepthMap == nil {
		t.Fatalf("result carries no depth map")
	}
	if result.DepthMap.Kind != resources.TextureKindDepth {
		t.Errorf("depth map kind = %v, want depth", result.DepthMap.Kind)
	}
	if result.LightSpace == (mgl32.Mat4{}) {
		t.Errorf("light-space matrix is zero")
	}
	if stats := d.FrameStats(); stats.DrawCalls != 1 {
		t.Errorf("draw calls = %d, only the opaque caster should render", stats.DrawCalls)
	}

	// The caster sits at the volume center, so the map center holds its
	// depth rather than the clear value.
	d.BindTexture(renderer.SlotUser0, result.DepthMap)
	if depth := d.SampleDepth(renderer.SlotUser0, mgl32.Vec2{0.5, 0.5}); depth >= 1 {
		t.Errorf("depth at map center = %v, caster should have written it", depth)
	}
}

func TestShadowPassDegenerateInputs(t *testing.T) {
	d := soft.New(8, 8)
	programs := renderer.NewProgramLibrary(d)
	pass := renderer.NewShadowPass(d, programs, shadowConfig())
	defer pass.Destroy()

	geo := groundQuad(t, d)
	scn := scene.New("shadow")
	scn.AddSurface(scene.NewSurface("caster", geo))

	tests := []struct {
		name  string
		scn   *scene.Scene
		light *scene.DirectionalLight
	}{
		{name: "nil scene", scn: nil, light: &scene.DirectionalLight{Direction: mgl32.Vec3{0, -1, 0}}},
		{name: "nil light", scn: scn, light: nil},
		{name: "zero direction", scn: scn, light: &scene.DirectionalLight{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d.ResetFrameStats()
			result := pass.Process(tc.scn, tc.light)
			if result.Valid || result.DepthMap != nil {
				t.Errorf("result = %+v, want zero", result)
			}
			if stats := d.FrameStats(); stats.DrawCalls != 0 {
				t.Errorf("draw calls = %d, want none", stats.DrawCalls)
			}
		})
	}
}

func TestShadowPassRestoresViewport(t *testing.T) {
	d := soft.New(8, 8)
	programs := renderer.NewProgramLibrary(d)
	pass := renderer.NewShadowPass(d, programs, shadowConfig())
	defer pass.Destroy()

	scn := scene.New("shadow")
	scn.AddSurface(scene.NewSurface("caster", groundQuad(t, d)))
	light := &scene.DirectionalLight{Direction: mgl32.Vec3{0, -1, 0.2}.Normalize()}

	before := d.Viewport()
	pass.Process(scn, light)
	if after := d.Viewport(); after != before {
		t.Errorf("viewport = %+v after the pass, want %+v restored", after, before)
	}
}

func TestShadowPassConstructionFailure(t *testing.T) {
	base := soft.New(8, 8)
	d := &failingDevice{Device: base, failTargets: true}
	programs := renderer.NewProgramLibrary(d)

	pass := renderer.NewShadowPass(d, programs, shadowConfig())
	if pass.Valid() {
		t.Fatalf("pass should be invalid when the map cannot be created")
	}

	scn := scene.New("shadow")
	scn.AddSurface(scene.NewSurface("caster", groundQuad(t, base)))
	light := &scene.DirectionalLight{Direction: mgl32.Vec3{0, -1, 0}}

	base.ResetFrameStats()
	result := pass.Process(scn, light)
	if result.Valid {
		t.Errorf("invalid pass produced a valid result")
	}
	if stats := base.FrameStats(); stats.DrawCalls != 0 {
		t.Errorf("invalid pass submitted %d draws", stats.DrawCalls)
	}

	// Tuning and teardown stay safe in the disabled state.
	pass.SetOrthoSize(40)
	pass.SetBias(2, 2)
	pass.Destroy()
}
