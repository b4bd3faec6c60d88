// Package testbed is a demo scene that drives every renderer feature:
// shadows, instancing, transparency, outlines, bloom, tone mapping and
// grading, all steerable from the keyboard.
package testbed

import (
	gomath "math"
	"strconv"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine"
	"github.com/spaghettifunk/chiaro/engine/assets"
	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/resources"
	"github.com/spaghettifunk/chiaro/engine/scene"
)

const (
	orbitImpulse  = 2.0
	zoomStep      = 2.0
	defaultFPS    = 30
	pillarCount   = 12
	pillarRing    = 14.0
	checkerSize   = 64
	checkerSquare = 8
)

type TestGame struct {
	*engine.Game
}

// orbitAxis accumulates velocity into an angle and decays the velocity
// toward zero with a critically damped spring, so key taps feel like
// flicks instead of steps.
type orbitAxis struct {
	Position float64
	Velocity float64

	velSpring harmonica.Spring
	velAccel  float64
}

func newOrbitAxis(fps int) orbitAxis {
	return orbitAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

func (a *orbitAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

type gameState struct {
	scene  *scene.Scene
	camera *scene.Camera

	orbit      orbitAxis
	zoom       float64
	zoomVel    float64
	zoomTarget float64
	zoomSpring harmonica.Spring

	spinners []*scene.Surface
	glowCube *scene.Surface

	geometries []*resources.Geometry
	checker    *resources.Texture

	width  uint32
	height uint32

	elapsed   float64
	paused    bool
	pathIndex int
}

func NewTestGame() (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:        "Chiaro Testbed",
				StartWidth:  480,
				StartHeight: 270,
				ConfigPath:  "chiaro.toml",
				TargetFPS:   defaultFPS,
			},
			State: &gameState{
				zoom:       26,
				zoomTarget: 26,
			},
		},
	}

	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) Boot() error {
	core.LogInfo("booting testbed...")

	state := g.State.(*gameState)
	fps := g.ApplicationConfig.TargetFPS
	if fps <= 0 {
		fps = defaultFPS
	}
	state.orbit = newOrbitAxis(fps)
	state.zoomSpring = harmonica.NewSpring(harmonica.FPS(fps), 5.0, 1.0)
	return nil
}

func (g *TestGame) Initialize() error {
	state := g.State.(*gameState)
	state.scene = scene.New("testbed")

	state.camera = scene.NewCamera()
	state.camera.SetPerspective(60, 0.1, 200)
	state.camera.SetPosition(mgl32.Vec3{0, 10, float32(state.zoom)})
	state.camera.LookAt(mgl32.Vec3{0, 2, 0})

	if err := g.buildScene(state); err != nil {
		return err
	}

	core.LogInfo("testbed controls: a/d orbit, w/s zoom, space pause, 0-5 tone mode,")
	core.LogInfo("  b bloom, g grading, o outlines, e environment, t shadows, p render path, q quit")
	return nil
}

func (g *TestGame) buildScene(state *gameState) error {
	scn := state.scene

	makeGeometry := func(geometry *resources.Geometry) (*resources.Geometry, error) {
		if err := g.Device.CreateGeometry(geometry); err != nil {
			return nil, err
		}
		state.geometries = append(state.geometries, geometry)
		return geometry, nil
	}

	// Ground, textured with a generated checkerboard.
	ground, err := makeGeometry(scene.NewPlaneGeometry("ground", 44, 44, 4, 4, 6, 6))
	if err != nil {
		return err
	}
	checker, err := newCheckerTexture(g.Device)
	if err != nil {
		core.LogWarn("checker texture unavailable: %v", err)
	} else {
		state.checker = checker
	}
	groundSurface := scene.NewSurface("ground", ground)
	groundSurface.BaseColor = mgl32.Vec4{0.78, 0.78, 0.8, 1}
	groundSurface.Roughness = 0.9
	groundSurface.BaseColorMap = state.checker
	scn.AddSurface(groundSurface)

	// A chain of spinning cubes, each parented to the previous one.
	sizes := []float32{4, 2.5, 1.5}
	offsets := []mgl32.Vec3{{0, 3, 0}, {6, 1, 0}, {4, 0.5, 0}}
	var parent *math.Transform
	for i, size := range sizes {
		cube, err := makeGeometry(scene.NewCubeGeometry("spinner_"+strconv.Itoa(i), size, size, size))
		if err != nil {
			return err
		}
		surface := scene.NewSurface("spinner_"+strconv.Itoa(i), cube)
		surface.Transform = math.TransformFromPosition(offsets[i])
		surface.Transform.Parent = parent
		surface.BaseColor = mgl32.Vec4{0.85, 0.35 + 0.2*float32(i), 0.25, 1}
		surface.Roughness = 0.55
		scn.AddSurface(surface)
		state.spinners = append(state.spinners, surface)
		parent = surface.Transform
	}

	// A polished metal sphere, kept selected so the outline shows.
	sphere, err := makeGeometry(scene.NewSphereGeometry("sphere", 2, 24, 32))
	if err != nil {
		return err
	}
	sphereSurface := scene.NewSurface("metal_sphere", sphere)
	sphereSurface.Transform = math.TransformFromPosition(mgl32.Vec3{-7, 2, 3})
	sphereSurface.BaseColor = mgl32.Vec4{0.95, 0.93, 0.88, 1}
	sphereSurface.Metallic = 0.9
	sphereSurface.Roughness = 0.15
	sphereSurface.Selected = true
	scn.AddSurface(sphereSurface)

	// The bloom source: a small cube that emits more light than any tone
	// operator maps to white.
	glow, err := makeGeometry(scene.NewCubeGeometry("glow", 2, 2, 2))
	if err != nil {
		return err
	}
	glowSurface := scene.NewSurface("glow_cube", glow)
	glowSurface.Transform = math.TransformFromPosition(mgl32.Vec3{6, 1.5, -5})
	glowSurface.BaseColor = mgl32.Vec4{0.1, 0.08, 0.05, 1}
	glowSurface.Emissive = mgl32.Vec3{4, 3, 1.2}
	scn.AddSurface(glowSurface)
	state.glowCube = glowSurface

	// A ring of pillars drawn in a single instanced submission.
	pillar, err := makeGeometry(scene.NewCubeGeometry("pillar", 1, 5, 1))
	if err != nil {
		return err
	}
	pillarSurface := scene.NewSurface("pillar_ring", pillar)
	pillarSurface.BaseColor = mgl32.Vec4{0.6, 0.62, 0.7, 1}
	pillarSurface.Roughness = 0.7
	for i := 0; i < pillarCount; i++ {
		angle := 2 * gomath.Pi * float64(i) / pillarCount
		x := float32(gomath.Cos(angle)) * pillarRing
		z := float32(gomath.Sin(angle)) * pillarRing
		pillarSurface.Instances = append(pillarSurface.Instances,
			mgl32.Translate3D(x, 2.5, z))
	}
	scn.AddSurface(pillarSurface)

	// Two tinted panes to show sorted transparency.
	pane, err := makeGeometry(scene.NewCubeGeometry("pane", 5, 3.5, 0.1))
	if err != nil {
		return err
	}
	for i, z := range []float32{7, 10} {
		surface := scene.NewSurface("pane_"+strconv.Itoa(i), pane)
		surface.Transform = math.TransformFromPosition(mgl32.Vec3{-2 + 3*float32(i), 2, z})
		surface.BaseColor = mgl32.Vec4{0.35, 0.65, 0.9, 0.35}
		surface.Roughness = 0.2
		scn.AddSurface(surface)
	}

	// An optional loaded mesh, dropped in front of the pillars.
	if path := g.ApplicationConfig.ModelPath; path != "" {
		model, err := assets.LoadGeometry(g.Device, path)
		if err != nil {
			core.LogWarn("model %s not loaded: %v", path, err)
		} else {
			state.geometries = append(state.geometries, model)
			surface := scene.NewSurface("model", model)
			surface.Transform = math.TransformFromPosition(mgl32.Vec3{0, 1, -9})
			surface.Roughness = 0.5
			scn.AddSurface(surface)
		}
	}

	// Lighting.
	scn.SetDirectionalLight(&scene.DirectionalLight{
		Direction: mgl32.Vec3{-0.4, -0.8, -0.3}.Normalize(),
		Color:     mgl32.Vec3{1, 0.96, 0.9},
		Intensity: 2.2,
	})
	scn.AddPointLight(scene.PointLight{
		Position:  mgl32.Vec3{8, 4, 0},
		Color:     mgl32.Vec3{1, 0.55, 0.25},
		Intensity: 14,
	})
	scn.AddPointLight(scene.PointLight{
		Position:  mgl32.Vec3{-9, 3, -6},
		Color:     mgl32.Vec3{0.3, 0.5, 1},
		Intensity: 10,
	})
	scn.AddPointLight(scene.PointLight{
		Position:  mgl32.Vec3{0, 6, 9},
		Color:     mgl32.Vec3{0.9, 0.3, 0.8},
		Intensity: 8,
	})
	scn.AddPointLight(scene.PointLight{
		Position:  mgl32.Vec3{6, 2.5, -5},
		Color:     mgl32.Vec3{1, 0.8, 0.4},
		Intensity: 6,
	})

	return nil
}

func (g *TestGame) Update(delta float64) error {
	state := g.State.(*gameState)
	state.elapsed += delta

	g.handleKeys(state, delta)

	// Camera orbit with springy velocity, plus a slow idle drift.
	state.orbit.Position += 0.1 * delta
	state.orbit.Update()
	state.zoom, state.zoomVel = state.zoomSpring.Update(state.zoom, state.zoomVel, state.zoomTarget)

	yaw := state.orbit.Position
	eye := mgl32.Vec3{
		float32(gomath.Cos(yaw) * state.zoom),
		float32(8 + 2*gomath.Sin(0.3*state.elapsed)),
		float32(gomath.Sin(yaw) * state.zoom),
	}
	state.camera.SetPosition(eye)
	state.camera.LookAt(mgl32.Vec3{0, 2, 0})

	if !state.paused {
		spin := mgl32.QuatRotate(float32(0.6*delta), mgl32.Vec3{0, 1, 0})
		state.spinners[0].Transform.Rotate(spin)
		if len(state.spinners) > 2 {
			state.spinners[2].Transform.Rotate(spin)
		}
	}

	// The glow cube breathes so bloom visibly reacts.
	pulse := float32(0.75 + 0.25*gomath.Sin(2*state.elapsed))
	state.glowCube.Emissive = mgl32.Vec3{4, 3, 1.2}.Mul(pulse)

	// The warm light circles the scene.
	lights := state.scene.PointLights()
	if len(lights) > 0 {
		angle := 0.7 * state.elapsed
		lights[0].Position = mgl32.Vec3{
			float32(gomath.Cos(angle)) * 8,
			4,
			float32(gomath.Sin(angle)) * 8,
		}
	}

	return nil
}

func (g *TestGame) handleKeys(state *gameState, delta float64) {
	in := g.Input
	r := g.Renderer

	if in.IsKeyDown("a") {
		state.orbit.Velocity -= orbitImpulse * delta
	}
	if in.IsKeyDown("d") {
		state.orbit.Velocity += orbitImpulse * delta
	}
	if in.WasKeyPressed("w") || in.WasKeyPressed("+") {
		state.zoomTarget = gomath.Max(8, state.zoomTarget-zoomStep)
	}
	if in.WasKeyPressed("s") || in.WasKeyPressed("-") {
		state.zoomTarget = gomath.Min(60, state.zoomTarget+zoomStep)
	}
	if in.WasKeyPressed("space") {
		state.paused = !state.paused
	}

	if in.WasKeyPressed("b") {
		r.SetBloomEnabled(!r.BloomEnabled())
		core.LogInfo("bloom: %v", r.BloomEnabled())
	}
	if in.WasKeyPressed("g") {
		r.SetGradingEnabled(!r.GradingEnabled())
		core.LogInfo("grading: %v", r.GradingEnabled())
	}
	if in.WasKeyPressed("o") {
		r.SetOutlineEnabled(!r.OutlineEnabled())
		core.LogInfo("outlines: %v", r.OutlineEnabled())
	}
	if in.WasKeyPressed("e") {
		r.SetEnvironmentEnabled(!r.EnvironmentEnabled())
		core.LogInfo("environment: %v", r.EnvironmentEnabled())
	}
	if in.WasKeyPressed("t") {
		r.SetShadowEnabled(!r.ShadowEnabled())
		core.LogInfo("shadows: %v", r.ShadowEnabled())
	}
	if in.WasKeyPressed("p") {
		state.pathIndex = (state.pathIndex + 1) % 3
		r.SetRenderPath(renderer.PathType(state.pathIndex))
		core.LogInfo("render path: %s", r.PathName())
	}

	for mode := 0; mode <= 5; mode++ {
		if in.WasKeyPressed(strconv.Itoa(mode)) {
			r.SetToneMode(renderer.ToneMode(mode))
			core.LogInfo("tone mode: %s", r.ToneMode())
		}
	}
}

func (g *TestGame) Render(_ float64) error {
	state := g.State.(*gameState)
	g.Renderer.Render(state.scene, state.camera)
	return nil
}

func (g *TestGame) OnResize(width, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	state.camera.SetAspect(width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	if state.checker != nil {
		g.Device.DestroyTexture(state.checker)
		state.checker = nil
	}
	for _, geometry := range state.geometries {
		g.Device.DestroyGeometry(geometry)
	}
	state.geometries = nil
	return nil
}

// newCheckerTexture builds a two-tone checkerboard so the ground shows
// texture filtering and shadow contact without shipping image files.
func newCheckerTexture(device renderer.Device) (*resources.Texture, error) {
	pixels := make([]float32, 0, checkerSize*checkerSize*4)
	for y := 0; y < checkerSize; y++ {
		for x := 0; x < checkerSize; x++ {
			shade := float32(0.85)
			if ((x/checkerSquare)+(y/checkerSquare))%2 == 1 {
				shade = 0.45
			}
			pixels = append(pixels, shade, shade, shade, 1)
		}
	}
	texture := &resources.Texture{
		Name:   "checker",
		Kind:   resources.TextureKind2D,
		Format: resources.TextureFormatRGBA32F,
		Filter: resources.TextureFilterLinear,
		Repeat: resources.TextureRepeatWrap,
		Width:  checkerSize,
		Height: checkerSize,
		Depth:  1,
	}
	if err := device.CreateTexture(texture, pixels); err != nil {
		return nil, err
	}
	return texture, nil
}
