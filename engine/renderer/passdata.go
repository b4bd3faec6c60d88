package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/resources"
	"github.com/spaghettifunk/chiaro/engine/scene"
)

// MaxPointLights bounds the point lights a single frame forwards to the
// shading programs. Extra lights in the scene are ignored.
const MaxPointLights = 8

// ShadowResult is what the shadow pass hands the main pass: the depth map,
// the light-space transform that produced it, and a validity flag.
// Consumers must treat Valid == false as "no shadow data this frame" and
// shade fully lit.
type ShadowResult struct {
	DepthMap   *resources.Texture
	LightSpace mgl32.Mat4
	Valid      bool
}

// EnvironmentSet groups the image-based lighting inputs. The forward path
// uses it only when all three maps are present; a partial set counts as
// absent for the whole frame.
type EnvironmentSet struct {
	Enabled    bool
	Irradiance *resources.Texture
	Reflection *resources.Texture
	BRDFLookup *resources.Texture
	Intensity  float32
	// MaxDetail is the highest reflection detail level shading may pick
	// from; roughness selects within [0, MaxDetail].
	MaxDetail float32
}

func (e EnvironmentSet) Complete() bool {
	return e.Irradiance != nil && e.Reflection != nil && e.BRDFLookup != nil
}

// RenderPassData is the per-frame bundle the orchestrator hands the active
// render path. It is rebuilt every frame; paths must not retain it or
// anything reachable from it past the Execute call.
type RenderPassData struct {
	Device Device
	Scene  *scene.Scene
	Camera *scene.Camera
	// Target is the HDR scene target the path draws into.
	Target *resources.Target
	// Material is the shared handle every surface's appearance is staged
	// through before each draw.
	Material *Material

	Shadow      ShadowResult
	Environment EnvironmentSet
	// PointLights is already clipped to MaxPointLights.
	PointLights []scene.PointLight

	ClearColor       mgl32.Vec4
	AmbientColor     mgl32.Vec4
	AmbientIntensity float32
}
