package scene

import "github.com/go-gl/mathgl/mgl32"

// DirectionalLight is the scene's sun and the only light that casts
// shadows. Direction points from the light toward the scene and must be
// supplied normalized.
type DirectionalLight struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// PointLight is a local light with quadratic distance falloff. The forward
// path consumes a bounded number of them per frame and ignores the rest.
type PointLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}
