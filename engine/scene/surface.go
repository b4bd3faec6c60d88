package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// Surface is one drawable item: a geometry, a world transform and the
// appearance values the forward path feeds through the shared material.
// A base color alpha below one routes the surface through the sorted
// transparent stage. A non-empty Instances list routes it through the
// instanced stage, where the per-instance matrices replace Transform.
type Surface struct {
	ID   uuid.UUID
	Name string
	// Active gates the surface in and out of every pass without removing
	// it from the scene.
	Active    bool
	Geometry  *resources.Geometry
	Transform *math.Transform

	BaseColor mgl32.Vec4
	Metallic  float32
	Roughness float32
	// Emissive is added on top of lighting. Values above one glow once
	// bloom picks them up.
	Emissive mgl32.Vec3
	// BaseColorMap is optional; nil leaves the flat BaseColor in charge.
	BaseColorMap *resources.Texture

	// Instances holds one model matrix per instance for instanced draws.
	Instances []mgl32.Mat4

	// Selected surfaces are redrawn with the selection outline.
	Selected bool
}

func NewSurface(name string, geometry *resources.Geometry) *Surface {
	return &Surface{
		ID:        uuid.New(),
		Name:      name,
		Active:    true,
		Geometry:  geometry,
		Transform: math.NewTransform(),
		BaseColor: mgl32.Vec4{1, 1, 1, 1},
		Metallic:  0.0,
		Roughness: 0.5,
	}
}

func (s *Surface) InstanceCount() int {
	return len(s.Instances)
}

// Transparent reports whether the surface goes through the blended,
// back-to-front stage of the forward path.
func (s *Surface) Transparent() bool {
	return s.BaseColor.W() < 1.0
}

// WorldBounds returns the surface's bounding sphere in world space for
// frustum culling.
func (s *Surface) WorldBounds() (mgl32.Vec3, float32) {
	world := s.Transform.GetWorld()
	center := mgl32.TransformCoordinate(s.Geometry.Center, world)
	radius := s.Geometry.Radius * math.MaxAxisScale(world)
	return center, radius
}
