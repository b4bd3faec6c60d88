package scene

import (
	"github.com/google/uuid"
)

// Scene owns everything the renderer draws in one frame: surfaces and
// lights. It is plain data with no device resources, so tests and tools can
// assemble scenes without a renderer behind them.
type Scene struct {
	Name        string
	surfaces    []*Surface
	directional *DirectionalLight
	points      []PointLight
}

func New(name string) *Scene {
	return &Scene{Name: name}
}

// AddSurface appends a surface and returns it, so call sites can keep the
// handle for later mutation.
func (s *Scene) AddSurface(surface *Surface) *Surface {
	s.surfaces = append(s.surfaces, surface)
	return surface
}

// RemoveSurface drops the surface with the given id. It reports whether a
// surface was actually removed.
func (s *Scene) RemoveSurface(id uuid.UUID) bool {
	for i, surface := range s.surfaces {
		if surface.ID == id {
			s.surfaces = append(s.surfaces[:i], s.surfaces[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scene) Surfaces() []*Surface {
	return s.surfaces
}

func (s *Scene) SetDirectionalLight(light *DirectionalLight) {
	s.directional = light
}

// DirectionalLight returns the scene's sun, or nil when the scene has none.
func (s *Scene) DirectionalLight() *DirectionalLight {
	return s.directional
}

func (s *Scene) AddPointLight(light PointLight) {
	s.points = append(s.points, light)
}

func (s *Scene) PointLights() []PointLight {
	return s.points
}
