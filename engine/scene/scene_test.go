package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

func TestSceneSurfaces(t *testing.T) {
	s := New("world")
	geo := NewCubeGeometry("box", 1, 1, 1)

	a := s.AddSurface(NewSurface("a", geo))
	b := s.AddSurface(NewSurface("b", geo))
	if len(s.Surfaces()) != 2 {
		t.Fatalf("got %d surfaces, want 2", len(s.Surfaces()))
	}
	if s.Surfaces()[0] != a || s.Surfaces()[1] != b {
		t.Errorf("AddSurface should return the stored handle")
	}

	if !s.RemoveSurface(a.ID) {
		t.Errorf("removing a present surface should report true")
	}
	if len(s.Surfaces()) != 1 || s.Surfaces()[0] != b {
		t.Errorf("remove left %v", s.Surfaces())
	}
	if s.RemoveSurface(uuid.New()) {
		t.Errorf("removing an absent id should report false")
	}
}

func TestSceneLights(t *testing.T) {
	s := New("world")
	if s.DirectionalLight() != nil {
		t.Errorf("a fresh scene has no sun")
	}

	sun := &DirectionalLight{
		Direction: mgl32.Vec3{0, -1, 0},
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 2,
	}
	s.SetDirectionalLight(sun)
	if s.DirectionalLight() != sun {
		t.Errorf("sun did not round-trip")
	}

	s.AddPointLight(PointLight{Position: mgl32.Vec3{1, 2, 0}, Intensity: 5})
	s.AddPointLight(PointLight{Position: mgl32.Vec3{-1, 2, 0}, Intensity: 3})
	if len(s.PointLights()) != 2 {
		t.Errorf("got %d point lights, want 2", len(s.PointLights()))
	}
}

func TestNewSurfaceDefaults(t *testing.T) {
	geo := NewCubeGeometry("box", 1, 1, 1)
	surface := NewSurface("thing", geo)

	if surface.ID == uuid.Nil {
		t.Errorf("surface should get an id")
	}
	if !surface.Active {
		t.Errorf("surfaces start active")
	}
	if surface.BaseColor != (mgl32.Vec4{1, 1, 1, 1}) {
		t.Errorf("base color = %v, want opaque white", surface.BaseColor)
	}
	if surface.Roughness != 0.5 {
		t.Errorf("roughness = %v, want 0.5", surface.Roughness)
	}
	if surface.Transform == nil {
		t.Fatalf("surface needs a transform")
	}
	if surface.Transparent() {
		t.Errorf("opaque white must not route through the transparent stage")
	}
	if surface.InstanceCount() != 0 {
		t.Errorf("instance count = %d, want 0", surface.InstanceCount())
	}
}

func TestSurfaceTransparent(t *testing.T) {
	geo := NewCubeGeometry("box", 1, 1, 1)
	surface := NewSurface("pane", geo)
	surface.BaseColor = mgl32.Vec4{1, 1, 1, 0.5}
	if !surface.Transparent() {
		t.Errorf("alpha below one should mark the surface transparent")
	}
}

func TestSurfaceWorldBounds(t *testing.T) {
	geo := NewCubeGeometry("box", 2, 2, 2)
	geo.Center = mgl32.Vec3{1, 0, 0}
	geo.Radius = 1

	surface := NewSurface("thing", geo)
	surface.Transform.SetPosition(mgl32.Vec3{3, 0, 0})
	surface.Transform.SetScale(mgl32.Vec3{2, 2, 2})

	center, radius := surface.WorldBounds()
	if center.Sub(mgl32.Vec3{5, 0, 0}).Len() > 1e-5 {
		t.Errorf("world center = %v, want (5, 0, 0)", center)
	}
	if radius != 2 {
		t.Errorf("world radius = %v, want 2", radius)
	}
}
