package scene

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/resources"
)

func near(a, b, tol float32) bool {
	d := float64(a - b)
	return gomath.Abs(d) <= float64(tol)
}

// checkOutwardWinding verifies every non-degenerate triangle winds
// counter-clockwise when seen from the side its vertex normal points to.
func checkOutwardWinding(t *testing.T, geo *resources.Geometry) {
	t.Helper()
	for i := 0; i+2 < len(geo.Indices); i += 3 {
		a := geo.Vertices[geo.Indices[i]].Position
		b := geo.Vertices[geo.Indices[i+1]].Position
		c := geo.Vertices[geo.Indices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-7 {
			continue // pole triangles collapse, nothing to check
		}
		if n.Dot(geo.Vertices[geo.Indices[i]].Normal) <= 0 {
			t.Fatalf("triangle %d winds against its normal", i/3)
		}
	}
}

func checkIndicesInRange(t *testing.T, geo *resources.Geometry) {
	t.Helper()
	if len(geo.Indices)%3 != 0 {
		t.Fatalf("index count %d is not a multiple of three", len(geo.Indices))
	}
	for i, idx := range geo.Indices {
		if int(idx) >= len(geo.Vertices) {
			t.Fatalf("index %d references vertex %d of %d", i, idx, len(geo.Vertices))
		}
	}
}

func TestNewCubeGeometry(t *testing.T) {
	geo := NewCubeGeometry("box", 1, 2, 3)

	if len(geo.Vertices) != 24 || len(geo.Indices) != 36 {
		t.Fatalf("got %d vertices / %d indices, want 24 / 36", len(geo.Vertices), len(geo.Indices))
	}
	checkIndicesInRange(t, geo)
	checkOutwardWinding(t, geo)

	half := mgl32.Vec3{0.5, 1, 1.5}
	for i, v := range geo.Vertices {
		for axis := 0; axis < 3; axis++ {
			if gomath.Abs(float64(v.Position[axis])) > float64(half[axis])+1e-6 {
				t.Fatalf("vertex %d position %v escapes the half extents %v", i, v.Position, half)
			}
		}
		if !near(v.Normal.Len(), 1, 1e-6) {
			t.Fatalf("vertex %d normal %v is not unit length", i, v.Normal)
		}
	}
	if !near(geo.Radius, half.Len(), 1e-6) {
		t.Errorf("radius = %v, want %v", geo.Radius, half.Len())
	}
	if geo.Center != (mgl32.Vec3{}) {
		t.Errorf("center = %v, want the origin", geo.Center)
	}
}

func TestNewCubeGeometryDefaultsZeroDims(t *testing.T) {
	geo := NewCubeGeometry("unit", 0, 0, 0)
	want := mgl32.Vec3{0.5, 0.5, 0.5}.Len()
	if !near(geo.Radius, want, 1e-6) {
		t.Errorf("radius = %v, want the unit cube's %v", geo.Radius, want)
	}
}

func TestNewPlaneGeometry(t *testing.T) {
	geo := NewPlaneGeometry("ground", 10, 6, 2, 3, 4, 5)

	if want := 3 * 4; len(geo.Vertices) != want {
		t.Fatalf("got %d vertices, want %d", len(geo.Vertices), want)
	}
	if want := 2 * 3 * 6; len(geo.Indices) != want {
		t.Fatalf("got %d indices, want %d", len(geo.Indices), want)
	}
	checkIndicesInRange(t, geo)
	checkOutwardWinding(t, geo)

	for i, v := range geo.Vertices {
		if v.Position.Y() != 0 {
			t.Fatalf("vertex %d sits off the plane: %v", i, v.Position)
		}
		if v.Normal != (mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("vertex %d normal = %v, want +Y", i, v.Normal)
		}
	}

	// The far corner carries the full tiling.
	last := geo.Vertices[len(geo.Vertices)-1]
	if last.Texcoord != (mgl32.Vec2{4, 5}) {
		t.Errorf("far corner texcoord = %v, want (4, 5)", last.Texcoord)
	}
	if last.Position != (mgl32.Vec3{5, 0, 3}) {
		t.Errorf("far corner = %v, want (5, 0, 3)", last.Position)
	}
}

func TestNewSphereGeometry(t *testing.T) {
	geo := NewSphereGeometry("ball", 2, 4, 6)

	if want := 5 * 7; len(geo.Vertices) != want {
		t.Fatalf("got %d vertices, want %d", len(geo.Vertices), want)
	}
	if want := 4 * 6 * 6; len(geo.Indices) != want {
		t.Fatalf("got %d indices, want %d", len(geo.Indices), want)
	}
	checkIndicesInRange(t, geo)
	checkOutwardWinding(t, geo)

	for i, v := range geo.Vertices {
		if !near(v.Position.Len(), 2, 1e-5) {
			t.Fatalf("vertex %d sits at distance %v, want on the radius-2 shell", i, v.Position.Len())
		}
		if !near(v.Normal.Len(), 1, 1e-5) {
			t.Fatalf("vertex %d normal %v is not unit length", i, v.Normal)
		}
		if v.Position.Sub(v.Normal.Mul(2)).Len() > 1e-5 {
			t.Fatalf("vertex %d normal does not point along its position", i)
		}
	}
	if geo.Radius != 2 {
		t.Errorf("radius = %v, want 2", geo.Radius)
	}
}

func TestNewSphereGeometryRaisesTessellation(t *testing.T) {
	geo := NewSphereGeometry("coarse", 1, 1, 2)
	if want := 4 * 4; len(geo.Vertices) != want {
		t.Errorf("got %d vertices, want %d after raising to 3x3", len(geo.Vertices), want)
	}
	if want := 3 * 3 * 6; len(geo.Indices) != want {
		t.Errorf("got %d indices, want %d after raising to 3x3", len(geo.Indices), want)
	}

	geo = NewSphereGeometry("bad radius", -1, 4, 4)
	if geo.Radius != 1 {
		t.Errorf("radius = %v, want the default 1", geo.Radius)
	}
}
