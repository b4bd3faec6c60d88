package scene

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// Procedural geometry for the demo scene and tests. The returned geometry
// is plain CPU data; callers hand it to a device with CreateGeometry before
// drawing it.

// NewCubeGeometry builds an axis-aligned box centered on the origin with
// four unique vertices per face so normals stay hard.
func NewCubeGeometry(name string, width, height, depth float32) *resources.Geometry {
	if width == 0 {
		core.LogWarn("cube width must be nonzero, defaulting to one")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("cube height must be nonzero, defaulting to one")
		height = 1.0
	}
	if depth == 0 {
		core.LogWarn("cube depth must be nonzero, defaulting to one")
		depth = 1.0
	}

	hx := width * 0.5
	hy := height * 0.5
	hz := depth * 0.5

	// Each face lists its four corners in the order v0=(min u, min v),
	// v1=(max u, max v), v2=(min u, max v), v3=(max u, min v).
	faces := [6]struct {
		corners [4]mgl32.Vec3
		normal  mgl32.Vec3
	}{
		{ // front, +Z
			[4]mgl32.Vec3{{-hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}, {hx, -hy, hz}},
			mgl32.Vec3{0, 0, 1},
		},
		{ // back, -Z
			[4]mgl32.Vec3{{hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}, {-hx, -hy, -hz}},
			mgl32.Vec3{0, 0, -1},
		},
		{ // left, -X
			[4]mgl32.Vec3{{-hx, -hy, -hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, hz}},
			mgl32.Vec3{-1, 0, 0},
		},
		{ // right, +X
			[4]mgl32.Vec3{{hx, -hy, hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, -hz}},
			mgl32.Vec3{1, 0, 0},
		},
		{ // bottom, -Y
			[4]mgl32.Vec3{{hx, -hy, hz}, {-hx, -hy, -hz}, {hx, -hy, -hz}, {-hx, -hy, hz}},
			mgl32.Vec3{0, -1, 0},
		},
		{ // top, +Y
			[4]mgl32.Vec3{{-hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}, {hx, hy, hz}},
			mgl32.Vec3{0, 1, 0},
		},
	}
	uvs := [4]mgl32.Vec2{{0, 0}, {1, 1}, {0, 1}, {1, 0}}

	vertices := make([]resources.Vertex, 0, 4*6)
	indices := make([]uint32, 0, 6*6)
	for f, face := range faces {
		for i := 0; i < 4; i++ {
			vertices = append(vertices, resources.Vertex{
				Position: face.corners[i],
				Normal:   face.normal,
				Texcoord: uvs[i],
				Color:    mgl32.Vec4{1, 1, 1, 1},
			})
		}
		base := uint32(f * 4)
		indices = append(indices, base+0, base+1, base+2, base+0, base+3, base+1)
	}

	return &resources.Geometry{
		Name:     name,
		Center:   mgl32.Vec3{0, 0, 0},
		Radius:   mgl32.Vec3{hx, hy, hz}.Len(),
		Vertices: vertices,
		Indices:  indices,
	}
}

// NewPlaneGeometry builds a flat ground plane in the XZ plane facing +Y,
// split into segments so large floors shade without huge triangles. tileX
// and tileZ repeat the texture across the plane.
func NewPlaneGeometry(name string, width, depth float32, segX, segZ int, tileX, tileZ float32) *resources.Geometry {
	if width == 0 {
		core.LogWarn("plane width must be nonzero, defaulting to one")
		width = 1.0
	}
	if depth == 0 {
		core.LogWarn("plane depth must be nonzero, defaulting to one")
		depth = 1.0
	}
	if segX < 1 {
		segX = 1
	}
	if segZ < 1 {
		segZ = 1
	}
	if tileX == 0 {
		tileX = 1.0
	}
	if tileZ == 0 {
		tileZ = 1.0
	}

	hx := width * 0.5
	hz := depth * 0.5
	vertices := make([]resources.Vertex, 0, (segX+1)*(segZ+1))
	for z := 0; z <= segZ; z++ {
		for x := 0; x <= segX; x++ {
			fx := float32(x) / float32(segX)
			fz := float32(z) / float32(segZ)
			vertices = append(vertices, resources.Vertex{
				Position: mgl32.Vec3{-hx + fx*width, 0, -hz + fz*depth},
				Normal:   mgl32.Vec3{0, 1, 0},
				Texcoord: mgl32.Vec2{fx * tileX, fz * tileZ},
				Color:    mgl32.Vec4{1, 1, 1, 1},
			})
		}
	}

	indices := make([]uint32, 0, segX*segZ*6)
	stride := uint32(segX + 1)
	for z := 0; z < segZ; z++ {
		for x := 0; x < segX; x++ {
			i0 := uint32(z)*stride + uint32(x)
			i1 := i0 + 1
			i2 := i0 + stride
			i3 := i2 + 1
			// Counter-clockwise seen from +Y.
			indices = append(indices, i0, i2, i1, i1, i2, i3)
		}
	}

	return &resources.Geometry{
		Name:     name,
		Center:   mgl32.Vec3{0, 0, 0},
		Radius:   mgl32.Vec3{hx, 0, hz}.Len(),
		Vertices: vertices,
		Indices:  indices,
	}
}

// NewSphereGeometry builds a UV sphere with the given ring and sector
// tessellation. Rings and sectors below three are raised to three.
func NewSphereGeometry(name string, radius float32, rings, sectors int) *resources.Geometry {
	if radius <= 0 {
		core.LogWarn("sphere radius must be positive, defaulting to one")
		radius = 1.0
	}
	if rings < 3 {
		rings = 3
	}
	if sectors < 3 {
		sectors = 3
	}

	vertices := make([]resources.Vertex, 0, (rings+1)*(sectors+1))
	for r := 0; r <= rings; r++ {
		theta := gomath.Pi * float64(r) / float64(rings)
		sinT, cosT := gomath.Sincos(theta)
		for s := 0; s <= sectors; s++ {
			phi := 2 * gomath.Pi * float64(s) / float64(sectors)
			sinP, cosP := gomath.Sincos(phi)
			normal := mgl32.Vec3{
				float32(sinT * cosP),
				float32(cosT),
				float32(sinT * sinP),
			}
			vertices = append(vertices, resources.Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				Texcoord: mgl32.Vec2{float32(s) / float32(sectors), float32(r) / float32(rings)},
				Color:    mgl32.Vec4{1, 1, 1, 1},
			})
		}
	}

	indices := make([]uint32, 0, rings*sectors*6)
	stride := uint32(sectors + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < sectors; s++ {
			i0 := uint32(r)*stride + uint32(s)
			i1 := i0 + 1
			i2 := i0 + stride
			i3 := i2 + 1
			indices = append(indices, i0, i1, i2, i1, i3, i2)
		}
	}

	return &resources.Geometry{
		Name:     name,
		Center:   mgl32.Vec3{0, 0, 0},
		Radius:   radius,
		Vertices: vertices,
		Indices:  indices,
	}
}
