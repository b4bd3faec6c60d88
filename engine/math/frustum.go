package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is Ax + By + Cz + D = 0, with (A, B, C) the normal and D the
// distance from the origin.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Normalize scales the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Mul(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive means the same side as the normal.
func (p Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the six planes of a view frustum, normals pointing inward.
type Frustum struct {
	Planes [6]Plane
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts frustum planes from a view-projection matrix
// using the Gribb/Hartmann method. For the column-major matrix m, row i
// element j sits at m[i + j*4].
func NewFrustumFromMatrix(m mgl32.Mat4) Frustum {
	var f Frustum

	// Left plane: row3 + row0
	f.Planes[FrustumLeft] = Plane{
		Normal: mgl32.Vec3{m[3] + m[0], m[7] + m[4], m[11] + m[8]},
		D:      m[15] + m[12],
	}
	// Right plane: row3 - row0
	f.Planes[FrustumRight] = Plane{
		Normal: mgl32.Vec3{m[3] - m[0], m[7] - m[4], m[11] - m[8]},
		D:      m[15] - m[12],
	}
	// Bottom plane: row3 + row1
	f.Planes[FrustumBottom] = Plane{
		Normal: mgl32.Vec3{m[3] + m[1], m[7] + m[5], m[11] + m[9]},
		D:      m[15] + m[13],
	}
	// Top plane: row3 - row1
	f.Planes[FrustumTop] = Plane{
		Normal: mgl32.Vec3{m[3] - m[1], m[7] - m[5], m[11] - m[9]},
		D:      m[15] - m[13],
	}
	// Near plane: row3 + row2
	f.Planes[FrustumNear] = Plane{
		Normal: mgl32.Vec3{m[3] + m[2], m[7] + m[6], m[11] + m[10]},
		D:      m[15] + m[14],
	}
	// Far plane: row3 - row2
	f.Planes[FrustumFar] = Plane{
		Normal: mgl32.Vec3{m[3] - m[2], m[7] - m[6], m[11] - m[10]},
		D:      m[15] - m[14],
	}

	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// IntersectsSphere reports whether a sphere is at least partially inside the
// frustum.
func (f Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether a point lies inside all six planes.
func (f Frustum) ContainsPoint(p mgl32.Vec3) bool {
	return f.IntersectsSphere(p, 0)
}
