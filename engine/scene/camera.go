package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera produces the view and projection matrices consumed by the render
// passes. Do not write the fields directly, use the setters so the cached
// matrices are rebuilt only when something actually changed.
type Camera struct {
	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3
	// Internal flag used to determine when the view matrix needs rebuilding.
	viewDirty bool
	view      mgl32.Mat4

	fovY      float32
	aspect    float32
	near      float32
	far       float32
	projDirty bool
	proj      mgl32.Mat4
}

func NewCamera() *Camera {
	return &Camera{
		position:  mgl32.Vec3{0, 0, 5},
		target:    mgl32.Vec3{0, 0, 0},
		up:        mgl32.Vec3{0, 1, 0},
		viewDirty: true,
		fovY:      mgl32.DegToRad(45.0),
		aspect:    16.0 / 9.0,
		near:      0.1,
		far:       1000.0,
		projDirty: true,
	}
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.position = position
	c.viewDirty = true
}

// LookAt aims the camera at target from its current position.
func (c *Camera) LookAt(target mgl32.Vec3) {
	c.target = target
	c.viewDirty = true
}

func (c *Camera) SetUp(up mgl32.Vec3) {
	c.up = up
	c.viewDirty = true
}

// SetPerspective replaces the projection parameters. fovYDeg is the vertical
// field of view in degrees.
func (c *Camera) SetPerspective(fovYDeg, near, far float32) {
	c.fovY = mgl32.DegToRad(fovYDeg)
	c.near = near
	c.far = far
	c.projDirty = true
}

// SetAspect updates the aspect ratio, typically on a framebuffer resize.
// Zero dimensions are ignored so a degenerate resize cannot poison the
// projection.
func (c *Camera) SetAspect(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
	c.projDirty = true
}

func (c *Camera) View() mgl32.Mat4 {
	if c.viewDirty {
		c.view = mgl32.LookAtV(c.position, c.target, c.up)
		c.viewDirty = false
	}
	return c.view
}

func (c *Camera) Projection() mgl32.Mat4 {
	if c.projDirty {
		c.proj = mgl32.Perspective(c.fovY, c.aspect, c.near, c.far)
		c.projDirty = false
	}
	return c.proj
}

// ViewProjection returns projection * view, the matrix culling and the
// passes actually consume.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}
