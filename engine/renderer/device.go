package renderer

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/resources"
)

// Texture slots form a fixed global convention shared by every pass and
// program, so a pass never has to ask which unit a map landed on.
//
//	0-4   material maps, bound by Material.Apply
//	5-7   environment lighting set
//	8     shadow depth map
//	9-11  post-process intermediates
//	12-15 free for callers
const (
	SlotBaseColorMap      uint8 = 0
	SlotNormalMap         uint8 = 1
	SlotMetalRoughnessMap uint8 = 2
	SlotOcclusionMap      uint8 = 3
	SlotEmissiveMap       uint8 = 4
	SlotIrradianceMap     uint8 = 5
	SlotReflectionMap     uint8 = 6
	SlotBRDFLookup        uint8 = 7
	SlotShadowMap         uint8 = 8
	SlotPostSource        uint8 = 9
	SlotPostBloom         uint8 = 10
	SlotGradingLUT        uint8 = 11
	SlotUser0             uint8 = 12
	SlotUser1             uint8 = 13
	SlotUser2             uint8 = 14
	SlotUser3             uint8 = 15

	SlotCount = 16
)

// ClearFlags selects which attachments Clear touches.
type ClearFlags uint8

const (
	ClearColorBuffer ClearFlags = 1 << iota
	ClearDepthBuffer
	ClearStencilBuffer
)

// BlendFactor weights source and destination colors while blending is on.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

// CompareFunc is the comparison used by the stencil test.
type CompareFunc uint8

const (
	CompareAlways CompareFunc = iota
	CompareNever
	CompareEqual
	CompareNotEqual
)

// StencilOp is what happens to a stencil value on test outcomes.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
)

// Viewport is the active rendering rectangle in pixels.
type Viewport struct {
	X, Y          int32
	Width, Height int32
}

// FrameStats counts draw submissions since the last reset. Tests lean on
// these to prove passes were skipped or executed.
type FrameStats struct {
	DrawCalls int
	Instances int
	Triangles int
}

// Device is the low-level draw-submission facility every pass renders
// through. Creation calls return errors; submission-time problems are
// logged and dropped instead, so a bad draw can never take the frame down.
//
// The device is not goroutine safe. All calls for a frame must come from
// the same goroutine, which is also the contract for the whole render path.
type Device interface {
	CreateTexture(texture *resources.Texture, pixels []float32) error
	DestroyTexture(texture *resources.Texture)
	CreateTarget(target *resources.Target) error
	DestroyTarget(target *resources.Target)
	CreateGeometry(geometry *resources.Geometry) error
	DestroyGeometry(geometry *resources.Geometry)
	CreateProgram(program *Program) error
	DestroyProgram(program *Program)

	// BindTarget selects the draw destination. A nil target means the
	// backbuffer.
	BindTarget(target *resources.Target)
	Clear(flags ClearFlags, color mgl32.Vec4)
	// Resize replaces the backbuffer storage, for example when the
	// presenter window changes size.
	Resize(width, height uint32)

	SetDepthTest(enabled bool)
	SetDepthWrite(enabled bool)
	SetBlend(enabled bool, src, dst BlendFactor)
	// SetStencil configures the stencil test. mask limits both the
	// compared bits and the bits the ops may write.
	SetStencil(enabled bool, fn CompareFunc, ref, mask uint8, fail, zfail, zpass StencilOp)
	// SetPolygonOffset biases written depth values, used by the shadow
	// pass to keep casters from shadowing themselves.
	SetPolygonOffset(enabled bool, factor, units float32)

	SetViewport(v Viewport)
	Viewport() Viewport
	// PushViewport saves the current viewport and applies v. Passes that
	// render at a different resolution must pair it with PopViewport on
	// every exit path.
	PushViewport(v Viewport)
	PopViewport()

	// BindTexture attaches a texture to a slot of the global convention.
	// A nil texture unbinds the slot.
	BindTexture(slot uint8, texture *resources.Texture)

	Draw(geometry *resources.Geometry, program *Program)
	// DrawInstanced draws one instance per model matrix. The per-instance
	// transforms travel on this dedicated channel, never through the
	// parameter sets.
	DrawInstanced(geometry *resources.Geometry, program *Program, instances []mgl32.Mat4)

	// ReadTarget copies back the target's color pixels, row major from the
	// top-left, for tests and screenshots.
	ReadTarget(target *resources.Target) ([]mgl32.Vec4, error)
	// Backbuffer converts the presented image to 8-bit RGBA.
	Backbuffer() *image.RGBA

	FrameStats() FrameStats
	ResetFrameStats()
}
