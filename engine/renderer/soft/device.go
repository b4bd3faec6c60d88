// Package soft is a pure-Go software rasterizer implementing the renderer
// device contract. It renders into plain float buffers, which makes it
// usable headless, presentable in a terminal and easy to assert against
// in tests.
package soft

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/core"
	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// texture is the device-side storage behind a created texture: float
// pixels addressed (z*height+y)*width+x, row zero at the top.
type texture struct {
	width  int32
	height int32
	depth  int32
	pixels []mgl32.Vec4
	filter resources.TextureFilter
	repeat resources.TextureRepeat
}

// target is the device-side storage behind a render target. color is nil
// on depth-only targets.
type target struct {
	width   int32
	height  int32
	color   *texture
	depth   []float32
	stencil []uint8
}

// Device rasterizes draw submissions on the CPU. It is not goroutine
// safe; all calls for a frame must come from one goroutine.
type Device struct {
	width  uint32
	height uint32

	backbuffer *target
	bound      *target

	units [renderer.SlotCount]*resources.Texture

	textureIDs  *core.IDPool
	targetIDs   *core.IDPool
	geometryIDs *core.IDPool
	programIDs  *core.IDPool

	depthTest  bool
	depthWrite bool

	blendEnabled bool
	blendSrc     renderer.BlendFactor
	blendDst     renderer.BlendFactor

	stencilEnabled bool
	stencilFn      renderer.CompareFunc
	stencilRef     uint8
	stencilMask    uint8
	stencilFail    renderer.StencilOp
	stencilZFail   renderer.StencilOp
	stencilZPass   renderer.StencilOp

	offsetEnabled bool
	offsetFactor  float32
	offsetUnits   float32

	viewport      renderer.Viewport
	viewportStack []renderer.Viewport

	stats renderer.FrameStats
}

var (
	_ renderer.Device  = (*Device)(nil)
	_ renderer.Sampler = (*Device)(nil)
)

// New creates a device with a backbuffer of the given size. Zero
// dimensions are clamped to one pixel so New never fails.
func New(width, height uint32) *Device {
	if width == 0 || height == 0 {
		core.LogWarn("backbuffer size %dx%d clamped to 1x1", width, height)
		width = max(width, 1)
		height = max(height, 1)
	}
	d := &Device{
		width:       width,
		height:      height,
		textureIDs:  core.NewIDPool(),
		targetIDs:   core.NewIDPool(),
		geometryIDs: core.NewIDPool(),
		programIDs:  core.NewIDPool(),
		depthWrite:  true,
		stencilMask: 0xFF,
	}
	d.backbuffer = newTargetStorage(width, height, true, true, true)
	d.bound = d.backbuffer
	d.viewport = renderer.Viewport{Width: int32(width), Height: int32(height)}
	return d
}

func newTargetStorage(width, height uint32, withColor, withDepth, withStencil bool) *target {
	t := &target{width: int32(width), height: int32(height)}
	count := int(width) * int(height)
	if withColor {
		t.color = &texture{
			width:  int32(width),
			height: int32(height),
			depth:  1,
			pixels: make([]mgl32.Vec4, count),
			filter: resources.TextureFilterLinear,
			repeat: resources.TextureRepeatClamp,
		}
	}
	if withDepth {
		t.depth = make([]float32, count)
		for i := range t.depth {
			t.depth[i] = 1
		}
	}
	if withStencil {
		t.stencil = make([]uint8, count)
	}
	return t
}

// Resize replaces the backbuffer storage. Previous contents are lost.
func (d *Device) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		core.LogWarn("ignoring backbuffer resize to %dx%d", width, height)
		return
	}
	rebound := d.bound == d.backbuffer
	d.backbuffer = newTargetStorage(width, height, true, true, true)
	d.width = width
	d.height = height
	if rebound {
		d.bound = d.backbuffer
		d.viewport = renderer.Viewport{Width: int32(width), Height: int32(height)}
	}
}

func (d *Device) CreateTexture(tex *resources.Texture, pixels []float32) error {
	if tex == nil {
		return errors.New("nil texture")
	}
	if tex.Width == 0 || tex.Height == 0 {
		return fmt.Errorf("texture %q has zero dimensions", tex.Name)
	}
	if tex.Format == resources.TextureFormatDepth32F {
		return fmt.Errorf("texture %q: depth textures are created by their target", tex.Name)
	}
	depth := tex.Depth
	if depth == 0 {
		depth = 1
	}
	count := int(tex.Width) * int(tex.Height) * int(depth)
	if pixels != nil && len(pixels) != count*4 {
		return fmt.Errorf("texture %q: expected %d floats, got %d", tex.Name, count*4, len(pixels))
	}
	st := &texture{
		width:  int32(tex.Width),
		height: int32(tex.Height),
		depth:  int32(depth),
		pixels: make([]mgl32.Vec4, count),
		filter: tex.Filter,
		repeat: tex.Repeat,
	}
	if pixels != nil {
		for i := 0; i < count; i++ {
			st.pixels[i] = mgl32.Vec4{pixels[i*4], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3]}
		}
	}
	tex.ID = d.textureIDs.Acquire(tex)
	tex.Generation++
	tex.InternalData = st
	return nil
}

func (d *Device) DestroyTexture(tex *resources.Texture) {
	if tex == nil || tex.InternalData == nil {
		return
	}
	if err := d.textureIDs.Release(tex.ID); err != nil {
		core.LogWarn("%s", err.Error())
	}
	tex.InternalData = nil
}

func (d *Device) CreateTarget(t *resources.Target) error {
	if t == nil {
		return errors.New("nil target")
	}
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("target %q has zero dimensions", t.Name)
	}
	depthOnly := t.Format == resources.TextureFormatDepth32F
	count := int(t.Width) * int(t.Height)
	st := &target{width: int32(t.Width), height: int32(t.Height)}

	if depthOnly {
		t.HasDepth = true
	} else {
		st.color = &texture{
			width:  st.width,
			height: st.height,
			depth:  1,
			pixels: make([]mgl32.Vec4, count),
			filter: resources.TextureFilterLinear,
			repeat: resources.TextureRepeatClamp,
		}
		t.Color = &resources.Texture{
			Name:         t.Name + "_color",
			Kind:         resources.TextureKind2D,
			Format:       t.Format,
			Filter:       resources.TextureFilterLinear,
			Repeat:       resources.TextureRepeatClamp,
			Width:        t.Width,
			Height:       t.Height,
			Depth:        1,
			InternalData: st.color,
		}
	}
	if t.HasDepth {
		st.depth = make([]float32, count)
		for i := range st.depth {
			st.depth[i] = 1
		}
		t.Depth = &resources.Texture{
			Name:         t.Name + "_depth",
			Kind:         resources.TextureKindDepth,
			Format:       resources.TextureFormatDepth32F,
			Filter:       resources.TextureFilterNearest,
			Repeat:       resources.TextureRepeatClamp,
			Width:        t.Width,
			Height:       t.Height,
			Depth:        1,
			InternalData: st,
		}
	}
	if t.HasStencil {
		st.stencil = make([]uint8, count)
	}

	t.ID = d.targetIDs.Acquire(t)
	t.InternalData = st
	return nil
}

func (d *Device) DestroyTarget(t *resources.Target) {
	if t == nil || t.InternalData == nil {
		return
	}
	if st, ok := t.InternalData.(*target); ok && d.bound == st {
		d.bound = d.backbuffer
	}
	if err := d.targetIDs.Release(t.ID); err != nil {
		core.LogWarn("%s", err.Error())
	}
	if t.Color != nil {
		t.Color.InternalData = nil
	}
	if t.Depth != nil {
		t.Depth.InternalData = nil
	}
	t.InternalData = nil
}

func (d *Device) CreateGeometry(geo *resources.Geometry) error {
	if geo == nil {
		return errors.New("nil geometry")
	}
	if len(geo.Vertices) == 0 {
		return fmt.Errorf("geometry %q has no vertices", geo.Name)
	}
	if len(geo.Indices) == 0 || len(geo.Indices)%3 != 0 {
		return fmt.Errorf("geometry %q: index count %d is not a multiple of three", geo.Name, len(geo.Indices))
	}
	for _, idx := range geo.Indices {
		if int(idx) >= len(geo.Vertices) {
			return fmt.Errorf("geometry %q: index %d out of range", geo.Name, idx)
		}
	}
	geo.ID = d.geometryIDs.Acquire(geo)
	geo.Generation++
	geo.InternalData = d
	return nil
}

func (d *Device) DestroyGeometry(geo *resources.Geometry) {
	if geo == nil || geo.InternalData == nil {
		return
	}
	if err := d.geometryIDs.Release(geo.ID); err != nil {
		core.LogWarn("%s", err.Error())
	}
	geo.InternalData = nil
}

func (d *Device) CreateProgram(p *renderer.Program) error {
	if p == nil {
		return errors.New("nil program")
	}
	if p.Vertex == nil {
		return fmt.Errorf("program %q has no vertex stage", p.Name)
	}
	p.ID = d.programIDs.Acquire(p)
	p.InternalData = d
	return nil
}

func (d *Device) DestroyProgram(p *renderer.Program) {
	if p == nil || p.InternalData == nil {
		return
	}
	if err := d.programIDs.Release(p.ID); err != nil {
		core.LogWarn("%s", err.Error())
	}
	p.InternalData = nil
}

func (d *Device) BindTarget(t *resources.Target) {
	if t == nil {
		d.bound = d.backbuffer
		return
	}
	st, ok := t.InternalData.(*target)
	if !ok {
		core.LogError("cannot bind target %q, it was not created on this device", t.Name)
		return
	}
	d.bound = st
}

// Clear fills the selected attachments of the bound target over its full
// extent, independent of the viewport.
func (d *Device) Clear(flags renderer.ClearFlags, color mgl32.Vec4) {
	t := d.bound
	if flags&renderer.ClearColorBuffer != 0 && t.color != nil {
		for i := range t.color.pixels {
			t.color.pixels[i] = color
		}
	}
	if flags&renderer.ClearDepthBuffer != 0 && t.depth != nil {
		for i := range t.depth {
			t.depth[i] = 1
		}
	}
	if flags&renderer.ClearStencilBuffer != 0 && t.stencil != nil {
		for i := range t.stencil {
			t.stencil[i] = 0
		}
	}
}

func (d *Device) SetDepthTest(enabled bool)  { d.depthTest = enabled }
func (d *Device) SetDepthWrite(enabled bool) { d.depthWrite = enabled }

func (d *Device) SetBlend(enabled bool, src, dst renderer.BlendFactor) {
	d.blendEnabled = enabled
	d.blendSrc = src
	d.blendDst = dst
}

func (d *Device) SetStencil(enabled bool, fn renderer.CompareFunc, ref, mask uint8, fail, zfail, zpass renderer.StencilOp) {
	d.stencilEnabled = enabled
	d.stencilFn = fn
	d.stencilRef = ref
	d.stencilMask = mask
	d.stencilFail = fail
	d.stencilZFail = zfail
	d.stencilZPass = zpass
}

func (d *Device) SetPolygonOffset(enabled bool, factor, units float32) {
	d.offsetEnabled = enabled
	d.offsetFactor = factor
	d.offsetUnits = units
}

func (d *Device) SetViewport(v renderer.Viewport) { d.viewport = v }
func (d *Device) Viewport() renderer.Viewport     { return d.viewport }

func (d *Device) PushViewport(v renderer.Viewport) {
	d.viewportStack = append(d.viewportStack, d.viewport)
	d.viewport = v
}

func (d *Device) PopViewport() {
	if len(d.viewportStack) == 0 {
		core.LogWarn("viewport pop with an empty stack")
		return
	}
	d.viewport = d.viewportStack[len(d.viewportStack)-1]
	d.viewportStack = d.viewportStack[:len(d.viewportStack)-1]
}

func (d *Device) BindTexture(slot uint8, tex *resources.Texture) {
	if slot >= renderer.SlotCount {
		core.LogWarn("texture slot %d out of range", slot)
		return
	}
	d.units[slot] = tex
}

func (d *Device) Draw(geo *resources.Geometry, prog *renderer.Program) {
	if !d.drawable(geo, prog) {
		return
	}
	d.stats.DrawCalls++
	d.stats.Triangles += len(geo.Indices) / 3
	d.drawGeometry(geo, prog, mgl32.Ident4())
}

func (d *Device) DrawInstanced(geo *resources.Geometry, prog *renderer.Program, instances []mgl32.Mat4) {
	if !d.drawable(geo, prog) || len(instances) == 0 {
		return
	}
	d.stats.DrawCalls++
	d.stats.Instances += len(instances)
	d.stats.Triangles += len(geo.Indices) / 3 * len(instances)
	for _, instance := range instances {
		d.drawGeometry(geo, prog, instance)
	}
}

func (d *Device) drawable(geo *resources.Geometry, prog *renderer.Program) bool {
	if geo == nil || geo.InternalData == nil {
		core.LogError("draw submitted with a geometry that was never created, dropping")
		return false
	}
	if prog == nil || prog.InternalData == nil || prog.Vertex == nil {
		core.LogError("draw submitted with a program that was never created, dropping")
		return false
	}
	return true
}

func (d *Device) ReadTarget(t *resources.Target) ([]mgl32.Vec4, error) {
	if t == nil {
		return nil, errors.New("nil target")
	}
	st, ok := t.InternalData.(*target)
	if !ok {
		return nil, fmt.Errorf("target %q was not created on this device", t.Name)
	}
	if st.color == nil {
		return nil, fmt.Errorf("target %q is depth-only, it has no color pixels", t.Name)
	}
	out := make([]mgl32.Vec4, len(st.color.pixels))
	copy(out, st.color.pixels)
	return out, nil
}

func (d *Device) Backbuffer() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(d.width), int(d.height)))
	for i, c := range d.backbuffer.color.pixels {
		img.Pix[i*4+0] = colorByte(c.X())
		img.Pix[i*4+1] = colorByte(c.Y())
		img.Pix[i*4+2] = colorByte(c.Z())
		img.Pix[i*4+3] = colorByte(c.W())
	}
	return img
}

func colorByte(v float32) uint8 {
	return uint8(math.Saturate(v)*255 + 0.5)
}

func (d *Device) FrameStats() renderer.FrameStats { return d.stats }
func (d *Device) ResetFrameStats()                { d.stats = renderer.FrameStats{} }
