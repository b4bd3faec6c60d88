package soft

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// depthOffsetEpsilon stands in for the smallest resolvable depth step in
// the polygon offset equation.
const depthOffsetEpsilon = 1e-5

// shaded is one vertex after the vertex stage, with its screen position
// and the reciprocal clip w used for perspective-correct interpolation.
type shaded struct {
	sx   float32
	sy   float32
	z    float32
	invW float32
	out  renderer.VertexOut
}

// drawGeometry runs the vertex stage over every triangle and rasterizes
// the survivors. Triangles with any vertex at w <= 0 are dropped whole;
// there is no near-plane clipping.
func (d *Device) drawGeometry(geo *resources.Geometry, prog *renderer.Program, instance mgl32.Mat4) {
	pass := prog.Params
	mat := prog.MaterialParams()
	vp := d.viewport

	for i := 0; i+2 < len(geo.Indices); i += 3 {
		var tri [3]shaded
		behind := false
		for k := 0; k < 3; k++ {
			out := prog.Vertex(pass, mat, geo.Vertices[geo.Indices[i+k]], instance)
			w := out.Position.W()
			if w <= 0 {
				behind = true
				break
			}
			invW := 1 / w
			ndcX := out.Position.X() * invW
			ndcY := out.Position.Y() * invW
			tri[k] = shaded{
				sx:   float32(vp.X) + (ndcX+1)*0.5*float32(vp.Width),
				sy:   float32(vp.Y) + (1-ndcY)*0.5*float32(vp.Height),
				z:    out.Position.Z() * invW,
				invW: invW,
				out:  out,
			}
		}
		if behind {
			continue
		}
		d.rasterTriangle(prog, tri)
	}
}

func (d *Device) rasterTriangle(prog *renderer.Program, tri [3]shaded) {
	t := d.bound
	vp := d.viewport

	area := edge(tri[0].sx, tri[0].sy, tri[1].sx, tri[1].sy, tri[2].sx, tri[2].sy)
	if area == 0 {
		return
	}
	// Dividing by the signed area normalizes the barycentric signs, so
	// both windings rasterize; there is no backface culling.
	invArea := 1 / area

	minX := int32(math.Floor(min(tri[0].sx, tri[1].sx, tri[2].sx)))
	maxX := int32(math.Floor(max(tri[0].sx, tri[1].sx, tri[2].sx))) + 1
	minY := int32(math.Floor(min(tri[0].sy, tri[1].sy, tri[2].sy)))
	maxY := int32(math.Floor(max(tri[0].sy, tri[1].sy, tri[2].sy))) + 1

	minX = max(minX, vp.X, 0)
	maxX = min(maxX, vp.X+vp.Width, t.width)
	minY = max(minY, vp.Y, 0)
	maxY = min(maxY, vp.Y+vp.Height, t.height)
	if minX >= maxX || minY >= maxY {
		return
	}

	offset := float32(0)
	if d.offsetEnabled {
		offset = d.depthOffset(tri)
	}

	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			b0 := edge(tri[1].sx, tri[1].sy, tri[2].sx, tri[2].sy, px, py) * invArea
			b1 := edge(tri[2].sx, tri[2].sy, tri[0].sx, tri[0].sy, px, py) * invArea
			b2 := edge(tri[0].sx, tri[0].sy, tri[1].sx, tri[1].sy, px, py) * invArea
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}
			d.shadeFragment(prog, t, y*t.width+x, tri, b0, b1, b2, offset)
		}
	}
}

// shadeFragment applies the per-fragment pipeline in order: stencil test,
// depth test, fragment stage, then buffer writes. A discarded fragment
// skips every write, including stencil.
func (d *Device) shadeFragment(prog *renderer.Program, t *target, idx int32, tri [3]shaded, b0, b1, b2, offset float32) {
	useStencil := d.stencilEnabled && t.stencil != nil
	if useStencil && !stencilCompare(d.stencilFn, d.stencilRef&d.stencilMask, t.stencil[idx]&d.stencilMask) {
		d.applyStencilOp(t, idx, d.stencilFail)
		return
	}

	z := b0*tri[0].z + b1*tri[1].z + b2*tri[2].z + offset
	if d.depthTest && t.depth != nil && !(z < t.depth[idx]) {
		if useStencil {
			d.applyStencilOp(t, idx, d.stencilZFail)
		}
		return
	}

	var color mgl32.Vec4
	hasColor := false
	if prog.Fragment != nil && t.color != nil {
		out, keep := prog.Fragment(prog.Params, prog.MaterialParams(), d, interpolate(tri, b0, b1, b2))
		if !keep {
			return
		}
		color = out
		hasColor = true
	}

	if useStencil {
		d.applyStencilOp(t, idx, d.stencilZPass)
	}
	if d.depthTest && d.depthWrite && t.depth != nil {
		t.depth[idx] = z
	}
	if hasColor {
		if d.blendEnabled {
			color = blend(color, t.color.pixels[idx], d.blendSrc, d.blendDst)
		}
		t.color.pixels[idx] = color
	}
}

// interpolate builds the fragment varyings with perspective correction:
// each weight is scaled by its vertex's 1/w and renormalized.
func interpolate(tri [3]shaded, b0, b1, b2 float32) renderer.Fragment {
	w0 := b0 * tri[0].invW
	w1 := b1 * tri[1].invW
	w2 := b2 * tri[2].invW
	if sum := w0 + w1 + w2; sum != 0 {
		inv := 1 / sum
		w0 *= inv
		w1 *= inv
		w2 *= inv
	}
	return renderer.Fragment{
		World:    tri[0].out.World.Mul(w0).Add(tri[1].out.World.Mul(w1)).Add(tri[2].out.World.Mul(w2)),
		Normal:   tri[0].out.Normal.Mul(w0).Add(tri[1].out.Normal.Mul(w1)).Add(tri[2].out.Normal.Mul(w2)),
		Texcoord: tri[0].out.Texcoord.Mul(w0).Add(tri[1].out.Texcoord.Mul(w1)).Add(tri[2].out.Texcoord.Mul(w2)),
		Color:    tri[0].out.Color.Mul(w0).Add(tri[1].out.Color.Mul(w1)).Add(tri[2].out.Color.Mul(w2)),
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// depthOffset evaluates factor*m + units*epsilon where m is the maximum
// depth slope of the triangle in screen space.
func (d *Device) depthOffset(tri [3]shaded) float32 {
	dx1 := tri[1].sx - tri[0].sx
	dy1 := tri[1].sy - tri[0].sy
	dz1 := tri[1].z - tri[0].z
	dx2 := tri[2].sx - tri[0].sx
	dy2 := tri[2].sy - tri[0].sy
	dz2 := tri[2].z - tri[0].z

	slope := float32(0)
	if det := dx1*dy2 - dx2*dy1; det != 0 {
		dzdx := (dz1*dy2 - dz2*dy1) / det
		dzdy := (dx1*dz2 - dx2*dz1) / det
		slope = max(math.Abs(dzdx), math.Abs(dzdy))
	}
	return d.offsetFactor*slope + d.offsetUnits*depthOffsetEpsilon
}

func blend(src, dst mgl32.Vec4, sf, df renderer.BlendFactor) mgl32.Vec4 {
	return src.Mul(blendWeight(sf, src.W())).Add(dst.Mul(blendWeight(df, src.W())))
}

func blendWeight(f renderer.BlendFactor, srcAlpha float32) float32 {
	switch f {
	case renderer.BlendZero:
		return 0
	case renderer.BlendSrcAlpha:
		return srcAlpha
	case renderer.BlendOneMinusSrcAlpha:
		return 1 - srcAlpha
	default:
		return 1
	}
}

func stencilCompare(fn renderer.CompareFunc, ref, stored uint8) bool {
	switch fn {
	case renderer.CompareNever:
		return false
	case renderer.CompareEqual:
		return ref == stored
	case renderer.CompareNotEqual:
		return ref != stored
	default:
		return true
	}
}

func (d *Device) applyStencilOp(t *target, idx int32, op renderer.StencilOp) {
	var value uint8
	switch op {
	case renderer.StencilZero:
		value = 0
	case renderer.StencilReplace:
		value = d.stencilRef
	default:
		return
	}
	// The write mask protects bits outside the mask from the op.
	t.stencil[idx] = (t.stencil[idx] &^ d.stencilMask) | (value & d.stencilMask)
}
