package soft

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// Bound reports whether the slot holds a live texture.
func (d *Device) Bound(slot uint8) bool {
	if slot >= renderer.SlotCount {
		return false
	}
	tex := d.units[slot]
	return tex != nil && tex.InternalData != nil
}

func (d *Device) resolve(slot uint8) *texture {
	if slot >= renderer.SlotCount {
		return nil
	}
	tex := d.units[slot]
	if tex == nil {
		return nil
	}
	st, _ := tex.InternalData.(*texture)
	return st
}

// Sample2D reads a 2D texture with its own filter and repeat settings.
// Texcoord v=0 is the top row. Unbound slots sample as zero.
func (d *Device) Sample2D(slot uint8, uv mgl32.Vec2) mgl32.Vec4 {
	st := d.resolve(slot)
	if st == nil {
		return mgl32.Vec4{}
	}
	return st.sample2D(uv.X(), uv.Y())
}

// Sample3D reads a volume texture, trilinear when the filter is linear.
// Grading tables index the volume as (r, g, b).
func (d *Device) Sample3D(slot uint8, coord mgl32.Vec3) mgl32.Vec4 {
	st := d.resolve(slot)
	if st == nil {
		return mgl32.Vec4{}
	}
	return st.sample3D(coord.X(), coord.Y(), coord.Z())
}

// SampleDepth reads a depth attachment with nearest filtering. Anything
// outside [0,1] returns 1, the far plane, so lookups beyond a shadow map
// count as lit.
func (d *Device) SampleDepth(slot uint8, uv mgl32.Vec2) float32 {
	if slot >= renderer.SlotCount {
		return 1
	}
	tex := d.units[slot]
	if tex == nil {
		return 1
	}
	st, ok := tex.InternalData.(*target)
	if !ok || st.depth == nil {
		return 1
	}
	u, v := uv.X(), uv.Y()
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 1
	}
	x := math.Clamp(int32(u*float32(st.width)), 0, st.width-1)
	y := math.Clamp(int32(v*float32(st.height)), 0, st.height-1)
	return st.depth[y*st.width+x]
}

func (t *texture) sample2D(u, v float32) mgl32.Vec4 {
	if t.filter == resources.TextureFilterNearest {
		x := wrapIndex(int32(math.Floor(u*float32(t.width))), t.width, t.repeat)
		y := wrapIndex(int32(math.Floor(v*float32(t.height))), t.height, t.repeat)
		return t.texel2D(x, y)
	}

	fx := u*float32(t.width) - 0.5
	fy := v*float32(t.height) - 0.5
	x0 := int32(math.Floor(fx))
	y0 := int32(math.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := t.texel2D(x0, y0)
	c10 := t.texel2D(x0+1, y0)
	c01 := t.texel2D(x0, y0+1)
	c11 := t.texel2D(x0+1, y0+1)
	top := lerpV4(c00, c10, tx)
	bottom := lerpV4(c01, c11, tx)
	return lerpV4(top, bottom, ty)
}

func (t *texture) sample3D(u, v, w float32) mgl32.Vec4 {
	if t.filter == resources.TextureFilterNearest {
		x := wrapIndex(int32(math.Floor(u*float32(t.width))), t.width, t.repeat)
		y := wrapIndex(int32(math.Floor(v*float32(t.height))), t.height, t.repeat)
		z := wrapIndex(int32(math.Floor(w*float32(t.depth))), t.depth, t.repeat)
		return t.texel3D(x, y, z)
	}

	fx := u*float32(t.width) - 0.5
	fy := v*float32(t.height) - 0.5
	fz := w*float32(t.depth) - 0.5
	x0 := int32(math.Floor(fx))
	y0 := int32(math.Floor(fy))
	z0 := int32(math.Floor(fz))
	tx := fx - float32(x0)
	ty := fy - float32(y0)
	tz := fz - float32(z0)

	near := lerpV4(
		lerpV4(t.texel3D(x0, y0, z0), t.texel3D(x0+1, y0, z0), tx),
		lerpV4(t.texel3D(x0, y0+1, z0), t.texel3D(x0+1, y0+1, z0), tx),
		ty)
	far := lerpV4(
		lerpV4(t.texel3D(x0, y0, z0+1), t.texel3D(x0+1, y0, z0+1), tx),
		lerpV4(t.texel3D(x0, y0+1, z0+1), t.texel3D(x0+1, y0+1, z0+1), tx),
		ty)
	return lerpV4(near, far, tz)
}

func (t *texture) texel2D(x, y int32) mgl32.Vec4 {
	x = wrapIndex(x, t.width, t.repeat)
	y = wrapIndex(y, t.height, t.repeat)
	return t.pixels[y*t.width+x]
}

func (t *texture) texel3D(x, y, z int32) mgl32.Vec4 {
	x = wrapIndex(x, t.width, t.repeat)
	y = wrapIndex(y, t.height, t.repeat)
	z = wrapIndex(z, t.depth, t.repeat)
	return t.pixels[(z*t.height+y)*t.width+x]
}

func wrapIndex(i, n int32, mode resources.TextureRepeat) int32 {
	if n <= 0 {
		return 0
	}
	if mode == resources.TextureRepeatWrap {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return math.Clamp(i, 0, n-1)
}

func lerpV4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}
