package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/math"
)

// ToneMode selects the tone reproduction operator that maps HDR scene
// color down to the displayable range. The values match the `mode` integer
// in the renderer config file.
type ToneMode int32

const (
	// ToneReinhard is the plain c/(1+c) curve.
	ToneReinhard ToneMode = iota
	// ToneReinhardExtended normalizes Reinhard so the configured white
	// point maps to exactly 1.
	ToneReinhardExtended
	// ToneExposure is the photographic 1-e^(-c*exposure) curve.
	ToneExposure
	// ToneACES is Hill's fitted approximation of the ACES RRT+ODT.
	ToneACES
	// ToneHable is the Uncharted filmic curve.
	ToneHable
	// ToneClamp applies no curve, only the final clamp. Useful to inspect
	// raw scene values and to verify stage ordering.
	ToneClamp

	toneModeCount
)

func (m ToneMode) Valid() bool {
	return m >= ToneReinhard && m < toneModeCount
}

func (m ToneMode) String() string {
	switch m {
	case ToneReinhard:
		return "reinhard"
	case ToneReinhardExtended:
		return "reinhard-extended"
	case ToneExposure:
		return "exposure"
	case ToneACES:
		return "aces"
	case ToneHable:
		return "hable"
	case ToneClamp:
		return "clamp"
	}
	return "unknown"
}

// ToneMap applies the selected operator to one HDR color and returns a
// display-referred color clamped to [0,1]. Exposure scales the input for
// every operator except plain Reinhard; the exposure operator instead
// consumes it inside its own formula. Unknown modes degrade to the clamp.
func ToneMap(c mgl32.Vec3, mode ToneMode, exposure, whitePoint float32) mgl32.Vec3 {
	switch mode {
	case ToneReinhard:
		c = reinhard(c)
	case ToneReinhardExtended:
		c = reinhardExtended(c.Mul(exposure), whitePoint)
	case ToneExposure:
		c = exposureMap(c, exposure)
	case ToneACES:
		c = acesFitted(c.Mul(exposure))
	case ToneHable:
		c = hable(c.Mul(exposure), whitePoint)
	case ToneClamp:
	}
	return mgl32.Vec3{
		math.Saturate(c.X()),
		math.Saturate(c.Y()),
		math.Saturate(c.Z()),
	}
}

func reinhard(c mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		c.X() / (1 + c.X()),
		c.Y() / (1 + c.Y()),
		c.Z() / (1 + c.Z()),
	}
}

func reinhardExtended(c mgl32.Vec3, whitePoint float32) mgl32.Vec3 {
	w := max(whitePoint, 1e-4)
	w2 := w * w
	f := func(x float32) float32 {
		return x * (1 + x/w2) / (1 + x)
	}
	return mgl32.Vec3{f(c.X()), f(c.Y()), f(c.Z())}
}

func exposureMap(c mgl32.Vec3, exposure float32) mgl32.Vec3 {
	return mgl32.Vec3{
		1 - math.Exp(-c.X()*exposure),
		1 - math.Exp(-c.Y()*exposure),
		1 - math.Exp(-c.Z()*exposure),
	}
}

// acesFitted is Stephen Hill's fit: an input transform into ACES space, a
// rational curve per channel, and a transform back to sRGB primaries.
func acesFitted(c mgl32.Vec3) mgl32.Vec3 {
	v := mgl32.Vec3{
		0.59719*c.X() + 0.35458*c.Y() + 0.04823*c.Z(),
		0.07600*c.X() + 0.90834*c.Y() + 0.01566*c.Z(),
		0.02840*c.X() + 0.13383*c.Y() + 0.83777*c.Z(),
	}
	fit := func(x float32) float32 {
		return (x*(x+0.0245786) - 0.000090537) / (x*(0.983729*x+0.4329510) + 0.238081)
	}
	v = mgl32.Vec3{fit(v.X()), fit(v.Y()), fit(v.Z())}
	return mgl32.Vec3{
		1.60475*v.X() - 0.53108*v.Y() - 0.07367*v.Z(),
		-0.10208*v.X() + 1.10813*v.Y() - 0.00605*v.Z(),
		-0.00327*v.X() - 0.07276*v.Y() + 1.07602*v.Z(),
	}
}

// Hable curve constants: shoulder strength, linear strength, linear angle,
// toe strength, toe numerator, toe denominator.
const (
	hableA = 0.15
	hableB = 0.50
	hableC = 0.10
	hableD = 0.20
	hableE = 0.02
	hableF = 0.30
)

func hablePartial(x float32) float32 {
	return (x*(hableA*x+hableC*hableB)+hableD*hableE)/(x*(hableA*x+hableB)+hableD*hableF) - hableE/hableF
}

func hable(c mgl32.Vec3, whitePoint float32) mgl32.Vec3 {
	w := max(whitePoint, 1e-3)
	scale := 1 / max(hablePartial(w), 1e-6)
	return mgl32.Vec3{
		hablePartial(c.X()) * scale,
		hablePartial(c.Y()) * scale,
		hablePartial(c.Z()) * scale,
	}
}
