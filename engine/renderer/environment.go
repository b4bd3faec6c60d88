package renderer

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// Procedural environment dimensions. The irradiance map is deliberately
// tiny: it stores a fully blurred sky, so resolution adds nothing.
const (
	irradianceWidth  = 32
	irradianceHeight = 16
	reflectionWidth  = 128
	reflectionHeight = 64
	brdfLookupSize   = 64

	environmentMaxDetail = 4
)

// NewProceduralEnvironment builds a complete environment set from a
// synthetic clear-sky model: an equirectangular irradiance map, a sharper
// reflection map with an HDR sun disc, and the split-sum BRDF lookup.
// Handy wherever captured environment maps are not available.
func NewProceduralEnvironment(device Device, intensity float32) (EnvironmentSet, error) {
	sun := mgl32.Vec3{0.35, 0.65, 0.25}.Normalize()

	irradiance, err := buildSkyTexture(device, "environment_irradiance", irradianceWidth, irradianceHeight, sun, false)
	if err != nil {
		return EnvironmentSet{}, err
	}
	reflection, err := buildSkyTexture(device, "environment_reflection", reflectionWidth, reflectionHeight, sun, true)
	if err != nil {
		device.DestroyTexture(irradiance)
		return EnvironmentSet{}, err
	}
	brdf, err := buildBRDFLookup(device, brdfLookupSize)
	if err != nil {
		device.DestroyTexture(irradiance)
		device.DestroyTexture(reflection)
		return EnvironmentSet{}, err
	}

	return EnvironmentSet{
		Enabled:    true,
		Irradiance: irradiance,
		Reflection: reflection,
		BRDFLookup: brdf,
		Intensity:  intensity,
		MaxDetail:  environmentMaxDetail,
	}, nil
}

// DestroyEnvironment releases the textures referenced by the set and
// zeroes it.
func DestroyEnvironment(device Device, env *EnvironmentSet) {
	for _, tex := range []*resources.Texture{env.Irradiance, env.Reflection, env.BRDFLookup} {
		if tex != nil {
			device.DestroyTexture(tex)
		}
	}
	*env = EnvironmentSet{}
}

// buildSkyTexture renders the sky model into an equirectangular texture,
// +Y at the top row. withSun adds an HDR sun disc bright enough to push
// reflections over any sensible bloom threshold.
func buildSkyTexture(device Device, name string, width, height uint32, sun mgl32.Vec3, withSun bool) (*resources.Texture, error) {
	pixels := make([]float32, 0, width*height*4)
	for y := uint32(0); y < height; y++ {
		v := (float32(y) + 0.5) / float32(height)
		theta := (0.5 - v) * gomath.Pi
		dirY := math.Sin(theta)
		ring := math.Cos(theta)
		for x := uint32(0); x < width; x++ {
			u := (float32(x) + 0.5) / float32(width)
			phi := (u - 0.5) * 2 * gomath.Pi
			dir := mgl32.Vec3{ring * math.Cos(phi), dirY, ring * math.Sin(phi)}

			c := skyGradient(dir, sun)
			if withSun && dir.Dot(sun) > 0.995 {
				c = mgl32.Vec3{20, 18, 15}
			}
			pixels = append(pixels, c.X(), c.Y(), c.Z(), 1)
		}
	}

	tex := &resources.Texture{
		Name:   name,
		Kind:   resources.TextureKind2D,
		Format: resources.TextureFormatRGBA32F,
		Filter: resources.TextureFilterLinear,
		Repeat: resources.TextureRepeatWrap,
		Width:  width,
		Height: height,
		Depth:  1,
	}
	if err := device.CreateTexture(tex, pixels); err != nil {
		return nil, err
	}
	return tex, nil
}

// skyGradient is the shared clear-sky palette: blue zenith, warm horizon,
// dim ground, with a soft glow around the sun direction.
func skyGradient(dir, sun mgl32.Vec3) mgl32.Vec3 {
	horizon := mgl32.Vec3{0.82, 0.75, 0.64}
	zenith := mgl32.Vec3{0.28, 0.42, 0.66}
	ground := mgl32.Vec3{0.23, 0.2, 0.17}

	var c mgl32.Vec3
	if dir.Y() >= 0 {
		c = lerpV3(horizon, zenith, math.Saturate(dir.Y()))
	} else {
		c = lerpV3(horizon, ground, math.Saturate(-dir.Y()))
	}
	glow := math.Pow(max(dir.Dot(sun), 0), 8)
	return c.Add(mgl32.Vec3{0.9, 0.7, 0.45}.Mul(glow * 0.35))
}

// buildBRDFLookup fills the split-sum environment BRDF table with the
// analytic approximation from Karis' mobile notes: u is N dot V, v is
// roughness, output channels are the scale and bias applied to F0.
func buildBRDFLookup(device Device, size uint32) (*resources.Texture, error) {
	c0 := mgl32.Vec4{-1, -0.0275, -0.572, 0.022}
	c1 := mgl32.Vec4{1, 0.0425, 1.04, -0.04}

	pixels := make([]float32, 0, size*size*4)
	for y := uint32(0); y < size; y++ {
		roughness := (float32(y) + 0.5) / float32(size)
		for x := uint32(0); x < size; x++ {
			nov := (float32(x) + 0.5) / float32(size)
			r := c0.Mul(roughness).Add(c1)
			a004 := min(r.X()*r.X(), math.Pow(2, -9.28*nov))*r.X() + r.Y()
			a := -1.04*a004 + r.Z()
			b := 1.04*a004 + r.W()
			pixels = append(pixels, a, b, 0, 1)
		}
	}

	tex := &resources.Texture{
		Name:   "environment_brdf_lut",
		Kind:   resources.TextureKind2D,
		Format: resources.TextureFormatRGBA32F,
		Filter: resources.TextureFilterLinear,
		Repeat: resources.TextureRepeatClamp,
		Width:  size,
		Height: size,
		Depth:  1,
	}
	if err := device.CreateTexture(tex, pixels); err != nil {
		return nil, err
	}
	return tex, nil
}
