package renderer

import (
	gomath "math"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// Pass-owned parameter names for the bounded point light list, precomputed
// so fragment stages never format strings.
var (
	pLightPositions   = paramNames("p_light_position_", MaxPointLights)
	pLightColors      = paramNames("p_light_colour_", MaxPointLights)
	pLightIntensities = paramNames("p_light_intensity_", MaxPointLights)
)

func paramNames(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = prefix + strconv.Itoa(i)
	}
	return names
}

// newForwardProgram shades lit scene geometry: ambient, one directional
// light with shadowing, the bounded point light list and the environment
// set when bound.
func newForwardProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: func(pass, mat *ParamSet, v resources.Vertex, instance mgl32.Mat4) VertexOut {
			model := getMat4(pass, "model")
			world := model.Mul4x1(v.Position.Vec4(1))
			return VertexOut{
				Position: getMat4(pass, "projection").Mul4(getMat4(pass, "view")).Mul4x1(world),
				World:    world.Vec3(),
				Normal:   getMat3(pass, "normal_matrix").Mul3x1(v.Normal),
				Texcoord: v.Texcoord,
				Color:    v.Color,
			}
		},
		Fragment: forwardFragment,
	}
}

// newForwardInstancedProgram is the forward program with the model matrix
// taken from the per-instance channel instead of the parameter set.
func newForwardInstancedProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: func(pass, mat *ParamSet, v resources.Vertex, instance mgl32.Mat4) VertexOut {
			world := instance.Mul4x1(v.Position.Vec4(1))
			return VertexOut{
				Position: getMat4(pass, "projection").Mul4(getMat4(pass, "view")).Mul4x1(world),
				World:    world.Vec3(),
				Normal:   math.NormalMatrix(instance).Mul3x1(v.Normal),
				Texcoord: v.Texcoord,
				Color:    v.Color,
			}
		},
		Fragment: forwardFragment,
	}
}

func forwardFragment(pass, mat *ParamSet, s Sampler, frag Fragment) (mgl32.Vec4, bool) {
	base := getVec4(mat, "base_colour")
	if s.Bound(SlotBaseColorMap) {
		base = mulV4(base, s.Sample2D(SlotBaseColorMap, frag.Texcoord))
	}
	base = mulV4(base, frag.Color)

	metallic := math.Saturate(getFloat(mat, "metallic"))
	roughness := math.Clamp(getFloat(mat, "roughness"), 0.04, 1.0)
	occlusion := math.Saturate(getFloat(mat, "occlusion"))
	if s.Bound(SlotMetalRoughnessMap) {
		// glTF packing: G holds roughness, B holds metallic.
		mr := s.Sample2D(SlotMetalRoughnessMap, frag.Texcoord)
		roughness = math.Clamp(roughness*mr.Y(), 0.04, 1.0)
		metallic = math.Saturate(metallic * mr.Z())
	}
	if s.Bound(SlotOcclusionMap) {
		occlusion *= s.Sample2D(SlotOcclusionMap, frag.Texcoord).X()
	}

	normal := safeNormalize(frag.Normal, mgl32.Vec3{0, 1, 0})
	if s.Bound(SlotNormalMap) {
		// Without tangent frames the map only perturbs the geometric
		// normal, which is plenty for the software device.
		nm := s.Sample2D(SlotNormalMap, frag.Texcoord).Vec3().Mul(2).Sub(vec3All(1))
		normal = safeNormalize(normal.Add(nm.Mul(0.5)), normal)
	}

	viewDir := safeNormalize(getVec3(pass, "view_position").Sub(frag.World), mgl32.Vec3{0, 0, 1})
	albedo := base.Vec3()

	ambient := getVec4(pass, "ambient_colour").Vec3().Mul(getFloat(pass, "ambient_intensity"))
	color := mulV3(albedo, ambient).Mul(occlusion)

	shininess := math.Pow(2, 10*(1-roughness)) + 1
	specStrength := math.Lerp(0.04, 1.0, metallic)

	if getInt(pass, "dir_light") == 1 {
		lightDir := safeNormalize(getVec3(pass, "dir_light_direction").Mul(-1), mgl32.Vec3{0, 1, 0})
		if ndotl := max(normal.Dot(lightDir), 0); ndotl > 0 {
			lit := float32(1)
			if getInt(pass, "use_shadow") == 1 {
				lit = shadowFactor(pass, s, frag.World)
			}
			if lit > 0 {
				lightCol := getVec3(pass, "dir_light_colour").Mul(getFloat(pass, "dir_light_intensity"))
				half := safeNormalize(lightDir.Add(viewDir), normal)
				spec := math.Pow(max(normal.Dot(half), 0), shininess) * specStrength
				contrib := albedo.Mul(ndotl * (1 - metallic)).Add(vec3All(spec))
				color = color.Add(mulV3(contrib, lightCol).Mul(lit))
			}
		}
	}

	numLights := int(getInt(pass, "num_p_lights"))
	if numLights > MaxPointLights {
		numLights = MaxPointLights
	}
	for i := 0; i < numLights; i++ {
		toLight := getVec3(pass, pLightPositions[i]).Sub(frag.World)
		dist2 := toLight.Dot(toLight)
		lightDir := safeNormalize(toLight, normal)
		ndotl := max(normal.Dot(lightDir), 0)
		if ndotl <= 0 {
			continue
		}
		atten := getFloat(pass, pLightIntensities[i]) / (1 + dist2)
		if atten <= 0 {
			continue
		}
		lightCol := getVec3(pass, pLightColors[i]).Mul(atten)
		half := safeNormalize(lightDir.Add(viewDir), normal)
		spec := math.Pow(max(normal.Dot(half), 0), shininess) * specStrength
		contrib := albedo.Mul(ndotl * (1 - metallic)).Add(vec3All(spec))
		color = color.Add(mulV3(contrib, lightCol))
	}

	if envI := getFloat(pass, "environment_intensity"); envI > 0 &&
		s.Bound(SlotIrradianceMap) && s.Bound(SlotReflectionMap) && s.Bound(SlotBRDFLookup) {
		irr := s.Sample2D(SlotIrradianceMap, dirToEquirect(normal)).Vec3()
		refl := s.Sample2D(SlotReflectionMap, dirToEquirect(reflectV3(viewDir.Mul(-1), normal))).Vec3()
		if getFloat(pass, "environment_max_detail") > 0 {
			// Rough surfaces read the blurred end of the detail range.
			refl = lerpV3(refl, irr, math.Saturate(roughness))
		}
		brdf := s.Sample2D(SlotBRDFLookup, mgl32.Vec2{max(normal.Dot(viewDir), 0), roughness})
		f0 := lerpV3(vec3All(0.04), albedo, metallic)
		specEnv := mulV3(refl, f0.Mul(brdf.X()).Add(vec3All(brdf.Y())))
		diffEnv := mulV3(irr, albedo).Mul(1 - metallic)
		color = color.Add(diffEnv.Add(specEnv).Mul(envI * occlusion))
	}

	color = color.Add(getVec3(mat, "emissive"))

	return mgl32.Vec4{color.X(), color.Y(), color.Z(), base.W()}, true
}

// shadowSlack pads the depth compare on top of the polygon offset the
// shadow pass already applied while rendering the map.
const shadowSlack = 5e-4

func shadowFactor(pass *ParamSet, s Sampler, world mgl32.Vec3) float32 {
	if !s.Bound(SlotShadowMap) {
		return 1
	}
	p := getMat4(pass, "light_space").Mul4x1(world.Vec4(1))
	if p.W() == 0 {
		return 1
	}
	ndc := mgl32.Vec3{p.X() / p.W(), p.Y() / p.W(), p.Z() / p.W()}
	u := ndc.X()*0.5 + 0.5
	v := 0.5 - ndc.Y()*0.5
	// Everything outside the shadow working volume counts as lit.
	if u < 0 || u > 1 || v < 0 || v > 1 || ndc.Z() > 1 {
		return 1
	}
	if ndc.Z()-shadowSlack > s.SampleDepth(SlotShadowMap, mgl32.Vec2{u, v}) {
		return 0
	}
	return 1
}

// newDepthProgram renders depth into the shadow map. No fragment stage:
// the program writes depth only.
func newDepthProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: func(pass, mat *ParamSet, v resources.Vertex, instance mgl32.Mat4) VertexOut {
			return VertexOut{
				Position: getMat4(pass, "light_space").Mul4(getMat4(pass, "model")).Mul4x1(v.Position.Vec4(1)),
			}
		},
	}
}

// backdropDepth places the backdrop just inside the far plane so it only
// covers pixels the scene pass left untouched.
const backdropDepth = 0.99995

// newBackdropProgram fills the background with the environment's
// reflection map, depth-tested behind everything the scene pass drew.
func newBackdropProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: func(pass, mat *ParamSet, v resources.Vertex, instance mgl32.Mat4) VertexOut {
			return VertexOut{
				Position: mgl32.Vec4{v.Position.X(), v.Position.Y(), backdropDepth, 1},
				Texcoord: v.Texcoord,
			}
		},
		Fragment: func(pass, mat *ParamSet, s Sampler, frag Fragment) (mgl32.Vec4, bool) {
			if !s.Bound(SlotReflectionMap) {
				return mgl32.Vec4{}, false
			}
			inv := getMat4(pass, "inverse_view_projection")
			ndc := mgl32.Vec2{frag.Texcoord.X()*2 - 1, 1 - frag.Texcoord.Y()*2}
			near := inv.Mul4x1(mgl32.Vec4{ndc.X(), ndc.Y(), -1, 1})
			far := inv.Mul4x1(mgl32.Vec4{ndc.X(), ndc.Y(), 1, 1})
			if near.W() == 0 || far.W() == 0 {
				return mgl32.Vec4{}, false
			}
			dir := far.Vec3().Mul(1 / far.W()).Sub(near.Vec3().Mul(1 / near.W()))
			sky := s.Sample2D(SlotReflectionMap, dirToEquirect(safeNormalize(dir, mgl32.Vec3{0, 0, -1}))).Vec3()
			sky = sky.Mul(getFloat(pass, "environment_intensity"))
			return mgl32.Vec4{sky.X(), sky.Y(), sky.Z(), 1}, true
		},
	}
}

// newOutlineMaskProgram re-draws a selected surface to mark its pixels in
// the stencil buffer. Depth-only stage, no color output.
func newOutlineMaskProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: func(pass, mat *ParamSet, v resources.Vertex, instance mgl32.Mat4) VertexOut {
			return VertexOut{
				Position: getMat4(pass, "view_projection").Mul4(getMat4(pass, "model")).Mul4x1(v.Position.Vec4(1)),
			}
		},
	}
}

// newOutlineProgram draws a flat-colored duplicate scaled around the
// geometry's center; the stencil test keeps only the rim.
func newOutlineProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: func(pass, mat *ParamSet, v resources.Vertex, instance mgl32.Mat4) VertexOut {
			scale := getFloat(pass, "outline_scale")
			if scale == 0 {
				scale = 1
			}
			origin := getVec3(pass, "outline_origin")
			local := origin.Add(v.Position.Sub(origin).Mul(scale))
			return VertexOut{
				Position: getMat4(pass, "view_projection").Mul4(getMat4(pass, "model")).Mul4x1(local.Vec4(1)),
			}
		},
		Fragment: func(pass, mat *ParamSet, s Sampler, frag Fragment) (mgl32.Vec4, bool) {
			return getVec4(pass, "outline_colour"), true
		},
	}
}

// newBloomBrightProgram extracts pixels above the bloom threshold with a
// soft knee, reading the unclamped HDR scene colors.
func newBloomBrightProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: postVertex,
		Fragment: func(pass, mat *ParamSet, s Sampler, frag Fragment) (mgl32.Vec4, bool) {
			c := s.Sample2D(SlotPostSource, frag.Texcoord).Vec3()
			brightness := max(c.X(), max(c.Y(), c.Z()))
			threshold := getFloat(pass, "bloom_threshold")
			knee := max(getFloat(pass, "bloom_knee"), 0)
			soft := math.Clamp(brightness-threshold+knee, 0, 2*knee)
			soft = soft * soft / (4*knee + 1e-5)
			contrib := max(soft, brightness-threshold) / max(brightness, 1e-5)
			if contrib <= 0 {
				return mgl32.Vec4{0, 0, 0, 1}, true
			}
			c = c.Mul(contrib)
			return mgl32.Vec4{c.X(), c.Y(), c.Z(), 1}, true
		},
	}
}

var gaussWeights = [5]float32{0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216}

// newBloomBlurProgram is one direction of the separable gaussian; the
// pipeline ping-pongs it horizontally and vertically.
func newBloomBlurProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: postVertex,
		Fragment: func(pass, mat *ParamSet, s Sampler, frag Fragment) (mgl32.Vec4, bool) {
			texel := getVec2(pass, "texel_size")
			step := mgl32.Vec2{texel.X(), 0}
			if getInt(pass, "blur_horizontal") == 0 {
				step = mgl32.Vec2{0, texel.Y()}
			}
			sum := s.Sample2D(SlotPostSource, frag.Texcoord).Vec3().Mul(gaussWeights[0])
			for i := 1; i < len(gaussWeights); i++ {
				off := step.Mul(float32(i))
				sum = sum.Add(s.Sample2D(SlotPostSource, frag.Texcoord.Add(off)).Vec3().Mul(gaussWeights[i]))
				sum = sum.Add(s.Sample2D(SlotPostSource, frag.Texcoord.Sub(off)).Vec3().Mul(gaussWeights[i]))
			}
			return mgl32.Vec4{sum.X(), sum.Y(), sum.Z(), 1}, true
		},
	}
}

// newToneProgram composites bloom onto the HDR color and applies the tone
// reproduction operator. Output is clamped to [0,1] regardless of mode.
func newToneProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: postVertex,
		Fragment: func(pass, mat *ParamSet, s Sampler, frag Fragment) (mgl32.Vec4, bool) {
			c := s.Sample2D(SlotPostSource, frag.Texcoord).Vec3()
			if getInt(pass, "use_bloom") == 1 && s.Bound(SlotPostBloom) {
				bloom := s.Sample2D(SlotPostBloom, frag.Texcoord).Vec3()
				c = c.Add(bloom.Mul(getFloat(pass, "bloom_intensity")))
			}
			c = ToneMap(c, ToneMode(getInt(pass, "tone_mode")), getFloat(pass, "exposure"), getFloat(pass, "white_point"))
			return mgl32.Vec4{c.X(), c.Y(), c.Z(), 1}, true
		},
	}
}

// newGradeProgram runs color grading on tone-mapped color and finishes
// with the gamma encode, the very last step before presentation.
func newGradeProgram(name string) *Program {
	return &Program{
		Name:   name,
		Params: NewParamSet(name),
		Vertex: postVertex,
		Fragment: func(pass, mat *ParamSet, s Sampler, frag Fragment) (mgl32.Vec4, bool) {
			c := s.Sample2D(SlotPostSource, frag.Texcoord).Vec3()
			if getInt(pass, "grading") == 1 {
				if s.Bound(SlotGradingLUT) {
					// Half-texel correction so texel centers land exactly
					// on the values they encode.
					scale := getFloat(pass, "lut_scale")
					if scale <= 0 {
						scale = 1
					}
					coord := saturateV3(c).Mul(scale).Add(vec3All(getFloat(pass, "lut_offset")))
					graded := s.Sample3D(SlotGradingLUT, coord).Vec3()
					c = lerpV3(c, graded, math.Saturate(getFloat(pass, "grading_contribution")))
				}
				// The parametric controls apply whether or not a lookup
				// table is bound.
				lum := luminance(c)
				c = lerpV3(vec3All(lum), c, max(getFloat(pass, "saturation"), 0))
				contrast := max(getFloat(pass, "contrast"), 0)
				c = c.Sub(vec3All(0.5)).Mul(contrast).Add(vec3All(0.5))
				c = c.Add(vec3All(getFloat(pass, "brightness")))
			}
			gamma := getFloat(pass, "gamma")
			if gamma <= 0 {
				gamma = 1
			}
			c = powV3(saturateV3(c), 1/gamma)
			return mgl32.Vec4{c.X(), c.Y(), c.Z(), 1}, true
		},
	}
}

// postVertex passes fullscreen quad corners through untouched; the quad is
// already in clip space.
func postVertex(pass, mat *ParamSet, v resources.Vertex, instance mgl32.Mat4) VertexOut {
	return VertexOut{
		Position: mgl32.Vec4{v.Position.X(), v.Position.Y(), 0, 1},
		Texcoord: v.Texcoord,
		Color:    v.Color,
	}
}

// Parameter lookups with shading-friendly defaults.

func getFloat(ps *ParamSet, name string) float32 {
	v, _ := ps.Float(name)
	return v
}

func getInt(ps *ParamSet, name string) int32 {
	v, _ := ps.Int(name)
	return v
}

func getVec2(ps *ParamSet, name string) mgl32.Vec2 {
	v, _ := ps.Vec2(name)
	return v
}

func getVec3(ps *ParamSet, name string) mgl32.Vec3 {
	v, _ := ps.Vec3(name)
	return v
}

func getVec4(ps *ParamSet, name string) mgl32.Vec4 {
	v, _ := ps.Vec4(name)
	return v
}

func getMat3(ps *ParamSet, name string) mgl32.Mat3 {
	if v, ok := ps.Mat3(name); ok {
		return v
	}
	return mgl32.Ident3()
}

func getMat4(ps *ParamSet, name string) mgl32.Mat4 {
	if v, ok := ps.Mat4(name); ok {
		return v
	}
	return mgl32.Ident4()
}

// Small vector helpers shared by the stage bodies.

func vec3All(x float32) mgl32.Vec3 {
	return mgl32.Vec3{x, x, x}
}

func mulV3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func mulV4(a, b mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z(), a.W() * b.W()}
}

func lerpV3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func saturateV3(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math.Saturate(v.X()), math.Saturate(v.Y()), math.Saturate(v.Z())}
}

func powV3(v mgl32.Vec3, e float32) mgl32.Vec3 {
	return mgl32.Vec3{math.Pow(v.X(), e), math.Pow(v.Y(), e), math.Pow(v.Z(), e)}
}

func reflectV3(incident, normal mgl32.Vec3) mgl32.Vec3 {
	return incident.Sub(normal.Mul(2 * incident.Dot(normal)))
}

func luminance(c mgl32.Vec3) float32 {
	return 0.2126*c.X() + 0.7152*c.Y() + 0.0722*c.Z()
}

func safeNormalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Dot(v) < 1e-12 {
		return fallback
	}
	return v.Normalize()
}

// dirToEquirect maps a direction onto equirectangular texture coordinates,
// +Y at the top row.
func dirToEquirect(d mgl32.Vec3) mgl32.Vec2 {
	u := 0.5 + math.Atan2(d.Z(), d.X())/(2*gomath.Pi)
	v := 0.5 - math.Asin(math.Clamp(d.Y(), -1, 1))/gomath.Pi
	return mgl32.Vec2{u, v}
}
