package math

import (
	m "math"

	"github.com/go-gl/mathgl/mgl32"
)

// NormalMatrix returns the inverse-transpose of the upper 3x3 of a model
// matrix, which keeps normals perpendicular under non-uniform scale. A
// non-invertible model matrix falls back to the plain upper 3x3.
func NormalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	m3 := model.Mat3()
	if m3.Det() == 0 {
		return m3
	}
	return m3.Inv().Transpose()
}

// MaxAxisScale returns the largest axis scale factor encoded in a model
// matrix, used to grow object-space bounding radii into world space.
func MaxAxisScale(model mgl32.Mat4) float32 {
	sx := model.Col(0).Vec3().Len()
	sy := model.Col(1).Vec3().Len()
	sz := model.Col(2).Vec3().Len()
	return max(sx, max(sy, sz))
}

// Float32 wrappers over the stdlib math package so shading code does not
// litter float64 conversions everywhere.

func Sin(x float32) float32 { return float32(m.Sin(float64(x))) }

func Cos(x float32) float32 { return float32(m.Cos(float64(x))) }

func Pow(x, y float32) float32 { return float32(m.Pow(float64(x), float64(y))) }

func Exp(x float32) float32 { return float32(m.Exp(float64(x))) }

func Sqrt(x float32) float32 { return float32(m.Sqrt(float64(x))) }

func Abs(x float32) float32 { return float32(m.Abs(float64(x))) }

func Floor(x float32) float32 { return float32(m.Floor(float64(x))) }

func Atan2(y, x float32) float32 { return float32(m.Atan2(float64(y), float64(x))) }

func Asin(x float32) float32 { return float32(m.Asin(float64(x))) }
