package assets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// maxTextureDim bounds loaded images; anything larger is downscaled so
// software sampling costs stay sane.
const maxTextureDim = 2048

// LoadTexture decodes an image file, converts it to linear color and
// registers it with the device. PNG, JPEG, BMP and TIFF are supported.
func LoadTexture(device renderer.Device, path string) (*resources.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	img = clampSize(img, maxTextureDim)

	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	pixels := make([]float32, 0, w*h*4)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			pixels = append(pixels,
				srgbToLinear(float32(r)/65535),
				srgbToLinear(float32(g)/65535),
				srgbToLinear(float32(b)/65535),
				float32(a)/65535,
			)
		}
	}

	tex := &resources.Texture{
		Name:   filepath.Base(path),
		Kind:   resources.TextureKind2D,
		Format: resources.TextureFormatRGBA32F,
		Filter: resources.TextureFilterLinear,
		Repeat: resources.TextureRepeatWrap,
		Width:  uint32(w),
		Height: uint32(h),
		Depth:  1,
	}
	if err := device.CreateTexture(tex, pixels); err != nil {
		return nil, err
	}
	return tex, nil
}

func clampSize(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(max(w, h))
	nw := max(int(float64(w)*scale), 1)
	nh := max(int(float64(h)*scale), 1)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// srgbToLinear applies the power-2.2 decode, close enough to the piecewise
// sRGB curve for shading purposes.
func srgbToLinear(v float32) float32 {
	return math.Pow(math.Saturate(v), 2.2)
}
