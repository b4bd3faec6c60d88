package assets

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// LoadGradingLUT decodes a horizontal-strip lookup table image into a
// volume texture. The strip is N*N pixels wide and N tall: slice z
// occupies columns [z*N, (z+1)*N), x indexes red, y green, z blue.
//
// Table texels are taken as stored. Grading runs on tone-mapped color
// before the gamma encode, so no transfer decode is applied.
func LoadGradingLUT(device renderer.Device, path string) (*resources.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	size := bounds.Dy()
	if size < 2 || bounds.Dx() != size*size {
		return nil, fmt.Errorf("%s is not a grading strip: want width = height*height, got %dx%d",
			path, bounds.Dx(), bounds.Dy())
	}

	pixels := make([]float32, 0, size*size*size*4)
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				r, g, b, a := img.At(bounds.Min.X+z*size+x, bounds.Min.Y+y).RGBA()
				pixels = append(pixels,
					float32(r)/65535,
					float32(g)/65535,
					float32(b)/65535,
					float32(a)/65535,
				)
			}
		}
	}

	tex := &resources.Texture{
		Name:   filepath.Base(path),
		Kind:   resources.TextureKind3D,
		Format: resources.TextureFormatRGBA32F,
		Filter: resources.TextureFilterLinear,
		Repeat: resources.TextureRepeatClamp,
		Width:  uint32(size),
		Height: uint32(size),
		Depth:  uint32(size),
	}
	if err := device.CreateTexture(tex, pixels); err != nil {
		return nil, err
	}
	return tex, nil
}
