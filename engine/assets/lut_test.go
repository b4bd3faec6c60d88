package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/renderer/soft"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// writeIdentityStrip writes a size^2 x size grading strip where texel
// (x, y, z) stores (x, y, z)/(size-1), the identity table.
func writeIdentityStrip(t *testing.T, path string, size int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size*size, size))
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				img.SetNRGBA(z*size+x, y, color.NRGBA{
					R: uint8(x * 255 / (size - 1)),
					G: uint8(y * 255 / (size - 1)),
					B: uint8(z * 255 / (size - 1)),
					A: 255,
				})
			}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestLoadGradingLUT(t *testing.T) {
	d := soft.New(2, 2)
	defer d.Shutdown()

	path := filepath.Join(t.TempDir(), "identity.png")
	writeIdentityStrip(t, path, 4)

	tex, err := LoadGradingLUT(d, path)
	if err != nil {
		t.Fatalf("LoadGradingLUT: %v", err)
	}
	if tex.Kind != resources.TextureKind3D {
		t.Errorf("kind = %v, want 3D", tex.Kind)
	}
	if tex.Width != 4 || tex.Height != 4 || tex.Depth != 4 {
		t.Errorf("dimensions = %dx%dx%d, want 4x4x4", tex.Width, tex.Height, tex.Depth)
	}
	if tex.Name != "identity.png" {
		t.Errorf("name = %q, want the file base", tex.Name)
	}

	// Sample texel centers through the device. With the half-texel
	// correction the identity table must return its input.
	d.BindTexture(renderer.SlotUser0, tex)
	sample := func(c mgl32.Vec3) mgl32.Vec3 {
		coord := c.Mul(3.0 / 4.0).Add(mgl32.Vec3{0.125, 0.125, 0.125})
		return d.Sample3D(renderer.SlotUser0, coord).Vec3()
	}
	cases := []mgl32.Vec3{
		{0, 0, 0},
		{1.0 / 3, 2.0 / 3, 1},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	for _, c := range cases {
		got := sample(c)
		if got.Sub(c).Len() > 1e-3 {
			t.Errorf("identity table at %v returned %v", c, got)
		}
	}
}

func TestLoadGradingLUTRejectsBadInputs(t *testing.T) {
	d := soft.New(2, 2)
	defer d.Shutdown()
	dir := t.TempDir()

	wrongWidth := filepath.Join(dir, "wrong.png")
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	f, err := os.Create(wrongWidth)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	tiny := filepath.Join(dir, "tiny.png")
	writeIdentityStrip(t, tiny, 2)
	// 2x2x2 is the smallest legal table; shrink the strip to 1x1 instead.
	one := filepath.Join(dir, "one.png")
	oneImg := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	f, err = os.Create(one)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, oneImg); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"wrong width", wrongWidth},
		{"single pixel", one},
		{"not an image", garbage},
		{"missing file", filepath.Join(dir, "absent.png")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadGradingLUT(d, tt.path); err == nil {
				t.Errorf("expected an error for %s", tt.name)
			}
		})
	}

	// The minimal 2x2x2 strip still loads.
	if _, err := LoadGradingLUT(d, tiny); err != nil {
		t.Errorf("2x2x2 strip should load: %v", err)
	}
}
