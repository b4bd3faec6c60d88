package assets

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/renderer/soft"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

func TestLoadTexture(t *testing.T) {
	d := soft.New(2, 2)
	defer d.Shutdown()

	path := filepath.Join(t.TempDir(), "ramp.png")
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	tex, err := LoadTexture(d, path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if tex.Kind != resources.TextureKind2D || tex.Width != 3 || tex.Height != 1 {
		t.Fatalf("texture = %v %dx%d, want 2D 3x1", tex.Kind, tex.Width, tex.Height)
	}

	d.BindTexture(renderer.SlotUser0, tex)
	texel := func(i int) mgl32.Vec4 {
		return d.Sample2D(renderer.SlotUser0, mgl32.Vec2{(float32(i) + 0.5) / 3, 0.5})
	}

	if c := texel(0); c.X() != 0 || c.W() != 1 {
		t.Errorf("black texel = %v, want linear zero with full alpha", c)
	}
	if c := texel(2); c.X() != 1 {
		t.Errorf("white texel = %v, want linear one", c)
	}
	// Mid gray 128/255 decodes through the power-2.2 curve.
	want := float32(math.Pow(128.0/255.0, 2.2))
	if c := texel(1); math.Abs(float64(c.X()-want)) > 1e-3 {
		t.Errorf("gray texel = %v, want %v after linearization", c.X(), want)
	}
}

func TestLoadTextureErrors(t *testing.T) {
	d := soft.New(2, 2)
	defer d.Shutdown()
	dir := t.TempDir()

	if _, err := LoadTexture(d, filepath.Join(dir, "absent.png")); err == nil {
		t.Errorf("missing file should error")
	}

	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTexture(d, garbage); err == nil {
		t.Errorf("undecodable file should error")
	}
}

func TestClampSize(t *testing.T) {
	big := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	scaled := clampSize(big, 4)
	if b := scaled.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("scaled bounds = %v, want 4x2 with aspect kept", b)
	}

	small := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if clampSize(small, 4) != image.Image(small) {
		t.Errorf("images within the limit should pass through untouched")
	}
}
