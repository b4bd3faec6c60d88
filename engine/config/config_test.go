package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chiaro.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	want := *cfg
	cfg.Validate()
	if *cfg != want {
		t.Errorf("defaults moved under validation:\n got %+v\nwant %+v", *cfg, want)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[renderer]
clear_color = [0.1, 0.2, 0.3, 1.0]
ambient_intensity = 2.5

[renderer.bloom]
enabled = false
threshold = 1.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := cfg.Renderer

	if r.ClearColor != [4]float32{0.1, 0.2, 0.3, 1.0} {
		t.Errorf("clear_color = %v", r.ClearColor)
	}
	if r.AmbientIntensity != 2.5 {
		t.Errorf("ambient_intensity = %v, want 2.5", r.AmbientIntensity)
	}
	if r.Bloom.Enabled || r.Bloom.Threshold != 1.5 {
		t.Errorf("bloom = %+v, want disabled with threshold 1.5", r.Bloom)
	}

	// Untouched keys keep their defaults.
	if r.Bloom.BlurPass != 4 {
		t.Errorf("blur_passes = %d, want the default 4", r.Bloom.BlurPass)
	}
	if r.Shadow.MapSize != 1024 || r.Tone.Gamma != 2.2 {
		t.Errorf("missing sections lost their defaults: shadow %+v tone %+v", r.Shadow, r.Tone)
	}
}

func TestLoadClampsOutOfRange(t *testing.T) {
	path := writeConfig(t, `
[renderer.shadow]
map_size = 4

[renderer.bloom]
blur_passes = 99
knee = 3.0

[renderer.tone]
mode = 42
exposure = 100.0
gamma = 9.0
white_point = -1.0

[renderer.grading]
brightness = -5.0

[renderer.outline]
scale = 10.0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := cfg.Renderer

	tests := []struct {
		name string
		got  float32
		want float32
	}{
		{"map_size", float32(r.Shadow.MapSize), 16},
		{"blur_passes", float32(r.Bloom.BlurPass), 8},
		{"knee", r.Bloom.Knee, 1},
		{"mode", float32(r.Tone.Mode), 0},
		{"exposure", r.Tone.Exposure, 16},
		{"gamma", r.Tone.Gamma, 4},
		{"white_point", r.Tone.WhitePoint, 11.2},
		{"brightness", r.Grading.Brightness, -1},
		{"outline scale", r.Outline.Scale, 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want clamped to %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Errorf("missing file should error")
	}
	if _, err := Load(writeConfig(t, "renderer = [")); err == nil {
		t.Errorf("malformed TOML should error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Renderer.Tone.Gamma = 1.8
	cfg.Renderer.Bloom.Enabled = false
	cfg.Renderer.Grading.LUTPath = "tables/teal.png"

	path := filepath.Join(t.TempDir(), "out.toml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip drifted:\n got %+v\nwant %+v", *loaded, *cfg)
	}
}
