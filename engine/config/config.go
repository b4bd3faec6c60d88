package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/chiaro/engine/math"
)

// Config carries every renderer tunable. It maps 1:1 onto the TOML file the
// engine loads at boot and hot-reloads on change.
type Config struct {
	Renderer RendererConfig `toml:"renderer"`
}

type RendererConfig struct {
	ClearColor       [4]float32 `toml:"clear_color"`
	AmbientColor     [4]float32 `toml:"ambient_color"`
	AmbientIntensity float32    `toml:"ambient_intensity"`

	Shadow      ShadowConfig      `toml:"shadow"`
	Bloom       BloomConfig       `toml:"bloom"`
	Tone        ToneConfig        `toml:"tone"`
	Grading     GradingConfig     `toml:"grading"`
	Outline     OutlineConfig     `toml:"outline"`
	Environment EnvironmentConfig `toml:"environment"`
}

type ShadowConfig struct {
	Enabled bool   `toml:"enabled"`
	MapSize uint32 `toml:"map_size"`
	// OrthoSize is the half-extent of the fixed orthographic working volume.
	// It is a tunable constant, not derived from scene bounds.
	OrthoSize  float32 `toml:"ortho_size"`
	BiasFactor float32 `toml:"bias_factor"`
	BiasUnits  float32 `toml:"bias_units"`
}

type BloomConfig struct {
	Enabled   bool    `toml:"enabled"`
	Threshold float32 `toml:"threshold"`
	Knee      float32 `toml:"knee"`
	Intensity float32 `toml:"intensity"`
	BlurPass  int     `toml:"blur_passes"`
}

type ToneConfig struct {
	Mode       int     `toml:"mode"`
	Exposure   float32 `toml:"exposure"`
	Gamma      float32 `toml:"gamma"`
	WhitePoint float32 `toml:"white_point"`
}

type GradingConfig struct {
	Enabled      bool    `toml:"enabled"`
	LUTPath      string  `toml:"lut_path"`
	Contribution float32 `toml:"contribution"`
	Saturation   float32 `toml:"saturation"`
	Contrast     float32 `toml:"contrast"`
	Brightness   float32 `toml:"brightness"`
}

type OutlineConfig struct {
	Enabled bool       `toml:"enabled"`
	Color   [4]float32 `toml:"color"`
	Scale   float32    `toml:"scale"`
}

type EnvironmentConfig struct {
	Enabled   bool    `toml:"enabled"`
	Intensity float32 `toml:"intensity"`
}

// Default returns a config with working values for every tunable.
func Default() *Config {
	return &Config{
		Renderer: RendererConfig{
			ClearColor:       [4]float32{0.04, 0.04, 0.06, 1.0},
			AmbientColor:     [4]float32{0.25, 0.25, 0.3, 1.0},
			AmbientIntensity: 1.0,
			Shadow: ShadowConfig{
				Enabled:    true,
				MapSize:    1024,
				OrthoSize:  30.0,
				BiasFactor: 1.1,
				BiasUnits:  4.0,
			},
			Bloom: BloomConfig{
				Enabled:   true,
				Threshold: 1.0,
				Knee:      0.5,
				Intensity: 0.8,
				BlurPass:  4,
			},
			Tone: ToneConfig{
				Mode:       0,
				Exposure:   1.0,
				Gamma:      2.2,
				WhitePoint: 11.2,
			},
			Grading: GradingConfig{
				Enabled:      false,
				LUTPath:      "",
				Contribution: 1.0,
				Saturation:   1.0,
				Contrast:     1.0,
				Brightness:   0.0,
			},
			Outline: OutlineConfig{
				Enabled: true,
				Color:   [4]float32{1.0, 0.6, 0.1, 1.0},
				Scale:   1.05,
			},
			Environment: EnvironmentConfig{
				Enabled:   true,
				Intensity: 1.0,
			},
		},
	}
}

// Load parses the TOML file at path on top of the defaults, so missing keys
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Validate()
	return cfg, nil
}

// Save writes the config as TOML, used to bootstrap a default file.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Validate clamps every tunable into its working range in place.
func (c *Config) Validate() {
	r := &c.Renderer
	r.AmbientIntensity = math.Clamp(r.AmbientIntensity, 0, 10)

	r.Shadow.MapSize = math.Clamp(r.Shadow.MapSize, 16, 8192)
	if r.Shadow.OrthoSize <= 0 {
		r.Shadow.OrthoSize = 30.0
	}

	r.Bloom.Threshold = math.Clamp(r.Bloom.Threshold, 0, 100)
	r.Bloom.Knee = math.Clamp(r.Bloom.Knee, 0, 1)
	r.Bloom.Intensity = math.Clamp(r.Bloom.Intensity, 0, 10)
	r.Bloom.BlurPass = math.Clamp(r.Bloom.BlurPass, 1, 8)

	if r.Tone.Mode < 0 || r.Tone.Mode > 5 {
		r.Tone.Mode = 0
	}
	r.Tone.Exposure = math.Clamp(r.Tone.Exposure, 0.01, 16)
	r.Tone.Gamma = math.Clamp(r.Tone.Gamma, 1, 4)
	if r.Tone.WhitePoint <= 0 {
		r.Tone.WhitePoint = 11.2
	}

	r.Grading.Contribution = math.Clamp(r.Grading.Contribution, 0, 1)
	r.Grading.Saturation = math.Clamp(r.Grading.Saturation, 0, 2)
	r.Grading.Contrast = math.Clamp(r.Grading.Contrast, 0, 2)
	r.Grading.Brightness = math.Clamp(r.Grading.Brightness, -1, 1)

	r.Outline.Scale = math.Clamp(r.Outline.Scale, 1, 2)

	r.Environment.Intensity = math.Clamp(r.Environment.Intensity, 0, 10)
}
