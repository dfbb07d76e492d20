package rasterizer

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the renderer. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`

	// Vertical field of view in degrees.
	FovY   float32    `yaml:"fov_y"`
	Near   float32    `yaml:"near"`
	Far    float32    `yaml:"far"`
	Eye    [3]float32 `yaml:"eye"`
	Target [3]float32 `yaml:"target"`

	// Samples is the multisample count of the offscreen target.
	Samples int `yaml:"samples"`

	ScenePath     string     `yaml:"scene"`
	LightPosition [3]float32 `yaml:"light_position"`

	// Optional WGSL overrides; the embedded sources are used when empty.
	VertexShaderPath   string `yaml:"vertex_shader"`
	FragmentShaderPath string `yaml:"fragment_shader"`

	// MaxTextureSize clamps the layer size of the material texture array.
	MaxTextureSize int `yaml:"max_texture_size"`

	ShowProgress bool `yaml:"progress"`
	Debug        bool `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Width:          640,
		Height:         480,
		Title:          "PG2 WebGPU",
		FovY:           45,
		Near:           1,
		Far:            1000,
		Eye:            [3]float32{-140, -175, 110},
		Target:         [3]float32{0, 0, 40},
		Samples:        4,
		ScenePath:      "../../data/6887_allied_avenger_gi.obj",
		LightPosition:  [3]float32{-200, 200, 300},
		MaxTextureSize: 2048,
	}
}

var ErrInvalidConfig = errors.New("invalid config")

// LoadConfig reads a YAML file over DefaultConfig. Keys absent from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.FovY <= 0 || c.FovY >= 180 {
		return fmt.Errorf("%w: fov_y %.2f out of (0, 180)", ErrInvalidConfig, c.FovY)
	}
	if c.Near <= 0 || c.Far <= c.Near {
		return fmt.Errorf("%w: clip range [%.3f, %.3f]", ErrInvalidConfig, c.Near, c.Far)
	}
	if c.Eye == c.Target {
		return fmt.Errorf("%w: eye and target coincide", ErrInvalidConfig)
	}
	if c.Samples <= 0 {
		return fmt.Errorf("%w: samples %d", ErrInvalidConfig, c.Samples)
	}
	if c.MaxTextureSize <= 0 {
		return fmt.Errorf("%w: max_texture_size %d", ErrInvalidConfig, c.MaxTextureSize)
	}
	if c.ScenePath == "" {
		return fmt.Errorf("%w: empty scene path", ErrInvalidConfig)
	}
	return nil
}
