package rasterizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig_OverridesOnlyGivenKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raster.yml")
	data := "width: 800\nheight: 600\nsamples: 4\neye: [1, 2, 3]\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
	assert.Equal(t, [3]float32{1, 2, 3}, cfg.Eye)
	assert.Equal(t, def.Target, cfg.Target)
	assert.Equal(t, def.ScenePath, cfg.ScenePath)
	assert.Equal(t, def.FovY, cfg.FovY)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("width: -5\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"zero width":      func(c *Config) { c.Width = 0 },
		"fov too wide":    func(c *Config) { c.FovY = 180 },
		"inverted clip":   func(c *Config) { c.Far = c.Near },
		"eye at target":   func(c *Config) { c.Eye = c.Target },
		"no samples":      func(c *Config) { c.Samples = 0 },
		"no texture size": func(c *Config) { c.MaxTextureSize = 0 },
		"no scene":        func(c *Config) { c.ScenePath = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}
