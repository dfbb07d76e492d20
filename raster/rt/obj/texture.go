package obj

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gekko3d/rasterizer/raster/rt/core"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeTexture decodes any registered image format into RGBA8 pixels.
func DecodeTexture(r io.Reader, path string) (*core.Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) || rgba.Stride != bounds.Dx()*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return &core.Texture{
		ID:     uuid.NewString(),
		Path:   path,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    rgba.Pix,
	}, nil
}

// TextureCache decodes each texture file once.
type TextureCache struct {
	mu     sync.Mutex
	byPath map[string]*core.Texture
}

func NewTextureCache() *TextureCache {
	return &TextureCache{byPath: make(map[string]*core.Texture)}
}

func (c *TextureCache) Load(path string) (*core.Texture, error) {
	key := filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if tex, ok := c.byPath[key]; ok {
		return tex, nil
	}

	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	tex, err := DecodeTexture(f, key)
	if err != nil {
		return nil, err
	}
	c.byPath[key] = tex
	return tex, nil
}

func (c *TextureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byPath)
}
