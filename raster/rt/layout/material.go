package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gekko3d/rasterizer/raster/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

const (
	// MaterialRecordSize is the stride of one record in the material storage
	// buffer.
	MaterialRecordSize = 64

	// MaxTextureLayers is the WebGPU default limit on texture array layers.
	MaxTextureLayers = 256
)

var (
	ErrTextureData      = errors.New("texture pixel data does not match its size")
	ErrTooManyLayers    = errors.New("too many material textures")
	ErrTooManyMaterials = errors.New("too many materials")
	ErrNoMaterials      = errors.New("no materials")
	ErrInvalidHandle    = errors.New("invalid texture handle")
	ErrTextureLimit     = errors.New("texture size limit must be positive")
)

// MaxMaterials is the number of material slots a handle can name.
const MaxMaterials = 1 << 16

// TextureHandle names a resident texture. Bit 32 tags the resident set,
// bits 16-31 hold the material slot and bits 0-15 the layer of the material
// texture array. Materials sharing a layer still get distinct handles. A
// valid handle is never zero.
type TextureHandle uint64

const residentTag = TextureHandle(1) << 32

func MakeTextureHandle(slot, layer uint32) TextureHandle {
	return residentTag | TextureHandle(slot&0xFFFF)<<16 | TextureHandle(layer&0xFFFF)
}

func (h TextureHandle) Layer() uint32 { return uint32(h) & 0xFFFF }
func (h TextureHandle) Slot() uint32  { return uint32(h) >> 16 }
func (h TextureHandle) Valid() bool   { return h&residentTag != 0 }

func (h TextureHandle) String() string {
	return fmt.Sprintf("0x%016x", uint64(h))
}

// MaterialRecord is the GPU-side view of one material.
type MaterialRecord struct {
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec3
	Ambient  mgl32.Vec3
	Texture  TextureHandle
}

// Encode writes the record into dst, which must hold MaterialRecordSize
// bytes. Padding is zeroed.
func (r MaterialRecord) Encode(dst []byte) {
	_ = dst[MaterialRecordSize-1]
	putVec3(dst[0:16], r.Diffuse)
	putVec3(dst[16:32], r.Specular)
	putVec3(dst[32:48], r.Ambient)
	binary.LittleEndian.PutUint64(dst[48:56], uint64(r.Texture))
	clear(dst[56:64])
}

func putVec3(dst []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v[2]))
	clear(dst[12:16])
}

func EncodeMaterialRecords(records []MaterialRecord) []byte {
	buf := make([]byte, len(records)*MaterialRecordSize)
	for i, r := range records {
		r.Encode(buf[i*MaterialRecordSize:])
	}
	return buf
}

// TextureArray is the host copy of the material texture array: Layers
// RGBA8 images of Width x Height, stored layer after layer.
type TextureArray struct {
	Width  int
	Height int
	Layers int
	Pix    []byte
}

func (a *TextureArray) LayerBytes() int { return a.Width * a.Height * 4 }

// Layer returns the pixels of layer i.
func (a *TextureArray) Layer(i int) []byte {
	n := a.LayerBytes()
	return a.Pix[i*n : (i+1)*n]
}

// MaterialTable is the host side of the material storage buffer and its
// resident textures. Records[i] describes material i of the scene.
type MaterialTable struct {
	Records  []MaterialRecord
	Textures TextureArray
}

// Bytes returns the encoded storage buffer contents.
func (t *MaterialTable) Bytes() []byte {
	return EncodeMaterialRecords(t.Records)
}

// Release drops the host staging data once it has been uploaded.
func (t *MaterialTable) Release() {
	t.Textures.Pix = nil
}

// BuildMaterialTable converts the material list into records, keeping the
// list order. A textured material samples the layer holding its diffuse
// map; materials sharing a texture share its layer. Untextured materials
// share one layer filled from the white placeholder and keep their flat
// diffuse color in the record.
func BuildMaterialTable(materials []*core.Material, maxTextureSize int) (*MaterialTable, error) {
	if len(materials) == 0 {
		return nil, ErrNoMaterials
	}
	if len(materials) > MaxMaterials {
		return nil, fmt.Errorf("%w: %d, limit %d", ErrTooManyMaterials, len(materials), MaxMaterials)
	}
	if maxTextureSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrTextureLimit, maxTextureSize)
	}

	// layer sources in layer order
	var sources []*core.Texture
	seen := make(map[any]uint32)
	layerOf := func(tex *core.Texture) uint32 {
		var key any = tex
		if tex.ID != "" {
			key = tex.ID
		}
		if l, ok := seen[key]; ok {
			return l
		}
		l := uint32(len(sources))
		seen[key] = l
		sources = append(sources, tex)
		return l
	}

	white := core.WhiteTexture()
	table := &MaterialTable{Records: make([]MaterialRecord, len(materials))}
	w, h := 1, 1
	for i, m := range materials {
		rec := MaterialRecord{
			Diffuse:  m.Diffuse,
			Specular: m.Specular,
			Ambient:  m.Ambient,
		}
		tex := white
		if m.HasDiffuseTexture() {
			tex = m.DiffuseTexture
			if tex.Width <= 0 || tex.Height <= 0 || len(tex.Pix) != tex.Width*tex.Height*4 {
				return nil, fmt.Errorf("%w: material %q texture %q (%dx%d, %d bytes)",
					ErrTextureData, m.Name, tex.Path, tex.Width, tex.Height, len(tex.Pix))
			}
			rec.Diffuse = mgl32.Vec3{1, 1, 1}
			w = max(w, tex.Width)
			h = max(h, tex.Height)
		}
		rec.Texture = MakeTextureHandle(uint32(i), layerOf(tex))
		table.Records[i] = rec
	}
	if len(sources) > MaxTextureLayers {
		return nil, fmt.Errorf("%w: %d layers, limit %d", ErrTooManyLayers, len(sources), MaxTextureLayers)
	}

	w = min(w, maxTextureSize)
	h = min(h, maxTextureSize)
	table.Textures = TextureArray{
		Width:  w,
		Height: h,
		Layers: len(sources),
		Pix:    make([]byte, w*h*4*len(sources)),
	}
	for l, tex := range sources {
		fillLayer(layerImage(&table.Textures, l), tex)
	}
	return table, nil
}

func layerImage(a *TextureArray, i int) *image.RGBA {
	return &image.RGBA{
		Pix:    a.Layer(i),
		Stride: a.Width * 4,
		Rect:   image.Rect(0, 0, a.Width, a.Height),
	}
}

func fillLayer(dst *image.RGBA, tex *core.Texture) {
	src := &image.RGBA{
		Pix:    tex.Pix,
		Stride: tex.Width * 4,
		Rect:   image.Rect(0, 0, tex.Width, tex.Height),
	}
	if src.Rect.Eq(dst.Rect) {
		copy(dst.Pix, src.Pix)
		return
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// ValidateRecords checks that every record carries a resident handle naming
// its own slot and an existing layer.
func ValidateRecords(records []MaterialRecord, layers int) error {
	for i, r := range records {
		if !r.Texture.Valid() || int(r.Texture.Slot()) != i || int(r.Texture.Layer()) >= layers {
			return fmt.Errorf("%w: material %d handle %s", ErrInvalidHandle, i, r.Texture)
		}
	}
	return nil
}
