package layout

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/gekko3d/rasterizer/raster/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func checker(w, h int) *core.Texture {
	pix := make([]uint8, w*h*4)
	for i := range pix {
		pix[i] = 200
	}
	return &core.Texture{ID: "checker", Path: "checker.png", Width: w, Height: h, Pix: pix}
}

func TestTextureHandle(t *testing.T) {
	h := MakeTextureHandle(0, 0)
	assert.NotZero(t, uint64(h))
	assert.True(t, h.Valid())
	assert.Equal(t, uint32(0), h.Layer())

	h = MakeTextureHandle(5, 17)
	assert.Equal(t, uint32(17), h.Layer())
	assert.Equal(t, uint32(5), h.Slot())
	assert.NotEqual(t, MakeTextureHandle(4, 17), h)
	assert.False(t, TextureHandle(0).Valid())
}

func TestMaterialRecordEncoding(t *testing.T) {
	rec := MaterialRecord{
		Diffuse:  mgl32.Vec3{0.8, 0.1, 0.1},
		Specular: mgl32.Vec3{0.5, 0.5, 0.5},
		Ambient:  mgl32.Vec3{0.1, 0.2, 0.3},
		Texture:  MakeTextureHandle(0, 3),
	}
	buf := make([]byte, MaterialRecordSize)
	for i := range buf {
		buf[i] = 0xff
	}
	rec.Encode(buf)

	assert.Equal(t, float32(0.8), f32At(buf, 0))
	assert.Equal(t, float32(0.1), f32At(buf, 4))
	assert.Equal(t, float32(0.5), f32At(buf, 16))
	assert.Equal(t, float32(0.3), f32At(buf, 40))
	assert.Equal(t, uint64(1<<32|3), binary.LittleEndian.Uint64(buf[48:]))

	for _, pad := range [][2]int{{12, 16}, {28, 32}, {44, 48}, {56, 64}} {
		assert.Equal(t, make([]byte, pad[1]-pad[0]), buf[pad[0]:pad[1]], "padding %v", pad)
	}
}

func TestBuildMaterialTable_UntexturedSingleSurface(t *testing.T) {
	m := &core.Material{
		Name:     "red",
		Diffuse:  mgl32.Vec3{0.8, 0.1, 0.1},
		Specular: mgl32.Vec3{0.2, 0.2, 0.2},
		Ambient:  mgl32.Vec3{0.05, 0.05, 0.05},
	}
	s := core.NewSurface("quad", 0)
	s.AddTriangle(tri(0))
	s.AddTriangle(tri(0))

	verts, err := PackGeometry([]*core.Surface{s}, 1)
	require.NoError(t, err)
	assert.Len(t, verts, 6)

	table, err := BuildMaterialTable([]*core.Material{m}, 2048)
	require.NoError(t, err)
	require.Len(t, table.Records, 1)

	rec := table.Records[0]
	assert.Equal(t, mgl32.Vec3{0.8, 0.1, 0.1}, rec.Diffuse)
	assert.Equal(t, m.Specular, rec.Specular)
	assert.Equal(t, m.Ambient, rec.Ambient)
	assert.True(t, rec.Texture.Valid())
	assert.NoError(t, ValidateRecords(table.Records, table.Textures.Layers))

	// The placeholder layer is opaque white.
	assert.Equal(t, 1, table.Textures.Width)
	assert.Equal(t, 1, table.Textures.Height)
	assert.Equal(t, []byte{255, 255, 255, 255}, table.Textures.Layer(0))

	assert.Len(t, table.Bytes(), MaterialRecordSize)
}

func TestBuildMaterialTable_TexturedIsNeutralWhite(t *testing.T) {
	plain := &core.Material{Name: "plain", Diffuse: mgl32.Vec3{0.1, 0.2, 0.3}}
	textured := &core.Material{Name: "tex", Diffuse: mgl32.Vec3{0.9, 0.9, 0.1}, DiffuseTexture: checker(8, 4)}

	table, err := BuildMaterialTable([]*core.Material{plain, textured}, 2048)
	require.NoError(t, err)
	require.Len(t, table.Records, 2)

	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, table.Records[0].Diffuse)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, table.Records[1].Diffuse)
	assert.NotEqual(t, table.Records[0].Texture, table.Records[1].Texture)
	assert.Equal(t, uint32(1), table.Records[1].Texture.Layer())

	assert.Equal(t, 8, table.Textures.Width)
	assert.Equal(t, 4, table.Textures.Height)
	assert.Equal(t, 2, table.Textures.Layers)
	assert.Len(t, table.Textures.Pix, 8*4*4*2)

	for _, b := range table.Textures.Layer(0) {
		assert.Equal(t, byte(255), b)
	}
	assert.Equal(t, byte(200), table.Textures.Layer(1)[0])

	table.Release()
	assert.Nil(t, table.Textures.Pix)
	assert.Len(t, table.Records, 2)
}

func TestBuildMaterialTable_ClampsLayerSize(t *testing.T) {
	m := &core.Material{Name: "big", DiffuseTexture: checker(64, 32)}
	table, err := BuildMaterialTable([]*core.Material{m}, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, table.Textures.Width)
	assert.Equal(t, 16, table.Textures.Height)
	assert.Len(t, table.Textures.Layer(0), 16*16*4)
}

func TestBuildMaterialTable_Errors(t *testing.T) {
	_, err := BuildMaterialTable(nil, 2048)
	assert.ErrorIs(t, err, ErrNoMaterials)

	bad := &core.Material{Name: "bad", DiffuseTexture: &core.Texture{Width: 2, Height: 2, Pix: make([]uint8, 3)}}
	_, err = BuildMaterialTable([]*core.Material{bad}, 2048)
	assert.ErrorIs(t, err, ErrTextureData)

	_, err = BuildMaterialTable([]*core.Material{core.DefaultMaterial()}, 0)
	assert.ErrorIs(t, err, ErrTextureLimit)

	many := make([]*core.Material, MaxTextureLayers+1)
	for i := range many {
		tex := checker(1, 1)
		tex.ID = fmt.Sprintf("tex-%d", i)
		many[i] = &core.Material{Name: tex.ID, DiffuseTexture: tex}
	}
	_, err = BuildMaterialTable(many, 2048)
	assert.ErrorIs(t, err, ErrTooManyLayers)

	// Untextured materials need a single layer however many there are.
	for i := range many {
		many[i] = core.DefaultMaterial()
	}
	_, err = BuildMaterialTable(many, 2048)
	assert.NoError(t, err)
}

func TestBuildMaterialTable_SharesLayers(t *testing.T) {
	big := checker(64, 64)
	shared := checker(4, 4)
	shared.ID = "shared"
	sameFile := checker(4, 4)
	sameFile.ID = "shared"
	materials := []*core.Material{
		{Name: "hull", DiffuseTexture: big},
		core.DefaultMaterial(),
		{Name: "glass", Diffuse: mgl32.Vec3{0.2, 0.3, 0.9}},
		core.DefaultMaterial(),
		{Name: "deck", DiffuseTexture: shared},
		{Name: "rail", DiffuseTexture: sameFile},
		{Name: "hull2", DiffuseTexture: big},
	}

	table, err := BuildMaterialTable(materials, 2048)
	require.NoError(t, err)
	require.Len(t, table.Records, len(materials))
	require.NoError(t, ValidateRecords(table.Records, table.Textures.Layers))

	// big, white placeholder, shared
	assert.Equal(t, 3, table.Textures.Layers)
	assert.Len(t, table.Textures.Pix, 64*64*4*3)

	layer := func(i int) uint32 { return table.Records[i].Texture.Layer() }
	assert.Equal(t, uint32(0), layer(0))
	assert.Equal(t, layer(0), layer(6))
	assert.Equal(t, uint32(1), layer(1))
	assert.Equal(t, layer(1), layer(2))
	assert.Equal(t, layer(1), layer(3))
	assert.Equal(t, uint32(2), layer(4))
	assert.Equal(t, layer(4), layer(5))

	handles := make(map[TextureHandle]bool)
	for _, r := range table.Records {
		handles[r.Texture] = true
	}
	assert.Len(t, handles, len(materials))

	assert.Equal(t, mgl32.Vec3{0.2, 0.3, 0.9}, table.Records[2].Diffuse)
	for _, b := range table.Textures.Layer(1) {
		if b != 255 {
			t.Fatalf("white placeholder layer holds %d", b)
		}
	}
}

func TestValidateRecords(t *testing.T) {
	assert.ErrorIs(t, ValidateRecords([]MaterialRecord{{}}, 1), ErrInvalidHandle)
	assert.ErrorIs(t, ValidateRecords([]MaterialRecord{{Texture: MakeTextureHandle(0, 2)}}, 2), ErrInvalidHandle)
	assert.ErrorIs(t, ValidateRecords([]MaterialRecord{{Texture: MakeTextureHandle(1, 0)}}, 1), ErrInvalidHandle)
	assert.NoError(t, ValidateRecords([]MaterialRecord{
		{Texture: MakeTextureHandle(0, 0)},
		{Texture: MakeTextureHandle(1, 0)},
	}, 1))
}
