package layout

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneUniformOffsets(t *testing.T) {
	b := NewSceneUniforms()
	assert.Equal(t, 208, b.Size())

	for name, want := range map[string]int{
		UniformMVP:   0,
		UniformMV:    64,
		UniformMVN:   128,
		UniformLight: 192,
	} {
		off, ok := b.Offset(name)
		require.True(t, ok, name)
		assert.Equal(t, want, off, name)
	}
}

func TestUniformBlockSetByName(t *testing.T) {
	b := NewSceneUniforms()
	assert.False(t, b.Dirty())

	m := mgl32.Translate3D(1, 2, 3)
	require.NoError(t, b.SetMatrix4x4(UniformMV, m))
	require.NoError(t, b.SetVector3(UniformLight, mgl32.Vec3{4, 5, 6}))
	assert.True(t, b.Dirty())

	// Column-major: translation lives in the last column.
	assert.Equal(t, float32(1), f32At(b.Bytes(), 64+48))
	assert.Equal(t, float32(3), f32At(b.Bytes(), 64+56))
	assert.Equal(t, float32(1), f32At(b.Bytes(), 64+60))
	assert.Equal(t, float32(5), f32At(b.Bytes(), 196))

	b.ClearDirty()
	assert.False(t, b.Dirty())
}

func TestUniformBlockErrors(t *testing.T) {
	b := NewSceneUniforms()
	assert.ErrorIs(t, b.SetMatrix4x4("lightPosition", mgl32.Ident4()), ErrUnknownUniform)
	assert.ErrorIs(t, b.SetVector3(UniformMVP, mgl32.Vec3{}), ErrUniformType)
	assert.ErrorIs(t, b.SetFloat(UniformMV, 1), ErrUniformType)
	assert.ErrorIs(t, b.SetVector4("nope", mgl32.Vec4{}), ErrUnknownUniform)
}

func TestUniformBlockPacking(t *testing.T) {
	b := NewUniformBlock([]UniformField{
		{Name: "a", Kind: UniformFloat},
		{Name: "b", Kind: UniformVec3},
		{Name: "c", Kind: UniformFloat},
	})
	off, _ := b.Offset("b")
	assert.Equal(t, 16, off)
	off, _ = b.Offset("c")
	assert.Equal(t, 28, off)
	assert.Equal(t, 32, b.Size())

	require.NoError(t, b.SetFloat("c", 2.5))
	assert.Equal(t, float32(2.5), f32At(b.Bytes(), 28))
}
