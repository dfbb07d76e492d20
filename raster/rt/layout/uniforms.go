package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrUnknownUniform = errors.New("unknown uniform")
	ErrUniformType    = errors.New("uniform type mismatch")
)

type UniformKind int

const (
	UniformFloat UniformKind = iota
	UniformVec3
	UniformVec4
	UniformMat4
)

// size and align follow WGSL uniform address space layout rules.
func (k UniformKind) size() int {
	switch k {
	case UniformFloat:
		return 4
	case UniformVec3:
		return 12
	case UniformVec4:
		return 16
	case UniformMat4:
		return 64
	}
	return 0
}

func (k UniformKind) align() int {
	if k == UniformFloat {
		return 4
	}
	return 16
}

func (k UniformKind) String() string {
	switch k {
	case UniformFloat:
		return "f32"
	case UniformVec3:
		return "vec3<f32>"
	case UniformVec4:
		return "vec4<f32>"
	case UniformMat4:
		return "mat4x4<f32>"
	}
	return fmt.Sprintf("UniformKind(%d)", int(k))
}

type UniformField struct {
	Name string
	Kind UniformKind
}

type uniformSlot struct {
	offset int
	kind   UniformKind
}

// UniformBlock is a host copy of a WGSL uniform struct whose members are set
// by name.
type UniformBlock struct {
	data  []byte
	slots map[string]uniformSlot
	dirty bool
}

// Names of the scene shader uniforms.
const (
	UniformMVP   = "MVP"
	UniformMV    = "MV"
	UniformMVN   = "MVN"
	UniformLight = "lightPossition"
)

// SceneUniformFields mirrors the Uniforms struct of the scene shader.
var SceneUniformFields = []UniformField{
	{Name: UniformMVP, Kind: UniformMat4},
	{Name: UniformMV, Kind: UniformMat4},
	{Name: UniformMVN, Kind: UniformMat4},
	{Name: UniformLight, Kind: UniformVec3},
}

func NewUniformBlock(fields []UniformField) *UniformBlock {
	b := &UniformBlock{slots: make(map[string]uniformSlot, len(fields))}
	offset := 0
	for _, f := range fields {
		offset = alignUp(offset, f.Kind.align())
		b.slots[f.Name] = uniformSlot{offset: offset, kind: f.Kind}
		offset += f.Kind.size()
	}
	b.data = make([]byte, alignUp(offset, 16))
	return b
}

func NewSceneUniforms() *UniformBlock {
	return NewUniformBlock(SceneUniformFields)
}

func alignUp(v, a int) int {
	return (v + a - 1) / a * a
}

func (b *UniformBlock) Size() int     { return len(b.data) }
func (b *UniformBlock) Bytes() []byte { return b.data }

// Offset reports the byte offset of the named member.
func (b *UniformBlock) Offset(name string) (int, bool) {
	s, ok := b.slots[name]
	return s.offset, ok
}

// Dirty reports whether any member changed since the last ClearDirty.
func (b *UniformBlock) Dirty() bool { return b.dirty }
func (b *UniformBlock) ClearDirty() { b.dirty = false }

func (b *UniformBlock) slot(name string, kind UniformKind) (uniformSlot, error) {
	s, ok := b.slots[name]
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownUniform, name)
	}
	if s.kind != kind {
		return s, fmt.Errorf("%w: %q is %s, not %s", ErrUniformType, name, s.kind, kind)
	}
	return s, nil
}

func (b *UniformBlock) putFloats(offset int, vals []float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b.data[offset+i*4:], math.Float32bits(v))
	}
	b.dirty = true
}

// SetMatrix4x4 stores m column-major, as WGSL expects.
func (b *UniformBlock) SetMatrix4x4(name string, m mgl32.Mat4) error {
	s, err := b.slot(name, UniformMat4)
	if err != nil {
		return err
	}
	b.putFloats(s.offset, m[:])
	return nil
}

func (b *UniformBlock) SetVector3(name string, v mgl32.Vec3) error {
	s, err := b.slot(name, UniformVec3)
	if err != nil {
		return err
	}
	b.putFloats(s.offset, v[:])
	return nil
}

func (b *UniformBlock) SetVector4(name string, v mgl32.Vec4) error {
	s, err := b.slot(name, UniformVec4)
	if err != nil {
		return err
	}
	b.putFloats(s.offset, v[:])
	return nil
}

func (b *UniformBlock) SetFloat(name string, v float32) error {
	s, err := b.slot(name, UniformFloat)
	if err != nil {
		return err
	}
	b.putFloats(s.offset, []float32{v})
	return nil
}
