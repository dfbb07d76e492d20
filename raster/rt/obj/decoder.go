// Package obj loads Wavefront OBJ scenes and their MTL material libraries
// into core.Scene.
package obj

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	wavefront "github.com/g3n/engine/loader/obj"
	"github.com/g3n/engine/math32"
	"github.com/gekko3d/rasterizer"
	"github.com/gekko3d/rasterizer/raster/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/schollz/progressbar/v3"
)

var (
	ErrSyntax = errors.New("obj syntax error")
	ErrIndex  = errors.New("obj index out of range")
)

// noIndex marks a face corner without a texture coordinate or normal.
const noIndex = math.MaxUint32

// unassignedMaterial is the name the OBJ decoder gives faces that precede
// any usemtl.
const unassignedMaterial = "internalDefaultMat"

type Options struct {
	Logger rasterizer.Logger
	// Progress shows a terminal progress bar while the OBJ file is read.
	Progress bool
	// Textures is shared between loads when set.
	Textures *TextureCache
	// Open resolves mtllib references. Defaults to opening files next to
	// the OBJ file.
	Open func(name string) (io.ReadCloser, error)
}

// Load reads the OBJ file at path together with its material library and
// diffuse textures.
func Load(path string, opts Options) (*core.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if opts.Progress {
		size := int64(-1)
		if st, err := f.Stat(); err == nil {
			size = st.Size()
		}
		bar := progressbar.DefaultBytes(size, "load "+filepath.Base(path))
		defer bar.Close()
		r = io.TeeReader(f, bar)
	}

	return Decode(r, filepath.Base(path), filepath.Dir(path), opts)
}

// Decode parses an OBJ stream. Relative material library and texture paths
// resolve against dir.
func Decode(r io.Reader, name, dir string, opts Options) (*core.Scene, error) {
	if opts.Open == nil {
		opts.Open = func(lib string) (io.ReadCloser, error) {
			return os.Open(filepath.Join(dir, lib))
		}
	}
	if opts.Textures == nil {
		opts.Textures = NewTextureCache()
	}

	// The library is named inside the OBJ stream, so the geometry is
	// decoded first and the MTL file on its own afterwards.
	geom, err := wavefront.DecodeReader(r, strings.NewReader(""))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, name, err)
	}

	d := &decoder{
		name:      name,
		dir:       dir,
		opts:      opts,
		log:       rasterizer.OrNop(opts.Logger),
		scene:     core.NewScene(),
		materials: make(map[string]int),
		fallback:  -1,
	}
	for _, w := range geom.Warnings {
		d.log.Debugf("%s: %s", name, w)
	}
	d.positions = toVec3s(geom.Vertices)
	d.normals = toVec3s(geom.Normals)
	d.texcoords = toVec2s(geom.Uvs)

	if geom.Matlib != "" {
		lib, err := d.loadLibrary(geom.Matlib)
		if err != nil {
			return nil, err
		}
		d.addMaterials(geom, lib)
	}

	for i := range geom.Objects {
		if err := d.object(&geom.Objects[i]); err != nil {
			return nil, fmt.Errorf("%s: object %q: %w", name, geom.Objects[i].Name, err)
		}
	}

	d.log.Debugf("%s: %d surfaces, %d triangles, %d materials (%d textured)", name,
		len(d.scene.Surfaces), d.scene.TriangleCount(), len(d.scene.Materials), d.scene.TexturedMaterialCount())
	return d.scene, nil
}

type corner struct {
	v, t, n int // zero-based, -1 when absent
}

type decoder struct {
	name string
	dir  string
	opts Options
	log  rasterizer.Logger

	positions []mgl32.Vec3
	texcoords []mgl32.Vec2
	normals   []mgl32.Vec3

	scene     *core.Scene
	materials map[string]int
	fallback  int // index of the default material, -1 until needed
}

func toVec3s(a math32.ArrayF32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(a)/3)
	for i := range out {
		out[i] = mgl32.Vec3{a[3*i], a[3*i+1], a[3*i+2]}
	}
	return out
}

func toVec2s(a math32.ArrayF32) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(a)/2)
	for i := range out {
		out[i] = mgl32.Vec2{a[2*i], a[2*i+1]}
	}
	return out
}

func color3(c math32.Color) mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

func (d *decoder) loadLibrary(lib string) (*wavefront.Decoder, error) {
	rc, err := d.opts.Open(lib)
	if err != nil {
		return nil, fmt.Errorf("open material library %s: %w", lib, err)
	}
	defer rc.Close()

	dec, err := wavefront.DecodeReader(strings.NewReader(""), rc)
	if err != nil {
		return nil, fmt.Errorf("%w: material library %s: %v", ErrSyntax, lib, err)
	}
	for _, w := range dec.Warnings {
		d.log.Debugf("%s: %s", lib, w)
	}
	return dec, nil
}

// addMaterials appends the library's materials in the order the faces first
// use them, followed by the unused ones by name.
func (d *decoder) addMaterials(geom, lib *wavefront.Decoder) {
	var order []string
	for _, o := range geom.Objects {
		for _, f := range o.Faces {
			if _, known := lib.Materials[f.Material]; !known {
				continue
			}
			if _, added := d.materials[f.Material]; added {
				continue
			}
			d.materials[f.Material] = -1
			order = append(order, f.Material)
		}
	}
	var unused []string
	for name := range lib.Materials {
		if _, added := d.materials[name]; !added {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)

	for _, name := range append(order, unused...) {
		d.materials[name] = d.scene.AddMaterial(d.material(name, lib.Materials[name]))
	}
}

func (d *decoder) material(name string, src *wavefront.Material) *core.Material {
	m := &core.Material{
		Name:     name,
		Diffuse:  color3(src.Diffuse),
		Specular: color3(src.Specular),
		Ambient:  color3(src.Ambient),
	}
	if src.MapKd != "" {
		d.attachTexture(m, src.MapKd)
	}
	return m
}

// attachTexture loads a diffuse map. A texture that cannot be read leaves
// the material untextured.
func (d *decoder) attachTexture(m *core.Material, file string) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.dir, file)
	}
	tex, err := d.opts.Textures.Load(path)
	if err != nil {
		d.log.Warnf("material %q: %v", m.Name, err)
		return
	}
	m.DiffuseTexture = tex
	d.log.Debugf("material %q: texture %s %dx%d (%s)", m.Name, path, tex.Width, tex.Height, tex.ID)
}

func (d *decoder) materialIndex(name string) int {
	if idx, ok := d.materials[name]; ok {
		return idx
	}
	if name != "" && name != unassignedMaterial {
		d.log.Warnf("%s: unknown material %q, using default", d.name, name)
		// remember the miss so the warning is printed once
		d.materials[name] = d.defaultMaterial()
		return d.materials[name]
	}
	return d.defaultMaterial()
}

func (d *decoder) defaultMaterial() int {
	if d.fallback < 0 {
		d.fallback = d.scene.AddMaterial(core.DefaultMaterial())
	}
	return d.fallback
}

// object splits an object into one surface per run of faces sharing a
// material.
func (d *decoder) object(o *wavefront.Object) error {
	var current *core.Surface
	material := ""
	flush := func() {
		if current != nil && len(current.Triangles) > 0 {
			d.scene.AddSurface(current)
		}
	}
	for i := range o.Faces {
		f := &o.Faces[i]
		if current == nil || f.Material != material {
			flush()
			material = f.Material
			current = core.NewSurface(o.Name, d.materialIndex(material))
		}
		if err := d.face(current, f); err != nil {
			return fmt.Errorf("face %d: %w", i+1, err)
		}
	}
	flush()
	return nil
}

func (d *decoder) face(s *core.Surface, f *wavefront.Face) error {
	if len(f.Vertices) < 3 {
		return fmt.Errorf("%w: face with %d corners", ErrSyntax, len(f.Vertices))
	}
	corners := make([]corner, len(f.Vertices))
	for i := range f.Vertices {
		c, err := d.corner(f, i)
		if err != nil {
			return err
		}
		corners[i] = c
	}

	// triangle fan around corner 0
	for i := 1; i+1 < len(corners); i++ {
		s.AddTriangle(d.triangle(corners[0], corners[i], corners[i+1]))
	}
	return nil
}

func (d *decoder) corner(f *wavefront.Face, i int) (corner, error) {
	c := corner{v: f.Vertices[i], t: -1, n: -1}
	if err := checkIndex("vertex", c.v, len(d.positions)); err != nil {
		return c, err
	}
	if i < len(f.Uvs) && f.Uvs[i] != noIndex {
		c.t = f.Uvs[i]
		if err := checkIndex("texcoord", c.t, len(d.texcoords)); err != nil {
			return c, err
		}
	}
	if i < len(f.Normals) && f.Normals[i] != noIndex {
		c.n = f.Normals[i]
		if err := checkIndex("normal", c.n, len(d.normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

func checkIndex(kind string, i, count int) error {
	if i < 0 || i >= count {
		return fmt.Errorf("%w: %s %d of %d", ErrIndex, kind, i+1, count)
	}
	return nil
}

func (d *decoder) triangle(c0, c1, c2 corner) core.Triangle {
	var tri core.Triangle
	for i, c := range [3]corner{c0, c1, c2} {
		v := &tri.Vertices[i]
		v.Position = d.positions[c.v]
		if c.t >= 0 {
			v.TexCoord = d.texcoords[c.t]
		}
		if c.n >= 0 {
			v.Normal = d.normals[c.n]
		}
	}

	face := tri.FaceNormal()
	for i := range tri.Vertices {
		v := &tri.Vertices[i]
		if v.Normal.Len() == 0 {
			v.Normal = face
		} else {
			v.Normal = v.Normal.Normalize()
		}
	}
	computeTangents(&tri)
	return tri
}

// computeTangents derives a per-face tangent frame from the texture
// coordinate gradients, orthogonalized against each vertex normal.
func computeTangents(tri *core.Triangle) {
	v0, v1, v2 := tri.Vertices[0], tri.Vertices[1], tri.Vertices[2]
	e1 := v1.Position.Sub(v0.Position)
	e2 := v2.Position.Sub(v0.Position)
	d1 := v1.TexCoord.Sub(v0.TexCoord)
	d2 := v2.TexCoord.Sub(v0.TexCoord)

	det := d1.X()*d2.Y() - d2.X()*d1.Y()
	var tangent mgl32.Vec3
	if det != 0 {
		r := 1 / det
		tangent = e1.Mul(d2.Y()).Sub(e2.Mul(d1.Y())).Mul(r)
	}

	for i := range tri.Vertices {
		v := &tri.Vertices[i]
		n := v.Normal
		t := tangent.Sub(n.Mul(n.Dot(tangent)))
		if t.Len() < 1e-8 {
			t = orthogonal(n)
		}
		t = t.Normalize()
		v.Tangent = t
		v.Bitangent = n.Cross(t)
	}
}

// orthogonal returns a unit vector perpendicular to n.
func orthogonal(n mgl32.Vec3) mgl32.Vec3 {
	if n.Len() == 0 {
		return mgl32.Vec3{1, 0, 0}
	}
	axis := mgl32.Vec3{1, 0, 0}
	if mgl32.Abs(n.X()) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return axis.Sub(n.Mul(n.Dot(axis) / n.Dot(n))).Normalize()
}
