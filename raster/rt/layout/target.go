package layout

import (
	"errors"
	"fmt"
)

var (
	ErrIncompleteTarget       = errors.New("incomplete frame target")
	ErrUnsupportedSampleCount = errors.New("unsupported sample count")
	ErrInvalidViewport        = errors.New("invalid viewport")
)

// MultisampleCount is the only multisample count WebGPU guarantees.
const MultisampleCount = 4

type Format int

const (
	FormatUndefined Format = iota
	FormatRGBA16Float
	FormatRGBA8UnormSrgb
	FormatDepth24PlusStencil8
)

func (f Format) String() string {
	switch f {
	case FormatRGBA16Float:
		return "rgba16float"
	case FormatRGBA8UnormSrgb:
		return "rgba8unorm-srgb"
	case FormatDepth24PlusStencil8:
		return "depth24plus-stencil8"
	}
	return "undefined"
}

func (f Format) IsDepth() bool { return f == FormatDepth24PlusStencil8 }

type AttachmentKind int

const (
	AttachmentPosition AttachmentKind = iota
	AttachmentColor
	AttachmentDepth
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentPosition:
		return "position"
	case AttachmentColor:
		return "color"
	case AttachmentDepth:
		return "depth"
	}
	return fmt.Sprintf("AttachmentKind(%d)", int(k))
}

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

type AttachmentSpec struct {
	Kind    AttachmentKind
	Format  Format
	Width   uint32
	Height  uint32
	Samples uint32
}

func (a AttachmentSpec) Label(prefix string) string {
	return fmt.Sprintf("%s %s %dx%d x%d", prefix, a.Kind, a.Width, a.Height, a.Samples)
}

// FrameTargetPlan describes the multisampled scene target and the
// single-sample downsample target it resolves into.
type FrameTargetPlan struct {
	Width   uint32
	Height  uint32
	Samples uint32

	// Multisampled holds the color attachments in shader output order,
	// followed by depth.
	Multisampled []AttachmentSpec
	Downsample   []AttachmentSpec
	// DownsampleFilter is used when the downsample color is sampled for
	// presentation.
	DownsampleFilter Filter
}

// ColorKinds are the scene pass color outputs, in @location order.
var ColorKinds = []AttachmentKind{AttachmentPosition, AttachmentColor}

func colorFormat(k AttachmentKind) Format {
	switch k {
	case AttachmentPosition:
		return FormatRGBA16Float
	case AttachmentColor:
		return FormatRGBA8UnormSrgb
	}
	return FormatUndefined
}

// PlanFrameTarget lays out the attachments for a width x height viewport.
func PlanFrameTarget(width, height, samples int) (FrameTargetPlan, error) {
	if width <= 0 || height <= 0 {
		return FrameTargetPlan{}, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	if samples < 0 {
		return FrameTargetPlan{}, fmt.Errorf("%w: %d", ErrUnsupportedSampleCount, samples)
	}
	w, h, s := uint32(width), uint32(height), uint32(samples)
	p := FrameTargetPlan{Width: w, Height: h, Samples: s, DownsampleFilter: FilterNearest}
	for _, k := range ColorKinds {
		f := colorFormat(k)
		p.Multisampled = append(p.Multisampled, AttachmentSpec{Kind: k, Format: f, Width: w, Height: h, Samples: s})
		p.Downsample = append(p.Downsample, AttachmentSpec{Kind: k, Format: f, Width: w, Height: h, Samples: 1})
	}
	p.Multisampled = append(p.Multisampled, AttachmentSpec{
		Kind: AttachmentDepth, Format: FormatDepth24PlusStencil8, Width: w, Height: h, Samples: s,
	})
	return p, p.Validate()
}

// Validate reports ErrIncompleteTarget when the plan cannot be rendered to
// and resolved.
func (p FrameTargetPlan) Validate() error {
	if p.Width == 0 || p.Height == 0 {
		return fmt.Errorf("%w: %w: %dx%d", ErrIncompleteTarget, ErrInvalidViewport, p.Width, p.Height)
	}
	if p.Samples != MultisampleCount {
		return fmt.Errorf("%w: %w: %d", ErrIncompleteTarget, ErrUnsupportedSampleCount, p.Samples)
	}

	depth := 0
	for _, a := range p.Multisampled {
		if a.Width != p.Width || a.Height != p.Height || a.Samples != p.Samples {
			return fmt.Errorf("%w: %s is %dx%d x%d, target is %dx%d x%d", ErrIncompleteTarget,
				a.Kind, a.Width, a.Height, a.Samples, p.Width, p.Height, p.Samples)
		}
		if a.Format == FormatUndefined {
			return fmt.Errorf("%w: %s has no format", ErrIncompleteTarget, a.Kind)
		}
		if a.Format.IsDepth() {
			depth++
			continue
		}
		partner, ok := p.downsample(a.Kind)
		if !ok {
			return fmt.Errorf("%w: %s has no resolve target", ErrIncompleteTarget, a.Kind)
		}
		if partner.Format != a.Format {
			return fmt.Errorf("%w: %s resolves %s into %s", ErrIncompleteTarget, a.Kind, a.Format, partner.Format)
		}
	}
	if depth != 1 {
		return fmt.Errorf("%w: %d depth attachments", ErrIncompleteTarget, depth)
	}

	for _, d := range p.Downsample {
		if d.Width != p.Width || d.Height != p.Height || d.Samples != 1 {
			return fmt.Errorf("%w: downsample %s is %dx%d x%d", ErrIncompleteTarget,
				d.Kind, d.Width, d.Height, d.Samples)
		}
	}
	if _, ok := p.downsample(AttachmentColor); !ok {
		return fmt.Errorf("%w: no downsample color", ErrIncompleteTarget)
	}
	return nil
}

func (p FrameTargetPlan) downsample(k AttachmentKind) (AttachmentSpec, bool) {
	for _, d := range p.Downsample {
		if d.Kind == k {
			return d, true
		}
	}
	return AttachmentSpec{}, false
}

// Attachment returns the multisampled attachment of kind k.
func (p FrameTargetPlan) Attachment(k AttachmentKind) (AttachmentSpec, bool) {
	for _, a := range p.Multisampled {
		if a.Kind == k {
			return a, true
		}
	}
	return AttachmentSpec{}, false
}

type ResolvePair struct {
	Source AttachmentSpec
	Dest   AttachmentSpec
}

// ResolvePairs lists the multisampled color attachments with their
// downsample destinations, in color output order.
func (p FrameTargetPlan) ResolvePairs() []ResolvePair {
	var pairs []ResolvePair
	for _, a := range p.Multisampled {
		if a.Format.IsDepth() {
			continue
		}
		if d, ok := p.downsample(a.Kind); ok {
			pairs = append(pairs, ResolvePair{Source: a, Dest: d})
		}
	}
	return pairs
}

// CheckAllocated compares what the device reports for an allocated texture
// against its spec.
func CheckAllocated(spec AttachmentSpec, width, height, samples uint32, format Format) error {
	if width != spec.Width || height != spec.Height || samples != spec.Samples || format != spec.Format {
		return fmt.Errorf("%w: %s allocated as %dx%d x%d %s, want %dx%d x%d %s", ErrIncompleteTarget,
			spec.Kind, width, height, samples, format, spec.Width, spec.Height, spec.Samples, spec.Format)
	}
	return nil
}
