package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/rasterizer"
	"github.com/gekko3d/rasterizer/raster/rt/layout"
	"github.com/gekko3d/rasterizer/raster/rt/res"
)

var ErrAlreadyAllocated = errors.New("frame target already allocated")

// Attachment is one texture of the frame target with its default view.
type Attachment struct {
	Spec    layout.AttachmentSpec
	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

// FrameTargetManager owns the multisampled scene target and the
// single-sample downsample target it resolves into. Attachments are
// allocated once per viewport size; a resize tears them down and builds new
// ones.
type FrameTargetManager struct {
	Device  *wgpu.Device
	tracker *res.Tracker
	log     rasterizer.Logger

	Plan         layout.FrameTargetPlan
	Multisampled []*Attachment
	Downsample   []*Attachment

	ClearColor wgpu.Color
}

func NewFrameTargetManager(device *wgpu.Device, tracker *res.Tracker, logger rasterizer.Logger) *FrameTargetManager {
	return &FrameTargetManager{
		Device:     device,
		tracker:    tracker.Sub("frame target"),
		log:        rasterizer.OrNop(logger),
		ClearColor: wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
	}
}

func (m *FrameTargetManager) Allocated() bool { return len(m.Multisampled) > 0 }

// Allocate builds the attachments for a width x height viewport and checks
// the result for completeness.
func (m *FrameTargetManager) Allocate(width, height, samples int) error {
	if m.Allocated() {
		return ErrAlreadyAllocated
	}
	plan, err := layout.PlanFrameTarget(width, height, samples)
	if err != nil {
		return err
	}

	for _, spec := range plan.Multisampled {
		a, err := m.create("MSAA", spec, wgpu.TextureUsageRenderAttachment)
		if err != nil {
			m.Release()
			return err
		}
		m.Multisampled = append(m.Multisampled, a)
	}
	for _, spec := range plan.Downsample {
		a, err := m.create("Downsample", spec, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc)
		if err != nil {
			m.Release()
			return err
		}
		m.Downsample = append(m.Downsample, a)
	}
	m.Plan = plan

	if err := m.CheckComplete(); err != nil {
		m.Release()
		return err
	}
	m.log.Debugf("frame target %dx%d x%d: %d multisampled, %d downsample attachments",
		width, height, samples, len(m.Multisampled), len(m.Downsample))
	return nil
}

func (m *FrameTargetManager) create(prefix string, spec layout.AttachmentSpec, usage wgpu.TextureUsage) (*Attachment, error) {
	label := spec.Label(prefix)
	tex, err := m.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: spec.Width, Height: spec.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   spec.Samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TextureFormat(spec.Format),
		Usage:         usage,
	})
	if err != nil {
		return nil, createErr(label, err)
	}
	m.tracker.Track(label, tex)

	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, createErr(label+" view", err)
	}
	m.tracker.Track(label+" view", view)
	return &Attachment{Spec: spec, Texture: tex, View: view}, nil
}

// CheckComplete compares every allocated texture against the plan.
func (m *FrameTargetManager) CheckComplete() error {
	if err := m.Plan.Validate(); err != nil {
		return err
	}
	if len(m.Multisampled) != len(m.Plan.Multisampled) || len(m.Downsample) != len(m.Plan.Downsample) {
		return fmt.Errorf("%w: %d of %d attachments allocated", layout.ErrIncompleteTarget,
			len(m.Multisampled)+len(m.Downsample), len(m.Plan.Multisampled)+len(m.Plan.Downsample))
	}
	for _, a := range append(append([]*Attachment{}, m.Multisampled...), m.Downsample...) {
		t := a.Texture
		if err := layout.CheckAllocated(a.Spec, t.GetWidth(), t.GetHeight(), t.GetSampleCount(), LayoutFormat(t.GetFormat())); err != nil {
			return err
		}
	}
	return nil
}

// Resize replaces the attachments with ones of the new size. The sample
// count is kept.
func (m *FrameTargetManager) Resize(width, height int) error {
	samples := int(m.Plan.Samples)
	m.Release()
	return m.Allocate(width, height, samples)
}

func (m *FrameTargetManager) attachment(list []*Attachment, k layout.AttachmentKind) *Attachment {
	for _, a := range list {
		if a.Spec.Kind == k {
			return a
		}
	}
	return nil
}

// DownsampleColor is the resolved color image the present pass samples.
func (m *FrameTargetManager) DownsampleColor() *Attachment {
	return m.attachment(m.Downsample, layout.AttachmentColor)
}

// ScenePass describes the scene render pass: every color attachment is
// cleared and resolved into its downsample partner at the end of the pass,
// depth is cleared to 1 and stencil to 0.
func (m *FrameTargetManager) ScenePass() *wgpu.RenderPassDescriptor {
	desc := &wgpu.RenderPassDescriptor{Label: "Scene Pass"}
	for _, pair := range m.Plan.ResolvePairs() {
		src := m.attachment(m.Multisampled, pair.Source.Kind)
		dst := m.attachment(m.Downsample, pair.Dest.Kind)
		desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:          src.View,
			ResolveTarget: dst.View,
			LoadOp:        wgpu.LoadOpClear,
			StoreOp:       wgpu.StoreOpDiscard,
			ClearValue:    m.clearValue(pair.Source.Kind),
		})
	}
	if depth := m.attachment(m.Multisampled, layout.AttachmentDepth); depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:              depth.View,
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     wgpu.LoadOpClear,
			StencilStoreOp:    wgpu.StoreOpDiscard,
			StencilClearValue: 0,
		}
	}
	return desc
}

func (m *FrameTargetManager) clearValue(k layout.AttachmentKind) wgpu.Color {
	if k == layout.AttachmentColor {
		return m.ClearColor
	}
	return wgpu.Color{}
}

// Release frees every attachment. Safe to call repeatedly.
func (m *FrameTargetManager) Release() {
	m.tracker.ReleaseAll()
	m.Multisampled = nil
	m.Downsample = nil
}
