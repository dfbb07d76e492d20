package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFrameTarget_800x600(t *testing.T) {
	p, err := PlanFrameTarget(800, 600, 4)
	require.NoError(t, err)

	require.Len(t, p.Multisampled, 3)
	for _, a := range p.Multisampled {
		assert.Equal(t, uint32(800), a.Width)
		assert.Equal(t, uint32(600), a.Height)
		assert.Equal(t, uint32(4), a.Samples)
	}
	depth, ok := p.Attachment(AttachmentDepth)
	require.True(t, ok)
	assert.Equal(t, FormatDepth24PlusStencil8, depth.Format)

	pairs := p.ResolvePairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, AttachmentPosition, pairs[0].Source.Kind)
	assert.Equal(t, AttachmentColor, pairs[1].Source.Kind)
	for _, pr := range pairs {
		assert.Equal(t, pr.Source.Format, pr.Dest.Format)
		assert.Equal(t, uint32(1), pr.Dest.Samples)
		assert.Equal(t, uint32(800), pr.Dest.Width)
		assert.Equal(t, uint32(600), pr.Dest.Height)
	}
	assert.Equal(t, FilterNearest, p.DownsampleFilter)
}

func TestPlanFrameTarget_Rejects(t *testing.T) {
	_, err := PlanFrameTarget(0, 600, 4)
	assert.ErrorIs(t, err, ErrInvalidViewport)

	_, err = PlanFrameTarget(800, 600, 8)
	assert.ErrorIs(t, err, ErrUnsupportedSampleCount)
	assert.ErrorIs(t, err, ErrIncompleteTarget)

	_, err = PlanFrameTarget(800, 600, 1)
	assert.ErrorIs(t, err, ErrUnsupportedSampleCount)
}

func TestFrameTargetValidate(t *testing.T) {
	cases := map[string]func(p *FrameTargetPlan){
		"mismatched size": func(p *FrameTargetPlan) { p.Multisampled[0].Width = 640 },
		"no depth":        func(p *FrameTargetPlan) { p.Multisampled = p.Multisampled[:2] },
		"no resolve partner": func(p *FrameTargetPlan) {
			p.Downsample = p.Downsample[1:]
		},
		"resolve format differs": func(p *FrameTargetPlan) {
			p.Downsample[1].Format = FormatRGBA16Float
		},
		"multisampled downsample": func(p *FrameTargetPlan) { p.Downsample[0].Samples = 4 },
		"missing format":          func(p *FrameTargetPlan) { p.Multisampled[1].Format = FormatUndefined },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := PlanFrameTarget(800, 600, 4)
			require.NoError(t, err)
			mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrIncompleteTarget)
		})
	}
}

func TestCheckAllocated(t *testing.T) {
	p, err := PlanFrameTarget(800, 600, 4)
	require.NoError(t, err)
	color, _ := p.Attachment(AttachmentColor)

	assert.NoError(t, CheckAllocated(color, 800, 600, 4, FormatRGBA8UnormSrgb))
	assert.ErrorIs(t, CheckAllocated(color, 800, 600, 1, FormatRGBA8UnormSrgb), ErrIncompleteTarget)
	assert.ErrorIs(t, CheckAllocated(color, 800, 600, 4, FormatRGBA16Float), ErrIncompleteTarget)
}
