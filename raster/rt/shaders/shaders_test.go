package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddedSources(t *testing.T) {
	for name, src := range map[string]string{
		"scene vertex":   SceneVertexWGSL,
		"scene fragment": SceneFragmentWGSL,
		"present":        PresentWGSL,
	} {
		assert.NotEmpty(t, src, name)
	}
	assert.Contains(t, SceneVertexWGSL, "fn "+VertexEntry)
	assert.Contains(t, SceneFragmentWGSL, "fn "+FragmentEntry)
	assert.Contains(t, PresentWGSL, "fn "+VertexEntry)
	assert.Contains(t, PresentWGSL, "fn "+FragmentEntry)
}

func TestUniformNamesMatchBothStages(t *testing.T) {
	for _, name := range []string{"MVP", "MV", "MVN", "lightPossition"} {
		assert.True(t, strings.Contains(SceneVertexWGSL, name+":"), name)
		assert.True(t, strings.Contains(SceneFragmentWGSL, name+":"), name)
	}
}

func TestFragmentMasksTextureLayer(t *testing.T) {
	assert.Contains(t, SceneFragmentWGSL, "m.texture.x & 0xFFFFu")
}
