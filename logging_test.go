package rasterizer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_LevelsAndSinks(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger("raster", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("frame %d", 2)
	l.Warnf("slow")
	l.Errorf("broken")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[raster] INFO: frame 2")
	assert.Contains(t, errOut.String(), "[raster] WARN: slow")
	assert.Contains(t, errOut.String(), "[raster] ERROR: broken")
}

func TestDefaultLogger_NamedSharesDebugSwitch(t *testing.T) {
	var out bytes.Buffer
	root := NewWriterLogger("raster", false, &out, &out)
	gpu := root.Named("gpu")

	root.SetDebug(true)
	assert.True(t, gpu.DebugEnabled())

	gpu.Debugf("texture array %dx%d", 4, 4)
	assert.Contains(t, out.String(), "[raster/gpu] DEBUG: texture array 4x4")
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
	assert.NotPanics(t, func() { l.Named("x").Errorf("ignored") })
}
