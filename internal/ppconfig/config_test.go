package ppconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/pdpp/internal/pplog"
)

func newTestLogger() *pplog.Logger {
	return pplog.New("debug", false)
}

func TestNewDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, defaultScratchBytes, c.ScratchBytes)
	assert.Equal(t, defaultMergeSize, c.MergeSize)
	assert.Equal(t, defaultListSize, c.ListSize)
}

func TestFillDefaults(t *testing.T) {
	c := New()
	c.FillDefaults()
	assert.Equal(t, CtxCheck, c.CtxMode)
	assert.True(t, c.Trace)
}

func TestApplyModeOptimized(t *testing.T) {
	c := New()
	require.NoError(t, c.ApplyMode("optimized", newTestLogger()))
	c.FillDefaults()
	assert.Equal(t, CtxOptimized, c.CtxMode)
}

func TestApplyModeCommaList(t *testing.T) {
	c := New()
	require.NoError(t, c.ApplyMode("optimized,trace", newTestLogger()))
	assert.Equal(t, CtxOptimized, c.CtxMode)
	assert.True(t, c.Trace)
}

func TestApplyModeUnknownFlag(t *testing.T) {
	c := New()
	err := c.ApplyMode("bogus", newTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestApplyModeOverrideWarns(t *testing.T) {
	var buf strings.Builder
	log := pplog.New("debug", false)
	log.SetOutput(&buf)

	c := New()
	require.NoError(t, c.ApplyMode("optimized", log))
	require.NoError(t, c.ApplyMode("ctxcheck", log))

	assert.Equal(t, CtxCheck, c.CtxMode, "later occurrence wins")
	assert.Equal(t, 1, log.WarnCount())
	assert.Contains(t, buf.String(), "multiple times")
}

func TestParseVarFlag(t *testing.T) {
	c := New()
	require.NoError(t, c.ParseVarFlag("PDEVT_SCRATCH_BYTES=2048"))
	assert.Equal(t, 2048, c.ScratchBytes)

	require.NoError(t, c.ParseVarFlag("PDEVT_LIST_SIZE = 8"))
	assert.Equal(t, 8, c.ListSize)
}

func TestParseVarFlagMalformed(t *testing.T) {
	c := New()
	require.Error(t, c.ParseVarFlag("PDEVT_SCRATCH_BYTES"))
	require.Error(t, c.ParseVarFlag("PDEVT_SCRATCH_BYTES=notanumber"))
}

func TestParseVarFlagUnknownName(t *testing.T) {
	c := New()
	err := c.ParseVarFlag("PDEVT_BOGUS=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDEVT_BOGUS")
}

func TestApplyDefaultsThenFlagOverride(t *testing.T) {
	c := New()
	c.Apply(&Defaults{ScratchBytes: 4096})
	assert.Equal(t, 4096, c.ScratchBytes)

	require.NoError(t, c.ParseVarFlag("PDEVT_SCRATCH_BYTES=512"))
	assert.Equal(t, 512, c.ScratchBytes, "CLI flags must win over config-file defaults")
}

func TestApplyNilDefaults(t *testing.T) {
	c := New()
	c.Apply(nil)
	assert.Equal(t, defaultScratchBytes, c.ScratchBytes)
}
