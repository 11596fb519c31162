package funcscope

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/pdpp/internal/emit"
	"github.com/zjy-dev/pdpp/internal/pplog"
	"github.com/zjy-dev/pdpp/internal/ppconfig"
)

func newMachine(mode ppconfig.CtxMode) (*Machine, *pplog.Logger) {
	cfg := ppconfig.New()
	cfg.CtxMode = mode
	log := pplog.New("debug", false)
	return New(cfg, log, emit.New(cfg, log)), log
}

func TestPassthroughUnmatchedLine(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "    int x = 5;\n", 1))
	assert.Equal(t, "    int x = 5;\n", w.String())
}

func TestCheckedModeEmitsDeclarationImmediately(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "START_FUNC(task);\n", 1))
	require.NoError(t, m.ProcessLine(&w, "    __context int *p;\n", 2))
	require.NoError(t, m.ProcessLine(&w, "END_FUNC;\n", 3))

	out := w.String()
	assert.Contains(t, out, "int *p;")
	assert.NotContains(t, out, "Hoisted")
}

func TestOptimizedModeBuffersAndHoists(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxOptimized)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "START_FUNC(task);\n", 1))
	assert.Equal(t, "START_FUNC(task);\n", w.String(), "START_FUNC line is written directly, never buffered")

	require.NoError(t, m.ProcessLine(&w, "    __context int *p;\n", 2))
	assert.Equal(t, "START_FUNC(task);\n", w.String(), "the declaration is buffered, nothing more written yet")

	require.NoError(t, m.ProcessLine(&w, "    p = 0;\n", 3))
	require.NoError(t, m.ProcessLine(&w, "END_FUNC;\n", 4))

	out := w.String()
	hoistIdx := strings.Index(out, "Hoisted")
	startIdx := strings.Index(out, "START_FUNC")
	bodyIdx := strings.Index(out, "p = 0;")
	require.True(t, hoistIdx >= 0 && startIdx >= 0 && bodyIdx >= 0)
	assert.Less(t, startIdx, hoistIdx, "START_FUNC line precedes hoisted decls")
	assert.Less(t, hoistIdx, bodyIdx, "hoisted decls precede the buffered body")
	assert.Contains(t, out, "/* Variable 'p' hoisted */")
}

func TestNestedStartFuncIsError(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "START_FUNC(outer);\n", 1))
	err := m.ProcessLine(&w, "START_FUNC(inner);\n", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestEndFuncWithoutStartPassesThrough(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "END_FUNC;\n", 1))
	assert.Equal(t, "END_FUNC;\n", w.String())
}

func TestCtxVarOutsideFunctionPassesThrough(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "    __context int *p;\n", 1))
	assert.Equal(t, "    __context int *p;\n", w.String())
}

func TestWaitOutsideFunctionPassesThrough(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "    WAIT_EVT1(inChain);\n", 1))
	assert.Equal(t, "    WAIT_EVT1(inChain);\n", w.String())
}

func TestCtxVarAfterEndFuncPassesThrough(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "START_FUNC(task);\n", 1))
	require.NoError(t, m.ProcessLine(&w, "END_FUNC;\n", 2))
	w.Reset()
	require.NoError(t, m.ProcessLine(&w, "    __context int *q;\n", 3))
	assert.Equal(t, "    __context int *q;\n", w.String())
}

func TestDuplicateContextVariableIsError(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "START_FUNC(task);\n", 1))
	require.NoError(t, m.ProcessLine(&w, "    __context int *p;\n", 2))
	err := m.ProcessLine(&w, "    __context int *p;\n", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWaitEmissionEndsUpInOutput(t *testing.T) {
	m, _ := newMachine(ppconfig.CtxCheck)
	var w bytes.Buffer
	require.NoError(t, m.ProcessLine(&w, "START_FUNC(task);\n", 1))
	require.NoError(t, m.ProcessLine(&w, "    WAIT_EVT1(inChain);\n", 2))
	require.NoError(t, m.ProcessLine(&w, "END_FUNC;\n", 3))

	out := w.String()
	assert.Contains(t, out, "case __LINE__: {")
	assert.Contains(t, out, "outChain = (pdEvent_t*)inChain;")
}
