package linematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStartFunc(t *testing.T) {
	m := Classify("    START_FUNC(myTask);\n")
	require.Equal(t, KindStartFunc, m.Kind)
	assert.Equal(t, "    ", m.Space)
}

func TestClassifyEndFunc(t *testing.T) {
	m := Classify("    END_FUNC;\n")
	require.Equal(t, KindEndFunc, m.Kind)
	assert.Equal(t, "    ", m.Space)
}

func TestClassifyCtxVarPointer(t *testing.T) {
	m := Classify("    __context pdEvent_t *evt;\n")
	require.Equal(t, KindCtxVar, m.Kind)
	assert.Equal(t, "pdEvent_t*", m.Type)
	assert.Equal(t, "evt", m.VarName)
	assert.Equal(t, "pdEvent_t *evt;", m.DeclLine)
}

func TestClassifyCtxVarNormalizesPointerWhitespace(t *testing.T) {
	m := Classify("__context int  *  p;\n")
	require.Equal(t, KindCtxVar, m.Kind)
	assert.Equal(t, "int*", m.Type, "pointer-qualifier whitespace must be normalized away")
	assert.Equal(t, "p", m.VarName)
}

func TestClassifyWaitSingle(t *testing.T) {
	m := Classify("    WAIT_EVT1(inChain);\n")
	require.Equal(t, KindWait, m.Kind)
	assert.Equal(t, 1, m.NumEvts)
	assert.Equal(t, []string{"inChain"}, m.VarList)
	assert.Equal(t, "WAIT_EVT1(inChain)", m.WaitText)
}

func TestClassifyWaitMultipleVars(t *testing.T) {
	m := Classify("WAIT_EVT1(inChain, a, b);\n")
	require.Equal(t, KindWait, m.Kind)
	assert.Equal(t, []string{"inChain", "a", "b"}, m.VarList)
}

func TestClassifyOpaqueLine(t *testing.T) {
	m := Classify("    int x = 5;\n")
	assert.Equal(t, KindNone, m.Kind)
}

func TestClassifyFirstHitWins(t *testing.T) {
	// A line that could textually resemble more than one pattern
	// only ever matches the first one tried; with these four
	// patterns no line can match two, but verify ordering doesn't
	// panic on pathological input resembling multiple macros.
	m := Classify("START_FUNC(f); END_FUNC;\n")
	assert.Equal(t, KindNone, m.Kind, "this malformed combined line matches neither anchored pattern")
}

func TestClassifyMultiLineFormUnsupported(t *testing.T) {
	m := Classify("START_FUNC(f\n")
	assert.Equal(t, KindNone, m.Kind)
}
