// Package emit generates the C fragment that replaces one WAIT_EVT<N>
// invocation, per spec.md §4.3, and the hoisted variable declarations
// optimized mode emits at END_FUNC (§4.3.4).
//
// Fragments are built with a *bytes.Buffer accumulator and repeated
// fmt.Fprintf calls, the same shape as the retrieved syzkaller
// pkg/csource/csource.go example's C-source generation, rather than
// text/template: every line is either literal or a one-line
// substitution, so a template adds indirection without buying
// anything here.
package emit

import (
	"bytes"
	"fmt"

	"github.com/zjy-dev/pdpp/internal/ctxvar"
	"github.com/zjy-dev/pdpp/internal/pplog"
	"github.com/zjy-dev/pdpp/internal/ppconfig"
	"github.com/zjy-dev/pdpp/internal/waitlist"
)

// Symbols used literally in generated code (spec.md §4.3).
const (
	symContinuation     = "_continuation"
	symOutChain         = "outChain"
	symFallthrough      = "_fallthrough"
	symBlockedNextJump  = "_blockedNextJump"
	symListEvt          = "_listEvt"
	symTListEvt         = "_tlistEvt"
	symTScratch         = "_tScratch"
	symInChain          = "inChain"
)

// Emitter generates code against a fixed mode configuration and
// diagnostic sink.
type Emitter struct {
	Mode *ppconfig.Config
	Log  *pplog.Logger
}

// New returns an Emitter bound to cfg and log.
func New(cfg *ppconfig.Config, log *pplog.Logger) *Emitter {
	return &Emitter{Mode: cfg, Log: log}
}

// EmitWait writes the full replacement sequence for one WAIT_EVT
// invocation to w. indent is the statement's own leading whitespace;
// unit is the "one indent" increment string captured from the
// enclosing START_FUNC (spec.md §9, "Indent normalization"). lineNo is
// the source line of the WAIT_EVT invocation, used in diagnostics. The
// resume label is emitted as "case __LINE__:", four lines below the
// "_blockedNextJump = __LINE__ + 4;" that targets it. waitText is the original "WAIT_EVTn(...)" text for the marker
// comments.
func (e *Emitter) EmitWait(w *bytes.Buffer, indent, unit string, lineNo int, waitText string, c *waitlist.Classified) {
	checked := e.Mode.CtxMode == ppconfig.CtxCheck

	fmt.Fprintf(w, "%s/* *** %s { *** */\n", indent, waitText)
	fmt.Fprintf(w, "%s%s = (pdEvent_t*)%s;\n", indent, symOutChain, c.Awaited.Name)

	if checked {
		e.emitEventSave(w, indent, c.CarriedEvents)
		e.emitScalarSave(w, indent, c.CarriedScalars, lineNo)
	}

	fmt.Fprintf(w, "%sif (%s->properties & PDEVT_IS_READY) {\n", indent, symOutChain)
	fmt.Fprintf(w, "%s%s%s = true;\n", indent, unit, symFallthrough)
	fmt.Fprintf(w, "%s} else {\n", indent)
	if !checked {
		e.emitEventSave(w, indent+unit, c.CarriedEvents)
		e.emitScalarSave(w, indent+unit, c.CarriedScalars, lineNo)
	}
	fmt.Fprintf(w, "%s%s%s = __LINE__ + 4;\n", indent, unit, symBlockedNextJump)
	fmt.Fprintf(w, "%s%sgoto blockedReturn;\n", indent, unit)
	fmt.Fprintf(w, "%s}\n", indent)

	fmt.Fprintf(w, "%s} /* End of case statement */\n", indent)
	fmt.Fprintf(w, "%scase __LINE__: {\n", indent)

	if checked {
		e.emitEventRestore(w, indent+unit, c.CarriedEvents, true)
		e.emitScalarRestore(w, indent+unit, c.CarriedScalars, true)
		if c.Awaited.Name != symInChain {
			fmt.Fprintf(w, "%s%s %s = NULL;\n", indent+unit, c.Awaited.Type, c.Awaited.Name)
		}
	}

	fmt.Fprintf(w, "%s%sif (%s) {\n", indent, unit, symFallthrough)
	if checked {
		fmt.Fprintf(w, "%s%s/* %s->evtCtx may now be released */\n", indent+unit, unit, symContinuation)
		fmt.Fprintf(w, "%s%s%s = %s;\n", indent+unit, unit, symOutChain, symInChain)
	} else {
		fmt.Fprintf(w, "%s%s/* no restore required on the fast path */\n", indent+unit, unit)
	}
	fmt.Fprintf(w, "%s%s} else {\n", indent, unit)
	if !checked {
		e.emitEventRestore(w, indent+unit+unit, c.CarriedEvents, false)
		e.emitScalarRestore(w, indent+unit+unit, c.CarriedScalars, false)
	}
	fmt.Fprintf(w, "%s%s = %s;\n", indent+unit+unit, c.Awaited.Name, symOutChain)
	fmt.Fprintf(w, "%s/* %s->evtCtx may now be released */\n", indent+unit+unit, symContinuation)
	fmt.Fprintf(w, "%s%s}\n", indent, unit)

	fmt.Fprintf(w, "%s/* *** END %s *** */\n", indent, waitText)
}

// emitEventSave implements spec.md §4.3.1 at the given indent.
func (e *Emitter) emitEventSave(w *bytes.Buffer, indent string, events []*ctxvar.Var) {
	k := len(events)
	listSize := e.Mode.ListSize

	if k <= listSize {
		fmt.Fprintf(w, "%s/* ALLOCATE pdEventList_t (%d events) -> %s->evtCtx */\n", indent, k, symContinuation)
	} else {
		fmt.Fprintf(w, "%s/* ALLOCATE pdEventList_t + %d overflow slots -> %s->evtCtx */\n", indent, k-listSize, symContinuation)
	}
	fmt.Fprintf(w, "%s%s->evtCtx->count = %d;\n", indent, symContinuation, k)
	for i, v := range events {
		if i < listSize {
			fmt.Fprintf(w, "%s%s->evtCtx->events[%d] = %s;\n", indent, symContinuation, i, v.Name)
		} else {
			fmt.Fprintf(w, "%s%s->evtCtx->next[%d] = %s;\n", indent, symContinuation, i-listSize, v.Name)
		}
	}
}

// emitScalarSave implements spec.md §4.3.2, including the COMPILE_ASSERT.
// The assert is emitted with the aligned-up mask (spec.md §9: "An
// implementer should emit the aligned-up form in both places but
// should flag this discrepancy rather than silently fix semantics").
// The discrepancy between this and the source repository's `& 0x7`
// form is logged, not silently carried forward.
func (e *Emitter) emitScalarSave(w *bytes.Buffer, indent string, scalars []*ctxvar.Var, lineNo int) {
	if len(scalars) == 0 {
		return
	}
	fmt.Fprintf(w, "%s%s = %s->scratch;\n", indent, symTScratch, symContinuation)

	var terms []string
	for _, v := range scalars {
		fmt.Fprintf(w, "%s*(%s*)%s = %s;\n", indent, v.Type, symTScratch, v.Name)
		term := alignedSizeExpr(v.Type)
		fmt.Fprintf(w, "%s%s += %s;\n", indent, symTScratch, term)
		terms = append(terms, term)
	}

	sum := terms[0]
	for _, t := range terms[1:] {
		sum += " + " + t
	}
	fmt.Fprintf(w, "%sCOMPILE_ASSERT((%s) <= PDEVT_SCRATCH_BYTES);\n", indent, sum)
	e.Log.Warn("scratch COMPILE_ASSERT emitted with the corrected aligned-up mask (& ~0x7); the original source's `& 0x7` form does not bound scratch usage (in WAIT_EVT on line %d)", lineNo)
}

// emitEventRestore implements spec.md §4.3.3 for events. redeclare
// selects declare-fresh-local (checked fallthrough) vs assign-existing
// (optimized blocked) form.
func (e *Emitter) emitEventRestore(w *bytes.Buffer, indent string, events []*ctxvar.Var, redeclare bool) {
	if len(events) == 0 {
		return
	}
	listSize := e.Mode.ListSize
	fmt.Fprintf(w, "%s%s = %s->evtCtx;\n", indent, symTListEvt, symContinuation)
	for i, v := range events {
		var src string
		if i < listSize {
			src = fmt.Sprintf("%s->events[%d]", symTListEvt, i)
		} else {
			src = fmt.Sprintf("%s->next[%d]", symTListEvt, i-listSize)
		}
		if redeclare {
			fmt.Fprintf(w, "%s%s %s = %s;\n", indent, v.Type, v.Name, src)
		} else {
			fmt.Fprintf(w, "%s%s = %s;\n", indent, v.Name, src)
		}
	}
}

// emitScalarRestore implements spec.md §4.3.3 for scalars.
func (e *Emitter) emitScalarRestore(w *bytes.Buffer, indent string, scalars []*ctxvar.Var, redeclare bool) {
	if len(scalars) == 0 {
		return
	}
	fmt.Fprintf(w, "%s%s = %s->scratch;\n", indent, symTScratch, symContinuation)
	for _, v := range scalars {
		if redeclare {
			fmt.Fprintf(w, "%s%s %s = *(%s*)%s;\n", indent, v.Type, v.Name, v.Type, symTScratch)
		} else {
			fmt.Fprintf(w, "%s%s = *(%s*)%s;\n", indent, v.Name, v.Type, symTScratch)
		}
		fmt.Fprintf(w, "%s%s += %s;\n", indent, symTScratch, alignedSizeExpr(v.Type))
	}
}

// EmitHoisted writes the optimized-mode hoisted declarations of
// spec.md §4.3.4 at the given (function-body) indent, one per
// variable in vars, in insertion order. Each declaration is the
// variable's original DeclLine text; a variable with an empty DeclLine
// is declared as "Type Name;". inChain must already be excluded by the
// caller (ctxvar.Table.Hoistable does this).
func (e *Emitter) EmitHoisted(w *bytes.Buffer, indent string, vars []*ctxvar.Var) {
	for _, v := range vars {
		decl := v.DeclLine
		if decl == "" {
			decl = fmt.Sprintf("%s %s;", v.Type, v.Name)
		}
		fmt.Fprintf(w, "%s%s /* Hoisted; originally on line %d */\n", indent, decl, v.LineNo)
	}
}

// alignedSizeExpr returns the 8-byte aligned-up size expression for
// C type t: "((sizeof(t) + 7) & ~0x7)".
func alignedSizeExpr(t string) string {
	return fmt.Sprintf("((sizeof(%s) + 7) & ~0x7)", t)
}
