// Package funcscope implements the per-function state machine of
// spec.md §4.2/§3.3: it tracks whether the scan is OUTSIDE or INSIDE a
// START_FUNC/END_FUNC pair, owns that function's context-variable
// table, and (in optimized mode) buffers the lines after START_FUNC up
// to END_FUNC so that hoisted declarations can be inserted ahead of them.
//
// Grounded on ParseState in
// original_source/ocr/scripts/mtParse/parser.py: parseLine's dispatch
// loop, _startCallback/_endCallback/_ctxVarCallback/_waitCallback, and
// _writeLine's buffer-or-emit decision.
package funcscope

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/zjy-dev/pdpp/internal/ctxvar"
	"github.com/zjy-dev/pdpp/internal/emit"
	"github.com/zjy-dev/pdpp/internal/linematch"
	"github.com/zjy-dev/pdpp/internal/pplog"
	"github.com/zjy-dev/pdpp/internal/ppconfig"
	"github.com/zjy-dev/pdpp/internal/waitlist"
)

// State is the current scan position relative to a START_FUNC/END_FUNC pair.
type State int

const (
	Outside State = iota
	Inside
)

// Machine is the function-scope state machine. One Machine is reused
// across an entire input file; its ctxvar.Table is rebuilt at each
// START_FUNC.
type Machine struct {
	cfg     *ppconfig.Config
	log     *pplog.Logger
	emitter *emit.Emitter

	state     State
	startLine int
	indent    string // indentIncrement, captured from START_FUNC
	table     *ctxvar.Table
	buffer    []string // non-nil while buffering (optimized mode, inside a function)
}

// New returns a Machine bound to cfg, log, and emitter.
func New(cfg *ppconfig.Config, log *pplog.Logger, emitter *emit.Emitter) *Machine {
	return &Machine{cfg: cfg, log: log, emitter: emitter}
}

// ProcessLine classifies line (the lineNo-th line of the input, 1
// indexed, including its trailing newline) and writes the resulting
// output to w, either immediately or by buffering it for the
// enclosing function's END_FUNC. A non-nil error indicates a
// structural parse error (spec.md §7.2); the caller should count it
// and continue scanning rather than abort.
func (m *Machine) ProcessLine(w io.Writer, line string, lineNo int) error {
	match := linematch.Classify(line)
	switch match.Kind {
	case linematch.KindStartFunc:
		return m.onStart(w, match, line, lineNo)
	case linematch.KindEndFunc:
		return m.onEnd(w, match, line, lineNo)
	case linematch.KindCtxVar:
		return m.onCtxVar(w, match, line, lineNo)
	case linematch.KindWait:
		return m.onWait(w, match, line, lineNo)
	default:
		m.writeLine(w, false, "", line, "")
		return nil
	}
}

func (m *Machine) buffering() bool {
	return m.buffer != nil
}

func (m *Machine) onStart(w io.Writer, match linematch.Match, line string, lineNo int) error {
	if m.state == Inside {
		err := fmt.Errorf("found START_FUNC on line %d before intervening END_FUNC; previous START_FUNC on line %d", lineNo, m.startLine)
		m.log.Error("%s", err)
		return err
	}
	m.state = Inside
	m.startLine = lineNo
	m.indent = match.Space
	m.table = ctxvar.NewTable(lineNo)

	// The START_FUNC line itself is written directly, never buffered,
	// so that hoisted declarations land after it.
	m.buffer = nil
	m.writeLine(w, true, match.Space, line, "")

	if m.cfg.CtxMode == ppconfig.CtxOptimized {
		m.log.Debug("optimized context mode is on -- starting buffering at line %d", lineNo)
		m.buffer = make([]string, 0, 16)
	}
	return nil
}

func (m *Machine) onEnd(w io.Writer, match linematch.Match, line string, lineNo int) error {
	if m.state != Inside {
		// spec.md §4.2: "OUTSIDE on pattern 2: the line passes through
		// (no action)." A stray/duplicate END_FUNC outside a function
		// is not a structural error; ParseState._endCallback in the
		// original has no such guard either.
		m.writeLine(w, false, "", line, "")
		return nil
	}

	if m.buffering() {
		m.log.Debug("outputting hoisted variables for function starting at line %d", m.startLine)
		var hoisted bytes.Buffer
		m.emitter.EmitHoisted(&hoisted, m.indent, m.table.Hoistable())
		io.WriteString(w, hoisted.String())

		m.log.Debug("dumping buffered lines")
		for _, b := range m.buffer {
			io.WriteString(w, b)
		}
		m.buffer = nil
	}

	m.writeLine(w, true, match.Space, line, "")
	m.state = Outside
	m.table = nil
	return nil
}

func (m *Machine) onCtxVar(w io.Writer, match linematch.Match, line string, lineNo int) error {
	if m.state != Inside {
		// spec.md §4.2: "Similarly for patterns 3 and 4 outside a
		// function: they pass through as opaque text." There is no
		// function-scope table to declare into here.
		m.writeLine(w, false, "", line, "")
		return nil
	}

	v := &ctxvar.Var{
		Type:     match.Type,
		Name:     match.VarName,
		DeclLine: match.DeclLine,
		LineNo:   lineNo,
	}
	if existing := m.table.Declare(v); existing != nil {
		err := fmt.Errorf("variable %q on line %d is a duplicate; previous declaration on line %d", match.VarName, lineNo, existing.LineNo)
		m.log.Error("%s", err)
		return err
	}

	buffered := fmt.Sprintf("/* Variable '%s' hoisted */\n", match.VarName)
	m.writeLine(w, true, match.Space, match.DeclLine+"\n", buffered)
	return nil
}

func (m *Machine) onWait(w io.Writer, match linematch.Match, line string, lineNo int) error {
	if m.state != Inside {
		// spec.md §4.2: patterns 3 and 4 outside a function pass
		// through as opaque text; there is no enclosing
		// context-variable table to classify the wait list against.
		m.writeLine(w, false, "", line, "")
		return nil
	}

	c, err := waitlist.Classify(match.NumEvts, match.VarList, m.table, lineNo, m.log)
	if err != nil {
		m.log.Error("%s", err)
		return err
	}

	var frag bytes.Buffer
	m.emitter.EmitWait(&frag, match.Space, m.indent, lineNo, match.WaitText, c)
	m.writeLine(w, false, "", frag.String(), "")
	return nil
}

// writeLine mirrors ParseState._writeLine: while buffering, the line
// is appended to the function's line buffer instead of written to w;
// hasIndent selects whether actual/buffered is re-indented with
// indent (used for the four recognized constructs) or passed through
// exactly as given (used for opaque lines and fully-formed emitted
// fragments). buffered, if non-empty, replaces actual in the buffered
// case only (used so a hoisted declaration doesn't appear twice).
func (m *Machine) writeLine(w io.Writer, hasIndent bool, indent, actual, buffered string) {
	if m.buffering() {
		text := buffered
		if text == "" {
			text = actual
		}
		if hasIndent {
			text = indent + strings.TrimLeft(text, " \t")
		}
		m.buffer = append(m.buffer, text)
		return
	}

	text := actual
	if hasIndent {
		text = indent + strings.TrimLeft(text, " \t")
	}
	io.WriteString(w, text)
}
