// Package waitlist classifies the argument list of a WAIT_EVT<N>
// invocation into the awaited event, carried events, and carried
// scalars described in spec.md §3.4, applying its ordering and
// duplicate-name rules.
package waitlist

import (
	"fmt"

	"github.com/zjy-dev/pdpp/internal/ctxvar"
	"github.com/zjy-dev/pdpp/internal/pplog"
)

// Classified is the result of classifying one WAIT_EVT<N> argument
// list against a function's context-variable table.
type Classified struct {
	// Awaited is the single event being waited on (spec.md §3.4: "The
	// current design supports only N = 1").
	Awaited *ctxvar.Var
	// CarriedEvents are event-typed variables preserved across the
	// suspension but not awaited, in the order they were listed
	// (inChain appended here if the caller omitted it).
	CarriedEvents []*ctxvar.Var
	// CarriedScalars are the non-event variables to carry, in order.
	CarriedScalars []*ctxvar.Var
}

// Classify implements spec.md §3.4 for one WAIT_EVT<numEvts>(vars...)
// invocation at lineNo. table is the enclosing function's
// context-variable table. log receives the warning for an omitted
// inChain.
//
// Grounded directly on ParseState._waitCallback in
// original_source/ocr/scripts/mtParse/parser.py.
func Classify(numEvts int, vars []string, table *ctxvar.Table, lineNo int, log *pplog.Logger) (*Classified, error) {
	if numEvts != 1 {
		return nil, fmt.Errorf("currently only one event is supported in WAIT_EVT; got %d events (WAIT_EVT on line %d)", numEvts, lineNo)
	}

	var (
		ctxEvts        []*ctxvar.Var
		ctxEvtVars     []*ctxvar.Var
		ctxVars        []*ctxvar.Var
		inChainStatus  = -1 // -1: absent; 0: in ctxEvtVars; 1: in ctxEvts
		seen           = make(map[string]bool)
		remainingEvts  = numEvts
		pastEvts       = false
	)

	for _, name := range vars {
		if seen[name] {
			return nil, fmt.Errorf("%q is listed twice (used in WAIT_EVT on line %d)", name, lineNo)
		}
		seen[name] = true

		v := table.Lookup(name)
		if v == nil {
			return nil, fmt.Errorf("%q is not a context variable (used in WAIT_EVT on line %d)", name, lineNo)
		}

		if remainingEvts > 0 {
			if !v.IsEvent() {
				return nil, fmt.Errorf("%q is not an event (used as an event in WAIT_EVT on line %d)", name, lineNo)
			}
			remainingEvts--
			if name == ctxvar.InChainName {
				if inChainStatus != -1 {
					return nil, fmt.Errorf("%q is listed twice in the event list (used in WAIT_EVT on line %d)", name, lineNo)
				}
				inChainStatus = 1
			}
			ctxEvts = append(ctxEvts, v)
			continue
		}

		// Past the awaited events: events are still allowed here (as
		// carried events) until the first non-event appears.
		if v.IsEvent() {
			if pastEvts {
				return nil, fmt.Errorf("event %q listed after non-events (used in WAIT_EVT on line %d)", name, lineNo)
			}
			if name == ctxvar.InChainName {
				inChainStatus = 0
			}
			ctxEvtVars = append(ctxEvtVars, v)
			continue
		}
		pastEvts = true
		ctxVars = append(ctxVars, v)
	}

	if inChainStatus == -1 {
		log.Warn("'inChain' is not present; adding as a context event (in WAIT_EVT on line %d)", lineNo)
		if in := table.Lookup(ctxvar.InChainName); in != nil {
			ctxEvtVars = append(ctxEvtVars, in)
		}
	}

	if len(ctxEvts) != 1 {
		return nil, fmt.Errorf("internal error: expected exactly one awaited event, got %d (WAIT_EVT on line %d)", len(ctxEvts), lineNo)
	}

	return &Classified{
		Awaited:        ctxEvts[0],
		CarriedEvents:  ctxEvtVars,
		CarriedScalars: ctxVars,
	}, nil
}
