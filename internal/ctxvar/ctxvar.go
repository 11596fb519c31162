// Package ctxvar holds the per-function context-variable symbol
// table described in spec.md §3.2–§3.3: the Var record and the
// Table that tracks it, keyed by name, with the synthesized inChain
// entry every function starts with.
package ctxvar

import "strings"

// InChainName is the distinguished context variable synthesized at
// every function entry: the event chain passed into the task.
const InChainName = "inChain"

// InChainType is inChain's declared type.
const InChainType = "pdEvent_t*"

// Var is one entry in a function's context-variable table.
type Var struct {
	// Type is the variable's declared C type with pointer-qualifier
	// whitespace normalized away (e.g. "pdEvent_t*").
	Type string
	// Name is the variable's identifier.
	Name string
	// DeclLine is the original declaration text (less the __context
	// keyword), used when hoisting.
	DeclLine string
	// LineNo is the line at which the declaration appeared. inChain's
	// LineNo is the line of the START_FUNC that synthesized it.
	LineNo int
}

// IsEvent reports whether this variable is event-typed: its type
// begins with "pdEvent" and ends with "_t*".
func (v *Var) IsEvent() bool {
	return strings.HasPrefix(v.Type, "pdEvent") && strings.HasSuffix(v.Type, "_t*")
}

// NewInChain synthesizes the inChain entry for a function that starts
// at startLine.
func NewInChain(startLine int) *Var {
	return &Var{
		Type:     InChainType,
		Name:     InChainName,
		DeclLine: "",
		LineNo:   startLine,
	}
}

// Table is a function's context-variable symbol table, keyed by
// name. Names are unique within a function (spec.md §3.2).
type Table struct {
	vars  map[string]*Var
	order []string // insertion order, for hoisting (spec.md §4.3.4)
}

// NewTable creates a table pre-populated with the synthetic inChain
// entry, as required at function entry (spec.md §3.2, §4.2).
func NewTable(startLine int) *Table {
	t := &Table{vars: make(map[string]*Var)}
	t.insert(NewInChain(startLine))
	return t
}

func (t *Table) insert(v *Var) {
	t.vars[v.Name] = v
	t.order = append(t.order, v.Name)
}

// Lookup returns the variable named name, or nil if it is not in the
// table.
func (t *Table) Lookup(name string) *Var {
	return t.vars[name]
}

// Declare adds a new context variable. It returns the variable
// previously declared under the same name (non-nil) if name is
// already present; the caller must treat that as the duplicate-
// declaration error of spec.md §4.2 and must not overwrite the
// existing entry.
func (t *Table) Declare(v *Var) *Var {
	if existing, ok := t.vars[v.Name]; ok {
		return existing
	}
	t.insert(v)
	return nil
}

// Hoistable returns every declared context variable other than
// inChain, in declaration order, for use by optimized-mode hoisting
// (spec.md §4.3.4: "inChain is the sole entry that is not hoisted").
func (t *Table) Hoistable() []*Var {
	out := make([]*Var, 0, len(t.order))
	for _, name := range t.order {
		if name == InChainName {
			continue
		}
		out = append(out, t.vars[name])
	}
	return out
}
