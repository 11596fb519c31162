// Package linematch classifies a single input line against the four
// recognized macro forms of spec.md §4.1: START_FUNC, END_FUNC, a
// __context declaration, and WAIT_EVT<N>. Matching is first-hit,
// ordered; a line matching none of the four is opaque and passes
// through verbatim.
//
// The shape of this package — a fixed var (...) block of
// regexp.MustCompile patterns tried in order inside a scan loop — is
// grounded on internal/coverage.CFGAnalyzer.Parse's
// reFunctionHeader/reSuccSummary/reBBStart/reLineInfo battery.
package linematch

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which of the four patterns matched, or KindNone.
type Kind int

const (
	KindNone Kind = iota
	KindStartFunc
	KindEndFunc
	KindCtxVar
	KindWait
)

// Match is the structured data extracted from a recognized line.
// Only the fields relevant to Kind are populated.
type Match struct {
	Kind Kind

	// Space is the captured leading whitespace, common to all four
	// patterns.
	Space string

	// CtxVar fields (Kind == KindCtxVar).
	DeclLine string // full declaration text, less "__context "
	Type     string // declared type with pointer-qualifier whitespace normalized away
	VarName  string

	// Wait fields (Kind == KindWait).
	WaitText string // full "WAIT_EVTn(...)" text, for the marker comment
	NumEvts  int
	VarList  []string // variable names in order, as written (not de-duplicated)
}

// Patterns are tried in this fixed order; the first to match wins.
// All four are anchored to an entire line (spec.md §4.1: "all
// patterns require the construct to be fully contained on one
// physical line"). Named capture groups mirror the original Python
// implementation's regexes in original_source/ocr/scripts/mtParse/parser.py.
var (
	reStartFunc = regexp.MustCompile(`^(?P<space>\s*)START_FUNC\([^)]+\)\s*;\s*$`)
	reEndFunc   = regexp.MustCompile(`^(?P<space>\s*)END_FUNC\s*;\s*$`)
	// A simplified declaration match: a single variable, pointer
	// qualifier only (no const/attribute/etc.), matching the
	// original's deliberately loose approach.
	reCtxVar = regexp.MustCompile(`^(?P<space>\s*)__context\s+(?P<line>(?P<type>[a-zA-Z_$][0-9a-zA-Z_$]*)(?P<ptr>[\s*]+)(?P<varname>[a-zA-Z_$][0-9a-zA-Z_$]*)[^;]*;.*)\n?$`)
	reWait   = regexp.MustCompile(`^(?P<space>\s*)(?P<line>WAIT_EVT(?P<numevts>[0-9]+)\s*\((?P<vars>(?:[a-zA-Z_$][0-9a-zA-Z_$]*\s*(?:,\s*)?)+)\))\s*;\s*$`)
)

// Classify matches line against the four patterns in order and
// returns the first hit, or a Match with Kind == KindNone if none
// match.
func Classify(line string) Match {
	if m := findNamed(reStartFunc, line); m != nil {
		return Match{Kind: KindStartFunc, Space: m["space"]}
	}
	if m := findNamed(reEndFunc, line); m != nil {
		return Match{Kind: KindEndFunc, Space: m["space"]}
	}
	if m := findNamed(reCtxVar, line); m != nil {
		ptrRun := strings.ReplaceAll(m["ptr"], " ", "")
		return Match{
			Kind:     KindCtxVar,
			Space:    m["space"],
			DeclLine: m["line"],
			Type:     m["type"] + ptrRun,
			VarName:  m["varname"],
		}
	}
	if m := findNamed(reWait, line); m != nil {
		n, err := strconv.Atoi(m["numevts"])
		if err != nil {
			n = -1
		}
		vars := make([]string, 0, 4)
		for _, v := range strings.Split(m["vars"], ",") {
			v = strings.TrimSpace(v)
			if v != "" {
				vars = append(vars, v)
			}
		}
		return Match{
			Kind:     KindWait,
			Space:    m["space"],
			WaitText: m["line"],
			NumEvts:  n,
			VarList:  vars,
		}
	}
	return Match{Kind: KindNone}
}

// findNamed runs re against line and, on a match, returns the named
// capture groups as a map; it returns nil on no match.
func findNamed(re *regexp.Regexp, line string) map[string]string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = m[i]
	}
	return out
}
