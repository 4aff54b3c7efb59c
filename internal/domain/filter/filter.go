// Package filter implements the per-document filter line of a board config:
// a deliberately small DSL matched structurally, falling open when the input
// matches no recognized shape.
package filter

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// Op discriminates the recognized filter shapes.
type Op int

const (
	// OpNone marks an unrecognized filter; it matches every document.
	OpNone Op = iota
	// OpContains is a case-sensitive substring match.
	OpContains
	// OpEquals is a string-equality match.
	OpEquals
	// OpNotEquals is a string-inequality match.
	OpNotEquals
)

var (
	containsRe = regexp.MustCompile(`^\s*(\S+)\s+contains\s+"(.*)"\s*$`)
	equalsRe   = regexp.MustCompile(`^\s*(\S+)\s*(!?=)\s*"(.*)"\s*$`)
)

// Filter is one parsed per-document predicate. The zero value matches
// everything.
type Filter struct {
	raw  string
	op   Op
	path string
	arg  string
}

// Parse interprets a filter string. Input matching neither recognized shape
// yields a pass-through filter that excludes nothing.
func Parse(src string) Filter {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return Filter{}
	}
	if m := containsRe.FindStringSubmatch(trimmed); m != nil {
		return Filter{raw: trimmed, op: OpContains, path: m[1], arg: m[2]}
	}
	if m := equalsRe.FindStringSubmatch(trimmed); m != nil {
		op := OpEquals
		if m[2] == "!=" {
			op = OpNotEquals
		}
		return Filter{raw: trimmed, op: op, path: m[1], arg: m[3]}
	}
	return Filter{raw: trimmed}
}

// Raw returns the original filter text.
func (f Filter) Raw() string { return f.raw }

// Op returns the recognized shape.
func (f Filter) Op() Op { return f.op }

// Path returns the property path under test.
func (f Filter) Path() string { return f.path }

// Arg returns the comparison operand.
func (f Filter) Arg() string { return f.arg }

// Active reports whether the filter can exclude documents.
func (f Filter) Active() bool { return f.op != OpNone }

// Matches evaluates the filter against a property bag. A sequence-valued
// property satisfies contains when any element does; equality compares the
// canonical string of the whole value. Absent properties stringify as "".
func (f Filter) Matches(bag props.Bag) bool {
	switch f.op {
	case OpContains:
		v, _ := bag.Lookup(f.path)
		if seq, ok := v.([]any); ok {
			for _, e := range seq {
				if strings.Contains(props.String(e), f.arg) {
					return true
				}
			}
			return false
		}
		return strings.Contains(props.String(v), f.arg)
	case OpEquals:
		v, _ := bag.Lookup(f.path)
		return props.String(v) == f.arg
	case OpNotEquals:
		v, _ := bag.Lookup(f.path)
		return props.String(v) != f.arg
	default:
		return true
	}
}
