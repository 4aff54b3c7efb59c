// Package axis holds the grouping primitives: value transforms, bucket-domain
// expansion and the reverse map that resolves bucket labels back to raw
// values.
package axis

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// Kind discriminates the three transform states.
type Kind int

const (
	// Identity is the no-op transform (no expression configured).
	Identity Kind = iota
	// Compiled is a successfully compiled expression.
	Compiled
	// Invalid is a malformed expression; it behaves as Identity.
	Invalid
)

// Transform maps a raw axis value to its bucket label. The expression is
// evaluated in a sandbox with the raw value bound as `value`; it cannot
// touch the file system, network or process state.
type Transform struct {
	kind       Kind
	source     string
	program    *vm.Program
	compileErr error
}

// CompileTransform builds a Transform from user expression text. Empty text
// yields Identity; a compile failure yields Invalid, which consumers treat
// as untransformed for the rest of the session.
func CompileTransform(source string) Transform {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return Transform{kind: Identity}
	}

	program, err := expr.Compile(trimmed, expr.Env(map[string]any{"value": nil}))
	if err != nil {
		return Transform{kind: Invalid, source: trimmed, compileErr: err}
	}
	return Transform{kind: Compiled, source: trimmed, program: program}
}

// Kind returns the transform state.
func (t Transform) Kind() Kind { return t.kind }

// Source returns the expression text.
func (t Transform) Source() string { return t.source }

// CompileErr returns the compilation failure for Invalid transforms.
func (t Transform) CompileErr() error { return t.compileErr }

// Active reports whether applying the transform can change a value.
// Identity and Invalid both pass values through.
func (t Transform) Active() bool { return t.kind == Compiled }

// Apply maps one raw value. A runtime failure is isolated to that value:
// the raw value is returned unchanged alongside the error, and the caller
// decides whether to log it.
func (t Transform) Apply(raw any) (out any, err error) {
	if t.kind != Compiled {
		return raw, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = raw
			err = fmt.Errorf("transform %q: %v", t.source, r)
		}
	}()

	result, runErr := expr.Run(t.program, map[string]any{"value": raw})
	if runErr != nil {
		return raw, fmt.Errorf("transform %q: %w", t.source, runErr)
	}
	return result, nil
}

// Label returns the canonical bucket label for a raw value.
func (t Transform) Label(raw any) (string, error) {
	out, err := t.Apply(raw)
	return props.String(out), err
}
