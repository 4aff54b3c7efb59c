package query

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/kailas-cloud/boardex/internal/domain/document"
	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// docView renders a document for the expression environments: its path and
// name plus the full property bag.
func docView(d document.Document) map[string]any {
	return map[string]any{
		"path":       d.Path(),
		"name":       d.Name(),
		"properties": map[string]any(d.Bag()),
	}
}

// setFilter is the compiled whole-set filter. It sees every document at once
// as `documents` and returns the subset to keep.
type setFilter struct {
	program *vm.Program
}

func compileSetFilter(source string) (*setFilter, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, nil
	}
	program, err := expr.Compile(trimmed, expr.Env(map[string]any{"documents": []any{}}))
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", trimmed, err)
	}
	return &setFilter{program: program}, nil
}

// apply evaluates the filter over the whole set. The returned bool reports
// whether the expression produced a usable sequence; anything else leaves
// the set untouched. Result elements are matched back to documents by path,
// so the expression may reorder, drop or duplicate views but cannot invent
// documents.
func (f *setFilter) apply(docs []document.Document) (kept []document.Document, replaced bool, err error) {
	views := make([]any, len(docs))
	byPath := make(map[string]int, len(docs))
	for i := range docs {
		views[i] = docView(docs[i])
		byPath[docs[i].Path()] = i
	}

	defer func() {
		if r := recover(); r != nil {
			kept, replaced = nil, false
			err = fmt.Errorf("filter: %v", r)
		}
	}()

	out, runErr := expr.Run(f.program, map[string]any{"documents": views})
	if runErr != nil {
		return nil, false, fmt.Errorf("filter: %w", runErr)
	}
	seq, ok := out.([]any)
	if !ok {
		return nil, false, nil
	}

	kept = make([]document.Document, 0, len(seq))
	seen := make(map[string]struct{}, len(seq))
	for _, e := range seq {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		p, _ := m["path"].(string)
		i, ok := byPath[p]
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		kept = append(kept, docs[i])
	}
	return kept, true, nil
}

// cardStyle is the compiled per-document style expression.
type cardStyle struct {
	program *vm.Program
}

func compileCardStyle(source string) (*cardStyle, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil, nil
	}
	program, err := expr.Compile(trimmed, expr.Env(map[string]any{
		"path":       "",
		"name":       "",
		"properties": map[string]any{},
	}))
	if err != nil {
		return nil, fmt.Errorf("card-style %q: %w", trimmed, err)
	}
	return &cardStyle{program: program}, nil
}

// apply evaluates the style for one document; the result is stringified the
// same way bucket labels are.
func (c *cardStyle) apply(d document.Document) (style string, err error) {
	defer func() {
		if r := recover(); r != nil {
			style = ""
			err = fmt.Errorf("card-style: %v", r)
		}
	}()

	out, runErr := expr.Run(c.program, docView(d))
	if runErr != nil {
		return "", fmt.Errorf("card-style: %w", runErr)
	}
	if out == nil {
		return "", nil
	}
	return props.String(out), nil
}
