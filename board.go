package boardex

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/boardex/internal/domain/board"
)

// Board is a fluent builder for board configurations. It renders the same
// textual key/value block QuerySpec accepts, so anything the builder produces
// can be stored and replayed as plain text.
type Board struct {
	lines []string
}

// NewBoard starts a board over the given source: a vault folder path, a
// "#tag" specifier or "all".
func NewBoard(source string) *Board {
	b := &Board{}
	return b.set("source", source)
}

func (b *Board) set(key, value string) *Board {
	b.lines = append(b.lines, key+": "+value)
	return b
}

// X groups columns by a dotted property path.
func (b *Board) X(path string) *Board { return b.set("x-axis", path) }

// Y adds a second grouping dimension (rows) by a dotted property path.
func (b *Board) Y(path string) *Board { return b.set("y-axis", path) }

// XLabel overrides the x axis display label.
func (b *Board) XLabel(label string) *Board { return b.set("x-label", label) }

// YLabel overrides the y axis display label.
func (b *Board) YLabel(label string) *Board { return b.set("y-label", label) }

// XValues pins the x bucket domain. A bracketed range like "[1..5]" (or
// "[0..100, step 10]") expands to one bucket per step; an "exact" keyword
// anywhere makes drops onto the axis prompt for a number inside the bucket's
// bounds instead of writing the label.
func (b *Board) XValues(values ...string) *Board {
	return b.set("x-values", strings.Join(values, ", "))
}

// YValues pins the y bucket domain, with the same range syntax as XValues.
func (b *Board) YValues(values ...string) *Board {
	return b.set("y-values", strings.Join(values, ", "))
}

// XTransform applies an expression to raw x values before bucketing.
// The expression sees the raw property as "value".
func (b *Board) XTransform(expr string) *Board { return b.set("x-transform", expr) }

// YTransform applies an expression to raw y values before bucketing.
func (b *Board) YTransform(expr string) *Board { return b.set("y-transform", expr) }

// XReadonly forbids drop resolutions from writing the x property.
func (b *Board) XReadonly() *Board { return b.set("x-readonly", "true") }

// YReadonly forbids drop resolutions from writing the y property.
func (b *Board) YReadonly() *Board { return b.set("y-readonly", "true") }

// Readonly marks both axes readonly.
func (b *Board) Readonly() *Board { return b.set("readonly", "true") }

// Where keeps only documents the expression evaluates true for. The
// expression sees each document's properties plus "file".
func (b *Board) Where(expr string) *Board { return b.set("where", expr) }

// Filter applies a whole-set predicate over the loaded document list,
// which the expression sees as "documents".
func (b *Board) Filter(expr string) *Board { return b.set("filter", expr) }

// SortBy orders result documents by a dotted property path.
func (b *Board) SortBy(path string, desc bool) *Board {
	if desc {
		return b.set("sort", path+" desc")
	}
	return b.set("sort", path)
}

// CardStyle sets the per-document styling expression.
func (b *Board) CardStyle(expr string) *Board { return b.set("card-style", expr) }

// Display adds extra property paths to surface on cards.
func (b *Board) Display(paths ...string) *Board {
	return b.set("display", strings.Join(paths, ", "))
}

// Title sets the board title.
func (b *Board) Title(title string) *Board { return b.set("title", title) }

// Theme sets the rendering theme hint.
func (b *Board) Theme(theme string) *Board { return b.set("theme", theme) }

// HideUnassigned hides documents that fall outside every bucket.
func (b *Board) HideUnassigned() *Board { return b.set("hide-unassigned", "true") }

// Config renders the accumulated configuration block.
func (b *Board) Config() string { return strings.Join(b.lines, "\n") }

// spec parses and validates the accumulated configuration.
func (b *Board) spec() (board.Spec, error) {
	s, err := board.ParseSpec(b.Config())
	if err != nil {
		return board.Spec{}, fmt.Errorf("build board config: %w", err)
	}
	return s, nil
}
