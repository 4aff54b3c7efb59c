package boardex

import (
	"context"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// Document is one vault document in a query result. Properties holds the
// merged frontmatter and synthetic file metadata (under the "file" key),
// addressable by dotted paths.
type Document struct {
	Path       string
	Name       string
	Properties map[string]any
}

// Property resolves a dotted path against the document's properties.
func (d Document) Property(path string) (any, bool) {
	return props.Reconstruct(d.Properties).Lookup(path)
}

// Axis is one axis's grouping output. Reverse maps each bucket label to the
// raw values observed under it, in first-seen order, so callers can place
// documents without re-running the transform.
type Axis struct {
	Property  string
	Label     string // display label, empty when not configured
	Buckets   []string
	RawValues []any
	Reverse   map[string][]any
}

// QueryResult is the outcome of one board query pass. Errors collects
// non-fatal failures; the documents and both axes always describe the same
// document set. Title, Display and Theme echo the board's presentation
// hints so renderers need not re-parse the config.
type QueryResult struct {
	Documents []Document
	X         *Axis
	Y         *Axis
	Styles    map[string]string
	Title     string
	Display   []string
	Theme     string
	Errors    []string
}

// Drop describes a card move: the document and the target bucket label per
// axis. A nil target leaves that axis untouched.
type Drop struct {
	Document string
	XTarget  *string
	YTarget  *string
}

// Target is a convenience for Drop's optional axis targets.
func Target(label string) *string { return &label }

// Prompt describes the input needed to finish one axis of a drop: either a
// pick among Candidates (raw values already observed in the target bucket)
// or, when Numeric, any value within [Min, Max].
type Prompt struct {
	Axis       string
	Name       string
	Target     string
	Candidates []any
	Numeric    bool
	Min        float64
	Max        float64
}

// PromptFunc supplies the raw value for one axis of a drop. Return a value
// wrapping ErrCancelled to dismiss the move.
type PromptFunc func(ctx context.Context, p Prompt) (any, error)

// Outcome is the terminal state of a drop resolution.
type Outcome struct {
	Status       string // "committed" or "cancelled"
	Written      map[string]any
	Acknowledged bool
}

// HealthStatus represents the aggregated client health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}
