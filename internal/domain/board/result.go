package board

import (
	"github.com/kailas-cloud/boardex/internal/domain/axis"
	"github.com/kailas-cloud/boardex/internal/domain/document"
)

// AxisResult carries one axis's grouping output: the ordered bucket labels,
// the raw values observed (duplicates and multi-valued expansion preserved)
// and the reverse map used by drop resolution.
type AxisResult struct {
	buckets []string
	raws    []any
	reverse *axis.ReverseMap
}

// NewAxisResult creates an axis grouping result.
func NewAxisResult(buckets []string, raws []any, reverse *axis.ReverseMap) AxisResult {
	return AxisResult{buckets: buckets, raws: raws, reverse: reverse}
}

// Buckets returns the bucket labels in domain order.
func (r AxisResult) Buckets() []string { return r.buckets }

// RawValues returns every raw value observed, one entry per array element
// for multi-valued properties.
func (r AxisResult) RawValues() []any { return r.raws }

// Reverse returns the label-to-raw-values lookup.
func (r AxisResult) Reverse() *axis.ReverseMap { return r.reverse }

// Result is the output of one query pass. The axis results and the document
// list are always derived from the same document set.
type Result struct {
	documents []document.Document
	x         AxisResult
	y         AxisResult
	styles    map[string]string
	errors    []string
}

// NewResult creates a query result.
func NewResult(
	documents []document.Document,
	x, y AxisResult,
	styles map[string]string,
	errs []string,
) Result {
	return Result{documents: documents, x: x, y: y, styles: styles, errors: errs}
}

// Documents returns the surviving documents in final (sorted) order.
func (r *Result) Documents() []document.Document { return r.documents }

// X returns the x-axis grouping output.
func (r *Result) X() AxisResult { return r.x }

// Y returns the y-axis grouping output.
func (r *Result) Y() AxisResult { return r.y }

// Styles returns the card-style output per document path.
func (r *Result) Styles() map[string]string { return r.styles }

// Errors returns non-fatal failures collected during the pass.
func (r *Result) Errors() []string { return r.errors }
