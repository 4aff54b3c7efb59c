package chi

import (
	"github.com/kailas-cloud/boardex/internal/domain/board"
	"github.com/kailas-cloud/boardex/internal/usecase/resolve"
)

// errorCode is a machine-readable API error identifier.
type errorCode string

const (
	codeBadRequest         errorCode = "bad_request"
	codeUnauthorized       errorCode = "unauthorized"
	codeInvalidConfig      errorCode = "invalid_config"
	codeDocumentNotFound   errorCode = "document_not_found"
	codeReadonlyAxis       errorCode = "readonly_axis"
	codeResolutionConflict errorCode = "resolution_conflict"
	codeResolutionNotFound errorCode = "resolution_not_found"
	codeVaultUnavailable   errorCode = "vault_unavailable"
	codeWriteFailed        errorCode = "write_failed"
	codeInternalError      errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// queryRequest carries a textual board configuration block.
type queryRequest struct {
	Config string `json:"config"`
}

type documentDTO struct {
	Path       string         `json:"path"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
}

// axisDTO is one axis's grouping output. Reverse maps each bucket label to
// the raw values observed under it, so clients can place documents without
// re-running the transform.
type axisDTO struct {
	Property  string           `json:"property"`
	Label     string           `json:"label,omitempty"`
	Buckets   []string         `json:"buckets"`
	RawValues []any            `json:"raw_values"`
	Reverse   map[string][]any `json:"reverse,omitempty"`
}

// queryResponse is one query pass's output. Title, display and theme echo
// the board's presentation hints so clients can render without re-parsing
// the config.
type queryResponse struct {
	Documents []documentDTO     `json:"documents"`
	X         *axisDTO          `json:"x,omitempty"`
	Y         *axisDTO          `json:"y,omitempty"`
	Styles    map[string]string `json:"styles,omitempty"`
	Title     string            `json:"title,omitempty"`
	Display   []string          `json:"display,omitempty"`
	Theme     string            `json:"theme,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
}

type beginResolutionRequest struct {
	Config   string  `json:"config"`
	Document string  `json:"document"`
	XTarget  *string `json:"x_target,omitempty"`
	YTarget  *string `json:"y_target,omitempty"`
}

type promptDTO struct {
	Axis       string  `json:"axis"`
	Name       string  `json:"name"`
	Target     string  `json:"target"`
	Candidates []any   `json:"candidates,omitempty"`
	Numeric    bool    `json:"numeric"`
	Min        float64 `json:"min,omitempty"`
	Max        float64 `json:"max,omitempty"`
}

// beginResolutionResponse carries either a pending session (token plus the
// prompts the client must answer) or an immediate outcome when no axis
// needed input.
type beginResolutionResponse struct {
	Token   string      `json:"token,omitempty"`
	Prompts []promptDTO `json:"prompts,omitempty"`
	Outcome *outcomeDTO `json:"outcome,omitempty"`
}

// commitResolutionRequest carries the chosen raw values keyed by axis
// ("x" / "y").
type commitResolutionRequest struct {
	Choices map[string]any `json:"choices"`
}

type outcomeDTO struct {
	Status       string         `json:"status"`
	Written      map[string]any `json:"written,omitempty"`
	Acknowledged bool           `json:"acknowledged"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func resultToDTO(spec board.Spec, res board.Result) queryResponse {
	docs := make([]documentDTO, len(res.Documents()))
	for i := range res.Documents() {
		d := &res.Documents()[i]
		docs[i] = documentDTO{
			Path:       d.Path(),
			Name:       d.Name(),
			Properties: d.Bag(),
		}
	}

	out := queryResponse{
		Documents: docs,
		Styles:    res.Styles(),
		Title:     spec.Title(),
		Display:   spec.Display(),
		Theme:     spec.Theme(),
		Errors:    res.Errors(),
	}
	if spec.X().Defined() {
		out.X = axisToDTO(spec.X(), res.X())
	}
	if spec.Y().Defined() {
		out.Y = axisToDTO(spec.Y(), res.Y())
	}
	return out
}

func axisToDTO(ax board.Axis, res board.AxisResult) *axisDTO {
	dto := &axisDTO{
		Property:  ax.Path(),
		Label:     ax.Label(),
		Buckets:   res.Buckets(),
		RawValues: res.RawValues(),
	}
	if rev := res.Reverse(); rev != nil && rev.Len() > 0 {
		m := make(map[string][]any, rev.Len())
		for _, label := range rev.Labels() {
			m[label] = rev.Values(label)
		}
		dto.Reverse = m
	}
	return dto
}

func promptsToDTO(prompts []resolve.PromptSpec) []promptDTO {
	if len(prompts) == 0 {
		return nil
	}
	out := make([]promptDTO, len(prompts))
	for i, p := range prompts {
		out[i] = promptDTO{
			Axis:       p.Axis,
			Name:       p.Name,
			Target:     p.Target,
			Candidates: p.Candidates,
			Numeric:    p.Numeric,
			Min:        p.Min,
			Max:        p.Max,
		}
	}
	return out
}

func outcomeToDTO(o resolve.Outcome) *outcomeDTO {
	return &outcomeDTO{
		Status:       string(o.Status),
		Written:      o.Written,
		Acknowledged: o.Acknowledged,
	}
}
