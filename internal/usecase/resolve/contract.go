package resolve

import (
	"context"

	"github.com/kailas-cloud/boardex/internal/domain/board"
	"github.com/kailas-cloud/boardex/internal/domain/document/patch"
)

// Querier runs the query pass a resolution is anchored to.
type Querier interface {
	Run(ctx context.Context, spec board.Spec) (board.Result, error)
}

// Store persists property patches.
type Store interface {
	Apply(ctx context.Context, path string, p *patch.Patch) error
}

// Acknowledger observes the vault for the written change. Nil disables
// acknowledgment; writes are then assumed visible immediately.
type Acknowledger interface {
	Revision(path string) uint64
	AwaitChange(ctx context.Context, path string, since uint64) error
}

// PromptSpec describes the input one axis needs from the user.
// Candidates carries the raw values that already map to the target bucket;
// Numeric marks an exact-mode prompt constrained to [Min, Max].
type PromptSpec struct {
	Axis       string
	Name       string
	Target     string
	Candidates []any
	Numeric    bool
	Min        float64
	Max        float64
}

// Prompter supplies the raw value for one axis of a drop. Implementations
// return domain.ErrCancelled when the user dismisses the prompt.
type Prompter interface {
	Prompt(ctx context.Context, p PromptSpec) (any, error)
}
