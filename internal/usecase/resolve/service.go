// Package resolve implements the drop-resolution protocol: mapping a card's
// landing bucket back to concrete property values, validating them against
// the axis transform and committing the patch atomically.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/axis"
	"github.com/kailas-cloud/boardex/internal/domain/board"
	"github.com/kailas-cloud/boardex/internal/domain/document/patch"
	"github.com/kailas-cloud/boardex/internal/domain/props"
	"github.com/kailas-cloud/boardex/internal/metrics"
)

// Request describes one drop: the board it happened on, the document being
// reassigned and the target bucket label per axis. A nil target leaves that
// axis untouched.
type Request struct {
	Spec     board.Spec
	Document string
	XTarget  *string
	YTarget  *string
}

// Status is the terminal state of a resolution.
type Status string

const (
	// StatusCommitted means every axis resolved and the patch was written.
	StatusCommitted Status = "committed"
	// StatusCancelled means the user dismissed a prompt or a chosen value
	// failed validation; nothing was written.
	StatusCancelled Status = "cancelled"
)

// Outcome reports what a resolution did.
type Outcome struct {
	Status Status
	// Written maps property path to the persisted value. Empty for
	// cancelled resolutions and for drops with nothing to write.
	Written map[string]any
	// Acknowledged reports whether the vault index confirmed the write
	// before the acknowledgment timeout.
	Acknowledged bool
}

// Service resolves drops. At most one resolution per document may be in
// flight at a time.
type Service struct {
	querier    Querier
	store      Store
	ack        Acknowledger
	ackTimeout time.Duration
	logger     *zap.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// New creates a resolution service. ack may be nil when no vault index is
// running; acknowledgment is then skipped.
func New(querier Querier, store Store, ack Acknowledger, ackTimeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		querier:    querier,
		store:      store,
		ack:        ack,
		ackTimeout: ackTimeout,
		logger:     logger,
		active:     make(map[string]struct{}),
	}
}

// Resolve runs the whole protocol synchronously: query, prompt, validate,
// write, acknowledge. The prompter is consulted only for axes that need
// input (active transform or exact mode).
func (s *Service) Resolve(ctx context.Context, req Request, prompter Prompter) (Outcome, error) {
	if err := validateRequest(req); err != nil {
		return Outcome{}, err
	}
	if err := s.acquire(req.Document); err != nil {
		return Outcome{}, err
	}
	defer s.release(req.Document)

	res, err := s.querier.Run(ctx, req.Spec)
	if err != nil {
		return Outcome{}, fmt.Errorf("query for resolution: %w", err)
	}
	return s.resolveWithResult(ctx, req, res, prompter)
}

// resolveWithResult finishes a resolution against an already-computed query
// result. The caller must hold the document's resolution slot.
func (s *Service) resolveWithResult(
	ctx context.Context, req Request, res board.Result, prompter Prompter,
) (Outcome, error) {
	p := patch.New()
	for _, plan := range buildPlans(req, res) {
		value, err := s.resolveAxisValue(ctx, plan, prompter)
		if errors.Is(err, domain.ErrCancelled) {
			metrics.DropResolutionsTotal.WithLabelValues("cancelled").Inc()
			s.logger.Info("Resolution cancelled",
				zap.String("document", req.Document),
				zap.String("axis", plan.key),
				zap.Error(err),
			)
			return Outcome{Status: StatusCancelled}, nil
		}
		if err != nil {
			metrics.DropResolutionsTotal.WithLabelValues("failed").Inc()
			return Outcome{}, fmt.Errorf("resolve %s axis: %w", plan.key, err)
		}
		p.Set(plan.ax.Path(), value)
	}

	if p.IsEmpty() {
		// Both axes readonly or no targets supplied: nothing to write.
		metrics.DropResolutionsTotal.WithLabelValues("committed").Inc()
		return Outcome{Status: StatusCommitted}, nil
	}

	var since uint64
	if s.ack != nil {
		since = s.ack.Revision(req.Document)
	}

	if err := s.store.Apply(ctx, req.Document, p); err != nil {
		metrics.DropResolutionsTotal.WithLabelValues("failed").Inc()
		return Outcome{}, fmt.Errorf("apply patch: %w", err)
	}

	out := Outcome{Status: StatusCommitted, Written: written(p)}
	if s.ack != nil {
		out.Acknowledged = s.awaitAck(ctx, req.Document, since)
	}

	metrics.DropResolutionsTotal.WithLabelValues("committed").Inc()
	s.logger.Info("Resolution committed",
		zap.String("document", req.Document),
		zap.Int("properties", p.Len()),
		zap.Bool("acknowledged", out.Acknowledged),
	)
	return out, nil
}

// awaitAck waits for the index to see the write. A timeout is not an error;
// the board refreshes anyway and freshness loses to availability.
func (s *Service) awaitAck(ctx context.Context, path string, since uint64) bool {
	ackCtx, cancel := context.WithTimeout(ctx, s.ackTimeout)
	defer cancel()

	if err := s.ack.AwaitChange(ackCtx, path, since); err != nil {
		s.logger.Debug("Write not acknowledged before timeout",
			zap.String("document", path),
			zap.Error(err),
		)
		return false
	}
	return true
}

// resolveAxisValue produces the validated raw value for one axis.
func (s *Service) resolveAxisValue(ctx context.Context, plan axisPlan, prompter Prompter) (any, error) {
	if !plan.needsPrompt() {
		return coerceScalar(plan.target), nil
	}
	if prompter == nil {
		return nil, fmt.Errorf("axis %s needs input but no prompter is available: %w",
			plan.key, domain.ErrCancelled)
	}

	chosen, err := prompter.Prompt(ctx, plan.promptSpec())
	if err != nil {
		return nil, err
	}
	chosen = coerceScalar(chosen)

	if plan.numeric {
		f, ok := props.Number(chosen)
		if !ok {
			return nil, fmt.Errorf("%v is not numeric: %w", chosen, domain.ErrCancelled)
		}
		if f < plan.min || f > plan.max {
			return nil, fmt.Errorf("%v outside [%v, %v]: %w", f, plan.min, plan.max, domain.ErrCancelled)
		}
		chosen = f
	}

	if plan.transform.Active() {
		label, terr := plan.transform.Label(chosen)
		if terr != nil || label != plan.target {
			return nil, fmt.Errorf("value %v maps to bucket %q, not %q: %w",
				chosen, label, plan.target, domain.ErrCancelled)
		}
	}
	return chosen, nil
}

// axisPlan is the prepared resolution work for one writable axis.
type axisPlan struct {
	key        string
	ax         board.Axis
	target     string
	transform  axis.Transform
	candidates []any
	numeric    bool
	min, max   float64
}

// buildPlans collects the writable targeted axes. Readonly axes are skipped:
// the board may still move the card visually, but nothing persists for them.
func buildPlans(req Request, res board.Result) []axisPlan {
	var out []axisPlan
	if plan, ok := newPlan("x", req.Spec.X(), req.XTarget, res.X()); ok {
		out = append(out, plan)
	}
	if plan, ok := newPlan("y", req.Spec.Y(), req.YTarget, res.Y()); ok {
		out = append(out, plan)
	}
	return out
}

func newPlan(key string, ax board.Axis, target *string, res board.AxisResult) (axisPlan, bool) {
	if target == nil || !ax.Defined() || !axisEditable(ax) {
		return axisPlan{}, false
	}

	plan := axisPlan{
		key:       key,
		ax:        ax,
		target:    *target,
		transform: axis.CompileTransform(ax.Transform()),
	}
	if ax.Exact() {
		if min, max, ok := axis.Bounds(ax.Values(), plan.target); ok {
			plan.numeric, plan.min, plan.max = true, min, max
			return plan, true
		}
	}
	if plan.transform.Active() {
		plan.candidates = res.Reverse().Values(plan.target)
	}
	return plan, true
}

// needsPrompt reports whether the axis requires user input: exact mode asks
// for a number, an active transform asks which raw value to persist. A plain
// axis writes the bucket label itself.
func (p axisPlan) needsPrompt() bool { return p.numeric || p.transform.Active() }

func (p axisPlan) promptSpec() PromptSpec {
	return PromptSpec{
		Axis:       p.key,
		Name:       p.ax.DisplayName(),
		Target:     p.target,
		Candidates: p.candidates,
		Numeric:    p.numeric,
		Min:        p.min,
		Max:        p.max,
	}
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Document) == "" {
		return domain.NewConfigFieldError("document", "required")
	}
	if req.XTarget == nil && req.YTarget == nil {
		return domain.NewConfigFieldError("target", "at least one axis target required")
	}
	// A drop that targets only readonly axes is a caller error, not a no-op.
	writable := false
	readonlyTargeted := false
	for _, t := range []struct {
		target *string
		ax     board.Axis
	}{{req.XTarget, req.Spec.X()}, {req.YTarget, req.Spec.Y()}} {
		if t.target == nil || !t.ax.Defined() {
			continue
		}
		if axisEditable(t.ax) {
			writable = true
		} else {
			readonlyTargeted = true
		}
	}
	if readonlyTargeted && !writable {
		return fmt.Errorf("axis %q: %w", targetedAxisLabel(req), domain.ErrReadonlyAxis)
	}
	return nil
}

// axisEditable reports whether drops may persist to the axis property.
// Properties under the synthetic "file" namespace are derived from the file
// itself and behave like readonly axes.
func axisEditable(ax board.Axis) bool {
	return !ax.Readonly() && !fileProp(ax.Path())
}

func fileProp(path string) bool {
	return path == props.ReservedKey || strings.HasPrefix(path, props.ReservedKey+".")
}

func targetedAxisLabel(req Request) string {
	if req.XTarget != nil {
		return req.Spec.X().DisplayName()
	}
	return req.Spec.Y().DisplayName()
}

func (s *Service) acquire(document string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[document]; busy {
		return fmt.Errorf("document %s: %w", document, domain.ErrResolutionActive)
	}
	s.active[document] = struct{}{}
	return nil
}

func (s *Service) release(document string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, document)
}

func written(p *patch.Patch) map[string]any {
	out := make(map[string]any, p.Len())
	for _, path := range p.Paths() {
		v, _ := p.Value(path)
		out[path] = v
	}
	return out
}

// coerceScalar gives string input its natural type: numbers and booleans
// are written as such so frontmatter keeps the property's scalar kind.
func coerceScalar(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
