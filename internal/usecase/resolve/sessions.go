package resolve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/board"
	"github.com/kailas-cloud/boardex/internal/metrics"
)

// DefaultSessionTTL bounds how long a begun resolution may wait for its
// commit before the document is freed again.
const DefaultSessionTTL = 5 * time.Minute

// BeginResult is the first phase's answer: either a finished outcome (no
// input was needed) or a token plus the prompts to answer.
type BeginResult struct {
	Token   string
	Prompts []PromptSpec
	Outcome *Outcome
}

type session struct {
	req     Request
	result  board.Result
	created time.Time
}

// Registry suspends resolutions between Begin and Commit so that remote
// callers can answer prompts out of band. Sessions expire after the TTL and
// are swept lazily; an expired session frees its document.
type Registry struct {
	svc *Service
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates a session registry on top of a resolution service.
func NewRegistry(svc *Service, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		svc:      svc,
		ttl:      ttl,
		sessions: make(map[string]*session),
	}
}

// Begin runs the query pass, reserves the document and returns the prompts
// the caller must answer. When no axis needs input the resolution completes
// immediately and no session is created.
func (r *Registry) Begin(ctx context.Context, req Request) (BeginResult, error) {
	if err := validateRequest(req); err != nil {
		return BeginResult{}, err
	}
	r.sweep(time.Now())

	if err := r.svc.acquire(req.Document); err != nil {
		return BeginResult{}, err
	}

	res, err := r.svc.querier.Run(ctx, req.Spec)
	if err != nil {
		r.svc.release(req.Document)
		return BeginResult{}, fmt.Errorf("query for resolution: %w", err)
	}

	var prompts []PromptSpec
	for _, plan := range buildPlans(req, res) {
		if plan.needsPrompt() {
			prompts = append(prompts, plan.promptSpec())
		}
	}

	if len(prompts) == 0 {
		out, err := r.svc.resolveWithResult(ctx, req, res, nil)
		r.svc.release(req.Document)
		if err != nil {
			return BeginResult{}, err
		}
		return BeginResult{Outcome: &out}, nil
	}

	token := uuid.NewString()
	r.mu.Lock()
	r.sessions[token] = &session{req: req, result: res, created: time.Now()}
	r.mu.Unlock()

	return BeginResult{Token: token, Prompts: prompts}, nil
}

// Commit answers the prompts and finishes the resolution. The session is
// consumed whatever the outcome; a failed commit requires a fresh Begin.
// Choices are keyed by axis ("x"/"y").
func (r *Registry) Commit(ctx context.Context, token string, choices map[string]any) (Outcome, error) {
	sess, err := r.take(token)
	if err != nil {
		return Outcome{}, err
	}
	defer r.svc.release(sess.req.Document)

	return r.svc.resolveWithResult(ctx, sess.req, sess.result, scriptedPrompter(choices))
}

// Cancel abandons a pending resolution and frees its document.
func (r *Registry) Cancel(token string) error {
	sess, err := r.take(token)
	if err != nil {
		return err
	}
	r.svc.release(sess.req.Document)
	metrics.DropResolutionsTotal.WithLabelValues("cancelled").Inc()
	return nil
}

// Pending reports the number of live sessions.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(time.Now())
	return len(r.sessions)
}

func (r *Registry) take(token string) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(time.Now())

	sess, ok := r.sessions[token]
	if !ok {
		return nil, fmt.Errorf("token %s: %w", token, domain.ErrResolutionNotFound)
	}
	delete(r.sessions, token)
	return sess, nil
}

func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(now)
}

func (r *Registry) sweepLocked(now time.Time) {
	for token, sess := range r.sessions {
		if now.Sub(sess.created) < r.ttl {
			continue
		}
		delete(r.sessions, token)
		r.svc.release(sess.req.Document)
	}
}

// scriptedPrompter answers prompts from the choices supplied to Commit,
// keyed by axis ("x"/"y"). A missing choice cancels the resolution.
type scriptedPrompter map[string]any

func (p scriptedPrompter) Prompt(_ context.Context, spec PromptSpec) (any, error) {
	v, ok := p[spec.Axis]
	if !ok {
		return nil, fmt.Errorf("no choice for %s axis: %w", spec.Axis, domain.ErrCancelled)
	}
	return v, nil
}
