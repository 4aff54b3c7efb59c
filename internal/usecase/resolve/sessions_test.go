package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/boardex/internal/domain"
)

const sessionTransform = "floor(value / 10) * 10"

func newTestRegistry(t *testing.T, ttl time.Duration) (*Registry, *mockStore) {
	t.Helper()
	raws := []any{float64(3), float64(7), float64(25)}
	q := &mockQuerier{res: resultWithX(t, axisResult(t, []string{"0", "20"}, raws, sessionTransform))}
	store := &mockStore{}
	svc := newTestService(t, q, store, nil)
	return NewRegistry(svc, ttl), store
}

func transformRequest(t *testing.T) Request {
	t.Helper()
	return Request{
		Spec:     mustSpec(t, "source: work\nx: effort\nx-transform: "+sessionTransform),
		Document: "a.md",
		XTarget:  strPtr("0"),
	}
}

func TestBegin_ReturnsTokenAndPrompts(t *testing.T) {
	reg, _ := newTestRegistry(t, 0)

	got, err := reg.Begin(context.Background(), transformRequest(t))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if got.Token == "" {
		t.Error("token is empty, want a session token")
	}
	if got.Outcome != nil {
		t.Errorf("outcome = %+v, want nil while prompts are pending", got.Outcome)
	}
	if len(got.Prompts) != 1 || got.Prompts[0].Axis != "x" {
		t.Fatalf("prompts = %+v, want one x prompt", got.Prompts)
	}
	if len(got.Prompts[0].Candidates) != 2 {
		t.Errorf("candidates = %v, want the two raws under bucket 0", got.Prompts[0].Candidates)
	}

	// The document stays reserved until the session completes.
	_, err = reg.Begin(context.Background(), transformRequest(t))
	if !errors.Is(err, domain.ErrResolutionActive) {
		t.Fatalf("second Begin() error = %v, want ErrResolutionActive", err)
	}
}

func TestBegin_ImmediateWhenNoInputNeeded(t *testing.T) {
	q := &mockQuerier{res: resultWithX(t, axisResult(t, []string{"todo"}, []any{"todo"}, ""))}
	store := &mockStore{}
	reg := NewRegistry(newTestService(t, q, store, nil), 0)

	req := Request{
		Spec:     mustSpec(t, "source: work\nx: status"),
		Document: "a.md",
		XTarget:  strPtr("done"),
	}

	got, err := reg.Begin(context.Background(), req)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if got.Token != "" || got.Outcome == nil {
		t.Fatalf("BeginResult = %+v, want immediate outcome without token", got)
	}
	if got.Outcome.Status != StatusCommitted {
		t.Errorf("status = %q, want committed", got.Outcome.Status)
	}
	if reg.Pending() != 0 {
		t.Errorf("pending = %d, want 0", reg.Pending())
	}

	// Document freed immediately.
	if _, err := reg.Begin(context.Background(), req); err != nil {
		t.Fatalf("Begin() after immediate outcome error = %v", err)
	}
}

func TestCommit_WritesChosenValue(t *testing.T) {
	reg, store := newTestRegistry(t, 0)

	begun, err := reg.Begin(context.Background(), transformRequest(t))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	out, err := reg.Commit(context.Background(), begun.Token, map[string]any{"x": float64(7)})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if out.Status != StatusCommitted {
		t.Fatalf("status = %q, want committed", out.Status)
	}
	if got := out.Written["effort"]; got != float64(7) {
		t.Errorf("written effort = %v, want 7", got)
	}
	if len(store.applied) != 1 {
		t.Errorf("applied = %d patches, want 1", len(store.applied))
	}

	// Session consumed, document freed.
	if _, err := reg.Commit(context.Background(), begun.Token, nil); !errors.Is(err, domain.ErrResolutionNotFound) {
		t.Errorf("second Commit() error = %v, want ErrResolutionNotFound", err)
	}
	if _, err := reg.Begin(context.Background(), transformRequest(t)); err != nil {
		t.Errorf("Begin() after commit error = %v", err)
	}
}

func TestCommit_MissingChoiceCancels(t *testing.T) {
	reg, store := newTestRegistry(t, 0)

	begun, err := reg.Begin(context.Background(), transformRequest(t))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	out, err := reg.Commit(context.Background(), begun.Token, map[string]any{})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if out.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", out.Status)
	}
	if len(store.applied) != 0 {
		t.Errorf("applied = %d patches, want 0", len(store.applied))
	}
}

func TestCommit_UnknownToken(t *testing.T) {
	reg, _ := newTestRegistry(t, 0)

	_, err := reg.Commit(context.Background(), "nope", nil)
	if !errors.Is(err, domain.ErrResolutionNotFound) {
		t.Fatalf("Commit() error = %v, want ErrResolutionNotFound", err)
	}
}

func TestCancel_FreesDocument(t *testing.T) {
	reg, store := newTestRegistry(t, 0)

	begun, err := reg.Begin(context.Background(), transformRequest(t))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if err := reg.Cancel(begun.Token); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := reg.Cancel(begun.Token); !errors.Is(err, domain.ErrResolutionNotFound) {
		t.Errorf("second Cancel() error = %v, want ErrResolutionNotFound", err)
	}
	if len(store.applied) != 0 {
		t.Errorf("applied = %d patches, want 0", len(store.applied))
	}
	if _, err := reg.Begin(context.Background(), transformRequest(t)); err != nil {
		t.Errorf("Begin() after cancel error = %v", err)
	}
}

func TestSessions_ExpireAfterTTL(t *testing.T) {
	reg, _ := newTestRegistry(t, 10*time.Millisecond)

	begun, err := reg.Begin(context.Background(), transformRequest(t))
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if _, err := reg.Commit(context.Background(), begun.Token, map[string]any{"x": float64(7)}); !errors.Is(err, domain.ErrResolutionNotFound) {
		t.Fatalf("Commit() after expiry error = %v, want ErrResolutionNotFound", err)
	}
	if _, err := reg.Begin(context.Background(), transformRequest(t)); err != nil {
		t.Errorf("Begin() after expiry error = %v (document should be free)", err)
	}
}
