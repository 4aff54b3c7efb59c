package resolve

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/domain/axis"
	"github.com/kailas-cloud/boardex/internal/domain/board"
	"github.com/kailas-cloud/boardex/internal/domain/document/patch"
)

type mockQuerier struct {
	res  board.Result
	err  error
	runs int
}

func (m *mockQuerier) Run(_ context.Context, _ board.Spec) (board.Result, error) {
	m.runs++
	return m.res, m.err
}

type appliedPatch struct {
	path string
	p    *patch.Patch
}

type mockStore struct {
	applyErr error
	applied  []appliedPatch
}

func (m *mockStore) Apply(_ context.Context, path string, p *patch.Patch) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append(m.applied, appliedPatch{path: path, p: p})
	return nil
}

type mockAck struct {
	revision uint64
	awaitErr error
}

func (m *mockAck) Revision(_ string) uint64 { return m.revision }

func (m *mockAck) AwaitChange(_ context.Context, _ string, _ uint64) error {
	return m.awaitErr
}

type mockPrompter struct {
	value any
	err   error
	specs []PromptSpec
}

func (m *mockPrompter) Prompt(_ context.Context, p PromptSpec) (any, error) {
	m.specs = append(m.specs, p)
	if m.err != nil {
		return nil, m.err
	}
	return m.value, nil
}

func mustSpec(t *testing.T, src string) board.Spec {
	t.Helper()
	spec, err := board.ParseSpec(src)
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	return spec
}

// axisResult builds the x-axis view a query pass would have produced for the
// given raw values and transform source.
func axisResult(t *testing.T, buckets []string, raws []any, transform string) board.AxisResult {
	t.Helper()
	tr := axis.CompileTransform(transform)
	return board.NewAxisResult(buckets, raws, axis.BuildReverse(raws, tr))
}

func resultWithX(t *testing.T, x board.AxisResult) board.Result {
	t.Helper()
	return board.NewResult(nil, x, board.AxisResult{}, nil, nil)
}

func newTestService(t *testing.T, q Querier, store Store, ack Acknowledger) *Service {
	t.Helper()
	return New(q, store, ack, 50*time.Millisecond, zap.NewNop())
}

func strPtr(s string) *string { return &s }
