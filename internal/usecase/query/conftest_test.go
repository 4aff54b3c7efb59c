package query

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/board"
	"github.com/kailas-cloud/boardex/internal/domain/document"
	"github.com/kailas-cloud/boardex/internal/domain/props"
)

type mockRepo struct {
	paths []string
	err   error
}

func (m *mockRepo) List(_ context.Context, _ string) ([]string, error) {
	return m.paths, m.err
}

type mockLoader struct {
	bags map[string]props.Bag
	errs map[string]error
}

func (m *mockLoader) Load(_ context.Context, path string) (props.Bag, error) {
	if err := m.errs[path]; err != nil {
		return nil, err
	}
	bag, ok := m.bags[path]
	if !ok {
		return nil, domain.ErrUnavailable
	}
	return bag, nil
}

func mustSpec(t *testing.T, src string) board.Spec {
	t.Helper()
	spec, err := board.ParseSpec(src)
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	return spec
}

func testDoc(t *testing.T, path string, declared map[string]any) props.Bag {
	t.Helper()
	base := path
	if i := len(path) - len(".md"); i > 0 && path[i:] == ".md" {
		base = path[:i]
	}
	return props.New(declared, props.Meta{
		Name:  base,
		Path:  path,
		CTime: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		MTime: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Size:  10,
	})
}

func newTestService(t *testing.T, repo *mockRepo, loader *mockLoader) *Service {
	t.Helper()
	return New(repo, loader, zap.NewNop())
}

func docPaths(docs []document.Document) []string {
	out := make([]string, len(docs))
	for i := range docs {
		out[i] = docs[i].Path()
	}
	return out
}
