package bagcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/db"
	"github.com/kailas-cloud/boardex/internal/domain/props"
)

type mockSource struct {
	bag         props.Bag
	loadErr     error
	fingerprint string
	fpErr       error
	loadCalls   int
	fpCalls     int
}

func (m *mockSource) Load(_ context.Context, _ string) (props.Bag, error) {
	m.loadCalls++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.bag, nil
}

func (m *mockSource) Fingerprint(_ context.Context, _ string) (string, error) {
	m.fpCalls++
	if m.fpErr != nil {
		return "", m.fpErr
	}
	return m.fingerprint, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func testBag(t *testing.T) props.Bag {
	t.Helper()
	return props.New(map[string]any{
		"status":   "doing",
		"priority": 2,
	}, props.Meta{
		Name:  "task",
		Path:  "work/task.md",
		CTime: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		MTime: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Size:  42,
		Tags:  []string{"todo"},
	})
}

func newTestCachedLoader(t *testing.T, inner *mockSource) (*CachedLoader, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cl := New(inner, ms, "boardex:", nil, zap.NewNop())
	return cl, ms
}
