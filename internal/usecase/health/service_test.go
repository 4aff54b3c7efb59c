package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockVaultChecker struct {
	err error
}

func (m *mockVaultChecker) Check(_ context.Context) error { return m.err }

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

type mockIndexWatcher struct {
	watching bool
}

func (m *mockIndexWatcher) Watching() bool { return m.watching }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockVaultChecker{}, &mockCachePinger{}, &mockIndexWatcher{watching: true})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["vault"] != CheckOK {
		t.Errorf("expected vault %q, got %q", CheckOK, r.Checks["vault"])
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
	if r.Checks["index"] != CheckOK {
		t.Errorf("expected index %q, got %q", CheckOK, r.Checks["index"])
	}
}

func TestCheck_VaultError(t *testing.T) {
	svc := New(&mockVaultChecker{err: errors.New("no such directory")}, &mockCachePinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["vault"] != CheckError {
		t.Errorf("expected vault %q, got %q", CheckError, r.Checks["vault"])
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockVaultChecker{}, &mockCachePinger{err: errors.New("conn refused")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["vault"] != CheckOK {
		t.Errorf("expected vault %q, got %q", CheckOK, r.Checks["vault"])
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
}

func TestCheck_WatcherStopped(t *testing.T) {
	svc := New(&mockVaultChecker{}, nil, &mockIndexWatcher{watching: false})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index"] != CheckError {
		t.Errorf("expected index %q, got %q", CheckError, r.Checks["index"])
	}
}

func TestCheck_VaultOnly(t *testing.T) {
	svc := New(&mockVaultChecker{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["vault"] != CheckOK {
		t.Errorf("expected vault %q, got %q", CheckOK, r.Checks["vault"])
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("cache check should be absent when cache is nil")
	}
	if _, ok := r.Checks["index"]; ok {
		t.Error("index check should be absent when index is nil")
	}
}

func TestCheck_VaultErrorBeatsDegraded(t *testing.T) {
	svc := New(
		&mockVaultChecker{err: errors.New("vault down")},
		&mockCachePinger{err: errors.New("cache down")},
		&mockIndexWatcher{watching: false},
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}
