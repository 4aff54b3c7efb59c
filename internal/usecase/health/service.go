package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the vault itself is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	vault VaultChecker
	cache CachePinger
	index IndexWatcher
}

// New creates a Service. cache and index can be nil.
func New(vault VaultChecker, cache CachePinger, index IndexWatcher) *Service {
	return &Service{vault: vault, cache: cache, index: index}
}

// Check runs health checks against all components. The vault is the
// authoritative store: losing it makes the whole service unhealthy, while a
// lost cache or watcher only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	status := Healthy
	if err := s.vault.Check(ctx); err != nil {
		checks["vault"] = CheckError
		status = Unhealthy
	} else {
		checks["vault"] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	if s.index != nil {
		if s.index.Watching() {
			checks["index"] = CheckOK
		} else {
			checks["index"] = CheckError
		}
	}

	if status == Healthy {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}
