package health

import "context"

// VaultChecker checks vault availability.
type VaultChecker interface {
	Check(ctx context.Context) error
}

// CachePinger checks bag-cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// IndexWatcher reports whether the vault watcher is running.
type IndexWatcher interface {
	Watching() bool
}
