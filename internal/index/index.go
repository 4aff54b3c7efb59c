// Package index tracks vault document revisions through filesystem
// notifications. The resolve service uses it to acknowledge property writes
// before refreshing a board; other callers can subscribe to change batches.
package index

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDebounce    = 200 * time.Millisecond
	defaultScanWorkers = 8
	changeBufferSize   = 1024
)

// WarmFunc pre-loads one document during the initial scan, typically the
// cached bag loader. Errors are logged and do not abort the scan.
type WarmFunc func(ctx context.Context, path string) error

// Config holds index parameters.
type Config struct {
	Root        string
	Debounce    time.Duration
	ScanWorkers int
	Warm        WarmFunc
}

// Index watches a vault root and maintains a revision counter per
// vault-relative document path. Revisions start at 1 after the initial scan
// and bump once per debounced change batch that touches the path.
type Index struct {
	root     string
	debounce time.Duration
	workers  int
	warm     WarmFunc
	logger   *zap.Logger

	watcher *fsnotify.Watcher

	mu       sync.RWMutex
	revs     map[string]uint64
	changed  chan struct{} // closed and replaced on every revision bump
	onChange func(paths []string)
	watching bool

	changes  chan string
	done     chan struct{}
	stopOnce sync.Once
}

// New creates an Index for the vault root. Call Start to begin watching.
func New(cfg Config, logger *zap.Logger) (*Index, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.ScanWorkers <= 0 {
		cfg.ScanWorkers = defaultScanWorkers
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Index{
		root:     cfg.Root,
		debounce: cfg.Debounce,
		workers:  cfg.ScanWorkers,
		warm:     cfg.Warm,
		logger:   logger,
		watcher:  watcher,
		revs:     make(map[string]uint64),
		changed:  make(chan struct{}),
		changes:  make(chan string, changeBufferSize),
		done:     make(chan struct{}),
	}, nil
}

// OnChange registers a hook called with each debounced change batch.
// Must be set before Start.
func (ix *Index) OnChange(fn func(paths []string)) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.onChange = fn
}

// Start scans the vault, then begins watching for changes. The scan runs
// with bounded concurrency and blocks until complete, so callers observe a
// fully populated revision table.
func (ix *Index) Start(ctx context.Context) error {
	ix.mu.Lock()
	if ix.watching {
		ix.mu.Unlock()
		return nil
	}
	ix.watching = true
	ix.mu.Unlock()

	if err := ix.addRecursive(ix.root); err != nil {
		return err
	}
	if err := ix.scan(ctx); err != nil {
		return err
	}

	go ix.processEvents(ctx)
	go ix.debounceLoop(ctx)

	return nil
}

// Stop stops watching. Safe to call more than once.
func (ix *Index) Stop() {
	ix.stopOnce.Do(func() {
		close(ix.done)
		_ = ix.watcher.Close()

		ix.mu.Lock()
		ix.watching = false
		ix.mu.Unlock()
	})
}

// Watching reports whether the index is live.
func (ix *Index) Watching() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.watching
}

// Revision returns the current revision for a vault-relative path, 0 when
// the path has never been seen.
func (ix *Index) Revision(path string) uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.revs[path]
}

// AwaitChange blocks until the revision for path exceeds since, or ctx
// expires.
func (ix *Index) AwaitChange(ctx context.Context, path string, since uint64) error {
	for {
		ix.mu.RLock()
		rev := ix.revs[path]
		ch := ix.changed
		ix.mu.RUnlock()

		if rev > since {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// scan seeds the revision table from the current vault contents and warms
// the bag cache when a warm function is configured.
func (ix *Index) scan(ctx context.Context) error {
	var paths []string
	err := filepath.WalkDir(ix.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if shouldIgnore(d.Name()) && p != ix.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(p) {
			return nil
		}
		if rel, ok := ix.relPath(p); ok {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for _, rel := range paths {
		rel := rel
		g.Go(func() error {
			if ix.warm != nil {
				if warmErr := ix.warm(gctx, rel); warmErr != nil {
					ix.logger.Debug("cache warm-up failed",
						zap.String("path", rel), zap.Error(warmErr))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ix.mu.Lock()
	for _, rel := range paths {
		ix.revs[rel] = 1
	}
	ix.mu.Unlock()

	ix.logger.Info("vault scan complete", zap.Int("documents", len(paths)))
	return nil
}

// addRecursive watches root and every non-ignored subdirectory.
func (ix *Index) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if shouldIgnore(d.Name()) && p != root {
			return filepath.SkipDir
		}
		return ix.watcher.Add(p)
	})
}

// processEvents converts fsnotify events into vault-relative change paths.
func (ix *Index) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ix.done:
			return
		case event, ok := <-ix.watcher.Events:
			if !ok {
				return
			}
			ix.handleEvent(event)
		case err, ok := <-ix.watcher.Errors:
			if !ok {
				return
			}
			ix.logger.Warn("vault watcher error", zap.Error(err))
		}
	}
}

func (ix *Index) handleEvent(event fsnotify.Event) {
	if shouldIgnore(filepath.Base(event.Name)) {
		return
	}

	// A freshly created directory must be watched before events inside it
	// can be seen; pick up any documents it already contains.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = ix.addRecursive(event.Name)
			ix.enqueueDir(event.Name)
			return
		}
	}

	if !isMarkdown(event.Name) {
		return
	}
	rel, ok := ix.relPath(event.Name)
	if !ok {
		return
	}

	select {
	case ix.changes <- rel:
	default:
		// buffer full; the debouncer will still observe later events
	}
}

// enqueueDir pushes every document under a newly created directory.
func (ix *Index) enqueueDir(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isMarkdown(p) {
			return nil
		}
		if rel, ok := ix.relPath(p); ok {
			select {
			case ix.changes <- rel:
			default:
			}
		}
		return nil
	})
}

// debounceLoop batches changes and bumps revisions once per quiet window.
func (ix *Index) debounceLoop(ctx context.Context) {
	var batch []string
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 {
			ix.bump(dedup(batch))
			batch = batch[:0]
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-ix.done:
			flush()
			return
		case rel := <-ix.changes:
			batch = append(batch, rel)
			if timer == nil {
				timer = time.NewTimer(ix.debounce)
				timerC = timer.C
			} else {
				timer.Reset(ix.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// bump increments revisions for a change batch and wakes all waiters.
func (ix *Index) bump(paths []string) {
	ix.mu.Lock()
	for _, p := range paths {
		ix.revs[p]++
	}
	close(ix.changed)
	ix.changed = make(chan struct{})
	hook := ix.onChange
	ix.mu.Unlock()

	ix.logger.Debug("vault changes observed", zap.Int("documents", len(paths)))

	if hook != nil {
		hook(paths)
	}
}

func (ix *Index) relPath(abs string) (string, bool) {
	rel, err := filepath.Rel(ix.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isMarkdown(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".md")
}

// shouldIgnore skips hidden entries such as .git and .obsidian.
func shouldIgnore(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func dedup(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
