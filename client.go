package boardex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/db"
	dbBadger "github.com/kailas-cloud/boardex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/boardex/internal/db/redis"
	"github.com/kailas-cloud/boardex/internal/domain/board"
	"github.com/kailas-cloud/boardex/internal/index"
	"github.com/kailas-cloud/boardex/internal/metrics"
	"github.com/kailas-cloud/boardex/internal/repository/bagcache"
	"github.com/kailas-cloud/boardex/internal/repository/propstore"
	"github.com/kailas-cloud/boardex/internal/repository/vault"
	healthuc "github.com/kailas-cloud/boardex/internal/usecase/health"
	loaduc "github.com/kailas-cloud/boardex/internal/usecase/load"
	queryuc "github.com/kailas-cloud/boardex/internal/usecase/query"
	resolveuc "github.com/kailas-cloud/boardex/internal/usecase/resolve"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultAckTimeout       = 2 * time.Second
)

// Client is the boardex entry point for running the engine in-process.
type Client struct {
	store db.Store
	ix    *index.Index

	querySvc   *queryuc.Service
	resolveSvc *resolveuc.Service
	healthSvc  *healthuc.Service

	obs *observer
}

// Open creates a Client over a vault directory.
func Open(opts ...Option) (*Client, error) {
	cfg := &clientConfig{ackTimeout: defaultAckTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.vault == "" {
		return nil, errors.New("boardex: vault directory required (use WithVault)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if store != nil {
		ctx := context.Background()
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("boardex: cache not ready: %w", err)
		}
	}

	c, err := wireClient(store, cfg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "":
		// Cache is optional; bags are parsed on every load.
		return nil, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.cacheAddr},
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("boardex: create redis store: %w", err)
		}
		return s, nil
	case "badger":
		s, err := dbBadger.NewStore(dbBadger.Config{Path: cfg.cachePath})
		if err != nil {
			return nil, fmt.Errorf("boardex: create badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("boardex: unknown cache driver %q", cfg.cacheDriver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	if cfg.metricsReg != nil {
		if err := registerEngineMetrics(cfg.metricsReg); err != nil {
			return nil, err
		}
	}

	// Internal services log through zap; the embedded client keeps them
	// quiet and reports through the observer instead.
	internalLog := zap.NewNop()

	repo := vault.New(cfg.vault)
	if err := repo.Check(context.Background()); err != nil {
		return nil, fmt.Errorf("boardex: vault: %w", err)
	}

	// The bag cache records hits only when the caller asked for metrics;
	// a nil counter disables recording.
	var cacheTotal *prometheus.CounterVec
	if cfg.metricsReg != nil {
		cacheTotal = metrics.BagCacheTotal
	}
	var loader loaduc.Loader = repo
	if store != nil {
		loader = bagcache.New(repo, store, cfg.keyPrefix, cacheTotal, internalLog)
	}

	querySvc := queryuc.New(repo, loaduc.NewInstrumented(loader, internalLog), internalLog)

	var ix *index.Index
	var ack resolveuc.Acknowledger
	if cfg.watch {
		ixCfg := index.Config{Root: cfg.vault}
		if store != nil {
			// Warm the cache during the scan and again per change batch, so
			// queries after a vault edit parse nothing.
			ixCfg.Warm = func(ctx context.Context, path string) error {
				_, err := loader.Load(ctx, path)
				return err
			}
		}
		ix, err = index.New(ixCfg, internalLog)
		if err != nil {
			return nil, fmt.Errorf("boardex: create vault index: %w", err)
		}
		if store != nil {
			ix.OnChange(func(paths []string) {
				for _, p := range paths {
					_, _ = loader.Load(context.Background(), p)
				}
			})
		}
		if err := ix.Start(context.Background()); err != nil {
			return nil, fmt.Errorf("boardex: start vault index: %w", err)
		}
		ack = ix
	}

	resolveSvc := resolveuc.New(querySvc, propstore.New(cfg.vault), ack, cfg.ackTimeout, internalLog)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	var watcher healthuc.IndexWatcher
	if ix != nil {
		watcher = ix
	}
	healthSvc := healthuc.New(repo, cachePinger, watcher)

	return &Client{
		store:      store,
		ix:         ix,
		querySvc:   querySvc,
		resolveSvc: resolveSvc,
		healthSvc:  healthSvc,
		obs:        obs,
	}, nil
}

// Close stops the vault watcher and releases cache connections.
func (c *Client) Close() {
	if c.ix != nil {
		c.ix.Stop()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Query runs a board built with NewBoard.
func (c *Client) Query(ctx context.Context, b *Board) (QueryResult, error) {
	spec, err := b.spec()
	if err != nil {
		return QueryResult{}, err
	}
	return c.query(ctx, spec)
}

// QuerySpec runs a textual board configuration block.
func (c *Client) QuerySpec(ctx context.Context, config string) (QueryResult, error) {
	spec, err := board.ParseSpec(config)
	if err != nil {
		return QueryResult{}, fmt.Errorf("parse board config: %w", err)
	}
	return c.query(ctx, spec)
}

func (c *Client) query(ctx context.Context, spec board.Spec) (res QueryResult, err error) {
	defer func(start time.Time) { c.obs.observe("query", start, err) }(time.Now())

	domRes, err := c.querySvc.Run(ctx, spec)
	if err != nil {
		return QueryResult{}, err
	}
	return resultFromDomain(spec, domRes), nil
}

// ResolveDrop validates a card move and writes the resulting property patch.
// prompt is consulted for axes that need input; with a nil prompt such drops
// come back cancelled.
func (c *Client) ResolveDrop(ctx context.Context, b *Board, drop Drop, prompt PromptFunc) (Outcome, error) {
	spec, err := b.spec()
	if err != nil {
		return Outcome{}, err
	}
	return c.resolveDrop(ctx, spec, drop, prompt)
}

// ResolveDropSpec is ResolveDrop for a textual configuration block.
func (c *Client) ResolveDropSpec(ctx context.Context, config string, drop Drop, prompt PromptFunc) (Outcome, error) {
	spec, err := board.ParseSpec(config)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse board config: %w", err)
	}
	return c.resolveDrop(ctx, spec, drop, prompt)
}

func (c *Client) resolveDrop(ctx context.Context, spec board.Spec, drop Drop, prompt PromptFunc) (out Outcome, err error) {
	defer func(start time.Time) { c.obs.observe("resolve_drop", start, err) }(time.Now())

	req := resolveuc.Request{
		Spec:     spec,
		Document: drop.Document,
		XTarget:  drop.XTarget,
		YTarget:  drop.YTarget,
	}
	var prompter resolveuc.Prompter
	if prompt != nil {
		prompter = promptAdapter(prompt)
	}

	domOut, err := c.resolveSvc.Resolve(ctx, req, prompter)
	if err != nil {
		return Outcome{}, err
	}
	return outcomeFromDomain(domOut), nil
}

// Health checks the vault and, when configured, the cache and the watcher.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// promptAdapter bridges the public PromptFunc to the internal prompter.
type promptAdapter PromptFunc

func (f promptAdapter) Prompt(ctx context.Context, p resolveuc.PromptSpec) (any, error) {
	return f(ctx, Prompt{
		Axis:       p.Axis,
		Name:       p.Name,
		Target:     p.Target,
		Candidates: p.Candidates,
		Numeric:    p.Numeric,
		Min:        p.Min,
		Max:        p.Max,
	})
}

func resultFromDomain(spec board.Spec, res board.Result) QueryResult {
	domDocs := res.Documents()
	docs := make([]Document, len(domDocs))
	for i := range domDocs {
		d := &domDocs[i]
		docs[i] = Document{
			Path:       d.Path(),
			Name:       d.Name(),
			Properties: d.Bag(),
		}
	}

	out := QueryResult{
		Documents: docs,
		Styles:    res.Styles(),
		Title:     spec.Title(),
		Display:   spec.Display(),
		Theme:     spec.Theme(),
		Errors:    res.Errors(),
	}
	if spec.X().Defined() {
		out.X = axisFromDomain(spec.X(), res.X())
	}
	if spec.Y().Defined() {
		out.Y = axisFromDomain(spec.Y(), res.Y())
	}
	return out
}

func axisFromDomain(ax board.Axis, res board.AxisResult) *Axis {
	out := &Axis{
		Property:  ax.Path(),
		Label:     ax.Label(),
		Buckets:   res.Buckets(),
		RawValues: res.RawValues(),
	}
	if rev := res.Reverse(); rev != nil {
		m := make(map[string][]any, len(rev.Labels()))
		for _, label := range rev.Labels() {
			m[label] = rev.Values(label)
		}
		out.Reverse = m
	}
	return out
}

func outcomeFromDomain(out resolveuc.Outcome) Outcome {
	return Outcome{
		Status:       string(out.Status),
		Written:      out.Written,
		Acknowledged: out.Acknowledged,
	}
}
