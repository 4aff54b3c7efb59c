package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/config"
	"github.com/kailas-cloud/boardex/internal/db"
	dbBadger "github.com/kailas-cloud/boardex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/boardex/internal/db/redis"
	"github.com/kailas-cloud/boardex/internal/index"
	logpkg "github.com/kailas-cloud/boardex/internal/logger"
	"github.com/kailas-cloud/boardex/internal/metrics"
	"github.com/kailas-cloud/boardex/internal/repository/bagcache"
	"github.com/kailas-cloud/boardex/internal/repository/propstore"
	"github.com/kailas-cloud/boardex/internal/repository/vault"
	chiTransport "github.com/kailas-cloud/boardex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/boardex/internal/usecase/health"
	loaduc "github.com/kailas-cloud/boardex/internal/usecase/load"
	queryuc "github.com/kailas-cloud/boardex/internal/usecase/query"
	resolveuc "github.com/kailas-cloud/boardex/internal/usecase/resolve"
	"github.com/kailas-cloud/boardex/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(*cobra.Command, []string) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting boardex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vault", cfg.Vault.Path),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	metrics.RegisterEngineMetrics()

	ctx := context.Background()

	store, err := openCacheStore(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	repo := vault.New(cfg.Vault.Path)
	if err := repo.Check(ctx); err != nil {
		return fmt.Errorf("vault not readable: %w", err)
	}

	loader := buildLoader(repo, store, cfg.Cache.KeyPrefix, logger)
	querySvc := queryuc.New(repo, loaduc.NewInstrumented(loader, logger), logger)

	ixCfg := index.Config{
		Root:        cfg.Vault.Path,
		Debounce:    time.Duration(cfg.Index.DebounceMs) * time.Millisecond,
		ScanWorkers: cfg.Index.ScanWorkers,
	}
	if store != nil {
		// The initial scan parses every document through the cached loader,
		// so the first queries already hit a warm cache.
		ixCfg.Warm = func(ctx context.Context, path string) error {
			_, err := loader.Load(ctx, path)
			return err
		}
	}
	ix, err := index.New(ixCfg, logger)
	if err != nil {
		return fmt.Errorf("create vault index: %w", err)
	}
	if store != nil {
		ix.OnChange(func(paths []string) {
			for _, p := range paths {
				if _, err := loader.Load(ctx, p); err != nil {
					logger.Debug("bag cache refresh failed",
						zap.String("path", p), zap.Error(err))
				}
			}
		})
	}
	if err := ix.Start(ctx); err != nil {
		return fmt.Errorf("start vault index: %w", err)
	}
	defer ix.Stop()

	resolveSvc := resolveuc.New(
		querySvc,
		propstore.New(cfg.Vault.Path),
		ix,
		time.Duration(cfg.Index.AckTimeoutMs)*time.Millisecond,
		logger,
	)
	resolutions := resolveuc.NewRegistry(resolveSvc, resolveuc.DefaultSessionTTL)

	// Pass nil interface (not typed nil pointer!) if the cache is disabled.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(repo, cachePinger, ix)

	server := chiTransport.NewServer(querySvc, resolutions, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// openCacheStore opens the configured bag-cache backend. Driver "none" (or
// empty) runs without a cache.
func openCacheStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case "badger":
		store, err = dbBadger.NewStore(dbBadger.Config{Path: cfg.Path})
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s cache store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache store not ready: %w", err)
	}

	logger.Info("Connected to bag cache", zap.String("driver", cfg.Driver))
	return store, nil
}

// buildLoader assembles the document loader: the vault repo, wrapped in the
// bag cache when one is configured.
func buildLoader(repo *vault.Repo, store db.Store, keyPrefix string, logger *zap.Logger) loaduc.Loader {
	if store == nil {
		return repo
	}
	return bagcache.New(repo, store, keyPrefix, metrics.BagCacheTotal, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
