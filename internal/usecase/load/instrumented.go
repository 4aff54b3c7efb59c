// Package load decorates document loading with metrics and logging. The
// query pass goes through this layer so that skipped documents stay visible
// in the logs and counters even though they never surface as errors.
package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/domain"
	"github.com/kailas-cloud/boardex/internal/domain/props"
	"github.com/kailas-cloud/boardex/internal/metrics"
)

// Loader is the local interface for the wrapped loader.
type Loader interface {
	Load(ctx context.Context, path string) (props.Bag, error)
}

// InstrumentedLoader wraps a Loader with observability. Cache metrics are
// recorded in repository/bagcache; this layer owns load outcome counters.
type InstrumentedLoader struct {
	inner  Loader
	logger *zap.Logger
}

// NewInstrumented wraps a loader with observability.
func NewInstrumented(inner Loader, logger *zap.Logger) *InstrumentedLoader {
	return &InstrumentedLoader{inner: inner, logger: logger}
}

// Load delegates to the inner loader and records the outcome.
func (l *InstrumentedLoader) Load(ctx context.Context, path string) (props.Bag, error) {
	start := time.Now()

	bag, err := l.inner.Load(ctx, path)

	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			metrics.DocumentsLoadedTotal.WithLabelValues("unavailable").Inc()
			l.logger.Debug("Document unavailable",
				zap.String("path", path),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
			return nil, err
		}
		metrics.DocumentsLoadedTotal.WithLabelValues("error").Inc()
		l.logger.Warn("Document load failed",
			zap.String("path", path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load document: %w", err)
	}

	metrics.DocumentsLoadedTotal.WithLabelValues("ok").Inc()
	l.logger.Debug("Document loaded",
		zap.String("path", path),
		zap.Duration("duration", duration),
		zap.Int("properties", len(bag)),
	)

	return bag, nil
}
