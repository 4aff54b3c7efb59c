// Package bagcache decorates a document loader with a key-value cache of
// parsed property bags, keyed by content fingerprint.
package bagcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/boardex/internal/db"
	"github.com/kailas-cloud/boardex/internal/domain/props"
)

const cacheKeyInfix = "bag:"

// source is the consumer interface for the bag cache (ISP).
type source interface {
	Load(ctx context.Context, path string) (props.Bag, error)
	Fingerprint(ctx context.Context, path string) (string, error)
}

// store is the key-value side of the cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedLoader serves property bags from a key-value store when the
// document's fingerprint has not changed. Cache failures never fail a load;
// the loader falls back to the inner source.
type CachedLoader struct {
	inner      source
	store      store
	keyPrefix  string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner source,
	s store,
	keyPrefix string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedLoader {
	return &CachedLoader{
		inner:      inner,
		store:      s,
		keyPrefix:  keyPrefix,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Load returns a cached bag or reads and parses the document. A stale entry
// can never be served: the key embeds mtime and size, so any edit moves the
// document to a new key.
func (c *CachedLoader) Load(ctx context.Context, path string) (props.Bag, error) {
	fp, err := c.inner.Fingerprint(ctx, path)
	if err != nil {
		// Cannot fingerprint (likely unreadable); let the inner loader
		// produce the authoritative error.
		return c.inner.Load(ctx, path)
	}
	key := c.cacheKey(fp)

	if bag, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return bag, nil
	}

	c.incCache("miss")

	bag, err := c.inner.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, bag)
	return bag, nil
}

func (c *CachedLoader) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedLoader) cacheKey(fingerprint string) string {
	h := sha256.Sum256([]byte(fingerprint))
	return c.keyPrefix + cacheKeyInfix + hex.EncodeToString(h[:])
}

func (c *CachedLoader) getFromCache(ctx context.Context, key string) (props.Bag, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached bag", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Warn("Failed to parse cached bag", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return props.Reconstruct(m), true
}

func (c *CachedLoader) putToCache(ctx context.Context, key string, bag props.Bag) {
	data, err := json.Marshal(bag)
	if err != nil {
		c.logger.Warn("Failed to encode bag for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Warn("Failed to cache bag", zap.String("key", key), zap.Error(err))
	}
}
