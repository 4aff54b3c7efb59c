package boardex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	vault string

	cacheDriver   string // "", "redis" or "badger"
	cacheAddr     string
	cachePassword string
	cachePath     string
	keyPrefix     string

	watch      bool
	ackTimeout time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithVault sets the vault root directory. Required.
func WithVault(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.vault = path
	})
}

// WithCacheRedis caches parsed property bags in a Redis instance.
func WithCacheRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddr = addr
		c.cachePassword = password
	})
}

// WithCacheBadger caches parsed property bags in a local badger database at
// the given directory.
func WithCacheBadger(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "badger"
		c.cachePath = path
	})
}

// WithCacheKeyPrefix namespaces cache keys. Use when several vaults share
// one cache instance.
func WithCacheKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithWatch starts the vault index, so drop resolutions wait for their write
// to become visible before reporting it acknowledged.
func WithWatch() Option {
	return optionFunc(func(c *clientConfig) {
		c.watch = true
	})
}

// WithAckTimeout bounds the post-write acknowledgment wait. Only effective
// together with WithWatch. Defaults to 2 seconds.
func WithAckTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.ackTimeout = d
	})
}

// WithLogger enables client operation logs.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithMetrics registers client and engine metrics with the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
