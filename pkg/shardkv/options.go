package shardkv

// options.go defines the functional options New accepts: a private config
// struct with sane defaults, a set of exported With* constructors, and no
// way for a caller to reach the struct itself. Options never allocate
// unless strictly necessary — they capture pointers to external
// collaborators (a logger, a metrics registry).
//
// © 2025 shardkv authors. MIT License.

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures optional, non-semantic behaviour of a Store: logging and
// metrics. It never influences the locking/resize contract itself.
type Option func(*config)

type config struct {
	logger   *zap.Logger
	registry *prometheus.Registry
}

func defaultConfig() *config {
	return &config{logger: zap.NewNop()}
}

// WithLogger plugs an external zap.Logger. The store only logs slow,
// structural events — shard resizes and detectable contract violations —
// never anything on the Get/Set hot path.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation for the store instance.
// Passing nil disables metrics, which is also the default.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) {
		c.registry = reg
	}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
