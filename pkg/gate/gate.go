// Package gate answers one question for the catalog: is this trait file
// currently visible?
//
// Some trait files are hidden until an unlock credential has been presented.
// The hiding itself is owned by an external key/value service; this package
// only consumes it. When the service is unavailable every trait is visible.
//
// # Redis layout
//
// [RedisGate] reads two kinds of keys:
//
//	hidden:<layer>         SET of filenames hidden in that layer
//	unlock:<credential>    any value; while present, nothing is hidden
//
// Key names are prefixed with the configured namespace.
package gate

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// Gate reports whether a trait file may be offered for selection.
type Gate interface {
	IsVisible(ctx context.Context, layer, name string) bool
}

// AllVisible is the gate used when no gating service is configured.
type AllVisible struct{}

// IsVisible always returns true.
func (AllVisible) IsVisible(context.Context, string, string) bool { return true }

// Func adapts a plain function to the Gate interface.
type Func func(ctx context.Context, layer, name string) bool

// IsVisible calls f.
func (f Func) IsVisible(ctx context.Context, layer, name string) bool { return f(ctx, layer, name) }

// defaultTimeout bounds each lookup so a slow service cannot stall a refresh.
const defaultTimeout = 250 * time.Millisecond

// RedisGate consults Redis for hidden traits.
type RedisGate struct {
	client     redis.UniversalClient
	namespace  string
	credential string
	timeout    time.Duration
	logger     *log.Logger
}

// RedisOption configures a RedisGate.
type RedisOption func(*RedisGate)

// WithNamespace prefixes every key, e.g. "traitstack:".
func WithNamespace(ns string) RedisOption {
	return func(g *RedisGate) { g.namespace = ns }
}

// WithCredential sets the unlock credential presented by this session.
func WithCredential(c string) RedisOption {
	return func(g *RedisGate) { g.credential = c }
}

// WithTimeout overrides the per-lookup timeout.
func WithTimeout(d time.Duration) RedisOption {
	return func(g *RedisGate) { g.timeout = d }
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(l *log.Logger) RedisOption {
	return func(g *RedisGate) { g.logger = l }
}

// NewRedisGate creates a gate backed by client.
func NewRedisGate(client redis.UniversalClient, opts ...RedisOption) *RedisGate {
	g := &RedisGate{client: client, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.Default()
	}
	return g
}

// IsVisible reports false only when Redis positively says the file is hidden
// and the session's credential has not unlocked it. Any Redis error means
// visible.
func (g *RedisGate) IsVisible(ctx context.Context, layer, name string) bool {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	hidden, err := g.client.SIsMember(ctx, g.namespace+"hidden:"+layer, name).Result()
	if err != nil {
		g.logger.Debug("visibility lookup failed, treating as visible", "layer", layer, "name", name, "err", err)
		return true
	}
	if !hidden {
		return true
	}
	if g.credential == "" {
		return false
	}
	n, err := g.client.Exists(ctx, g.namespace+"unlock:"+g.credential).Result()
	if err != nil {
		g.logger.Debug("unlock lookup failed, treating as visible", "err", err)
		return true
	}
	return n > 0
}

// Close closes the underlying client.
func (g *RedisGate) Close() error {
	return g.client.Close()
}

var (
	_ Gate = AllVisible{}
	_ Gate = Func(nil)
	_ Gate = (*RedisGate)(nil)
)
