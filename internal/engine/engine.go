// Package engine orchestrates the MercadoLibre integration: the OAuth
// connection flow, access-token brokering with single-flight refresh,
// and the catalog and order sync procedures.
package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/facuhernandez/melitrack/internal/meli"
	"github.com/facuhernandez/melitrack/internal/statecache"
	"github.com/facuhernandez/melitrack/internal/store"
)

const (
	defaultPageSize      = 50
	defaultOrderLookback = 60 * 24 * time.Hour
	defaultStateTTL      = 15 * time.Minute
)

// Engine holds all integration state and dependencies. Each Engine owns
// its own in-flight refresh map, so tests get full isolation by
// constructing fresh instances.
type Engine struct {
	store store.Store
	api   meli.Client
	oauth meli.OAuth
	cache statecache.Cache
	log   *slog.Logger

	refreshGroup singleflight.Group

	pageSize       int
	orderLookback  time.Duration
	stateTTL       time.Duration
	requestTimeout time.Duration
	tokenTimeout   time.Duration
	staggerOffset  time.Duration
	nowFunc        func() time.Time
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	api meli.Client,
	oauth meli.OAuth,
	cache statecache.Cache,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:         s,
		api:           api,
		oauth:         oauth,
		cache:         cache,
		log:           slog.Default(),
		pageSize:      defaultPageSize,
		orderLookback: defaultOrderLookback,
		stateTTL:      defaultStateTTL,
		staggerOffset: 5 * time.Second,
		nowFunc:       time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithPageSize sets the sync page size.
func WithPageSize(n int) EngineOption {
	return func(e *Engine) {
		e.pageSize = n
	}
}

// WithOrderLookback sets the order sync look-back window.
func WithOrderLookback(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.orderLookback = d
	}
}

// WithStateTTL sets the TTL for OAuth states and cached statuses.
func WithStateTTL(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.stateTTL = d
	}
}

// WithRequestTimeout bounds each sync API call. Zero means no bound.
func WithRequestTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.requestTimeout = d
	}
}

// WithTokenTimeout bounds each token endpoint call. Zero means no bound.
func WithTokenTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.tokenTimeout = d
	}
}

// WithStaggerOffset sets the delay between users in a sync-all pass.
func WithStaggerOffset(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.staggerOffset = d
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = f
	}
}

// requestCtx bounds ctx by the sync request timeout when one is set.
func (e *Engine) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.requestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.requestTimeout)
}

// tokenCtx bounds ctx by the token timeout when one is set.
func (e *Engine) tokenCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.tokenTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.tokenTimeout)
}
