package meli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyLimitReached means the rolling 24-hour call budget is spent.
var ErrDailyLimitReached = errors.New("daily API limit reached")

// RateLimiter gates MercadoLibre API calls with a token bucket for
// per-second throughput and a rolling 24-hour counter for the daily quota.
// The window opens on construction and rolls forward once it elapses.
type RateLimiter struct {
	bucket *rate.Limiter

	mu       sync.Mutex
	used     int64
	maxDaily int64
	resetAt  time.Time

	nowFunc func() time.Time
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowFunc = f
	}
}

// NewRateLimiter creates a limiter allowing perSecond sustained calls with
// the given burst, capped at maxDaily calls per rolling 24-hour window.
func NewRateLimiter(
	perSecond float64,
	burst int,
	maxDaily int64,
	opts ...RateLimiterOption,
) *RateLimiter {
	r := &RateLimiter{
		bucket:   rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetAt = r.nowFunc().Add(24 * time.Hour)
	return r
}

// Wait reserves one call, blocking until the token bucket allows it or ctx
// is canceled. It fails fast with ErrDailyLimitReached when the daily
// budget is gone, without consuming a bucket token.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.reserveDaily(); err != nil {
		return err
	}
	if err := r.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// DailyCount returns the number of calls reserved in the current window.
func (r *RateLimiter) DailyCount() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Remaining returns how many calls the current window still allows.
func (r *RateLimiter) Remaining() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used >= r.maxDaily {
		return 0
	}
	return r.maxDaily - r.used
}

func (r *RateLimiter) reserveDaily() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if now := r.nowFunc(); now.After(r.resetAt) {
		r.used = 0
		r.resetAt = now.Add(24 * time.Hour)
	}
	if r.used >= r.maxDaily {
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, r.used, r.maxDaily)
	}
	r.used++
	return nil
}
