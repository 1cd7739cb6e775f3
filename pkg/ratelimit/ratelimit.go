// Package ratelimit implements a fixed-window request limiter backed by a
// pluggable store. The cron trigger endpoints use it to slow down brute-force
// guessing of the shared cron secret; it is not meant as a general traffic
// shaping tool.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid rate limit configuration")

	// ErrStoreUnavailable indicates that the store backend is unavailable.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)

// Config defines the fixed window parameters.
type Config struct {
	Limit  int           `env:"RATELIMIT_REQUESTS" envDefault:"30"` // Limit is the number of requests allowed per window.
	Window time.Duration `env:"RATELIMIT_WINDOW" envDefault:"1m"`   // Window is the window length.
}

// Store counts requests per key within the current window.
type Store interface {
	// Incr increments the counter for key, starting a new window of the given
	// length on first increment. It returns the post-increment count and the
	// time the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Result describes the outcome of a limiter check.
type Result struct {
	Limit     int       // Maximum requests per window
	Remaining int       // Requests remaining in the current window
	ResetAt   time.Time // When the current window ends
}

// Allowed reports whether the request fits in the current window.
func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before retrying, 0 when allowed.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter applies a fixed-window limit per key.
type Limiter struct {
	store Store
	cfg   Config
}

// NewLimiter validates the configuration and returns a Limiter.
func NewLimiter(store Store, cfg Config) (*Limiter, error) {
	if store == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("store cannot be nil"))
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, errors.Join(ErrInvalidConfig, errors.New("limit and window must be positive"))
	}
	return &Limiter{store: store, cfg: cfg}, nil
}

// Allow records one request for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.cfg.Window)
	if err != nil {
		return Result{}, errors.Join(ErrStoreUnavailable, err)
	}

	return Result{
		Limit:     l.cfg.Limit,
		Remaining: l.cfg.Limit - int(count),
		ResetAt:   resetAt,
	}, nil
}
