// Package ratelimit implements fixed-window request limiting with pluggable
// counters: in-process for a single replica, redis when replicas share limits.
package ratelimit

import (
	"context"
	"time"
)

// Store counts hits for key inside the current window.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error)
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

func New(store Store, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow records a hit for key. When the limit is exceeded it returns false
// and how long until the window resets.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	count, resetIn, err := l.store.Hit(ctx, key, l.window)
	if err != nil {
		return true, 0, err
	}
	if count > l.limit {
		return false, resetIn, nil
	}
	return true, 0, nil
}

func (l *Limiter) Limit() int {
	return l.limit
}
