package common

import (
	"context"
	"time"
)

// DefaultRequestTimeout bounds a single client round-trip. One stuck
// server must never block the whole aggregate.
const DefaultRequestTimeout = 5 * time.Second

// DefaultOverallTimeout bounds a full multi-client dispatch.
const DefaultOverallTimeout = 10 * time.Second

func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, duration)
}

func CreateContext(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
