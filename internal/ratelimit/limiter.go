package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is a fixed-window counter kept in Redis.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
	logger *zap.Logger
}

// NewLimiter allows limit hits per window for each key under prefix. A nil
// client or a non-positive limit disables limiting.
func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{client: client, prefix: prefix, limit: int64(limit), window: window, logger: logger}
}

// Allow records one hit for key and reports whether it fits the window.
// Redis failures admit the hit.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true
	}

	fullKey := l.prefix + key
	var incr *redis.IntCmd
	// NX keeps a running window; a key that lost its TTL gets one back here.
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, l.window)
		return nil
	})
	if err != nil {
		l.logger.Warn("rate limiter unavailable", zap.String("key", fullKey), zap.Error(err))
		return true
	}
	return incr.Val() <= l.limit
}
