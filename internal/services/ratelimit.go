package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RedisRateLimiter allows limit hits per key per window, shared by every
// API instance.
type RedisRateLimiter struct {
	redis  *Redis
	prefix string
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(r *Redis, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{redis: r, prefix: prefix, limit: limit, window: window}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.redis.Hit(ctx, fmt.Sprintf("ratelimit:%s:%s", l.prefix, key), l.window)
	if err != nil {
		return false, err
	}
	return n <= int64(l.limit), nil
}

// MemoryRateLimiter is the single-instance fallback used when Redis is not
// reachable.
type MemoryRateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false, nil
	}
	l.hits[key] = append(recent, now)
	return true, nil
}
