package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CreationThrottle bounds how often a subject may hit a high-volume creation
// endpoint. Unlike the durable Limiter it has no lockout escalation and is not
// a security control: losing its state merely admits a few extra requests.
type CreationThrottle interface {
	// Allow reports whether one more creation is admitted for key.
	Allow(ctx context.Context, key string) (bool, error)
}

const (
	creationMaxPerWindow = 5
	creationWindow       = time.Minute
)

// RedisThrottle implements CreationThrottle on a shared Redis using atomic
// INCR with an EXPIRE set on the first hit, so the count is shared across
// replicas.
type RedisThrottle struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRedisThrottle returns a shared creation throttle (5 per minute per key).
func NewRedisThrottle(client *redis.Client) *RedisThrottle {
	return &RedisThrottle{client: client, max: creationMaxPerWindow, window: creationWindow}
}

// Allow atomically increments the key's counter and admits while it is within
// the window budget.
func (t *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "creation:" + key
	count, err := t.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("throttle: redis unavailable: %w", err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, redisKey, t.window).Err(); err != nil {
			return false, fmt.Errorf("throttle: redis unavailable: %w", err)
		}
	}
	return count <= int64(t.max), nil
}

type memoryEntry struct {
	count       int
	windowStart time.Time
}

// MemoryThrottle implements CreationThrottle with a mutex-guarded process-local
// map. State is lost on restart and not shared across replicas; acceptable only
// because the failure mode is a few extra admitted requests.
type MemoryThrottle struct {
	mu     sync.Mutex
	m      map[string]memoryEntry
	max    int
	window time.Duration
	nowF   func() time.Time
}

// NewMemoryThrottle returns a process-local creation throttle (5 per minute per key).
func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{
		m:      make(map[string]memoryEntry),
		max:    creationMaxPerWindow,
		window: creationWindow,
		nowF:   func() time.Time { return time.Now().UTC() },
	}
}

// Allow admits while the key's count within the current window is under budget.
func (t *MemoryThrottle) Allow(ctx context.Context, key string) (bool, error) {
	now := t.nowF()
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.m[key]
	if !ok || now.Sub(e.windowStart) > t.window {
		t.m[key] = memoryEntry{count: 1, windowStart: now}
		return true, nil
	}
	e.count++
	t.m[key] = e
	return e.count <= t.max, nil
}
