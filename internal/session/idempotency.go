package session

import (
	"context"
	"fmt"
	"github.com/go-redis/redis/v8"
	"sync"
	"time"
)

// IdempotencyGuard claims submission keys so that a retried submit with
// the same key is not logged twice.
type IdempotencyGuard interface {
	// Claim returns false when key was already claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Release gives a key back after a submission failed before commit.
	Release(ctx context.Context, key string) error
}

type RedisIdempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotency(rdb *redis.Client, ttl time.Duration) *RedisIdempotency {
	return &RedisIdempotency{rdb: rdb, ttl: ttl}
}

func (g *RedisIdempotency) Claim(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("idempotent-key:%s", key)
	return g.rdb.SetNX(ctx, redisKey, "exists", g.ttl).Result()
}

func (g *RedisIdempotency) Release(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, fmt.Sprintf("idempotent-key:%s", key)).Err()
}

type MemoryIdempotency struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	return &MemoryIdempotency{seen: make(map[string]time.Time), ttl: ttl}
}

func (g *MemoryIdempotency) Claim(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if at, ok := g.seen[key]; ok && now.Sub(at) < g.ttl {
		return false, nil
	}
	g.seen[key] = now
	return true, nil
}

func (g *MemoryIdempotency) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, key)
	return nil
}
