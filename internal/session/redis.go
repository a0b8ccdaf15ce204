package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"order-intake-service/internal/entity"
	"time"
)

// RedisStore keeps sessions as JSON under cart:{id}. Every access pushes
// the expiry out by ttl.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func cartKey(id string) string {
	return fmt.Sprintf("cart:%s", id)
}

func (s *RedisStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, cartKey(id), "[]", s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) ([]entity.LineItem, error) {
	val, err := s.rdb.Get(ctx, cartKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var items []entity.LineItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", id, err)
	}

	if err := s.rdb.Expire(ctx, cartKey(id), s.ttl).Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, items []entity.LineItem) error {
	if items == nil {
		items = []entity.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	// Only overwrite sessions that still exist.
	ok, err := s.rdb.SetXX(ctx, cartKey(id), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, cartKey(id)).Err()
}
