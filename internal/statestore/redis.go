package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists JSON-encoded values under "<prefix>:<key>".
type RedisStore[T any] struct {
	client  redis.UniversalClient
	prefix  string
	baseTTL time.Duration
}

func NewRedisStore[T any](client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{
		client:  client,
		prefix:  prefix,
		baseTTL: ttl,
	}
}

func (s *RedisStore[T]) Get(ctx context.Context, key string) (T, error) {
	var value T

	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, ErrNotFound
	}
	if err != nil {
		return value, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("unmarshal %s state failed: %w", s.prefix, err)
	}
	return value, nil
}

func (s *RedisStore[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s state failed: %w", s.prefix, err)
	}

	if err := s.client.Set(ctx, s.key(key), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore[T]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ttl spreads expirations over up to five extra minutes so that clients
// created together do not expire together.
func (s *RedisStore[T]) ttl() time.Duration {
	if s.baseTTL <= 0 {
		return 0
	}
	return s.baseTTL + time.Duration(rand.Intn(5))*time.Minute
}

func (s *RedisStore[T]) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}
