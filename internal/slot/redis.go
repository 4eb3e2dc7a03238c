package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tokengate/tokengate/internal/database"
)

// RedisSlot stores the payload under a single Redis key.
type RedisSlot struct {
	rdb *database.Redis
	key string
}

// NewRedis creates a Redis-backed slot using the given key.
func NewRedis(rdb *database.Redis, key string) *RedisSlot {
	return &RedisSlot{rdb: rdb, key: key}
}

// Read returns the stored payload, or ErrEmpty if the key does not exist.
func (s *RedisSlot) Read(ctx context.Context) (string, error) {
	payload, err := s.rdb.GetString(ctx, s.key)
	if errors.Is(err, redis.Nil) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot %q: %w", s.key, err)
	}
	return payload, nil
}

// Write replaces the stored payload.
func (s *RedisSlot) Write(ctx context.Context, payload string) error {
	if err := s.rdb.SetString(ctx, s.key, payload); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", s.key, err)
	}
	return nil
}
