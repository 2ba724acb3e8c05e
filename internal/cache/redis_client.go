package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisClient is a typed JSON wrapper around a shared redis connection.
type RedisClient[T any] struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisClient[T any](client *redis.Client, logger zerolog.Logger) *RedisClient[T] {
	return &RedisClient[T]{client: client, log: logger.With().Str("component", "RedisClient").Logger()}
}

func (c *RedisClient[T]) Set(ctx context.Context, key string, value T, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.log.Debug().Str("key", key).Msg("cache set")
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *RedisClient[T]) Get(ctx context.Context, key string, returnValue *T) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, returnValue)
}
