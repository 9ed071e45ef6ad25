package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV relies on redis key expiry for ttls.
type RedisKV struct {
	redisClient *redis.Client
}

func NewRedis(ctx context.Context, addr string) (*RedisKV, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:            addr,
		MaxRetries:      5,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		PoolFIFO:        false,
		PoolSize:        5,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("cannot reach redis at %s: %w", addr, err)
	}

	return &RedisKV{redisClient: redisClient}, nil
}

func (c *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := c.redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}

	return value, err
}

func (c *RedisKV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.redisClient.Set(ctx, key, value, ttl).Err()
}

func (c *RedisKV) Delete(ctx context.Context, key string) error {
	err := c.redisClient.Del(ctx, key).Err()
	if err == nil || errors.Is(err, redis.Nil) {
		return nil
	}

	return err
}

func (c *RedisKV) Close() error {
	return c.redisClient.Close()
}
