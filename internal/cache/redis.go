package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOption func(*RedisConfig)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	Prefix       string
}

// Redis implements Store on a Redis server, so several techpulse processes
// can share oracle answers.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(opts ...RedisOption) (*Redis, error) {
	cfg := &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		Prefix:       "techpulse",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

func (c *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, c.wrapKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (c *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.wrapKey(key), value, ttl).Err()
}

func (c *Redis) Stats() map[string]interface{} {
	stats := c.client.PoolStats()
	return map[string]interface{}{
		"backend":     "redis",
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"total_conns": stats.TotalConns,
	}
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) wrapKey(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = addr
	}
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}
