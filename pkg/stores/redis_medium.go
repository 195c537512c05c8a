package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Medium = (*RedisMedium)(nil)

// RedisConfig holds Redis medium configuration
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}

// RedisMedium stores each collection as one Redis string.
type RedisMedium struct {
	cfg    RedisConfig
	client *redis.Client
}

// NewRedisMedium creates a Redis medium. The connection is checked in Init.
func NewRedisMedium(cfg RedisConfig) (*RedisMedium, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	return &RedisMedium{cfg: cfg}, nil
}

func (r *RedisMedium) Init(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:        r.cfg.Addr,
		Password:    r.cfg.Password,
		DB:          r.cfg.DB,
		DialTimeout: r.cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, r.cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis connection failed: %w", err)
	}

	r.client = client
	return nil
}

func (r *RedisMedium) key(key string) string {
	return r.cfg.Prefix + key
}

func (r *RedisMedium) Get(ctx context.Context, key string) (string, bool, error) {
	if r.client == nil {
		return "", false, fmt.Errorf("redis not initialized")
	}
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return value, true, nil
}

func (r *RedisMedium) Set(ctx context.Context, key, value string) error {
	if r.client == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisMedium) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisMedium) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// HealthCheck pings the Redis server.
func (r *RedisMedium) HealthCheck(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis not initialized")
	}
	return r.client.Ping(ctx).Err()
}
