package database

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/store"
)

// RedisClient wraps the redis client
type RedisClient struct {
	*redis.Client
	logger logrus.FieldLogger
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// NewRedisClient creates a Redis client and verifies it with a ping
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger logrus.FieldLogger) (*RedisClient, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping Redis: %w", err)
	}

	logger.WithField("addr", cfg.Addr).Info("Connected to Redis")

	return &RedisClient{Client: client, logger: logger}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.Client != nil {
		r.logger.Info("Closing Redis connection")
		return r.Client.Close()
	}
	return nil
}

// Health checks the Redis connection health
func (r *RedisClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.Ping(ctx).Err()
}

const redisStatePrefix = "kinocatalog:store:"

// RedisBackend persists client state as JSON strings in Redis
type RedisBackend struct {
	client *RedisClient
	ttl    time.Duration
}

// NewRedisBackend creates a backend; a zero ttl keeps values forever
func NewRedisBackend(client *RedisClient, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, ttl: ttl}
}

func (b *RedisBackend) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := b.client.Get(ctx, redisStatePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", store.ErrCorrupt, key, err)
	}
	return true, nil
}

func (b *RedisBackend) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := b.client.Set(ctx, redisStatePrefix+key, raw, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Health reports whether Redis is reachable
func (b *RedisBackend) Health(ctx context.Context) error {
	return b.client.Health(ctx)
}
