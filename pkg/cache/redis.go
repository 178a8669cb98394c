package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the shared Store backend used when several instances run
// behind one load balancer.
type RedisClient struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisClient creates a new Redis client with connection retry logic
func NewRedisClient(url string, logger *slog.Logger) (*RedisClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			logger.Info("connected to Redis", "addr", opt.Addr)
			return &RedisClient{client: client, logger: logger}, nil
		}
		logger.Warn("Redis connection attempt failed, retrying", "attempt", i+1)
		time.Sleep(2 * time.Second)
	}

	_ = client.Close()
	return nil, fmt.Errorf("failed to connect to Redis after 3 attempts")
}

// Get retrieves and unmarshals a JSON value from cache
func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("cache miss", "key", key)
		return ErrCacheMiss
	}
	if err != nil {
		r.logger.Error("redis get failed", "key", key, "error", err)
		return fmt.Errorf("redis error: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		r.logger.Error("failed to unmarshal cached value", "key", key, "error", err)
		return fmt.Errorf("failed to unmarshal: %w", err)
	}

	r.logger.Debug("cache hit", "key", key)
	return nil
}

// Set marshals and stores a value as JSON in cache
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonBytes, expiration).Err(); err != nil {
		r.logger.Error("redis set failed", "key", key, "error", err)
		return fmt.Errorf("failed to set cache: %w", err)
	}

	r.logger.Debug("cached key", "key", key, "ttl", expiration)
	return nil
}

// HealthCheck returns true if Redis is healthy
func (r *RedisClient) HealthCheck(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
