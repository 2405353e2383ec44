package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/config"
)

const defaultDialTimeout = 5 * time.Second

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient connects to Redis and pings it before returning. cfg.URL is
// either a redis:// (or rediss://) URL or a bare host:port.
func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis client initialized",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("pool_size", opts.PoolSize))
	return client, nil
}

// redisOptions merges the URL with the pool settings. Explicit config values
// win over what the URL carries.
func redisOptions(cfg *config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.URL}
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.MaxRetries != 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	opts.DialTimeout = cfg.DialTimeout
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	return opts, nil
}

// NewRedisCache wraps a connected client.
func NewRedisCache(client *redis.Client, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &redisCache{client: client, logger: logger}, nil
}

func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", ErrCacheKeyNotFound{Key: key}
	case err != nil:
		r.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return v, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", zap.String("key", key), zap.Duration("ttl", ttl), zap.Error(err))
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// GetJSON decodes the value at key into dest. A missing key is
// ErrCacheKeyNotFound.
func (r *redisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("json unmarshal failed for %s: %w", key, err)
	}
	return nil
}

func (r *redisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal failed for %s: %w", key, err)
	}
	return r.Set(ctx, key, raw, ttl)
}

func (r *redisCache) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close failed: %w", err)
	}
	r.logger.Debug("redis cache closed")
	return nil
}
