package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/config"
)

func setupTestRedis(t *testing.T) (*redisCache, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cfg := &config.RedisConfig{
		URL:          mr.Addr(),
		PoolSize:     5,
		MinIdleConns: 1,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	logger := zaptest.NewLogger(t)

	client, err := NewRedisClient(cfg, logger)
	require.NoError(t, err)

	cache, err := NewRedisCache(client, logger)
	require.NoError(t, err)

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return cache.(*redisCache), mr, cleanup
}

func TestNewRedisClient(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		_, err := NewRedisClient(&config.RedisConfig{URL: "localhost:6379"}, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewRedisClient(nil, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis config is required")
	})

	t.Run("connection failure", func(t *testing.T) {
		cfg := &config.RedisConfig{
			URL:         "localhost:9999",
			DialTimeout: 100 * time.Millisecond,
		}
		_, err := NewRedisClient(cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis connection failed")
	})
}

func TestNewRedisCache_RequiresClient(t *testing.T) {
	_, err := NewRedisCache(nil, zaptest.NewLogger(t))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis client is required")
}

func TestRedisCache_GetSet(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	_, err = cache.Get(ctx, "missing")
	var notFound ErrCacheKeyNotFound
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Key)
}

func TestRedisCache_JSONOperations(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	type lookup struct {
		ASNOrg string `json:"asn_org"`
		City   string `json:"city"`
	}

	in := lookup{ASNOrg: "Telefonica de Espana", City: "Madrid"}
	require.NoError(t, cache.SetJSON(ctx, IPIntelPrefix+"1.2.3.4", in, IPIntelTTL))

	var out lookup
	require.NoError(t, cache.GetJSON(ctx, IPIntelPrefix+"1.2.3.4", &out))
	assert.Equal(t, in, out)

	require.NoError(t, cache.Set(ctx, "broken", "{not json", time.Minute))
	err := cache.GetJSON(ctx, "broken", &out)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "json unmarshal failed")
}

func TestRedisCache_TTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", "v", time.Second))
	mr.FastForward(2 * time.Second)

	_, err := cache.Get(ctx, "short")
	assert.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	t.Run("bare address", func(t *testing.T) {
		opts, err := redisOptions(&config.RedisConfig{URL: "localhost:6379", PoolSize: 7})
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", opts.Addr)
		assert.Equal(t, 7, opts.PoolSize)
		assert.Equal(t, defaultDialTimeout, opts.DialTimeout)
	})

	t.Run("url with db and password", func(t *testing.T) {
		opts, err := redisOptions(&config.RedisConfig{URL: "redis://:secret@cache.internal:6380/2"})
		require.NoError(t, err)
		assert.Equal(t, "cache.internal:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("config overrides url", func(t *testing.T) {
		opts, err := redisOptions(&config.RedisConfig{URL: "redis://cache.internal:6380/2", DB: 4, DialTimeout: time.Second})
		require.NoError(t, err)
		assert.Equal(t, 4, opts.DB)
		assert.Equal(t, time.Second, opts.DialTimeout)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := redisOptions(&config.RedisConfig{URL: "http://cache.internal"})
		assert.ErrorContains(t, err, "parsing redis url")
	})
}

func TestNewRedisClient_URL(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(&config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
