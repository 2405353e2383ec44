//go:build integration

package main

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/artifacts"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/config"
	"github.com/davidleathers/loan-fraud-features/internal/testutil"
)

func TestPublishArtifacts_RealRedis(t *testing.T) {
	ctx := testutil.TestContext(t)

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, redisContainer)
	require.NoError(t, err)

	url, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Artifacts: config.ArtifactsConfig{
			Source:      "redis",
			Dir:         writeArtifacts(t),
			RedisPrefix: "lff:it:",
		},
	}
	logger := zaptest.NewLogger(t)

	require.NoError(t, publishArtifacts(ctx, cfg, client, logger))

	loader, err := artifacts.NewLoader(artifacts.NewRedisSource(client, cfg.Artifacts.RedisPrefix), logger)
	require.NoError(t, err)
	store, err := loader.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0.8, store.Shrinkage(artifacts.TableBankName, "BBVA", artifacts.DefaultShrinkage))
	assert.Equal(t, 1.4, store.Shrinkage(artifacts.TableDays, "15-25 días", artifacts.DefaultShrinkage))
}

func TestPublishArtifacts_RequiresRedis(t *testing.T) {
	cfg := &config.Config{Artifacts: config.ArtifactsConfig{Dir: t.TempDir()}}
	err := publishArtifacts(testutil.TestContext(t), cfg, nil, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "redis.url is required")
}
