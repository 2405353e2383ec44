package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/davidleathers/loan-fraud-features/internal/domain/errors"
	"github.com/davidleathers/loan-fraud-features/internal/domain/presence"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/artifacts"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/cache"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/config"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/ipintel"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/telemetry"
	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/useragent"
	"github.com/davidleathers/loan-fraud-features/internal/metrics"
	"github.com/davidleathers/loan-fraud-features/internal/service/features"
)

type options struct {
	input   string
	publish bool
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		input      = flag.String("input", "-", "File of JSON requests, - for stdin")
		publish    = flag.Bool("publish", false, "Publish the CSV artifact tables in artifacts.dir to Redis and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, options{input: *input, publish: *publish}, logger); err != nil {
		logger.Error("feature derivation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.Logger) error {
	logger.Info("starting loan fraud feature derivation",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment),
		zap.String("artifact_source", cfg.Artifacts.Source))

	var client *redis.Client
	if cfg.Redis.URL != "" {
		c, err := cache.NewRedisClient(&cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer c.Close()
		client = c
	}

	if opts.publish {
		return publishArtifacts(ctx, cfg, client, logger)
	}

	reg := newPrometheusRegistry()
	m := metrics.NewRegistry(reg)
	if cfg.Metrics.Enabled {
		serveMetrics(ctx, cfg.Metrics.Addr, reg, logger)
	}

	var source artifacts.Source
	switch cfg.Artifacts.Source {
	case config.ArtifactSourceRedis:
		source = artifacts.NewRedisSource(client, cfg.Artifacts.RedisPrefix)
	default:
		source = artifacts.NewDirSource(cfg.Artifacts.Dir)
	}

	loader, err := artifacts.NewLoader(source, logger, artifacts.WithMetrics(m))
	if err != nil {
		return err
	}
	// fail before reading any request when the artifacts are unusable
	if _, err := loader.Load(ctx); err != nil {
		return err
	}

	resolver, closeResolver, err := buildResolver(cfg, client, m, logger)
	if err != nil {
		return err
	}
	defer closeResolver()

	parser, err := useragent.NewParser(logger)
	if err != nil {
		return err
	}

	svc, err := features.NewService(loader, presence.DefaultSpec(), resolver, parser, m, logger)
	if err != nil {
		return err
	}

	in, closeInput, err := openInput(opts.input)
	if err != nil {
		return err
	}
	defer closeInput()

	return deriveAll(ctx, svc, in, os.Stdout, logger)
}

// buildResolver chains MaxMind, the circuit breaker and, when enabled, the
// Redis lookup cache.
func buildResolver(cfg *config.Config, client *redis.Client, m *metrics.Registry, logger *zap.Logger) (ipintel.Resolver, func(), error) {
	mm, err := ipintel.NewMaxMindResolver(cfg.GeoIP.ASNDatabase, cfg.GeoIP.CityDatabase, cfg.GeoIP.Locale, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := mm.Close(); err != nil {
			logger.Warn("closing geoip databases failed", zap.Error(err))
		}
	}

	var resolver ipintel.Resolver
	resolver, err = ipintel.NewBreakerResolver(mm, ipintel.NewCircuitBreaker(cfg.GeoIP.Breaker), m, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	if cfg.GeoIP.CacheEnabled {
		c, err := cache.NewRedisCache(client, logger)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		resolver, err = ipintel.NewCachedResolver(resolver, c, cfg.GeoIP.CacheTTL, m, logger)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
	}

	return resolver, closeFn, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// deriveAll reads a stream of JSON requests and writes one vector per line.
// A request that fails validation is logged and skipped; an artifact failure
// stops the stream.
func deriveAll(ctx context.Context, svc *features.Service, in io.Reader, out io.Writer, logger *zap.Logger) error {
	dec := json.NewDecoder(in)
	dec.UseNumber()
	enc := json.NewEncoder(out)

	var derived, rejected int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req features.Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decoding request %d: %w", derived+rejected+1, err)
		}

		vector, err := svc.Derive(ctx, &req)
		if err != nil {
			if isRequestError(err) {
				rejected++
				logger.Warn("request rejected", zap.Error(err))
				continue
			}
			return err
		}

		if err := enc.Encode(vector); err != nil {
			return fmt.Errorf("writing vector: %w", err)
		}
		derived++
	}

	logger.Info("feature derivation finished",
		zap.Int("derived", derived),
		zap.Int("rejected", rejected))
	return nil
}

func isRequestError(err error) bool {
	return apperrors.IsType(err, apperrors.ErrorTypeValidation)
}

func publishArtifacts(ctx context.Context, cfg *config.Config, client *redis.Client, logger *zap.Logger) error {
	if client == nil {
		return fmt.Errorf("redis.url is required to publish artifacts")
	}

	dir := artifacts.NewDirSource(cfg.Artifacts.Dir)
	names := append(append([]string(nil), artifacts.ShrinkageTables...), artifacts.FlagTables...)

	tables := make(map[string][]artifacts.Row, len(names))
	for _, name := range names {
		rows, err := dir.ReadTable(ctx, name)
		if err != nil {
			return apperrors.Wrap(err, "reading "+name)
		}
		tables[name] = rows
	}

	if err := artifacts.NewRedisSource(client, cfg.Artifacts.RedisPrefix).Publish(ctx, tables); err != nil {
		return err
	}

	logger.Info("artifact tables published",
		zap.Int("tables", len(tables)),
		zap.String("prefix", cfg.Artifacts.RedisPrefix))
	return nil
}
