package ipintel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/cache"
	"github.com/davidleathers/loan-fraud-features/internal/metrics"
)

const collaborator = "ipintel"

// BreakerResolver guards a resolver with a circuit breaker.
type BreakerResolver struct {
	inner   Resolver
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerResolver wires breaker transitions to the log and, when m is not
// nil, to the breaker state gauge.
func NewBreakerResolver(inner Resolver, breaker *CircuitBreaker, m *metrics.Registry, logger *zap.Logger) (*BreakerResolver, error) {
	if inner == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if breaker == nil {
		return nil, fmt.Errorf("circuit breaker is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if m != nil {
		m.BreakerState.WithLabelValues(collaborator).Set(float64(breaker.State()))
	}
	breaker.SetStateChangeCallback(func(from, to CircuitState) {
		logger.Warn("ip intelligence circuit state changed",
			zap.Stringer("from", from),
			zap.Stringer("to", to))
		if m != nil {
			m.BreakerState.WithLabelValues(collaborator).Set(float64(to))
		}
	})

	return &BreakerResolver{inner: inner, breaker: breaker, logger: logger}, nil
}

// Lookup rejects unparsable addresses before they reach the breaker.
func (r *BreakerResolver) Lookup(ctx context.Context, ip string) (Info, error) {
	if _, err := parseIP(ip); err != nil {
		return Info{}, err
	}

	var info Info
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		info, err = r.inner.Lookup(ctx, ip)
		return err
	})
	if err != nil {
		return Info{}, err
	}
	return info, nil
}

// CachedResolver memoizes successful lookups in Redis. Cache failures fall
// through to the wrapped resolver.
type CachedResolver struct {
	inner   Resolver
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewCachedResolver wraps inner. A zero ttl uses cache.IPIntelTTL.
func NewCachedResolver(inner Resolver, c cache.Cache, ttl time.Duration, m *metrics.Registry, logger *zap.Logger) (*CachedResolver, error) {
	if inner == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if c == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if ttl <= 0 {
		ttl = cache.IPIntelTTL
	}

	return &CachedResolver{inner: inner, cache: c, ttl: ttl, metrics: m, logger: logger}, nil
}

// Lookup serves from the cache when it can.
func (r *CachedResolver) Lookup(ctx context.Context, ip string) (Info, error) {
	if _, err := parseIP(ip); err != nil {
		return Info{}, err
	}

	key := cache.IPIntelPrefix + ip

	var cached Info
	err := r.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		r.observe("hit")
		return cached, nil
	case errors.As(err, new(cache.ErrCacheKeyNotFound)):
		r.observe("miss")
	default:
		r.observe("error")
		r.logger.Warn("ip intelligence cache read failed", zap.String("ip", ip), zap.Error(err))
	}

	info, err := r.inner.Lookup(ctx, ip)
	if err != nil {
		return Info{}, err
	}

	if err := r.cache.SetJSON(ctx, key, info, r.ttl); err != nil {
		r.logger.Warn("ip intelligence cache write failed", zap.String("ip", ip), zap.Error(err))
	}
	return info, nil
}

func (r *CachedResolver) observe(result string) {
	if r.metrics != nil {
		r.metrics.IPCacheResults.WithLabelValues(result).Inc()
	}
}
