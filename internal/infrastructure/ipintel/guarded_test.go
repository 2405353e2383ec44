package ipintel

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/cache"
	"github.com/davidleathers/loan-fraud-features/internal/metrics"
	"github.com/davidleathers/loan-fraud-features/internal/testutil"
)

// stubResolver answers from a map and counts calls.
type stubResolver struct {
	answers map[string]Info
	err     error
	calls   atomic.Int64
}

func (s *stubResolver) Lookup(_ context.Context, ip string) (Info, error) {
	s.calls.Add(1)
	if s.err != nil {
		return Info{}, s.err
	}
	return s.answers[ip], nil
}

func TestBreakerResolver_DegradesWhenOpen(t *testing.T) {
	stub := &stubResolver{err: errLookup}
	cb, _ := newTestBreaker(2, 1, time.Minute)
	m := metrics.NewRegistry(prometheus.NewRegistry())

	r, err := NewBreakerResolver(stub, cb, m, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := r.Lookup(ctx, "203.0.113.7")
		assert.ErrorIs(t, err, errLookup)
	}
	assert.Equal(t, float64(CircuitOpen), promtest.ToFloat64(m.BreakerState.WithLabelValues("ipintel")))

	info, err := r.Lookup(ctx, "203.0.113.7")
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.Equal(t, Info{}, info)
	assert.Equal(t, int64(2), stub.calls.Load())
}

func TestBreakerResolver_InvalidIPSkipsLookup(t *testing.T) {
	stub := &stubResolver{}
	cb, _ := newTestBreaker(1, 1, time.Minute)

	r, err := NewBreakerResolver(stub, cb, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = r.Lookup(context.Background(), "not-an-ip")
	assert.ErrorIs(t, err, ErrInvalidIP)
	assert.Zero(t, stub.calls.Load())
	assert.Equal(t, CircuitClosed, cb.State())
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, cache.Cache) {
	t.Helper()
	mr, client := testutil.NewMiniredis(t)
	c, err := cache.NewRedisCache(client, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestCachedResolver_HitAndMiss(t *testing.T) {
	mr, c := newTestCache(t)
	stub := &stubResolver{answers: map[string]Info{
		"198.51.100.4": {ASNOrg: "Telefonica de Espana", City: "Madrid"},
	}}
	m := metrics.NewRegistry(prometheus.NewRegistry())

	r, err := NewCachedResolver(stub, c, time.Hour, m, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := r.Lookup(ctx, "198.51.100.4")
	require.NoError(t, err)
	second, err := r.Lookup(ctx, "198.51.100.4")
	require.NoError(t, err)

	assert.Equal(t, Info{ASNOrg: "Telefonica de Espana", City: "Madrid"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), stub.calls.Load())
	assert.Equal(t, 1.0, promtest.ToFloat64(m.IPCacheResults.WithLabelValues("miss")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.IPCacheResults.WithLabelValues("hit")))
	assert.True(t, mr.Exists(cache.IPIntelPrefix+"198.51.100.4"))

	mr.FastForward(2 * time.Hour)
	_, err = r.Lookup(ctx, "198.51.100.4")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stub.calls.Load())
}

func TestCachedResolver_FailuresAreNotCached(t *testing.T) {
	mr, c := newTestCache(t)
	stub := &stubResolver{err: errLookup}

	r, err := NewCachedResolver(stub, c, 0, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = r.Lookup(context.Background(), "198.51.100.4")
	assert.ErrorIs(t, err, errLookup)
	assert.False(t, mr.Exists(cache.IPIntelPrefix+"198.51.100.4"))
}

func TestCachedResolver_CacheDownFallsThrough(t *testing.T) {
	mr, c := newTestCache(t)
	stub := &stubResolver{answers: map[string]Info{"2001:db8::1": {ASNOrg: "OVH SAS"}}}
	m := metrics.NewRegistry(prometheus.NewRegistry())

	r, err := NewCachedResolver(stub, c, time.Hour, m, zaptest.NewLogger(t))
	require.NoError(t, err)
	mr.Close()

	info, err := r.Lookup(context.Background(), "2001:db8::1")
	require.NoError(t, err)
	assert.Equal(t, "OVH SAS", info.ASNOrg)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.IPCacheResults.WithLabelValues("error")))
}

func TestMaxMindResolver_WithoutDatabases(t *testing.T) {
	r, err := NewMaxMindResolver("", "", "en", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	info, err := r.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, Info{}, info)

	_, err = r.Lookup(context.Background(), "999.1.1.1")
	assert.ErrorIs(t, err, ErrInvalidIP)
}

func TestMaxMindResolver_MissingDatabase(t *testing.T) {
	_, err := NewMaxMindResolver(filepath.Join(t.TempDir(), "GeoLite2-ASN.mmdb"), "", "en", zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "opening asn database")

	_, err = NewMaxMindResolver("", "", "en", nil)
	assert.ErrorContains(t, err, "logger is required")
}
