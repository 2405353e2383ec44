package cache

import (
	"context"
	"time"
)

// Cache is the subset of Redis the pipeline uses: string and JSON values
// with a TTL. A ttl of zero stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Close() error
}

// IPIntelPrefix namespaces cached IP lookups, keyed by the textual address.
const IPIntelPrefix = "lff:ipintel:"

// IPIntelTTL is the default lifetime of a cached IP lookup. GeoLite2
// databases are refreshed weekly at most.
const IPIntelTTL = 24 * time.Hour

// ErrCacheKeyNotFound reports a miss.
type ErrCacheKeyNotFound struct {
	Key string
}

func (e ErrCacheKeyNotFound) Error() string {
	return "cache key not found: " + e.Key
}
