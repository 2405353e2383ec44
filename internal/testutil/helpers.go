package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// TestContext creates a context with timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Ptr returns a pointer to the given value (useful for optional fields)
func Ptr[T any](v T) *T {
	return &v
}

// WriteCSVTables writes each table to <dir>/<name>.csv in a fresh temp
// directory and returns the directory.
func WriteCSVTables(t *testing.T, tables map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range tables {
		path := filepath.Join(dir, name+".csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "writing %s", path)
	}
	return dir
}

// NewMiniredis starts an in-memory Redis and a client connected to it. Both
// are closed when the test ends.
func NewMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// AssertNoPanic asserts that a function does not panic
func AssertNoPanic(t *testing.T, f func(), msgAndArgs ...interface{}) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			require.FailNow(t, "unexpected panic", append([]interface{}{r}, msgAndArgs...)...)
		}
	}()
	f()
}
