package artifacts

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrTableNotFound is returned by a Source when a table does not exist.
var ErrTableNotFound = errors.New("table not found")

// Row is one (category, value) pair of a two-column artifact table.
type Row struct {
	Category string
	Value    string
}

// Source reads raw artifact tables.
type Source interface {
	ReadTable(ctx context.Context, name string) ([]Row, error)
}

// DirSource reads <dir>/<name>.csv files. The first row is a header and is
// skipped; only the first two columns are read.
type DirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// ReadTable parses the CSV file of the named table.
func (s *DirSource) ReadTable(ctx context.Context, name string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrTableNotFound)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file, header row expected")
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", i+2, len(rec))
		}
		rows = append(rows, Row{Category: rec[0], Value: strings.TrimSpace(rec[1])})
	}
	return rows, nil
}

// tableMarkerField is written into every published hash so a table with no
// rows still exists in Redis. ReadTable never returns it.
const tableMarkerField = "__lff_table__"

// RedisSource reads tables stored as Redis hashes under <prefix><name>, with
// the category as field and the shrinkage or flag as value.
type RedisSource struct {
	client redis.Cmdable
	prefix string
}

// NewRedisSource creates a source over a connected client.
func NewRedisSource(client redis.Cmdable, prefix string) *RedisSource {
	return &RedisSource{client: client, prefix: prefix}
}

// ReadTable returns the hash fields sorted by category.
func (s *RedisSource) ReadTable(ctx context.Context, name string) ([]Row, error) {
	key := s.prefix + name
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrTableNotFound)
	}

	rows := make([]Row, 0, len(fields))
	for category, value := range fields {
		if category == tableMarkerField {
			continue
		}
		rows = append(rows, Row{Category: category, Value: strings.TrimSpace(value)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
	return rows, nil
}

// Publish replaces the named tables in Redis with the given rows. Each table
// is swapped atomically. Later rows win over earlier rows of the same category.
func (s *RedisSource) Publish(ctx context.Context, tables map[string][]Row) error {
	for name, rows := range tables {
		key := s.prefix + name
		values := make(map[string]interface{}, len(rows)+1)
		for _, r := range rows {
			if r.Category == tableMarkerField {
				return fmt.Errorf("publishing %s: category %q is reserved", key, r.Category)
			}
			values[r.Category] = r.Value
		}
		values[tableMarkerField] = "1"

		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, values)
			return nil
		})
		if err != nil {
			return fmt.Errorf("publishing %s: %w", key, err)
		}
	}
	return nil
}
