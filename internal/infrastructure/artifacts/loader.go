package artifacts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/davidleathers/loan-fraud-features/internal/domain/errors"
	"github.com/davidleathers/loan-fraud-features/internal/metrics"
)

// Loader builds the Store exactly once. Concurrent first callers block until
// the single build finishes and all observe the same Store or the same error.
type Loader struct {
	source          Source
	logger          *zap.Logger
	metrics         *metrics.Registry
	shrinkageTables []string
	flagTables      []string

	once  sync.Once
	store *Store
	err   error
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithMetrics records load duration and table sizes.
func WithMetrics(m *metrics.Registry) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a loader over source.
func NewLoader(source Source, logger *zap.Logger, opts ...LoaderOption) (*Loader, error) {
	if source == nil {
		return nil, fmt.Errorf("artifact source is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	l := &Loader{
		source:          source,
		logger:          logger,
		shrinkageTables: ShrinkageTables,
		flagTables:      FlagTables,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load returns the cached Store, building it on the first call. A failed
// build is not retried: the process is expected to stop. The build ignores
// the caller's cancellation so only table errors are ever cached.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	l.once.Do(func() {
		l.store, l.err = l.build(context.WithoutCancel(ctx))
	})
	return l.store, l.err
}

func (l *Loader) build(ctx context.Context) (*Store, error) {
	start := time.Now()

	shrinkage := make(map[string]map[string]float64, len(l.shrinkageTables))
	for _, name := range l.shrinkageTables {
		table, err := l.readShrinkage(ctx, name)
		if err != nil {
			return nil, l.fail(err)
		}
		shrinkage[name] = table
	}

	flags := make(map[string]map[string]string, len(l.flagTables))
	for _, name := range l.flagTables {
		table, err := l.readFlags(ctx, name)
		if err != nil {
			return nil, l.fail(err)
		}
		flags[name] = table
	}

	store := NewStore(shrinkage, flags)
	elapsed := time.Since(start)

	sizes := store.Sizes()
	if l.metrics != nil {
		l.metrics.ArtifactLoadDuration.Observe(elapsed.Seconds())
		for name, n := range sizes {
			l.metrics.ArtifactTableRows.WithLabelValues(name).Set(float64(n))
		}
	}
	l.logger.Info("artifact tables loaded",
		zap.Int("tables", len(sizes)),
		zap.Any("categories", sizes),
		zap.Duration("elapsed", elapsed))

	return store, nil
}

func (l *Loader) fail(err error) error {
	if l.metrics != nil {
		l.metrics.ArtifactLoadFailures.Inc()
	}
	l.logger.Error("artifact load failed", zap.Error(err))
	return err
}

func (l *Loader) readShrinkage(ctx context.Context, name string) (map[string]float64, error) {
	rows, err := l.read(ctx, name)
	if err != nil {
		return nil, err
	}

	table := make(map[string]float64, len(rows))
	for _, r := range rows {
		if r.Category == "" {
			continue
		}
		v, err := strconv.ParseFloat(r.Value, 64)
		if err != nil {
			return nil, apperrors.NewArtifactLoadError(name,
				fmt.Sprintf("non-numeric shrinkage %q for category %q", r.Value, r.Category)).
				WithDetails(map[string]interface{}{"table": name, "category": r.Category, "value": r.Value}).
				WithCause(err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return nil, apperrors.NewArtifactLoadError(name,
				fmt.Sprintf("shrinkage for category %q must be a positive number, got %v", r.Category, v))
		}
		table[r.Category] = v
	}
	return table, nil
}

func (l *Loader) readFlags(ctx context.Context, name string) (map[string]string, error) {
	rows, err := l.read(ctx, name)
	if err != nil {
		return nil, err
	}

	table := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.Category == "" {
			continue
		}
		if r.Value == "" {
			return nil, apperrors.NewArtifactLoadError(name,
				fmt.Sprintf("empty flag for key %q", r.Category))
		}
		table[r.Category] = r.Value
	}
	return table, nil
}

func (l *Loader) read(ctx context.Context, name string) ([]Row, error) {
	rows, err := l.source.ReadTable(ctx, name)
	if err != nil {
		msg := "table could not be read"
		if errors.Is(err, ErrTableNotFound) {
			msg = "required table is missing"
		}
		return nil, apperrors.NewArtifactLoadError(name, msg).WithCause(err)
	}
	return rows, nil
}
