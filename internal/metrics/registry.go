package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lff"

// Registry holds the collectors of the feature pipeline
type Registry struct {
	// Artifact store
	ArtifactLoadDuration prometheus.Histogram
	ArtifactTableRows    *prometheus.GaugeVec
	ArtifactLoadFailures prometheus.Counter

	// Derivation
	DerivationDuration prometheus.Histogram
	DerivationsTotal   *prometheus.CounterVec
	LookupMisses       *prometheus.CounterVec

	// Collaborators
	CollaboratorFailures *prometheus.CounterVec
	BreakerState         *prometheus.GaugeVec
	IPCacheResults       *prometheus.CounterVec
}

// NewRegistry registers every collector on reg. Pass prometheus.NewRegistry()
// in tests to keep them isolated.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		ArtifactLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "load_duration_seconds",
			Help:      "Time spent building the shrinkage tables at cold start",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}),
		ArtifactTableRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "table_rows",
			Help:      "Number of categories loaded per artifact table",
		}, []string{"table"}),
		ArtifactLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifacts",
			Name:      "load_failures_total",
			Help:      "Artifact loads that aborted initialization",
		}),

		DerivationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "derivation_duration_seconds",
			Help:      "Feature vector derivation latency",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16), // 10μs to ~0.3s
		}),
		DerivationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "derivations_total",
			Help:      "Feature vector derivations by result",
		}, []string{"result"}),
		LookupMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "lookup_misses_total",
			Help:      "Shrinkage lookups resolved through the default value",
		}, []string{"feature"}),

		CollaboratorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collaborators",
			Name:      "failures_total",
			Help:      "External lookups that degraded to default values",
		}, []string{"collaborator", "reason"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collaborators",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		}, []string{"collaborator"}),
		IPCacheResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ipintel",
			Name:      "cache_results_total",
			Help:      "IP intelligence cache lookups by result",
		}, []string{"result"}),
	}
}
