package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.LookupMisses.WithLabelValues("bank_name").Inc()
	m.DerivationsTotal.WithLabelValues("ok").Add(2)
	m.ArtifactTableRows.WithLabelValues("tramos_days").Set(7)
	m.DerivationDuration.Observe(0.001)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupMisses.WithLabelValues("bank_name")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DerivationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.ArtifactTableRows.WithLabelValues("tramos_days")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "lff_features_lookup_misses_total")
	assert.Contains(t, names, "lff_features_derivation_duration_seconds")
}

func TestNewRegistry_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg)

	assert.Panics(t, func() { NewRegistry(reg) })
}
