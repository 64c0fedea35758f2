package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersEveryCollectorExactlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"kaniop_reconcile_total",
		"kaniop_reconcile_errors_total",
		"kaniop_reconcile_duration_seconds",
		"kaniop_backoff_delay_seconds",
		"kaniop_kanidm_requests_total",
		"kaniop_kanidm_request_duration_seconds",
		"kaniop_admission_denials_total",
		"kaniop_secret_rotations_total",
		"kaniop_store_healthy",
	} {
		require.True(t, names[want], "missing metric %q", want)
	}
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}

func TestCounterNamesCarryTotalSuffix(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ReconcileTotal.WithLabelValues("KanidmGroup", "success").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetType().String() == "COUNTER" {
			require.True(t, strings.HasSuffix(f.GetName(), "_total"), "counter %q missing _total suffix", f.GetName())
		}
	}
}

func TestStoreHealthyGaugeReflectsSetValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.StoreHealthy.WithLabelValues("KanidmGroup").Set(1)

	require.Equal(t, float64(1), testutil.ToFloat64(m.StoreHealthy.WithLabelValues("KanidmGroup")))
}
