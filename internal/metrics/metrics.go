// Package metrics defines the Prometheus collectors shared across every
// reconciler and the admission validator, registered once on process start.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every counter/histogram this operator exposes under
// /metrics. Counter names carry the "_total" suffix per this system's
// OpenMetrics convention.
type Registry struct {
	ReconcileTotal       *prometheus.CounterVec
	ReconcileErrorsTotal *prometheus.CounterVec
	ReconcileDuration    *prometheus.HistogramVec
	BackoffDelaySeconds  *prometheus.HistogramVec
	KanidmRequestsTotal  *prometheus.CounterVec
	KanidmRequestSeconds *prometheus.HistogramVec
	AdmissionDenials     *prometheus.CounterVec
	SecretRotationsTotal *prometheus.CounterVec
	StoreHealthy         *prometheus.GaugeVec
}

// New builds and registers a Registry against reg.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		ReconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaniop_reconcile_total",
			Help: "Total reconcile invocations, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ReconcileErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaniop_reconcile_errors_total",
			Help: "Total reconcile errors, by kind and reason.",
		}, []string{"kind", "reason"}),
		ReconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kaniop_reconcile_duration_seconds",
			Help:    "Reconcile latency, by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		BackoffDelaySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kaniop_backoff_delay_seconds",
			Help:    "Computed backoff delay before the next retry, by kind.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"kind"}),
		KanidmRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaniop_kanidm_requests_total",
			Help: "Total outbound Kanidm API requests, by endpoint and status class.",
		}, []string{"endpoint", "status_class"}),
		KanidmRequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kaniop_kanidm_request_duration_seconds",
			Help:    "Outbound Kanidm API request latency, by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		AdmissionDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaniop_admission_denials_total",
			Help: "Total admission requests denied, by kind and reason.",
		}, []string{"kind", "reason"}),
		SecretRotationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kaniop_secret_rotations_total",
			Help: "Total child Secret rotations, by kind and trigger.",
		}, []string{"kind", "trigger"}),
		StoreHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kaniop_store_healthy",
			Help: "1 if the object store's watch is currently connected, 0 otherwise.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.ReconcileTotal,
		m.ReconcileErrorsTotal,
		m.ReconcileDuration,
		m.BackoffDelaySeconds,
		m.KanidmRequestsTotal,
		m.KanidmRequestSeconds,
		m.AdmissionDenials,
		m.SecretRotationsTotal,
		m.StoreHealthy,
	)

	return m
}
