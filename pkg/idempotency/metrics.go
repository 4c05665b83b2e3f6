package idempotency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds idempotency-related Prometheus metrics
type Metrics struct {
	// IdempotencyHits tracks how many times a cached response was returned
	IdempotencyHits *prometheus.CounterVec

	// IdempotencyMisses tracks how many times a new request was processed
	IdempotencyMisses *prometheus.CounterVec

	// IdempotencyParameterMismatches tracks parameter mismatch errors
	IdempotencyParameterMismatches *prometheus.CounterVec

	// IdempotencyConcurrentCollisions tracks concurrent request conflicts
	IdempotencyConcurrentCollisions *prometheus.CounterVec

	// IdempotencyLockAcquisitionDuration tracks time to acquire locks
	IdempotencyLockAcquisitionDuration *prometheus.HistogramVec

	// IdempotencyStorageErrors tracks storage failures
	IdempotencyStorageErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all counters and histograms registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		IdempotencyHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wms",
				Name:      "idempotency_hits_total",
				Help:      "Total number of idempotency cache hits",
			},
			[]string{"service", "endpoint", "method"},
		),
		IdempotencyMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wms",
				Name:      "idempotency_misses_total",
				Help:      "Total number of idempotency cache misses",
			},
			[]string{"service", "endpoint", "method"},
		),
		IdempotencyParameterMismatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wms",
				Name:      "idempotency_parameter_mismatches_total",
				Help:      "Total number of idempotency parameter mismatches",
			},
			[]string{"service", "endpoint", "method"},
		),
		IdempotencyConcurrentCollisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wms",
				Name:      "idempotency_concurrent_collisions_total",
				Help:      "Total number of concurrent requests with the same idempotency key",
			},
			[]string{"service", "endpoint", "method"},
		),
		IdempotencyLockAcquisitionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wms",
				Name:      "idempotency_lock_acquisition_duration_seconds",
				Help:      "Time to acquire an idempotency lock",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"service", "endpoint", "method"},
		),
		IdempotencyStorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wms",
				Name:      "idempotency_storage_errors_total",
				Help:      "Total number of idempotency storage failures",
			},
			[]string{"service", "operation"},
		),
	}
}

// RecordHit records an idempotency cache hit
func (m *Metrics) RecordHit(service, endpoint, method string) {
	m.IdempotencyHits.WithLabelValues(service, endpoint, method).Inc()
}

// RecordMiss records an idempotency cache miss
func (m *Metrics) RecordMiss(service, endpoint, method string) {
	m.IdempotencyMisses.WithLabelValues(service, endpoint, method).Inc()
}

// RecordParameterMismatch records a parameter mismatch
func (m *Metrics) RecordParameterMismatch(service, endpoint, method string) {
	m.IdempotencyParameterMismatches.WithLabelValues(service, endpoint, method).Inc()
}

// RecordConcurrentCollision records a concurrent request conflict
func (m *Metrics) RecordConcurrentCollision(service, endpoint, method string) {
	m.IdempotencyConcurrentCollisions.WithLabelValues(service, endpoint, method).Inc()
}

// RecordLockAcquisitionDuration records lock acquisition time in seconds
func (m *Metrics) RecordLockAcquisitionDuration(service, endpoint, method string, duration float64) {
	m.IdempotencyLockAcquisitionDuration.WithLabelValues(service, endpoint, method).Observe(duration)
}

// RecordStorageError records a storage failure
func (m *Metrics) RecordStorageError(service, operation string) {
	m.IdempotencyStorageErrors.WithLabelValues(service, operation).Inc()
}
