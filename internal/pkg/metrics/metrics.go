// internal/pkg/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stock_ledger"

// Metrics groups the ledger's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	retries            *prometheus.CounterVec
	conflictsExhausted *prometheus.CounterVec
	operations         *prometheus.CounterVec
	movements          *prometheus.CounterVec
	sweepExpired       prometheus.Counter
	sweepFailed        prometheus.Counter
	sweepDuration      prometheus.Histogram
	httpDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflict_retries_total",
			Help:      "Optimistic lock conflicts that were retried.",
		}, []string{"operation"}),
		conflictsExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_exhausted_total",
			Help:      "Operations that ran out of retry attempts.",
		}, []string{"operation"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by outcome code.",
		}, []string{"operation", "outcome"}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_appended_total",
			Help:      "Movements written to the ledger.",
		}, []string{"type"}),
		sweepExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_expired_total",
			Help:      "Checkout items expired by the reservation sweep.",
		}),
		sweepFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_failed_total",
			Help:      "Checkout items the sweep could not expire.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one reservation sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.retries, m.conflictsExhausted, m.operations, m.movements,
			m.sweepExpired, m.sweepFailed, m.sweepDuration, m.httpDuration,
		)
	}
	return m
}

func (m *Metrics) Retry(operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation).Inc()
}

func (m *Metrics) RetriesExhausted(operation string) {
	if m == nil {
		return
	}
	m.conflictsExhausted.WithLabelValues(operation).Inc()
}

// Outcome records the result code of an operation; an empty code means success.
func (m *Metrics) Outcome(operation, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "OK"
	}
	m.operations.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) MovementAppended(movementType string) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(movementType).Inc()
}

func (m *Metrics) Sweep(expired, failed int, took time.Duration) {
	if m == nil {
		return
	}
	m.sweepExpired.Add(float64(expired))
	m.sweepFailed.Add(float64(failed))
	m.sweepDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(took.Seconds())
}
