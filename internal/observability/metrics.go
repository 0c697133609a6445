package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus instruments for the sweep pipeline and the
// operational API.
type Metrics struct {
	SweepsTotal        *prometheus.CounterVec
	SweepDuration      prometheus.Histogram
	EntitiesEvaluated  prometheus.Counter
	ViolationsRecorded *prometheus.CounterVec
	TenantErrors       *prometheus.CounterVec

	requestsTotal *prometheus.CounterVec
	requestErrors *prometheus.CounterVec
}

// NewMetrics registers all instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SweepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_sweeps_total",
			Help: "Completed sweep invocations by mode.",
		}, []string{"dry_run"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sla_sweep_duration_seconds",
			Help:    "Wall-clock duration of complete sweep invocations.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		EntitiesEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "sla_entities_evaluated_total",
			Help: "Tracked entities evaluated across sweeps.",
		}),
		ViolationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_violations_recorded_total",
			Help: "Violations recorded by kind.",
		}, []string{"kind"}),
		TenantErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_tenant_errors_total",
			Help: "Tenant-scoped sweep errors by code.",
		}, []string{"code"}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Operational API requests.",
		}, []string{"path", "method", "status"}),
		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "Operational API errors by code.",
		}, []string{"path", "method", "code"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.requestErrors.WithLabelValues(path, method, code).Inc()
}

// RecordViolation increments the violation counter for a kind.
func (m *Metrics) RecordViolation(kind string) {
	if m == nil {
		return
	}
	m.ViolationsRecorded.WithLabelValues(kind).Inc()
}

// RecordTenantError increments the tenant error counter for a code.
func (m *Metrics) RecordTenantError(code string) {
	if m == nil {
		return
	}
	m.TenantErrors.WithLabelValues(code).Inc()
}

// RecordSweep observes one finished sweep.
func (m *Metrics) RecordSweep(dryRun bool, entities int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SweepsTotal.WithLabelValues(strconv.FormatBool(dryRun)).Inc()
	m.SweepDuration.Observe(duration.Seconds())
	m.EntitiesEvaluated.Add(float64(entities))
}
