package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the verification workflow and the HTTP surface.
type Metrics struct {
	// Submissions by request kind (registration, update, assignment)
	Submitted *prometheus.CounterVec

	// Resolutions by outcome (accepted, rejected)
	Resolved *prometheus.CounterVec

	// Refused operations by reason (pending_exists, nik_taken, already_processed)
	Conflicts *prometheus.CounterVec

	// Request latency by route pattern and status code
	RequestDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jawara_verification_submitted_total",
			Help: "Verification requests filed by kind",
		}, []string{"kind"}),

		Resolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jawara_verification_resolved_total",
			Help: "Verification requests resolved by outcome",
		}, []string{"outcome"}),

		Conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jawara_verification_conflicts_total",
			Help: "Verification operations refused with a conflict by reason",
		}, []string{"reason"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jawara_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

func (m *Metrics) IncSubmitted(kind string) {
	if m != nil {
		m.Submitted.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncResolved(outcome string) {
	if m != nil {
		m.Resolved.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncConflict(reason string) {
	if m != nil {
		m.Conflicts.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ObserveRequest(method, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, status).Observe(d.Seconds())
	}
}
