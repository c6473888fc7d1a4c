package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the certificate module.
type Metrics struct {
	// Certificates issued by kind
	Issued *prometheus.CounterVec

	// Revocations applied
	Revoked prometheus.Counter

	// Reference-number generation retries caused by collisions
	IdentifierRetries prometheus.Counter

	// Issuance latency including the uniqueness loop
	IssueLatency prometheus.Histogram
}

// New creates a new Metrics instance with all certificate module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriseal_certificates_issued_total",
			Help: "Total certificates issued by kind",
		}, []string{"kind"}),

		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriseal_certificates_revoked_total",
			Help: "Total certificates revoked",
		}),

		IdentifierRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriseal_identifier_retries_total",
			Help: "Reference number regenerations caused by collisions",
		}),

		IssueLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veriseal_certificate_issue_duration_seconds",
			Help:    "Duration of certificate issuance including uniqueness checks",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementIssued records a successful issuance.
func (m *Metrics) IncrementIssued(kind string) {
	if m != nil {
		m.Issued.WithLabelValues(kind).Inc()
	}
}

// IncrementRevoked records a revocation.
func (m *Metrics) IncrementRevoked() {
	if m != nil {
		m.Revoked.Inc()
	}
}

// IncrementIdentifierRetries records a collision-driven regeneration.
func (m *Metrics) IncrementIdentifierRetries() {
	if m != nil {
		m.IdentifierRetries.Inc()
	}
}

// ObserveIssueLatency records the total issuance duration in seconds.
func (m *Metrics) ObserveIssueLatency(seconds float64) {
	if m != nil {
		m.IssueLatency.Observe(seconds)
	}
}
