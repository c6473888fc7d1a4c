package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Verification verdicts by classification
	Verdicts *prometheus.CounterVec

	// Verification latency including the storage lookup
	VerifyLatency prometheus.Histogram
}

// New creates a new Metrics instance with all verification metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriseal_verifications_total",
			Help: "Total verification verdicts by classification",
		}, []string{"verdict"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veriseal_verify_duration_seconds",
			Help:    "Duration of full verification including record lookup",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
	}
}

// IncrementVerdict records one verification outcome.
func (m *Metrics) IncrementVerdict(verdict string) {
	if m != nil {
		m.Verdicts.WithLabelValues(verdict).Inc()
	}
}

// ObserveVerifyLatency records the total verification duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
