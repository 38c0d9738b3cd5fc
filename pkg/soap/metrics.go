package soap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Send outcomes recorded by Metrics.
const (
	OutcomeOK             = "ok"
	OutcomeFault          = "fault"
	OutcomeMalformed      = "malformed"
	OutcomeTransportError = "transport_error"
	OutcomeEncodeError    = "encode_error"
)

// Metrics counts Client sends by outcome and records their latency.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ewsoap_requests_total",
			Help: "Total number of SOAP requests by outcome",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ewsoap_request_duration_seconds",
			Help:    "SOAP request latency including transport and parsing",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration)
	}
	return m
}

func (m *Metrics) observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.Duration.Observe(d.Seconds())
}
