package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the provider.
type Metrics struct {
	Decisions      *prometheus.CounterVec
	TrustGrants    prometheus.Counter
	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "openid_provider_decisions_total",
			Help: "Authorization engine outcomes by decision",
		}, []string{"decision"}),
		TrustGrants: promauto.NewCounter(prometheus.CounterOpts{
			Name: "openid_provider_trust_grants_total",
			Help: "Trust roots granted through the consent flow",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "openid_provider_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveDecision records one engine outcome.
func (m *Metrics) ObserveDecision(decision string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision).Inc()
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, status).Observe(seconds)
}

// IncrementTrustGrants records one consent-created trust root.
func (m *Metrics) IncrementTrustGrants() {
	if m == nil {
		return
	}
	m.TrustGrants.Inc()
}
