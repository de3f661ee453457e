package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters exposed by the pricing core. A dedicated
// registry is used so tests can construct throwaway instances without
// colliding on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	ReconcileVerdicts *prometheus.CounterVec
	ReconcilePasses   prometheus.Counter
	OTPIssued         prometheus.Counter
	OTPVerifications  *prometheus.CounterVec
	OrdersFinalized   prometheus.Counter
}

// New creates and registers the core's metric collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petkart",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "petkart",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ReconcileVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petkart",
			Subsystem: "reconcile",
			Name:      "line_verdicts_total",
			Help:      "Per-line availability verdicts produced by reconciliation passes.",
		}, []string{"verdict"}),
		ReconcilePasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petkart",
			Subsystem: "reconcile",
			Name:      "passes_total",
			Help:      "Total number of reconciliation passes executed.",
		}),
		OTPIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petkart",
			Subsystem: "payment",
			Name:      "otp_issued_total",
			Help:      "Total number of OTP challenges issued.",
		}),
		OTPVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petkart",
			Subsystem: "payment",
			Name:      "otp_verifications_total",
			Help:      "OTP verification attempts by outcome.",
		}, []string{"outcome"}),
		OrdersFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petkart",
			Subsystem: "payment",
			Name:      "orders_finalized_total",
			Help:      "Orders marked paid after a successful OTP verification.",
		}),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.ReconcileVerdicts,
		m.ReconcilePasses,
		m.OTPIssued,
		m.OTPVerifications,
		m.OrdersFinalized,
	)

	return m
}

// Handler returns the HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
