// internal/platform/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts checkout attempts by outcome.
type CheckoutMetrics struct {
	started *prometheus.CounterVec
	settled *prometheus.CounterVec
	failed  *prometheus.CounterVec
}

func NewCheckoutMetrics() *CheckoutMetrics {
	started := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sodistore",
		Subsystem: "checkout",
		Name:      "started_total",
		Help:      "Checkout attempts started.",
	}, []string{"method"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sodistore",
		Subsystem: "checkout",
		Name:      "settled_total",
		Help:      "Checkout attempts settled.",
	}, []string{"method"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sodistore",
		Subsystem: "checkout",
		Name:      "failed_total",
		Help:      "Checkout attempts failed, by failure kind.",
	}, []string{"kind"})

	prometheus.MustRegister(started, settled, failed)
	return &CheckoutMetrics{started: started, settled: settled, failed: failed}
}

func (m *CheckoutMetrics) Started(method string) {
	m.started.WithLabelValues(method).Inc()
}

func (m *CheckoutMetrics) Settled(method string) {
	m.settled.WithLabelValues(method).Inc()
}

func (m *CheckoutMetrics) Failed(kind string) {
	m.failed.WithLabelValues(kind).Inc()
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
