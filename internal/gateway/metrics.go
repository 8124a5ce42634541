package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics counts gateway calls per operation and outcome. Outcome is "ok"
// or the apperror.Kind of the failure. A nil *metrics records nothing.
type metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qaforum",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Backend calls made by the gateway",
		}, []string{"op", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qaforum",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Backend call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (m *metrics) observe(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(d.Seconds())
}
