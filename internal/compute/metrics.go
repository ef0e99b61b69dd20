package compute

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type dispatcherMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newDispatcherMetrics(reg prometheus.Registerer) dispatcherMetrics {
	factory := promauto.With(reg)

	return dispatcherMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rating_engine",
			Subsystem: "compute",
			Name:      "requests_total",
			Help:      "Computation requests by message type and outcome.",
		}, []string{"type", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rating_engine",
			Subsystem: "compute",
			Name:      "request_duration_seconds",
			Help:      "Computation duration by message type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}
}
