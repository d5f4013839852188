package inference

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests    *prometheus.CounterVec
	instances   prometheus.Counter
	predictions *prometheus.CounterVec
	latency     prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poisonbench",
			Subsystem: "inference",
			Name:      "requests_total",
			Help:      "Prediction requests by outcome",
		}, []string{"outcome"}),
		instances: f.NewCounter(prometheus.CounterOpts{
			Namespace: "poisonbench",
			Subsystem: "inference",
			Name:      "instances_total",
			Help:      "Instances scored",
		}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poisonbench",
			Subsystem: "inference",
			Name:      "predictions_total",
			Help:      "Predicted labels by class",
		}, []string{"class"}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "poisonbench",
			Subsystem: "inference",
			Name:      "predict_duration_seconds",
			Help:      "Time spent scoring a prediction request",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
}
