package inference

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finsight",
			Subsystem: "inference_client",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the inference service.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "inference_client",
			Name:      "requests_total",
			Help:      "Requests sent to the inference service.",
		},
		[]string{"method", "route", "status"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "inference_client",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		},
		[]string{"route", "result"},
	)
)
