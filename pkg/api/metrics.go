package api

import "github.com/prometheus/client_golang/prometheus"

var (
	// Requests counts API requests by method and outcome (hit, miss,
	// error).
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorbridge_api_requests_total",
			Help: "API requests issued by the client, by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	// Latency observes the duration of requests that reached the network.
	Latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sensorbridge_api_request_duration_seconds",
			Help:    "Duration of API requests that were not served from cache.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// RegisterMetrics registers the client's collectors with r.
func RegisterMetrics(r prometheus.Registerer) {
	r.MustRegister(Requests, Latency)
}
