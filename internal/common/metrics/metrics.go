// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ChatResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_responses_total",
			Help: "Chat responses by the path that produced them",
		},
		[]string{"processed_by", "outcome"},
	)

	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_cache_operations_total",
			Help: "Cache lookups and writes by namespace and result",
		},
		[]string{"namespace", "result"},
	)

	GeminiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_gemini_requests_total",
			Help: "Calls to the Gemini API by final status",
		},
		[]string{"status"},
	)

	GeminiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_gemini_request_duration_seconds",
			Help:    "Latency of Gemini generateContent calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"model"},
	)

	IntentClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_intent_classifications_total",
			Help: "Intent classifier invocations by provider and result",
		},
		[]string{"provider", "result"},
	)
)
