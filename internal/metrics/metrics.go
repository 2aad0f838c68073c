// Package metrics holds the prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokenAcquisitions counts client-credentials token requests by result.
	TokenAcquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ascendia",
		Subsystem: "investec",
		Name:      "token_acquisitions_total",
		Help:      "Client credentials token requests by result (success, rejected, error).",
	}, []string{"result"})

	// TokenRetries counts API calls replayed after a 401 forced a refresh.
	TokenRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ascendia",
		Subsystem: "investec",
		Name:      "token_retries_total",
		Help:      "API calls retried after an unauthorized response.",
	})

	// APIRequestDuration tracks Investec API latency by endpoint and status code.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ascendia",
		Subsystem: "investec",
		Name:      "api_request_duration_seconds",
		Help:      "Investec API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "code"})

	// AnalysisDuration tracks LLM completion latency by outcome.
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ascendia",
		Subsystem: "analysis",
		Name:      "completion_duration_seconds",
		Help:      "LLM completion latency for spending analyses.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 120},
	}, []string{"outcome"})
)
