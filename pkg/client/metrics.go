package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pipeline operations.
var (
	graphqlRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_graphql_requests_total",
		Help: "Total GraphQL operations by name and outcome",
	}, []string{"operation", "status"})

	graphqlRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_graphql_request_duration_seconds",
		Help:    "GraphQL operation duration in seconds by operation",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	graphqlErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_graphql_errors_total",
		Help: "Total classified errors by kind",
	}, []string{"kind"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_retries_total",
		Help: "Total retry attempts by error kind",
	}, []string{"kind"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error kind",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"kind"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_retry_exhausted_total",
		Help: "Total calls that exhausted retry attempts by error kind",
	}, []string{"kind"})
)
