package breaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// breakerStateChanges counts state transitions by edge.
	breakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_breaker_state_changes_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	// breakerRejections counts calls short-circuited without reaching
	// the upstream.
	breakerRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_breaker_rejections_total",
			Help: "Calls rejected by the open circuit breaker",
		},
	)
)
