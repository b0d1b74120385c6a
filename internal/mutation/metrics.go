package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "siteforge_client",
		Subsystem: "mutation",
		Name:      "requests_total",
		Help:      "Mutations dispatched, by name and outcome.",
	},
	[]string{"mutation", "outcome"},
)
