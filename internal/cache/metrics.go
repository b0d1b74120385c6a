package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteforge_client",
			Subsystem: "cache",
			Name:      "fetches_total",
			Help:      "Fetches completed, by resource and outcome.",
		},
		[]string{"resource", "outcome"},
	)

	hitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteforge_client",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Queries answered from fresh cached data.",
		},
		[]string{"resource"},
	)

	coalescedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteforge_client",
			Subsystem: "cache",
			Name:      "coalesced_total",
			Help:      "Queries that joined a fetch already in flight.",
		},
		[]string{"resource"},
	)

	supersededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "siteforge_client",
			Subsystem: "cache",
			Name:      "superseded_total",
			Help:      "Fetch responses dropped because a newer fetch was issued.",
		},
		[]string{"resource"},
	)

	invalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "siteforge_client",
			Subsystem: "cache",
			Name:      "invalidated_entries_total",
			Help:      "Entries marked stale by invalidation.",
		},
	)

	purgesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "siteforge_client",
			Subsystem: "cache",
			Name:      "purges_total",
			Help:      "Global cache purges.",
		},
	)

	liveEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "siteforge_client",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries currently held across caches.",
		},
	)
)

// resourceLabel keeps label cardinality bounded: "projects/p-123" is reported
// as "projects".
func resourceLabel(k Key) string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}
