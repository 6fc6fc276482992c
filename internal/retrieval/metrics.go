package retrieval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retrievalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathshala_retrievals_total",
		Help: "Retrievals executed, by query intent.",
	}, []string{"intent"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathshala_query_cache_hits_total",
		Help: "Query cache hits.",
	})

	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathshala_query_cache_misses_total",
		Help: "Query cache misses.",
	})

	noContextTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathshala_retrievals_no_context_total",
		Help: "Retrievals where no collection returned anything.",
	})
)
