package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docent_ingests_total",
		Help: "Sources ingested into the vector store, by type.",
	}, []string{"type"})

	fallbackSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docent_search_fallbacks_total",
		Help: "Discovery passes that consulted the fallback search provider.",
	})
)
