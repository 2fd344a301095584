// Package metrics provides Prometheus metrics for fortuned: draw counters,
// cache hits, enrichment latency and store write failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Draws ──────────────────────────────────────────────────────────────────

// DrawsComputed counts first-time fortune computations by algorithm.
var DrawsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fortuned",
	Name:      "draws_computed_total",
	Help:      "Total first-time fortune computations.",
}, []string{"algorithm"})

// CacheHits counts queries answered from the daily cache.
var CacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fortuned",
	Name:      "cache_hits_total",
	Help:      "Total fortune queries served from the daily cache.",
})

// DrawsRejectedInFlight counts duplicate draws rejected by the guard.
var DrawsRejectedInFlight = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fortuned",
	Name:      "draws_rejected_in_flight_total",
	Help:      "Duplicate draw requests rejected while one was computing.",
})

// ─── Enrichment ─────────────────────────────────────────────────────────────

// EnrichLatency tracks text-generation round trips in seconds.
var EnrichLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "fortuned",
	Name:      "enrich_latency_seconds",
	Help:      "Text-generation request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
})

// EnrichFailures counts enrichment calls that degraded to fallback text.
var EnrichFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fortuned",
	Name:      "enrich_failures_total",
	Help:      "Text-generation failures by prompt kind.",
}, []string{"prompt"})

// ─── Storage ────────────────────────────────────────────────────────────────

// StoreWriteErrors counts failed document rewrites.
var StoreWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fortuned",
	Name:      "store_write_errors_total",
	Help:      "Failed JSON document writes.",
})
