package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics holds all Prometheus metrics for the rule engine.
type EngineMetrics struct {
	EntriesTotal       *prometheus.CounterVec
	AlertsCreated      prometheus.Counter
	AlertsDeduplicated prometheus.Counter
	DedupCacheHits     prometheus.Counter
	DedupCacheMisses   prometheus.Counter
	DedupCacheSize     prometheus.Gauge
}

// NewEngineMetrics initializes and registers the Prometheus metrics.
func NewEngineMetrics() *EngineMetrics {
	return &EngineMetrics{
		EntriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rule_engine",
			Subsystem: "consumer",
			Name:      "entries_total",
			Help:      "Total number of stream entries handled by outcome.",
		}, []string{"status"}), // status: processed, malformed, retried
		AlertsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rule_engine",
			Subsystem: "alerts",
			Name:      "created_total",
			Help:      "Total number of alerts persisted.",
		}),
		AlertsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rule_engine",
			Subsystem: "alerts",
			Name:      "deduplicated_total",
			Help:      "Total number of alert candidates suppressed as duplicates.",
		}),
		DedupCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rule_engine",
			Subsystem: "dedup",
			Name:      "cache_hits_total",
			Help:      "Total number of dedup cache hits.",
		}),
		DedupCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "rule_engine",
			Subsystem: "dedup",
			Name:      "cache_misses_total",
			Help:      "Total number of dedup cache misses that fell back to the store.",
		}),
		DedupCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "rule_engine",
			Subsystem: "dedup",
			Name:      "cache_size",
			Help:      "Current number of entries in the dedup cache.",
		}),
	}
}
