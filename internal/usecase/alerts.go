package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/auditflow/rule-engine/internal/adapter/dedup"
	"github.com/auditflow/rule-engine/internal/adapter/metrics"
	"github.com/auditflow/rule-engine/internal/domain"
)

const logMessageLimit = 100

// AlertWriter persists alert candidates, suppressing duplicates. The cache
// answers the fast path; the store's existence check is authoritative and
// repopulates the cache on hits, so a cache-cold process converges to the
// same fast-path behavior.
type AlertWriter struct {
	store   domain.AlertRepository
	cache   *dedup.Cache
	logger  *slog.Logger
	metrics *metrics.EngineMetrics
}

// NewAlertWriter creates an alert writer.
func NewAlertWriter(store domain.AlertRepository, cache *dedup.Cache, logger *slog.Logger, m *metrics.EngineMetrics) *AlertWriter {
	return &AlertWriter{
		store:   store,
		cache:   cache,
		logger:  logger.With("component", "alert_writer"),
		metrics: m,
	}
}

// Create persists the candidate unless an alert already exists for its
// (event id, rule name) pair, reporting whether a row was inserted. A
// non-nil error means the durable store could not answer; the caller must
// withhold the stream ack so the entry is redelivered.
func (w *AlertWriter) Create(ctx context.Context, candidate domain.AlertCandidate) (bool, error) {
	// 1. Fast path: unexpired cache entry means the alert exists.
	if w.cache.Contains(candidate.EventID, candidate.RuleName) {
		w.logger.Debug("alert deduplicated (cache)", "rule", candidate.RuleName, "event_id", *candidate.EventID)
		if w.metrics != nil {
			w.metrics.DedupCacheHits.Inc()
			w.metrics.AlertsDeduplicated.Inc()
		}
		return false, nil
	}
	if candidate.EventID != nil && w.metrics != nil {
		w.metrics.DedupCacheMisses.Inc()
	}

	// 2. The durable check is the source of truth.
	exists, err := w.store.Exists(ctx, candidate.EventID, candidate.RuleName)
	if err != nil {
		return false, fmt.Errorf("dedup check for %q: %w", candidate.RuleName, err)
	}
	if exists {
		w.logger.Debug("alert deduplicated (store)", "rule", candidate.RuleName, "event_id", *candidate.EventID)
		w.cache.Add(candidate.EventID, candidate.RuleName)
		if w.metrics != nil {
			w.metrics.AlertsDeduplicated.Inc()
			w.metrics.DedupCacheSize.Set(float64(w.cache.Len()))
		}
		return false, nil
	}

	// 3. Clean miss: insert and write through to the cache.
	id, err := w.store.Insert(ctx, candidate)
	if err != nil {
		return false, fmt.Errorf("insert alert %q: %w", candidate.RuleName, err)
	}
	w.cache.Add(candidate.EventID, candidate.RuleName)

	w.logger.Info("created alert",
		"id", id,
		"rule", candidate.RuleName,
		"level", candidate.Level,
		"message", truncate(candidate.Message, logMessageLimit),
	)
	if w.metrics != nil {
		w.metrics.AlertsCreated.Inc()
		w.metrics.DedupCacheSize.Set(float64(w.cache.Len()))
	}
	return true, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
