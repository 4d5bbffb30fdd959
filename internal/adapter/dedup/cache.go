package dedup

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Cache is the fast-path existence check for (event id, rule name) pairs
// that already raised an alert. It is purely advisory: entries expire, and
// the durable store remains the authority, so a dropped or cold cache can
// only cost extra store queries, never duplicate alerts.
type Cache struct {
	mu            sync.RWMutex
	entries       map[string]time.Time
	ttl           time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger
}

// New creates a dedup cache whose entries expire after ttl. The sweeper
// must be started separately via Run.
func New(ttl, sweepInterval time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		entries:       make(map[string]time.Time),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		logger:        logger.With("component", "dedup_cache"),
	}
}

// Contains reports whether an unexpired entry exists for the pair.
// A nil eventID always reports false.
func (c *Cache) Contains(eventID *int64, ruleName string) bool {
	if eventID == nil {
		return false
	}

	c.mu.RLock()
	addedAt, found := c.entries[key(*eventID, ruleName)]
	c.mu.RUnlock()

	return found && time.Since(addedAt) <= c.ttl
}

// Add records that an alert exists for the pair. A nil eventID is a no-op.
func (c *Cache) Add(eventID *int64, ruleName string) {
	if eventID == nil {
		return
	}

	c.mu.Lock()
	c.entries[key(*eventID, ruleName)] = time.Now()
	c.mu.Unlock()
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Run sweeps expired entries on a fixed interval until ctx is cancelled.
// It is started as an explicit goroutine alongside the cache and stops as
// part of orderly shutdown.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	c.logger.Debug("dedup cache sweeper started", "ttl", c.ttl, "interval", c.sweepInterval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("dedup cache sweeper stopped")
			return
		case <-ticker.C:
			if removed := c.sweepExpired(); removed > 0 {
				c.logger.Debug("swept expired dedup entries", "removed", removed)
			}
		}
	}
}

func (c *Cache) sweepExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, addedAt := range c.entries {
		if now.Sub(addedAt) > c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func key(eventID int64, ruleName string) string {
	return strconv.FormatInt(eventID, 10) + "-" + ruleName
}
