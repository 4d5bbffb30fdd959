package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/auditflow/rule-engine/internal/domain"
)

const (
	// streamKey is the audit event stream published by the ingestion API.
	streamKey = "audit:events"

	// dataField is the entry field carrying the JSON-encoded event.
	dataField = "data"
)

// StreamRepository implements domain.EventStreamRepository using Redis
// Streams with consumer-group semantics.
type StreamRepository struct {
	client    *redis.Client
	logger    *slog.Logger
	group     string
	consumer  string
	batchSize int64
	block     time.Duration
}

// NewStreamRepository creates a Redis-backed event stream repository.
// The consumer name must be unique per process so that multiple engine
// instances can share the group.
func NewStreamRepository(client *redis.Client, logger *slog.Logger, group, consumer string, batchSize int, block time.Duration) *StreamRepository {
	return &StreamRepository{
		client:    client,
		logger:    logger.With("component", "stream_repository"),
		group:     group,
		consumer:  consumer,
		batchSize: int64(batchSize),
		block:     block,
	}
}

// EnsureGroup creates the consumer group at the stream's current tail.
// An already existing group is success; any other failure is a warning,
// since a concurrent instance may have created the group first and the
// subsequent reads will surface a real connectivity problem anyway.
func (r *StreamRepository) EnsureGroup(ctx context.Context) {
	err := r.client.XGroupCreateMkStream(ctx, streamKey, r.group, "$").Err()
	switch {
	case err == nil:
		r.logger.Info("created consumer group", "stream", streamKey, "group", r.group)
	case isBusyGroupError(err):
		r.logger.Debug("consumer group already exists", "group", r.group)
	default:
		r.logger.Warn("failed to create consumer group", "group", r.group, "error", err)
	}
}

// ReadBatch performs one blocking XREADGROUP for up to batchSize pending
// entries. An idle stream returns (nil, nil) once the block timeout lapses.
func (r *StreamRepository) ReadBatch(ctx context.Context) ([]domain.StreamEntry, error) {
	args := &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{streamKey, ">"},
		Count:    r.batchSize,
		Block:    r.block,
	}

	streams, err := r.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP from redis: %w", err)
	}

	var entries []domain.StreamEntry
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			entry := domain.StreamEntry{ID: msg.ID}
			if data, ok := msg.Values[dataField].(string); ok {
				entry.Payload = []byte(data)
				entry.HasData = true
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Ack acknowledges processed entries in the consumer group.
func (r *StreamRepository) Ack(ctx context.Context, entryIDs ...string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	if err := r.client.XAck(ctx, streamKey, r.group, entryIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK entries in redis: %w", err)
	}
	return nil
}

func isBusyGroupError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
