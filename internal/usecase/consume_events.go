package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/auditflow/rule-engine/internal/adapter/metrics"
	"github.com/auditflow/rule-engine/internal/domain"
)

// ConsumeEventsUseCase drives the engine's single processing loop: read a
// batch from the stream, decode and evaluate each entry in order, persist
// the resulting alerts, and acknowledge the entry only once every candidate
// is durably resolved. Unacknowledged entries are redelivered by the
// consumer group, which is the engine's only retry mechanism.
type ConsumeEventsUseCase struct {
	stream  domain.EventStreamRepository
	alerts  *AlertWriter
	codec   *domain.Codec
	logger  *slog.Logger
	metrics *metrics.EngineMetrics
	backoff time.Duration
	join    time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConsumeEventsUseCase creates the stream consumer. backoff is the fixed
// delay after a transient loop error; join bounds how long Stop waits for
// the loop to exit.
func NewConsumeEventsUseCase(
	stream domain.EventStreamRepository,
	alerts *AlertWriter,
	codec *domain.Codec,
	logger *slog.Logger,
	m *metrics.EngineMetrics,
	backoff, join time.Duration,
) *ConsumeEventsUseCase {
	return &ConsumeEventsUseCase{
		stream:  stream,
		alerts:  alerts,
		codec:   codec,
		logger:  logger.With("component", "consumer"),
		metrics: m,
		backoff: backoff,
		join:    join,
	}
}

// Start launches the processing loop on its own goroutine. Starting an
// already running consumer is a no-op.
func (uc *ConsumeEventsUseCase) Start(ctx context.Context) {
	if !uc.running.CompareAndSwap(false, true) {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	uc.cancel = cancel
	uc.done = make(chan struct{})

	go uc.consumeLoop(loopCtx)
	uc.logger.Info("consumer started")
}

// Stop cancels the loop and waits up to the join timeout for it to exit.
// The in-flight batch is allowed to finish so entries are acked-or-not
// cleanly rather than abandoned mid-decision.
func (uc *ConsumeEventsUseCase) Stop() {
	if !uc.running.CompareAndSwap(true, false) {
		return
	}

	uc.cancel()
	select {
	case <-uc.done:
		uc.logger.Info("consumer stopped")
	case <-time.After(uc.join):
		uc.logger.Warn("consumer did not stop within timeout", "timeout", uc.join)
	}
}

func (uc *ConsumeEventsUseCase) consumeLoop(ctx context.Context) {
	defer close(uc.done)
	uc.logger.Info("consumer loop running")

	for ctx.Err() == nil {
		if err := uc.processBatch(ctx); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				break
			}
			uc.logger.Error("consumer loop error, backing off", "error", err, "backoff", uc.backoff)
			select {
			case <-time.After(uc.backoff):
			case <-ctx.Done():
			}
		}
	}

	uc.logger.Info("consumer loop ended")
}

// processBatch performs one blocking read and handles every returned entry
// in stream order. A panic anywhere in the batch is converted into a
// transient loop error rather than crashing the worker.
func (uc *ConsumeEventsUseCase) processBatch(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing batch: %v", r)
		}
	}()

	entries, err := uc.stream.ReadBatch(ctx)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}

	// Entries already read are allowed to finish ack-or-not even if
	// shutdown begins mid-batch; Stop bounds the wait.
	batchCtx := context.WithoutCancel(ctx)
	for _, entry := range entries {
		uc.processEntry(batchCtx, entry)
	}
	return nil
}

// processEntry resolves one stream entry. Malformed entries are acked
// immediately after logging: redelivery cannot fix a permanently broken
// payload. Entries whose candidates hit a store failure are left pending
// for redelivery.
func (uc *ConsumeEventsUseCase) processEntry(ctx context.Context, entry domain.StreamEntry) {
	if !entry.HasData {
		uc.logger.Warn("stream entry has no data field", "entry_id", entry.ID)
		uc.ack(ctx, entry, "malformed")
		return
	}

	event, err := uc.codec.Decode(entry.Payload)
	if err != nil {
		uc.logger.Warn("undecodable stream entry", "entry_id", entry.ID, "error", err)
		uc.ack(ctx, entry, "malformed")
		return
	}

	for _, candidate := range EvaluateEvent(event) {
		if _, err := uc.alerts.Create(ctx, candidate); err != nil {
			uc.logger.Error("failed to resolve alert candidate, leaving entry pending",
				"entry_id", entry.ID, "rule", candidate.RuleName, "error", err)
			if uc.metrics != nil {
				uc.metrics.EntriesTotal.WithLabelValues("retried").Inc()
			}
			return
		}
	}

	uc.ack(ctx, entry, "processed")
}

func (uc *ConsumeEventsUseCase) ack(ctx context.Context, entry domain.StreamEntry, status string) {
	if err := uc.stream.Ack(ctx, entry.ID); err != nil {
		// The entry stays pending and will be redelivered; processing it
		// again is safe because creation is deduplicated.
		uc.logger.Error("failed to ack stream entry", "entry_id", entry.ID, "error", err)
		return
	}
	if uc.metrics != nil {
		uc.metrics.EntriesTotal.WithLabelValues(status).Inc()
	}
}
