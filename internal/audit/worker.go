package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"connect2uni/internal/platform/metrics"
)

const (
	defaultDrainInterval = 2 * time.Second
	defaultBatchSize     = 100
)

// Worker drains the outbox to the publisher on a ticker. A failed batch is
// left unmarked and retried on the next tick, so delivery is at-least-once.
type Worker struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
}

func NewWorker(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		interval:  defaultDrainInterval,
		batchSize: defaultBatchSize,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "workflow event drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of unpublished events. Exported for testability;
// Run calls it on every tick.
func (w *Worker) Drain(ctx context.Context) error {
	events, err := w.store.ListUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	if err := w.publisher.PublishBatch(ctx, events); err != nil {
		return err
	}
	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	if err := w.store.MarkPublished(ctx, ids); err != nil {
		return err
	}
	w.metrics.ObserveWorkflowEventsPublished(len(events))
	return nil
}
