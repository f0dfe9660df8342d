package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"connect2uni/internal/platform/metrics"
)

// Dispatcher persists a notification and then pushes it to the recipient's
// realtime channel. The push is best-effort: failures are logged and
// swallowed so the operation that triggered the notification still succeeds.
type Dispatcher struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewDispatcher constructs a Dispatcher. publisher may be nil when realtime
// push is not configured; metrics may be nil.
func NewDispatcher(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Dispatch stores a notification for userID and pushes it out.
func (d *Dispatcher) Dispatch(ctx context.Context, userID uuid.UUID, typ Type, message string) error {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		Type:      typ,
		IsRead:    false,
		CreatedAt: d.now().UTC(),
	}
	if err := d.store.Insert(ctx, n); err != nil {
		return err
	}

	var pushErr error
	if d.publisher != nil {
		pushErr = d.publisher.Publish(ctx, n)
		if pushErr != nil {
			d.logger.Warn("realtime notification push failed",
				"notification_id", n.ID.String(),
				"user_id", userID.String(),
				"error", pushErr,
			)
		}
	}
	d.metrics.ObserveNotification(pushErr)
	return nil
}
