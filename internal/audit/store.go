package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store is the outbox table behind the event stream. Append runs inside the
// caller's transaction when one is open.
type Store interface {
	Append(ctx context.Context, e Event) error
	// ListUnpublished returns up to limit events not yet delivered to the
	// bus, oldest first.
	ListUnpublished(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}
