package notification

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=store.go -destination=../../mocks/notification_store_mock.go -package=mocks

// Store persists notifications. Implementations return sentinel.ErrNotFound
// for missing rows.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	// ListByUser returns the user's notifications newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
