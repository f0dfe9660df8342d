// Package notification persists per-user notifications and pushes them to
// connected clients over Redis pub/sub. Persistence is authoritative; the
// realtime push is best-effort and a failed publish never fails the
// triggering operation.
package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeApplication Type = "Application"
	TypePayment     Type = "Payment"
	TypeGeneral     Type = "General"
)

type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
