package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=../../mocks/audit_recorder_mock.go -package=mocks

// Recorder is the port workflow services emit events through.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Service captures workflow events. It is append-only and uses the outbox
// store for persistence so tests can swap sinks easily.
type Service struct {
	store Store
	now   func() time.Time
}

var _ Recorder = (*Service)(nil)

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Record(ctx context.Context, e Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}
	return s.store.Append(ctx, e)
}
