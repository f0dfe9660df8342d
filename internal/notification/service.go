package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"connect2uni/pkg/domain"
	dErrors "connect2uni/pkg/domain-errors"
	"connect2uni/pkg/platform/sentinel"
)

// Service exposes recipient-scoped reads and mutations over stored
// notifications. Every operation checks that the acting user owns the
// notification it touches.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, actor domain.Actor) ([]*Notification, error) {
	out, err := s.store.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*Notification, error) {
	return s.owned(ctx, actor, id)
}

func (s *Service) MarkRead(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, actor domain.Actor, id uuid.UUID) (*Notification, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "notification belongs to another user")
	}
	return n, nil
}
