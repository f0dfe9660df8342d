package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"connect2uni/internal/email"
	"connect2uni/internal/notification"
	"connect2uni/pkg/domain"
	dErrors "connect2uni/pkg/domain-errors"
	"connect2uni/pkg/platform/sentinel"
)

// Notifier persists a notification and pushes it best-effort.
type Notifier interface {
	Dispatch(ctx context.Context, userID uuid.UUID, typ notification.Type, message string) error
}

// Service covers the directory operations that carry side effects. Plain
// lookups go straight to the Store.
type Service struct {
	store    Store
	notifier Notifier
	mailer   email.Sender
	logger   *slog.Logger
}

func NewService(store Store, notifier Notifier, mailer email.Sender, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, mailer: mailer, logger: logger}
}

// EnableSolicitorService flips the student's visa-assistance gate after the
// payment boundary confirms the purchase. Enabling an already-enabled account
// is a conflict so a double-submitted confirmation cannot double-charge.
func (s *Service) EnableSolicitorService(ctx context.Context, studentID domain.StudentID) error {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return fmt.Errorf("get student: %w", err)
	}
	if student.SolicitorService {
		return dErrors.New(dErrors.CodeConflict, "solicitor service is already enabled")
	}

	if err := s.store.SetSolicitorService(ctx, studentID, true); err != nil {
		return fmt.Errorf("enable solicitor service: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Dispatch(ctx, uuid.UUID(studentID), notification.TypePayment,
			"Your payment for the solicitor service has been received."); err != nil {
			s.logger.WarnContext(ctx, "notification dispatch failed",
				"student_id", studentID.String(), "error", err)
		}
	}
	if s.mailer != nil {
		msg := email.PaymentConfirmation(student.Email, student.FullName(), "Solicitor Service")
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "email send failed",
				"template", msg.Template, "to", msg.To, "error", err)
		}
	}
	return nil
}

// VerifyDefaultAgency cross-checks a configured default-agency id against the
// agency flagged as default in the directory. Applications route through the
// flagged agency, so a stale id in the deployment config would silently point
// operators at the wrong tenant. An empty id skips the check.
func VerifyDefaultAgency(ctx context.Context, store Store, configured string) error {
	if configured == "" {
		return nil
	}
	id, err := domain.ParseAgencyID(configured)
	if err != nil {
		return fmt.Errorf("parse configured default agency id: %w", err)
	}
	agency, err := store.DefaultAgency(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("no agency is flagged as default, but %s is configured", configured)
		}
		return fmt.Errorf("default agency lookup: %w", err)
	}
	if agency.ID != id {
		return fmt.Errorf("configured default agency %s does not match flagged agency %s",
			configured, agency.ID)
	}
	return nil
}

// Profile returns the student's own directory record.
func (s *Service) Profile(ctx context.Context, studentID domain.StudentID) (*Student, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return student, nil
}
