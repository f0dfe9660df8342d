package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"connect2uni/internal/application"
	"connect2uni/internal/audit"
	"connect2uni/internal/directory"
	"connect2uni/internal/email"
	"connect2uni/internal/notification"
	"connect2uni/internal/platform/metrics"
	"connect2uni/pkg/domain"
	dErrors "connect2uni/pkg/domain-errors"
	"connect2uni/pkg/platform/sentinel"
	"connect2uni/pkg/platform/tx"
)

// Notifier persists a notification and pushes it best-effort.
type Notifier interface {
	Dispatch(ctx context.Context, userID uuid.UUID, typ notification.Type, message string) error
}

// StatusResult is the student-facing pipeline probe.
type StatusResult struct {
	State      string              `json:"state"`
	IsAssigned bool                `json:"is_assigned"`
	Solicitor  *domain.SolicitorID `json:"solicitor,omitempty"`
}

// Probe states, in the order the probe resolves them.
const (
	StateAssigned            = "accepted_assigned"
	StateProcessingAgency    = "processing_agency"
	StateProcessingAssociate = "processing_associate"
	StateProcessingSolicitor = "processing_solicitor"
	StateNotRequested        = "not_requested"
	StateNotEnrolled         = "not_enrolled"
)

// Service drives the solicitor routing pipeline. Moves run inside the tx
// runner keyed by application id; student-facing side effects fire after
// commit and are best-effort.
type Service struct {
	store     Store
	apps      application.Store
	directory directory.Store
	runner    tx.Runner
	notifier  Notifier
	mailer    email.Sender
	recorder  audit.Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(
	store Store,
	apps application.Store,
	dir directory.Store,
	runner tx.Runner,
	notifier Notifier,
	mailer email.Sender,
	recorder audit.Recorder,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:     store,
		apps:      apps,
		directory: dir,
		runner:    runner,
		notifier:  notifier,
		mailer:    mailer,
		recorder:  recorder,
		logger:    logger,
		metrics:   m,
	}
}

// FileRequest files a solicitor-service request for an accepted application.
func (s *Service) FileRequest(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) error {
	student, err := s.directory.GetStudent(ctx, studentID)
	if err != nil {
		return translateDirectory(err, "student")
	}
	if !student.SolicitorService {
		return dErrors.New(dErrors.CodeForbidden, "solicitor service is not enabled for this student")
	}

	err = s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		app, err := s.getApp(ctx, id)
		if err != nil {
			return err
		}
		if app.Student != studentID {
			return dErrors.New(dErrors.CodeForbidden, "application belongs to another student")
		}
		if app.Status != application.StatusAccepted {
			return dErrors.Newf(dErrors.CodeInvalidState, "solicitor request requires an Accepted application, current status %s", app.Status)
		}
		if err := s.store.File(ctx, Token{
			ApplicationID: id,
			Stage:         StageAgency,
			HolderID:      uuid.UUID(app.Agency),
		}); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "solicitor request already filed for this application")
			}
			return fmt.Errorf("file solicitor request: %w", err)
		}
		return s.record(ctx, id, domain.RoleStudent, uuid.UUID(studentID), audit.ActionSolicitorRequested, nil)
	})
	s.metrics.ObservePipelineMove("file_request", err)
	return err
}

// AssignToAssociate hands a pooled request to an associate. The
// "request approved" side effects fire only on the first-ever assignment.
func (s *Service) AssignToAssociate(ctx context.Context, id domain.ApplicationID, associateID domain.AssociateID, agencyID domain.AgencyID) error {
	associate, err := s.directory.GetAssociate(ctx, associateID)
	if err != nil {
		return translateDirectory(err, "associate")
	}

	var (
		first bool
		app   *application.Application
	)
	err = s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		var err error
		app, err = s.getApp(ctx, id)
		if err != nil {
			return err
		}
		token, err := s.getToken(ctx, id)
		if err != nil {
			return err
		}
		if token.Stage == StageAssociate && token.HolderID == uuid.UUID(associateID) {
			return dErrors.New(dErrors.CodeConflict, "associate already holds this request")
		}
		first, err = s.store.MoveToAssociate(ctx, id, uuid.UUID(agencyID), uuid.UUID(associateID))
		if err != nil {
			return s.translateMove(ctx, id, err)
		}
		return s.record(ctx, id, domain.RoleAgency, uuid.UUID(agencyID), audit.ActionSolicitorRouted, map[string]string{
			"associate": associate.Name,
		})
	})
	s.metrics.ObservePipelineMove("assign_to_associate", err)
	if err != nil {
		return err
	}

	if first {
		s.notify(ctx, uuid.UUID(app.Student), notification.TypeApplication,
			"Your solicitor request has been approved. An associate will be assigned shortly.")
		if student, err := s.directory.GetStudent(ctx, app.Student); err == nil {
			s.send(ctx, email.SolicitorRequestApproved(student.Email, student.FullName()))
		}
	}
	return nil
}

// AssignToSolicitor hands the request from the acting associate to a
// solicitor that associate created.
func (s *Service) AssignToSolicitor(ctx context.Context, id domain.ApplicationID, solicitorID domain.SolicitorID, associateID domain.AssociateID) error {
	solicitor, err := s.directory.GetSolicitor(ctx, solicitorID)
	if err != nil {
		return translateDirectory(err, "solicitor")
	}
	if solicitor.Associate != associateID {
		return dErrors.New(dErrors.CodeForbidden, "solicitor was created by another associate")
	}

	var app *application.Application
	err = s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		var err error
		app, err = s.getApp(ctx, id)
		if err != nil {
			return err
		}
		token, err := s.getToken(ctx, id)
		if err != nil {
			return err
		}
		if token.Stage == StageSolicitor && token.HolderID == uuid.UUID(solicitorID) {
			return dErrors.New(dErrors.CodeConflict, "solicitor already holds this request")
		}
		if token.Stage != StageAssociate || token.HolderID != uuid.UUID(associateID) {
			return dErrors.Newf(dErrors.CodeConflict, "request is not held by this associate (stage %s)", token.Stage)
		}
		if err := s.store.MoveToSolicitor(ctx, id, uuid.UUID(solicitorID)); err != nil {
			return s.translateMove(ctx, id, err)
		}
		return s.record(ctx, id, domain.RoleAssociate, uuid.UUID(associateID), audit.ActionSolicitorAssigned, map[string]string{
			"solicitor": solicitor.FullName(),
		})
	})
	s.metrics.ObservePipelineMove("assign_to_solicitor", err)
	if err != nil {
		return err
	}

	s.notify(ctx, uuid.UUID(solicitorID), notification.TypeApplication,
		"A new visa case has been assigned to you.")
	if student, err := s.directory.GetStudent(ctx, app.Student); err == nil {
		s.send(ctx, email.SolicitorAssigned(solicitor.Email, solicitor.FullName(), student.FullName()))
	}
	return nil
}

// RejectByAssociate returns the request to the no-holder state. The token is
// not requeued to the agency; a human re-triages it.
func (s *Service) RejectByAssociate(ctx context.Context, id domain.ApplicationID, associateID domain.AssociateID) error {
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		if err := s.store.Drop(ctx, id, uuid.UUID(associateID)); err != nil {
			return s.translateMove(ctx, id, err)
		}
		return s.record(ctx, id, domain.RoleAssociate, uuid.UUID(associateID), audit.ActionSolicitorRejected, nil)
	})
	s.metrics.ObservePipelineMove("reject_by_associate", err)
	return err
}

// Approve terminates the pipeline: the solicitor attaches itself to the
// application and the token is retired.
func (s *Service) Approve(ctx context.Context, id domain.ApplicationID, solicitorID domain.SolicitorID) error {
	var app *application.Application
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		var err error
		app, err = s.getApp(ctx, id)
		if err != nil {
			return err
		}
		token, err := s.getToken(ctx, id)
		if err != nil {
			return err
		}
		if token.Stage != StageSolicitor || token.HolderID != uuid.UUID(solicitorID) {
			return dErrors.Newf(dErrors.CodeConflict, "request is not held by this solicitor (stage %s)", token.Stage)
		}
		if err := s.apps.SetAssignedSolicitor(ctx, id, solicitorID); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "application already has an assigned solicitor")
			}
			return fmt.Errorf("set assigned solicitor: %w", err)
		}
		if err := s.store.Complete(ctx, id, uuid.UUID(solicitorID)); err != nil {
			return s.translateMove(ctx, id, err)
		}
		return s.record(ctx, id, domain.RoleSolicitor, uuid.UUID(solicitorID), audit.ActionSolicitorCaseApproved, nil)
	})
	s.metrics.ObservePipelineMove("approve", err)
	if err != nil {
		return err
	}

	solicitorName := solicitorID.String()
	if sol, err := s.directory.GetSolicitor(ctx, solicitorID); err == nil {
		solicitorName = sol.FullName()
	}
	s.notify(ctx, uuid.UUID(app.Student), notification.TypeApplication,
		fmt.Sprintf("A solicitor has been assigned to your visa case: %s. They will reach out shortly.", solicitorName))
	if student, err := s.directory.GetStudent(ctx, app.Student); err == nil {
		s.send(ctx, email.SolicitorWillContact(student.Email, student.FullName(), solicitorName))
	}
	return nil
}

// Status probes the pipeline for the owning student, in fixed order:
// assigned solicitor, then each stage, then not requested.
func (s *Service) Status(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) (*StatusResult, error) {
	student, err := s.directory.GetStudent(ctx, studentID)
	if err != nil {
		return nil, translateDirectory(err, "student")
	}
	if !student.SolicitorService {
		return &StatusResult{State: StateNotEnrolled}, nil
	}

	app, err := s.getApp(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Student != studentID {
		return nil, dErrors.New(dErrors.CodeForbidden, "application belongs to another student")
	}
	if app.AssignedSolicitor != nil {
		return &StatusResult{State: StateAssigned, IsAssigned: true, Solicitor: app.AssignedSolicitor}, nil
	}

	token, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &StatusResult{State: StateNotRequested}, nil
		}
		return nil, fmt.Errorf("get pipeline token: %w", err)
	}
	switch token.Stage {
	case StageAgency:
		return &StatusResult{State: StateProcessingAgency}, nil
	case StageAssociate:
		return &StatusResult{State: StateProcessingAssociate}, nil
	case StageSolicitor:
		return &StatusResult{State: StateProcessingSolicitor}, nil
	default:
		return &StatusResult{State: StateNotRequested}, nil
	}
}

// ListPool returns the tokens an agency, associate or solicitor currently
// holds at the given stage.
func (s *Service) ListPool(ctx context.Context, stage Stage, holder uuid.UUID) ([]*Token, error) {
	out, err := s.store.ListByHolder(ctx, stage, holder)
	if err != nil {
		return nil, fmt.Errorf("list pipeline pool: %w", err)
	}
	return out, nil
}

func (s *Service) getApp(ctx context.Context, id domain.ApplicationID) (*application.Application, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *Service) getToken(ctx context.Context, id domain.ApplicationID) (*Token, error) {
	token, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no solicitor request filed for this application")
		}
		return nil, fmt.Errorf("get pipeline token: %w", err)
	}
	return token, nil
}

// translateMove maps a failed conditional move onto a caller-facing error
// that names where the token actually is.
func (s *Service) translateMove(ctx context.Context, id domain.ApplicationID, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "no solicitor request filed for this application")
	case errors.Is(err, sentinel.ErrConflict):
		if token, getErr := s.store.Get(ctx, id); getErr == nil {
			return dErrors.Newf(dErrors.CodeConflict, "request is at stage %s and cannot move from here", token.Stage)
		}
		return dErrors.New(dErrors.CodeConflict, "request moved concurrently")
	default:
		return err
	}
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, typ notification.Type, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Dispatch(ctx, userID, typ, message); err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed", "user_id", userID.String(), "error", err)
	}
}

func (s *Service) send(ctx context.Context, msg email.Message) {
	if s.mailer == nil {
		return
	}
	err := s.mailer.Send(ctx, msg)
	s.metrics.ObserveEmail(msg.Template, err)
	if err != nil {
		s.logger.WarnContext(ctx, "email send failed", "template", msg.Template, "to", msg.To, "error", err)
	}
}

func (s *Service) record(ctx context.Context, id domain.ApplicationID, role domain.Role, actorID uuid.UUID, action string, detail map[string]string) error {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Record(ctx, audit.Event{
		ApplicationID: id,
		ActorRole:     role.String(),
		ActorID:       actorID,
		Action:        action,
		Detail:        detail,
	})
}

func translateDirectory(err error, kind string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", kind)
	}
	return fmt.Errorf("resolve %s: %w", kind, err)
}
