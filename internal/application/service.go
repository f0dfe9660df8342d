package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"connect2uni/internal/audit"
	"connect2uni/internal/directory"
	"connect2uni/internal/email"
	"connect2uni/internal/notification"
	"connect2uni/internal/platform/metrics"
	"connect2uni/pkg/domain"
	dErrors "connect2uni/pkg/domain-errors"
	"connect2uni/pkg/platform/sentinel"
	strutil "connect2uni/pkg/platform/strings"
	"connect2uni/pkg/platform/tx"
)

//go:generate mockgen -source=service.go -destination=../../mocks/application_ports_mock.go -package=mocks

// Notifier persists a notification and pushes it best-effort.
type Notifier interface {
	Dispatch(ctx context.Context, userID uuid.UUID, typ notification.Type, message string) error
}

// ApplyRequest carries the student-supplied fields of a new application.
type ApplyRequest struct {
	CourseID     domain.CourseID
	Grades       string
	FinancialAid bool
	Documents    []string
	Notes        string
}

// Service drives the application state machine. Durable transitions run
// inside the tx runner keyed by application id; notifications, emails and
// audit events fire after the transaction commits and never fail it.
type Service struct {
	store     Store
	directory directory.Store
	runner    tx.Runner
	notifier  Notifier
	mailer    email.Sender
	recorder  audit.Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics

	maxAccepted int
	now         func() time.Time
}

// NewService constructs the application service. maxAccepted caps how many
// Accepted applications a student may hold at once.
func NewService(
	store Store,
	dir directory.Store,
	runner tx.Runner,
	notifier Notifier,
	mailer email.Sender,
	recorder audit.Recorder,
	logger *slog.Logger,
	m *metrics.Metrics,
	maxAccepted int,
) *Service {
	return &Service{
		store:       store,
		directory:   dir,
		runner:      runner,
		notifier:    notifier,
		mailer:      mailer,
		recorder:    recorder,
		logger:      logger,
		metrics:     m,
		maxAccepted: maxAccepted,
		now:         time.Now,
	}
}

// Apply files a new application for a course through the default agency.
func (s *Service) Apply(ctx context.Context, studentID domain.StudentID, req ApplyRequest) (*Application, error) {
	student, err := s.directory.GetStudent(ctx, studentID)
	if err != nil {
		return nil, translateDirectory(err, "student")
	}
	course, err := s.directory.GetCourse(ctx, req.CourseID)
	if err != nil {
		return nil, translateDirectory(err, "course")
	}
	if course.Status != directory.CourseActive {
		return nil, dErrors.New(dErrors.CodeInvalidState, "course is not open for applications")
	}

	existing, err := s.store.FindByStudentCourse(ctx, studentID, req.CourseID)
	switch {
	case err == nil:
		if existing.Status == StatusRejected {
			return nil, dErrors.New(dErrors.CodeConflict, "application for this course was previously rejected and cannot be re-filed")
		}
		return nil, dErrors.Newf(dErrors.CodeConflict, "application for this course already exists with status %s", existing.Status)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, fmt.Errorf("check existing application: %w", err)
	}

	accepted, err := s.store.CountAcceptedByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("count accepted applications: %w", err)
	}
	if accepted >= s.maxAccepted {
		return nil, dErrors.Newf(dErrors.CodeConflict, "student already holds %d accepted applications", accepted)
	}

	agency, err := s.directory.DefaultAgency(ctx)
	if err != nil {
		return nil, translateDirectory(err, "default agency")
	}

	app := &Application{
		ID:             domain.ApplicationID(uuid.New()),
		Student:        studentID,
		University:     course.University,
		Course:         course.ID,
		Agency:         agency.ID,
		Status:         StatusProcessing,
		Grades:         req.Grades,
		FinancialAid:   req.FinancialAid,
		Documents:      strutil.DedupeAndTrim(req.Documents),
		Notes:          req.Notes,
		SubmissionDate: s.now().UTC(),
	}

	err = s.runner.RunInTx(ctx, app.ID.String(), func(ctx context.Context) error {
		if err := s.store.Insert(ctx, app); err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		if err := s.store.InsertPlacement(ctx, Placement{
			ApplicationID: app.ID,
			Stage:         StageAgencyPending,
			HolderID:      uuid.UUID(agency.ID),
			StudentID:     studentID,
		}); err != nil {
			return fmt.Errorf("insert agency placement: %w", err)
		}
		return s.record(ctx, app.ID, domain.RoleStudent, uuid.UUID(studentID), audit.ActionApplicationFiled, map[string]string{
			"course": course.Name,
		})
	})
	s.metrics.ObserveTransition("apply", err)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, uuid.UUID(studentID), notification.TypeApplication,
		fmt.Sprintf("Your application for %s has been submitted.", course.Name))
	s.notify(ctx, uuid.UUID(agency.ID), notification.TypeApplication,
		fmt.Sprintf("New application from %s for %s.", student.FullName(), course.Name))
	universityName := course.University.String()
	if uni, err := s.directory.GetUniversity(ctx, course.University); err == nil {
		universityName = uni.Name
	}
	s.send(ctx, email.AgencyNewApplication(agency.Email, student.FullName(), course.Name, universityName))

	return app, nil
}

// UpdateDocuments applies an owner-only partial update.
func (s *Service) UpdateDocuments(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID, upd DocumentsUpdate) error {
	app, err := s.getOwned(ctx, id, studentID)
	if err != nil {
		return err
	}
	if upd.Documents != nil {
		upd.Documents = strutil.DedupeAndTrim(upd.Documents)
	}
	if err := s.store.UpdateDocuments(ctx, app.ID, upd); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return fmt.Errorf("update documents: %w", err)
	}
	return nil
}

// SendToUniversity moves an application out of the agency pending pool into
// the target university's pending pool. The status does not change.
func (s *Service) SendToUniversity(ctx context.Context, id domain.ApplicationID, agencyID domain.AgencyID) error {
	var app *Application
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		var err error
		app, err = s.getApp(ctx, id)
		if err != nil {
			return err
		}
		if err := s.requirePlacement(ctx, id, StageAgencyPending, uuid.UUID(agencyID)); err != nil {
			return err
		}
		if err := s.store.MovePlacement(ctx, id, StageAgencyPending, StageAgencySent, uuid.UUID(agencyID)); err != nil {
			return dErrors.Newf(dErrors.CodeConflict, "application is no longer in the agency pending pool (status %s)", app.Status)
		}
		if err := s.store.InsertPlacement(ctx, Placement{
			ApplicationID: id,
			Stage:         StageUniversityPending,
			HolderID:      uuid.UUID(app.University),
			StudentID:     app.Student,
		}); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "application is already with the university")
			}
			return fmt.Errorf("insert university placement: %w", err)
		}
		return s.record(ctx, id, domain.RoleAgency, uuid.UUID(agencyID), audit.ActionApplicationForwarded, nil)
	})
	s.metrics.ObserveTransition("send_to_university", err)
	if err != nil {
		return err
	}

	s.notify(ctx, uuid.UUID(app.Student), notification.TypeApplication,
		"Your application has been forwarded to the university.")
	s.notify(ctx, uuid.UUID(app.University), notification.TypeApplication,
		"A new application is awaiting your review.")
	return nil
}

// AssignAgent appends an agency-owned agent to the application's agent list.
func (s *Service) AssignAgent(ctx context.Context, id domain.ApplicationID, agentID domain.AgentID, agencyID domain.AgencyID) error {
	agent, err := s.directory.GetAgent(ctx, agentID)
	if err != nil {
		return translateDirectory(err, "agent")
	}
	if agent.Agency != agencyID {
		return dErrors.New(dErrors.CodeForbidden, "agent belongs to another agency")
	}

	var app *Application
	err = s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		var err error
		app, err = s.getApp(ctx, id)
		if err != nil {
			return err
		}
		if err := s.requirePlacement(ctx, id, StageAgencyPending, uuid.UUID(agencyID)); err != nil {
			return err
		}
		if err := s.store.AppendAgent(ctx, id, agentID); err != nil {
			return fmt.Errorf("append agent: %w", err)
		}
		if err := s.directory.LinkAgentStudent(ctx, agentID, app.Student); err != nil {
			return fmt.Errorf("link agent to student: %w", err)
		}
		return s.record(ctx, id, domain.RoleAgency, uuid.UUID(agencyID), audit.ActionAgentAssigned, map[string]string{
			"agent": agentID.String(),
		})
	})
	s.metrics.ObserveTransition("assign_agent", err)
	return err
}

// Accept moves a Processing application in the acting university's pending
// pool to Accepted.
func (s *Service) Accept(ctx context.Context, id domain.ApplicationID, universityID domain.UniversityID, attachmentURL string) error {
	start := s.now()
	var app *Application
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		var err error
		app, err = s.getApp(ctx, id)
		if err != nil {
			return err
		}
		if app.Status != StatusProcessing {
			return dErrors.Newf(dErrors.CodeConflict, "application already %s", app.Status)
		}
		if err := s.requirePlacement(ctx, id, StageUniversityPending, uuid.UUID(universityID)); err != nil {
			return err
		}
		if err := s.store.MarkAccepted(ctx, id, attachmentURL); err != nil {
			return translateTransition(err, app.Status)
		}
		if err := s.store.MovePlacement(ctx, id, StageUniversityPending, StageUniversityApproved, uuid.UUID(universityID)); err != nil {
			return fmt.Errorf("move placement to approved: %w", err)
		}
		return s.record(ctx, id, domain.RoleUniversity, uuid.UUID(universityID), audit.ActionApplicationAccepted, nil)
	})
	s.metrics.ObserveTransition("accept", err)
	if err != nil {
		return err
	}
	s.observeDuration("accept", start)

	student, course, university := s.lookupParties(ctx, app)
	s.notify(ctx, uuid.UUID(app.Student), notification.TypeApplication,
		fmt.Sprintf("Congratulations! Your application for %s has been accepted.", course))
	if student != nil {
		s.send(ctx, email.Acceptance(student.Email, student.FullName(), course, university, attachmentURL))
	}
	s.notify(ctx, uuid.UUID(app.Agency), notification.TypeApplication,
		fmt.Sprintf("Application %s has been accepted by %s.", id, university))
	return nil
}

// RejectByUniversity rejects a Processing application and soft-deletes it.
// The soft-delete is specific to this path; the agency path leaves the flag
// untouched.
func (s *Service) RejectByUniversity(ctx context.Context, id domain.ApplicationID, universityID domain.UniversityID, reason string) error {
	var app *Application
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		var err error
		app, err = s.getApp(ctx, id)
		if err != nil {
			return err
		}
		if app.Status != StatusProcessing {
			return dErrors.Newf(dErrors.CodeConflict, "application already %s", app.Status)
		}
		if err := s.requirePlacement(ctx, id, StageUniversityPending, uuid.UUID(universityID)); err != nil {
			return err
		}
		if err := s.store.MarkRejected(ctx, id, reason, true); err != nil {
			return translateTransition(err, app.Status)
		}
		if err := s.store.DeletePlacement(ctx, id, StageUniversityPending); err != nil {
			return fmt.Errorf("remove pending placement: %w", err)
		}
		return s.record(ctx, id, domain.RoleUniversity, uuid.UUID(universityID), audit.ActionApplicationRejected, map[string]string{
			"reason": reason,
		})
	})
	s.metrics.ObserveTransition("reject_by_university", err)
	if err != nil {
		return err
	}

	s.rejectSideEffects(ctx, app, reason)
	return nil
}

// RejectByAgency rejects a Processing application still in the agency pool.
func (s *Service) RejectByAgency(ctx context.Context, id domain.ApplicationID, agencyID domain.AgencyID, reason string) error {
	var app *Application
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		var err error
		app, err = s.getApp(ctx, id)
		if err != nil {
			return err
		}
		if app.Status == StatusRejected {
			return dErrors.New(dErrors.CodeConflict, "application already Rejected")
		}
		if app.Status != StatusProcessing {
			return dErrors.Newf(dErrors.CodeConflict, "application already %s", app.Status)
		}
		if err := s.requirePlacement(ctx, id, StageAgencyPending, uuid.UUID(agencyID)); err != nil {
			return err
		}
		if err := s.store.MarkRejected(ctx, id, reason, false); err != nil {
			return translateTransition(err, app.Status)
		}
		if err := s.store.DeletePlacement(ctx, id, StageAgencyPending); err != nil {
			return fmt.Errorf("remove pending placement: %w", err)
		}
		return s.record(ctx, id, domain.RoleAgency, uuid.UUID(agencyID), audit.ActionApplicationRejected, map[string]string{
			"reason": reason,
		})
	})
	s.metrics.ObserveTransition("reject_by_agency", err)
	if err != nil {
		return err
	}

	s.rejectSideEffects(ctx, app, reason)
	return nil
}

// Withdraw retires a Processing application at the owner's request.
func (s *Service) Withdraw(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) error {
	err := s.runner.RunInTx(ctx, id.String(), func(ctx context.Context) error {
		app, err := s.getApp(ctx, id)
		if err != nil {
			return err
		}
		if app.Student != studentID {
			return dErrors.New(dErrors.CodeForbidden, "application belongs to another student")
		}
		switch app.Status {
		case StatusWithdrawn:
			return dErrors.New(dErrors.CodeConflict, "application already Withdrawn")
		case StatusAccepted, StatusRejected:
			return dErrors.Newf(dErrors.CodeInvalidState, "cannot withdraw an application that is %s", app.Status)
		}
		if err := s.store.MarkWithdrawn(ctx, id); err != nil {
			return translateTransition(err, app.Status)
		}
		// withdrawn applications leave every pool
		for _, stage := range []StageCategory{StageAgencyPending, StageAgencySent, StageUniversityPending, StageUniversityApproved} {
			if err := s.store.DeletePlacement(ctx, id, stage); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("remove placement: %w", err)
			}
		}
		return s.record(ctx, id, domain.RoleStudent, uuid.UUID(studentID), audit.ActionApplicationWithdrawn, nil)
	})
	s.metrics.ObserveTransition("withdraw", err)
	return err
}

// GetByID returns an owned application. Soft-deleted rows are invisible to
// the student.
func (s *Service) GetByID(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) (*Application, error) {
	return s.getOwned(ctx, id, studentID)
}

// ListByStudent returns the student's applications, newest first, optionally
// filtered by status.
func (s *Service) ListByStudent(ctx context.Context, studentID domain.StudentID, status *Status) ([]*Application, error) {
	out, err := s.store.ListByStudent(ctx, studentID, status)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

// ListAgencyPool lists the agency's pending or sent pool.
func (s *Service) ListAgencyPool(ctx context.Context, agencyID domain.AgencyID, stage StageCategory) ([]*Placement, error) {
	if stage.Group() != GroupAgency {
		return nil, dErrors.New(dErrors.CodeValidation, "not an agency pool stage")
	}
	return s.listPool(ctx, stage, uuid.UUID(agencyID))
}

// ListUniversityPool lists the university's pending or approved pool.
func (s *Service) ListUniversityPool(ctx context.Context, universityID domain.UniversityID, stage StageCategory) ([]*Placement, error) {
	if stage.Group() != GroupUniversity {
		return nil, dErrors.New(dErrors.CodeValidation, "not a university pool stage")
	}
	return s.listPool(ctx, stage, uuid.UUID(universityID))
}

func (s *Service) listPool(ctx context.Context, stage StageCategory, holder uuid.UUID) ([]*Placement, error) {
	out, err := s.store.ListPlacements(ctx, stage, holder)
	if err != nil {
		return nil, fmt.Errorf("list pool: %w", err)
	}
	return out, nil
}

func (s *Service) getApp(ctx context.Context, id domain.ApplicationID) (*Application, error) {
	app, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *Service) getOwned(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) (*Application, error) {
	app, err := s.getApp(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Student != studentID {
		return nil, dErrors.New(dErrors.CodeForbidden, "application belongs to another student")
	}
	if app.IsDeleted {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return app, nil
}

// requirePlacement asserts the application currently sits at stage under the
// given holder. The follow-up conditional write re-checks, so a concurrent
// move still loses cleanly.
func (s *Service) requirePlacement(ctx context.Context, id domain.ApplicationID, stage StageCategory, holder uuid.UUID) error {
	p, err := s.store.GetPlacement(ctx, id, stage.Group())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeInvalidState, "application is not in the %s pool", stage)
		}
		return fmt.Errorf("get placement: %w", err)
	}
	if p.Stage != stage {
		return dErrors.Newf(dErrors.CodeInvalidState, "application is in the %s pool, not %s", p.Stage, stage)
	}
	if p.HolderID != holder {
		return dErrors.New(dErrors.CodeForbidden, "application is held by another party")
	}
	return nil
}

func (s *Service) rejectSideEffects(ctx context.Context, app *Application, reason string) {
	student, course, university := s.lookupParties(ctx, app)
	s.notify(ctx, uuid.UUID(app.Student), notification.TypeApplication,
		fmt.Sprintf("Your application for %s was rejected: %s", course, reason))
	if student != nil {
		s.send(ctx, email.Rejection(student.Email, student.FullName(), course, university, reason))
	}
	s.notify(ctx, uuid.UUID(app.Agency), notification.TypeApplication,
		fmt.Sprintf("Application %s was rejected.", app.ID))
}

// lookupParties resolves display names for side-effect messages. Failures
// degrade to ids; they never block the transition that already committed.
func (s *Service) lookupParties(ctx context.Context, app *Application) (*directory.Student, string, string) {
	courseName := app.Course.String()
	if course, err := s.directory.GetCourse(ctx, app.Course); err == nil {
		courseName = course.Name
	}
	universityName := app.University.String()
	if uni, err := s.directory.GetUniversity(ctx, app.University); err == nil {
		universityName = uni.Name
	}
	student, err := s.directory.GetStudent(ctx, app.Student)
	if err != nil {
		s.logger.WarnContext(ctx, "student lookup for side effects failed",
			"application_id", app.ID.String(), "error", err)
		return nil, courseName, universityName
	}
	return student, courseName, universityName
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

func (s *Service) observeDuration(operation string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.TransitionDuration.WithLabelValues(operation).Observe(s.now().Sub(start).Seconds())
}

func translateDirectory(err error, kind string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", kind)
	}
	return fmt.Errorf("resolve %s: %w", kind, err)
}

// translateTransition maps a failed conditional write onto the caller-facing
// error, naming the status read at guard time.
func translateTransition(err error, current Status) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrConflict):
		return dErrors.Newf(dErrors.CodeConflict, "application already %s", current)
	default:
		return err
	}
}
