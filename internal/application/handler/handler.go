// Package handler exposes the application lifecycle over HTTP. Routes are
// split by acting role: students file and manage their own applications, the
// agency forwards and triages its pool, universities decide.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"connect2uni/internal/application"
	"connect2uni/internal/platform/middleware"
	"connect2uni/pkg/domain"
	dErrors "connect2uni/pkg/domain-errors"
	"connect2uni/pkg/platform/httputil"
)

// Service defines the application operations the handler needs.
type Service interface {
	Apply(ctx context.Context, studentID domain.StudentID, req application.ApplyRequest) (*application.Application, error)
	UpdateDocuments(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID, upd application.DocumentsUpdate) error
	GetByID(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) (*application.Application, error)
	ListByStudent(ctx context.Context, studentID domain.StudentID, status *application.Status) ([]*application.Application, error)
	Withdraw(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) error

	SendToUniversity(ctx context.Context, id domain.ApplicationID, agencyID domain.AgencyID) error
	AssignAgent(ctx context.Context, id domain.ApplicationID, agentID domain.AgentID, agencyID domain.AgencyID) error
	RejectByAgency(ctx context.Context, id domain.ApplicationID, agencyID domain.AgencyID, reason string) error
	ListAgencyPool(ctx context.Context, agencyID domain.AgencyID, stage application.StageCategory) ([]*application.Placement, error)

	Accept(ctx context.Context, id domain.ApplicationID, universityID domain.UniversityID, attachmentURL string) error
	RejectByUniversity(ctx context.Context, id domain.ApplicationID, universityID domain.UniversityID, reason string) error
	ListUniversityPool(ctx context.Context, universityID domain.UniversityID, stage application.StageCategory) ([]*application.Placement, error)
}

// Handler wires application endpoints to the application service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterStudent mounts the student-facing routes. The caller applies the
// student-role middleware.
func (h *Handler) RegisterStudent(r chi.Router) {
	r.Post("/applications", h.HandleApply)
	r.Get("/applications", h.HandleList)
	r.Get("/applications/{applicationID}", h.HandleGet)
	r.Patch("/applications/{applicationID}/documents", h.HandleUpdateDocuments)
	r.Post("/applications/{applicationID}/withdraw", h.HandleWithdraw)
}

// RegisterAgency mounts the agency-facing routes.
func (h *Handler) RegisterAgency(r chi.Router) {
	r.Get("/applications", h.HandleAgencyPool)
	r.Post("/applications/{applicationID}/send", h.HandleSendToUniversity)
	r.Post("/applications/{applicationID}/agents", h.HandleAssignAgent)
	r.Post("/applications/{applicationID}/reject", h.HandleRejectByAgency)
}

// RegisterUniversity mounts the university-facing routes.
func (h *Handler) RegisterUniversity(r chi.Router) {
	r.Get("/applications", h.HandleUniversityPool)
	r.Post("/applications/{applicationID}/accept", h.HandleAccept)
	r.Post("/applications/{applicationID}/reject", h.HandleRejectByUniversity)
}

func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	req, ok := httputil.DecodeJSON[applyRequest](w, r)
	if !ok {
		return
	}
	courseID, err := domain.ParseCourseID(req.CourseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.Apply(ctx, domain.StudentID(actor.ID), application.ApplyRequest{
		CourseID:     courseID,
		Grades:       req.Grades,
		FinancialAid: req.FinancialAid,
		Documents:    req.Documents,
		Notes:        req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "apply failed",
			"request_id", middleware.GetRequestID(ctx),
			"student_id", actor.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	var status *application.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := application.Status(raw)
		switch s {
		case application.StatusProcessing, application.StatusAccepted,
			application.StatusRejected, application.StatusWithdrawn:
			status = &s
		default:
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", raw))
			return
		}
	}

	apps, err := h.service.ListByStudent(ctx, domain.StudentID(actor.ID), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponses(apps))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	app, err := h.service.GetByID(ctx, id, domain.StudentID(actor.ID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) HandleUpdateDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[updateDocumentsRequest](w, r)
	if !ok {
		return
	}
	err := h.service.UpdateDocuments(ctx, id, domain.StudentID(actor.ID), application.DocumentsUpdate{
		Grades:       req.Grades,
		FinancialAid: req.FinancialAid,
		Documents:    req.Documents,
		Notes:        req.Notes,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Withdraw(ctx, id, domain.StudentID(actor.ID)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAgencyPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	stage := application.StageAgencyPending
	switch r.URL.Query().Get("stage") {
	case "", "pending":
	case "sent":
		stage = application.StageAgencySent
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "stage must be pending or sent"))
		return
	}

	placements, err := h.service.ListAgencyPool(ctx, domain.AgencyID(actor.ID), stage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPlacementResponses(placements))
}

func (h *Handler) HandleSendToUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.SendToUniversity(ctx, id, domain.AgencyID(actor.ID)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAssignAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[assignAgentRequest](w, r)
	if !ok {
		return
	}
	agentID, err := domain.ParseAgentID(req.AgentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.AssignAgent(ctx, id, agentID, domain.AgencyID(actor.ID)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRejectByAgency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reason, ok := h.decodeReason(w, r)
	if !ok {
		return
	}
	if err := h.service.RejectByAgency(ctx, id, domain.AgencyID(actor.ID), reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleUniversityPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	stage := application.StageUniversityPending
	switch r.URL.Query().Get("stage") {
	case "", "pending":
	case "approved":
		stage = application.StageUniversityApproved
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "stage must be pending or approved"))
		return
	}

	placements, err := h.service.ListUniversityPool(ctx, domain.UniversityID(actor.ID), stage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPlacementResponses(placements))
}

func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[acceptRequest](w, r)
	if !ok {
		return
	}
	if err := h.service.Accept(ctx, id, domain.UniversityID(actor.ID), req.OfferLetterURL); err != nil {
		h.logger.WarnContext(ctx, "accept failed",
			"request_id", middleware.GetRequestID(ctx),
			"application_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRejectByUniversity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reason, ok := h.decodeReason(w, r)
	if !ok {
		return
	}
	if err := h.service.RejectByUniversity(ctx, id, domain.UniversityID(actor.ID), reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (domain.ApplicationID, bool) {
	id, err := domain.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.ApplicationID(uuid.Nil), false
	}
	return id, true
}

func (h *Handler) decodeReason(w http.ResponseWriter, r *http.Request) (string, bool) {
	req, ok := httputil.DecodeJSON[rejectRequest](w, r)
	if !ok {
		return "", false
	}
	if req.Reason == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "reason is required"))
		return "", false
	}
	return req.Reason, true
}
