// Package handler exposes the solicitor routing pipeline over HTTP. Each role
// gets its own route set: students file and probe, the agency routes to
// associates, associates route to their solicitors, solicitors close cases.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"connect2uni/internal/pipeline"
	"connect2uni/internal/platform/middleware"
	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/pipeline-mocks.go -package=mocks Service

// Service defines the pipeline operations the handler needs.
type Service interface {
	FileRequest(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) error
	Status(ctx context.Context, id domain.ApplicationID, studentID domain.StudentID) (*pipeline.StatusResult, error)
	AssignToAssociate(ctx context.Context, id domain.ApplicationID, associateID domain.AssociateID, agencyID domain.AgencyID) error
	AssignToSolicitor(ctx context.Context, id domain.ApplicationID, solicitorID domain.SolicitorID, associateID domain.AssociateID) error
	RejectByAssociate(ctx context.Context, id domain.ApplicationID, associateID domain.AssociateID) error
	Approve(ctx context.Context, id domain.ApplicationID, solicitorID domain.SolicitorID) error
	ListPool(ctx context.Context, stage pipeline.Stage, holder uuid.UUID) ([]*pipeline.Token, error)
}

type assignAssociateRequest struct {
	AssociateID string `json:"associate_id"`
}

type assignSolicitorRequest struct {
	SolicitorID string `json:"solicitor_id"`
}

type tokenResponse struct {
	ApplicationID string `json:"application_id"`
	Stage         string `json:"stage"`
}

// Handler wires pipeline endpoints to the pipeline service.
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
	r.Post("/solicitor-requests/{applicationID}", h.HandleFileRequest)
	r.Get("/solicitor-requests/{applicationID}/status", h.HandleStatus)
}

// RegisterAgency mounts the agency-facing routes.
func (h *Handler) RegisterAgency(r chi.Router) {
	r.Get("/solicitor-requests", h.HandleAgencyPool)
	r.Post("/solicitor-requests/{applicationID}/assign", h.HandleAssignToAssociate)
}

// RegisterAssociate mounts the associate-facing routes.
func (h *Handler) RegisterAssociate(r chi.Router) {
	r.Get("/solicitor-requests", h.HandleAssociatePool)
	r.Post("/solicitor-requests/{applicationID}/assign", h.HandleAssignToSolicitor)
	r.Post("/solicitor-requests/{applicationID}/reject", h.HandleRejectByAssociate)
}

// RegisterSolicitor mounts the solicitor-facing routes.
func (h *Handler) RegisterSolicitor(r chi.Router) {
	r.Get("/solicitor-requests", h.HandleSolicitorPool)
	r.Post("/solicitor-requests/{applicationID}/approve", h.HandleApprove)
}

func (h *Handler) HandleFileRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.FileRequest(ctx, id, domain.StudentID(actor.ID)); err != nil {
		h.logger.WarnContext(ctx, "file solicitor request failed",
			"request_id", middleware.GetRequestID(ctx),
			"application_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	status, err := h.service.Status(ctx, id, domain.StudentID(actor.ID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleAgencyPool(w http.ResponseWriter, r *http.Request) {
	h.writePool(w, r, pipeline.StageAgency)
}

func (h *Handler) HandleAssociatePool(w http.ResponseWriter, r *http.Request) {
	h.writePool(w, r, pipeline.StageAssociate)
}

func (h *Handler) HandleSolicitorPool(w http.ResponseWriter, r *http.Request) {
	h.writePool(w, r, pipeline.StageSolicitor)
}

func (h *Handler) HandleAssignToAssociate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[assignAssociateRequest](w, r)
	if !ok {
		return
	}
	associateID, err := domain.ParseAssociateID(req.AssociateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.AssignToAssociate(ctx, id, associateID, domain.AgencyID(actor.ID)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAssignToSolicitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[assignSolicitorRequest](w, r)
	if !ok {
		return
	}
	solicitorID, err := domain.ParseSolicitorID(req.SolicitorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.AssignToSolicitor(ctx, id, solicitorID, domain.AssociateID(actor.ID)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRejectByAssociate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.RejectByAssociate(ctx, id, domain.AssociateID(actor.ID)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Approve(ctx, id, domain.SolicitorID(actor.ID)); err != nil {
		h.logger.WarnContext(ctx, "approve solicitor case failed",
			"request_id", middleware.GetRequestID(ctx),
			"application_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writePool(w http.ResponseWriter, r *http.Request, stage pipeline.Stage) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	tokens, err := h.service.ListPool(ctx, stage, actor.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]tokenResponse, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, tokenResponse{
			ApplicationID: token.ApplicationID.String(),
			Stage:         string(token.Stage),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (domain.ApplicationID, bool) {
	id, err := domain.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.ApplicationID(uuid.Nil), false
	}
	return id, true
}
