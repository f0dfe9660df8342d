// Package handler exposes the student-facing directory endpoints: the profile
// read and the solicitor-service purchase confirmation.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"connect2uni/internal/directory"
	"connect2uni/internal/platform/middleware"
	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/httputil"
)

// Service defines the directory operations the handler needs.
type Service interface {
	EnableSolicitorService(ctx context.Context, studentID domain.StudentID) error
	Profile(ctx context.Context, studentID domain.StudentID) (*directory.Student, error)
}

type profileResponse struct {
	ID               string `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	SolicitorService bool   `json:"solicitor_service"`
}

// Handler wires directory endpoints to the directory service.
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
	r.Get("/profile", h.HandleProfile)
	r.Post("/solicitor-service/purchase", h.HandlePurchase)
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	student, err := h.service.Profile(ctx, domain.StudentID(actor.ID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profileResponse{
		ID:               student.ID.String(),
		FirstName:        student.FirstName,
		LastName:         student.LastName,
		Email:            student.Email,
		SolicitorService: student.SolicitorService,
	})
}

func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	if err := h.service.EnableSolicitorService(ctx, domain.StudentID(actor.ID)); err != nil {
		h.logger.WarnContext(ctx, "solicitor service purchase failed",
			"request_id", middleware.GetRequestID(ctx),
			"student_id", actor.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
