// Package handler exposes the notification inbox over HTTP. Every route is
// recipient-scoped: the acting user only ever sees their own notifications.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"connect2uni/internal/notification"
	"connect2uni/internal/platform/middleware"
	dErrors "connect2uni/pkg/domain-errors"
	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/httputil"
)

// Service defines the notification operations the handler needs.
type Service interface {
	List(ctx context.Context, actor domain.Actor) ([]*notification.Notification, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*notification.Notification, error)
	MarkRead(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

// Handler wires notification endpoints to the notification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a notification handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts notification endpoints on the router. The caller applies
// authentication middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Get("/notifications/{notificationID}", h.HandleGet)
	r.Patch("/notifications/{notificationID}/read", h.HandleMarkRead)
	r.Delete("/notifications/{notificationID}", h.HandleDelete)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	items, err := h.service.List(ctx, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "list notifications failed",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", actor.ID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if items == nil {
		items = []*notification.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	notificationID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	n, err := h.service.Get(ctx, actor, notificationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	notificationID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkRead(ctx, actor, notificationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFrom(ctx)

	notificationID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, actor, notificationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "notificationID")
	parsed, err := uuid.Parse(raw)
	if err != nil || parsed == uuid.Nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid notification id"))
		return uuid.Nil, false
	}
	return parsed, true
}
