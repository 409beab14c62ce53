package notifications

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dialogue/internal/domain/notifications"
	"dialogue/internal/transport/http/api"
	"dialogue/internal/transport/http/middleware"
)

type Handlers struct {
	Service *notifications.Service
}

func New(service *notifications.Service) *Handlers {
	return &Handlers{Service: service}
}

func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "sign-in required", reqID)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.Service.List(r.Context(), ident.Email, limit, offset)
	if err != nil {
		slog.Error("notification list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
		return
	}
	api.Success(w, items, reqID)
}

func (h *Handlers) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "sign-in required", reqID)
		return
	}

	if err := h.Service.MarkRead(r.Context(), ident.Email, chi.URLParam(r, "id")); err != nil {
		slog.Error("notification mark read failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "read"}, reqID)
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Post("/notifications/{id}/read", h.HandleMarkRead)
}
