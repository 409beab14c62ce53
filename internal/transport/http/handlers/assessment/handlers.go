// Package assessment exposes the review workflow over HTTP. Handlers decode
// and authenticate, then delegate every decision to the domain service; the
// mapping from domain errors to status codes lives in writeDomainError.
package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dialogue/internal/domain/assessment"
	"dialogue/internal/domain/audit"
	"dialogue/internal/domain/identity"
	"dialogue/internal/domain/notifications"
	"dialogue/internal/transport/http/api"
	"dialogue/internal/transport/http/middleware"
)

type Handlers struct {
	Service       *assessment.Service
	Audit         *audit.Service
	Notifications *notifications.Service
}

func New(service *assessment.Service, auditSvc *audit.Service, notifySvc *notifications.Service) *Handlers {
	return &Handlers{Service: service, Audit: auditSvc, Notifications: notifySvc}
}

type createRequest struct {
	assessment.EmployeeFields
}

type editRequest struct {
	assessment.EmployeeFields
	Version int64 `json:"version"`
}

type managerEditRequest struct {
	assessment.ManagerFields
	Version int64 `json:"version"`
}

func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	rec, err := h.Service.Create(r.Context(), ident, req.EmployeeFields)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.audit(r, ident, "assessment.create", rec.ID, nil, rec)
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "id")
	var before any
	if prev, err := h.Service.Get(r.Context(), id, ident); err == nil {
		before = prev
	}
	rec, err := h.Service.Edit(r.Context(), id, req.Version, ident, req.EmployeeFields)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.audit(r, ident, "assessment.edit", rec.ID, before, rec)
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	var before any
	if prev, err := h.Service.Get(r.Context(), id, ident); err == nil {
		before = prev
	}
	if err := h.Service.Delete(r.Context(), id, ident); err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.audit(r, ident, "assessment.delete", id, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Finalize(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.audit(r, ident, "assessment.finalize", rec.ID, nil, rec)
	h.notify(r, rec.EmployeeEmail, notifications.TypeAssessmentFinalized,
		"Your self assessment was finalized",
		fmt.Sprintf("%s finalized your self assessment in your review dialogue.", ident.Name))
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleManagerEdit(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req managerEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", middleware.GetRequestID(r.Context()))
		return
	}

	rec, err := h.Service.EditManagerFields(r.Context(), chi.URLParam(r, "id"), req.Version, ident, req.ManagerFields)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.audit(r, ident, "assessment.edit_manager_fields", rec.ID, nil, rec)
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Submit(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.audit(r, ident, "assessment.submit", rec.ID, nil, rec)
	h.notify(r, rec.EmployeeEmail, notifications.TypeAssessmentSubmitted,
		"Your assessment was submitted for approval",
		fmt.Sprintf("%s submitted your assessment to %s for approval.", ident.Name, rec.ProgramManagerName))
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.Approve(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.audit(r, ident, "assessment.approve", rec.ID, nil, rec)
	h.notify(r, rec.EmployeeEmail, notifications.TypeAssessmentApproved,
		"Your assessment was approved",
		fmt.Sprintf("%s approved your assessment. The review cycle is complete.", ident.Name))
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	dashboard, err := h.Service.BuildDashboard(r.Context(), ident)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) HandleQueue(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	records, err := h.Service.Queue(r.Context(), ident)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

// HandleHistory returns the audit trail for one record. Access follows the
// same read rule as the record itself.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.Service.Get(r.Context(), id, ident); err != nil {
		writeDomainError(w, r, err)
		return
	}

	events, err := h.Audit.ListByEntity(r.Context(), "assessment", id, 50)
	if err != nil {
		slog.Error("audit list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) audit(r *http.Request, ident identity.Snapshot, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), ident.Name, ident.Email, action, "assessment", entityID, reqID, r.RemoteAddr, before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handlers) notify(r *http.Request, recipient, ntype, title, body string) {
	if h.Notifications == nil {
		return
	}
	if err := h.Notifications.Notify(r.Context(), recipient, ntype, title, body); err != nil {
		slog.Warn("notification failed", "type", ntype, "err", err)
	}
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (identity.Snapshot, bool) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "sign-in required", middleware.GetRequestID(r.Context()))
	}
	return ident, ok
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())

	var validationErr *assessment.ValidationError
	var permissionErr *assessment.PermissionError
	var transitionErr *assessment.InvalidTransitionError
	var duplicateErr *assessment.DuplicateError

	switch {
	case errors.As(err, &validationErr):
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", validationErr.Error(),
			map[string]any{"fields": validationErr.Issues}, reqID)
	case errors.As(err, &duplicateErr):
		api.FailWithDetails(w, http.StatusConflict, "duplicate_entry", duplicateErr.Error(),
			map[string]string{"existingId": duplicateErr.ExistingID}, reqID)
	case errors.As(err, &permissionErr):
		api.Fail(w, http.StatusForbidden, "forbidden", permissionErr.Error(), reqID)
	case errors.As(err, &transitionErr):
		api.Fail(w, http.StatusConflict, "invalid_transition", transitionErr.Error(), reqID)
	case errors.Is(err, assessment.ErrConflict):
		api.Fail(w, http.StatusConflict, "version_conflict", "the assessment was modified by someone else, reload and retry", reqID)
	case errors.Is(err, assessment.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "assessment not found", reqID)
	default:
		slog.Error("unhandled domain error", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
	}
}

// RegisterRoutes wires the workflow endpoints. Routes are registered flat so
// sibling packages can add their own endpoints under /assessments.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/assessments", h.HandleCreate)
	r.Get("/assessments/dashboard", h.HandleDashboard)
	r.Get("/assessments/queue", h.HandleQueue)
	r.Get("/assessments/{id}", h.HandleGet)
	r.Put("/assessments/{id}", h.HandleEdit)
	r.Delete("/assessments/{id}", h.HandleDelete)
	r.Post("/assessments/{id}/finalize", h.HandleFinalize)
	r.Put("/assessments/{id}/manager", h.HandleManagerEdit)
	r.Post("/assessments/{id}/submit", h.HandleSubmit)
	r.Post("/assessments/{id}/approve", h.HandleApprove)
	r.Get("/assessments/{id}/history", h.HandleHistory)
}
