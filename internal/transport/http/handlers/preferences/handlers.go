package preferenceshandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crewplan/internal/domain/auth"
	"crewplan/internal/domain/preferences"
	"crewplan/internal/transport/http/api"
	"crewplan/internal/transport/http/middleware"
	"crewplan/internal/transport/http/shared"
)

type Handler struct {
	Service *preferences.Service
}

func NewHandler(service *preferences.Service) *Handler {
	return &Handler{Service: service}
}

// Preferences belong to the logged in user, not to an impersonated worker.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/preferences/{key}", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleInstaller))
		r.Get("/", h.handleGet)
		r.Put("/", h.handlePut)
		r.Delete("/", h.handleDelete)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, preferences.ErrPreferenceNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "preference not found", requestID)
	case errors.Is(err, preferences.ErrInvalidKey):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "key", Reason: err.Error()}})
	case errors.Is(err, preferences.ErrInvalidValue):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "value", Reason: err.Error()}})
	case errors.Is(err, preferences.ErrValueTooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())
	pref, err := h.Service.Get(r.Context(), id.UserID, chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err, "preference_get_failed", "failed to load preference")
		return
	}
	api.Success(w, pref, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	body, err := io.ReadAll(io.LimitReader(r.Body, preferences.MaxValueBytes+1))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if len(body) > preferences.MaxValueBytes {
		writeError(w, r, preferences.ErrValueTooLarge, "preference_save_failed", "failed to save preference")
		return
	}
	id, _ := middleware.GetIdentity(r.Context())
	pref, err := h.Service.Put(r.Context(), id.UserID, chi.URLParam(r, "key"), json.RawMessage(body))
	if err != nil {
		writeError(w, r, err, "preference_save_failed", "failed to save preference")
		return
	}
	api.Success(w, pref, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())
	key := chi.URLParam(r, "key")
	if err := h.Service.Delete(r.Context(), id.UserID, key); err != nil {
		writeError(w, r, err, "preference_delete_failed", "failed to delete preference")
		return
	}
	api.Success(w, map[string]string{"key": key}, middleware.GetRequestID(r.Context()))
}
