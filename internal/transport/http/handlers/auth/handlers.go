package authhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crewplan/internal/domain/audit"
	"crewplan/internal/domain/auth"
	"crewplan/internal/transport/http/api"
	"crewplan/internal/transport/http/middleware"
	"crewplan/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Audit   audit.Recorder
}

func NewHandler(service *auth.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/register", h.handleRegister)
}

// RegisterRoutes mounts the endpoints for authenticated callers. /me is the
// only one a pending account may use.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/", h.handleListUsers)
		r.Put("/{userID}", h.handleUpdateUser)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload auth.LoginRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload auth.RegisterRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}

	user, err := h.Service.Register(r.Context(), payload)
	if errors.Is(err, auth.ErrEmailTaken) {
		api.Fail(w, http.StatusConflict, "email_taken", "email is already registered", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_failed", "registration failed", requestID)
		return
	}
	shared.Audit(r, h.Audit, "auth.register", audit.EntityUser, user.ID, nil, user)
	api.Created(w, user, requestID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	user, err := h.Service.Me(r.Context(), id.UserID)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	api.Success(w, map[string]any{
		"user":     user,
		"identity": id,
	}, requestID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", requestID)
		return
	}
	api.Success(w, users, requestID)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userID")
	var payload auth.UpdateUserRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}

	before, err := h.Service.Me(r.Context(), userID)
	if errors.Is(err, auth.ErrUserNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to update user", requestID)
		return
	}

	user, err := h.Service.UpdateUser(r.Context(), userID, payload)
	switch {
	case errors.Is(err, auth.ErrWorkerRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "workerId", Reason: "is required for installers"}})
		return
	case errors.Is(err, auth.ErrInvalidRole):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "role", Reason: "must be one of: admin, installer, pending"}})
		return
	case errors.Is(err, auth.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to update user", requestID)
		return
	}
	shared.Audit(r, h.Audit, "auth.user.update", audit.EntityUser, userID, before, user)
	api.Success(w, user, requestID)
}
