package corehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"crewplan/internal/domain/audit"
	"crewplan/internal/domain/auth"
	"crewplan/internal/domain/core"
	"crewplan/internal/transport/http/api"
	"crewplan/internal/transport/http/middleware"
	"crewplan/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Audit   audit.Recorder
}

func NewHandler(service *core.Service, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	adminOnly := middleware.RequireRole(auth.RoleAdmin)
	anyActive := middleware.RequireRole(auth.RoleAdmin, auth.RoleInstaller)

	r.Route("/projects", func(r chi.Router) {
		r.With(anyActive).Get("/", h.handleListProjects)
		r.With(adminOnly).Post("/", h.handleCreateProject)
		r.Route("/{projectID}", func(r chi.Router) {
			r.With(anyActive).Get("/", h.handleGetProject)
			r.With(adminOnly).Put("/", h.handleUpdateProject)
			r.With(adminOnly).Delete("/", h.handleDeleteProject)
		})
	})
	r.Route("/workers", func(r chi.Router) {
		r.With(adminOnly).Get("/", h.handleListWorkers)
		r.With(adminOnly).Post("/", h.handleCreateWorker)
		r.Route("/{workerID}", func(r chi.Router) {
			r.With(anyActive).Get("/", h.handleGetWorker)
			r.With(adminOnly).Put("/", h.handleUpdateWorker)
			r.With(adminOnly).Delete("/", h.handleDeleteWorker)
		})
	})
	r.Route("/vehicles", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.handleListVehicles)
		r.Post("/", h.handleCreateVehicle)
		r.Get("/{vehicleID}", h.handleGetVehicle)
		r.Put("/{vehicleID}", h.handleUpdateVehicle)
		r.Delete("/{vehicleID}", h.handleDeleteVehicle)
	})
	r.Route("/assignments", func(r chi.Router) {
		r.With(anyActive, middleware.RequireWorker).Get("/", h.handleListAssignments)
		r.With(adminOnly).Post("/", h.handleCreateAssignment)
		r.With(adminOnly).Put("/{assignmentID}", h.handleUpdateAssignment)
		r.With(adminOnly).Delete("/{assignmentID}", h.handleDeleteAssignment)
	})
}

// writeError maps domain and database errors to responses.
func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "project not found", requestID)
	case errors.Is(err, core.ErrWorkerNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", requestID)
	case errors.Is(err, core.ErrVehicleNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "vehicle not found", requestID)
	case errors.Is(err, core.ErrAssignmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", requestID)
	case errors.Is(err, core.ErrDateOrder):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "endDate", Reason: "must be on or after startDate"}})
	case errors.Is(err, core.ErrAssignmentTarget):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "workerId", Reason: "workerId or vehicleId is required"}})
	case errors.Is(err, core.ErrTeamLeaderRequired), errors.Is(err, core.ErrTeamLeaderInvalid), errors.Is(err, core.ErrTeamLeaderNotAllowed):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "teamLeaderId", Reason: err.Error()}})
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		api.Fail(w, http.StatusConflict, "already_exists", "a record with the same unique value already exists", requestID)
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		api.Fail(w, http.StatusConflict, "in_use", "record is still referenced", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListProjects(r.Context())
	if err != nil {
		writeError(w, r, err, "project_list_failed", "failed to list projects")
		return
	}
	api.Success(w, projects, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.Service.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, r, err, "project_get_failed", "failed to load project")
		return
	}
	api.Success(w, project, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var payload core.Project
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	id, err := h.Service.CreateProject(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "project_create_failed", "failed to create project")
		return
	}
	shared.Audit(r, h.Audit, "core.project.create", audit.EntityProject, id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	existing, err := h.Service.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err, "project_update_failed", "failed to update project")
		return
	}
	var payload core.Project
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.ID = projectID
	if err := h.Service.UpdateProject(r.Context(), payload); err != nil {
		writeError(w, r, err, "project_update_failed", "failed to update project")
		return
	}
	shared.Audit(r, h.Audit, "core.project.update", audit.EntityProject, projectID, existing, payload)
	api.Success(w, map[string]string{"id": projectID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if err := h.Service.DeleteProject(r.Context(), projectID); err != nil {
		writeError(w, r, err, "project_delete_failed", "failed to delete project")
		return
	}
	shared.Audit(r, h.Audit, "core.project.delete", audit.EntityProject, projectID, nil, nil)
	api.Success(w, map[string]string{"id": projectID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := core.WorkerFilter{
		TeamLeaderID: query.Get("teamLeaderId"),
		WorkerType:   core.WorkerType(query.Get("workerType")),
	}
	workers, err := h.Service.ListWorkers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "worker_list_failed", "failed to list workers")
		return
	}
	api.Success(w, workers, middleware.GetRequestID(r.Context()))
}

// handleGetWorker lets installers read their own record, rates included.
func (h *Handler) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")
	id, _ := middleware.GetIdentity(r.Context())
	if !id.CanAccessWorker(workerID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	worker, err := h.Service.GetWorker(r.Context(), workerID)
	if err != nil {
		writeError(w, r, err, "worker_get_failed", "failed to load worker")
		return
	}
	api.Success(w, worker, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateWorker(w http.ResponseWriter, r *http.Request) {
	var payload core.Worker
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	id, err := h.Service.CreateWorker(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "worker_create_failed", "failed to create worker")
		return
	}
	shared.Audit(r, h.Audit, "core.worker.create", audit.EntityWorker, id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateWorker(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")
	existing, err := h.Service.GetWorker(r.Context(), workerID)
	if err != nil {
		writeError(w, r, err, "worker_update_failed", "failed to update worker")
		return
	}
	var payload core.Worker
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.ID = workerID
	if err := h.Service.UpdateWorker(r.Context(), payload); err != nil {
		writeError(w, r, err, "worker_update_failed", "failed to update worker")
		return
	}
	shared.Audit(r, h.Audit, "core.worker.update", audit.EntityWorker, workerID, existing, payload)
	api.Success(w, map[string]string{"id": workerID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteWorker(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")
	if err := h.Service.DeleteWorker(r.Context(), workerID); err != nil {
		writeError(w, r, err, "worker_delete_failed", "failed to delete worker")
		return
	}
	shared.Audit(r, h.Audit, "core.worker.delete", audit.EntityWorker, workerID, nil, nil)
	api.Success(w, map[string]string{"id": workerID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Service.ListVehicles(r.Context())
	if err != nil {
		writeError(w, r, err, "vehicle_list_failed", "failed to list vehicles")
		return
	}
	api.Success(w, vehicles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.Service.GetVehicle(r.Context(), chi.URLParam(r, "vehicleID"))
	if err != nil {
		writeError(w, r, err, "vehicle_get_failed", "failed to load vehicle")
		return
	}
	api.Success(w, vehicle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var payload core.Vehicle
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	id, err := h.Service.CreateVehicle(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "vehicle_create_failed", "failed to create vehicle")
		return
	}
	shared.Audit(r, h.Audit, "core.vehicle.create", audit.EntityVehicle, id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "vehicleID")
	var payload core.Vehicle
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.ID = vehicleID
	if err := h.Service.UpdateVehicle(r.Context(), payload); err != nil {
		writeError(w, r, err, "vehicle_update_failed", "failed to update vehicle")
		return
	}
	shared.Audit(r, h.Audit, "core.vehicle.update", audit.EntityVehicle, vehicleID, nil, payload)
	api.Success(w, map[string]string{"id": vehicleID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "vehicleID")
	if err := h.Service.DeleteVehicle(r.Context(), vehicleID); err != nil {
		writeError(w, r, err, "vehicle_delete_failed", "failed to delete vehicle")
		return
	}
	shared.Audit(r, h.Audit, "core.vehicle.delete", audit.EntityVehicle, vehicleID, nil, nil)
	api.Success(w, map[string]string{"id": vehicleID}, middleware.GetRequestID(r.Context()))
}

// handleListAssignments returns only the caller's own assignments to installers.
func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := core.AssignmentFilter{
		ProjectID: query.Get("projectId"),
		WorkerID:  query.Get("workerId"),
		VehicleID: query.Get("vehicleId"),
	}
	if id, _ := middleware.GetIdentity(r.Context()); !id.IsAdmin() {
		filter.WorkerID = id.WorkerID
		filter.VehicleID = ""
	}
	assignments, err := h.Service.ListAssignments(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "assignment_list_failed", "failed to list assignments")
		return
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var payload core.Assignment
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	id, err := h.Service.CreateAssignment(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "assignment_create_failed", "failed to create assignment")
		return
	}
	shared.Audit(r, h.Audit, "core.assignment.create", audit.EntityAssignment, id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")
	existing, err := h.Service.GetAssignment(r.Context(), assignmentID)
	if err != nil {
		writeError(w, r, err, "assignment_update_failed", "failed to update assignment")
		return
	}
	var payload core.Assignment
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.ID = assignmentID
	if err := h.Service.UpdateAssignment(r.Context(), payload); err != nil {
		writeError(w, r, err, "assignment_update_failed", "failed to update assignment")
		return
	}
	shared.Audit(r, h.Audit, "core.assignment.update", audit.EntityAssignment, assignmentID, existing, payload)
	api.Success(w, map[string]string{"id": assignmentID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")
	if err := h.Service.DeleteAssignment(r.Context(), assignmentID); err != nil {
		writeError(w, r, err, "assignment_delete_failed", "failed to delete assignment")
		return
	}
	shared.Audit(r, h.Audit, "core.assignment.delete", audit.EntityAssignment, assignmentID, nil, nil)
	api.Success(w, map[string]string{"id": assignmentID}, middleware.GetRequestID(r.Context()))
}
