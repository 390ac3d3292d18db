package timesheetshandler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"crewplan/internal/domain/audit"
	"crewplan/internal/domain/auth"
	"crewplan/internal/domain/core"
	"crewplan/internal/domain/timesheets"
	"crewplan/internal/platform/metrics"
	"crewplan/internal/transport/http/api"
	"crewplan/internal/transport/http/middleware"
	"crewplan/internal/transport/http/shared"
)

// Directory resolves display names for the export.
type Directory interface {
	ListWorkers(ctx context.Context, filter core.WorkerFilter) ([]core.Worker, error)
	ListProjects(ctx context.Context) ([]core.Project, error)
}

type Handler struct {
	Service   *timesheets.Service
	Directory Directory
	Audit     audit.Recorder
	Metrics   *metrics.Collector
}

func NewHandler(service *timesheets.Service, directory Directory, recorder audit.Recorder, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Directory: directory, Audit: recorder, Metrics: collector}
}

type entryRequest struct {
	WorkerID         string  `json:"workerId"`
	ProjectID        string  `json:"projectId" validate:"required"`
	Date             string  `json:"date" validate:"required"`
	HoursWorked      float64 `json:"hoursWorked" validate:"gte=0,lte=24"`
	DriverKilometers float64 `json:"driverKilometers" validate:"gte=0"`
	CrewKilometers   float64 `json:"crewKilometers" validate:"gte=0"`
	Notes            string  `json:"notes"`
	Submit           bool    `json:"submit"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheets", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleInstaller), middleware.RequireWorker)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/daily-hours", h.handleDailyHours)
		r.Get("/export.xlsx", h.handleExport)
		r.Route("/{entryID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/submit", h.handleSubmit)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/approve", h.handleApprove)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/reject", h.handleReject)
		})
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, timesheets.ErrEntryNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet entry not found", requestID)
	case errors.Is(err, timesheets.ErrNotOwner):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, timesheets.ErrDailyHoursExceeded):
		api.Fail(w, http.StatusUnprocessableEntity, "daily_hours_exceeded", err.Error(), requestID)
	case errors.Is(err, timesheets.ErrInvalidTransition), errors.Is(err, timesheets.ErrEntryLocked):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, timesheets.ErrInvalidHours):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "hoursWorked", Reason: err.Error()}})
	case errors.Is(err, timesheets.ErrInvalidKilometers):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "driverKilometers", Reason: err.Error()}})
	case errors.Is(err, timesheets.ErrDateRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "date", Reason: err.Error()}})
	case errors.Is(err, timesheets.ErrRejectionReason):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "reason", Reason: err.Error()}})
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

// loadOwned fetches an entry and checks the caller may touch it.
func (h *Handler) loadOwned(r *http.Request) (timesheets.Entry, error) {
	entry, err := h.Service.Get(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		return timesheets.Entry{}, err
	}
	id, _ := middleware.GetIdentity(r.Context())
	if !id.CanAccessWorker(entry.WorkerID) {
		return timesheets.Entry{}, timesheets.ErrNotOwner
	}
	return entry, nil
}

func (h *Handler) filterFromQuery(r *http.Request) (timesheets.Filter, []shared.ValidationIssue) {
	query := r.URL.Query()
	validator := shared.NewValidator()
	filter := timesheets.Filter{
		ProjectID: query.Get("projectId"),
		Status:    timesheets.Status(query.Get("status")),
	}
	if raw := query.Get("workerId"); raw != "" {
		filter.WorkerIDs = strings.Split(raw, ",")
	}
	if raw := query.Get("from"); raw != "" {
		if from, ok := validator.Date("from", raw); ok {
			filter.From = &from
		}
	}
	if raw := query.Get("to"); raw != "" {
		if to, ok := validator.Date("to", raw); ok {
			filter.To = &to
		}
	}
	validator.DateOrder("from", filter.From, "to", filter.To)

	if id, _ := middleware.GetIdentity(r.Context()); !id.IsAdmin() {
		filter.WorkerIDs = []string{id.WorkerID}
	}
	return filter, validator.Issues()
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	filter, issues := h.filterFromQuery(r)
	if len(issues) > 0 {
		shared.FailValidation(w, requestID, issues)
		return
	}
	entries, err := h.Service.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "timesheet_list_failed", "failed to list timesheet entries")
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, err, "timesheet_get_failed", "failed to load timesheet entry")
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeEntry(w http.ResponseWriter, r *http.Request) (entryRequest, timesheets.Entry, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload entryRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return payload, timesheets.Entry{}, false
	}
	date, err := shared.ParseDay(payload.Date)
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "date", Reason: "must be YYYY-MM-DD"}})
		return payload, timesheets.Entry{}, false
	}
	return payload, timesheets.Entry{
		WorkerID:         strings.TrimSpace(payload.WorkerID),
		ProjectID:        payload.ProjectID,
		Date:             date,
		HoursWorked:      payload.HoursWorked,
		DriverKilometers: payload.DriverKilometers,
		CrewKilometers:   payload.CrewKilometers,
		Notes:            strings.TrimSpace(payload.Notes),
	}, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	payload, entry, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}
	id, _ := middleware.GetIdentity(r.Context())
	if !id.IsAdmin() {
		entry.WorkerID = id.WorkerID
	}
	if entry.WorkerID == "" {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "workerId", Reason: "is required"}})
		return
	}

	created, err := h.Service.Create(r.Context(), entry, payload.Submit)
	if errors.Is(err, timesheets.ErrDailyHoursExceeded) {
		h.Metrics.Inc(metrics.DailyHoursRejections)
	}
	if err != nil {
		writeError(w, r, err, "timesheet_create_failed", "failed to create timesheet entry")
		return
	}
	if created.Status == timesheets.StatusSubmitted {
		h.Metrics.Inc(metrics.TimesheetsSubmitted)
	}
	shared.Audit(r, h.Audit, "timesheets.create", audit.EntityTimesheet, created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	existing, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, err, "timesheet_update_failed", "failed to update timesheet entry")
		return
	}
	_, entry, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}
	entry.ID = existing.ID

	updated, err := h.Service.Update(r.Context(), entry)
	if errors.Is(err, timesheets.ErrDailyHoursExceeded) {
		h.Metrics.Inc(metrics.DailyHoursRejections)
	}
	if err != nil {
		writeError(w, r, err, "timesheet_update_failed", "failed to update timesheet entry")
		return
	}
	shared.Audit(r, h.Audit, "timesheets.update", audit.EntityTimesheet, updated.ID, existing, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, err, "timesheet_delete_failed", "failed to delete timesheet entry")
		return
	}
	if err := h.Service.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, r, err, "timesheet_delete_failed", "failed to delete timesheet entry")
		return
	}
	shared.Audit(r, h.Audit, "timesheets.delete", audit.EntityTimesheet, existing.ID, existing, nil)
	api.Success(w, map[string]string{"id": existing.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	existing, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, err, "timesheet_submit_failed", "failed to submit timesheet entry")
		return
	}
	updated, err := h.Service.Submit(r.Context(), existing.ID)
	if err != nil {
		writeError(w, r, err, "timesheet_submit_failed", "failed to submit timesheet entry")
		return
	}
	h.Metrics.Inc(metrics.TimesheetsSubmitted)
	shared.Audit(r, h.Audit, "timesheets.submit", audit.EntityTimesheet, updated.ID, existing, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	updated, err := h.Service.Approve(r.Context(), entryID)
	if err != nil {
		writeError(w, r, err, "timesheet_approve_failed", "failed to approve timesheet entry")
		return
	}
	shared.Audit(r, h.Audit, "timesheets.approve", audit.EntityTimesheet, entryID, nil, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	entryID := chi.URLParam(r, "entryID")
	var payload rejectRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	updated, err := h.Service.Reject(r.Context(), entryID, payload.Reason)
	if err != nil {
		writeError(w, r, err, "timesheet_reject_failed", "failed to reject timesheet entry")
		return
	}
	shared.Audit(r, h.Audit, "timesheets.reject", audit.EntityTimesheet, entryID, nil, updated)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleDailyHours(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	id, _ := middleware.GetIdentity(r.Context())

	workerID := query.Get("workerId")
	if !id.IsAdmin() {
		workerID = id.WorkerID
	}
	validator := shared.NewValidator()
	validator.Required("workerId", workerID, "is required")
	date, _ := validator.Date("date", query.Get("date"))
	if validator.Reject(w, requestID) {
		return
	}

	hours, err := h.Service.DailyHours(r.Context(), workerID, date, query.Get("excludeId"))
	if err != nil {
		writeError(w, r, err, "daily_hours_failed", "failed to compute daily hours")
		return
	}
	api.Success(w, hours, requestID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	filter, issues := h.filterFromQuery(r)
	if len(issues) > 0 {
		shared.FailValidation(w, requestID, issues)
		return
	}
	entries, err := h.Service.ListEntries(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "timesheet_export_failed", "failed to export timesheet entries")
		return
	}
	workerNames, projectNames, err := h.names(r.Context())
	if err != nil {
		writeError(w, r, err, "timesheet_export_failed", "failed to export timesheet entries")
		return
	}

	var buf bytes.Buffer
	if err := timesheets.ExportXLSX(&buf, entries, workerNames, projectNames); err != nil {
		writeError(w, r, err, "timesheet_export_failed", "failed to export timesheet entries")
		return
	}
	filename := "vykazy-" + time.Now().UTC().Format("20060102") + ".xlsx"
	api.Attachment(w, api.ContentTypeXLSX, filename, &buf)
}

func (h *Handler) names(ctx context.Context) (map[string]string, map[string]string, error) {
	workers, err := h.Directory.ListWorkers(ctx, core.WorkerFilter{})
	if err != nil {
		return nil, nil, err
	}
	projects, err := h.Directory.ListProjects(ctx)
	if err != nil {
		return nil, nil, err
	}
	workerNames := make(map[string]string, len(workers))
	for _, worker := range workers {
		workerNames[worker.ID] = worker.FullName()
	}
	projectNames := make(map[string]string, len(projects))
	for _, project := range projects {
		projectNames[project.ID] = project.Name
	}
	return workerNames, projectNames, nil
}
