package invoicinghandler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crewplan/internal/domain/audit"
	"crewplan/internal/domain/auth"
	"crewplan/internal/domain/core"
	"crewplan/internal/domain/invoicing"
	"crewplan/internal/platform/metrics"
	"crewplan/internal/transport/http/api"
	"crewplan/internal/transport/http/middleware"
	"crewplan/internal/transport/http/shared"
)

const endpointCreate = "invoices.create"

type Handler struct {
	Service     *invoicing.Service
	Audit       audit.Recorder
	Metrics     *metrics.Collector
	Idempotency *middleware.IdempotencyStore
}

func NewHandler(service *invoicing.Service, recorder audit.Recorder, collector *metrics.Collector, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{Service: service, Audit: recorder, Metrics: collector, Idempotency: idem}
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	anyActive := middleware.RequireRole(auth.RoleAdmin, auth.RoleInstaller)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	r.Route("/invoices", func(r chi.Router) {
		r.Use(anyActive, middleware.RequireWorker)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/preview", h.handlePreview)
		r.Route("/{invoiceID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Get("/pdf", h.handlePDF)
			r.Post("/submit", h.handleSubmit)
			r.With(adminOnly).Post("/approve", h.transitionHandler(invoicing.StatusApproved, "invoicing.approve"))
			r.With(adminOnly).Post("/pay", h.transitionHandler(invoicing.StatusPaid, "invoicing.pay"))
			r.With(adminOnly).Post("/reject", h.handleReject)
		})
	})
	r.Route("/settings/transport-rates", func(r chi.Router) {
		r.With(anyActive).Get("/", h.handleGetRates)
		r.With(adminOnly).Put("/", h.handleUpdateRates)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, invoicing.ErrInvoiceNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "invoice not found", requestID)
	case errors.Is(err, core.ErrProjectNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "project not found", requestID)
	case errors.Is(err, core.ErrWorkerNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", requestID)
	case errors.Is(err, invoicing.ErrNotOwner):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, invoicing.ErrSubcontractorCannotInvoice):
		api.Fail(w, http.StatusForbidden, "subcontractor_cannot_invoice", err.Error(), requestID)
	case errors.Is(err, invoicing.ErrOtherCostsComment):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "otherCostsComment", Reason: "is required when otherCosts is set"}})
	case errors.Is(err, invoicing.ErrOtherCostsNegative):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "otherCosts", Reason: "must be at least 0"}})
	case errors.Is(err, invoicing.ErrRejectionReason):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "reason", Reason: "is required"}})
	case errors.Is(err, invoicing.ErrNothingToInvoice):
		api.Fail(w, http.StatusUnprocessableEntity, "nothing_to_invoice", err.Error(), requestID)
	case errors.Is(err, invoicing.ErrInvalidTransition), errors.Is(err, invoicing.ErrNotDraft):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

// actingWorker is the worker an invoice is derived for: the caller's own
// record, or the impersonated one.
func actingWorker(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, _ := middleware.GetIdentity(r.Context())
	if id.WorkerID == "" {
		api.Fail(w, http.StatusBadRequest, "worker_required", "account is not linked to a worker", middleware.GetRequestID(r.Context()))
		return id, false
	}
	return id, true
}

func (h *Handler) loadOwned(r *http.Request) (invoicing.Invoice, error) {
	inv, err := h.Service.Get(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		return invoicing.Invoice{}, err
	}
	id, _ := middleware.GetIdentity(r.Context())
	if !id.CanAccessWorker(inv.WorkerID) {
		return invoicing.Invoice{}, invoicing.ErrNotOwner
	}
	return inv, nil
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := actingWorker(w, r)
	if !ok {
		return
	}
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "projectId", Reason: "is required"}})
		return
	}
	preview, err := h.Service.Preview(r.Context(), id.WorkerID, projectID)
	if err != nil {
		writeError(w, r, err, "invoice_preview_failed", "failed to derive invoice items")
		return
	}
	api.Success(w, preview, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := actingWorker(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	ticket := middleware.NewTicket(r, id.UserID, endpointCreate, []byte(id.WorkerID), body)
	stored, found, err := h.Idempotency.Replay(r.Context(), ticket)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), requestID)
		return
	}
	if err != nil {
		slog.Warn("idempotency lookup failed", "err", err)
	}
	if found {
		api.Created(w, stored, requestID)
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	var payload invoicing.CreateRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}

	inv, err := h.Service.Create(r.Context(), id.WorkerID, id.UserID, payload)
	if err != nil {
		writeError(w, r, err, "invoice_create_failed", "failed to create invoice")
		return
	}
	h.Metrics.Inc(metrics.InvoicesCreated)
	shared.Audit(r, h.Audit, "invoicing.create", audit.EntityInvoice, inv.ID, nil, inv)

	if err := h.Idempotency.Remember(r.Context(), ticket, inv); err != nil {
		slog.Warn("idempotency save failed", "err", err)
	}
	api.Created(w, inv, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := invoicing.Filter{
		ProjectID: query.Get("projectId"),
		WorkerID:  query.Get("workerId"),
		Status:    invoicing.Status(query.Get("status")),
	}
	if id, _ := middleware.GetIdentity(r.Context()); !id.IsAdmin() {
		filter.WorkerID = id.WorkerID
	}
	invoices, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "invoice_list_failed", "failed to list invoices")
		return
	}
	api.Success(w, invoices, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	inv, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, err, "invoice_get_failed", "failed to load invoice")
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	inv, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, err, "invoice_delete_failed", "failed to delete invoice")
		return
	}
	if err := h.Service.Delete(r.Context(), inv.ID); err != nil {
		writeError(w, r, err, "invoice_delete_failed", "failed to delete invoice")
		return
	}
	shared.Audit(r, h.Audit, "invoicing.delete", audit.EntityInvoice, inv.ID, inv, nil)
	api.Success(w, map[string]string{"id": inv.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	inv, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, err, "invoice_submit_failed", "failed to submit invoice")
		return
	}
	updated, err := h.Service.Transition(r.Context(), inv.ID, invoicing.StatusPendingApproval, "")
	if err != nil {
		writeError(w, r, err, "invoice_submit_failed", "failed to submit invoice")
		return
	}
	shared.Audit(r, h.Audit, "invoicing.submit", audit.EntityInvoice, inv.ID, inv, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) transitionHandler(to invoicing.Status, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID := chi.URLParam(r, "invoiceID")
		updated, err := h.Service.Transition(r.Context(), invoiceID, to, "")
		if err != nil {
			writeError(w, r, err, "invoice_transition_failed", "failed to change invoice status")
			return
		}
		shared.Audit(r, h.Audit, action, audit.EntityInvoice, invoiceID, nil, updated)
		api.Success(w, updated, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	invoiceID := chi.URLParam(r, "invoiceID")
	var payload rejectRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	updated, err := h.Service.Transition(r.Context(), invoiceID, invoicing.StatusRejected, payload.Reason)
	if err != nil {
		writeError(w, r, err, "invoice_transition_failed", "failed to change invoice status")
		return
	}
	shared.Audit(r, h.Audit, "invoicing.reject", audit.EntityInvoice, invoiceID, nil, updated)
	api.Success(w, updated, requestID)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.loadOwned(r)
	if err != nil {
		writeError(w, r, err, "invoice_pdf_failed", "failed to load invoice document")
		return
	}
	doc, err := h.Service.OpenPDF(r.Context(), inv)
	if err != nil {
		writeError(w, r, err, "invoice_pdf_failed", "failed to load invoice document")
		return
	}
	defer doc.Close()
	api.Attachment(w, api.ContentTypePDF, inv.InvoiceNumber+".pdf", doc)
}

func (h *Handler) handleGetRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Service.TransportRates(r.Context())
	if err != nil {
		writeError(w, r, err, "transport_rates_failed", "failed to load transport rates")
		return
	}
	api.Success(w, rates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload invoicing.TransportRates
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	before, err := h.Service.TransportRates(r.Context())
	if err != nil {
		writeError(w, r, err, "transport_rates_failed", "failed to load transport rates")
		return
	}
	rates, err := h.Service.UpdateTransportRates(r.Context(), payload)
	if err != nil {
		writeError(w, r, err, "transport_rates_failed", "failed to update transport rates")
		return
	}
	shared.Audit(r, h.Audit, "invoicing.transport_rates.update", audit.EntitySettings, "transport_rates", before, rates)
	api.Success(w, rates, requestID)
}
