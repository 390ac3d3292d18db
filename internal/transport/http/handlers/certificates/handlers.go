package certificateshandler

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"crewplan/internal/domain/audit"
	"crewplan/internal/domain/auth"
	"crewplan/internal/domain/certificates"
	"crewplan/internal/platform/metrics"
	"crewplan/internal/platform/storage"
	"crewplan/internal/transport/http/api"
	"crewplan/internal/transport/http/middleware"
	"crewplan/internal/transport/http/shared"
)

const uploadMemory = 1 << 20

type Handler struct {
	Service *certificates.Service
	Audit   audit.Recorder
	Metrics *metrics.Collector
}

func NewHandler(service *certificates.Service, recorder audit.Recorder, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Audit: recorder, Metrics: collector}
}

type batchRequest struct {
	Ops []certificates.Op `json:"ops"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleInstaller))
		r.Get("/workers/{workerID}/certificates", h.handleList)
		r.Post("/workers/{workerID}/certificates/batch", h.handleBatch)
		r.Post("/uploads", h.handleUpload)
		r.Delete("/uploads", h.handleDiscard)
		r.Get("/files", h.handleDownload)
	})
}

func filePrefix(workerID string) string {
	return "certificates/" + workerID + "/"
}

// workerOfPath returns the worker a stored certificate file belongs to.
func workerOfPath(filePath string) (string, bool) {
	rest, ok := strings.CutPrefix(path.Clean(filePath), "certificates/")
	if !ok {
		return "", false
	}
	workerID, _, ok := strings.Cut(rest, "/")
	return workerID, ok && workerID != ""
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case certificates.IsValidation(err):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "ops", Reason: err.Error()}})
	case errors.Is(err, certificates.ErrCertificateNotFound), errors.Is(err, storage.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "not found", requestID)
	case errors.Is(err, certificates.ErrFileInUse):
		api.Fail(w, http.StatusConflict, "file_in_use", err.Error(), requestID)
	case errors.Is(err, storage.ErrInvalidKey):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "path", Reason: "is not a valid file path"}})
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")
	if id, _ := middleware.GetIdentity(r.Context()); !id.CanAccessWorker(workerID) {
		forbidden(w, r)
		return
	}
	items, err := h.Service.List(r.Context(), workerID)
	if err != nil {
		writeError(w, r, err, "certificate_list_failed", "failed to list certificates")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	workerID := chi.URLParam(r, "workerID")
	if id, _ := middleware.GetIdentity(r.Context()); !id.CanAccessWorker(workerID) {
		forbidden(w, r)
		return
	}
	var payload batchRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	for i := range payload.Ops {
		filePath := payload.Ops[i].Certificate.FilePath
		if filePath != "" && !strings.HasPrefix(filePath, filePrefix(workerID)) {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "ops.certificate.filePath", Reason: "must be a file uploaded for this worker"}})
			return
		}
		payload.Ops[i].Certificate.WorkerID = workerID
	}

	before, err := h.Service.List(r.Context(), workerID)
	if err != nil {
		writeError(w, r, err, "certificate_batch_failed", "failed to save certificates")
		return
	}
	saved, err := h.Service.CommitBatch(r.Context(), workerID, payload.Ops)
	if err != nil {
		writeError(w, r, err, "certificate_batch_failed", "failed to save certificates")
		return
	}
	h.Metrics.Inc(metrics.CertificateBatches)
	shared.Audit(r, h.Audit, "certificates.batch", audit.EntityCertificate, workerID, before, saved)
	api.Success(w, saved, requestID)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, _ := middleware.GetIdentity(r.Context())
	workerID := r.URL.Query().Get("workerId")
	if workerID == "" && !id.IsAdmin() {
		workerID = id.WorkerID
	}
	if workerID == "" {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "workerId", Reason: "is required"}})
		return
	}
	if !id.CanAccessWorker(workerID) {
		forbidden(w, r)
		return
	}

	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "file too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "expected multipart form data", requestID)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "file", Reason: "is required"}})
		return
	}
	defer file.Close()

	filePath, err := h.Service.Upload(r.Context(), workerID, header.Filename, file)
	if err != nil {
		writeError(w, r, err, "upload_failed", "failed to store file")
		return
	}
	shared.Audit(r, h.Audit, "certificates.upload", audit.EntityCertificate, workerID, nil, map[string]string{"path": filePath})
	api.Created(w, map[string]string{"path": filePath}, requestID)
}

func (h *Handler) authorizePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	filePath := r.URL.Query().Get("path")
	workerID, ok := workerOfPath(filePath)
	if !ok {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "path", Reason: "is not a valid file path"}})
		return "", false
	}
	if id, _ := middleware.GetIdentity(r.Context()); !id.CanAccessWorker(workerID) {
		forbidden(w, r)
		return "", false
	}
	return filePath, true
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	filePath, ok := h.authorizePath(w, r)
	if !ok {
		return
	}
	if err := h.Service.DiscardUpload(r.Context(), filePath); err != nil {
		writeError(w, r, err, "discard_failed", "failed to discard file")
		return
	}
	api.Success(w, map[string]string{"path": filePath}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	filePath, ok := h.authorizePath(w, r)
	if !ok {
		return
	}
	file, err := h.Service.Open(r.Context(), filePath)
	if err != nil {
		writeError(w, r, err, "download_failed", "failed to open file")
		return
	}
	defer file.Close()
	api.Attachment(w, api.ContentTypeFor(filePath), path.Base(filePath), file)
}
