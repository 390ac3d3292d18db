package shared

import (
	"log/slog"
	"net/http"

	"crewplan/internal/domain/audit"
	"crewplan/internal/requestctx"
)

// Audit records a mutation on behalf of the request's caller. Failures are
// logged and never fail the request.
func Audit(r *http.Request, recorder audit.Recorder, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	entry := audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(r.Context()),
		IP:         ClientIP(r),
		Before:     before,
		After:      after,
	}
	if id, ok := requestctx.GetIdentity(r.Context()); ok {
		entry.ActorID = id.UserID
		entry.ActingAs = id.ActingAs
	}
	if err := recorder.Record(r.Context(), entry); err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
