package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"crewplan/internal/domain/auth"
	"crewplan/internal/requestctx"
	"crewplan/internal/transport/http/api"
)

// Authenticator resolves a bearer token to the stored user's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// Auth attaches the caller's effective identity when a valid bearer token is
// present. An admin may send X-Acting-As-Worker to act as that installer.
// Requests without a usable token pass through anonymous.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			id.ActingAs = strings.TrimSpace(r.Header.Get(auth.HeaderActingAs))
			ctx := requestctx.WithIdentity(r.Context(), id.Effective())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	return requestctx.GetIdentity(ctx)
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole checks the effective role, so an impersonating admin is
// treated as the installer it acts as.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !slices.Contains(roles, id.Role) {
				if id.Role == auth.RolePending {
					api.Fail(w, http.StatusForbidden, "account_pending", "account is waiting for an administrator to assign a role", GetRequestID(r.Context()))
					return
				}
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireWorker rejects non-admin callers whose account is not linked to a
// worker, so worker-scoped lists never run with an empty worker filter.
func RequireWorker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentity(r.Context())
		if !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		if !id.IsAdmin() && id.WorkerID == "" {
			api.Fail(w, http.StatusBadRequest, "worker_required", "account is not linked to a worker", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
