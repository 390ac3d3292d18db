package middleware

import (
	"log/slog"
	"net/http"

	"crewplan/internal/platform/cache"
)

// InvalidateOnWrite bumps the data version after every successful mutating
// request so memoized read models such as the timeline are rebuilt.
func InvalidateOnWrite(c cache.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			if recorder.status < 300 {
				if err := c.Bump(r.Context(), cache.NamespaceData); err != nil {
					slog.Warn("cache invalidation failed", "path", r.URL.Path, "err", err)
				}
			}
		})
	}
}
