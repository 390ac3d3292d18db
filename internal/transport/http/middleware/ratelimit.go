package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"crewplan/internal/transport/http/api"
	"crewplan/internal/transport/http/shared"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// sweepThreshold is the bucket count above which expired buckets are dropped.
const sweepThreshold = 4096

type window struct {
	hits  int
	until time.Time
}

type limiter struct {
	name   string
	limit  int
	period time.Duration
	key    KeyFunc

	mu      sync.Mutex
	windows map[string]*window
}

func newLimiter(name string, limit int, period time.Duration, key KeyFunc) *limiter {
	return &limiter{name: name, limit: limit, period: period, key: key, windows: make(map[string]*window)}
}

type verdict struct {
	key       string
	remaining int
	resetIn   int
	denied    bool
}

func (l *limiter) take(r *http.Request, now time.Time) verdict {
	key := l.key(r)
	if key == "" {
		key = ipKey(r)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.windows) > sweepThreshold {
		for k, w := range l.windows {
			if now.After(w.until) {
				delete(l.windows, k)
			}
		}
	}
	w := l.windows[key]
	if w == nil || now.After(w.until) {
		w = &window{until: now.Add(l.period)}
		l.windows[key] = w
	}
	w.hits++
	return verdict{
		key:       key,
		remaining: max(l.limit-w.hits, 0),
		resetIn:   ceilSeconds(w.until.Sub(now)),
		denied:    w.hits > l.limit,
	}
}

// admit counts the request and writes the 429 response when the bucket is
// exhausted. A non-positive limit disables the limiter.
func (l *limiter) admit(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	v := l.take(r, time.Now())

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(v.resetIn))
	if !v.denied {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(v.resetIn, 1)))
	slog.Warn("rate limit exceeded", "limiter", l.name, "key", v.key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit applies one budget per signed-in user, or per client address for
// anonymous calls.
func RateLimit(limit int, period time.Duration) func(http.Handler) http.Handler {
	l := newLimiter("global", limit, period, userOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter budgets for credential endpoints and
// for writes that bill money or touch stored files. Credential endpoints are
// counted per address and per submitted email.
func SensitiveMutationRateLimit(baseLimit int, period time.Duration) func(http.Handler) http.Handler {
	credentials := []*limiter{
		newLimiter("auth_ip", max(baseLimit/4, 1), period, ipKey),
		newLimiter("auth_email", max(baseLimit/4, 1), period, EmailOrIPKey("email")),
	}
	billing := []*limiter{
		newLimiter("sensitive", max(baseLimit/2, 1), period, userOrIPKey),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var chain []*limiter
			switch classify(r) {
			case classCredentials:
				chain = credentials
			case classSensitive:
				chain = billing
			}
			for _, l := range chain {
				if !l.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EmailOrIPKey keys by the lower-cased JSON body field, restoring the body for
// the handler. Requests without the field fall back to the client address.
func EmailOrIPKey(field string) KeyFunc {
	return func(r *http.Request) string {
		if email := jsonStringField(r, field); email != "" {
			return "email:" + strings.ToLower(email)
		}
		return ipKey(r)
	}
}

func userOrIPKey(r *http.Request) string {
	if id, ok := GetIdentity(r.Context()); ok {
		return "user:" + id.UserID
	}
	return ipKey(r)
}

func ipKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func jsonStringField(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]any
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type requestClass int

const (
	classOrdinary requestClass = iota
	classCredentials
	classSensitive
)

// sensitivePaths are write endpoints that create invoices, change rates or
// store files. Paths are relative to /api/v1.
var sensitivePaths = []struct {
	prefix, suffix string
}{
	{prefix: "/invoices"},
	{prefix: "/uploads"},
	{prefix: "/settings/transport-rates"},
	{prefix: "/workers/", suffix: "/certificates/batch"},
}

func classify(r *http.Request) requestClass {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return classOrdinary
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	if path == "/auth/login" || path == "/auth/register" {
		return classCredentials
	}
	for _, p := range sensitivePaths {
		if strings.HasPrefix(path, p.prefix) && strings.HasSuffix(path, p.suffix) {
			return classSensitive
		}
	}
	return classOrdinary
}
