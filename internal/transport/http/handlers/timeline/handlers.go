package timelinehandler

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"crewplan/internal/domain/auth"
	"crewplan/internal/domain/core"
	"crewplan/internal/domain/preferences"
	"crewplan/internal/domain/timeline"
	"crewplan/internal/platform/metrics"
	"crewplan/internal/transport/http/api"
	"crewplan/internal/transport/http/middleware"
	"crewplan/internal/transport/http/shared"
)

type Handler struct {
	Service     *timeline.Service
	Preferences *preferences.Service
	Metrics     *metrics.Collector
	now         func() time.Time
}

func NewHandler(service *timeline.Service, prefs *preferences.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Preferences: prefs, Metrics: collector, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleInstaller)).Get("/timeline", h.handleTimeline)
}

var filterParams = []string{"projectStatus", "availability", "seniority", "vehicleStatus"}

// parseQuery reads the request and reports which parts were given explicitly,
// so stored preferences can fill in the rest.
func (h *Handler) parseQuery(values url.Values) (timeline.Query, preferences.Explicit, []shared.ValidationIssue) {
	validator := shared.NewValidator()
	q := timeline.Query{
		View: timeline.View(values.Get("view")),
		Mode: timeline.Mode(values.Get("mode")),
		Sort: timeline.Sort{
			Key:       values.Get("sort"),
			Direction: timeline.Direction(values.Get("dir")),
		},
	}
	explicit := preferences.Explicit{
		View: q.View != "",
		Mode: q.Mode != "",
		Sort: q.Sort.Key != "",
	}
	for _, param := range filterParams {
		if values.Has(param) {
			explicit.Filters = true
		}
	}

	switch q.View {
	case "", timeline.ViewProjects, timeline.ViewWorkers, timeline.ViewVehicles:
	default:
		validator.Add("view", "must be one of: projects, workers, vehicles")
	}
	switch q.Mode {
	case "", timeline.ModeWeek, timeline.ModeMonth:
	default:
		validator.Add("mode", "must be one of: week, month")
	}
	switch q.Sort.Key {
	case "", timeline.SortName, timeline.SortStartDate, timeline.SortStatus:
	default:
		validator.Add("sort", "must be one of: name, start_date, status")
	}
	switch q.Sort.Direction {
	case "", timeline.Asc, timeline.Desc:
	default:
		validator.Add("dir", "must be one of: asc, desc")
	}

	q.Anchor = h.now()
	if raw := values.Get("date"); raw != "" {
		if anchor, ok := validator.Date("date", raw); ok {
			q.Anchor = anchor
		}
	}

	q.Filters.ProjectStatuses = parseSet(validator, "projectStatus", values.Get("projectStatus"), core.ProjectStatuses)
	q.Filters.Availability = parseSet(validator, "availability", values.Get("availability"), core.Availabilities)
	q.Filters.Seniority = parseSet(validator, "seniority", values.Get("seniority"), core.Seniorities)
	q.Filters.VehicleStatuses = parseSet(validator, "vehicleStatus", values.Get("vehicleStatus"), core.VehicleStatuses)
	return q, explicit, validator.Issues()
}

// parseSet splits a comma separated list and keeps only known values.
func parseSet[T ~string](v *shared.Validator, field, raw string, allowed []T) []T {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []T
	for _, part := range strings.Split(raw, ",") {
		value := T(strings.TrimSpace(part))
		if value == "" {
			continue
		}
		if !slices.Contains(allowed, value) {
			v.Add(field, "contains unknown value "+string(value))
			continue
		}
		if !slices.Contains(out, value) {
			out = append(out, value)
		}
	}
	return out
}

func withDefaults(q timeline.Query) timeline.Query {
	if q.View == "" {
		q.View = timeline.ViewProjects
	}
	if q.Mode == "" {
		q.Mode = timeline.ModeWeek
	}
	if q.Sort.Key == "" {
		q.Sort.Key = timeline.SortName
	}
	if q.Sort.Direction == "" {
		q.Sort.Direction = timeline.Asc
	}
	return q
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	q, explicit, issues := h.parseQuery(r.URL.Query())
	if len(issues) > 0 {
		shared.FailValidation(w, requestID, issues)
		return
	}

	if h.Preferences != nil {
		id, _ := middleware.GetIdentity(r.Context())
		stored, err := h.Preferences.Timeline(r.Context(), id.UserID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "timeline_failed", "failed to load timeline preferences", requestID)
			return
		}
		q = stored.Apply(q, explicit)
	}
	q = withDefaults(q)

	result, hit, err := h.Service.Build(r.Context(), q)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "timeline_failed", "failed to build timeline", requestID)
		return
	}
	if hit {
		h.Metrics.Inc(metrics.TimelineCacheHits)
	} else {
		h.Metrics.Inc(metrics.TimelineCacheMisses)
	}
	api.Success(w, result, requestID)
}
