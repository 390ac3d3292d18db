package timeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"crewplan/internal/domain/core"
	"crewplan/internal/platform/cache"
)

// Source supplies the full collections the timeline is computed from.
type Source interface {
	ListProjects(ctx context.Context) ([]core.Project, error)
	ListWorkers(ctx context.Context, filter core.WorkerFilter) ([]core.Worker, error)
	ListVehicles(ctx context.Context) ([]core.Vehicle, error)
	ListAssignments(ctx context.Context, filter core.AssignmentFilter) ([]core.Assignment, error)
}

type Query struct {
	View    View      `json:"view"`
	Mode    Mode      `json:"mode"`
	Anchor  time.Time `json:"anchor"`
	Sort    Sort      `json:"sort"`
	Filters Filters   `json:"filters"`
}

type Result struct {
	Window   Window    `json:"window"`
	Label    string    `json:"label"`
	Previous time.Time `json:"previous"`
	Next     time.Time `json:"next"`
	Rows     []Row     `json:"rows"`
	Days     []GridRow `json:"days"`
}

// Compute is the pure part of Build: window, rows and day grid for already loaded data.
func Compute(q Query, in Input) Result {
	window := WindowFor(q.Mode, q.Anchor)
	in.View = q.View
	in.Window = window
	in.Sort = q.Sort
	in.Filters = q.Filters
	rows := Aggregate(in)
	return Result{
		Window:   window,
		Label:    HeaderLabel(q.Mode, q.Anchor),
		Previous: Shift(q.Mode, q.Anchor, -1),
		Next:     Shift(q.Mode, q.Anchor, 1),
		Rows:     rows,
		Days:     DayGrid(rows, window),
	}
}

type Service struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
}

func NewService(source Source, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{source: source, cache: c, ttl: ttl}
}

// Build loads the collections and computes the timeline. Results are cached
// under the current data version, so any write invalidates them.
func (s *Service) Build(ctx context.Context, q Query) (Result, bool, error) {
	q.Anchor = Date(q.Anchor)
	key, err := s.cacheKey(ctx, q)
	if err == nil {
		if raw, ok, getErr := s.cache.Get(ctx, key); getErr == nil && ok {
			var cached Result
			if json.Unmarshal(raw, &cached) == nil {
				return cached, true, nil
			}
		} else if getErr != nil {
			slog.Warn("timeline cache read failed", "err", getErr)
		}
	} else {
		slog.Warn("timeline cache version failed", "err", err)
	}

	in, err := s.load(ctx, q.View)
	if err != nil {
		return Result{}, false, err
	}
	result := Compute(q, in)

	if key != "" {
		if payload, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
				slog.Warn("timeline cache write failed", "err", err)
			}
		}
	}
	return result, false, nil
}

func (s *Service) load(ctx context.Context, view View) (Input, error) {
	var in Input
	var err error
	if in.Projects, err = s.source.ListProjects(ctx); err != nil {
		return Input{}, err
	}
	if view == ViewProjects {
		return in, nil
	}
	if in.Assignments, err = s.source.ListAssignments(ctx, core.AssignmentFilter{}); err != nil {
		return Input{}, err
	}
	if view == ViewVehicles {
		in.Vehicles, err = s.source.ListVehicles(ctx)
	} else {
		in.Workers, err = s.source.ListWorkers(ctx, core.WorkerFilter{})
	}
	if err != nil {
		return Input{}, err
	}
	return in, nil
}

func (s *Service) cacheKey(ctx context.Context, q Query) (string, error) {
	version, err := s.cache.Version(ctx, cache.NamespaceData)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return "timeline:" + strconv.FormatInt(version, 10) + ":" + hex.EncodeToString(sum[:]), nil
}
