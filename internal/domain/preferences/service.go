package preferences

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"regexp"

	"crewplan/internal/domain/timeline"
)

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_.-]{0,63}$`)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, userID, key string) (Preference, error) {
	if !keyPattern.MatchString(key) {
		return Preference{}, ErrInvalidKey
	}
	return s.store.Get(ctx, userID, key)
}

// Put replaces the stored value. Values are JSON objects; the timeline key is
// additionally checked against the shape the timeline handler reads.
func (s *Service) Put(ctx context.Context, userID, key string, value json.RawMessage) (Preference, error) {
	if !keyPattern.MatchString(key) {
		return Preference{}, ErrInvalidKey
	}
	if len(value) > MaxValueBytes {
		return Preference{}, ErrValueTooLarge
	}
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return Preference{}, ErrInvalidValue
	}
	if key == KeyTimeline {
		if _, err := decodeTimeline(trimmed); err != nil {
			return Preference{}, err
		}
	}
	return s.store.Put(ctx, userID, key, trimmed)
}

func (s *Service) Delete(ctx context.Context, userID, key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return s.store.Delete(ctx, userID, key)
}

// Timeline returns the stored timeline preference, or a zero value when the
// user never saved one.
func (s *Service) Timeline(ctx context.Context, userID string) (Timeline, error) {
	p, err := s.store.Get(ctx, userID, KeyTimeline)
	if errors.Is(err, ErrPreferenceNotFound) {
		return Timeline{}, nil
	}
	if err != nil {
		return Timeline{}, err
	}
	return decodeTimeline(p.Value)
}

func decodeTimeline(raw []byte) (Timeline, error) {
	var t Timeline
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return Timeline{}, ErrInvalidValue
	}
	switch t.View {
	case "", timeline.ViewProjects, timeline.ViewWorkers, timeline.ViewVehicles:
	default:
		return Timeline{}, ErrInvalidValue
	}
	switch t.Mode {
	case "", timeline.ModeWeek, timeline.ModeMonth:
	default:
		return Timeline{}, ErrInvalidValue
	}
	switch t.Sort.Direction {
	case "", timeline.Asc, timeline.Desc:
	default:
		return Timeline{}, ErrInvalidValue
	}
	return t, nil
}

// Apply fills the parts of q the caller left unset from the stored preference.
func (t Timeline) Apply(q timeline.Query, explicit Explicit) timeline.Query {
	if !explicit.View && t.View != "" {
		q.View = t.View
	}
	if !explicit.Mode && t.Mode != "" {
		q.Mode = t.Mode
	}
	if !explicit.Sort && t.Sort.Key != "" {
		q.Sort = t.Sort
	}
	if !explicit.Filters {
		q.Filters = t.Filters
	}
	return q
}

// Explicit marks which query parts came from the request itself.
type Explicit struct {
	View    bool
	Mode    bool
	Sort    bool
	Filters bool
}
