package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"crewplan/internal/domain/core"
	"crewplan/internal/domain/timeline"
)

type memoryStore struct {
	values map[string]json.RawMessage
}

func (m *memoryStore) Get(_ context.Context, userID, key string) (Preference, error) {
	v, ok := m.values[userID+"/"+key]
	if !ok {
		return Preference{}, ErrPreferenceNotFound
	}
	return Preference{UserID: userID, Key: key, Value: v}, nil
}

func (m *memoryStore) Put(_ context.Context, userID, key string, value json.RawMessage) (Preference, error) {
	m.values[userID+"/"+key] = value
	return Preference{UserID: userID, Key: key, Value: value, UpdatedAt: time.Now()}, nil
}

func (m *memoryStore) Delete(_ context.Context, userID, key string) error {
	if _, ok := m.values[userID+"/"+key]; !ok {
		return ErrPreferenceNotFound
	}
	delete(m.values, userID+"/"+key)
	return nil
}

func TestPutValidation(t *testing.T) {
	svc := NewService(&memoryStore{values: map[string]json.RawMessage{}})
	ctx := context.Background()

	cases := []struct {
		name  string
		key   string
		value string
		want  error
	}{
		{"bad key", "Timeline!", `{}`, ErrInvalidKey},
		{"array", "columns", `[1,2]`, ErrInvalidValue},
		{"broken json", "columns", `{"a":`, ErrInvalidValue},
		{"unknown view", KeyTimeline, `{"view":"gantt"}`, ErrInvalidValue},
		{"unknown field", KeyTimeline, `{"zoom":2}`, ErrInvalidValue},
		{"bad direction", KeyTimeline, `{"sort":{"key":"name","direction":"up"}}`, ErrInvalidValue},
		{"ok", KeyTimeline, `{"view":"workers","sort":{"key":"name","direction":"desc"}}`, nil},
		{"free form", "columns", ` {"hidden":["notes"]} `, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Put(ctx, "u1", tc.key, json.RawMessage(tc.value))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTimelineDefaultsAndApply(t *testing.T) {
	svc := NewService(&memoryStore{values: map[string]json.RawMessage{}})
	ctx := context.Background()

	empty, err := svc.Timeline(ctx, "u1")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if empty.View != "" || empty.Sort.Key != "" {
		t.Fatalf("expected zero preference, got %+v", empty)
	}

	stored := `{"view":"workers","mode":"month","sort":{"key":"status","direction":"asc"},"filters":{"availability":["available"]}}`
	if _, err := svc.Put(ctx, "u1", KeyTimeline, json.RawMessage(stored)); err != nil {
		t.Fatalf("put: %v", err)
	}
	pref, err := svc.Timeline(ctx, "u1")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}

	q := pref.Apply(timeline.Query{View: timeline.ViewProjects, Mode: timeline.ModeWeek}, Explicit{Mode: true})
	if q.View != timeline.ViewWorkers || q.Mode != timeline.ModeWeek {
		t.Fatalf("unexpected view/mode %s/%s", q.View, q.Mode)
	}
	if q.Sort.Key != "status" || len(q.Filters.Availability) != 1 || q.Filters.Availability[0] != core.Availability("available") {
		t.Fatalf("stored sort and filters not applied: %+v", q)
	}

	q = pref.Apply(timeline.Query{Filters: timeline.Filters{Seniority: []core.Seniority{"junior"}}}, Explicit{Filters: true})
	if len(q.Filters.Availability) != 0 || len(q.Filters.Seniority) != 1 {
		t.Fatalf("explicit filters must win, got %+v", q.Filters)
	}
}

func TestDeleteMissing(t *testing.T) {
	svc := NewService(&memoryStore{values: map[string]json.RawMessage{}})
	if err := svc.Delete(context.Background(), "u1", KeyTimeline); !errors.Is(err, ErrPreferenceNotFound) {
		t.Fatalf("expected ErrPreferenceNotFound, got %v", err)
	}
}
