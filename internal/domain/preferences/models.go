package preferences

import (
	"encoding/json"
	"time"

	"crewplan/internal/domain/timeline"
)

type Preference struct {
	UserID    string          `json:"-"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Timeline is the value stored under KeyTimeline. Zero fields mean "not set".
type Timeline struct {
	View    timeline.View    `json:"view,omitempty"`
	Mode    timeline.Mode    `json:"mode,omitempty"`
	Sort    timeline.Sort    `json:"sort"`
	Filters timeline.Filters `json:"filters"`
}
