package shared

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse(DayLayout, value)
}

// ParseDay parses a calendar day and truncates it to UTC midnight.
func ParseDay(value string) (time.Time, error) {
	parsed, err := ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	if parsed.IsZero() {
		return time.Time{}, nil
	}
	y, m, d := parsed.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// OptionalDay parses a query value into a *time.Time; empty means nil.
func OptionalDay(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := ParseDay(value)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
