package timesheets

import (
	"time"

	"github.com/shopspring/decimal"
)

// Validate checks the ranges of a single entry.
func Validate(e Entry) error {
	if e.Date.IsZero() {
		return ErrDateRequired
	}
	if e.HoursWorked < 0 || e.HoursWorked > MaxDailyHours {
		return ErrInvalidHours
	}
	if e.DriverKilometers < 0 || e.CrewKilometers < 0 {
		return ErrInvalidKilometers
	}
	return nil
}

// WithinDailyCap reports whether adding hours to what is already logged for
// the day stays at or under the cap.
func WithinDailyCap(logged, hours float64) bool {
	total := decimal.NewFromFloat(logged).Add(decimal.NewFromFloat(hours))
	return total.LessThanOrEqual(decimal.NewFromFloat(MaxDailyHours))
}

// Remaining is how many hours may still be logged on the day.
func Remaining(logged float64) float64 {
	left := decimal.NewFromFloat(MaxDailyHours).Sub(decimal.NewFromFloat(logged))
	if left.IsNegative() {
		return 0
	}
	return left.InexactFloat64()
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
