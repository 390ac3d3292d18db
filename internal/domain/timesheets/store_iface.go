package timesheets

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListEntries(ctx context.Context, filter Filter) ([]Entry, error)
	Get(ctx context.Context, entryID string) (Entry, error)
	LoggedHours(ctx context.Context, workerID string, date time.Time, excludeID string) (float64, error)
	// Create and Update hold a lock on the worker's day and return
	// ErrDailyHoursExceeded when the write would break the daily cap.
	Create(ctx context.Context, entry Entry) (Entry, error)
	// Update never touches an approved entry; it returns ErrEntryLocked.
	Update(ctx context.Context, entry Entry) error
	UpdateStatus(ctx context.Context, entryID string, from, to Status, reason string) error
	Delete(ctx context.Context, entryID string) error
}
