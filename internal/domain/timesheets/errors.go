package timesheets

import "errors"

var (
	ErrEntryNotFound      = errors.New("timesheet entry not found")
	ErrInvalidHours       = errors.New("hours worked must be between 0 and 24")
	ErrInvalidKilometers  = errors.New("kilometers must not be negative")
	ErrDateRequired       = errors.New("date is required")
	ErrDailyHoursExceeded = errors.New("daily hours for worker would exceed 24")
	ErrInvalidTransition  = errors.New("timesheet status change not allowed")
	ErrRejectionReason    = errors.New("rejection reason is required")
	ErrEntryLocked        = errors.New("approved timesheet entries cannot be changed")
	ErrNotOwner           = errors.New("timesheet entry belongs to another worker")
)
