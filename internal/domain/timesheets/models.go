package timesheets

import "time"

type Entry struct {
	ID               string    `json:"id"`
	WorkerID         string    `json:"workerId" validate:"required"`
	ProjectID        string    `json:"projectId" validate:"required"`
	Date             time.Time `json:"date"`
	HoursWorked      float64   `json:"hoursWorked" validate:"gte=0,lte=24"`
	DriverKilometers float64   `json:"driverKilometers" validate:"gte=0"`
	CrewKilometers   float64   `json:"crewKilometers" validate:"gte=0"`
	Status           Status    `json:"status"`
	Notes            string    `json:"notes"`
	RejectionReason  string    `json:"rejectionReason,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Filter struct {
	WorkerIDs []string
	ProjectID string
	Status    Status
	From      *time.Time
	To        *time.Time
}

// DailyHours is the answer to the form's "already logged today" check.
type DailyHours struct {
	WorkerID  string    `json:"workerId"`
	Date      time.Time `json:"date"`
	Logged    float64   `json:"logged"`
	Remaining float64   `json:"remaining"`
}
