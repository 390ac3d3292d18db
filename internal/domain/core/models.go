package core

import "time"

type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name" validate:"required"`
	Location    string        `json:"location"`
	Status      ProjectStatus `json:"status" validate:"required,oneof=preparing in_progress completed paused"`
	Priority    string        `json:"priority"`
	StartDate   *time.Time    `json:"startDate,omitempty"`
	EndDate     *time.Time    `json:"endDate,omitempty"`
	Description string        `json:"description"`
	Country     string        `json:"country"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type Worker struct {
	ID                      string       `json:"id"`
	FirstName               string       `json:"firstName" validate:"required"`
	LastName                string       `json:"lastName" validate:"required"`
	Email                   string       `json:"email" validate:"omitempty,email"`
	Phone                   string       `json:"phone"`
	Seniority               Seniority    `json:"seniority" validate:"omitempty,oneof=junior medior senior specialista"`
	Availability            Availability `json:"availability" validate:"omitempty,oneof=available on_vacation sick"`
	WorkerType              WorkerType   `json:"workerType" validate:"required,oneof=independent subcontractor team_leader"`
	TeamLeaderID            string       `json:"teamLeaderId,omitempty"`
	HourlyRateDomestic      *float64     `json:"hourlyRateDomestic,omitempty" validate:"omitempty,gte=0"`
	HourlyRateInternational *float64     `json:"hourlyRateInternational,omitempty" validate:"omitempty,gte=0"`
	Specializations         []string     `json:"specializations"`
	CreatedAt               time.Time    `json:"createdAt"`
	UpdatedAt               time.Time    `json:"updatedAt"`
}

func (w Worker) FullName() string {
	switch {
	case w.FirstName == "":
		return w.LastName
	case w.LastName == "":
		return w.FirstName
	}
	return w.FirstName + " " + w.LastName
}

type Vehicle struct {
	ID           string        `json:"id"`
	BrandModel   string        `json:"brandModel" validate:"required"`
	LicensePlate string        `json:"licensePlate" validate:"required"`
	Status       VehicleStatus `json:"status" validate:"required,oneof=available in_use service retired"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Assignment binds a worker, a vehicle or both to a project over a date range.
type Assignment struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"projectId" validate:"required"`
	WorkerID   string     `json:"workerId,omitempty"`
	VehicleID  string     `json:"vehicleId,omitempty"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	Role       string     `json:"role"`
	HourlyRate *float64   `json:"hourlyRate,omitempty" validate:"omitempty,gte=0"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// HasDates reports whether both ends of the range are set.
func (a Assignment) HasDates() bool {
	return a.StartDate != nil && a.EndDate != nil
}

type AssignmentFilter struct {
	ProjectID string
	WorkerID  string
	VehicleID string
}

type WorkerFilter struct {
	TeamLeaderID string
	WorkerType   WorkerType
}
