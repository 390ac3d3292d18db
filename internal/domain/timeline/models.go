package timeline

import (
	"time"

	"crewplan/internal/domain/core"
)

type Mode string

const (
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
)

type View string

const (
	ViewProjects View = "projects"
	ViewWorkers  View = "workers"
	ViewVehicles View = "vehicles"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Filters holds one allowed-value set per resource attribute. An empty set
// lets everything through.
type Filters struct {
	ProjectStatuses []core.ProjectStatus `json:"projectStatuses,omitempty"`
	Availability    []core.Availability  `json:"availability,omitempty"`
	Seniority       []core.Seniority     `json:"seniority,omitempty"`
	VehicleStatuses []core.VehicleStatus `json:"vehicleStatuses,omitempty"`
}

type Input struct {
	View        View
	Window      Window
	Sort        Sort
	Filters     Filters
	Projects    []core.Project
	Workers     []core.Worker
	Vehicles    []core.Vehicle
	Assignments []core.Assignment
}

type Bar struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Color string    `json:"color"`
	Link  string    `json:"link"`
}

type Row struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	SubLabel string `json:"subLabel,omitempty"`
	Link     string `json:"link"`
	Bars     []Bar  `json:"bars"`

	sortStatus string
	sortStart  time.Time
}
