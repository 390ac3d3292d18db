package core

type ProjectStatus string

const (
	ProjectPreparing  ProjectStatus = "preparing"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectPaused     ProjectStatus = "paused"
)

var ProjectStatuses = []ProjectStatus{ProjectPreparing, ProjectInProgress, ProjectCompleted, ProjectPaused}

type Seniority string

const (
	SeniorityJunior      Seniority = "junior"
	SeniorityMedior      Seniority = "medior"
	SenioritySenior      Seniority = "senior"
	SenioritySpecialista Seniority = "specialista"
)

var Seniorities = []Seniority{SeniorityJunior, SeniorityMedior, SenioritySenior, SenioritySpecialista}

type Availability string

const (
	AvailabilityAvailable  Availability = "available"
	AvailabilityOnVacation Availability = "on_vacation"
	AvailabilitySick       Availability = "sick"
)

var Availabilities = []Availability{AvailabilityAvailable, AvailabilityOnVacation, AvailabilitySick}

type WorkerType string

const (
	WorkerIndependent   WorkerType = "independent"
	WorkerSubcontractor WorkerType = "subcontractor"
	WorkerTeamLeader    WorkerType = "team_leader"
)

type VehicleStatus string

const (
	VehicleAvailable VehicleStatus = "available"
	VehicleInUse     VehicleStatus = "in_use"
	VehicleService   VehicleStatus = "service"
	VehicleRetired   VehicleStatus = "retired"
)

var VehicleStatuses = []VehicleStatus{VehicleAvailable, VehicleInUse, VehicleService, VehicleRetired}

// Labels as shown in the Czech UI. Sorting by status uses these, not the codes.
var projectStatusLabels = map[ProjectStatus]string{
	ProjectPreparing:  "Příprava",
	ProjectInProgress: "Probíhá",
	ProjectCompleted:  "Dokončeno",
	ProjectPaused:     "Pozastaveno",
}

var availabilityLabels = map[Availability]string{
	AvailabilityAvailable:  "Dostupný",
	AvailabilityOnVacation: "Dovolená",
	AvailabilitySick:       "Nemocný",
}

var seniorityLabels = map[Seniority]string{
	SeniorityJunior:      "Junior",
	SeniorityMedior:      "Medior",
	SenioritySenior:      "Senior",
	SenioritySpecialista: "Specialista",
}

var vehicleStatusLabels = map[VehicleStatus]string{
	VehicleAvailable: "Dostupné",
	VehicleInUse:     "V provozu",
	VehicleService:   "V servisu",
	VehicleRetired:   "Vyřazeno",
}

func (s ProjectStatus) Label() string { return labelOr(projectStatusLabels, s) }
func (a Availability) Label() string  { return labelOr(availabilityLabels, a) }
func (s Seniority) Label() string     { return labelOr(seniorityLabels, s) }
func (s VehicleStatus) Label() string { return labelOr(vehicleStatusLabels, s) }

func labelOr[K ~string](labels map[K]string, key K) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return string(key)
}
