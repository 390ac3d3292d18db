package timeline

import (
	"slices"
	"time"

	"crewplan/internal/domain/core"
)

// Aggregate builds the timeline rows for the selected view. It never returns nil.
func Aggregate(in Input) []Row {
	var rows []Row
	switch in.View {
	case ViewWorkers:
		rows = workerRows(in)
	case ViewVehicles:
		rows = vehicleRows(in)
	default:
		rows = projectRows(in)
	}
	if rows == nil {
		rows = []Row{}
	}
	sortRows(rows, in.Sort)
	return rows
}

func allowed[T comparable](set []T, value T) bool {
	return len(set) == 0 || slices.Contains(set, value)
}

func projectRows(in Input) []Row {
	rows := make([]Row, 0, len(in.Projects))
	for _, p := range in.Projects {
		if p.StartDate == nil || p.EndDate == nil {
			continue
		}
		if !in.Window.Overlaps(*p.StartDate, *p.EndDate) {
			continue
		}
		if !allowed(in.Filters.ProjectStatuses, p.Status) {
			continue
		}
		rows = append(rows, Row{
			ID:       p.ID,
			Label:    p.Name,
			SubLabel: p.Location,
			Link:     "/projects/" + p.ID,
			Bars: []Bar{{
				ID:    p.ID,
				Label: p.Name,
				Start: Date(*p.StartDate),
				End:   Date(*p.EndDate),
				Color: StatusColor(p.Status),
				Link:  "/projects/" + p.ID,
			}},
			sortStatus: p.Status.Label(),
			sortStart:  Date(*p.StartDate),
		})
	}
	return rows
}

// resource is the part of a worker or vehicle the row builder needs.
type resource struct {
	id         string
	label      string
	subLabel   string
	link       string
	sortStatus string
}

func workerRows(in Input) []Row {
	byWorker := groupAssignments(in.Assignments, func(a core.Assignment) string { return a.WorkerID })
	resources := make([]resource, 0, len(in.Workers))
	for _, w := range in.Workers {
		if !allowed(in.Filters.Availability, w.Availability) || !allowed(in.Filters.Seniority, w.Seniority) {
			continue
		}
		resources = append(resources, resource{
			id:         w.ID,
			label:      w.FullName(),
			subLabel:   w.Seniority.Label(),
			link:       "/workers/" + w.ID,
			sortStatus: w.Availability.Label(),
		})
	}
	return assignmentRows(in, resources, byWorker)
}

func vehicleRows(in Input) []Row {
	byVehicle := groupAssignments(in.Assignments, func(a core.Assignment) string { return a.VehicleID })
	resources := make([]resource, 0, len(in.Vehicles))
	for _, v := range in.Vehicles {
		if !allowed(in.Filters.VehicleStatuses, v.Status) {
			continue
		}
		resources = append(resources, resource{
			id:         v.ID,
			label:      v.BrandModel,
			subLabel:   v.LicensePlate,
			link:       "/vehicles/" + v.ID,
			sortStatus: v.Status.Label(),
		})
	}
	return assignmentRows(in, resources, byVehicle)
}

func groupAssignments(assignments []core.Assignment, key func(core.Assignment) string) map[string][]core.Assignment {
	out := make(map[string][]core.Assignment)
	for _, a := range assignments {
		if k := key(a); k != "" {
			out[k] = append(out[k], a)
		}
	}
	return out
}

// assignmentRows keeps a resource when at least one of its dated assignments
// overlaps the window on a known project passing the status filter. Its bars
// are every dated assignment on a known project passing the same filter.
func assignmentRows(in Input, resources []resource, byResource map[string][]core.Assignment) []Row {
	projects := make(map[string]core.Project, len(in.Projects))
	for _, p := range in.Projects {
		projects[p.ID] = p
	}

	rows := make([]Row, 0, len(resources))
	for _, res := range resources {
		var bars []Bar
		visible := false
		var earliest time.Time
		for _, a := range byResource[res.id] {
			if !a.HasDates() {
				continue
			}
			project, ok := projects[a.ProjectID]
			if !ok {
				continue
			}
			if !allowed(in.Filters.ProjectStatuses, project.Status) {
				continue
			}
			start, end := Date(*a.StartDate), Date(*a.EndDate)
			if in.Window.Overlaps(start, end) {
				visible = true
			}
			if earliest.IsZero() || start.Before(earliest) {
				earliest = start
			}
			bars = append(bars, Bar{
				ID:    a.ID,
				Label: project.Name,
				Start: start,
				End:   end,
				Color: StatusColor(project.Status),
				Link:  "/projects/" + project.ID,
			})
		}
		if !visible {
			continue
		}
		rows = append(rows, Row{
			ID:         res.id,
			Label:      res.label,
			SubLabel:   res.subLabel,
			Link:       res.link,
			Bars:       bars,
			sortStatus: res.sortStatus,
			sortStart:  earliest,
		})
	}
	return rows
}
