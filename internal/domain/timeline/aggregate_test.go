package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewplan/internal/domain/core"
	"crewplan/internal/platform/cache"
)

func ptr(t time.Time) *time.Time { return &t }

func project(id, name string, status core.ProjectStatus, start, end time.Time) core.Project {
	return core.Project{ID: id, Name: name, Status: status, StartDate: ptr(start), EndDate: ptr(end)}
}

func assignment(id, projectID, workerID string, start, end time.Time) core.Assignment {
	return core.Assignment{ID: id, ProjectID: projectID, WorkerID: workerID, StartDate: ptr(start), EndDate: ptr(end)}
}

func ids(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

var octoberWeek = WindowFor(ModeWeek, date(2026, 10, 16)) // 12.10. - 18.10.

func TestProjectRowsOverlapAndBars(t *testing.T) {
	in := Input{
		View:   ViewProjects,
		Window: octoberWeek,
		Projects: []core.Project{
			project("span", "Spanning", core.ProjectInProgress, octoberWeek.Start.AddDate(0, 0, -1), octoberWeek.End.AddDate(0, 0, 1)),
			project("before", "Before", core.ProjectCompleted, date(2026, 9, 1), date(2026, 10, 11)),
			project("after", "After", core.ProjectPreparing, date(2026, 10, 19), date(2026, 11, 30)),
			project("inside", "Inside", core.ProjectPaused, date(2026, 10, 14), date(2026, 10, 15)),
			{ID: "open", Name: "Open ended", Status: core.ProjectInProgress, StartDate: ptr(date(2026, 10, 1))},
		},
	}

	rows := Aggregate(in)
	require.ElementsMatch(t, []string{"span", "inside"}, ids(rows))

	for _, row := range rows {
		require.Len(t, row.Bars, 1)
		assert.Equal(t, "/projects/"+row.ID, row.Link)
	}
	assert.Equal(t, StatusColor(core.ProjectPaused), rows[0].Bars[0].Color)
}

func TestFullySpanningIncludedInMonthView(t *testing.T) {
	month := WindowFor(ModeMonth, date(2026, 10, 16))
	rows := Aggregate(Input{
		View:   ViewProjects,
		Window: month,
		Projects: []core.Project{
			project("p", "P", core.ProjectInProgress, month.Start.AddDate(0, 0, -1), month.End.AddDate(0, 0, 1)),
		},
	})
	assert.Equal(t, []string{"p"}, ids(rows))
}

func TestEmptyFilterEqualsAllValues(t *testing.T) {
	base := Input{
		View:   ViewProjects,
		Window: octoberWeek,
		Projects: []core.Project{
			project("a", "A", core.ProjectInProgress, date(2026, 10, 1), date(2026, 10, 30)),
			project("b", "B", core.ProjectPaused, date(2026, 10, 1), date(2026, 10, 30)),
			project("c", "C", core.ProjectCompleted, date(2026, 10, 1), date(2026, 10, 30)),
		},
	}
	all := base
	all.Filters.ProjectStatuses = core.ProjectStatuses
	assert.Equal(t, ids(Aggregate(base)), ids(Aggregate(all)))

	only := base
	only.Filters.ProjectStatuses = []core.ProjectStatus{core.ProjectPaused}
	assert.Equal(t, []string{"b"}, ids(Aggregate(only)))
}

func TestProjectSortCzechCollation(t *testing.T) {
	in := Input{
		View:   ViewProjects,
		Window: octoberWeek,
		Sort:   Sort{Key: SortName, Direction: Asc},
		Projects: []core.Project{
			project("z", "Zebra", core.ProjectInProgress, date(2026, 10, 1), date(2026, 10, 30)),
			project("a", "Ábel", core.ProjectInProgress, date(2026, 10, 1), date(2026, 10, 30)),
			project("b", "bazén", core.ProjectInProgress, date(2026, 10, 1), date(2026, 10, 30)),
		},
	}
	assert.Equal(t, []string{"a", "b", "z"}, ids(Aggregate(in)))

	in.Sort.Direction = Desc
	assert.Equal(t, []string{"z", "b", "a"}, ids(Aggregate(in)))
}

func TestProjectSortByStartDateAndStatusLabel(t *testing.T) {
	in := Input{
		View:   ViewProjects,
		Window: octoberWeek,
		Projects: []core.Project{
			project("late", "A", core.ProjectPreparing, date(2026, 10, 10), date(2026, 10, 30)),
			project("early", "B", core.ProjectInProgress, date(2026, 9, 1), date(2026, 10, 30)),
			project("paused", "C", core.ProjectPaused, date(2026, 10, 5), date(2026, 10, 30)),
		},
	}
	in.Sort = Sort{Key: SortStartDate, Direction: Asc}
	assert.Equal(t, []string{"early", "paused", "late"}, ids(Aggregate(in)))

	// Labels: Příprava, Probíhá, Pozastaveno -> Pozastaveno < Probíhá < Příprava (ř after r)
	in.Sort = Sort{Key: SortStatus, Direction: Asc}
	assert.Equal(t, []string{"paused", "early", "late"}, ids(Aggregate(in)))
}

func TestUnknownSortKeyFallsBackToName(t *testing.T) {
	in := Input{
		View:   ViewProjects,
		Window: octoberWeek,
		Sort:   Sort{Key: "priority"},
		Projects: []core.Project{
			project("2", "Beta", core.ProjectInProgress, date(2026, 10, 1), date(2026, 10, 30)),
			project("1", "Alfa", core.ProjectInProgress, date(2026, 10, 1), date(2026, 10, 30)),
		},
	}
	assert.Equal(t, []string{"1", "2"}, ids(Aggregate(in)))
}

func workerInput() Input {
	return Input{
		View:   ViewWorkers,
		Window: octoberWeek,
		Projects: []core.Project{
			project("p1", "Hala Kladno", core.ProjectInProgress, date(2026, 9, 1), date(2026, 12, 1)),
			project("p2", "Sklad Brno", core.ProjectPaused, date(2026, 9, 1), date(2026, 12, 1)),
		},
		Workers: []core.Worker{
			{ID: "w1", FirstName: "Jan", LastName: "Novák", Availability: core.AvailabilityAvailable, Seniority: core.SenioritySenior},
			{ID: "w2", FirstName: "Eva", LastName: "Malá", Availability: core.AvailabilitySick, Seniority: core.SeniorityJunior},
			{ID: "w3", FirstName: "Petr", LastName: "Bez", Availability: core.AvailabilityAvailable},
			{ID: "w4", FirstName: "Olga", LastName: "Stará", Availability: core.AvailabilityAvailable},
		},
		Assignments: []core.Assignment{
			assignment("a1", "p1", "w1", date(2026, 10, 13), date(2026, 10, 15)),
			assignment("a2", "p2", "w1", date(2026, 10, 14), date(2026, 10, 20)),
			assignment("a3", "p2", "w2", date(2026, 10, 12), date(2026, 10, 12)),
			assignment("a4", "gone", "w3", date(2026, 10, 12), date(2026, 10, 18)),
			{ID: "a5", ProjectID: "p1", WorkerID: "w4", StartDate: ptr(date(2026, 10, 12))},
			assignment("a6", "p1", "w2", date(2026, 1, 5), date(2026, 1, 9)),
		},
	}
}

func TestWorkerRows(t *testing.T) {
	rows := Aggregate(workerInput())
	// w3 only has a dangling assignment, w4 only an open-ended one.
	require.ElementsMatch(t, []string{"w1", "w2"}, ids(rows))

	var w1 Row
	for _, r := range rows {
		if r.ID == "w1" {
			w1 = r
		}
	}
	assert.Equal(t, "Jan Novák", w1.Label)
	assert.Equal(t, "/workers/w1", w1.Link)
	require.Len(t, w1.Bars, 2)
	assert.Equal(t, "Hala Kladno", w1.Bars[0].Label)
	assert.Equal(t, StatusColor(core.ProjectPaused), w1.Bars[1].Color)
}

func TestWorkerAttributeFilters(t *testing.T) {
	in := workerInput()
	in.Filters.Availability = []core.Availability{core.AvailabilitySick}
	assert.Equal(t, []string{"w2"}, ids(Aggregate(in)))

	in = workerInput()
	in.Filters.Seniority = []core.Seniority{core.SenioritySenior}
	assert.Equal(t, []string{"w1"}, ids(Aggregate(in)))
}

func TestWorkerProjectStatusFilterAppliesToRowsAndBars(t *testing.T) {
	in := workerInput()
	in.Filters.ProjectStatuses = []core.ProjectStatus{core.ProjectInProgress}
	rows := Aggregate(in)
	// w2 is only on p1 outside the window; its paused assignment is filtered out.
	require.Equal(t, []string{"w1"}, ids(rows))
	require.Len(t, rows[0].Bars, 1)
	assert.Equal(t, "a1", rows[0].Bars[0].ID)
}

func TestVehicleRows(t *testing.T) {
	in := Input{
		View:   ViewVehicles,
		Window: octoberWeek,
		Projects: []core.Project{
			project("p1", "Hala", core.ProjectInProgress, date(2026, 9, 1), date(2026, 12, 1)),
		},
		Vehicles: []core.Vehicle{
			{ID: "v1", BrandModel: "Ford Transit", LicensePlate: "1AB 2345", Status: core.VehicleInUse},
			{ID: "v2", BrandModel: "Škoda Octavia", LicensePlate: "2CD 6789", Status: core.VehicleService},
			{ID: "v3", BrandModel: "Avia", LicensePlate: "3EF 0000", Status: core.VehicleInUse},
		},
		Assignments: []core.Assignment{
			{ID: "a1", ProjectID: "p1", VehicleID: "v1", StartDate: ptr(date(2026, 10, 12)), EndDate: ptr(date(2026, 10, 16))},
			{ID: "a2", ProjectID: "p1", VehicleID: "v2", WorkerID: "w1", StartDate: ptr(date(2026, 10, 12)), EndDate: ptr(date(2026, 10, 16))},
		},
	}
	rows := Aggregate(in)
	require.Equal(t, []string{"v1", "v2"}, ids(rows))
	assert.Equal(t, "1AB 2345", rows[0].SubLabel)

	in.Filters.VehicleStatuses = []core.VehicleStatus{core.VehicleService}
	assert.Equal(t, []string{"v2"}, ids(Aggregate(in)))
}

func TestEmptyResultIsNotNil(t *testing.T) {
	rows := Aggregate(Input{View: ViewWorkers, Window: octoberWeek})
	require.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestStackingOnSameDay(t *testing.T) {
	in := workerInput()
	rows := Aggregate(in)
	var w1 Row
	for _, r := range rows {
		if r.ID == "w1" {
			w1 = r
		}
	}
	active := ActiveBars(w1.Bars, date(2026, 10, 14))
	require.Len(t, active, 2)
	assert.Equal(t, "a1", active[0].ID)
	assert.Equal(t, "a2", active[1].ID)

	assert.Len(t, ActiveBars(w1.Bars, date(2026, 10, 16)), 1)
	assert.Empty(t, ActiveBars(w1.Bars, date(2026, 10, 21)))
}

func TestActiveBarsIncludesEndDay(t *testing.T) {
	bars := []Bar{{ID: "b", Start: date(2026, 10, 12), End: date(2026, 10, 13)}}
	late := time.Date(2026, 10, 13, 23, 59, 59, 0, time.UTC)
	assert.Len(t, ActiveBars(bars, late), 1)
}

func TestDayGridLabelsFirstVisibleDay(t *testing.T) {
	rows := []Row{{
		ID: "r",
		Bars: []Bar{
			{ID: "early", Start: date(2026, 10, 1), End: date(2026, 10, 13)},
			{ID: "mid", Start: date(2026, 10, 14), End: date(2026, 10, 15)},
		},
	}}
	grid := DayGrid(rows, octoberWeek)
	require.Len(t, grid, 1)
	cells := grid[0].Cells
	require.Len(t, cells, 7)

	require.Len(t, cells[0].Bars, 1)
	assert.True(t, cells[0].Bars[0].ShowLabel, "bar started before the window is labelled on the first day")
	assert.False(t, cells[1].Bars[0].ShowLabel)
	assert.True(t, cells[2].Bars[0].ShowLabel)
	assert.False(t, cells[3].Bars[0].ShowLabel)
	assert.Empty(t, cells[6].Bars)
}

type fakeSource struct {
	in    Input
	loads int
}

func (f *fakeSource) ListProjects(context.Context) ([]core.Project, error) {
	f.loads++
	return f.in.Projects, nil
}

func (f *fakeSource) ListWorkers(context.Context, core.WorkerFilter) ([]core.Worker, error) {
	return f.in.Workers, nil
}

func (f *fakeSource) ListVehicles(context.Context) ([]core.Vehicle, error) {
	return f.in.Vehicles, nil
}

func (f *fakeSource) ListAssignments(context.Context, core.AssignmentFilter) ([]core.Assignment, error) {
	return f.in.Assignments, nil
}

func TestServiceBuildCachesUntilDataVersionChanges(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{in: workerInput()}
	mem := cache.NewMemory()
	svc := NewService(src, mem, time.Minute)
	q := Query{View: ViewWorkers, Mode: ModeWeek, Anchor: date(2026, 10, 16)}

	first, hit, err := svc.Build(ctx, q)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Týden 42 (Říjen), 2026", first.Label)
	assert.Equal(t, date(2026, 10, 9), first.Previous)
	assert.Equal(t, date(2026, 10, 23), first.Next)
	require.Len(t, first.Days, len(first.Rows))

	_, hit, err = svc.Build(ctx, q)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, src.loads)

	require.NoError(t, mem.Bump(ctx, cache.NamespaceData))
	_, hit, err = svc.Build(ctx, q)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, src.loads)
}

func TestCompareNames(t *testing.T) {
	assert.Negative(t, CompareNames("Ábel", "Zebra"))
	assert.Zero(t, CompareNames("novák", "Novák"))
}
