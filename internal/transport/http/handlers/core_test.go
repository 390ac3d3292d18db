package handlers_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"crewplan/internal/domain/audit"
	"crewplan/internal/domain/core"
	corehandler "crewplan/internal/transport/http/handlers/core"
)

// The rest of core.StoreAPI for fakeCore.

func (f *fakeCore) nextID(prefix string) string {
	return prefix + strconv.Itoa(len(f.projects)+len(f.workers)+len(f.vehicles)+len(f.assignments)+1)
}

func (f *fakeCore) CreateProject(_ context.Context, p core.Project) (string, error) {
	p.ID = f.nextID("p")
	f.projects = append(f.projects, p)
	return p.ID, nil
}

func (f *fakeCore) UpdateProject(_ context.Context, p core.Project) error {
	for i := range f.projects {
		if f.projects[i].ID == p.ID {
			f.projects[i] = p
			return nil
		}
	}
	return core.ErrProjectNotFound
}

func (f *fakeCore) DeleteProject(_ context.Context, id string) error {
	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return nil
		}
	}
	return core.ErrProjectNotFound
}

func (f *fakeCore) CreateWorker(_ context.Context, w core.Worker) (string, error) {
	w.ID = f.nextID("w")
	f.workers = append(f.workers, w)
	return w.ID, nil
}

func (f *fakeCore) UpdateWorker(_ context.Context, w core.Worker) error {
	for i := range f.workers {
		if f.workers[i].ID == w.ID {
			f.workers[i] = w
			return nil
		}
	}
	return core.ErrWorkerNotFound
}

func (f *fakeCore) DeleteWorker(_ context.Context, id string) error {
	for i := range f.workers {
		if f.workers[i].ID == id {
			f.workers = append(f.workers[:i], f.workers[i+1:]...)
			return nil
		}
	}
	return core.ErrWorkerNotFound
}

func (f *fakeCore) GetVehicle(_ context.Context, id string) (core.Vehicle, error) {
	for _, v := range f.vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return core.Vehicle{}, core.ErrVehicleNotFound
}

func (f *fakeCore) CreateVehicle(_ context.Context, v core.Vehicle) (string, error) {
	v.ID = f.nextID("v")
	f.vehicles = append(f.vehicles, v)
	return v.ID, nil
}

func (f *fakeCore) UpdateVehicle(_ context.Context, v core.Vehicle) error {
	for i := range f.vehicles {
		if f.vehicles[i].ID == v.ID {
			f.vehicles[i] = v
			return nil
		}
	}
	return core.ErrVehicleNotFound
}

func (f *fakeCore) DeleteVehicle(_ context.Context, id string) error {
	for i := range f.vehicles {
		if f.vehicles[i].ID == id {
			f.vehicles = append(f.vehicles[:i], f.vehicles[i+1:]...)
			return nil
		}
	}
	return core.ErrVehicleNotFound
}

func (f *fakeCore) GetAssignment(_ context.Context, id string) (core.Assignment, error) {
	for _, a := range f.assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return core.Assignment{}, core.ErrAssignmentNotFound
}

func (f *fakeCore) CreateAssignment(_ context.Context, a core.Assignment) (string, error) {
	a.ID = f.nextID("a")
	f.assignments = append(f.assignments, a)
	return a.ID, nil
}

func (f *fakeCore) UpdateAssignment(_ context.Context, a core.Assignment) error {
	for i := range f.assignments {
		if f.assignments[i].ID == a.ID {
			f.assignments[i] = a
			return nil
		}
	}
	return core.ErrAssignmentNotFound
}

func (f *fakeCore) DeleteAssignment(_ context.Context, id string) error {
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			f.assignments = append(f.assignments[:i], f.assignments[i+1:]...)
			return nil
		}
	}
	return core.ErrAssignmentNotFound
}

func newCoreFixture() (http.Handler, *fakeCore, *audit.Memory) {
	store := &fakeCore{
		projects: []core.Project{{ID: "p1", Name: "Hala Brno", Status: core.ProjectInProgress}},
		workers: []core.Worker{
			{ID: "w-alice", FirstName: "Alice", LastName: "Nováková", WorkerType: core.WorkerIndependent},
			{ID: "w-bob", FirstName: "Bob", LastName: "Dvořák", WorkerType: core.WorkerTeamLeader},
		},
		assignments: []core.Assignment{
			{ID: "a1", ProjectID: "p1", WorkerID: "w-alice"},
			{ID: "a2", ProjectID: "p1", WorkerID: "w-bob"},
		},
	}
	recorder := &audit.Memory{}
	return newRouter(corehandler.NewHandler(core.NewService(store), recorder)), store, recorder
}

func TestCoreMutationsAdminOnly(t *testing.T) {
	router, store, recorder := newCoreFixture()
	project := map[string]any{"name": "Sklad Olomouc", "status": "preparing"}

	rec, _ := do(t, router, call{method: http.MethodPost, path: "/api/v1/projects", token: "alice", body: project})
	expectStatus(t, rec, http.StatusForbidden)

	rec, _ = do(t, router, call{method: http.MethodPost, path: "/api/v1/projects", token: "admin", body: project})
	expectStatus(t, rec, http.StatusCreated)
	if len(store.projects) != 2 || !contains(recorder.Actions(), "core.project.create") {
		t.Fatalf("expected stored and audited project, got %d projects, actions %v", len(store.projects), recorder.Actions())
	}

	// An admin acting as an installer loses admin rights.
	rec, _ = do(t, router, call{method: http.MethodPost, path: "/api/v1/projects", token: "admin", actingAs: "w-alice", body: project})
	expectStatus(t, rec, http.StatusForbidden)

	rec, _ = do(t, router, call{method: http.MethodGet, path: "/api/v1/projects", token: "alice"})
	expectStatus(t, rec, http.StatusOK)
}

func TestCoreValidation(t *testing.T) {
	router, _, _ := newCoreFixture()
	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{"bad status", "/api/v1/projects", map[string]any{"name": "X", "status": "done"}},
		{"dates reversed", "/api/v1/projects", map[string]any{"name": "X", "status": "preparing", "startDate": "2026-10-20T00:00:00Z", "endDate": "2026-10-10T00:00:00Z"}},
		{"subcontractor without leader", "/api/v1/workers", map[string]any{"firstName": "Sub", "lastName": "Bez", "workerType": "subcontractor"}},
		{"leader is not a team leader", "/api/v1/workers", map[string]any{"firstName": "Sub", "lastName": "Bez", "workerType": "subcontractor", "teamLeaderId": "w-alice"}},
		{"assignment without target", "/api/v1/assignments", map[string]any{"projectId": "p1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, router, call{method: http.MethodPost, path: tc.path, token: "admin", body: tc.body})
			expectStatus(t, rec, http.StatusBadRequest)
			if env.Error == nil || env.Error.Code != "validation_error" {
				t.Fatalf("expected validation_error, got %s", rec.Body.String())
			}
		})
	}

	rec, _ := do(t, router, call{
		method: http.MethodPost,
		path:   "/api/v1/workers",
		token:  "admin",
		body:   map[string]any{"firstName": "Sub", "lastName": "Dodavatel", "workerType": "subcontractor", "teamLeaderId": "w-bob"},
	})
	expectStatus(t, rec, http.StatusCreated)
}

func TestInstallerSeesOwnWorkerAndAssignments(t *testing.T) {
	router, _, _ := newCoreFixture()

	rec, _ := do(t, router, call{method: http.MethodGet, path: "/api/v1/workers/w-alice", token: "alice"})
	expectStatus(t, rec, http.StatusOK)
	rec, _ = do(t, router, call{method: http.MethodGet, path: "/api/v1/workers/w-bob", token: "alice"})
	expectStatus(t, rec, http.StatusForbidden)
	rec, _ = do(t, router, call{method: http.MethodGet, path: "/api/v1/workers", token: "alice"})
	expectStatus(t, rec, http.StatusForbidden)

	rec, env := do(t, router, call{method: http.MethodGet, path: "/api/v1/assignments?workerId=w-bob", token: "alice"})
	expectStatus(t, rec, http.StatusOK)
	list := decode[[]core.Assignment](t, env)
	if len(list) != 1 || list[0].WorkerID != "w-alice" {
		t.Fatalf("expected only own assignment, got %+v", list)
	}
}

func TestUnlinkedInstallerCannotListAssignments(t *testing.T) {
	router, _, _ := newCoreFixture()
	rec, env := do(t, router, call{method: http.MethodGet, path: "/api/v1/assignments", token: "orphan"})
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != "worker_required" {
		t.Fatalf("expected worker_required, got %s", rec.Body.String())
	}
}
