package core

import "context"

type StoreAPI interface {
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, projectID string) (Project, error)
	CreateProject(ctx context.Context, project Project) (string, error)
	UpdateProject(ctx context.Context, project Project) error
	DeleteProject(ctx context.Context, projectID string) error

	ListWorkers(ctx context.Context, filter WorkerFilter) ([]Worker, error)
	GetWorker(ctx context.Context, workerID string) (Worker, error)
	CreateWorker(ctx context.Context, worker Worker) (string, error)
	UpdateWorker(ctx context.Context, worker Worker) error
	DeleteWorker(ctx context.Context, workerID string) error

	ListVehicles(ctx context.Context) ([]Vehicle, error)
	GetVehicle(ctx context.Context, vehicleID string) (Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle Vehicle) (string, error)
	UpdateVehicle(ctx context.Context, vehicle Vehicle) error
	DeleteVehicle(ctx context.Context, vehicleID string) error

	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	GetAssignment(ctx context.Context, assignmentID string) (Assignment, error)
	CreateAssignment(ctx context.Context, assignment Assignment) (string, error)
	UpdateAssignment(ctx context.Context, assignment Assignment) error
	DeleteAssignment(ctx context.Context, assignmentID string) error
}
