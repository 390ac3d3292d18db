package core

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	return s.store.ListProjects(ctx)
}

func (s *Service) GetProject(ctx context.Context, projectID string) (Project, error) {
	return s.store.GetProject(ctx, projectID)
}

func (s *Service) CreateProject(ctx context.Context, project Project) (string, error) {
	if err := checkDateOrder(project.StartDate, project.EndDate); err != nil {
		return "", err
	}
	project.Country = strings.TrimSpace(project.Country)
	return s.store.CreateProject(ctx, project)
}

func (s *Service) UpdateProject(ctx context.Context, project Project) error {
	if err := checkDateOrder(project.StartDate, project.EndDate); err != nil {
		return err
	}
	project.Country = strings.TrimSpace(project.Country)
	return s.store.UpdateProject(ctx, project)
}

func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	return s.store.DeleteProject(ctx, projectID)
}

func (s *Service) ListWorkers(ctx context.Context, filter WorkerFilter) ([]Worker, error) {
	return s.store.ListWorkers(ctx, filter)
}

func (s *Service) GetWorker(ctx context.Context, workerID string) (Worker, error) {
	return s.store.GetWorker(ctx, workerID)
}

func (s *Service) CreateWorker(ctx context.Context, worker Worker) (string, error) {
	worker = normalizeWorker(worker)
	if err := s.checkTeamLeader(ctx, worker); err != nil {
		return "", err
	}
	return s.store.CreateWorker(ctx, worker)
}

func (s *Service) UpdateWorker(ctx context.Context, worker Worker) error {
	worker = normalizeWorker(worker)
	if err := s.checkTeamLeader(ctx, worker); err != nil {
		return err
	}
	return s.store.UpdateWorker(ctx, worker)
}

func (s *Service) DeleteWorker(ctx context.Context, workerID string) error {
	return s.store.DeleteWorker(ctx, workerID)
}

// Subcontractors returns the workers invoiced through the given team leader.
func (s *Service) Subcontractors(ctx context.Context, teamLeaderID string) ([]Worker, error) {
	return s.store.ListWorkers(ctx, WorkerFilter{TeamLeaderID: teamLeaderID, WorkerType: WorkerSubcontractor})
}

func (s *Service) checkTeamLeader(ctx context.Context, worker Worker) error {
	if worker.WorkerType != WorkerSubcontractor {
		if worker.TeamLeaderID != "" {
			return ErrTeamLeaderNotAllowed
		}
		return nil
	}
	if worker.TeamLeaderID == "" {
		return ErrTeamLeaderRequired
	}
	if worker.TeamLeaderID == worker.ID {
		return ErrTeamLeaderInvalid
	}
	leader, err := s.store.GetWorker(ctx, worker.TeamLeaderID)
	if errors.Is(err, ErrWorkerNotFound) {
		return ErrTeamLeaderInvalid
	}
	if err != nil {
		return err
	}
	if leader.WorkerType != WorkerTeamLeader {
		return ErrTeamLeaderInvalid
	}
	return nil
}

func normalizeWorker(worker Worker) Worker {
	worker.FirstName = strings.TrimSpace(worker.FirstName)
	worker.LastName = strings.TrimSpace(worker.LastName)
	worker.TeamLeaderID = strings.TrimSpace(worker.TeamLeaderID)
	if worker.Availability == "" {
		worker.Availability = AvailabilityAvailable
	}
	if worker.Specializations == nil {
		worker.Specializations = []string{}
	}
	return worker
}

func (s *Service) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	return s.store.ListVehicles(ctx)
}

func (s *Service) GetVehicle(ctx context.Context, vehicleID string) (Vehicle, error) {
	return s.store.GetVehicle(ctx, vehicleID)
}

func (s *Service) CreateVehicle(ctx context.Context, vehicle Vehicle) (string, error) {
	vehicle.LicensePlate = strings.ToUpper(strings.TrimSpace(vehicle.LicensePlate))
	return s.store.CreateVehicle(ctx, vehicle)
}

func (s *Service) UpdateVehicle(ctx context.Context, vehicle Vehicle) error {
	vehicle.LicensePlate = strings.ToUpper(strings.TrimSpace(vehicle.LicensePlate))
	return s.store.UpdateVehicle(ctx, vehicle)
}

func (s *Service) DeleteVehicle(ctx context.Context, vehicleID string) error {
	return s.store.DeleteVehicle(ctx, vehicleID)
}

func (s *Service) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	return s.store.ListAssignments(ctx, filter)
}

func (s *Service) GetAssignment(ctx context.Context, assignmentID string) (Assignment, error) {
	return s.store.GetAssignment(ctx, assignmentID)
}

func (s *Service) CreateAssignment(ctx context.Context, assignment Assignment) (string, error) {
	if err := s.checkAssignment(ctx, assignment); err != nil {
		return "", err
	}
	return s.store.CreateAssignment(ctx, assignment)
}

func (s *Service) UpdateAssignment(ctx context.Context, assignment Assignment) error {
	if err := s.checkAssignment(ctx, assignment); err != nil {
		return err
	}
	return s.store.UpdateAssignment(ctx, assignment)
}

func (s *Service) DeleteAssignment(ctx context.Context, assignmentID string) error {
	return s.store.DeleteAssignment(ctx, assignmentID)
}

// Overlapping assignments for the same worker and project are allowed.
func (s *Service) checkAssignment(ctx context.Context, assignment Assignment) error {
	if assignment.WorkerID == "" && assignment.VehicleID == "" {
		return ErrAssignmentTarget
	}
	if err := checkDateOrder(assignment.StartDate, assignment.EndDate); err != nil {
		return err
	}
	if _, err := s.store.GetProject(ctx, assignment.ProjectID); err != nil {
		return err
	}
	if assignment.WorkerID != "" {
		if _, err := s.store.GetWorker(ctx, assignment.WorkerID); err != nil {
			return err
		}
	}
	if assignment.VehicleID != "" {
		if _, err := s.store.GetVehicle(ctx, assignment.VehicleID); err != nil {
			return err
		}
	}
	return nil
}

func checkDateOrder(start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	if end.Before(*start) {
		return ErrDateOrder
	}
	return nil
}
