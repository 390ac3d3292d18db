package core

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const projectColumns = `id, name, COALESCE(location, ''), status, COALESCE(priority, ''),
           start_date, end_date, COALESCE(description, ''), COALESCE(country, ''), created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Location, &p.Status, &p.Priority,
		&p.StartDate, &p.EndDate, &p.Description, &p.Country, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, projectID string) (Project, error) {
	project, err := scanProject(s.DB.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	}
	return project, err
}

func (s *Store) CreateProject(ctx context.Context, p Project) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO projects (name, location, status, priority, start_date, end_date, description, country)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, p.Name, p.Location, p.Status, p.Priority, p.StartDate, p.EndDate, p.Description, p.Country).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateProject(ctx context.Context, p Project) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE projects
    SET name = $1, location = $2, status = $3, priority = $4, start_date = $5, end_date = $6,
        description = $7, country = $8, updated_at = now()
    WHERE id = $9
  `, p.Name, p.Location, p.Status, p.Priority, p.StartDate, p.EndDate, p.Description, p.Country, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM projects WHERE id = $1", projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

const workerColumns = `id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''),
           COALESCE(seniority, ''), availability, worker_type, COALESCE(team_leader_id::text, ''),
           hourly_rate_domestic, hourly_rate_international, specializations, created_at, updated_at`

func scanWorker(row pgx.Row) (Worker, error) {
	var w Worker
	err := row.Scan(&w.ID, &w.FirstName, &w.LastName, &w.Email, &w.Phone,
		&w.Seniority, &w.Availability, &w.WorkerType, &w.TeamLeaderID,
		&w.HourlyRateDomestic, &w.HourlyRateInternational, &w.Specializations, &w.CreatedAt, &w.UpdatedAt)
	if w.Specializations == nil {
		w.Specializations = []string{}
	}
	return w, err
}

func (s *Store) ListWorkers(ctx context.Context, filter WorkerFilter) ([]Worker, error) {
	clauses := []string{}
	args := []any{}
	if filter.TeamLeaderID != "" {
		args = append(args, filter.TeamLeaderID)
		clauses = append(clauses, "team_leader_id = $"+strconv.Itoa(len(args)))
	}
	if filter.WorkerType != "" {
		args = append(args, filter.WorkerType)
		clauses = append(clauses, "worker_type = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + workerColumns + ` FROM workers`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY last_name, first_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := make([]Worker, 0)
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}
	return workers, rows.Err()
}

func (s *Store) GetWorker(ctx context.Context, workerID string) (Worker, error) {
	worker, err := scanWorker(s.DB.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, workerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Worker{}, ErrWorkerNotFound
	}
	return worker, err
}

func (s *Store) CreateWorker(ctx context.Context, w Worker) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO workers (first_name, last_name, email, phone, seniority, availability, worker_type,
                         team_leader_id, hourly_rate_domestic, hourly_rate_international, specializations)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id
  `, w.FirstName, w.LastName, nullIfEmpty(w.Email), w.Phone, nullIfEmpty(string(w.Seniority)), w.Availability, w.WorkerType,
		nullIfEmpty(w.TeamLeaderID), w.HourlyRateDomestic, w.HourlyRateInternational, w.Specializations).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateWorker(ctx context.Context, w Worker) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE workers
    SET first_name = $1, last_name = $2, email = $3, phone = $4, seniority = $5, availability = $6,
        worker_type = $7, team_leader_id = $8, hourly_rate_domestic = $9, hourly_rate_international = $10,
        specializations = $11, updated_at = now()
    WHERE id = $12
  `, w.FirstName, w.LastName, nullIfEmpty(w.Email), w.Phone, nullIfEmpty(string(w.Seniority)), w.Availability, w.WorkerType,
		nullIfEmpty(w.TeamLeaderID), w.HourlyRateDomestic, w.HourlyRateInternational, w.Specializations, w.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkerNotFound
	}
	return nil
}

func (s *Store) DeleteWorker(ctx context.Context, workerID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM workers WHERE id = $1", workerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkerNotFound
	}
	return nil
}

func (s *Store) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, brand_model, license_plate, status, created_at, updated_at
    FROM vehicles
    ORDER BY brand_model
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := make([]Vehicle, 0)
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.BrandModel, &v.LicensePlate, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (s *Store) GetVehicle(ctx context.Context, vehicleID string) (Vehicle, error) {
	var v Vehicle
	err := s.DB.QueryRow(ctx, `
    SELECT id, brand_model, license_plate, status, created_at, updated_at
    FROM vehicles
    WHERE id = $1
  `, vehicleID).Scan(&v.ID, &v.BrandModel, &v.LicensePlate, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, ErrVehicleNotFound
	}
	return v, err
}

func (s *Store) CreateVehicle(ctx context.Context, v Vehicle) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO vehicles (brand_model, license_plate, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, v.BrandModel, v.LicensePlate, v.Status).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateVehicle(ctx context.Context, v Vehicle) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE vehicles SET brand_model = $1, license_plate = $2, status = $3, updated_at = now()
    WHERE id = $4
  `, v.BrandModel, v.LicensePlate, v.Status, v.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

func (s *Store) DeleteVehicle(ctx context.Context, vehicleID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM vehicles WHERE id = $1", vehicleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

const assignmentColumns = `id, project_id, COALESCE(worker_id::text, ''), COALESCE(vehicle_id::text, ''),
           start_date, end_date, COALESCE(role, ''), hourly_rate, created_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.ProjectID, &a.WorkerID, &a.VehicleID, &a.StartDate, &a.EndDate, &a.Role, &a.HourlyRate, &a.CreatedAt)
	return a, err
}

func (s *Store) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	clauses := []string{}
	args := []any{}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		clauses = append(clauses, "project_id = $"+strconv.Itoa(len(args)))
	}
	if filter.WorkerID != "" {
		args = append(args, filter.WorkerID)
		clauses = append(clauses, "worker_id = $"+strconv.Itoa(len(args)))
	}
	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		clauses = append(clauses, "vehicle_id = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + assignmentColumns + ` FROM assignments`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_date NULLS LAST, created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]Assignment, 0)
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

func (s *Store) GetAssignment(ctx context.Context, assignmentID string) (Assignment, error) {
	assignment, err := scanAssignment(s.DB.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, assignmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return assignment, err
}

func (s *Store) CreateAssignment(ctx context.Context, a Assignment) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO assignments (project_id, worker_id, vehicle_id, start_date, end_date, role, hourly_rate)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, a.ProjectID, nullIfEmpty(a.WorkerID), nullIfEmpty(a.VehicleID), a.StartDate, a.EndDate, a.Role, a.HourlyRate).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateAssignment(ctx context.Context, a Assignment) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE assignments
    SET project_id = $1, worker_id = $2, vehicle_id = $3, start_date = $4, end_date = $5, role = $6, hourly_rate = $7
    WHERE id = $8
  `, a.ProjectID, nullIfEmpty(a.WorkerID), nullIfEmpty(a.VehicleID), a.StartDate, a.EndDate, a.Role, a.HourlyRate, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (s *Store) DeleteAssignment(ctx context.Context, assignmentID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM assignments WHERE id = $1", assignmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
