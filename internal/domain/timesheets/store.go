package timesheets

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const entryColumns = `id, worker_id, project_id, work_date, hours_worked, driver_kilometers, crew_kilometers,
           status, COALESCE(notes, ''), COALESCE(rejection_reason, ''), created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.WorkerID, &e.ProjectID, &e.Date, &e.HoursWorked, &e.DriverKilometers, &e.CrewKilometers,
		&e.Status, &e.Notes, &e.RejectionReason, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (s *Store) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	clauses := []string{}
	args := []any{}
	if len(filter.WorkerIDs) > 0 {
		args = append(args, filter.WorkerIDs)
		clauses = append(clauses, "worker_id = ANY($"+strconv.Itoa(len(args))+"::uuid[])")
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		clauses = append(clauses, "project_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, "work_date >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, "work_date <= $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + entryColumns + ` FROM timesheet_entries`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY work_date DESC, created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) Get(ctx context.Context, entryID string) (Entry, error) {
	entry, err := scanEntry(s.DB.QueryRow(ctx, `SELECT `+entryColumns+` FROM timesheet_entries WHERE id = $1`, entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return entry, err
}

func (s *Store) LoggedHours(ctx context.Context, workerID string, date time.Time, excludeID string) (float64, error) {
	return loggedHours(ctx, s.DB, workerID, date, excludeID)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loggedHours(ctx context.Context, q rowQuerier, workerID string, date time.Time, excludeID string) (float64, error) {
	var total float64
	err := q.QueryRow(ctx, `
    SELECT COALESCE(SUM(hours_worked), 0)
    FROM timesheet_entries
    WHERE worker_id = $1 AND work_date = $2 AND ($3::uuid IS NULL OR id <> $3::uuid)
  `, workerID, Day(date), nullIfEmpty(excludeID)).Scan(&total)
	return total, err
}

// lockDay takes a transaction-scoped lock on one worker's day.
func lockDay(ctx context.Context, tx pgx.Tx, workerID string, date time.Time) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "timesheet:"+workerID+":"+Day(date).Format("2006-01-02"))
	return err
}

func (s *Store) withinCap(ctx context.Context, fn func(tx pgx.Tx) error, e Entry) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockDay(ctx, tx, e.WorkerID, e.Date); err != nil {
		return err
	}
	logged, err := loggedHours(ctx, tx, e.WorkerID, e.Date, e.ID)
	if err != nil {
		return err
	}
	if !WithinDailyCap(logged, e.HoursWorked) {
		return ErrDailyHoursExceeded
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Create(ctx context.Context, e Entry) (Entry, error) {
	err := s.withinCap(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
      INSERT INTO timesheet_entries (worker_id, project_id, work_date, hours_worked, driver_kilometers, crew_kilometers, status, notes)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      RETURNING id, created_at, updated_at
    `, e.WorkerID, e.ProjectID, Day(e.Date), e.HoursWorked, e.DriverKilometers, e.CrewKilometers, e.Status, nullIfEmpty(e.Notes),
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	}, e)
	if err != nil {
		return Entry{}, err
	}
	e.Date = Day(e.Date)
	return e, nil
}

// Update rewrites an entry unless it has been approved in the meantime, in
// which case it returns ErrEntryLocked.
func (s *Store) Update(ctx context.Context, e Entry) error {
	return s.withinCap(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE timesheet_entries
      SET project_id = $1, work_date = $2, hours_worked = $3, driver_kilometers = $4, crew_kilometers = $5,
          status = $6, notes = $7, rejection_reason = $8, updated_at = now()
      WHERE id = $9 AND status <> $10
    `, e.ProjectID, Day(e.Date), e.HoursWorked, e.DriverKilometers, e.CrewKilometers,
			e.Status, nullIfEmpty(e.Notes), nullIfEmpty(e.RejectionReason), e.ID, StatusApproved)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM timesheet_entries WHERE id = $1)`, e.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrEntryLocked
		}
		return ErrEntryNotFound
	}, e)
}

func (s *Store) UpdateStatus(ctx context.Context, entryID string, from, to Status, reason string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE timesheet_entries
    SET status = $1, rejection_reason = $2, updated_at = now()
    WHERE id = $3 AND status = $4
  `, to, nullIfEmpty(reason), entryID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, entryID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM timesheet_entries WHERE id = $1 AND status <> $2`, entryID, StatusApproved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
