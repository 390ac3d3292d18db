package certificates

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type rowsQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Store) List(ctx context.Context, workerID string) ([]Certificate, error) {
	return listCertificates(ctx, s.DB, workerID)
}

func listCertificates(ctx context.Context, q rowsQuerier, workerID string) ([]Certificate, error) {
	rows, err := q.Query(ctx, `
    SELECT id, worker_id, name, issued_on, valid_until, COALESCE(file_path, ''), COALESCE(notes, ''), created_at, updated_at
    FROM certificates
    WHERE worker_id = $1
    ORDER BY created_at
  `, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Certificate, 0)
	for rows.Next() {
		var c Certificate
		if err := rows.Scan(&c.ID, &c.WorkerID, &c.Name, &c.IssuedOn, &c.ValidUntil, &c.FilePath, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) FileInUse(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM certificates WHERE file_path = $1)`, path).Scan(&exists)
	return exists, err
}

// ApplyChanges writes the whole batch in one transaction and returns the
// worker's certificates as stored afterwards.
func (s *Store) ApplyChanges(ctx context.Context, workerID string, changes Changes) ([]Certificate, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, id := range changes.Delete {
		tag, err := tx.Exec(ctx, `DELETE FROM certificates WHERE id = $1 AND worker_id = $2`, id, workerID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrCertificateNotFound
		}
	}
	for _, c := range changes.Update {
		tag, err := tx.Exec(ctx, `
      UPDATE certificates
      SET name = $1, issued_on = $2, valid_until = $3, file_path = $4, notes = $5, updated_at = now()
      WHERE id = $6 AND worker_id = $7
    `, c.Name, c.IssuedOn, c.ValidUntil, nullIfEmpty(c.FilePath), nullIfEmpty(c.Notes), c.ID, workerID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrCertificateNotFound
		}
	}
	for _, c := range changes.Create {
		if _, err := tx.Exec(ctx, `
      INSERT INTO certificates (worker_id, name, issued_on, valid_until, file_path, notes)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, workerID, c.Name, c.IssuedOn, c.ValidUntil, nullIfEmpty(c.FilePath), nullIfEmpty(c.Notes)); err != nil {
			return nil, err
		}
	}

	saved, err := listCertificates(ctx, tx, workerID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
