package invoicing

import (
	"context"
	"encoding/json"
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

// querier is satisfied by the pool and by a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const invoiceColumns = `id, invoice_number, project_id, worker_id, status, items,
           total_amount, vat_amount, total_with_vat, issue_date, due_date,
           COALESCE(other_costs_comment, ''), COALESCE(rejection_reason, ''), COALESCE(pdf_path, ''),
           COALESCE(created_by::text, ''), created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var items []byte
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ProjectID, &inv.WorkerID, &inv.Status, &items,
		&inv.TotalAmount, &inv.VATAmount, &inv.TotalWithVAT, &inv.IssueDate, &inv.DueDate,
		&inv.OtherCostsComment, &inv.RejectionReason, &inv.PDFPath,
		&inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	inv.Items = []LineItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return Invoice{}, err
		}
	}
	return inv, nil
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Invoice, error) {
	return listInvoices(ctx, s.DB, filter)
}

func listInvoices(ctx context.Context, q querier, filter Filter) ([]Invoice, error) {
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
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *Store) Get(ctx context.Context, invoiceID string) (Invoice, error) {
	inv, err := scanInvoice(s.DB.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, invoiceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

func (s *Store) CreateLocked(ctx context.Context, projectID string, build func(existing []Invoice) (Invoice, error)) (Invoice, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Invoice{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "invoice:"+projectID); err != nil {
		return Invoice{}, err
	}
	existing, err := listInvoices(ctx, tx, Filter{ProjectID: projectID})
	if err != nil {
		return Invoice{}, err
	}
	inv, err := build(existing)
	if err != nil {
		return Invoice{}, err
	}
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return Invoice{}, err
	}
	err = tx.QueryRow(ctx, `
    INSERT INTO invoices (invoice_number, project_id, worker_id, status, items, total_amount, vat_amount,
                          total_with_vat, issue_date, due_date, other_costs_comment, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id, created_at, updated_at
  `, inv.InvoiceNumber, inv.ProjectID, inv.WorkerID, inv.Status, items, inv.TotalAmount, inv.VATAmount,
		inv.TotalWithVAT, inv.IssueDate, inv.DueDate, nullIfEmpty(inv.OtherCostsComment), nullIfEmpty(inv.CreatedBy),
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// UpdateStatus moves the invoice only if it is still in the expected status.
func (s *Store) UpdateStatus(ctx context.Context, invoiceID string, from, to Status, reason string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE invoices
    SET status = $1, rejection_reason = $2, updated_at = now()
    WHERE id = $3 AND status = $4
  `, to, nullIfEmpty(reason), invoiceID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *Store) SetPDFPath(ctx context.Context, invoiceID, path string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE invoices SET pdf_path = $1 WHERE id = $2`, path, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) DeleteDraft(ctx context.Context, invoiceID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND status = $2`, invoiceID, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotDraft
	}
	return nil
}

func (s *Store) GetTransportRates(ctx context.Context) (TransportRates, error) {
	var r TransportRates
	err := s.DB.QueryRow(ctx, `
    SELECT domestic_driver_km, domestic_crew_km, international_driver_km, international_crew_km, updated_at
    FROM transport_rates
    WHERE id = 1
  `).Scan(&r.DomesticDriverKm, &r.DomesticCrewKm, &r.InternationalDriverKm, &r.InternationalCrewKm, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TransportRates{}, nil
	}
	return r, err
}

func (s *Store) UpdateTransportRates(ctx context.Context, r TransportRates) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO transport_rates (id, domestic_driver_km, domestic_crew_km, international_driver_km, international_crew_km)
    VALUES (1,$1,$2,$3,$4)
    ON CONFLICT (id) DO UPDATE
    SET domestic_driver_km = EXCLUDED.domestic_driver_km,
        domestic_crew_km = EXCLUDED.domestic_crew_km,
        international_driver_km = EXCLUDED.international_driver_km,
        international_crew_km = EXCLUDED.international_crew_km,
        updated_at = now()
  `, r.DomesticDriverKm, r.DomesticCrewKm, r.InternationalDriverKm, r.InternationalCrewKm)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
