package invoicing

import "context"

type StoreAPI interface {
	List(ctx context.Context, filter Filter) ([]Invoice, error)
	Get(ctx context.Context, invoiceID string) (Invoice, error)
	// CreateLocked serializes invoice creation per project. build receives
	// every invoice stored for the project at the time the lock was taken.
	CreateLocked(ctx context.Context, projectID string, build func(existing []Invoice) (Invoice, error)) (Invoice, error)
	UpdateStatus(ctx context.Context, invoiceID string, from, to Status, reason string) error
	SetPDFPath(ctx context.Context, invoiceID, path string) error
	DeleteDraft(ctx context.Context, invoiceID string) error
	GetTransportRates(ctx context.Context) (TransportRates, error)
	UpdateTransportRates(ctx context.Context, rates TransportRates) error
}
