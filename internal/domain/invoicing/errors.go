package invoicing

import "errors"

var (
	ErrInvoiceNotFound            = errors.New("invoice not found")
	ErrSubcontractorCannotInvoice = errors.New("subcontractors cannot create invoices")
	ErrOtherCostsComment          = errors.New("other costs require a comment")
	ErrOtherCostsNegative         = errors.New("other costs must not be negative")
	ErrNothingToInvoice           = errors.New("no billable work remains for this project")
	ErrInvalidTransition          = errors.New("invoice status change not allowed")
	ErrNotDraft                   = errors.New("only draft invoices can be deleted")
	ErrRejectionReason            = errors.New("rejection reason is required")
	ErrNotOwner                   = errors.New("invoice belongs to another worker")
)
