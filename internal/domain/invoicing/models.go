package invoicing

import "time"

// LineItem is one priced row of an invoice. Items are a snapshot: once an
// invoice exists its quantities never follow later timesheet edits.
type LineItem struct {
	WorkerID    string  `json:"workerId,omitempty"`
	WorkerName  string  `json:"workerName,omitempty"`
	Kind        Kind    `json:"kind,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

type Invoice struct {
	ID                string     `json:"id"`
	InvoiceNumber     string     `json:"invoiceNumber"`
	ProjectID         string     `json:"projectId"`
	WorkerID          string     `json:"workerId"`
	Status            Status     `json:"status"`
	Items             []LineItem `json:"items"`
	TotalAmount       float64    `json:"totalAmount"`
	VATAmount         float64    `json:"vatAmount"`
	TotalWithVAT      float64    `json:"totalWithVat"`
	IssueDate         time.Time  `json:"issueDate"`
	DueDate           time.Time  `json:"dueDate"`
	OtherCostsComment string     `json:"otherCostsComment,omitempty"`
	RejectionReason   string     `json:"rejectionReason,omitempty"`
	PDFPath           string     `json:"-"`
	CreatedBy         string     `json:"createdBy,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// HasPDF reports whether the rendered document is available.
func (i Invoice) HasPDF() bool {
	return i.PDFPath != ""
}

// TransportRates is the per-kilometer price list, one pair per zone.
type TransportRates struct {
	DomesticDriverKm      float64   `json:"domesticDriverKm" validate:"gte=0"`
	DomesticCrewKm        float64   `json:"domesticCrewKm" validate:"gte=0"`
	InternationalDriverKm float64   `json:"internationalDriverKm" validate:"gte=0"`
	InternationalCrewKm   float64   `json:"internationalCrewKm" validate:"gte=0"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// KmRates are the rates chosen for one project.
type KmRates struct {
	Driver   float64 `json:"driver"`
	Crew     float64 `json:"crew"`
	Domestic bool    `json:"domestic"`
}

type Totals struct {
	TotalAmount  float64 `json:"totalAmount"`
	VATAmount    float64 `json:"vatAmount"`
	TotalWithVAT float64 `json:"totalWithVat"`
}

type Filter struct {
	ProjectID string
	WorkerID  string
	Status    Status
}

// Preview is what the create form shows before anything is persisted.
type Preview struct {
	ProjectID string     `json:"projectId"`
	WorkerID  string     `json:"workerId"`
	Rates     KmRates    `json:"rates"`
	Items     []LineItem `json:"items"`
	Totals    Totals     `json:"totals"`
	Warnings  []string   `json:"warnings"`
}

type CreateRequest struct {
	ProjectID         string  `json:"projectId" validate:"required"`
	OtherCosts        float64 `json:"otherCosts" validate:"gte=0"`
	OtherCostsComment string  `json:"otherCostsComment"`
	Draft             bool    `json:"draft"`
}
