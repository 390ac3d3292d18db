package invoicing

// Kind tags a line item so re-aggregation never depends on display text.
type Kind string

const (
	KindLabor           Kind = "labor"
	KindDriverTransport Kind = "driver_transport"
	KindCrewTransport   Kind = "crew_transport"
	KindOther           Kind = "other"
)

// Descriptions and units written on derived items. Invoices stored before
// items carried a kind are still classified by these exact strings.
const (
	DescriptionLabor           = "Cena za dílo"
	DescriptionDriverTransport = "Přeprava - řidič"
	DescriptionCrewTransport   = "Přeprava - posádka"
	DescriptionOther           = "Ostatní náklady"

	UnitHours  = "hod"
	UnitKm     = "km"
	UnitPieces = "ks"
)

type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusPaid            Status = "paid"
)

var statusLabels = map[Status]string{
	StatusDraft:           "Koncept",
	StatusPendingApproval: "Čeká na schválení",
	StatusApproved:        "Schváleno",
	StatusRejected:        "Zamítnuto",
	StatusPaid:            "Zaplaceno",
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

var transitions = map[Status][]Status{
	StatusDraft:           {StatusPendingApproval},
	StatusPendingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusPaid},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

const (
	DefaultVATRate = 0.21
	PaymentDueDays = 14
	JobRenderPDF   = "invoice_pdf"
)
