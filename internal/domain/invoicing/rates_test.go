package invoicing

import (
	"strings"
	"testing"
	"time"

	"crewplan/internal/domain/core"
)

func TestIsDomestic(t *testing.T) {
	cases := map[string]bool{
		"":                 true,
		"  ":               true,
		"Czech Republic":   true,
		"CZ":               true,
		"Česko":            true,
		"Česká republika":  true,
		"česká Republika ": true,
		"Germany":          false,
		"Slovensko":        false,
	}
	for country, want := range cases {
		if got := IsDomestic(country, ""); got != want {
			t.Fatalf("IsDomestic(%q) = %v, want %v", country, got, want)
		}
	}
	if !IsDomestic("Tschechien", "Tschechien") {
		t.Fatalf("expected configured name to count as domestic")
	}
}

func TestRatesFor(t *testing.T) {
	rates := TransportRates{DomesticDriverKm: 10, DomesticCrewKm: 5, InternationalDriverKm: 14, InternationalCrewKm: 7}
	got := RatesFor(core.Project{Country: "Česká republika"}, rates, "")
	if got != (KmRates{Driver: 10, Crew: 5, Domestic: true}) {
		t.Fatalf("unexpected domestic rates %+v", got)
	}
	got = RatesFor(core.Project{Country: "Austria"}, rates, "")
	if got != (KmRates{Driver: 14, Crew: 7}) {
		t.Fatalf("unexpected international rates %+v", got)
	}
}

func TestComputeTotals(t *testing.T) {
	items := []LineItem{{TotalPrice: 2400}, {TotalPrice: 0.1}, {TotalPrice: 0.2}}
	totals := ComputeTotals(items, 0.21)
	if totals.TotalAmount != 2400.3 {
		t.Fatalf("expected 2400.3, got %v", totals.TotalAmount)
	}
	if totals.VATAmount != 504.06 {
		t.Fatalf("expected VAT 504.06, got %v", totals.VATAmount)
	}
	if totals.TotalWithVAT != 2904.36 {
		t.Fatalf("expected 2904.36, got %v", totals.TotalWithVAT)
	}
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	totals := ComputeTotals([]LineItem{{TotalPrice: 0.5}}, 0.21)
	// 0.105 -> 0.11
	if totals.VATAmount != 0.11 {
		t.Fatalf("expected 0.11, got %v", totals.VATAmount)
	}
}

func TestNewInvoiceNumber(t *testing.T) {
	number, err := NewInvoiceNumber(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("number: %v", err)
	}
	if !strings.HasPrefix(number, "OBJ-202603-") || len(number) != len("OBJ-202603-")+8 {
		t.Fatalf("unexpected number %q", number)
	}
	for _, r := range strings.TrimPrefix(number, "OBJ-202603-") {
		if !strings.ContainsRune(numberAlphabet, r) {
			t.Fatalf("unexpected character %q in %q", r, number)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusDraft, StatusPendingApproval},
		{StatusPendingApproval, StatusApproved},
		{StatusPendingApproval, StatusRejected},
		{StatusApproved, StatusPaid},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]Status{
		{StatusDraft, StatusApproved},
		{StatusRejected, StatusDraft},
		{StatusPaid, StatusApproved},
		{StatusRejected, StatusPendingApproval},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}
}

func TestRenderPDF(t *testing.T) {
	inv := Invoice{
		InvoiceNumber: "OBJ-202603-ABCDEFGH",
		Status:        StatusPendingApproval,
		Items: []LineItem{
			{WorkerName: "Jan Novák", Description: DescriptionLabor, Quantity: 8, Unit: UnitHours, UnitPrice: 300, TotalPrice: 2400},
		},
		TotalAmount:       2400,
		VATAmount:         504,
		TotalWithVAT:      2904,
		OtherCostsComment: "Parkovné",
	}
	data, err := RenderPDF(inv, core.Project{Name: "Hala Kladno"}, core.Worker{FirstName: "Jan", LastName: "Novák"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("expected PDF output")
	}
}

func TestFold(t *testing.T) {
	if got := fold("Přeprava - řidič"); got != "Preprava - ridic" {
		t.Fatalf("unexpected fold %q", got)
	}
}
