package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"crewplan/internal/domain/audit"
	"crewplan/internal/domain/core"
	"crewplan/internal/domain/invoicing"
	"crewplan/internal/domain/timesheets"
	"crewplan/internal/platform/metrics"
	"crewplan/internal/platform/storage"
	invoicinghandler "crewplan/internal/transport/http/handlers/invoicing"
)

// inlineQueue runs jobs as soon as they are queued. With full set it drops
// them instead.
type inlineQueue struct {
	errs []error
	full bool
}

func (q *inlineQueue) Enqueue(_ string, run func(context.Context) (any, error)) {
	if q.full {
		return
	}
	if _, err := run(context.Background()); err != nil {
		q.errs = append(q.errs, err)
	}
}

type invoiceFixture struct {
	router  http.Handler
	store   *invoiceStore
	entries *entryStore
	queue   *inlineQueue
	metrics *metrics.Collector
}

func newInvoiceFixture(t *testing.T) invoiceFixture {
	t.Helper()
	directory := &fakeCore{
		projects: []core.Project{{ID: "p1", Name: "Hala Brno", Status: core.ProjectInProgress}},
		workers: []core.Worker{
			{ID: "w-alice", FirstName: "Alice", LastName: "Nováková", WorkerType: core.WorkerIndependent, HourlyRateDomestic: ptr(400.0)},
			{ID: "w-bob", FirstName: "Bob", LastName: "Dvořák", WorkerType: core.WorkerTeamLeader, HourlyRateDomestic: ptr(450.0)},
			{ID: "w-sub", FirstName: "Sub", LastName: "Dodavatel", WorkerType: core.WorkerSubcontractor, TeamLeaderID: "w-bob", HourlyRateDomestic: ptr(300.0)},
		},
		assignments: []core.Assignment{
			{ID: "a1", ProjectID: "p1", WorkerID: "w-alice", HourlyRate: ptr(400.0)},
			{ID: "a2", ProjectID: "p1", WorkerID: "w-bob", HourlyRate: ptr(450.0)},
			{ID: "a3", ProjectID: "p1", WorkerID: "w-sub", HourlyRate: ptr(300.0)},
		},
	}
	entries := newEntryStore(
		timesheets.Entry{ID: "t1", WorkerID: "w-alice", ProjectID: "p1", Date: workDay, HoursWorked: 8, DriverKilometers: 10, Status: timesheets.StatusApproved},
		timesheets.Entry{ID: "t2", WorkerID: "w-alice", ProjectID: "p1", Date: workDay.AddDate(0, 0, 1), HoursWorked: 5, Status: timesheets.StatusSubmitted},
		timesheets.Entry{ID: "t3", WorkerID: "w-sub", ProjectID: "p1", Date: workDay, HoursWorked: 6, CrewKilometers: 20, Status: timesheets.StatusApproved},
	)
	store := newInvoiceStore(invoicing.TransportRates{DomesticDriverKm: 12, DomesticCrewKm: 6})
	docs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	queue := &inlineQueue{}
	service := invoicing.NewService(store, directory, timesheets.NewService(entries), docs, queue, invoicing.Options{VATRate: 0.21})
	collector := metrics.New()
	h := invoicinghandler.NewHandler(service, &audit.Memory{}, collector, nil)
	return invoiceFixture{router: newRouter(h), store: store, entries: entries, queue: queue, metrics: collector}
}

func TestInvoicePreviewDerivesApprovedWork(t *testing.T) {
	f := newInvoiceFixture(t)
	rec, env := do(t, f.router, call{method: http.MethodGet, path: "/api/v1/invoices/preview?projectId=p1", token: "alice"})
	expectStatus(t, rec, http.StatusOK)

	preview := decode[invoicing.Preview](t, env)
	if len(preview.Items) != 2 {
		t.Fatalf("expected labor and driver items, got %+v", preview.Items)
	}
	labor, driver := preview.Items[0], preview.Items[1]
	if labor.Kind != invoicing.KindLabor || labor.Quantity != 8 || labor.TotalPrice != 3200 {
		t.Fatalf("unexpected labor item %+v", labor)
	}
	if driver.Kind != invoicing.KindDriverTransport || driver.Quantity != 10 || driver.TotalPrice != 120 {
		t.Fatalf("unexpected driver item %+v", driver)
	}
	if preview.Totals.TotalAmount != 3320 || preview.Totals.VATAmount != 697.2 || preview.Totals.TotalWithVAT != 4017.2 {
		t.Fatalf("unexpected totals %+v", preview.Totals)
	}
	if len(f.store.invoices) != 0 {
		t.Fatal("preview must not persist")
	}
}

func TestInvoiceTeamLeaderBillsSubcontractors(t *testing.T) {
	f := newInvoiceFixture(t)
	rec, env := do(t, f.router, call{method: http.MethodGet, path: "/api/v1/invoices/preview?projectId=p1", token: "bob"})
	expectStatus(t, rec, http.StatusOK)
	preview := decode[invoicing.Preview](t, env)
	if len(preview.Items) != 2 {
		t.Fatalf("expected subcontractor labor and crew items, got %+v", preview.Items)
	}
	for _, item := range preview.Items {
		if item.WorkerID != "w-sub" {
			t.Fatalf("expected only subcontractor work, got %+v", item)
		}
	}

	rec, env = do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "sub", body: map[string]any{"projectId": "p1"}})
	expectStatus(t, rec, http.StatusForbidden)
	if env.Error == nil || env.Error.Code != "subcontractor_cannot_invoice" {
		t.Fatalf("expected subcontractor_cannot_invoice, got %s", rec.Body.String())
	}
}

func TestInvoiceCreateBillsOnce(t *testing.T) {
	f := newInvoiceFixture(t)
	rec, env := do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1"}})
	expectStatus(t, rec, http.StatusCreated)
	inv := decode[invoicing.Invoice](t, env)
	if inv.Status != invoicing.StatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", inv.Status)
	}
	if f.metrics.Count(metrics.InvoicesCreated) != 1 {
		t.Fatal("expected created counter to increase")
	}

	rec, env = do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1"}})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if env.Error == nil || env.Error.Code != "nothing_to_invoice" {
		t.Fatalf("expected nothing_to_invoice, got %s", rec.Body.String())
	}

	rec, env = do(t, f.router, call{method: http.MethodGet, path: "/api/v1/invoices", token: "bob"})
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]invoicing.Invoice](t, env); len(list) != 0 {
		t.Fatalf("installer saw %d foreign invoices", len(list))
	}

	rec, _ = do(t, f.router, call{method: http.MethodGet, path: "/api/v1/invoices/" + inv.ID, token: "bob"})
	expectStatus(t, rec, http.StatusForbidden)
}

func TestInvoiceOtherCostsNeedComment(t *testing.T) {
	f := newInvoiceFixture(t)
	rec, _ := do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1", "otherCosts": 500}})
	expectStatus(t, rec, http.StatusBadRequest)

	rec, env := do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1", "otherCosts": 500, "otherCostsComment": "Pronájem plošiny"}})
	expectStatus(t, rec, http.StatusCreated)
	inv := decode[invoicing.Invoice](t, env)
	last := inv.Items[len(inv.Items)-1]
	if last.Kind != invoicing.KindOther || last.TotalPrice != 500 {
		t.Fatalf("expected other costs item last, got %+v", last)
	}
}

func TestInvoiceWorkflowAndResubmission(t *testing.T) {
	f := newInvoiceFixture(t)
	rec, env := do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1", "draft": true}})
	expectStatus(t, rec, http.StatusCreated)
	inv := decode[invoicing.Invoice](t, env)
	base := "/api/v1/invoices/" + inv.ID

	rec, _ = do(t, f.router, call{method: http.MethodPost, path: base + "/submit", token: "alice"})
	expectStatus(t, rec, http.StatusOK)

	rec, _ = do(t, f.router, call{method: http.MethodPost, path: base + "/approve", token: "alice"})
	expectStatus(t, rec, http.StatusForbidden)

	rec, _ = do(t, f.router, call{method: http.MethodDelete, path: base, token: "alice"})
	expectStatus(t, rec, http.StatusConflict)

	rec, _ = do(t, f.router, call{method: http.MethodPost, path: base + "/reject", token: "admin", body: map[string]string{"reason": "Chybí výkaz"}})
	expectStatus(t, rec, http.StatusOK)

	rec, _ = do(t, f.router, call{method: http.MethodPost, path: base + "/approve", token: "admin"})
	expectStatus(t, rec, http.StatusConflict)

	// Rejected quantities are offered again on a new invoice.
	rec, env = do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1"}})
	expectStatus(t, rec, http.StatusCreated)
	again := decode[invoicing.Invoice](t, env)
	if again.TotalAmount != inv.TotalAmount {
		t.Fatalf("expected resubmission to bill %v, got %v", inv.TotalAmount, again.TotalAmount)
	}
}

func TestInvoicePDFRenderedInBackground(t *testing.T) {
	f := newInvoiceFixture(t)
	rec, env := do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1"}})
	expectStatus(t, rec, http.StatusCreated)
	inv := decode[invoicing.Invoice](t, env)
	if len(f.queue.errs) > 0 {
		t.Fatalf("pdf job failed: %v", f.queue.errs)
	}

	rec, _ = do(t, f.router, call{method: http.MethodGet, path: "/api/v1/invoices/" + inv.ID + "/pdf", token: "alice"})
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestInvoicePDFRenderedOnDemandWhenJobDropped(t *testing.T) {
	f := newInvoiceFixture(t)
	f.queue.full = true
	rec, env := do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1"}})
	expectStatus(t, rec, http.StatusCreated)
	inv := decode[invoicing.Invoice](t, env)
	if stored, _ := f.store.Get(context.Background(), inv.ID); stored.HasPDF() {
		t.Fatal("expected no rendered document yet")
	}

	rec, _ = do(t, f.router, call{method: http.MethodGet, path: "/api/v1/invoices/" + inv.ID + "/pdf", token: "alice"})
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Type") != "application/pdf" || !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatalf("expected pdf body, got %q", rec.Header().Get("Content-Type"))
	}
	if stored, _ := f.store.Get(context.Background(), inv.ID); stored.PDFPath == "" {
		t.Fatal("expected rendered path to be recorded")
	}
}

func TestInvoiceRejectNeedsNonBlankReason(t *testing.T) {
	f := newInvoiceFixture(t)
	rec, env := do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1"}})
	expectStatus(t, rec, http.StatusCreated)
	inv := decode[invoicing.Invoice](t, env)

	rec, env = do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices/" + inv.ID + "/reject", token: "admin", body: map[string]string{"reason": "   "}})
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %s", rec.Body.String())
	}
	if stored, _ := f.store.Get(context.Background(), inv.ID); stored.Status == invoicing.StatusRejected {
		t.Fatal("blank reason must not reject the invoice")
	}
}

func TestTransportRatesAdminOnly(t *testing.T) {
	f := newInvoiceFixture(t)
	rates := map[string]float64{"domesticDriverKm": 14, "domesticCrewKm": 7, "internationalDriverKm": 20, "internationalCrewKm": 10}

	rec, _ := do(t, f.router, call{method: http.MethodPut, path: "/api/v1/settings/transport-rates", token: "alice", body: rates})
	expectStatus(t, rec, http.StatusForbidden)

	rec, _ = do(t, f.router, call{method: http.MethodPut, path: "/api/v1/settings/transport-rates", token: "admin", body: map[string]float64{"domesticDriverKm": -1}})
	expectStatus(t, rec, http.StatusBadRequest)

	rec, env := do(t, f.router, call{method: http.MethodPut, path: "/api/v1/settings/transport-rates", token: "admin", body: rates})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[invoicing.TransportRates](t, env); got.DomesticDriverKm != 14 {
		t.Fatalf("unexpected rates %+v", got)
	}

	rec, _ = do(t, f.router, call{method: http.MethodGet, path: "/api/v1/settings/transport-rates", token: "alice"})
	expectStatus(t, rec, http.StatusOK)
}

func TestInvoiceListRequiresLinkedWorker(t *testing.T) {
	f := newInvoiceFixture(t)
	rec, _ := do(t, f.router, call{method: http.MethodPost, path: "/api/v1/invoices", token: "alice", body: map[string]any{"projectId": "p1"}})
	expectStatus(t, rec, http.StatusCreated)

	rec, env := do(t, f.router, call{method: http.MethodGet, path: "/api/v1/invoices", token: "orphan"})
	expectStatus(t, rec, http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != "worker_required" {
		t.Fatalf("expected worker_required, got %s", rec.Body.String())
	}

	rec, env = do(t, f.router, call{method: http.MethodGet, path: "/api/v1/invoices", token: "bob"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]invoicing.Invoice](t, env); len(got) != 0 {
		t.Fatalf("bob must not see alice's invoice, got %+v", got)
	}
}
