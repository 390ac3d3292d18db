package invoicing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"crewplan/internal/domain/core"
	"crewplan/internal/domain/timesheets"
)

// DeriveInput is everything needed to work out what a worker may still bill on a project.
type DeriveInput struct {
	Project        core.Project
	Worker         core.Worker
	Subcontractors []core.Worker
	Assignments    []core.Assignment
	Entries        []timesheets.Entry
	Invoices       []Invoice
	Rates          KmRates
}

type kindText struct {
	description string
	unit        string
}

var kinds = map[Kind]kindText{
	KindLabor:           {DescriptionLabor, UnitHours},
	KindDriverTransport: {DescriptionDriverTransport, UnitKm},
	KindCrewTransport:   {DescriptionCrewTransport, UnitKm},
	KindOther:           {DescriptionOther, UnitPieces},
}

// quantities holds hours and kilometers per line kind.
type quantities map[Kind]decimal.Decimal

func (q quantities) add(kind Kind, v decimal.Decimal) {
	q[kind] = q[kind].Add(v)
}

// Derive returns the approved work of the acting worker, and of their
// subcontractors when they lead a team, that no non-rejected invoice on the
// project has billed yet. Items come per worker in the order labor, driver
// transport, crew transport; non-positive remainders are left out. A missing
// rate prices the item at zero.
func Derive(in DeriveInput) ([]LineItem, error) {
	if in.Worker.WorkerType == core.WorkerSubcontractor {
		return nil, ErrSubcontractorCannotInvoice
	}

	invoiced := alreadyInvoiced(in.Invoices, in.Project.ID)
	worked := approvedWork(in.Entries, in.Project.ID)

	items := []LineItem{}
	for _, w := range billableWorkers(in.Worker, in.Subcontractors) {
		done, total := invoiced[w.ID], worked[w.ID]
		prices := map[Kind]decimal.Decimal{
			KindLabor:           hourlyRate(w.ID, in.Assignments, in.Project.ID),
			KindDriverTransport: decimal.NewFromFloat(in.Rates.Driver),
			KindCrewTransport:   decimal.NewFromFloat(in.Rates.Crew),
		}
		for _, kind := range []Kind{KindLabor, KindDriverTransport, KindCrewTransport} {
			remaining := total[kind].Sub(done[kind])
			if !remaining.IsPositive() {
				continue
			}
			items = append(items, newItem(w, kind, remaining, prices[kind]))
		}
	}
	return items, nil
}

// Classify returns the item's kind, falling back to the description and unit
// for items stored before kinds existed.
func Classify(item LineItem) Kind {
	if item.Kind != "" {
		return item.Kind
	}
	for _, kind := range []Kind{KindLabor, KindDriverTransport, KindCrewTransport} {
		text := kinds[kind]
		if item.Description == text.description && item.Unit == text.unit {
			return kind
		}
	}
	return KindOther
}

// OtherCostsItem builds the manual other-costs line. A zero amount yields no item.
func OtherCostsItem(worker core.Worker, amount float64, comment string) (LineItem, bool, error) {
	if amount < 0 {
		return LineItem{}, false, ErrOtherCostsNegative
	}
	if amount == 0 {
		return LineItem{}, false, nil
	}
	if strings.TrimSpace(comment) == "" {
		return LineItem{}, false, ErrOtherCostsComment
	}
	return newItem(worker, KindOther, decimal.NewFromInt(1), decimal.NewFromFloat(amount)), true, nil
}

// Warnings lists billable items priced at zero because a rate is missing.
func Warnings(items []LineItem) []string {
	out := []string{}
	for _, item := range items {
		if item.Quantity > 0 && item.UnitPrice == 0 {
			out = append(out, fmt.Sprintf("missing rate for %q of %s", item.Description, item.WorkerName))
		}
	}
	return out
}

func newItem(w core.Worker, kind Kind, quantity, price decimal.Decimal) LineItem {
	text := kinds[kind]
	return LineItem{
		WorkerID:    w.ID,
		WorkerName:  w.FullName(),
		Kind:        kind,
		Description: text.description,
		Quantity:    quantity.InexactFloat64(),
		Unit:        text.unit,
		UnitPrice:   price.InexactFloat64(),
		TotalPrice:  quantity.Mul(price).Round(2).InexactFloat64(),
	}
}

func billableWorkers(actor core.Worker, subcontractors []core.Worker) []core.Worker {
	out := []core.Worker{actor}
	if actor.WorkerType != core.WorkerTeamLeader {
		return out
	}
	seen := map[string]bool{actor.ID: true}
	for _, sub := range subcontractors {
		if sub.WorkerType != core.WorkerSubcontractor || sub.TeamLeaderID != actor.ID || seen[sub.ID] {
			continue
		}
		seen[sub.ID] = true
		out = append(out, sub)
	}
	return out
}

// alreadyInvoiced sums billed quantities per worker over every invoice on the
// project except rejected ones. Items without a worker belong to the invoice's worker.
func alreadyInvoiced(invoices []Invoice, projectID string) map[string]quantities {
	out := map[string]quantities{}
	for _, inv := range invoices {
		if inv.ProjectID != projectID || inv.Status == StatusRejected {
			continue
		}
		for _, item := range inv.Items {
			kind := Classify(item)
			if kind == KindOther {
				continue
			}
			workerID := item.WorkerID
			if workerID == "" {
				workerID = inv.WorkerID
			}
			if out[workerID] == nil {
				out[workerID] = quantities{}
			}
			out[workerID].add(kind, decimal.NewFromFloat(item.Quantity))
		}
	}
	return out
}

func approvedWork(entries []timesheets.Entry, projectID string) map[string]quantities {
	out := map[string]quantities{}
	for _, e := range entries {
		if e.ProjectID != projectID || e.Status != timesheets.StatusApproved {
			continue
		}
		if out[e.WorkerID] == nil {
			out[e.WorkerID] = quantities{}
		}
		q := out[e.WorkerID]
		q.add(KindLabor, decimal.NewFromFloat(e.HoursWorked))
		q.add(KindDriverTransport, decimal.NewFromFloat(e.DriverKilometers))
		q.add(KindCrewTransport, decimal.NewFromFloat(e.CrewKilometers))
	}
	return out
}

// hourlyRate is the rate on the worker's assignment to the project. Without
// one the labor is priced at zero and Warnings reports it.
func hourlyRate(workerID string, assignments []core.Assignment, projectID string) decimal.Decimal {
	for _, a := range assignments {
		if a.WorkerID == workerID && a.ProjectID == projectID && a.HourlyRate != nil {
			return decimal.NewFromFloat(*a.HourlyRate)
		}
	}
	return decimal.Zero
}
