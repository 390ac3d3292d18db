package invoicing

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"crewplan/internal/domain/core"
	"crewplan/internal/domain/timesheets"
)

// CoreReader is the part of the core store invoicing reads from.
type CoreReader interface {
	GetProject(ctx context.Context, projectID string) (core.Project, error)
	GetWorker(ctx context.Context, workerID string) (core.Worker, error)
	ListWorkers(ctx context.Context, filter core.WorkerFilter) ([]core.Worker, error)
	ListAssignments(ctx context.Context, filter core.AssignmentFilter) ([]core.Assignment, error)
}

type EntryReader interface {
	ListEntries(ctx context.Context, filter timesheets.Filter) ([]timesheets.Entry, error)
}

// Documents stores rendered PDFs.
type Documents interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type Queue interface {
	Enqueue(jobType string, run func(context.Context) (any, error))
}

type Options struct {
	VATRate         float64
	DomesticCountry string
}

type Service struct {
	store   StoreAPI
	core    CoreReader
	entries EntryReader
	docs    Documents
	queue   Queue
	opts    Options
	now     func() time.Time
}

func NewService(store StoreAPI, coreReader CoreReader, entries EntryReader, docs Documents, queue Queue, opts Options) *Service {
	return &Service{
		store:   store,
		core:    coreReader,
		entries: entries,
		docs:    docs,
		queue:   queue,
		opts:    opts,
		now:     time.Now,
	}
}

// reference is the data loaded once per derivation, outside the project lock.
type reference struct {
	project core.Project
	worker  core.Worker
	subs    []core.Worker
	assign  []core.Assignment
	entries []timesheets.Entry
	rates   KmRates
}

func (r reference) input(invoices []Invoice) DeriveInput {
	return DeriveInput{
		Project:        r.project,
		Worker:         r.worker,
		Subcontractors: r.subs,
		Assignments:    r.assign,
		Entries:        r.entries,
		Invoices:       invoices,
		Rates:          r.rates,
	}
}

func (s *Service) load(ctx context.Context, workerID, projectID string) (reference, error) {
	var ref reference
	var err error
	if ref.worker, err = s.core.GetWorker(ctx, workerID); err != nil {
		return reference{}, err
	}
	if ref.worker.WorkerType == core.WorkerSubcontractor {
		return reference{}, ErrSubcontractorCannotInvoice
	}
	if ref.project, err = s.core.GetProject(ctx, projectID); err != nil {
		return reference{}, err
	}
	workerIDs := []string{ref.worker.ID}
	if ref.worker.WorkerType == core.WorkerTeamLeader {
		ref.subs, err = s.core.ListWorkers(ctx, core.WorkerFilter{TeamLeaderID: ref.worker.ID, WorkerType: core.WorkerSubcontractor})
		if err != nil {
			return reference{}, err
		}
		for _, sub := range ref.subs {
			workerIDs = append(workerIDs, sub.ID)
		}
	}
	if ref.assign, err = s.core.ListAssignments(ctx, core.AssignmentFilter{ProjectID: projectID}); err != nil {
		return reference{}, err
	}
	ref.entries, err = s.entries.ListEntries(ctx, timesheets.Filter{
		WorkerIDs: workerIDs,
		ProjectID: projectID,
		Status:    timesheets.StatusApproved,
	})
	if err != nil {
		return reference{}, err
	}
	rates, err := s.store.GetTransportRates(ctx)
	if err != nil {
		return reference{}, err
	}
	ref.rates = RatesFor(ref.project, rates, s.opts.DomesticCountry)
	return ref, nil
}

// Preview derives the billable items for a worker without persisting anything.
func (s *Service) Preview(ctx context.Context, workerID, projectID string) (Preview, error) {
	ref, err := s.load(ctx, workerID, projectID)
	if err != nil {
		return Preview{}, err
	}
	existing, err := s.store.List(ctx, Filter{ProjectID: projectID})
	if err != nil {
		return Preview{}, err
	}
	items, err := Derive(ref.input(existing))
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		ProjectID: projectID,
		WorkerID:  workerID,
		Rates:     ref.rates,
		Items:     items,
		Totals:    ComputeTotals(items, s.opts.VATRate),
		Warnings:  Warnings(items),
	}, nil
}

// Create derives and stores a new invoice for the worker under the project
// lock, so two concurrent requests cannot bill the same hours twice.
func (s *Service) Create(ctx context.Context, workerID, userID string, req CreateRequest) (Invoice, error) {
	ref, err := s.load(ctx, workerID, req.ProjectID)
	if err != nil {
		return Invoice{}, err
	}
	other, hasOther, err := OtherCostsItem(ref.worker, req.OtherCosts, req.OtherCostsComment)
	if err != nil {
		return Invoice{}, err
	}

	inv, err := s.store.CreateLocked(ctx, req.ProjectID, func(existing []Invoice) (Invoice, error) {
		items, err := Derive(ref.input(existing))
		if err != nil {
			return Invoice{}, err
		}
		if hasOther {
			items = append(items, other)
		}
		if len(items) == 0 {
			return Invoice{}, ErrNothingToInvoice
		}
		issue := s.now()
		number, err := NewInvoiceNumber(issue)
		if err != nil {
			return Invoice{}, err
		}
		status := StatusPendingApproval
		if req.Draft {
			status = StatusDraft
		}
		inv := Invoice{
			InvoiceNumber: number,
			ProjectID:     req.ProjectID,
			WorkerID:      ref.worker.ID,
			Status:        status,
			Items:         items,
			IssueDate:     issue,
			DueDate:       issue.AddDate(0, 0, PaymentDueDays),
			CreatedBy:     userID,
		}
		if hasOther {
			inv.OtherCostsComment = req.OtherCostsComment
		}
		ComputeTotals(items, s.opts.VATRate).Apply(&inv)
		return inv, nil
	})
	if err != nil {
		return Invoice{}, err
	}
	if warnings := Warnings(inv.Items); len(warnings) > 0 {
		slog.Warn("invoice created with missing rates", "invoiceId", inv.ID, "warnings", warnings)
	}
	s.enqueuePDF(inv.ID)
	return inv, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Invoice, error) {
	return s.store.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, invoiceID string) (Invoice, error) {
	return s.store.Get(ctx, invoiceID)
}

// Transition moves an invoice through its workflow.
func (s *Service) Transition(ctx context.Context, invoiceID string, to Status, reason string) (Invoice, error) {
	inv, err := s.store.Get(ctx, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if !CanTransition(inv.Status, to) {
		return Invoice{}, ErrInvalidTransition
	}
	reason = strings.TrimSpace(reason)
	if to == StatusRejected && reason == "" {
		return Invoice{}, ErrRejectionReason
	}
	if err := s.store.UpdateStatus(ctx, invoiceID, inv.Status, to, reason); err != nil {
		return Invoice{}, err
	}
	if to == StatusApproved || to == StatusPaid {
		s.enqueuePDF(invoiceID)
	}
	return s.store.Get(ctx, invoiceID)
}

func (s *Service) Delete(ctx context.Context, invoiceID string) error {
	inv, err := s.store.Get(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv.Status != StatusDraft {
		return ErrNotDraft
	}
	return s.store.DeleteDraft(ctx, invoiceID)
}

func (s *Service) enqueuePDF(invoiceID string) {
	if s.queue == nil {
		return
	}
	s.queue.Enqueue(JobRenderPDF, func(ctx context.Context) (any, error) {
		path, err := s.RenderPDF(ctx, invoiceID)
		return map[string]any{"invoiceId": invoiceID, "path": path}, err
	})
}

// RenderPDF renders the invoice document, stores it and records its path.
func (s *Service) RenderPDF(ctx context.Context, invoiceID string) (string, error) {
	inv, err := s.store.Get(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	project, err := s.core.GetProject(ctx, inv.ProjectID)
	if err != nil {
		return "", err
	}
	worker, err := s.core.GetWorker(ctx, inv.WorkerID)
	if err != nil {
		return "", err
	}
	data, err := RenderPDF(inv, project, worker)
	if err != nil {
		return "", err
	}
	path, err := s.docs.Put(ctx, "invoices/"+inv.InvoiceNumber+".pdf", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if err := s.store.SetPDFPath(ctx, invoiceID, path); err != nil {
		return "", err
	}
	return path, nil
}

// OpenPDF returns the stored document of an invoice. An invoice whose
// background render never ran is rendered on the spot.
func (s *Service) OpenPDF(ctx context.Context, inv Invoice) (io.ReadCloser, error) {
	path := inv.PDFPath
	if !inv.HasPDF() {
		rendered, err := s.RenderPDF(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		path = rendered
	}
	return s.docs.Open(ctx, path)
}

func (s *Service) TransportRates(ctx context.Context) (TransportRates, error) {
	return s.store.GetTransportRates(ctx)
}

func (s *Service) UpdateTransportRates(ctx context.Context, rates TransportRates) (TransportRates, error) {
	if err := s.store.UpdateTransportRates(ctx, rates); err != nil {
		return TransportRates{}, err
	}
	return s.store.GetTransportRates(ctx)
}
