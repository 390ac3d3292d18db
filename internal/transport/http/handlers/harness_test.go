package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"crewplan/internal/domain/auth"
	"crewplan/internal/domain/core"
	"crewplan/internal/domain/invoicing"
	"crewplan/internal/domain/preferences"
	"crewplan/internal/domain/timesheets"
	"crewplan/internal/transport/http/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type fakeAuthenticator map[string]auth.Identity

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	id, ok := f[token]
	if !ok {
		return auth.Identity{}, errors.New("bad token")
	}
	return id, nil
}

var tokens = fakeAuthenticator{
	"admin":   {UserID: "u-admin", Role: auth.RoleAdmin},
	"alice":   {UserID: "u-alice", Role: auth.RoleInstaller, WorkerID: "w-alice"},
	"bob":     {UserID: "u-bob", Role: auth.RoleInstaller, WorkerID: "w-bob"},
	"sub":     {UserID: "u-sub", Role: auth.RoleInstaller, WorkerID: "w-sub"},
	"pending": {UserID: "u-new", Role: auth.RolePending},
	"orphan":  {UserID: "u-orphan", Role: auth.RoleInstaller},
}

type registrar interface {
	RegisterRoutes(r chi.Router)
}

func newRouter(handlers ...registrar) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(tokens))
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		for _, h := range handlers {
			h.RegisterRoutes(r)
		}
	})
	return router
}

type call struct {
	method   string
	path     string
	token    string
	actingAs string
	body     any
	headers  map[string]string
}

func do(t *testing.T, router http.Handler, c call) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.actingAs != "" {
		req.Header.Set(auth.HeaderActingAs, c.actingAs)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// fakeCore serves the core collections to invoicing, timeline and the
// timesheet export.
type fakeCore struct {
	projects    []core.Project
	workers     []core.Worker
	vehicles    []core.Vehicle
	assignments []core.Assignment
	calls       int
}

func (f *fakeCore) ListProjects(context.Context) ([]core.Project, error) {
	f.calls++
	return f.projects, nil
}

func (f *fakeCore) GetProject(_ context.Context, id string) (core.Project, error) {
	for _, p := range f.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Project{}, core.ErrProjectNotFound
}

func (f *fakeCore) GetWorker(_ context.Context, id string) (core.Worker, error) {
	for _, w := range f.workers {
		if w.ID == id {
			return w, nil
		}
	}
	return core.Worker{}, core.ErrWorkerNotFound
}

func (f *fakeCore) ListWorkers(_ context.Context, filter core.WorkerFilter) ([]core.Worker, error) {
	out := []core.Worker{}
	for _, w := range f.workers {
		if filter.TeamLeaderID != "" && w.TeamLeaderID != filter.TeamLeaderID {
			continue
		}
		if filter.WorkerType != "" && w.WorkerType != filter.WorkerType {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeCore) ListVehicles(context.Context) ([]core.Vehicle, error) {
	return f.vehicles, nil
}

func (f *fakeCore) ListAssignments(_ context.Context, filter core.AssignmentFilter) ([]core.Assignment, error) {
	out := []core.Assignment{}
	for _, a := range f.assignments {
		if filter.ProjectID != "" && a.ProjectID != filter.ProjectID {
			continue
		}
		if filter.WorkerID != "" && a.WorkerID != filter.WorkerID {
			continue
		}
		if filter.VehicleID != "" && a.VehicleID != filter.VehicleID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type entryStore struct {
	mu      sync.Mutex
	entries map[string]timesheets.Entry
	seq     int
}

func newEntryStore(entries ...timesheets.Entry) *entryStore {
	s := &entryStore{entries: map[string]timesheets.Entry{}}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return s
}

func (s *entryStore) ListEntries(_ context.Context, filter timesheets.Filter) ([]timesheets.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []timesheets.Entry{}
	for _, e := range s.entries {
		if len(filter.WorkerIDs) > 0 && !contains(filter.WorkerIDs, e.WorkerID) {
			continue
		}
		if filter.ProjectID != "" && e.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *entryStore) Get(_ context.Context, id string) (timesheets.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return timesheets.Entry{}, timesheets.ErrEntryNotFound
	}
	return e, nil
}

func (s *entryStore) logged(workerID string, date time.Time, excludeID string) float64 {
	total := 0.0
	for _, e := range s.entries {
		if e.WorkerID == workerID && e.Date.Equal(date) && e.ID != excludeID {
			total += e.HoursWorked
		}
	}
	return total
}

func (s *entryStore) LoggedHours(_ context.Context, workerID string, date time.Time, excludeID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logged(workerID, date, excludeID), nil
}

func (s *entryStore) Create(_ context.Context, e timesheets.Entry) (timesheets.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !timesheets.WithinDailyCap(s.logged(e.WorkerID, e.Date, ""), e.HoursWorked) {
		return timesheets.Entry{}, timesheets.ErrDailyHoursExceeded
	}
	s.seq++
	e.ID = "e" + strconv.Itoa(s.seq)
	s.entries[e.ID] = e
	return e, nil
}

func (s *entryStore) Update(_ context.Context, e timesheets.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[e.ID].Status == timesheets.StatusApproved {
		return timesheets.ErrEntryLocked
	}
	if !timesheets.WithinDailyCap(s.logged(e.WorkerID, e.Date, e.ID), e.HoursWorked) {
		return timesheets.ErrDailyHoursExceeded
	}
	s.entries[e.ID] = e
	return nil
}

func (s *entryStore) UpdateStatus(_ context.Context, id string, from, to timesheets.Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.Status != from {
		return timesheets.ErrInvalidTransition
	}
	e.Status = to
	e.RejectionReason = reason
	s.entries[id] = e
	return nil
}

func (s *entryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

type invoiceStore struct {
	mu       sync.Mutex
	invoices map[string]invoicing.Invoice
	rates    invoicing.TransportRates
	seq      int
}

func newInvoiceStore(rates invoicing.TransportRates) *invoiceStore {
	return &invoiceStore{invoices: map[string]invoicing.Invoice{}, rates: rates}
}

func (s *invoiceStore) List(_ context.Context, filter invoicing.Filter) ([]invoicing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(filter), nil
}

func (s *invoiceStore) list(filter invoicing.Filter) []invoicing.Invoice {
	out := []invoicing.Invoice{}
	for _, inv := range s.invoices {
		if filter.ProjectID != "" && inv.ProjectID != filter.ProjectID {
			continue
		}
		if filter.WorkerID != "" && inv.WorkerID != filter.WorkerID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *invoiceStore) Get(_ context.Context, id string) (invoicing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return invoicing.Invoice{}, invoicing.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *invoiceStore) CreateLocked(_ context.Context, projectID string, build func([]invoicing.Invoice) (invoicing.Invoice, error)) (invoicing.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := build(s.list(invoicing.Filter{ProjectID: projectID}))
	if err != nil {
		return invoicing.Invoice{}, err
	}
	s.seq++
	inv.ID = "i" + strconv.Itoa(s.seq)
	s.invoices[inv.ID] = inv
	return inv, nil
}

func (s *invoiceStore) UpdateStatus(_ context.Context, id string, from, to invoicing.Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.Status != from {
		return invoicing.ErrInvalidTransition
	}
	inv.Status = to
	inv.RejectionReason = reason
	s.invoices[id] = inv
	return nil
}

func (s *invoiceStore) SetPDFPath(_ context.Context, id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.invoices[id]
	inv.PDFPath = path
	s.invoices[id] = inv
	return nil
}

func (s *invoiceStore) DeleteDraft(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invoices, id)
	return nil
}

func (s *invoiceStore) GetTransportRates(context.Context) (invoicing.TransportRates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rates, nil
}

func (s *invoiceStore) UpdateTransportRates(_ context.Context, rates invoicing.TransportRates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = rates
	return nil
}

type preferenceStore struct {
	values map[string]preferences.Preference
}

func (s *preferenceStore) Get(_ context.Context, userID, key string) (preferences.Preference, error) {
	p, ok := s.values[userID+"/"+key]
	if !ok {
		return preferences.Preference{}, preferences.ErrPreferenceNotFound
	}
	return p, nil
}

func (s *preferenceStore) Put(_ context.Context, userID, key string, value json.RawMessage) (preferences.Preference, error) {
	if s.values == nil {
		s.values = map[string]preferences.Preference{}
	}
	p := preferences.Preference{UserID: userID, Key: key, Value: value, UpdatedAt: time.Now()}
	s.values[userID+"/"+key] = p
	return p, nil
}

func (s *preferenceStore) Delete(_ context.Context, userID, key string) error {
	if _, ok := s.values[userID+"/"+key]; !ok {
		return preferences.ErrPreferenceNotFound
	}
	delete(s.values, userID+"/"+key)
	return nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
