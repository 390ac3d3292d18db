package timesheets

import (
	"context"
	"strings"
	"time"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	return s.store.ListEntries(ctx, filter)
}

func (s *Service) Get(ctx context.Context, entryID string) (Entry, error) {
	return s.store.Get(ctx, entryID)
}

// Create stores a new entry as a draft, or submitted when asked to.
func (s *Service) Create(ctx context.Context, entry Entry, submit bool) (Entry, error) {
	entry.Date = Day(entry.Date)
	if err := Validate(entry); err != nil {
		return Entry{}, err
	}
	entry.ID = ""
	entry.RejectionReason = ""
	entry.Status = StatusDraft
	if submit {
		entry.Status = StatusSubmitted
	}
	return s.store.Create(ctx, entry)
}

// Update edits an entry that is not approved yet. Editing a rejected entry
// puts it back to draft.
func (s *Service) Update(ctx context.Context, entry Entry) (Entry, error) {
	current, err := s.store.Get(ctx, entry.ID)
	if err != nil {
		return Entry{}, err
	}
	if current.Status == StatusApproved {
		return Entry{}, ErrEntryLocked
	}
	entry.Date = Day(entry.Date)
	if err := Validate(entry); err != nil {
		return Entry{}, err
	}
	entry.WorkerID = current.WorkerID
	entry.Status = current.Status
	entry.RejectionReason = current.RejectionReason
	if current.Status == StatusRejected {
		entry.Status = StatusDraft
		entry.RejectionReason = ""
	}
	if err := s.store.Update(ctx, entry); err != nil {
		return Entry{}, err
	}
	return s.store.Get(ctx, entry.ID)
}

func (s *Service) Delete(ctx context.Context, entryID string) error {
	current, err := s.store.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if current.Status == StatusApproved {
		return ErrEntryLocked
	}
	return s.store.Delete(ctx, entryID)
}

func (s *Service) Submit(ctx context.Context, entryID string) (Entry, error) {
	return s.transition(ctx, entryID, StatusSubmitted, "")
}

func (s *Service) Approve(ctx context.Context, entryID string) (Entry, error) {
	return s.transition(ctx, entryID, StatusApproved, "")
}

func (s *Service) Reject(ctx context.Context, entryID, reason string) (Entry, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Entry{}, ErrRejectionReason
	}
	return s.transition(ctx, entryID, StatusRejected, reason)
}

func (s *Service) transition(ctx context.Context, entryID string, to Status, reason string) (Entry, error) {
	current, err := s.store.Get(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	if !CanTransition(current.Status, to) {
		return Entry{}, ErrInvalidTransition
	}
	if err := s.store.UpdateStatus(ctx, entryID, current.Status, to, reason); err != nil {
		return Entry{}, err
	}
	return s.store.Get(ctx, entryID)
}

// DailyHours reports what the worker has logged on a day, optionally leaving
// out the entry being edited.
func (s *Service) DailyHours(ctx context.Context, workerID string, date time.Time, excludeID string) (DailyHours, error) {
	day := Day(date)
	logged, err := s.store.LoggedHours(ctx, workerID, day, excludeID)
	if err != nil {
		return DailyHours{}, err
	}
	return DailyHours{WorkerID: workerID, Date: day, Logged: logged, Remaining: Remaining(logged)}, nil
}
