package certificates

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileRemover deletes uploaded files that no certificate references any more.
type FileRemover interface {
	Remove(ctx context.Context, path string) error
}

// Buffer collects certificate changes for one worker until the surrounding
// form is saved. Nothing reaches the store before Commit.
type Buffer struct {
	workerID string
	base     []Certificate
	ops      []Op
}

func NewBuffer(workerID string, stored []Certificate) *Buffer {
	base := make([]Certificate, len(stored))
	copy(base, stored)
	return &Buffer{workerID: workerID, base: base}
}

// Stage validates op against the current view and appends it. Adds without a
// ref get a generated one, which is returned.
func (b *Buffer) Stage(op Op) (string, error) {
	items := b.Pending()
	switch op.Kind {
	case OpAdd:
		if err := validate(op.Certificate); err != nil {
			return "", err
		}
		if op.Ref == "" {
			op.Ref = "new:" + uuid.NewString()
		}
		if indexOf(items, op.Ref) >= 0 || b.wasStaged(op.Ref) {
			return "", ErrDuplicateRef
		}
	case OpEdit:
		if err := validate(op.Certificate); err != nil {
			return "", err
		}
		if indexOf(items, op.Ref) < 0 {
			return "", ErrUnknownRef
		}
	case OpDelete:
		if indexOf(items, op.Ref) < 0 {
			return "", ErrUnknownRef
		}
	default:
		return "", ErrUnknownOp
	}
	b.ops = append(b.ops, op)
	return op.Ref, nil
}

// Ops returns the staged operations in order.
func (b *Buffer) Ops() []Op {
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

// Pending is the certificate list as it will look after Commit.
func (b *Buffer) Pending() []Item {
	items := make([]Item, 0, len(b.base)+len(b.ops))
	for _, c := range b.base {
		items = append(items, Item{Ref: c.ID, Certificate: c})
	}
	for _, op := range b.ops {
		i := indexOf(items, op.Ref)
		switch op.Kind {
		case OpAdd:
			c := op.Certificate
			c.ID = ""
			c.WorkerID = b.workerID
			items = append(items, Item{Ref: op.Ref, New: true, Certificate: c})
		case OpEdit:
			c := op.Certificate
			c.ID = items[i].Certificate.ID
			c.WorkerID = b.workerID
			c.CreatedAt = items[i].Certificate.CreatedAt
			items[i].Certificate = c
		case OpDelete:
			items = append(items[:i], items[i+1:]...)
		}
	}
	return items
}

// Changes reduces the staged ops to their net effect against the stored list.
// An add followed by a delete writes nothing.
func (b *Buffer) Changes() Changes {
	var changes Changes
	final := b.Pending()
	kept := map[string]bool{}
	for _, item := range final {
		if item.New {
			changes.Create = append(changes.Create, item.Certificate)
			continue
		}
		kept[item.Ref] = true
		if stored, ok := b.stored(item.Ref); ok && !sameCertificate(stored, item.Certificate) {
			changes.Update = append(changes.Update, item.Certificate)
		}
	}
	for _, c := range b.base {
		if !kept[c.ID] {
			changes.Delete = append(changes.Delete, c.ID)
		}
	}
	return changes
}

// Writer applies a set of changes atomically.
type Writer interface {
	ApplyChanges(ctx context.Context, workerID string, changes Changes) ([]Certificate, error)
}

// Commit writes the net changes, then removes files no certificate points at
// any more. The buffer is empty afterwards. File removal failures are logged,
// the write itself has already succeeded.
func (b *Buffer) Commit(ctx context.Context, store Writer, files FileRemover) ([]Certificate, error) {
	changes := b.Changes()
	orphans := b.orphanedOnCommit()

	saved, err := store.ApplyChanges(ctx, b.workerID, changes)
	if err != nil {
		return nil, err
	}
	removeFiles(ctx, files, orphans)
	b.base = saved
	b.ops = nil
	return saved, nil
}

// Discard drops every staged op and removes files that were uploaded only for them.
func (b *Buffer) Discard(ctx context.Context, files FileRemover) {
	removeFiles(ctx, files, b.stagedOnlyFiles())
	b.ops = nil
}

// orphanedOnCommit lists files referenced by the stored list or by any staged
// op that the final list no longer references.
func (b *Buffer) orphanedOnCommit() []string {
	final := map[string]bool{}
	for _, item := range b.Pending() {
		if item.Certificate.FilePath != "" {
			final[item.Certificate.FilePath] = true
		}
	}
	seen := map[string]bool{}
	var out []string
	add := func(path string) {
		if path != "" && !final[path] && !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	for _, c := range b.base {
		add(c.FilePath)
	}
	for _, op := range b.ops {
		add(op.Certificate.FilePath)
	}
	return out
}

func (b *Buffer) stagedOnlyFiles() []string {
	stored := map[string]bool{}
	for _, c := range b.base {
		stored[c.FilePath] = true
	}
	seen := map[string]bool{}
	var out []string
	for _, op := range b.ops {
		path := op.Certificate.FilePath
		if path != "" && !stored[path] && !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	return out
}

func (b *Buffer) stored(id string) (Certificate, bool) {
	for _, c := range b.base {
		if c.ID == id {
			return c, true
		}
	}
	return Certificate{}, false
}

func (b *Buffer) wasStaged(ref string) bool {
	for _, op := range b.ops {
		if op.Kind == OpAdd && op.Ref == ref {
			return true
		}
	}
	return false
}

func removeFiles(ctx context.Context, files FileRemover, paths []string) {
	if files == nil {
		return
	}
	for _, path := range paths {
		if err := files.Remove(ctx, path); err != nil {
			slog.Warn("certificate file cleanup failed", "path", path, "err", err)
		}
	}
}

func indexOf(items []Item, ref string) int {
	for i, item := range items {
		if item.Ref == ref {
			return i
		}
	}
	return -1
}

func validate(c Certificate) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if c.IssuedOn != nil && c.ValidUntil != nil && c.ValidUntil.Before(*c.IssuedOn) {
		return ErrDateOrder
	}
	return nil
}

func sameCertificate(a, b Certificate) bool {
	return a.Name == b.Name &&
		a.FilePath == b.FilePath &&
		a.Notes == b.Notes &&
		sameDate(a.IssuedOn, b.IssuedOn) &&
		sameDate(a.ValidUntil, b.ValidUntil)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// IsValidation reports whether err is a problem with the staged input rather
// than with storage.
func IsValidation(err error) bool {
	for _, target := range []error{ErrNameRequired, ErrDateOrder, ErrUnknownRef, ErrDuplicateRef, ErrUnknownOp} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
