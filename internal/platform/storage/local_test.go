package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPutOpenRemove(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	key, err := store.Put(ctx, "certificates/w1/./scan.pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "certificates/w1/scan.pdf" {
		t.Fatalf("expected cleaned key, got %q", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "pdf-bytes" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "../secret", "a/../../secret", "/etc/passwd", `..\x`, "."} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}
