package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryExpiresEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if value, ok, _ := m.Get(ctx, "k"); !ok || string(value) != "v" {
		t.Fatalf("expected hit, got %q %v", value, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestMemoryBumpInvalidates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "k", []byte("v"), 0)

	if err := m.Bump(ctx, NamespaceData); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	version, _ := m.Version(ctx, NamespaceData)
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected bump to drop entries")
	}
}
