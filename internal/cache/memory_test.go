package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryClientExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryClient()
	m.now = func() time.Time { return now }

	if err := m.Put(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := m.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("expected v, got %q (%v)", got, err)
	}

	now = now.Add(time.Minute)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after ttl, got %v", err)
	}
}

func TestMemoryClientDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient()

	_ = m.Put(ctx, "k", "v", 0)
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}
