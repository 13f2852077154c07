package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"firdesk/internal/models"
)

type countingStore struct {
	RecordStore
	loads atomic.Int32
}

func (c *countingStore) Load(ctx context.Context) []models.Report {
	c.loads.Add(1)
	return c.RecordStore.Load(ctx)
}

func TestCachedStore_ServesRepeatedReadsFromMemory(t *testing.T) {
	inner, _ := newTestStore(t, "record")
	counter := &countingStore{RecordStore: inner}
	cached := NewCachedStore(counter, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cached.Load(ctx)
	}

	if n := counter.loads.Load(); n != 1 {
		t.Errorf("Expected 1 backend read, got %d", n)
	}
}

func TestCachedStore_MutationsInvalidate(t *testing.T) {
	inner, _ := newTestStore(t, "draftfir")
	cached := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	if got := cached.Load(ctx); len(got) != 0 {
		t.Fatalf("Expected empty collection, got %d", len(got))
	}

	if err := cached.Append(ctx, report("FIR-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if got := cached.Load(ctx); len(got) != 1 {
		t.Errorf("Expected append to be visible, got %d records", len(got))
	}

	removed, err := cached.Remove(ctx, func(r models.Report) bool { return r.FIRNumber == "FIR-1" })
	if err != nil || removed != 1 {
		t.Fatalf("Remove = %d, %v", removed, err)
	}
	if got := cached.Load(ctx); len(got) != 0 {
		t.Errorf("Expected remove to be visible, got %d records", len(got))
	}
}

func TestCachedStore_ReturnsCopies(t *testing.T) {
	inner, _ := newTestStore(t, "record")
	cached := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	if err := cached.Append(ctx, report("FIR-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	first := cached.Load(ctx)
	first[0].FIRNumber = "tampered"

	if got := cached.Load(ctx); got[0].FIRNumber != "FIR-1" {
		t.Errorf("Cached entry was mutated through a returned slice: %s", got[0].FIRNumber)
	}
}

func TestCachedStore_ExternalInvalidate(t *testing.T) {
	inner, _ := newTestStore(t, "record")
	counter := &countingStore{RecordStore: inner}
	cached := NewCachedStore(counter, time.Minute)
	ctx := context.Background()

	cached.Load(ctx)
	cached.Invalidate()
	cached.Load(ctx)

	if n := counter.loads.Load(); n != 2 {
		t.Errorf("Expected Invalidate to force a second backend read, got %d reads", n)
	}
	if cached.Name() != "record" {
		t.Errorf("Expected name record, got %s", cached.Name())
	}
}
