package store

import (
	"context"
	"path/filepath"
	"testing"

	"firdesk/internal/database"
	"firdesk/internal/models"
)

func setupSQLUnit(t *testing.T, name string) *SQLUnit {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "firdesk.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	return NewSQLUnit(db, name)
}

func TestSQLUnit_ReadMissingRow(t *testing.T) {
	unit := setupSQLUnit(t, "draftfir")
	ctx := context.Background()

	exists, err := unit.Exists(ctx)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Expected unit to be absent")
	}

	data, err := unit.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected nil for missing row, got %q", data)
	}
}

func TestSQLUnit_WriteUpserts(t *testing.T) {
	unit := setupSQLUnit(t, "record")
	ctx := context.Background()

	if err := unit.Write(ctx, []byte(`[{"firNumber":"A"}]`)); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := unit.Write(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	data, err := unit.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Expected latest body, got %q", data)
	}
}

func TestSQLUnit_BacksStore(t *testing.T) {
	unit := setupSQLUnit(t, "draftfir")
	s := New(unit)
	ctx := context.Background()

	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	for _, id := range []string{"B", "A"} {
		if err := s.Append(ctx, report(id)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	removed, err := s.Remove(ctx, func(r models.Report) bool { return r.FIRNumber == "B" })
	if err != nil || removed != 1 {
		t.Fatalf("Remove = %d, %v", removed, err)
	}

	got := ids(s.Load(ctx))
	if len(got) != 1 || got[0] != "A" {
		t.Errorf("Expected [A], got %v", got)
	}
}

func TestSQLUnit_UnitsAreIndependent(t *testing.T) {
	drafts := setupSQLUnit(t, "draftfir")
	reports := NewSQLUnit(drafts.db, "record")
	ctx := context.Background()

	if err := New(drafts).Append(ctx, report("D-1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if got := New(reports).Load(ctx); len(got) != 0 {
		t.Errorf("Reports collection should be untouched, got %v", ids(got))
	}
}
