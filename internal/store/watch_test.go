package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchDir_ReportsUnitChanges(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 8)
	if err := WatchDir(ctx, dir, func(unit string) { changed <- unit }); err != nil {
		t.Fatalf("WatchDir failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "draftfir.json"), []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case unit := <-changed:
		if unit != "draftfir" {
			t.Errorf("Expected draftfir, got %s", unit)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for change notification")
	}
}

func TestWatchDir_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 8)
	if err := WatchDir(ctx, dir, func(unit string) { changed <- unit }); err != nil {
		t.Fatalf("WatchDir failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case unit := <-changed:
		t.Errorf("Unexpected notification for %s", unit)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchDir_MissingDirectory(t *testing.T) {
	err := WatchDir(context.Background(), filepath.Join(t.TempDir(), "missing"), func(string) {})
	if err == nil {
		t.Error("Expected error watching a missing directory")
	}
}
