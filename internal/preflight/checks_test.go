package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"firdesk/internal/database"
	"firdesk/internal/retrieval"
)

func setupPreflightTest(t *testing.T) (*database.DB, *retrieval.KnowledgeBase) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "preflight.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	kb, err := retrieval.Load()
	if err != nil {
		t.Fatalf("Failed to load knowledge base: %v", err)
	}
	return db, kb
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestCheckDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	result := NewChecker(Options{DataDir: dir}).checkDataDir()

	if result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s': %s", result.Status, result.Message)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data dir should be created: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}
}

func TestCheckDataDir_NotWritable(t *testing.T) {
	// a regular file where the directory should be
	blocked := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	result := NewChecker(Options{DataDir: blocked}).checkDataDir()
	if result.Status != "fail" {
		t.Errorf("Expected status 'fail', got '%s'", result.Status)
	}
	if result.Error == nil {
		t.Error("Expected error to be set")
	}
}

func TestCheckDatabaseConnection_Success(t *testing.T) {
	db, _ := setupPreflightTest(t)

	result := NewChecker(Options{DB: db}).checkDatabaseConnection()
	if result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s'", result.Status)
	}
	if result.Name != "Database Connection" {
		t.Errorf("Expected name 'Database Connection', got '%s'", result.Name)
	}
}

func TestCheckDatabaseConnection_Failure(t *testing.T) {
	db, _ := setupPreflightTest(t)
	db.Close() // simulate a dropped connection

	result := NewChecker(Options{DB: db}).checkDatabaseConnection()
	if result.Status != "fail" {
		t.Errorf("Expected status 'fail', got '%s'", result.Status)
	}
	if result.Error == nil {
		t.Error("Expected error to be set")
	}
}

func TestCheckDatabaseConnection_Remote(t *testing.T) {
	ok := NewChecker(Options{Remote: fakePinger{}}).checkDatabaseConnection()
	if ok.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s'", ok.Status)
	}

	down := NewChecker(Options{Remote: fakePinger{err: errors.New("connection refused")}}).checkDatabaseConnection()
	if down.Status != "fail" {
		t.Errorf("Expected status 'fail', got '%s'", down.Status)
	}
}

func TestCheckDatabaseSchema(t *testing.T) {
	db, _ := setupPreflightTest(t)

	if result := NewChecker(Options{DB: db}).checkDatabaseSchema(); result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s': %s", result.Status, result.Message)
	}

	if _, err := db.Exec("DROP TABLE record_units"); err != nil {
		t.Fatal(err)
	}
	if result := NewChecker(Options{DB: db}).checkDatabaseSchema(); result.Status != "fail" {
		t.Errorf("Expected status 'fail' after dropping the table, got '%s'", result.Status)
	}
}

func TestCheckKnowledgeBase(t *testing.T) {
	_, kb := setupPreflightTest(t)

	if result := NewChecker(Options{Knowledge: kb}).checkKnowledgeBase(); result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s': %s", result.Status, result.Message)
	}

	if result := NewChecker(Options{}).checkKnowledgeBase(); result.Status != "fail" {
		t.Errorf("Expected status 'fail' without a knowledge base, got '%s'", result.Status)
	}
}

func TestCheckEnvironmentVariables(t *testing.T) {
	if result := NewChecker(Options{}).checkEnvironmentVariables(); result.Status != "warning" {
		t.Errorf("Expected status 'warning' without an oracle key, got '%s'", result.Status)
	}
	if result := NewChecker(Options{OracleKey: "k"}).checkEnvironmentVariables(); result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s'", result.Status)
	}
}

func TestRunAll(t *testing.T) {
	db, kb := setupPreflightTest(t)

	results := NewChecker(Options{DataDir: t.TempDir(), DB: db, Knowledge: kb}).RunAll()
	if len(results) != 5 {
		t.Errorf("Expected 5 results, got %d", len(results))
	}
	if HasFailures(results) {
		t.Errorf("Expected no failures, got %+v", results)
	}
}

func TestHasFailures(t *testing.T) {
	tests := []struct {
		name     string
		results  []CheckResult
		expected bool
	}{
		{"no results", nil, false},
		{"all pass", []CheckResult{{Status: "pass"}, {Status: "pass"}}, false},
		{"warnings only", []CheckResult{{Status: "pass"}, {Status: "warning"}}, false},
		{"one failure", []CheckResult{{Status: "pass"}, {Status: "fail"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasFailures(tt.results); got != tt.expected {
				t.Errorf("HasFailures() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestQuickCheck(t *testing.T) {
	results := NewChecker(Options{DataDir: t.TempDir()}).QuickCheck()
	if len(results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(results))
	}
	if HasFailures(results) {
		t.Errorf("Expected no failures, got %+v", results)
	}
}
