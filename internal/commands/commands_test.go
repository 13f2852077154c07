package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"firdesk/internal/config"
	"firdesk/internal/models"

	"github.com/xuri/excelize/v2"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		StoreBackend: config.BackendFile,
		DataDir:      filepath.Join(dir, "data"),
		WriteLock:    "none",
		SnapshotDir:  filepath.Join(dir, "snapshots"),
		SnapshotKeep: 3,
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(ConfigOpener(cfg))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, cfg *config.Config, drafts, reports []models.Report) {
	t.Helper()
	env, err := ConfigOpener(cfg)(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer env.Close()

	for _, r := range drafts {
		if _, err := env.Drafts.Create(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
	for _, r := range reports {
		if _, err := env.Reports.Create(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

func report(id, name string) models.Report {
	return models.Report{
		FIRNumber:   id,
		DateTime:    "2026-03-01T10:00",
		Category:    models.CategoryTheft,
		Complainant: models.Complainant{Name: name, Address: "MG Road", Phone: "9999999999", Description: "Phone stolen"},
	}
}

func TestDraftsList(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, []models.Report{report("FIR-1", "Asha"), report("FIR-2", "Ravi")}, nil)

	out, err := run(t, cfg, "drafts", "list")
	if err != nil {
		t.Fatalf("drafts list failed: %v", err)
	}
	if !strings.Contains(out, "FIR-1") || !strings.Contains(out, "Ravi") || !strings.Contains(out, "2 records") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, cfg, "drafts", "list", "--json", "-q", "ravi")
	if err != nil {
		t.Fatal(err)
	}
	var got []models.Report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("--json output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 1 || got[0].FIRNumber != "FIR-2" {
		t.Errorf("search result = %+v", got)
	}
}

func TestDraftsList_Empty(t *testing.T) {
	out, err := run(t, testConfig(t), "drafts", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No records.") {
		t.Errorf("output = %q", out)
	}
}

func TestDraftsDelete(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, []models.Report{report("FIR-1", "Asha"), report("FIR-2", "Ravi")}, nil)

	if _, err := run(t, cfg, "drafts", "delete", "FIR-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	out, _ := run(t, cfg, "drafts", "list", "--json")
	var got []models.Report
	json.Unmarshal([]byte(out), &got)
	if len(got) != 1 || got[0].FIRNumber != "FIR-2" {
		t.Errorf("remaining drafts = %+v", got)
	}

	if _, err := run(t, cfg, "drafts", "delete", "FIR-1"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("second delete error = %v, want not found", err)
	}
	if _, err := run(t, cfg, "drafts", "delete"); err == nil {
		t.Error("delete without an id should fail")
	}
}

func TestReportsExport(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, nil, []models.Report{report("FIR-7", "Meena")})

	path := filepath.Join(t.TempDir(), "firs.xlsx")
	out, err := run(t, cfg, "reports", "export", path)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "Exported 1 reports") {
		t.Errorf("output = %q", out)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("export is not a workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("FIRs")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "FIR-7" {
		t.Errorf("rows = %v", rows)
	}
}

func TestAsk_WithoutOracleUsesFallback(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "ask", "--show-context", "my", "phone", "was", "stolen")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out, "[officer/theft]") {
		t.Errorf("context line missing:\n%s", out)
	}
	if !strings.Contains(out, "Error generating response.") {
		t.Errorf("officer fallback missing:\n%s", out)
	}

	out, err = run(t, cfg, "ask", "-p", "citizen", "how do I file an FIR")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "I couldn't process your request right now. Please try again.") {
		t.Errorf("citizen fallback missing:\n%s", out)
	}

	if _, err := run(t, cfg, "ask", "-p", "judge", "hello"); err == nil {
		t.Error("unknown profile should fail")
	}
}

func TestSnapshot(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, []models.Report{report("FIR-1", "Asha")}, nil)

	if _, err := run(t, cfg, "snapshot"); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	for _, name := range []string{"drafts", "reports"} {
		matches, _ := filepath.Glob(filepath.Join(cfg.SnapshotDir, name+"-*.json"))
		if len(matches) != 1 {
			t.Errorf("%s snapshots = %v, want 1", name, matches)
		}
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "tape"

	if _, err := run(t, cfg, "drafts", "list"); err == nil {
		t.Error("expected an error for an unknown backend")
	}
	if _, err := os.Stat(cfg.DataDir); !os.IsNotExist(err) {
		t.Error("a failed open should not create the data dir")
	}
}
