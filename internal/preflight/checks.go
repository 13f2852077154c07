package preflight

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"firdesk/internal/database"
	"firdesk/internal/retrieval"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Pinger is a remote backend that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options names what the checker should inspect. Nil fields skip their check.
type Options struct {
	DataDir   string // checked for writability when set
	DB        *database.DB
	Remote    Pinger
	Knowledge *retrieval.KnowledgeBase
	OracleKey string
}

// Checker performs pre-flight checks before server starts
type Checker struct {
	opts    Options
	timeout time.Duration
}

// NewChecker creates a new preflight checker
func NewChecker(opts Options) *Checker {
	return &Checker{opts: opts, timeout: 5 * time.Second}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDataDir(),
		c.checkDatabaseConnection(),
		c.checkDatabaseSchema(),
		c.checkKnowledgeBase(),
		c.checkEnvironmentVariables(),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDataDir verifies the record directory can be created and written
func (c *Checker) checkDataDir() CheckResult {
	const name = "Data Directory"
	if c.opts.DataDir == "" {
		return CheckResult{Name: name, Status: "pass", Message: "Skipped (remote backend)"}
	}

	if err := os.MkdirAll(c.opts.DataDir, 0755); err != nil {
		return CheckResult{Name: name, Status: "fail", Message: "Cannot create " + c.opts.DataDir, Error: err}
	}

	probe, err := os.CreateTemp(c.opts.DataDir, ".preflight-*")
	if err != nil {
		return CheckResult{Name: name, Status: "fail", Message: c.opts.DataDir + " is not writable", Error: err}
	}
	probe.Close()
	os.Remove(probe.Name())

	abs, _ := filepath.Abs(c.opts.DataDir)
	return CheckResult{Name: name, Status: "pass", Message: abs + " is writable"}
}

// checkDatabaseConnection verifies database connectivity
func (c *Checker) checkDatabaseConnection() CheckResult {
	const name = "Database Connection"
	if c.opts.DB == nil && c.opts.Remote == nil {
		return CheckResult{Name: name, Status: "pass", Message: "Skipped (file backend)"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var err error
	if c.opts.DB != nil {
		err = c.opts.DB.PingContext(ctx)
	} else {
		err = c.opts.Remote.Ping(ctx)
	}
	if err != nil {
		return CheckResult{
			Name:    name,
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    name,
		Status:  "pass",
		Message: "Database connection successful",
	}
}

// checkDatabaseSchema verifies the record table exists on SQL backends
func (c *Checker) checkDatabaseSchema() CheckResult {
	const name = "Database Schema"
	if c.opts.DB == nil {
		return CheckResult{Name: name, Status: "pass", Message: "Skipped (no SQL backend)"}
	}

	ok, err := c.opts.DB.TableExists("record_units")
	if err != nil || !ok {
		return CheckResult{
			Name:    name,
			Status:  "fail",
			Message: "Required table 'record_units' not found",
			Error:   err,
		}
	}

	return CheckResult{Name: name, Status: "pass", Message: "record_units table exists"}
}

// checkKnowledgeBase verifies every profile can answer with a fallback
func (c *Checker) checkKnowledgeBase() CheckResult {
	const name = "Knowledge Base"
	kb := c.opts.Knowledge
	if kb == nil {
		return CheckResult{Name: name, Status: "fail", Message: "Knowledge base not loaded"}
	}

	rules := 0
	for _, profileName := range kb.ProfileNames() {
		p, _ := kb.Profile(profileName)
		if p.Fallback.Snippet == "" || p.FallbackReply == "" {
			return CheckResult{
				Name:    name,
				Status:  "fail",
				Message: fmt.Sprintf("Profile '%s' has no fallback", profileName),
			}
		}
		rules += len(p.Rules)
	}

	return CheckResult{
		Name:    name,
		Status:  "pass",
		Message: fmt.Sprintf("%d profiles, %d rules loaded", len(kb.Profiles), rules),
	}
}

// checkEnvironmentVariables warns about optional settings that are missing
func (c *Checker) checkEnvironmentVariables() CheckResult {
	if c.opts.OracleKey == "" {
		return CheckResult{
			Name:    "Environment Variables",
			Status:  "warning",
			Message: "GEMINI_API_KEY not set (assistant will return fallback replies)",
		}
	}

	return CheckResult{
		Name:    "Environment Variables",
		Status:  "pass",
		Message: "All environment variables configured",
	}
}

// QuickCheck runs minimal checks for fast startup
func (c *Checker) QuickCheck() []CheckResult {
	log.Println("⚡ Running quick pre-flight checks...")

	results := []CheckResult{
		c.checkDataDir(),
		c.checkDatabaseConnection(),
	}

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s", result.Name)
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
		}
	}

	return results
}
