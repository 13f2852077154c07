package commands

import (
	"context"
	"fmt"

	"firdesk/internal/assistant"
	"firdesk/internal/backend"
	"firdesk/internal/config"
	"firdesk/internal/jobs"
	"firdesk/internal/retrieval"
	"firdesk/internal/services"
)

// Env is everything a command can operate on
type Env struct {
	Drafts    *services.CollectionService
	Reports   *services.CollectionService
	Assistant *assistant.Assistant
	Snapshot  *jobs.SnapshotJob
	Close     func()
}

// Opener builds an Env on demand so commands that fail flag parsing never
// touch the backend
type Opener func(ctx context.Context) (*Env, error)

// ConfigOpener opens the backend the server would use for cfg
func ConfigOpener(cfg *config.Config) Opener {
	return func(ctx context.Context) (*Env, error) {
		stores, err := backend.Open(ctx, cfg, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
		}

		kb, err := retrieval.Load()
		if err != nil {
			stores.Close()
			return nil, err
		}

		var oracle assistant.Oracle
		if cfg.GeminiAPIKey != "" {
			gemini, err := assistant.NewGeminiOracle(ctx, assistant.GeminiConfig{
				APIKey:  cfg.GeminiAPIKey,
				Model:   cfg.GeminiModel,
				BaseURL: cfg.GeminiBaseURL,
			})
			if err != nil {
				stores.Close()
				return nil, err
			}
			oracle = gemini
		}

		drafts := services.NewDraftsService(stores.Drafts, cfg.EnforceUniqueIDs)
		reports := services.NewReportsService(stores.Reports, cfg.ValidateReports, cfg.EnforceUniqueIDs)

		return &Env{
			Drafts:  drafts,
			Reports: reports,
			Assistant: assistant.New(kb, oracle, assistant.Options{
				Timeout: cfg.OracleTimeout,
			}),
			Snapshot: jobs.NewSnapshotJob(cfg.SnapshotDir, cfg.SnapshotKeep, drafts, reports),
			Close:    stores.Close,
		}, nil
	}
}
