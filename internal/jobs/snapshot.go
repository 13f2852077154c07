package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"firdesk/internal/models"
)

// SnapshotSource is a collection that can be copied out
type SnapshotSource interface {
	Name() string
	ListAll(ctx context.Context) []models.Report
}

// SnapshotJob writes a point-in-time copy of each collection to disk and
// keeps only the newest copies per collection.
type SnapshotJob struct {
	dir     string
	keep    int
	sources []SnapshotSource
	now     func() time.Time
}

// NewSnapshotJob creates a snapshot job. keep <= 0 disables pruning.
func NewSnapshotJob(dir string, keep int, sources ...SnapshotSource) *SnapshotJob {
	return &SnapshotJob{
		dir:     dir,
		keep:    keep,
		sources: sources,
		now:     time.Now,
	}
}

const snapshotLayout = "20060102T150405Z"

// Run snapshots every source
func (j *SnapshotJob) Run(ctx context.Context) error {
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	stamp := j.now().UTC().Format(snapshotLayout)
	for _, src := range j.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		records := src.ListAll(ctx)
		if records == nil {
			records = []models.Report{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", src.Name(), err)
		}

		path := filepath.Join(j.dir, fmt.Sprintf("%s-%s.json", src.Name(), stamp))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write snapshot %s: %w", path, err)
		}
		log.Printf("📦 [SNAPSHOT] %s: %d records -> %s", src.Name(), len(records), filepath.Base(path))

		if err := j.prune(src.Name()); err != nil {
			log.Printf("⚠️  [SNAPSHOT] Failed to prune %s snapshots: %v", src.Name(), err)
		}
	}
	return nil
}

// Snapshots lists the snapshot files for one collection, oldest first
func (j *SnapshotJob) Snapshots(name string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(j.dir, name+"-*.json"))
	if err != nil {
		return nil, err
	}
	// the timestamp layout sorts lexically
	slices.Sort(matches)
	return matches, nil
}

func (j *SnapshotJob) prune(name string) error {
	if j.keep <= 0 {
		return nil
	}
	files, err := j.Snapshots(name)
	if err != nil {
		return err
	}
	if len(files) <= j.keep {
		return nil
	}

	var failed []string
	for _, path := range files[:len(files)-j.keep] {
		if err := os.Remove(path); err != nil {
			failed = append(failed, filepath.Base(path))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("could not remove %s", strings.Join(failed, ", "))
	}
	return nil
}
