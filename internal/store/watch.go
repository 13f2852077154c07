package store

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// WatchDir reports changes to <unit>.json files in dir until ctx is done.
// onChange receives the unit name once per burst of events.
func WatchDir(ctx context.Context, dir string, onChange func(unit string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", absDir, err)
	}

	log.Printf("👁️  [STORE] Watching %s for external changes", absDir)

	go func() {
		defer watcher.Close()

		timers := make(map[string]*time.Timer)

		for {
			select {
			case <-ctx.Done():
				for _, t := range timers {
					t.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				base := filepath.Base(event.Name)
				if filepath.Ext(base) != ".json" {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}

				unit := strings.TrimSuffix(base, ".json")

				if t, exists := timers[unit]; exists {
					t.Stop()
				}
				timers[unit] = time.AfterFunc(watchDebounce, func() {
					onChange(unit)
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  [STORE] File watcher error: %v", err)
			}
		}
	}()

	return nil
}
