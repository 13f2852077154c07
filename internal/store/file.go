package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// FileUnit stores a collection as <dir>/<name>.json
type FileUnit struct {
	dir  string
	name string
}

// NewFileUnit creates a file-backed unit. The directory is created on first write.
func NewFileUnit(dir, name string) *FileUnit {
	return &FileUnit{dir: dir, name: name}
}

// Name returns the unit name
func (u *FileUnit) Name() string {
	return u.name
}

// Path returns the location of the collection file
func (u *FileUnit) Path() string {
	return filepath.Join(u.dir, u.name+".json")
}

// Exists reports whether the collection file is present
func (u *FileUnit) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(u.Path())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Read returns the file contents, or nil if the file does not exist
func (u *FileUnit) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(u.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Write replaces the file through a temp file and rename, so concurrent
// readers see either the previous or the new collection.
func (u *FileUnit) Write(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(u.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(u.dir, u.name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, u.Path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", u.Path(), err)
	}
	return nil
}

// Quarantine keeps unparseable contents next to the collection file
func (u *FileUnit) Quarantine(ctx context.Context, raw []byte) error {
	dest := fmt.Sprintf("%s.corrupt-%d", u.Path(), time.Now().Unix())
	if err := os.WriteFile(dest, raw, 0644); err != nil {
		return err
	}
	log.Printf("🧯 [STORE] Corrupt %s preserved at %s", u.name, dest)
	return nil
}
