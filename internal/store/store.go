package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"firdesk/internal/logging"
	"firdesk/internal/models"
)

// Unit is one named durable unit holding the whole serialized collection.
// Every mutation rewrites the unit's entire contents.
type Unit interface {
	// Name is the unit's identity within its backend (e.g. "draftfir")
	Name() string
	// Exists reports whether the unit has ever been written
	Exists(ctx context.Context) (bool, error)
	// Read returns the raw contents, or nil when the unit does not exist
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the contents in one step
	Write(ctx context.Context, data []byte) error
}

// Quarantiner is implemented by units that can keep a copy of unparseable
// contents before they are overwritten.
type Quarantiner interface {
	Quarantine(ctx context.Context, raw []byte) error
}

// Locker serializes mutations across processes sharing one backend.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RecordStore is the contract every collection is built on
type RecordStore interface {
	Name() string
	Load(ctx context.Context) []models.Report
	Append(ctx context.Context, record models.Report) error
	Remove(ctx context.Context, match func(models.Report) bool) (int, error)
}

// Store keeps an ordered sequence of reports in a single Unit.
// Reads are lock-free; mutations are read-modify-write of the whole collection
// and are serialized per Store.
type Store struct {
	unit    Unit
	mu      sync.Mutex
	locker  Locker
	onFault func(unit string)
}

// New creates a store over the given unit
func New(unit Unit) *Store {
	return &Store{unit: unit}
}

// SetLocker adds a cross-process lock taken around every mutation
func (s *Store) SetLocker(locker Locker) {
	s.locker = locker
}

// SetFaultHook registers a callback invoked whenever the unit cannot be read or parsed
func (s *Store) SetFaultHook(hook func(unit string)) {
	s.onFault = hook
}

// Name returns the backing unit name
func (s *Store) Name() string {
	return s.unit.Name()
}

// Init writes an empty collection if the unit does not exist yet
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.unit.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check unit %s: %w", s.unit.Name(), err)
	}
	if exists {
		return nil
	}
	if err := s.unit.Write(ctx, []byte("[]")); err != nil {
		return fmt.Errorf("failed to initialize unit %s: %w", s.unit.Name(), err)
	}
	log.Printf("📁 [STORE] Initialized empty collection %s", s.unit.Name())
	return nil
}

// Load returns every record in insertion order. A missing, empty, unreadable,
// or corrupt unit yields an empty slice; the fault is logged, never returned.
func (s *Store) Load(ctx context.Context) []models.Report {
	records, _, _, _ := s.read(ctx)
	return records
}

// Append adds a record at the end of the collection
func (s *Store) Append(ctx context.Context, record models.Report) error {
	return s.mutate(ctx, func(records []models.Report) ([]models.Report, bool) {
		return append(records, record), true
	})
}

// Remove deletes every record matching the predicate and returns how many were removed.
// The unit is only rewritten when something matched.
func (s *Store) Remove(ctx context.Context, match func(models.Report) bool) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(records []models.Report) ([]models.Report, bool) {
		kept := make([]models.Report, 0, len(records))
		for _, r := range records {
			if match(r) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, removed > 0
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// read loads and decodes the unit. corrupt is true when raw holds bytes that
// could not be parsed. err is set only when the unit itself could not be read;
// records is never nil.
func (s *Store) read(ctx context.Context) (records []models.Report, raw []byte, corrupt bool, err error) {
	records = []models.Report{}

	data, err := s.unit.Read(ctx)
	if err != nil {
		s.fault("read failed", err)
		return records, nil, false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, data, false, nil
	}

	var decoded []models.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.fault("unparseable contents", err)
		return records, data, true, nil
	}
	if decoded != nil {
		records = decoded
	}
	return records, data, false, nil
}

func (s *Store) mutate(ctx context.Context, apply func([]models.Report) ([]models.Report, bool)) error {
	// A started write runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, s.unit.Name())
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", s.unit.Name(), err)
		}
		defer unlock()
	}

	// A unit that could not be read is never rewritten
	records, raw, corrupt, err := s.read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.unit.Name(), err)
	}
	next, changed := apply(records)
	if !changed {
		return nil
	}

	if corrupt {
		if q, ok := s.unit.(Quarantiner); ok {
			if err := q.Quarantine(ctx, raw); err != nil {
				log.Printf("⚠️  [STORE] Failed to quarantine corrupt %s: %v", s.unit.Name(), err)
			}
		}
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.unit.Name(), err)
	}
	if err := s.unit.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.unit.Name(), err)
	}
	return nil
}

func (s *Store) fault(msg string, err error) {
	logging.WithCollection(s.unit.Name()).Error("record store fault, serving empty collection",
		"reason", msg,
		"error", err,
	)
	if s.onFault != nil {
		s.onFault(s.unit.Name())
	}
}
