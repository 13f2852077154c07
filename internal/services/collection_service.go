package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"firdesk/internal/models"
	"firdesk/internal/store"

	"github.com/go-playground/validator/v10"
)

// Collection names as exposed to clients and metrics
const (
	CollectionDrafts  = "drafts"
	CollectionReports = "reports"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDeleteNotAllowed = errors.New("collection does not support delete")
	ErrDuplicateID      = errors.New("firNumber already exists")
	ErrInvalidReport    = errors.New("invalid report")
)

// ValidationError lists the fields that failed validation, keyed by JSON path
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "invalid report: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidReport
}

// CollectionPolicy switches the optional behaviours of a collection
type CollectionPolicy struct {
	AllowDelete      bool
	Validate         bool
	EnforceUniqueIDs bool
}

// CollectionService owns one named collection of reports
type CollectionService struct {
	name   string
	store  store.RecordStore
	policy CollectionPolicy

	validate *validator.Validate
	feed     *ChangeFeed
	metrics  *Metrics
	now      func() time.Time

	// held across check-and-append when ids must be unique
	createMu sync.Mutex
}

// NewCollectionService creates a service over st
func NewCollectionService(name string, st store.RecordStore, policy CollectionPolicy) *CollectionService {
	s := &CollectionService{
		name:   name,
		store:  st,
		policy: policy,
		now:    time.Now,
	}
	if policy.Validate {
		s.validate = newReportValidator()
	}
	return s
}

// NewDraftsService creates the drafts collection, which supports delete
func NewDraftsService(st store.RecordStore, enforceUniqueIDs bool) *CollectionService {
	return NewCollectionService(CollectionDrafts, st, CollectionPolicy{
		AllowDelete:      true,
		EnforceUniqueIDs: enforceUniqueIDs,
	})
}

// NewReportsService creates the finalized reports collection, which is append-only
func NewReportsService(st store.RecordStore, validate, enforceUniqueIDs bool) *CollectionService {
	return NewCollectionService(CollectionReports, st, CollectionPolicy{
		Validate:         validate,
		EnforceUniqueIDs: enforceUniqueIDs,
	})
}

// SetFeed publishes every successful mutation to feed
func (s *CollectionService) SetFeed(feed *ChangeFeed) {
	s.feed = feed
}

// SetMetrics counts mutations on m
func (s *CollectionService) SetMetrics(m *Metrics) {
	s.metrics = m
}

// SetClock replaces the time source used for ids and createdAt
func (s *CollectionService) SetClock(now func() time.Time) {
	s.now = now
}

// Name returns the collection name
func (s *CollectionService) Name() string {
	return s.name
}

// ListAll returns every record in insertion order. Never fails; a damaged
// collection reads as empty.
func (s *CollectionService) ListAll(ctx context.Context) []models.Report {
	return s.store.Load(ctx)
}

// Get returns the first record with the given firNumber
func (s *CollectionService) Get(ctx context.Context, id string) (models.Report, error) {
	for _, r := range s.store.Load(ctx) {
		if r.FIRNumber == id {
			return r, nil
		}
	}
	return models.Report{}, ErrNotFound
}

// Search returns records whose firNumber or complainant name contains term,
// ignoring case. An empty term matches everything.
func (s *CollectionService) Search(ctx context.Context, term string) []models.Report {
	records := s.store.Load(ctx)

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records
	}

	matches := make([]models.Report, 0)
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.FIRNumber), term) ||
			strings.Contains(strings.ToLower(r.Complainant.Name), term) {
			matches = append(matches, r)
		}
	}
	return matches
}

// Create assigns a firNumber when the client left it empty, stamps createdAt,
// and appends the record. The stored record is returned.
func (s *CollectionService) Create(ctx context.Context, record models.Report) (models.Report, error) {
	now := s.now().UTC()

	generated := record.FIRNumber == ""
	if generated {
		record.FIRNumber = GenerateFIRNumber(now)
	}
	record.CreatedAt = now.Format(time.RFC3339)

	if s.validate != nil {
		if err := s.validateReport(record); err != nil {
			return models.Report{}, err
		}
	}

	if s.policy.EnforceUniqueIDs {
		s.createMu.Lock()
		defer s.createMu.Unlock()

		taken := make(map[string]bool)
		for _, r := range s.store.Load(ctx) {
			taken[r.FIRNumber] = true
		}
		if taken[record.FIRNumber] {
			if !generated {
				return models.Report{}, fmt.Errorf("%w: %s", ErrDuplicateID, record.FIRNumber)
			}
			// two creates within the same second
			base := record.FIRNumber
			for n := 2; taken[record.FIRNumber]; n++ {
				record.FIRNumber = fmt.Sprintf("%s-%d", base, n)
			}
		}
	}

	if err := s.store.Append(ctx, record); err != nil {
		log.Printf("❌ [%s] Failed to save %s: %v", strings.ToUpper(s.name), record.FIRNumber, err)
		return models.Report{}, fmt.Errorf("failed to save %s: %w", record.FIRNumber, err)
	}

	s.changed(models.ActionCreated, record.FIRNumber, now)
	return record, nil
}

// DeleteByID removes every record with the given firNumber. Returns
// ErrNotFound when nothing matched.
func (s *CollectionService) DeleteByID(ctx context.Context, id string) error {
	if !s.policy.AllowDelete {
		return ErrDeleteNotAllowed
	}

	removed, err := s.store.Remove(ctx, func(r models.Report) bool {
		return r.FIRNumber == id
	})
	if err != nil {
		log.Printf("❌ [%s] Failed to delete %s: %v", strings.ToUpper(s.name), id, err)
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}

	s.changed(models.ActionDeleted, id, s.now().UTC())
	return nil
}

func (s *CollectionService) changed(action, id string, at time.Time) {
	s.metrics.RecordMutation(s.name, action)
	if s.feed != nil {
		s.feed.Publish(models.ChangeEvent{
			Collection: s.name,
			Action:     action,
			FIRNumber:  id,
			At:         at.Format(time.RFC3339),
		})
	}
}

func (s *CollectionService) validateReport(record models.Report) error {
	err := s.validate.Struct(record)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// drop the leading struct name: Report.complainant.name -> complainant.name
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		switch fe.Tag() {
		case "notblank":
			fields[path] = "is required"
		default:
			fields[path] = "is invalid"
		}
	}
	return &ValidationError{Fields: fields}
}

// GenerateFIRNumber builds the timestamp id FIR-yyyyMMddHHmmss in UTC
func GenerateFIRNumber(t time.Time) string {
	return "FIR-" + t.UTC().Format("20060102150405")
}

func newReportValidator() *validator.Validate {
	v := validator.New()

	// report errors by JSON field name
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// whitespace-only text does not count as filled in
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() == reflect.String {
			return strings.TrimSpace(fl.Field().String()) != ""
		}
		return !fl.Field().IsZero()
	})

	return v
}
