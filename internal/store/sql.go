package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"firdesk/internal/database"
)

// SQLUnit stores a collection as one row of the record_units table.
// Works on both the MySQL and SQLite dialects of database.DB.
type SQLUnit struct {
	db   *database.DB
	name string
}

// NewSQLUnit creates a SQL-backed unit. db.Initialize must have run.
func NewSQLUnit(db *database.DB, name string) *SQLUnit {
	return &SQLUnit{db: db, name: name}
}

// Name returns the unit name
func (u *SQLUnit) Name() string {
	return u.name
}

// Exists reports whether the row for this unit is present
func (u *SQLUnit) Exists(ctx context.Context) (bool, error) {
	var count int
	err := u.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM record_units WHERE name = ?", u.name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Read returns the stored body, or nil when the row is absent
func (u *SQLUnit) Read(ctx context.Context) ([]byte, error) {
	var body string
	err := u.db.QueryRowContext(ctx, "SELECT body FROM record_units WHERE name = ?", u.name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(body), nil
}

// Write upserts the row for this unit
func (u *SQLUnit) Write(ctx context.Context, data []byte) error {
	var query string
	switch u.db.Dialect {
	case database.DialectMySQL:
		query = `INSERT INTO record_units (name, body, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE body = VALUES(body), updated_at = VALUES(updated_at)`
	default:
		query = `INSERT INTO record_units (name, body, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
	}

	_, err := u.db.ExecContext(ctx, query, u.name, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}
