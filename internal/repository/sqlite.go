package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite TIMESTAMP text format; all timestamps are stored in UTC.
const timestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp reads timestamps returned as text by aggregate expressions,
// which lose the column's declared type.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		timestampLayout,
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// whereClause joins non-empty conditions with AND.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

type HealthSQLite struct {
	db *sql.DB
}

func NewHealthSQLite(db *sql.DB) *HealthSQLite { return &HealthSQLite{db: db} }

func (r *HealthSQLite) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
