// Package store persists finished reports.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jamwojt/csv-sumup/internal/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS column_summaries (
	run_id         TEXT    NOT NULL,
	position       INTEGER NOT NULL,
	file           TEXT    NOT NULL,
	"column"       TEXT    NOT NULL,
	kind           TEXT    NOT NULL,
	count          INTEGER,
	sum            REAL,
	mean           REAL,
	median         REAL,
	variance       REAL,
	std            REAL,
	earliest       TEXT,
	latest         TEXT,
	category_count INTEGER,
	anomalies      INTEGER,
	error          TEXT,
	created_at     TEXT    NOT NULL,
	PRIMARY KEY (run_id, position)
)`

// SQLite writes one row per column into the column_summaries table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and ensures the table exists.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table column_summaries: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// DB exposes the handle for queries.
func (s *SQLite) DB() *sql.DB { return s.db }

// SaveReport inserts every column of rep in one transaction. Saving the same run
// twice replaces its rows.
func (s *SQLite) SaveReport(ctx context.Context, rep *analysis.Report) (err error) {
	if rep.RunID == "" {
		return errors.New("report has no run id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO column_summaries
		(run_id, position, file, "column", kind, count, sum, mean, median, variance, std,
		 earliest, latest, category_count, anomalies, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, c := range rep.Cols {
		_, err = stmt.ExecContext(ctx,
			rep.RunID, i, rep.Name, c.Name, c.Kind,
			nullInt(c.Count, c.Kind != "text"),
			nullFloat(c.Sum), nullFloat(c.Mean), nullFloat(c.Median), nullFloat(c.Variance), nullFloat(c.Std),
			nullString(c.Earliest), nullString(c.Latest),
			nullInt(int64(c.CategoryCount), c.Kind == "text"),
			nullInt(c.Anomalies, c.Kind == "number" || c.Kind == "date"),
			nullString(c.Error), now)
		if err != nil {
			return fmt.Errorf("insert column %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(v int64, valid bool) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: valid} }

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }
