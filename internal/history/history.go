// Package history keeps a local SQLite record of submitted and watched jobs.
// The database is owned by whoever opens it; there is no package-level handle.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for unknown job ids.
var ErrNotFound = errors.New("history entry not found")

// Entry is one job as last seen by reportwatch.
type Entry struct {
	JobID      string    `json:"jobId" yaml:"jobId"`
	TemplateID string    `json:"templateId,omitempty" yaml:"templateId,omitempty"`
	Status     string    `json:"status,omitempty" yaml:"status,omitempty"`
	Outcome    string    `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	ReportID   string    `json:"reportId,omitempty" yaml:"reportId,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Submitted  bool      `json:"submitted" yaml:"submitted"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Store is an open history database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id      TEXT PRIMARY KEY,
	template_id TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL DEFAULT '',
	report_id   TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	submitted   INTEGER NOT NULL DEFAULT 0,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_updated_at ON jobs(updated_at);
`

// Open opens or creates the database at path, creating parent directories.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// Concurrent watchers write through one connection; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure history: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts or updates an entry by job id. Empty fields never overwrite
// values already stored, and Submitted is sticky once set.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.JobID) == "" {
		return fmt.Errorf("job id required")
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO jobs (job_id, template_id, status, outcome, report_id, error, submitted, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(job_id) DO UPDATE SET
	template_id = CASE WHEN excluded.template_id != '' THEN excluded.template_id ELSE jobs.template_id END,
	status      = CASE WHEN excluded.status != '' THEN excluded.status ELSE jobs.status END,
	outcome     = CASE WHEN excluded.outcome != '' THEN excluded.outcome ELSE jobs.outcome END,
	report_id   = CASE WHEN excluded.report_id != '' THEN excluded.report_id ELSE jobs.report_id END,
	error       = CASE WHEN excluded.error != '' THEN excluded.error ELSE jobs.error END,
	submitted   = MAX(jobs.submitted, excluded.submitted),
	updated_at  = excluded.updated_at`,
		e.JobID, e.TemplateID, e.Status, e.Outcome, e.ReportID, e.Error, boolToInt(e.Submitted), e.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("record %s: %w", e.JobID, err)
	}
	return nil
}

// Get returns the entry for one job.
func (s *Store) Get(ctx context.Context, jobID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT job_id, template_id, status, outcome, report_id, error, submitted, updated_at
FROM jobs WHERE job_id = ?`, jobID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", jobID, err)
	}
	return e, nil
}

// Recent returns up to limit entries, most recently updated first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT job_id, template_id, status, outcome, report_id, error, submitted, updated_at
FROM jobs ORDER BY updated_at DESC, job_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e         Entry
		submitted int
		updated   int64
	)
	if err := row.Scan(&e.JobID, &e.TemplateID, &e.Status, &e.Outcome, &e.ReportID, &e.Error, &submitted, &updated); err != nil {
		return Entry{}, err
	}
	e.Submitted = submitted != 0
	e.UpdatedAt = time.UnixMilli(updated)
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
