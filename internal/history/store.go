// Package history persists per-project orchestration outcomes in SQLite so
// the index page can report when documentation was last built successfully,
// across restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Operation names recorded per row.
const (
	OpUpdate = "update"
	OpBuild  = "build"
)

// Record is one persisted update/build outcome.
type Record struct {
	ID       int64
	RunID    string
	Project  string
	Op       string
	Success  bool
	Detail   string
	Duration time.Duration
	At       time.Time
}

// Store records orchestration outcomes. Use ":memory:" for a throwaway
// in-process database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and initializes) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		project TEXT NOT NULL,
		op TEXT NOT NULL,
		success INTEGER NOT NULL,
		detail TEXT,
		duration_ms INTEGER NOT NULL,
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_project ON outcomes(project);
	CREATE INDEX IF NOT EXISTS idx_outcomes_at ON outcomes(at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one outcome.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO outcomes (run_id, project, op, success, detail, duration_ms, at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.RunID, rec.Project, rec.Op, boolToInt(rec.Success), rec.Detail, rec.Duration.Milliseconds(), at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// LastSuccess returns the time of the most recent successful build for a
// project, or nil when it has never built successfully.
func (s *Store) LastSuccess(ctx context.Context, projectRoute string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unix int64
	err := s.db.QueryRowContext(ctx,
		"SELECT at FROM outcomes WHERE project = ? AND op = ? AND success = 1 ORDER BY at DESC, id DESC LIMIT 1",
		projectRoute, OpBuild,
	).Scan(&unix)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last success: %w", err)
	}
	t := time.Unix(unix, 0)
	return &t, nil
}

// ByProject returns the recorded outcomes for one project, newest first,
// capped at limit (<=0 means no cap).
func (s *Store) ByProject(ctx context.Context, projectRoute string, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := "SELECT id, run_id, project, op, success, detail, duration_ms, at FROM outcomes WHERE project = ? ORDER BY at DESC, id DESC"
	args := []any{projectRoute}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var success int
		var durationMS, atUnix int64
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Project, &rec.Op, &success, &rec.Detail, &durationMS, &atUnix); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		rec.Success = success != 0
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.At = time.Unix(atUnix, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
