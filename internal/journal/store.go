// Package journal persists every dispatched command to SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/frudas24/qaagent/internal/command"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultLimit is the page size used when a caller passes no limit.
const DefaultLimit = 100

// MaxLimit caps a single Recent query.
const MaxLimit = 1000

const schemaSQL = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

CREATE TABLE IF NOT EXISTS commands (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL DEFAULT '',
    command TEXT NOT NULL,
    params TEXT NOT NULL DEFAULT '',
    status INTEGER NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL,
    at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commands_at ON commands(at DESC);
CREATE INDEX IF NOT EXISTS idx_commands_command ON commands(command);
`

// Record is one stored command.
type Record struct {
	Seq        int64          `json:"seq"`
	RequestID  string         `json:"requestId,omitempty"`
	Command    string         `json:"command"`
	Params     string         `json:"params,omitempty"`
	Status     command.Status `json:"status"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"durationMs"`
	At         time.Time      `json:"at"`
}

// Store is a SQLite-backed command.Recorder.
type Store struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
}

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	stmt, err := db.Prepare(`
		INSERT INTO commands (request_id, command, params, status, error, duration_ms, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare journal insert: %w", err)
	}
	return &Store{db: db, stmtInsert: stmt}, nil
}

// Record appends one dispatched command.
func (s *Store) Record(ctx context.Context, e command.Entry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.stmtInsert.ExecContext(ctx,
		e.RequestID, e.Command, e.Params, int(e.Status), e.Err,
		e.Duration.Milliseconds(), at.UnixMilli())
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. command filters by name when set.
func (s *Store) Recent(ctx context.Context, limit int, name string) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	query := `SELECT seq, request_id, command, params, status, error, duration_ms, at FROM commands`
	args := []any{}
	if name != "" {
		query += ` WHERE command = ?`
		args = append(args, name)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r      Record
			status int
			at     int64
		)
		if err := rows.Scan(&r.Seq, &r.RequestID, &r.Command, &r.Params, &status, &r.Error, &r.DurationMs, &at); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		r.Status = command.Status(status)
		r.At = time.UnixMilli(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commands`).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal count: %w", err)
	}
	return n, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.stmtInsert != nil {
		_ = s.stmtInsert.Close()
	}
	return s.db.Close()
}
