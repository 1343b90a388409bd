package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"warden/internal/config"
)

// Action classifies a recorded update event.
type Action string

const (
	ActionStaged  Action = "staged"
	ActionApplied Action = "applied"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// Event is one row of update history.
type Event struct {
	ID         int64
	RecordedAt time.Time
	Current    string
	Candidate  string
	Action     Action
	Detail     string
}

// Store persists update events backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS update_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at TEXT NOT NULL,
    current TEXT NOT NULL,
    candidate TEXT NOT NULL,
    action TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_update_events_recorded_at ON update_events(recorded_at);
`

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts an update event and returns it with its assigned ID.
func (s *Store) Record(ctx context.Context, current, candidate string, action Action, detail string) (*Event, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO update_events (recorded_at, current, candidate, action, detail) VALUES (?, ?, ?, ?, ?)`,
		now.Format(time.RFC3339Nano), current, candidate, string(action), detail)
	if err != nil {
		return nil, fmt.Errorf("record update event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read event id: %w", err)
	}
	return &Event{ID: id, RecordedAt: now, Current: current, Candidate: candidate, Action: action, Detail: detail}, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recorded_at, current, candidate, action, detail
         FROM update_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query update events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var recorded string
		if err := rows.Scan(&ev.ID, &recorded, &ev.Current, &ev.Candidate, (*string)(&ev.Action), &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan update event: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return nil, fmt.Errorf("parse event timestamp: %w", err)
		}
		ev.RecordedAt = ts
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the total number of recorded events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM update_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count update events: %w", err)
	}
	return count, nil
}
