package decision

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp_ns INTEGER NOT NULL,
    user         TEXT NOT NULL,
    host         TEXT NOT NULL,
    source_app   TEXT NOT NULL,
    dest_app     TEXT NOT NULL,
    content      TEXT NOT NULL,
    action       TEXT NOT NULL CHECK (action IN ('Keep','Discard')),
    length       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_decisions_action ON decisions(action);
`

// SQLiteSink stores decisions in a local SQLite database for ad-hoc
// querying. Complements the chain log; not a substitute for it.
type SQLiteSink struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens or creates the decision database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Append inserts one decision.
func (s *SQLiteSink) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO decisions (timestamp_ns, user, host, source_app, dest_app, content, action, length)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UnixNano(), r.User, r.Host, r.SourceApp, r.DestApp, r.Content, string(r.Action), r.Length,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// Recent returns up to limit decisions, newest first.
func (s *SQLiteSink) Recent(limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT timestamp_ns, user, host, source_app, dest_app, content, action, length
		 FROM decisions ORDER BY timestamp_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r  Record
			ns int64
		)
		if err := rows.Scan(&ns, &r.User, &r.Host, &r.SourceApp, &r.DestApp, &r.Content, (*string)(&r.Action), &r.Length); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		r.Timestamp = timeFromNanos(ns)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func timeFromNanos(ns int64) time.Time {
	return time.Unix(0, ns)
}
