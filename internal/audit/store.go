// Package audit persists decision outcomes and moderation actions. The log is
// append-only metadata: outcome, reason, and identifiers, never message text.
// The digest scheduler does not read from it; schedule state lives in process
// memory only.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DecisionRecord is one pipeline outcome.
type DecisionRecord struct {
	ID        int64
	ChatID    int64
	AuthorID  int64
	Outcome   string
	Trigger   string
	Reason    string
	CreatedAt time.Time
}

// DigestRecord is one posted daily digest.
type DigestRecord struct {
	ID        int64
	FiredDate string // calendar date, YYYY-MM-DD
	CreatedAt time.Time
}

// SQLiteStore implements the audit log on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id     INTEGER NOT NULL,
		author_id   INTEGER NOT NULL,
		outcome     TEXT NOT NULL,
		trigger_kind TEXT,
		reason      TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_decisions_chat ON decisions(chat_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_decisions_outcome ON decisions(outcome);

	CREATE TABLE IF NOT EXISTS digest_posts (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		fired_date  TEXT NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_digest_date ON digest_posts(fired_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordDecision appends one pipeline outcome.
func (s *SQLiteStore) RecordDecision(ctx context.Context, rec DecisionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (chat_id, author_id, outcome, trigger_kind, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ChatID, rec.AuthorID, rec.Outcome, rec.Trigger, rec.Reason, rec.CreatedAt,
	)
	return err
}

// RecordDigest appends one posted digest.
func (s *SQLiteStore) RecordDigest(ctx context.Context, firedDate string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO digest_posts (fired_date) VALUES (?)`, firedDate,
	)
	return err
}

// RecentDecisions returns the last N decisions, newest first.
func (s *SQLiteStore) RecentDecisions(ctx context.Context, limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, author_id, outcome, trigger_kind, reason, created_at
		 FROM decisions ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []DecisionRecord
	for rows.Next() {
		var r DecisionRecord
		var trigger, reason sql.NullString
		if err := rows.Scan(&r.ID, &r.ChatID, &r.AuthorID, &r.Outcome, &trigger, &reason, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Trigger = trigger.String
		r.Reason = reason.String
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
