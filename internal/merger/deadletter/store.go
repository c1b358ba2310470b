// Package deadletter persists ASR worker decode failures (a WorkerOutput
// with a non-empty Err field) so an operator can inspect what audio the
// recognizer choked on.
package deadletter

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" driver

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

// Entry is one failed recognition attempt.
type Entry struct {
	ID        int64
	TaskID    string
	SocketID  string
	Err       string
	Offset    float64
	Duration  float64
	CreatedAt time.Time
}

// Store persists Entries to a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite dead-letter database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("deadletter: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("deadletter: ping: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("deadletter: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS dead_letters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			socket_id TEXT NOT NULL,
			err TEXT NOT NULL,
			offset_seconds REAL NOT NULL,
			duration_seconds REAL NOT NULL,
			created_at DATETIME NOT NULL
		)
	`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one failed WorkerOutput.
func (s *Store) Record(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO dead_letters (task_id, socket_id, err, offset_seconds, duration_seconds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.TaskID, e.SocketID, e.Err, e.Offset, e.Duration, e.CreatedAt.UTC(),
	)
	return err
}

// RecordFailure satisfies internal/asr.FailureRecorder, adapting a failed
// WorkerOutput into an Entry.
func (s *Store) RecordFailure(out wire.WorkerOutput) error {
	return s.Record(Entry{
		TaskID:    out.TaskID,
		SocketID:  out.SocketID,
		Err:       out.Err,
		Offset:    out.Offset,
		Duration:  out.Duration,
		CreatedAt: time.Now(),
	})
}

// Recent returns the most recently recorded entries, newest first, up to
// limit rows.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, socket_id, err, offset_seconds, duration_seconds, created_at
		 FROM dead_letters ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.SocketID, &e.Err, &e.Offset, &e.Duration, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the total number of recorded dead letters.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM dead_letters`).Scan(&n)
	return n, err
}
