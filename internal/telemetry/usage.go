// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records local usage statistics for chat turns.
//
// Stats live in a SQLite database (usage.db) next to the session file.
// Everything stays on disk locally; nothing is reported anywhere. The
// data feeds the /stats command.
package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	message_id  TEXT NOT NULL,
	fragments   INTEGER NOT NULL,
	chars       INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);
`

// UsageStore records per-turn stats in SQLite.
type UsageStore struct {
	db *sql.DB
}

// Totals aggregates recorded turns.
type Totals struct {
	Turns         int
	Chars         int
	TotalDuration time.Duration
}

// Open creates or opens the usage database at path.
func Open(path string) (*UsageStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}

	// SQLite supports one writer; keep the pool at a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &UsageStore{db: db}, nil
}

// Close releases the database handle.
func (s *UsageStore) Close() error {
	return s.db.Close()
}

// RecordTurn stores the stats of one settled turn.
func (s *UsageStore) RecordTurn(sessionID, messageID string, fragments, chars int, duration time.Duration) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (session_id, message_id, fragments, chars, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, messageID, fragments, chars, duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

// SessionTotals aggregates turns for one session.
func (s *UsageStore) SessionTotals(sessionID string) (Totals, error) {
	return s.totals("WHERE session_id = ?", sessionID)
}

// AllTotals aggregates every recorded turn.
func (s *UsageStore) AllTotals() (Totals, error) {
	return s.totals("")
}

func (s *UsageStore) totals(where string, args ...any) (Totals, error) {
	var t Totals
	var ms int64
	query := `SELECT COUNT(*), COALESCE(SUM(chars), 0), COALESCE(SUM(duration_ms), 0) FROM turns ` + where
	if err := s.db.QueryRow(query, args...).Scan(&t.Turns, &t.Chars, &ms); err != nil {
		return Totals{}, fmt.Errorf("failed to query totals: %w", err)
	}
	t.TotalDuration = time.Duration(ms) * time.Millisecond
	return t, nil
}

// DeleteSession drops all turns recorded for a session.
func (s *UsageStore) DeleteSession(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM turns WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session stats: %w", err)
	}
	return nil
}
