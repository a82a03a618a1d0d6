// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat sessions to disk.
//
// All sessions live in one JSON document, sessions.json, under the data
// directory (default ~/.omnimind). Writes go through an atomic
// temp-file-and-rename so a crash mid-save never corrupts history. A
// missing or unreadable file loads as an empty list rather than an error:
// chat history is convenience data and must never block startup.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/omnimind-tui/internal/model"
	"github.com/jeranaias/omnimind-tui/internal/util"
)

const sessionsFile = "sessions.json"

// =============================================================================
// STORED TYPES
// =============================================================================

// storedRecord is the on-disk document: every session plus the active
// session pointer, under a schema version for future migrations.
type storedRecord struct {
	Version  int             `json:"version"`
	ActiveID string          `json:"active_id,omitempty"`
	Sessions []storedSession `json:"sessions"`
	SavedAt  time.Time       `json:"saved_at"`
}

type storedSession struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
	Messages  []storedMessage `json:"messages"`
}

type storedMessage struct {
	ID        string       `json:"id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Parts     []model.Part `json:"parts,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

const schemaVersion = 1

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore persists the session list to a single JSON file.
type SessionStore struct {
	// BaseDir is the data directory. Default: ~/.omnimind
	BaseDir string
}

// NewSessionStore creates a store rooted at the default data directory.
func NewSessionStore() (*SessionStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &SessionStore{BaseDir: filepath.Join(home, ".omnimind")}, nil
}

// NewSessionStoreAt creates a store rooted at dir. Used by tests.
func NewSessionStoreAt(dir string) *SessionStore {
	return &SessionStore{BaseDir: dir}
}

func (s *SessionStore) path() string {
	return filepath.Join(s.BaseDir, sessionsFile)
}

// Save writes all sessions and the active pointer to disk atomically.
// Streaming placeholders are stored like any other message; their
// in-progress flag is not serialized, so a reload sees them as settled
// text.
func (s *SessionStore) Save(sessions []model.Session, activeID string) error {
	rec := storedRecord{
		Version:  schemaVersion,
		ActiveID: activeID,
		Sessions: make([]storedSession, len(sessions)),
		SavedAt:  time.Now(),
	}
	for i, sess := range sessions {
		rec.Sessions[i] = toStored(sess)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err := util.AtomicWriteFile(s.path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write sessions file: %w", err)
	}
	return nil
}

// Load reads the session list from disk. A missing, empty, or corrupt
// file yields an empty list and no error.
func (s *SessionStore) Load() ([]model.Session, string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Session{}, "", nil
		}
		return []model.Session{}, "", nil
	}

	var rec storedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt history is discarded, not fatal.
		return []model.Session{}, "", nil
	}

	sessions := make([]model.Session, len(rec.Sessions))
	for i, ss := range rec.Sessions {
		sessions[i] = fromStored(ss)
	}
	return sessions, rec.ActiveID, nil
}

// Delete removes the sessions file. Missing files are not an error.
func (s *SessionStore) Delete() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete sessions file: %w", err)
	}
	return nil
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toStored(sess model.Session) storedSession {
	out := storedSession{
		ID:        sess.ID,
		Title:     sess.Title,
		CreatedAt: sess.CreatedAt,
		Messages:  make([]storedMessage, len(sess.Messages)),
	}
	for i, m := range sess.Messages {
		out.Messages[i] = storedMessage{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Parts:     m.Parts,
			Timestamp: m.Timestamp,
		}
	}
	return out
}

func fromStored(ss storedSession) model.Session {
	out := model.Session{
		ID:        ss.ID,
		Title:     ss.Title,
		CreatedAt: ss.CreatedAt,
		Messages:  make([]model.Message, len(ss.Messages)),
	}
	if out.Title == "" {
		out.Title = model.DefaultTitle
	}
	for i, m := range ss.Messages {
		out.Messages[i] = model.Message{
			ID:        m.ID,
			Role:      model.Role(m.Role),
			Content:   m.Content,
			Parts:     m.Parts,
			Timestamp: m.Timestamp,
		}
	}
	return out
}
