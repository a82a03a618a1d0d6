// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the in-memory session list and the active-session
// pointer, and notifies an observer after every mutation.
//
// All methods are safe for concurrent use. Snapshots are deep copies, so
// callers can read them without holding any lock and stale snapshots never
// alias live state.
package store

import (
	"sync"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

// ============================================================================
// Types
// ============================================================================

// Snapshot is an immutable view of the store at one point in time.
type Snapshot struct {
	Sessions []model.Session
	ActiveID string
}

// Active returns the active session from the snapshot, or nil.
func (s Snapshot) Active() *model.Session {
	for i := range s.Sessions {
		if s.Sessions[i].ID == s.ActiveID {
			return &s.Sessions[i]
		}
	}
	return nil
}

// MessagePatch describes a partial update to a message. Nil fields are left
// untouched.
type MessagePatch struct {
	Content     *string
	IsStreaming *bool
}

// Store owns the session list. Sessions are ordered newest-first.
type Store struct {
	mu       sync.Mutex
	sessions []model.Session
	activeID string
	onChange func(Snapshot)

	// notifyMu serializes observer deliveries. It is acquired while mu
	// is still held, so delivery order matches mutation order.
	notifyMu sync.Mutex
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// ============================================================================
// Observation
// ============================================================================

// OnChange registers the observer invoked after every mutation. The
// observer receives a deep-copied snapshot, and snapshots arrive in
// mutation order even when mutations race on different goroutines. The
// observer must not call back into the store: it runs while the delivery
// lock is held, and a store call from inside it deadlocks.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	out := Snapshot{
		Sessions: make([]model.Session, len(s.sessions)),
		ActiveID: s.activeID,
	}
	for i, sess := range s.sessions {
		out.Sessions[i] = sess.Clone()
	}
	return out
}

// notify must be called with mu HELD; it releases it. The delivery lock
// is taken before mu drops, so a second mutation cannot overtake this
// one's delivery: the observer sees snapshots in mutation order.
func (s *Store) notify() {
	fn := s.onChange
	if fn == nil {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	fn(snap)
	s.notifyMu.Unlock()
}

// ============================================================================
// Session operations
// ============================================================================

// Seed replaces the store contents wholesale, without notifying. Used once
// at startup to load persisted sessions.
func (s *Store) Seed(sessions []model.Session, activeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make([]model.Session, len(sessions))
	for i, sess := range sessions {
		s.sessions[i] = sess.Clone()
	}
	s.activeID = ""
	for i := range s.sessions {
		if s.sessions[i].ID == activeID {
			s.activeID = activeID
			break
		}
	}
	if s.activeID == "" && len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
	}
}

// CreateSession prepends a new empty session and makes it active.
func (s *Store) CreateSession() model.Session {
	sess := model.NewSession()

	s.mu.Lock()
	s.sessions = append([]model.Session{sess}, s.sessions...)
	s.activeID = sess.ID
	s.notify()

	return sess
}

// SelectSession makes the given session active. Unknown IDs are ignored.
func (s *Store) SelectSession(id string) {
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			if s.activeID != id {
				s.activeID = id
				s.notify()
				return
			}
			break
		}
	}
	s.mu.Unlock()
}

// DeleteSession removes a session. Deleting the active session moves the
// active pointer to the first remaining session, or clears it when none
// remain. Unknown IDs are ignored.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	idx := -1
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if s.activeID == id {
		if len(s.sessions) > 0 {
			s.activeID = s.sessions[0].ID
		} else {
			s.activeID = ""
		}
	}
	s.notify()
}

// SetSessionTitle replaces a session's title. Unknown IDs are ignored.
func (s *Store) SetSessionTitle(id, title string) {
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].Title = title
			s.notify()
			return
		}
	}
	s.mu.Unlock()
}

// ActiveID returns the active session's ID, or "" when there is none.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Session returns a deep copy of one session.
func (s *Store) Session(id string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return s.sessions[i].Clone(), true
		}
	}
	return model.Session{}, false
}

// ============================================================================
// Message operations
// ============================================================================

// AppendMessage appends a message to a session. Unknown session IDs are
// ignored.
func (s *Store) AppendMessage(sessionID string, msg model.Message) {
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].Messages = append(s.sessions[i].Messages, msg.Clone())
			s.notify()
			return
		}
	}
	s.mu.Unlock()
}

// UpdateLastMessage applies a patch to the final message of a session.
// No-op when the session is unknown or empty.
func (s *Store) UpdateLastMessage(sessionID string, patch MessagePatch) {
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID != sessionID {
			continue
		}
		msgs := s.sessions[i].Messages
		if len(msgs) == 0 {
			break
		}
		last := &msgs[len(msgs)-1]
		if patch.Content != nil {
			last.Content = *patch.Content
		}
		if patch.IsStreaming != nil {
			last.IsStreaming = *patch.IsStreaming
		}
		s.notify()
		return
	}
	s.mu.Unlock()
}

// RemoveMessage deletes a message by ID. Used to roll back the streaming
// placeholder after a failed turn. Unknown IDs are ignored.
func (s *Store) RemoveMessage(sessionID, messageID string) {
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID != sessionID {
			continue
		}
		msgs := s.sessions[i].Messages
		for j := range msgs {
			if msgs[j].ID == messageID {
				s.sessions[i].Messages = append(msgs[:j], msgs[j+1:]...)
				s.notify()
				return
			}
		}
		break
	}
	s.mu.Unlock()
}
