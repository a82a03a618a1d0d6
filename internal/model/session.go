// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the placeholder title a session carries until the first
// exchange has been summarized.
const DefaultTitle = "New Chat"

// Session is one conversation thread.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSession builds an empty session with the placeholder title.
func NewSession() Session {
	return Session{
		ID:        uuid.New().String(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		CreatedAt: time.Now(),
	}
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.Clone()
	}
	return out
}

// LastMessage returns the most recent message, or nil for an empty session.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// IsUntitled reports whether the session still carries the placeholder
// title.
func (s *Session) IsUntitled() bool {
	return s.Title == "" || s.Title == DefaultTitle
}
