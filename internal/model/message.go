// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser is a message typed by the person at the keyboard.
	RoleUser Role = "user"

	// RoleAssistant is a reply produced by the model.
	RoleAssistant Role = "assistant"
)

// Blob is inline binary content attached to a message part. Data is
// base64-encoded (standard alphabet, no data-URL prefix) so that sessions
// round-trip through JSON without re-encoding.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is one typed piece of a user message. Exactly one field is set.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Message is a single turn in a session.
//
// Content always holds the displayable text, even when Parts is set;
// renderers and exporters read Content and never have to walk Parts.
// Parts preserves the structured form (text plus optional image) that the
// upstream API needs when the history is replayed.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Parts     []Part    `json:"parts,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// IsStreaming marks an assistant message whose content is still
	// arriving. Not persisted: a reload never resurrects a half-finished
	// reply as in-progress.
	IsStreaming bool `json:"-"`
}

// NewUserMessage builds a user turn. parts may be nil for text-only turns.
func NewUserMessage(content string, parts []Part) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   content,
		Parts:     parts,
		Timestamp: time.Now(),
	}
}

// NewStreamingMessage builds the empty assistant placeholder that is
// appended when a turn starts and filled in as fragments arrive.
func NewStreamingMessage() Message {
	return Message{
		ID:          uuid.New().String(),
		Role:        RoleAssistant,
		Content:     "",
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.Parts != nil {
		out.Parts = make([]Part, len(m.Parts))
		copy(out.Parts, m.Parts)
		for i, p := range m.Parts {
			if p.InlineData != nil {
				blob := *p.InlineData
				out.Parts[i].InlineData = &blob
			}
		}
	}
	return out
}
