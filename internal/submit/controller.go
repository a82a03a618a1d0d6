// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package submit drives the chat turn lifecycle: validate the input,
// resolve the target session, append the user message and the streaming
// placeholder, fold reply fragments into it, and settle or roll back.
//
// Submissions are serialized per session: a session with a turn in
// flight rejects further submissions until the turn settles, while other
// sessions stay available. The target session is captured when the turn
// starts, so switching sessions mid-stream cannot redirect fragments.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/omnimind-tui/internal/model"
	"github.com/jeranaias/omnimind-tui/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptySubmission means the input had no text and no attachment.
	// Callers treat this as a silent no-op.
	ErrEmptySubmission = errors.New("nothing to submit")

	// ErrBusy means the target session already has a turn in flight.
	ErrBusy = errors.New("a reply is already streaming in this session")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Generator produces replies and titles. *gemini.Client satisfies this;
// tests substitute fakes.
type Generator interface {
	// StreamReply streams the reply to text (plus optional image) given
	// the prior history, invoking onFragment per chunk.
	StreamReply(ctx context.Context, history []model.Message, text string, image *model.Part, onFragment func(string)) error

	// GenerateTitle summarizes text into a short session title. It never
	// fails; unusable output falls back to the placeholder title.
	GenerateTitle(ctx context.Context, text string) string
}

// UsageRecorder receives per-turn usage stats. May be nil.
type UsageRecorder interface {
	RecordTurn(sessionID, messageID string, fragments, chars int, duration time.Duration) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns turn submission for a store.
type Controller struct {
	store    *store.Store
	gen      Generator
	usage    UsageRecorder
	listener Listener

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a controller. usage may be nil.
func New(st *store.Store, gen Generator, usage UsageRecorder) *Controller {
	return &Controller{
		store:    st,
		gen:      gen,
		usage:    usage,
		inflight: make(map[string]bool),
	}
}

// SetListener registers the event listener. Must be called before the
// first Submit.
func (c *Controller) SetListener(fn Listener) {
	c.listener = fn
}

func (c *Controller) emit(ev Event) {
	if c.listener != nil {
		c.listener(ev)
	}
}

// Busy reports whether a turn is in flight for the given session.
func (c *Controller) Busy(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[sessionID]
}

func (c *Controller) acquire(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[sessionID] {
		return false
	}
	c.inflight[sessionID] = true
	return true
}

func (c *Controller) release(sessionID string) {
	c.mu.Lock()
	delete(c.inflight, sessionID)
	c.mu.Unlock()
}

// ensureSession resolves the session this turn streams into. The caller
// holds the in-flight slot for sessionID; if that session was deleted
// after resolution, a replacement is created and the slot moves with the
// returned ID so the new session is guarded too.
func (c *Controller) ensureSession(sessionID string) (model.Session, string, error) {
	sess, ok := c.store.Session(sessionID)
	if ok {
		return sess, sessionID, nil
	}

	// Session deleted between resolution and acquisition.
	c.release(sessionID)
	sessionID = c.store.CreateSession().ID
	if !c.acquire(sessionID) {
		return model.Session{}, sessionID, ErrBusy
	}
	sess, _ = c.store.Session(sessionID)
	return sess, sessionID, nil
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit runs one chat turn to completion. It blocks while the reply
// streams, so interactive callers run it on their own goroutine.
//
// Order of effects on success: user message appended, placeholder
// appended, placeholder content grown per fragment, placeholder settled,
// title set if this was the session's first exchange. On failure the
// placeholder is removed and the user message kept, so the input can be
// retried against intact history.
func (c *Controller) Submit(ctx context.Context, text string, image *model.Part) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && image == nil {
		return ErrEmptySubmission
	}

	// Resolve the target session before anything else and hold onto the
	// ID: selection changes mid-stream must not redirect this turn.
	sessionID := c.store.ActiveID()
	if sessionID == "" {
		sessionID = c.store.CreateSession().ID
	}

	if !c.acquire(sessionID) {
		return ErrBusy
	}
	defer func() { c.release(sessionID) }()

	// History excludes this turn; the client appends the new turn itself.
	sess, newID, err := c.ensureSession(sessionID)
	if err != nil {
		return err
	}
	sessionID = newID
	history := sess.Messages
	firstTurn := len(history) == 0

	userMsg := model.NewUserMessage(trimmed, buildParts(trimmed, image))
	c.store.AppendMessage(sessionID, userMsg)

	placeholder := model.NewStreamingMessage()
	c.store.AppendMessage(sessionID, placeholder)

	c.emit(Event{Kind: TurnStarted, SessionID: sessionID, MessageID: placeholder.ID})

	start := time.Now()
	var reply strings.Builder
	fragments := 0

	err = c.gen.StreamReply(ctx, history, trimmed, image, func(fragment string) {
		reply.WriteString(fragment)
		fragments++
		content := reply.String()
		c.store.UpdateLastMessage(sessionID, store.MessagePatch{Content: &content})
		c.emit(Event{Kind: TurnFragment, SessionID: sessionID, MessageID: placeholder.ID, Fragment: fragment})
	})
	if err != nil {
		// Roll back the placeholder only. The user message stays so the
		// turn can be retried.
		c.store.RemoveMessage(sessionID, placeholder.ID)
		c.emit(Event{Kind: TurnFailed, SessionID: sessionID, MessageID: placeholder.ID, Err: err})
		return fmt.Errorf("turn failed: %w", err)
	}

	done := false
	c.store.UpdateLastMessage(sessionID, store.MessagePatch{IsStreaming: &done})
	c.emit(Event{Kind: TurnCompleted, SessionID: sessionID, MessageID: placeholder.ID})

	if c.usage != nil {
		// Usage stats are best effort; a full telemetry store never
		// blocks the chat.
		_ = c.usage.RecordTurn(sessionID, placeholder.ID, fragments, reply.Len(), time.Since(start))
	}

	if firstTurn {
		// Skip sessions already titled (e.g. restored from an older file).
		if sess, ok := c.store.Session(sessionID); ok && sess.IsUntitled() {
			title := c.gen.GenerateTitle(ctx, trimmed)
			c.store.SetSessionTitle(sessionID, title)
			c.emit(Event{Kind: TitleUpdated, SessionID: sessionID, Title: title})
		}
	}
	return nil
}

// buildParts assembles the structured parts for a user message.
func buildParts(text string, image *model.Part) []model.Part {
	var parts []model.Part
	if text != "" {
		parts = append(parts, model.Part{Text: text})
	}
	if image != nil {
		parts = append(parts, *image)
	}
	return parts
}
