// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package submit

// EventKind identifies a turn lifecycle event.
type EventKind int

const (
	// TurnStarted fires after the user message and streaming placeholder
	// have been appended.
	TurnStarted EventKind = iota

	// TurnFragment fires after each reply chunk has been folded into the
	// placeholder's content.
	TurnFragment

	// TurnCompleted fires once the reply has settled.
	TurnCompleted

	// TurnFailed fires after a failed turn has been rolled back.
	TurnFailed

	// TitleUpdated fires when the first exchange has been summarized into
	// a session title.
	TitleUpdated
)

func (k EventKind) String() string {
	switch k {
	case TurnStarted:
		return "turn_started"
	case TurnFragment:
		return "turn_fragment"
	case TurnCompleted:
		return "turn_completed"
	case TurnFailed:
		return "turn_failed"
	case TitleUpdated:
		return "title_updated"
	default:
		return "unknown"
	}
}

// Event describes one turn lifecycle change. SessionID is always set;
// MessageID identifies the assistant placeholder for turn events.
type Event struct {
	Kind      EventKind
	SessionID string
	MessageID string
	Fragment  string
	Title     string
	Err       error
}

// Listener receives events synchronously, in order, from the submitting
// goroutine. Session state referenced by the event is already committed
// when the listener runs.
type Listener func(Event)
