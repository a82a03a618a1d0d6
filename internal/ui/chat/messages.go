// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main TUI view: session sidebar, message
// viewport, input area, and the streaming glue between the submission
// controller and Bubble Tea.
package chat

import (
	"time"

	"github.com/jeranaias/omnimind-tui/internal/attach"
	"github.com/jeranaias/omnimind-tui/internal/config"
	"github.com/jeranaias/omnimind-tui/internal/store"
	"github.com/jeranaias/omnimind-tui/internal/submit"
)

// =============================================================================
// EXTERNAL MESSAGES
//
// These are sent into the program from outside the Bubble Tea loop: the
// store observer and the turn listener both run on other goroutines and
// deliver through Program.Send.
// =============================================================================

// SnapshotMsg carries fresh store state after any mutation.
type SnapshotMsg struct {
	Snapshot store.Snapshot
}

// TurnEventMsg carries one turn lifecycle event.
type TurnEventMsg struct {
	Event submit.Event
}

// ConfigReloadedMsg carries the freshly parsed config after config.toml
// changed on disk. Only the cheap UI settings apply mid-run here; the
// watcher callback swaps the generation settings before sending this.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// SubmitResultMsg reports the outcome of a Submit call. Most failures
// already arrived as TurnEventMsg; this catches pre-turn rejections.
// Text and Image carry the consumed draft so a busy rejection can hand
// it back instead of destroying it.
type SubmitResultMsg struct {
	Err   error
	Text  string
	Image *attach.Image
}

// StreamTickMsg drives throttled viewport refreshes while a reply
// streams.
type StreamTickMsg struct {
	Time time.Time
}
