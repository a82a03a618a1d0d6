// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Streaming throttle. Reply fragments can arrive far faster than the
// terminal should repaint; the buffer batches them so the viewport
// refreshes at a capped frame rate instead of once per fragment.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer accumulates fragments and decides when a repaint is
// due: either enough fragments piled up, or enough time passed since the
// last flush.
//
// Write happens on the turn goroutine, Flush on the Bubble Tea loop, so
// everything is mutex-guarded.
type StreamingBuffer struct {
	mu            sync.Mutex
	buffer        strings.Builder
	fragmentCount int
	lastFlush     time.Time

	batchSize     int
	minFlushEvery time.Duration
}

// NewStreamingBuffer creates a buffer with defaults: flush every 15
// fragments or every 33ms (30fps), whichever comes first.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{
		batchSize:     15,
		minFlushEvery: 33 * time.Millisecond,
		lastFlush:     time.Now(),
	}
}

// Write adds a fragment. Called from the streaming goroutine.
func (sb *StreamingBuffer) Write(fragment string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(fragment)
	sb.fragmentCount++
}

// Flush returns the accumulated content if a repaint is due. Called from
// the Bubble Tea loop on each stream tick.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 || !sb.dueLocked() {
		return "", false
	}
	return sb.takeLocked(), true
}

// ForceFlush drains the buffer regardless of thresholds. Used when the
// stream settles so the last fragments always render.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.takeLocked(), true
}

// Reset discards buffered content. Used when a turn fails.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.fragmentCount = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of unflushed fragments.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.fragmentCount
}

func (sb *StreamingBuffer) dueLocked() bool {
	if sb.fragmentCount >= sb.batchSize {
		return true
	}
	return time.Since(sb.lastFlush) >= sb.minFlushEvery
}

func (sb *StreamingBuffer) takeLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.fragmentCount = 0
	sb.lastFlush = time.Now()
	return content
}

// =============================================================================
// STREAM TICK
// =============================================================================

// streamTickCmd schedules the next throttled repaint check.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
