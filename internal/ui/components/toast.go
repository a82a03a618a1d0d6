// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/omnimind-tui/internal/ui/styles"
	"github.com/jeranaias/omnimind-tui/internal/util"
)

// toastDuration is how long a toast stays visible without interaction.
const toastDuration = 6 * time.Second

// ToastExpiredMsg dismisses a toast after its display time elapses.
type ToastExpiredMsg struct {
	ID int
}

// Toast is a transient error banner shown above the input area.
type Toast struct {
	theme   *styles.Theme
	width   int
	message string
	visible bool
	// id distinguishes expiry timers; stale timers from dismissed
	// toasts are ignored.
	id int
}

// NewToast creates a hidden toast.
func NewToast(theme *styles.Theme) *Toast {
	return &Toast{theme: theme, width: 60}
}

// SetWidth updates the render width.
func (t *Toast) SetWidth(width int) {
	t.width = width
}

// Show displays a message and returns the command that expires it.
func (t *Toast) Show(message string) tea.Cmd {
	t.message = message
	t.visible = true
	t.id++
	id := t.id
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// Dismiss hides the toast immediately.
func (t *Toast) Dismiss() {
	t.visible = false
}

// Update handles expiry messages.
func (t *Toast) Update(msg tea.Msg) {
	if expired, ok := msg.(ToastExpiredMsg); ok && expired.ID == t.id {
		t.visible = false
	}
}

// Visible reports whether the toast is showing.
func (t *Toast) Visible() bool { return t.visible }

// View renders the toast, or "" when hidden.
func (t *Toast) View() string {
	if !t.visible {
		return ""
	}
	msg := util.TruncateWidth(t.message, t.width-6)
	body := t.theme.ErrorTitle.Render("Error") + " " + t.theme.ErrorMessage.Render(msg)
	return t.theme.ErrorBox.Width(t.width - 2).Render(body)
}
