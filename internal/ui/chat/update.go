// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/omnimind-tui/internal/attach"
	"github.com/jeranaias/omnimind-tui/internal/export"
	"github.com/jeranaias/omnimind-tui/internal/model"
	"github.com/jeranaias/omnimind-tui/internal/submit"
	"github.com/jeranaias/omnimind-tui/internal/ui/components"
)

// Update is the Bubble Tea update loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		m.sidebar.SetSessions(m.snapshot.Sessions, m.snapshot.ActiveID)
		// While streaming, repaints wait for the throttle tick.
		if !m.streaming() {
			m.refreshViewport()
		}
		return m, nil

	case TurnEventMsg:
		return m.handleTurnEvent(msg.Event)

	case StreamTickMsg:
		if !m.streaming() {
			return m, nil
		}
		if _, due := m.buffer.Flush(); due {
			m.refreshViewport()
		}
		return m, streamTickCmd()

	case SubmitResultMsg:
		switch {
		case msg.Err == nil, errors.Is(msg.Err, submit.ErrEmptySubmission):
			// Stream errors already surfaced through TurnFailed.
		case errors.Is(msg.Err, submit.ErrBusy):
			// The pre-submit busy check raced; hand the draft back.
			if m.input.Value() == "" {
				m.input.SetValue(msg.Text)
			}
			if m.pendingImage == nil {
				m.pendingImage = msg.Image
			}
			m.status = "wait for the current reply to finish"
		}
		return m, nil

	case ConfigReloadedMsg:
		if msg.Config != nil && msg.Config.UI.ShowSidebar != m.showSidebar {
			m.showSidebar = msg.Config.UI.ShowSidebar
			if !m.showSidebar && m.focus == focusSidebar {
				m.focus = focusInput
				m.input.Focus()
			}
			m.resize(m.width, m.height)
		}
		m.status = "config reloaded"
		return m, nil

	case components.ToastExpiredMsg:
		m.toast.Update(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width
	if m.showSidebar {
		contentWidth -= m.sidebar.Width()
	}

	// Header, input area, and status bar claim fixed rows.
	viewportHeight := height - m.input.Height() - 4
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = viewportHeight
	}

	m.input.SetWidth(contentWidth - 2)
	m.sidebar.SetSize(m.sidebar.Width(), viewportHeight)
	m.toast.SetWidth(contentWidth)
	m.initRenderer(contentWidth - 2)
	m.refreshViewport()
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+b":
		m.showSidebar = !m.showSidebar
		if !m.showSidebar {
			m.focus = focusInput
		}
		m.resize(m.width, m.height)
		return m, nil

	case "tab":
		if m.showSidebar {
			if m.focus == focusInput {
				m.focus = focusSidebar
				m.input.Blur()
			} else {
				m.focus = focusInput
				m.input.Focus()
			}
		}
		return m, nil

	case "esc":
		if m.toast.Visible() {
			m.toast.Dismiss()
			return m, nil
		}
		if m.focus == focusSidebar {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.sidebar.CursorUp()
	case "down", "j":
		m.sidebar.CursorDown()
	case "enter":
		if sess := m.sidebar.Selected(); sess != nil {
			m.store.SelectSession(sess.ID)
			m.focus = focusInput
			m.input.Focus()
		}
	case "d", "delete":
		if sess := m.sidebar.Selected(); sess != nil {
			return m, m.deleteSession(sess.ID)
		}
	}
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.handleSubmit()
	case "alt+enter", "ctrl+j":
		m.input.InsertString("\n")
		return m, nil
	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		m.input.Reset()
		return m.runCommand(strings.TrimSpace(text))
	}

	if strings.TrimSpace(text) == "" && m.pendingImage == nil {
		return m, nil
	}

	// Reject before the draft is consumed: a busy session must leave the
	// typed text and attachment intact.
	if m.controller.Busy(m.snapshot.ActiveID) {
		m.status = "wait for the current reply to finish"
		return m, nil
	}

	img := m.pendingImage
	var imagePart *model.Part
	if img != nil {
		p := img.Part()
		imagePart = &p
		m.pendingImage = nil
	}
	m.input.Reset()
	m.status = ""

	ctrl := m.controller
	return m, func() tea.Msg {
		return SubmitResultMsg{
			Err:   ctrl.Submit(context.Background(), text, imagePart),
			Text:  text,
			Image: img,
		}
	}
}

func (m *Model) handleTurnEvent(ev submit.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case submit.TurnStarted:
		first := !m.streaming()
		m.streamingSessions[ev.SessionID] = true
		if first {
			m.buffer.Reset()
		}
		m.refreshViewport()
		if first {
			// One tick loop drives all concurrent streams.
			return m, streamTickCmd()
		}
		return m, nil

	case submit.TurnFragment:
		m.buffer.Write(ev.Fragment)
		return m, nil

	case submit.TurnCompleted:
		delete(m.streamingSessions, ev.SessionID)
		m.buffer.ForceFlush()
		m.refreshViewport()
		return m, nil

	case submit.TurnFailed:
		delete(m.streamingSessions, ev.SessionID)
		if !m.streaming() {
			m.buffer.Reset()
		}
		m.refreshViewport()
		if ev.Err != nil {
			return m, m.toast.Show(ev.Err.Error())
		}
		return m, nil
	}
	return m, nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (m *Model) runCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/new":
		m.store.CreateSession()
		m.status = "started a new session"

	case "/delete":
		if id := m.snapshot.ActiveID; id != "" {
			return m, m.deleteSession(id)
		}
		m.status = "no session to delete"

	case "/image":
		if len(args) == 0 {
			m.status = "usage: /image <path>"
			break
		}
		img, err := attach.Load(strings.Join(args, " "))
		if err != nil {
			return m, m.toast.Show(err.Error())
		}
		m.pendingImage = img
		m.status = fmt.Sprintf("attached %s (%s)", img.Path, img.MIMEType)

	case "/export":
		return m, m.exportActive(args)

	case "/stats":
		return m, m.showStats()

	case "/help":
		m.status = "/new /delete /image <path> /export [md|json] /stats /quit"

	case "/quit", "/exit":
		return m, tea.Quit

	default:
		m.status = fmt.Sprintf("unknown command %s (try /help)", cmd)
	}
	return m, nil
}

func (m *Model) deleteSession(id string) tea.Cmd {
	m.store.DeleteSession(id)
	if m.usage != nil {
		_ = m.usage.DeleteSession(id)
	}
	m.status = "session deleted"
	return nil
}

func (m *Model) exportActive(args []string) tea.Cmd {
	sess := m.snapshot.Active()
	if sess == nil || len(sess.Messages) == 0 {
		m.status = "nothing to export"
		return nil
	}

	format := "md"
	if len(args) > 0 {
		format = args[0]
	}

	opts := &export.Options{OutputDir: m.exportDir, IncludeTimestamps: true}
	var path string
	var err error
	switch format {
	case "md", "markdown":
		path, err = export.Markdown(sess, opts)
	case "json":
		path, err = export.JSON(sess, opts)
	default:
		m.status = fmt.Sprintf("unknown format %q (md or json)", format)
		return nil
	}
	if err != nil {
		return m.toast.Show(err.Error())
	}
	m.status = "exported to " + path
	return nil
}

func (m *Model) showStats() tea.Cmd {
	if m.usage == nil {
		m.status = "usage tracking is disabled"
		return nil
	}

	if id := m.snapshot.ActiveID; id != "" {
		t, err := m.usage.SessionTotals(id)
		if err != nil {
			return m.toast.Show(err.Error())
		}
		m.status = fmt.Sprintf("this session: %d replies, %d chars, %s",
			t.Turns, t.Chars, t.TotalDuration.Round(100*time.Millisecond))
	} else {
		t, err := m.usage.AllTotals()
		if err != nil {
			return m.toast.Show(err.Error())
		}
		m.status = fmt.Sprintf("all time: %d replies, %d chars, %s",
			t.Turns, t.Chars, t.TotalDuration.Round(100*time.Millisecond))
	}
	return nil
}
