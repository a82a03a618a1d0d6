// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/omnimind-tui/internal/attach"
	"github.com/jeranaias/omnimind-tui/internal/store"
	"github.com/jeranaias/omnimind-tui/internal/submit"
	"github.com/jeranaias/omnimind-tui/internal/telemetry"
	"github.com/jeranaias/omnimind-tui/internal/ui/components"
	"github.com/jeranaias/omnimind-tui/internal/ui/styles"
)

// focusArea tracks which pane receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Model is the root Bubble Tea model.
type Model struct {
	theme      *styles.Theme
	store      *store.Store
	controller *submit.Controller
	usage      *telemetry.UsageStore

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model
	sidebar  *components.Sidebar
	toast    *components.Toast
	renderer *glamour.TermRenderer

	snapshot store.Snapshot

	// streamingSessions holds every session with a reply in flight.
	// The controller allows concurrent streams on different sessions,
	// so the spinner and tick loop run until the set drains.
	streamingSessions map[string]bool
	buffer            *StreamingBuffer

	// pendingImage is attached to the next submission.
	pendingImage *attach.Image

	showSidebar bool
	focus       focusArea
	status      string
	exportDir   string
	width       int
	height      int
	ready       bool
}

// Options configures the chat model.
type Options struct {
	Store      *store.Store
	Controller *submit.Controller
	Usage      *telemetry.UsageStore
	// ShowSidebar shows the session list on startup.
	ShowSidebar bool
	// ExportDir receives /export output. Default: current directory.
	ExportDir string
}

// New creates the root model.
func New(opts Options) *Model {
	theme := styles.NewTheme()

	ta := textarea.New()
	ta.Placeholder = "Message Gemini... (/help for commands)"
	ta.Prompt = "> "
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := &Model{
		theme:             theme,
		store:             opts.Store,
		controller:        opts.Controller,
		usage:             opts.Usage,
		input:             ta,
		spin:              sp,
		sidebar:           components.NewSidebar(theme),
		toast:             components.NewToast(theme),
		buffer:            NewStreamingBuffer(),
		snapshot:          opts.Store.Snapshot(),
		streamingSessions: make(map[string]bool),
		showSidebar:       opts.ShowSidebar,
		exportDir:         opts.ExportDir,
	}
	if m.exportDir == "" {
		m.exportDir = "."
	}
	m.sidebar.SetSessions(m.snapshot.Sessions, m.snapshot.ActiveID)
	return m
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spin.Tick
}

// streaming reports whether any reply is in flight for the UI.
func (m *Model) streaming() bool {
	return len(m.streamingSessions) > 0
}

// initRenderer builds the markdown renderer for the current viewport
// width. Re-created on resize so word wrap tracks the terminal.
func (m *Model) initRenderer(width int) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fall back to plain text rendering.
		m.renderer = nil
		return
	}
	m.renderer = r
}
