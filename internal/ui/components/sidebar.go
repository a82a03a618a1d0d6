// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable view pieces for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/omnimind-tui/internal/model"
	"github.com/jeranaias/omnimind-tui/internal/ui/styles"
	"github.com/jeranaias/omnimind-tui/internal/util"
)

// Sidebar renders the session list. Sessions appear newest-first, the
// active one highlighted, the cursor driven by keyboard selection.
type Sidebar struct {
	theme  *styles.Theme
	width  int
	height int

	sessions []model.Session
	activeID string
	cursor   int
}

// NewSidebar creates a sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme, width: 28}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Width returns the sidebar's column width.
func (s *Sidebar) Width() int { return s.width }

// SetSessions replaces the listed sessions and clamps the cursor.
func (s *Sidebar) SetSessions(sessions []model.Session, activeID string) {
	s.sessions = sessions
	s.activeID = activeID
	if s.cursor >= len(sessions) {
		s.cursor = len(sessions) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// CursorUp moves the selection up.
func (s *Sidebar) CursorUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// CursorDown moves the selection down.
func (s *Sidebar) CursorDown() {
	if s.cursor < len(s.sessions)-1 {
		s.cursor++
	}
}

// Selected returns the session under the cursor, or nil.
func (s *Sidebar) Selected() *model.Session {
	if s.cursor < 0 || s.cursor >= len(s.sessions) {
		return nil
	}
	return &s.sessions[s.cursor]
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	var sb strings.Builder
	sb.WriteString(s.theme.HeaderTitle.Render("Sessions"))
	sb.WriteString("\n\n")

	if len(s.sessions) == 0 {
		sb.WriteString(s.theme.SessionMeta.Render("no sessions yet"))
	}

	// One line per session; the title gets whatever width the marker and
	// padding leave over.
	titleWidth := s.width - 4
	for i, sess := range s.sessions {
		marker := "  "
		style := s.theme.SessionItem
		if i == s.cursor {
			marker = "> "
			style = s.theme.SessionItemSelected
		}
		title := util.TruncateWidth(sess.Title, titleWidth)
		line := marker + title
		if sess.ID == s.activeID {
			line += " *"
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
		if i == s.cursor {
			meta := fmt.Sprintf("  %d messages", len(sess.Messages))
			sb.WriteString(s.theme.SessionMeta.Render(meta))
			sb.WriteString("\n")
		}
	}

	return s.theme.Sidebar.Width(s.width).Height(s.height).Render(sb.String())
}
