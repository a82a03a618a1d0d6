// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

// View renders the whole screen.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
	)

	if m.showSidebar {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}
	return main
}

func (m *Model) headerView() string {
	title := "omnimind"
	if sess := m.snapshot.Active(); sess != nil {
		title = sess.Title
	}
	meta := fmt.Sprintf("%d sessions", len(m.snapshot.Sessions))
	gap := m.viewport.Width - lipgloss.Width(title) - lipgloss.Width(meta) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.viewport.Width).Render(
		m.theme.HeaderTitle.Render(title) + strings.Repeat(" ", gap) + m.theme.HeaderMeta.Render(meta),
	)
}

func (m *Model) footerView() string {
	var sections []string

	if m.toast.Visible() {
		sections = append(sections, m.toast.View())
	}
	sections = append(sections, m.theme.InputContainer.Width(m.viewport.Width).Render(m.input.View()))
	sections = append(sections, m.statusView())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) statusView() string {
	var left string
	switch {
	case m.streaming():
		left = m.spin.View() + m.theme.ThinkingText.Render(" thinking...")
	case m.status != "":
		left = m.status
	case m.pendingImage != nil:
		left = m.theme.Attachment.Render("image attached, will send with next message")
	default:
		left = m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" send  ") +
			m.theme.ShortcutKey.Render("tab") + m.theme.ShortcutDesc.Render(" sessions  ") +
			m.theme.ShortcutKey.Render("ctrl+b") + m.theme.ShortcutDesc.Render(" sidebar  ") +
			m.theme.ShortcutKey.Render("ctrl+c") + m.theme.ShortcutDesc.Render(" quit")
	}
	return m.theme.StatusBar.Width(m.viewport.Width).Render(left)
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// refreshViewport re-renders the active session into the viewport and
// keeps it scrolled to the latest message.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	sess := m.snapshot.Active()
	if sess == nil || len(sess.Messages) == 0 {
		m.viewport.SetContent(m.emptyStateView())
		return
	}
	m.viewport.SetContent(m.renderMessages(sess))
	m.viewport.GotoBottom()
}

// suggestionPrompts seed the empty chat screen.
var suggestionPrompts = []string{
	"Explain quantum computing simply",
	"Write a Python script for web scraping",
	"Analyze market trends for 2024",
	"Help me plan a 3-day trip to Tokyo",
}

func (m *Model) emptyStateView() string {
	width := m.viewport.Width
	if width < 20 {
		width = 20
	}

	title := m.theme.WelcomeTitle.Render("How can I help you today?")
	subtitle := m.theme.WelcomeSubtitle.Render(
		"Complex reasoning, creative writing, image analysis, and coding.")

	cardWidth := width - 8
	if cardWidth > 48 {
		cardWidth = 48
	}
	cards := make([]string, 0, len(suggestionPrompts))
	for _, s := range suggestionPrompts {
		cards = append(cards, m.theme.SuggestionCard.Width(cardWidth).Render(s))
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		"", title, subtitle, "",
		lipgloss.JoinVertical(lipgloss.Left, cards...),
	)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

func (m *Model) renderMessages(sess *model.Session) string {
	var sb strings.Builder
	for i := range sess.Messages {
		sb.WriteString(m.renderMessage(&sess.Messages[i]))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	label := m.theme.UserLabel.Render("You")
	if msg.Role == model.RoleAssistant {
		label = m.theme.AssistantLabel.Render("Gemini")
	}
	sb.WriteString(label)
	if !msg.Timestamp.IsZero() {
		sb.WriteString("  " + m.theme.Timestamp.Render(msg.Timestamp.Format(time.Kitchen)))
	}
	sb.WriteString("\n")

	switch {
	case msg.IsStreaming && msg.Content == "":
		sb.WriteString(m.theme.ThinkingText.Render("..."))
	case msg.Role == model.RoleAssistant:
		sb.WriteString(m.renderMarkdown(msg.Content))
	default:
		sb.WriteString(m.theme.MessageBody.Render(msg.Content))
	}
	sb.WriteString("\n")

	for _, p := range msg.Parts {
		if p.InlineData != nil {
			sb.WriteString(m.theme.Attachment.Render(fmt.Sprintf("[image: %s]", p.InlineData.MIMEType)))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderMarkdown renders assistant replies through glamour. While a
// reply streams, half-finished markdown renders oddly, so streaming
// content stays plain until it settles.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil || m.streaming() {
		return m.theme.MessageBody.Render(content)
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return m.theme.MessageBody.Render(content)
	}
	return strings.TrimRight(out, "\n")
}
