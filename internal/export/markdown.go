// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders sessions as Markdown documents.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// Export renders the session.
func (e *MarkdownExporter) Export(sess *model.Session) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if len(sess.Messages) == 0 {
		return nil, fmt.Errorf("session has no messages")
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", sess.Title))
	sb.WriteString(fmt.Sprintf("_Started %s, %d messages._\n\n",
		sess.CreatedAt.Format("2006-01-02 15:04"), len(sess.Messages)))
	sb.WriteString("---\n\n")

	for _, m := range sess.Messages {
		switch m.Role {
		case model.RoleUser:
			sb.WriteString("## You")
		case model.RoleAssistant:
			sb.WriteString("## Assistant")
		default:
			sb.WriteString("## " + string(m.Role))
		}
		if e.options.IncludeTimestamps && !m.Timestamp.IsZero() {
			sb.WriteString(" · " + m.Timestamp.Format(time.Kitchen))
		}
		sb.WriteString("\n\n")

		sb.WriteString(m.Content)
		sb.WriteString("\n\n")

		for _, p := range m.Parts {
			if p.InlineData != nil {
				sb.WriteString(fmt.Sprintf("_[attached image: %s]_\n\n", p.InlineData.MIMEType))
			}
		}
	}

	return []byte(sb.String()), nil
}
