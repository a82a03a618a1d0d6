// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

const titleMaxOutputTokens = 20

// GenerateTitle summarizes the opening message of a session into a short
// title. Failures are absorbed: a session title is cosmetic, so any error
// yields the placeholder title instead.
func (c *Client) GenerateTitle(ctx context.Context, text string) string {
	if err := c.wait(ctx); err != nil {
		return model.DefaultTitle
	}

	prompt := fmt.Sprintf("Summarize this chat request into a short 2-4 word title: %q", text)
	resp, err := c.genai.Models.GenerateContent(ctx, c.titleModelName(), genai.Text(prompt),
		&genai.GenerateContentConfig{
			MaxOutputTokens: titleMaxOutputTokens,
		})
	if err != nil {
		return model.DefaultTitle
	}

	return CleanTitle(resp.Text())
}

// CleanTitle normalizes raw model output into a display title: trims
// whitespace, strips wrapping quotes, and falls back to the placeholder
// when nothing usable remains.
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)
	if title == "" {
		return model.DefaultTitle
	}
	return title
}
