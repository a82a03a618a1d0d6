// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat sessions to shareable files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a session to one output format.
type Exporter interface {
	// Export renders the session to the target format.
	Export(sess *model.Session) ([]byte, error)

	// FileExtension returns the output extension, e.g. ".md".
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where files land. Default: current working directory.
	OutputDir string

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns the default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile renders a session and writes it under the output directory.
// Returns the written path.
func ToFile(sess *model.Session, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(sess)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("chat_%s_%s%s",
		sanitizeFilename(sess.Title),
		timestamp,
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// Markdown renders and writes a session as Markdown.
func Markdown(sess *model.Session, opts *Options) (string, error) {
	return ToFile(sess, NewMarkdownExporter(opts), opts)
}

// JSON renders and writes a session as JSON.
func JSON(sess *model.Session, opts *Options) (string, error) {
	return ToFile(sess, NewJSONExporter(), opts)
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeFilename makes a session title safe as a filename fragment.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		s = string(runes[:50])
	}

	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune('_')
		}
	}
	out := strings.Trim(sb.String(), "_")
	if out == "" {
		return "untitled"
	}
	return out
}
