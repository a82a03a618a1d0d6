// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

// JSONExporter renders sessions as pretty-printed JSON.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// Export renders the session.
func (e *JSONExporter) Export(sess *model.Session) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return append(data, '\n'), nil
}
