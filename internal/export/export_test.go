// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

func sampleSession() *model.Session {
	sess := model.NewSession()
	sess.Title = "Trip Planning"
	sess.Messages = append(sess.Messages,
		model.NewUserMessage("where should I go in October?", nil),
		model.Message{ID: "a1", Role: model.RoleAssistant, Content: "Kyoto is lovely in autumn."},
	)
	return &sess
}

func TestMarkdownExport(t *testing.T) {
	out, err := Markdown(sampleSession(), &Options{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(data)
	for _, want := range []string{"# Trip Planning", "## You", "## Assistant", "Kyoto is lovely"} {
		if !strings.Contains(content, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if !strings.HasSuffix(out, ".md") {
		t.Errorf("path = %q, want .md extension", out)
	}
}

func TestMarkdownExportNotesAttachments(t *testing.T) {
	sess := sampleSession()
	sess.Messages[0].Parts = []model.Part{
		{Text: sess.Messages[0].Content},
		{InlineData: &model.Blob{MIMEType: "image/png", Data: "eA=="}},
	}

	e := NewMarkdownExporter(nil)
	data, err := e.Export(sess)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "attached image: image/png") {
		t.Error("attachment note missing")
	}
}

func TestJSONExportRoundTrips(t *testing.T) {
	out, err := JSON(sampleSession(), &Options{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var got model.Session
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got.Title != "Trip Planning" || len(got.Messages) != 2 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestExportEmptySessionFails(t *testing.T) {
	sess := model.NewSession()
	if _, err := NewMarkdownExporter(nil).Export(&sess); err == nil {
		t.Error("expected error for empty session")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Trip Planning", "Trip_Planning"},
		{"what/is:this?", "whatisthis"},
		{"///", "untitled"},
		{"", "untitled"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
