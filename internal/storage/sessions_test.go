// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

func TestSaveAndLoad(t *testing.T) {
	s := NewSessionStoreAt(t.TempDir())

	sess := model.NewSession()
	sess.Title = "Gravity questions"
	sess.Messages = append(sess.Messages,
		model.NewUserMessage("why do things fall", nil),
	)

	if err := s.Save([]model.Session{sess}, sess.ID); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, activeID, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d sessions, want 1", len(got))
	}
	if got[0].ID != sess.ID || got[0].Title != "Gravity questions" {
		t.Errorf("session mismatch: %+v", got[0])
	}
	if len(got[0].Messages) != 1 || got[0].Messages[0].Content != "why do things fall" {
		t.Errorf("messages mismatch: %+v", got[0].Messages)
	}
	if activeID != sess.ID {
		t.Errorf("activeID = %q, want %q", activeID, sess.ID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewSessionStoreAt(filepath.Join(t.TempDir(), "nope"))

	got, activeID, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 || activeID != "" {
		t.Errorf("expected empty state, got %d sessions active=%q", len(got), activeID)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewSessionStoreAt(dir)
	if err := os.WriteFile(filepath.Join(dir, "sessions.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	got, _, err := s.Load()
	if err != nil {
		t.Fatalf("corrupt file must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("corrupt file yielded %d sessions, want 0", len(got))
	}
}

func TestStreamingFlagDroppedOnReload(t *testing.T) {
	s := NewSessionStoreAt(t.TempDir())

	sess := model.NewSession()
	streaming := model.NewStreamingMessage()
	streaming.Content = "partial rep"
	sess.Messages = append(sess.Messages, streaming)

	if err := s.Save([]model.Session{sess}, sess.ID); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _, _ := s.Load()
	if got[0].Messages[0].IsStreaming {
		t.Error("streaming flag survived a reload")
	}
	if got[0].Messages[0].Content != "partial rep" {
		t.Error("partial content lost on reload")
	}
}

func TestImagePartsRoundTrip(t *testing.T) {
	s := NewSessionStoreAt(t.TempDir())

	sess := model.NewSession()
	sess.Messages = append(sess.Messages, model.NewUserMessage("look", []model.Part{
		{Text: "look"},
		{InlineData: &model.Blob{MIMEType: "image/png", Data: "aWNvbg=="}},
	}))

	if err := s.Save([]model.Session{sess}, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _, _ := s.Load()
	parts := got[0].Messages[0].Parts
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "image/png" {
		t.Errorf("inline data lost: %+v", parts[1])
	}
}

func TestEmptyTitleNormalized(t *testing.T) {
	dir := t.TempDir()
	s := NewSessionStoreAt(dir)

	raw := `{"version":1,"sessions":[{"id":"x","title":"","messages":[]}]}`
	if err := os.WriteFile(filepath.Join(dir, "sessions.json"), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	got, _, _ := s.Load()
	if got[0].Title != model.DefaultTitle {
		t.Errorf("Title = %q, want %q", got[0].Title, model.DefaultTitle)
	}
}

func TestSaveIsAtomicOverwrite(t *testing.T) {
	dir := t.TempDir()
	s := NewSessionStoreAt(dir)

	a := model.NewSession()
	if err := s.Save([]model.Session{a}, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(nil, ""); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sessions.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), a.ID) {
		t.Error("overwrite left stale session data behind")
	}
}
