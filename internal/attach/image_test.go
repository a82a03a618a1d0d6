// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package attach

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Minimal valid PNG header plus IHDR start; enough for content sniffing.
var pngBytes = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0, 0, 0, 0x0d, 'I', 'H', 'D', 'R',
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPNG(t *testing.T) {
	path := writeFile(t, "icon.png", pngBytes)

	img, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", img.MIMEType)
	}
	if img.Size != int64(len(pngBytes)) {
		t.Errorf("Size = %d, want %d", img.Size, len(pngBytes))
	}

	decoded, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		t.Fatalf("data is not valid base64: %v", err)
	}
	if string(decoded) != string(pngBytes) {
		t.Error("decoded data does not match source bytes")
	}

	part := img.Part()
	if part.InlineData == nil || part.InlineData.MIMEType != "image/png" {
		t.Errorf("part = %+v", part)
	}
}

func TestLoadRejectsOversize(t *testing.T) {
	big := make([]byte, MaxImageBytes+1)
	copy(big, pngBytes)
	path := writeFile(t, "big.png", big)

	_, err := Load(path)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestLoadRejectsNonImage(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("just some text, definitely not pixels"))

	_, err := Load(path)
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("err = %v, want ErrNotImage", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.png"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
