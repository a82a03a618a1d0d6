// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach loads image attachments for chat submissions.
//
// Attachments are validated here, before any session state changes: an
// oversize or non-image file is rejected up front so a failed attach
// never leaves a half-built message behind.
package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

// MaxImageBytes is the largest raw image accepted as an attachment.
const MaxImageBytes = 5 << 20 // 5 MiB

var (
	// ErrTooLarge means the file exceeds MaxImageBytes.
	ErrTooLarge = errors.New("image exceeds 5 MiB limit")

	// ErrNotImage means the file content is not a recognized image format.
	ErrNotImage = errors.New("file is not a supported image")
)

// Image is a validated, loaded attachment ready to join a message.
type Image struct {
	Path     string
	MIMEType string
	// Data is base64-encoded (standard alphabet, no data-URL prefix).
	Data string
	Size int64
}

// Load reads and validates an image file. The size check runs against the
// file on disk first so a huge file is rejected without reading it.
func Load(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxImageBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, filepath.Base(path), info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mime := sniffMIME(data, path)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: %s detected as %s", ErrNotImage, filepath.Base(path), mime)
	}

	return &Image{
		Path:     path,
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
		Size:     info.Size(),
	}, nil
}

// Part converts the attachment to a message part.
func (img *Image) Part() model.Part {
	return model.Part{
		InlineData: &model.Blob{
			MIMEType: img.MIMEType,
			Data:     img.Data,
		},
	}
}

// sniffMIME detects content type from the leading bytes, falling back to
// the file extension for formats http.DetectContentType does not know.
func sniffMIME(data []byte, path string) string {
	mime := http.DetectContentType(data)
	if mime == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".heic":
			return "image/heic"
		case ".avif":
			return "image/avif"
		}
	}
	return mime
}
