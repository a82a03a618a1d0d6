// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package submit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/omnimind-tui/internal/model"
)

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "turn_started", TurnStarted.String())
	assert.Equal(t, "turn_fragment", TurnFragment.String())
	assert.Equal(t, "turn_completed", TurnCompleted.String())
	assert.Equal(t, "turn_failed", TurnFailed.String())
	assert.Equal(t, "title_updated", TitleUpdated.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}

func TestBuildParts(t *testing.T) {
	image := &model.Part{InlineData: &model.Blob{MIMEType: "image/png", Data: "eA=="}}

	assert.Nil(t, buildParts("", nil))

	textOnly := buildParts("hi", nil)
	assert.Len(t, textOnly, 1)
	assert.Equal(t, "hi", textOnly[0].Text)

	both := buildParts("hi", image)
	assert.Len(t, both, 2)
	assert.NotNil(t, both[1].InlineData)

	imageOnly := buildParts("", image)
	assert.Len(t, imageOnly, 1)
	assert.NotNil(t, imageOnly[0].InlineData)
}
