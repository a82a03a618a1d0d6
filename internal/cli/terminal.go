// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain-terminal mode: a line-based REPL for
// environments where the full-screen TUI is unwanted or unavailable
// (pipes, dumb terminals, --plain).
package cli

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin and stdout are both terminals.
// When either is redirected the TUI cannot run and plain mode is used.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the terminal width, or 80 when it cannot be determined.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
