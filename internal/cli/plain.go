// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/omnimind-tui/internal/attach"
	"github.com/jeranaias/omnimind-tui/internal/export"
	"github.com/jeranaias/omnimind-tui/internal/model"
	"github.com/jeranaias/omnimind-tui/internal/store"
	"github.com/jeranaias/omnimind-tui/internal/submit"
	"github.com/jeranaias/omnimind-tui/internal/util"
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// lineEditor wraps liner with persistent history. Arrow keys navigate
// history, ctrl+c aborts the current prompt.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor(dataDir string) *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	le := &lineEditor{
		line:        line,
		historyFile: filepath.Join(dataDir, "chat_history"),
	}
	if f, err := os.Open(le.historyFile); err == nil {
		le.line.ReadHistory(f)
		f.Close()
	}
	return le
}

func (le *lineEditor) read(prompt string) (string, error) {
	input, err := le.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		le.line.AppendHistory(input)
	}
	return input, nil
}

func (le *lineEditor) close() {
	if f, err := os.OpenFile(le.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		le.line.WriteHistory(f)
		f.Close()
	}
	le.line.Close()
}

// =============================================================================
// PLAIN REPL
// =============================================================================

// REPL is the plain-terminal chat loop.
type REPL struct {
	store      *store.Store
	controller *submit.Controller
	editor     *lineEditor
	renderer   *glamour.TermRenderer
	out        io.Writer

	pendingImage *attach.Image
	exportDir    string
}

// NewREPL creates a plain-mode chat loop. dataDir hosts the input
// history file.
func NewREPL(st *store.Store, ctrl *submit.Controller, dataDir string) *REPL {
	r := &REPL{
		store:      st,
		controller: ctrl,
		editor:     newLineEditor(dataDir),
		out:        os.Stdout,
		exportDir:  ".",
	}

	width := Width()
	if width > 100 {
		width = 100
	}
	if renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	); err == nil {
		r.renderer = renderer
	}
	return r
}

// Run reads and handles input until EOF or /quit.
func (r *REPL) Run(ctx context.Context) error {
	defer r.editor.close()

	fmt.Fprintln(r.out, "omnimind plain mode. /help for commands, ctrl+d to quit.")
	for {
		input, err := r.editor.read("> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(input)
		if strings.HasPrefix(trimmed, "/") {
			if quit := r.runCommand(trimmed); quit {
				return nil
			}
			continue
		}

		r.submit(ctx, input)
	}
}

func (r *REPL) submit(ctx context.Context, input string) {
	var imagePart *model.Part
	if r.pendingImage != nil {
		p := r.pendingImage.Part()
		imagePart = &p
		r.pendingImage = nil
	}

	// Stream fragments straight to the terminal; the store listener is
	// not needed in plain mode.
	var streamed bool
	r.controller.SetListener(func(ev submit.Event) {
		switch ev.Kind {
		case submit.TurnFragment:
			streamed = true
			fmt.Fprint(r.out, ev.Fragment)
		case submit.TurnCompleted:
			fmt.Fprintln(r.out)
		case submit.TitleUpdated:
			fmt.Fprintf(r.out, "(session titled %q)\n", ev.Title)
		}
	})

	err := r.controller.Submit(ctx, input, imagePart)
	switch {
	case err == nil:
		r.rerenderLastReply()
	case errors.Is(err, submit.ErrEmptySubmission):
	case errors.Is(err, submit.ErrBusy):
		fmt.Fprintln(r.out, "a reply is already streaming")
	default:
		if streamed {
			fmt.Fprintln(r.out)
		}
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
}

// rerenderLastReply paints the settled reply once more through the
// markdown renderer. The raw stream already scrolled by; this leaves a
// readable copy on screen.
func (r *REPL) rerenderLastReply() {
	if r.renderer == nil {
		return
	}
	sess := r.store.Snapshot().Active()
	if sess == nil {
		return
	}
	last := sess.LastMessage()
	if last == nil || last.Role != model.RoleAssistant || !strings.ContainsAny(last.Content, "`*#[") {
		return
	}
	if out, err := r.renderer.Render(last.Content); err == nil {
		fmt.Fprint(r.out, out)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func (r *REPL) runCommand(input string) (quit bool) {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/new":
		r.store.CreateSession()
		fmt.Fprintln(r.out, "started a new session")

	case "/sessions":
		r.printSessions()

	case "/switch":
		if len(args) == 0 {
			fmt.Fprintln(r.out, "usage: /switch <number from /sessions>")
			break
		}
		r.switchSession(args[0])

	case "/delete":
		if id := r.store.ActiveID(); id != "" {
			r.store.DeleteSession(id)
			fmt.Fprintln(r.out, "session deleted")
		} else {
			fmt.Fprintln(r.out, "no session to delete")
		}

	case "/image":
		if len(args) == 0 {
			fmt.Fprintln(r.out, "usage: /image <path>")
			break
		}
		img, err := attach.Load(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			break
		}
		r.pendingImage = img
		fmt.Fprintf(r.out, "attached %s (%s), will send with next message\n", img.Path, img.MIMEType)

	case "/export":
		r.exportActive(args)

	case "/help":
		fmt.Fprintln(r.out, "commands: /new /sessions /switch <n> /delete /image <path> /export [md|json] /quit")

	default:
		fmt.Fprintf(r.out, "unknown command %s (try /help)\n", cmd)
	}
	return false
}

func (r *REPL) printSessions() {
	snap := r.store.Snapshot()
	if len(snap.Sessions) == 0 {
		fmt.Fprintln(r.out, "no sessions")
		return
	}
	for i, sess := range snap.Sessions {
		marker := " "
		if sess.ID == snap.ActiveID {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %2d  %s (%d messages)\n", marker, i+1,
			util.TruncateRunes(sess.Title, 48), len(sess.Messages))
	}
}

func (r *REPL) switchSession(arg string) {
	snap := r.store.Snapshot()
	n := 0
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 || n > len(snap.Sessions) {
		fmt.Fprintln(r.out, "no such session")
		return
	}
	r.store.SelectSession(snap.Sessions[n-1].ID)
	fmt.Fprintf(r.out, "switched to %q\n", snap.Sessions[n-1].Title)
}

func (r *REPL) exportActive(args []string) {
	sess := r.store.Snapshot().Active()
	if sess == nil || len(sess.Messages) == 0 {
		fmt.Fprintln(r.out, "nothing to export")
		return
	}

	format := "md"
	if len(args) > 0 {
		format = args[0]
	}
	opts := &export.Options{OutputDir: r.exportDir, IncludeTimestamps: true}

	var path string
	var err error
	switch format {
	case "md", "markdown":
		path, err = export.Markdown(sess, opts)
	case "json":
		path, err = export.JSON(sess, opts)
	default:
		fmt.Fprintf(r.out, "unknown format %q (md or json)\n", format)
		return
	}
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, "exported to "+path)
}
