// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package submit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/omnimind-tui/internal/model"
	"github.com/jeranaias/omnimind-tui/internal/store"
)

// fakeGenerator replays scripted fragments or fails on demand.
type fakeGenerator struct {
	mu        sync.Mutex
	fragments []string
	err       error
	title     string
	// block, when non-nil, is closed to let an in-flight stream finish.
	block chan struct{}

	gotHistory []model.Message
	gotText    string
	gotImage   *model.Part
	titleCalls int
}

func (f *fakeGenerator) StreamReply(ctx context.Context, history []model.Message, text string, image *model.Part, onFragment func(string)) error {
	f.mu.Lock()
	f.gotHistory = history
	f.gotText = text
	f.gotImage = image
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return f.err
	}
	for _, fr := range f.fragments {
		onFragment(fr)
	}
	return nil
}

func (f *fakeGenerator) GenerateTitle(ctx context.Context, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titleCalls++
	if f.title == "" {
		return model.DefaultTitle
	}
	return f.title
}

func newController(gen Generator) (*Controller, *store.Store) {
	st := store.New()
	return New(st, gen, nil), st
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	c, st := newController(&fakeGenerator{})

	for _, input := range []string{"", "   ", "\n\t "} {
		if err := c.Submit(context.Background(), input, nil); !errors.Is(err, ErrEmptySubmission) {
			t.Errorf("Submit(%q) = %v, want ErrEmptySubmission", input, err)
		}
	}
	if len(st.Snapshot().Sessions) != 0 {
		t.Error("rejected submission created a session")
	}
}

func TestSubmitImageOnlyIsAccepted(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"a cat"}}
	c, st := newController(gen)

	image := &model.Part{InlineData: &model.Blob{MIMEType: "image/png", Data: "eA=="}}
	if err := c.Submit(context.Background(), "   ", image); err != nil {
		t.Fatalf("submit: %v", err)
	}
	sess := st.Snapshot().Sessions[0]
	if len(sess.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(sess.Messages))
	}
	if gen.gotImage == nil {
		t.Error("image not forwarded to generator")
	}
}

func TestSubmitCreatesSessionWhenNoneActive(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"hi"}, title: "Greeting"}
	c, st := newController(gen)

	if err := c.Submit(context.Background(), "hello", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := st.Snapshot()
	if len(snap.Sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(snap.Sessions))
	}
	sess := snap.Sessions[0]
	if snap.ActiveID != sess.ID {
		t.Error("created session not active")
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(sess.Messages))
	}
	if sess.Messages[0].Role != model.RoleUser || sess.Messages[0].Content != "hello" {
		t.Errorf("user message = %+v", sess.Messages[0])
	}
	if sess.Messages[1].Role != model.RoleAssistant || sess.Messages[1].Content != "hi" {
		t.Errorf("assistant message = %+v", sess.Messages[1])
	}
	if sess.Messages[1].IsStreaming {
		t.Error("settled reply still marked streaming")
	}
	if sess.Title != "Greeting" {
		t.Errorf("title = %q, want Greeting", sess.Title)
	}
}

func TestSubmitAccumulatesFragments(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"The ", "answer ", "is 42."}}
	c, st := newController(gen)

	var grown []string
	c.SetListener(func(ev Event) {
		if ev.Kind == TurnFragment {
			sess, _ := st.Session(ev.SessionID)
			grown = append(grown, sess.LastMessage().Content)
		}
	})

	if err := c.Submit(context.Background(), "question", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := []string{"The ", "The answer ", "The answer is 42."}
	if len(grown) != len(want) {
		t.Fatalf("got %d fragment states, want %d", len(grown), len(want))
	}
	for i := range want {
		if grown[i] != want[i] {
			t.Errorf("state[%d] = %q, want %q", i, grown[i], want[i])
		}
	}
}

func TestSubmitRollbackOnFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	c, st := newController(gen)

	var failed bool
	c.SetListener(func(ev Event) {
		if ev.Kind == TurnFailed {
			failed = true
		}
	})

	err := c.Submit(context.Background(), "hello", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !failed {
		t.Error("no TurnFailed event")
	}

	sess := st.Snapshot().Sessions[0]
	if len(sess.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 (user message kept, placeholder removed)", len(sess.Messages))
	}
	if sess.Messages[0].Role != model.RoleUser {
		t.Error("surviving message is not the user message")
	}
	if gen.titleCalls != 0 {
		t.Error("failed turn must not trigger title generation")
	}
}

func TestSubmitTitleOnlyOnFirstExchange(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"ok"}, title: "First Topic"}
	c, st := newController(gen)

	if err := c.Submit(context.Background(), "one", nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Submit(context.Background(), "two", nil); err != nil {
		t.Fatal(err)
	}

	if gen.titleCalls != 1 {
		t.Errorf("title generated %d times, want 1", gen.titleCalls)
	}
	if st.Snapshot().Sessions[0].Title != "First Topic" {
		t.Errorf("title = %q", st.Snapshot().Sessions[0].Title)
	}
}

func TestSubmitHistoryExcludesCurrentTurn(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"second reply"}}
	c, _ := newController(gen)

	if err := c.Submit(context.Background(), "first", nil); err != nil {
		t.Fatal(err)
	}
	gen.fragments = []string{"done"}
	if err := c.Submit(context.Background(), "second", nil); err != nil {
		t.Fatal(err)
	}

	if len(gen.gotHistory) != 2 {
		t.Fatalf("history has %d messages, want 2 (prior exchange only)", len(gen.gotHistory))
	}
	if gen.gotText != "second" {
		t.Errorf("text = %q, want %q", gen.gotText, "second")
	}
}

func TestSubmitBusySessionRejected(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"slow"}, block: make(chan struct{})}
	c, st := newController(gen)
	st.CreateSession()

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- c.Submit(context.Background(), "long question", nil)
	}()
	<-started

	// Wait for the first submission to take the in-flight slot.
	deadline := time.After(2 * time.Second)
	for !c.Busy(st.ActiveID()) {
		select {
		case <-deadline:
			t.Fatal("first submission never became busy")
		case <-time.After(time.Millisecond):
		}
	}

	if err := c.Submit(context.Background(), "impatient", nil); !errors.Is(err, ErrBusy) {
		t.Errorf("second submit = %v, want ErrBusy", err)
	}

	close(gen.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if c.Busy(st.ActiveID()) {
		t.Error("session still busy after settle")
	}
}

func TestSubmitOtherSessionStaysAvailable(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"slow"}, block: make(chan struct{})}
	c, st := newController(gen)
	busy := st.CreateSession()

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "long", nil) }()

	deadline := time.After(2 * time.Second)
	for !c.Busy(busy.ID) {
		select {
		case <-deadline:
			t.Fatal("first submission never became busy")
		case <-time.After(time.Millisecond):
		}
	}

	// A different session accepts submissions while the first streams.
	other := st.CreateSession()
	if c.Busy(other.ID) {
		t.Error("fresh session reported busy")
	}

	close(gen.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestSubmitEventOrder(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"a", "b"}, title: "T"}
	c, _ := newController(gen)

	var kinds []EventKind
	c.SetListener(func(ev Event) { kinds = append(kinds, ev.Kind) })

	if err := c.Submit(context.Background(), "go", nil); err != nil {
		t.Fatal(err)
	}

	want := []EventKind{TurnStarted, TurnFragment, TurnFragment, TurnCompleted, TitleUpdated}
	if len(kinds) != len(want) {
		t.Fatalf("got %d events %v, want %v", len(kinds), kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestEnsureSessionMovesInflightSlot(t *testing.T) {
	c, st := newController(&fakeGenerator{})

	// The slot was acquired for a session that no longer exists.
	if !c.acquire("gone") {
		t.Fatal("could not acquire slot for test setup")
	}

	sess, newID, err := c.ensureSession("gone")
	if err != nil {
		t.Fatalf("ensureSession: %v", err)
	}
	if newID == "gone" {
		t.Fatal("expected a replacement session ID")
	}
	if sess.ID != newID {
		t.Errorf("session %q does not match returned ID %q", sess.ID, newID)
	}

	// The old slot is released and the replacement is guarded, so a
	// concurrent submit to the new session would be rejected.
	if c.Busy("gone") {
		t.Error("slot for the deleted session was not released")
	}
	if !c.Busy(newID) {
		t.Error("replacement session is not guarded while the turn runs")
	}
	if _, ok := st.Session(newID); !ok {
		t.Error("replacement session missing from the store")
	}
	c.release(newID)
}

func TestEnsureSessionKeepsExistingSession(t *testing.T) {
	c, st := newController(&fakeGenerator{})
	sess := st.CreateSession()
	c.acquire(sess.ID)

	got, id, err := c.ensureSession(sess.ID)
	if err != nil {
		t.Fatalf("ensureSession: %v", err)
	}
	if id != sess.ID || got.ID != sess.ID {
		t.Errorf("got %q / %q, want %q", id, got.ID, sess.ID)
	}
	if !c.Busy(sess.ID) {
		t.Error("existing session lost its slot")
	}
	c.release(sess.ID)
}
