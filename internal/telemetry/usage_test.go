// omnimind TUI - A terminal chat client for Google Gemini.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package telemetry

import (
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *UsageStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndTotals(t *testing.T) {
	s := openStore(t)

	if err := s.RecordTurn("s1", "m1", 12, 340, 2*time.Second); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordTurn("s1", "m2", 5, 160, time.Second); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordTurn("s2", "m3", 1, 10, 100*time.Millisecond); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := s.SessionTotals("s1")
	if err != nil {
		t.Fatalf("session totals: %v", err)
	}
	if got.Turns != 2 || got.Chars != 500 || got.TotalDuration != 3*time.Second {
		t.Errorf("session totals = %+v", got)
	}

	all, err := s.AllTotals()
	if err != nil {
		t.Fatalf("all totals: %v", err)
	}
	if all.Turns != 3 || all.Chars != 510 {
		t.Errorf("all totals = %+v", all)
	}
}

func TestTotalsEmptyStore(t *testing.T) {
	s := openStore(t)

	got, err := s.AllTotals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if got.Turns != 0 || got.Chars != 0 || got.TotalDuration != 0 {
		t.Errorf("totals = %+v, want zeroes", got)
	}
}

func TestDeleteSession(t *testing.T) {
	s := openStore(t)

	if err := s.RecordTurn("s1", "m1", 1, 10, time.Second); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession("s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := s.SessionTotals("s1")
	if got.Turns != 0 {
		t.Errorf("turns = %d after delete, want 0", got.Turns)
	}
}
