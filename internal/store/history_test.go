package store

import (
	"strconv"
	"testing"
)

func TestHistoryStore_AppendAndRecent(t *testing.T) {
	t.Parallel()

	s := NewHistoryStore()
	s.Append("user-1", "alice", "I care about work-life balance")
	s.Append("user-1", "Company Acme", "We offer a four-day week")
	s.Append("user-2", "bob", "unrelated conversation")

	got := s.Recent("user-1", 0)
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].Speaker != "alice" || got[1].Speaker != "Company Acme" {
		t.Errorf("Entries out of order: %v", got)
	}

	if s.Len("user-2") != 1 {
		t.Errorf("Expected 1 entry for user-2, got %d", s.Len("user-2"))
	}
	if len(s.Recent("nobody", 0)) != 0 {
		t.Error("Expected empty history for unknown owner")
	}
}

func TestHistoryStore_RecentWindow(t *testing.T) {
	t.Parallel()

	s := NewHistoryStore()
	for i := 0; i < 30; i++ {
		s.Append("user-1", "alice", "message "+strconv.Itoa(i))
	}

	got := s.Recent("user-1", 20)
	if len(got) != 20 {
		t.Fatalf("Expected 20 entries, got %d", len(got))
	}
	// Oldest first, so the window starts at entry 10.
	if got[0].Text != "message 10" {
		t.Errorf("Expected window to start at message 10, got %q", got[0].Text)
	}
	if got[19].Text != "message 29" {
		t.Errorf("Expected window to end at message 29, got %q", got[19].Text)
	}
}
