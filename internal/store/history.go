package store

import (
	"sync"

	"github.com/offerarena/offerarena/internal/domain"
)

// HistoryStore keeps each user's debate history as a strictly append-only
// log. Entries are never edited, reordered, or deleted.
type HistoryStore struct {
	mu      sync.RWMutex
	entries map[string][]domain.HistoryEntry
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		entries: make(map[string][]domain.HistoryEntry),
	}
}

// Append adds one utterance to the owner's history.
func (s *HistoryStore) Append(owner, speaker, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[owner] = append(s.entries[owner], domain.HistoryEntry{
		OwnerUserID: owner,
		Speaker:     speaker,
		Text:        text,
	})
}

// Recent returns at most the last limit entries for owner, oldest first.
// A limit of 0 or less returns the full history.
func (s *HistoryStore) Recent(owner string, limit int) []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[owner]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}
	out := make([]domain.HistoryEntry, len(all)-start)
	copy(out, all[start:])
	return out
}

// Len returns the number of entries logged for owner.
func (s *HistoryStore) Len(owner string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[owner])
}
