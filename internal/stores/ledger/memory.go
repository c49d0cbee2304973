package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore provides an in-memory implementation of Store, used when no
// database is configured and in tests
type InMemoryStore struct {
	entries []*Entry
	mutex   sync.RWMutex
}

// NewInMemoryStore creates a new in-memory ledger
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Record stores a copy of the entry
func (s *InMemoryStore) Record(_ context.Context, entry *Entry) error {
	if entry.RunID == uuid.Nil {
		return fmt.Errorf("run_id cannot be empty")
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entryCopy := *entry
	s.entries = append(s.entries, &entryCopy)
	return nil
}

// ListRun returns copies of the entries of one run in row order
func (s *InMemoryStore) ListRun(_ context.Context, runID uuid.UUID) ([]*Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []*Entry
	for _, e := range s.entries {
		if e.RunID == runID {
			entryCopy := *e
			out = append(out, &entryCopy)
		}
	}

	slices.SortStableFunc(out, func(a, b *Entry) int {
		return a.Row - b.Row
	})
	return out, nil
}

// Close is a no-op
func (s *InMemoryStore) Close() error {
	return nil
}
