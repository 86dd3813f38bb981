package deadletter

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe recorder useful for tests and deployments
// that run without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewInMemoryStore creates an empty in-memory recorder.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Record appends a terminal failure.
func (s *InMemoryStore) Record(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// List returns the most recent dead letters, newest first.
func (s *InMemoryStore) List(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}

	out := make([]Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Len reports how many records have been stored.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
