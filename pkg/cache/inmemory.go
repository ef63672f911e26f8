package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// InMemoryStore is a thread-safe snapshot store that lives as long as the
// process. It is the default when no Redis address is configured.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[string]json.RawMessage),
	}
}

// Fetch returns a copy of the snapshot stored under key.
func (s *InMemoryStore) Fetch(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("key '%s': %w", key, ErrNotFound)
	}
	return append(json.RawMessage(nil), value...), nil
}

// Set stores a copy of value under key.
func (s *InMemoryStore) Set(_ context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append(json.RawMessage(nil), value...)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of stored snapshots.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
