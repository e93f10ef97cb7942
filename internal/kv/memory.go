package kv

import "sync"

// MemStore is an in-memory Store used by tests and as a fallback when no
// durable backend is configured. Contents are lost on process exit.
type MemStore struct {
	mu      sync.RWMutex
	records map[string][]byte

	// FailSaves makes every Save return an error. Tests use it to verify
	// that in-memory store state stays authoritative when persistence fails.
	FailSaves error
}

// NewMemStore creates an empty in-memory record store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string][]byte)}
}

// Load returns a copy of the value stored under key.
func (s *MemStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Save stores a copy of value under key.
func (s *MemStore) Save(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves != nil {
		return s.FailSaves
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.records[key] = stored
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error {
	return nil
}

var _ Store = (*MemStore)(nil)
