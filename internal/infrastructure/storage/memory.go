package storage

import (
	"context"
	"errors"
	"sync"
)

// InMemoryObjectStorage keeps objects in process memory. It backs tests and
// local runs of the object snapshot repository.
type InMemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewInMemoryObjectStorage creates an empty in-memory store
func NewInMemoryObjectStorage() *InMemoryObjectStorage {
	return &InMemoryObjectStorage{objects: make(map[string][]byte)}
}

// Upload stores a copy of data at key
func (s *InMemoryObjectStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

// Download returns a copy of the object at key, or ErrObjectNotFound
func (s *InMemoryObjectStorage) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), data...), nil
}
