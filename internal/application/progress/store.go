package progress

import (
	"sync"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
)

// GridStore holds the live tables of the session. It never touches durable
// storage.
type GridStore struct {
	mu       sync.RWMutex
	resolver progress.LayoutResolver
	tables   map[progress.GridKey]*progress.GridTable
	dirty    map[progress.GridKey]struct{}
}

// NewGridStore creates an empty store generating defaults from resolver
func NewGridStore(resolver progress.LayoutResolver) *GridStore {
	return &GridStore{
		resolver: resolver,
		tables:   make(map[progress.GridKey]*progress.GridTable),
		dirty:    make(map[progress.GridKey]struct{}),
	}
}

// Get returns the live table for (building, process), creating and caching
// a default table on first access.
func (s *GridStore) Get(b progress.Building, p progress.Process) *progress.GridTable {
	key := progress.NewGridKey(b, p)

	s.mu.RLock()
	t, ok := s.tables[key]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[key]; ok {
		return t
	}
	t = progress.NewGridTable(key, s.resolver)
	s.tables[key] = t
	return t
}

// Peek returns the cached table without creating one
func (s *GridStore) Peek(key progress.GridKey) (*progress.GridTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[key]
	return t, ok
}

// Set replaces the cached table for (building, process) wholesale
func (s *GridStore) Set(b progress.Building, p progress.Process, t *progress.GridTable) {
	key := progress.NewGridKey(b, p)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[key] = t
}

// Snapshot returns deep copies of every cached table
func (s *GridStore) Snapshot() map[progress.GridKey]*progress.GridTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[progress.GridKey]*progress.GridTable, len(s.tables))
	for k, t := range s.tables {
		out[k] = t.Clone()
	}
	return out
}

// Keys returns the cached keys in display order
func (s *GridStore) Keys() []progress.GridKey {
	s.mu.RLock()
	keys := make([]progress.GridKey, 0, len(s.tables))
	for k := range s.tables {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	progress.SortGridKeys(keys)
	return keys
}

// Len returns the number of cached tables
func (s *GridStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

// MarkDirty records an unsaved change to key
func (s *GridStore) MarkDirty(key progress.GridKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[key] = struct{}{}
}

// Dirty returns the keys changed since the last save, in display order
func (s *GridStore) Dirty() []progress.GridKey {
	s.mu.RLock()
	keys := make([]progress.GridKey, 0, len(s.dirty))
	for k := range s.dirty {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	progress.SortGridKeys(keys)
	return keys
}

// ClearDirty forgets all unsaved-change marks
func (s *GridStore) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = make(map[progress.GridKey]struct{})
}
