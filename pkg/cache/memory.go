package cache

import (
	"context"
	"sync"

	"github.com/rubiojr/reposearch/pkg/core"
)

// MemoryStore keeps encoded pages in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ AdminStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*core.CombinedPage, error) {
	s.mu.RLock()
	data, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodePage(data)
}

func (s *MemoryStore) Put(ctx context.Context, key string, page *core.CombinedPage) error {
	data, err := encodePage(page)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{Driver: "memory", Entries: int64(len(s.entries))}
	for _, data := range s.entries {
		stats.Bytes += int64(len(data))
	}
	return stats, nil
}

func (s *MemoryStore) Purge(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.entries))
	s.entries = make(map[string][]byte)
	return n, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
