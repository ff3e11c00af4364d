package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// MemoryStore implements Store in memory. Not durable; used when no Redis is
// configured and in tests. Values are stored serialized so the round-trip
// behavior matches the Redis implementation.
type MemoryStore struct {
	entries map[string][]byte
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Put(
	ctx context.Context,
	hash string,
	transfer *domain.ObservedTransfer,
) error {
	data, err := json.Marshal(transfer)
	if err != nil {
		return fmt.Errorf("failed to marshal pending transfer: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[hash] = data
	return nil
}

func (s *MemoryStore) Get(
	ctx context.Context,
	hash string,
) (*domain.ObservedTransfer, bool, error) {
	s.mu.RLock()
	data, ok := s.entries[hash]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	var transfer domain.ObservedTransfer
	if err := json.Unmarshal(data, &transfer); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal pending transfer: %w", err)
	}
	return &transfer, true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, hash)
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hashes []string
	for hash := range s.entries {
		ok, err := path.Match(pattern, hash)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		if ok {
			hashes = append(hashes, hash)
		}
	}
	return hashes, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
