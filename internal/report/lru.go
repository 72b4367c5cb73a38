package report

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is an in-memory LRU cache that delegates to a backing Store on miss.
type LRUStore struct {
	cache *lru.Cache[string, *RunRecord]
	back  Store
}

// NewLRUStore creates an LRU cache with the given capacity that delegates
// to back on cache misses. Capacity below 1 is raised to 1.
func NewLRUStore(capacity int, back Store) *LRUStore {
	if capacity < 1 {
		capacity = 1
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, *RunRecord](capacity)
	return &LRUStore{cache: cache, back: back}
}

// Save writes the record to the cache and delegates to the backing store.
func (s *LRUStore) Save(record *RunRecord) error {
	s.cache.Add(record.ID, record)
	return s.back.Save(record)
}

// Load checks the cache first. On miss, loads from the backing store
// and promotes the record into the cache.
func (s *LRUStore) Load(runID string) (*RunRecord, error) {
	if r, ok := s.cache.Get(runID); ok {
		return r, nil
	}
	record, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(runID, record)
	return record, nil
}

// List always reads through to the backing store, which owns ordering.
func (s *LRUStore) List(limit int) ([]*RunRecord, error) {
	return s.back.List(limit)
}

// Cached reports whether runID is held in memory, without touching recency.
func (s *LRUStore) Cached(runID string) bool {
	return s.cache.Contains(runID)
}
