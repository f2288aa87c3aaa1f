package ratelimit

import (
	"sync"
	"time"
)

// Record is one fixed-window counter. The record is replaced, not
// incremented, once its window has elapsed.
type Record struct {
	Count   int
	ResetAt time.Time
}

// Store abstracts the backing map for rate-limit records. The default is the
// in-process memory store below; a multi-instance deployment can substitute a
// shared counter service behind the same interface.
type Store interface {
	Get(key string) (Record, bool)
	Set(key string, record Record)
}

// Evicter is implemented by stores that can reclaim expired records.
type Evicter interface {
	Evict(now time.Time)
}

// memoryStore is a mutex-guarded in-process store. Entries are reclaimed by
// Evict once their window has long passed, so the map does not grow without
// bound over the process lifetime.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]Record)}
}

func (s *memoryStore) Get(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	return record, ok
}

func (s *memoryStore) Set(key string, record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = record
}

// Evict drops records whose window ended before now.
func (s *memoryStore) Evict(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, record := range s.records {
		if now.After(record.ResetAt) {
			delete(s.records, key)
		}
	}
}
