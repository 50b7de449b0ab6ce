// Package memory keeps a capacity-bounded history of generation
// records so feedback and insights can resolve request ids after the
// response has been served.
package memory

import (
	"sync"

	"github.com/anvramos/adforge/internal/model"
)

const defaultCapacity = 1000

// Store is an append-only, capacity-bounded record history. When full,
// appending evicts the oldest record in the same critical section.
type Store struct {
	mu       sync.RWMutex
	capacity int
	records  map[string]model.GenerationRecord
	order    []string
}

// New creates a store holding at most capacity records (1000 when
// non-positive).
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{
		capacity: capacity,
		records:  make(map[string]model.GenerationRecord),
	}
}

// Append stores a record. If the store is at capacity the single
// oldest record is evicted first. Re-appending an existing request id
// replaces the stored record in place.
func (s *Store) Append(record model.GenerationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.RequestID]; exists {
		s.records[record.RequestID] = record
		return
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.records, oldest)
	}
	s.records[record.RequestID] = record
	s.order = append(s.order, record.RequestID)
}

// Get returns the record for a request id.
func (s *Store) Get(requestID string) (model.GenerationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[requestID]
	return record, ok
}

// Size returns the number of stored records.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Capacity returns the configured record limit.
func (s *Store) Capacity() int {
	return s.capacity
}
