package history

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and harness development. It
// honors the Store contract except for durability.
type MemStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Record)}
}

func (s *MemStore) Get(variant string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, found := s.records[variant]
	return record, found, nil
}

func (s *MemStore) Put(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Variant] = record
	return nil
}

func (s *MemStore) All() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		all = append(all, record)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Variant < all[j].Variant })
	return all, nil
}

func (s *MemStore) Close() error {
	return nil
}
