package remote

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and dry validation.
// It is safe for the engine's concurrent operation dispatch.
type MemoryStore struct {
	mu        sync.Mutex
	resources map[string]map[string]Record // resource -> key -> record
	keyFields map[string]string            // resource -> key field used at creation
	nextID    int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resources: make(map[string]map[string]Record),
		keyFields: make(map[string]string),
	}
}

// Seed inserts a record directly, bypassing Create, for test setup.
func (s *MemoryStore) Seed(resource, keyField string, fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(resource, keyField, fields)
}

// insert stores a record under its key field value. Callers hold the lock.
func (s *MemoryStore) insert(resource, keyField string, fields map[string]string) {
	set, ok := s.resources[resource]
	if !ok {
		set = make(map[string]Record)
		s.resources[resource] = set
		s.keyFields[resource] = keyField
	}

	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	s.nextID++
	key := fields[keyField]
	set[key] = Record{
		URL:    fmt.Sprintf("mem://%s/%d", resource, s.nextID),
		Fields: copied,
	}
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, resource, keyField string) (Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keyFields[resource] = keyField

	out := make(Records, len(s.resources[resource]))
	for key, record := range s.resources[resource] {
		copied := make(map[string]string, len(record.Fields))
		for k, v := range record.Fields {
			copied[k] = v
		}
		out[key] = Record{URL: record.URL, Fields: copied}
	}
	return out, nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, resource string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyField, ok := s.keyFields[resource]
	if !ok {
		return fmt.Errorf("resource %s was never listed, key field unknown", resource)
	}
	s.insert(resource, keyField, fields)
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, resource string, record Record, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.resources[resource]
	for key, existing := range set {
		if existing.URL == record.URL {
			copied := make(map[string]string, len(fields))
			for k, v := range fields {
				copied[k] = v
			}
			set[key] = Record{URL: existing.URL, Fields: copied}
			return nil
		}
	}
	return fmt.Errorf("no record at %s", record.URL)
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, resource string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.resources[resource]
	for key, existing := range set {
		if existing.URL == record.URL {
			delete(set, key)
			return nil
		}
	}
	return fmt.Errorf("no record at %s", record.URL)
}

// Count returns the number of records held for a resource.
func (s *MemoryStore) Count(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources[resource])
}

// Get returns the record stored under a key, for test assertions.
func (s *MemoryStore) Get(resource, key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.resources[resource][key]
	return record, ok
}
