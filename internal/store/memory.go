package store

import (
	"context"
	"sync"

	"github.com/macarvajall/OFAC/internal/domain"
)

// MemoryDedup is an in-memory dedup store with the same first-writer-wins
// contract as Store.RecordIfNew. Used in tests and non-persistent
// deployments where alerts only need to survive for the process lifetime.
type MemoryDedup struct {
	mu      sync.Mutex
	records map[string]*domain.AlertRecord
}

// NewMemoryDedup creates an empty in-memory dedup store.
func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{records: make(map[string]*domain.AlertRecord)}
}

// RecordIfNew stores the record if the key is unseen and returns true;
// returns false without mutation when the key is already present.
func (m *MemoryDedup) RecordIfNew(ctx context.Context, key string, record *domain.AlertRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.records[key] = record
	return true, nil
}

// Get returns the stored record for a key, or nil.
func (m *MemoryDedup) Get(key string) *domain.AlertRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[key]
}

// Len returns the number of stored records.
func (m *MemoryDedup) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
