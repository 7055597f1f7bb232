package keys

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Insert(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.Key]; ok {
		return ErrKeyExists
	}
	m.records[rec.Key] = rec
	return nil
}

func (m *MemoryStore) EnsureExists(ctx context.Context, key string, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[key]; !ok {
		m.records[key] = NewRecord(key, createdAt)
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) UpgradeToPro(ctx context.Context, key string, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		rec = NewRecord(key, createdAt)
	}
	rec.Plan = PlanPro
	rec.Active = true
	m.records[key] = rec
	return nil
}

func (m *MemoryStore) SetActive(ctx context.Context, key string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	rec.Active = active
	m.records[key] = rec
	return nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
