package kvstore

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Store. It does not survive restarts and is meant
// for tests and throwaway runs.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	if !ok {
		return Record{}, false, nil
	}
	rec.Value = slices.Clone(rec.Value)
	return rec, true, nil
}

// Stat implements Store.
func (m *Memory) Stat(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	return rec.WrittenAt, ok, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, records map[string]Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rec := range records {
		rec.Value = slices.Clone(rec.Value)
		m.records[k] = rec
	}
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.records, k)
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
