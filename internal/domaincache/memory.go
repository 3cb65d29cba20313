package domaincache

import (
	"context"
	"sync"
	"time"

	"github.com/optimode/bulkverify/types"
)

// memoryStore is the default single-process backend.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]types.DomainRecord
	now     func() time.Time
	ttl     time.Duration
}

func newMemoryStore(now func() time.Time, ttl time.Duration) *memoryStore {
	return &memoryStore{
		entries: make(map[string]types.DomainRecord),
		now:     now,
		ttl:     ttl,
	}
}

func (m *memoryStore) Get(_ context.Context, domain string) (types.DomainRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.entries[domain]
	return rec, ok, nil
}

func (m *memoryStore) Set(_ context.Context, rec types.DomainRecord, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[rec.Domain] = rec
	return nil
}

func (m *memoryStore) Delete(_ context.Context, domain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, domain)
	return nil
}

// DeleteStale removes domain only if it still holds the record checked at checked.
func (m *memoryStore) DeleteStale(_ context.Context, domain string, checked time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.entries[domain]; ok && rec.LastChecked.Equal(checked) {
		delete(m.entries, domain)
	}
	return nil
}

// Len counts fresh entries only; expired ones are still removed lazily on read.
func (m *memoryStore) Len(_ context.Context) (int, error) {
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rec := range m.entries {
		if !rec.Expired(now, m.ttl) {
			n++
		}
	}
	return n, nil
}
