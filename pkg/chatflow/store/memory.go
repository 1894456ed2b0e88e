package store

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryStore keeps revisions in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	flows  map[string][]revision
	closed bool
}

type revision struct {
	data      []byte
	timestamp time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flows: make(map[string][]revision)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, flowID string, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	// Copy so the caller's slice is not retained.
	stored := append([]byte{}, data...)
	m.flows[flowID] = append(m.flows[flowID], revision{data: stored, timestamp: time.Now().UTC()})
	return len(m.flows[flowID]), nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, flowID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	revs := m.flows[flowID]
	if len(revs) == 0 {
		return nil, ErrNotFound
	}
	return bytes.Clone(revs[len(revs)-1].data), nil
}

// LoadRevision implements Store.
func (m *MemoryStore) LoadRevision(_ context.Context, flowID string, rev int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	revs := m.flows[flowID]
	if rev < 1 || rev > len(revs) {
		return nil, ErrNotFound
	}

	return bytes.Clone(revs[rev-1].data), nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, flowID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	revs := m.flows[flowID]
	infos := make([]Info, 0, len(revs))
	for i, r := range revs {
		infos = append(infos, Info{
			FlowID:    flowID,
			Revision:  i + 1,
			Timestamp: r.timestamp,
			Size:      int64(len(r.data)),
		})
	}
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, flowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.flows, flowID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.flows = nil
	return nil
}

// Len returns the total number of revisions across all flows.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, revs := range m.flows {
		count += len(revs)
	}
	return count
}
