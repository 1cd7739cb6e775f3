package audit

import (
	"context"
	"sync"
)

// MemoryStorage implements Storage in process memory for tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []Record
	failErr error
}

// NewMemoryStorage creates an in-memory audit storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store implements Storage.
func (m *MemoryStorage) Store(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything stored so far.
func (m *MemoryStorage) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// FailWith makes every subsequent Store call return err. Used in tests to
// verify the best-effort contract.
func (m *MemoryStorage) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}
