package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"necroshell/pkg/engine"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	runs      map[uuid.UUID]*engine.Snapshot
	journals  map[uuid.UUID][]string
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		runs:     make(map[uuid.UUID]*engine.Snapshot),
		journals: make(map[uuid.UUID][]string),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveRun mocks saving a run snapshot
func (m *MockStorage) SaveRun(ctx context.Context, id uuid.UUID, snap *engine.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[id] = snap
	return nil
}

// LoadRun mocks loading a run snapshot
func (m *MockStorage) LoadRun(ctx context.Context, id uuid.UUID) (*engine.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, exists := m.runs[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return snap, nil
}

// DeleteRun mocks deleting a run and its journal
func (m *MockStorage) DeleteRun(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
	delete(m.journals, id)
	return nil
}

// ListRuns mocks listing saved runs
func (m *MockStorage) ListRuns(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	return ids, nil
}

// AppendJournal mocks appending a journal entry
func (m *MockStorage) AppendJournal(ctx context.Context, id uuid.UUID, entry string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journals[id] = append(m.journals[id], entry)
	return nil
}

// ReadJournal mocks reading the journal
func (m *MockStorage) ReadJournal(ctx context.Context, id uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]string, len(m.journals[id]))
	copy(entries, m.journals[id])
	return entries, nil
}

// ClearJournal mocks clearing the journal
func (m *MockStorage) ClearJournal(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.journals, id)
	return nil
}
