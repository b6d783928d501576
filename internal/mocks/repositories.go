package mocks

import (
	"context"
	"sync"

	"github.com/wikifeeds-api/internal/models"
	"github.com/wikifeeds-api/internal/repository"
)

// MockDenylistRepository is a mock implementation of DenylistRepository
type MockDenylistRepository struct {
	Entries   []models.DenylistEntry
	LoadError error
	LoadCalls int
	mu        sync.Mutex
}

// Verify interface compliance
var _ repository.DenylistRepository = (*MockDenylistRepository)(nil)

func NewMockDenylistRepository(entries ...models.DenylistEntry) *MockDenylistRepository {
	return &MockDenylistRepository{Entries: entries}
}

func (m *MockDenylistRepository) LoadAll(ctx context.Context) ([]models.DenylistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	out := make([]models.DenylistEntry, len(m.Entries))
	copy(out, m.Entries)
	return out, nil
}

// Add appends entries returned by later loads
func (m *MockDenylistRepository) Add(entries ...models.DenylistEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entries...)
}
