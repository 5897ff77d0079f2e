package session

import (
	"context"
	"sync"
	"time"

	"task-board/backend/internal/security"
)

// MemoryRegistry is an in-process Registry. Entries live until revoked, replaced, or the process exits.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	nowF    func() time.Time
}

// NewMemoryRegistry returns an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]Entry), nowF: time.Now}
}

func (m *MemoryRegistry) SetActive(_ context.Context, accountID, token string) (bool, error) {
	e := Entry{TokenHash: security.HashToken(token), IssuedAt: m.nowF().UTC()}
	m.mu.Lock()
	_, replaced := m.entries[accountID]
	m.entries[accountID] = e
	m.mu.Unlock()
	return replaced, nil
}

func (m *MemoryRegistry) Check(_ context.Context, accountID, token string) (State, error) {
	m.mu.RLock()
	e, ok := m.entries[accountID]
	m.mu.RUnlock()
	return stateOf(ok, token, e.TokenHash), nil
}

func (m *MemoryRegistry) Revoke(_ context.Context, accountID string) error {
	m.mu.Lock()
	delete(m.entries, accountID)
	m.mu.Unlock()
	return nil
}

// Lookup returns the current entry for accountID.
func (m *MemoryRegistry) Lookup(accountID string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[accountID]
	return e, ok
}
