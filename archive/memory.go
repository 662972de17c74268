package archive

import (
	"context"
	"sync"

	"github.com/BaSui01/maestro/types"
)

// MemoryStore is an in-process archive for sessions that do not need to
// survive a restart.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    []types.ArchivedSession
	maxSessions int
}

func NewMemoryStore(maxSessions int) *MemoryStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &MemoryStore{maxSessions: maxSessions}
}

func (m *MemoryStore) Save(_ context.Context, s types.ArchivedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, s)
	if n := len(m.sessions) - m.maxSessions; n > 0 {
		m.sessions = m.sessions[n:]
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]types.ArchivedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.ArchivedSession, len(m.sessions))
	copy(out, m.sessions)
	return out, nil
}
