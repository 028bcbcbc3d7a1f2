package history

import (
	"context"
	"sync"

	"github.com/raphaelgruber/podrag-go/internal/models"
)

// MemoryStore is an in-process Store for tests and local development.
// Appends are serialized per store; concurrent requests on one session
// may still interleave at the pipeline level.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.ConversationTurn
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]models.ConversationTurn)}
}

// Get returns a copy of the session's turns in append order.
func (s *MemoryStore) Get(_ context.Context, sessionID string) ([]models.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[sessionID]
	out := make([]models.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append adds a turn, creating the session lazily.
func (s *MemoryStore) Append(_ context.Context, sessionID string, turn models.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	return nil
}

// Delete removes a session, reporting ErrSessionNotFound if absent.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
