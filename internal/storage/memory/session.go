package memory

import (
	"context"
	"sync"
	"time"

	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/storage"
)

// InMemorySessionRepository mirrors the postgres predicates for tests and
// single-node development runs. Keyed by token id, which is unique per
// issued refresh token.
type InMemorySessionRepository struct {
	mu       sync.RWMutex
	nextID   int64
	sessions map[string]models.Session
}

func NewSessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]models.Session),
	}
}

func (m *InMemorySessionRepository) CreateSession(_ context.Context, session models.Session) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	session.ID = m.nextID
	m.sessions[session.TokenID] = session

	return session.ID, nil
}

func (m *InMemorySessionRepository) FindActiveSession(_ context.Context, userID, tokenID string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[tokenID]
	if !ok || session.UserID != userID {
		return nil, storage.ErrSessionNotFound
	}
	if session.Revoked() || !session.ExpiresAt.After(time.Now()) {
		return nil, storage.ErrSessionNotFound
	}

	return &session, nil
}

func (m *InMemorySessionRepository) RevokeSession(_ context.Context, userID, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[tokenID]
	if !ok || session.UserID != userID || session.Revoked() {
		return false, nil
	}

	now := time.Now()
	session.RevokedAt = &now
	m.sessions[tokenID] = session

	return true, nil
}

func (m *InMemorySessionRepository) RevokeAllUserSessions(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var revoked int64
	for tokenID, session := range m.sessions {
		if session.UserID != userID || session.Revoked() {
			continue
		}
		session.RevokedAt = &now
		m.sessions[tokenID] = session
		revoked++
	}

	return revoked, nil
}

func (m *InMemorySessionRepository) DeleteSessionByTokenID(_ context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, tokenID)

	return nil
}

// Len reports the number of stored rows, including revoked and expired ones.
func (m *InMemorySessionRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
