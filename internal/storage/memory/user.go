package memory

import (
	"context"
	"sync"

	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/storage"
)

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by email
}

func NewUserRepository(users ...models.User) *InMemoryUserRepository {
	byEmail := make(map[string]models.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}
	return &InMemoryUserRepository{users: byEmail}
}

func (m *InMemoryUserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &user, nil
}

func (m *InMemoryUserRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}
