package service

import (
	"context"
	"sync"
	"time"
)

// InMemoryDenylist implements AccessTokenDenylist for tests and single-node
// development runs.
type InMemoryDenylist struct {
	mu     sync.RWMutex
	denied map[string]time.Time
}

func NewInMemoryDenylist() *InMemoryDenylist {
	return &InMemoryDenylist{denied: make(map[string]time.Time)}
}

func (d *InMemoryDenylist) Deny(_ context.Context, jti string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.denied[jti] = time.Now().Add(remaining)
	return nil
}

func (d *InMemoryDenylist) IsDenied(_ context.Context, jti string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	until, ok := d.denied[jti]
	return ok && time.Now().Before(until), nil
}
