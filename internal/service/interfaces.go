package service

import (
	"context"
	"time"
)

// AccessTokenDenylist marks access tokens invalid ahead of their natural
// expiry. Backed by redis in production, by a mutex map in tests.
type AccessTokenDenylist interface {
	Deny(ctx context.Context, jti string, remaining time.Duration) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}
