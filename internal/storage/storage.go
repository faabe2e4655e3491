package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/practicehq/auth-service/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage interface {
	SessionRepository
	UserRepository
}

// SessionRepository is the durable store of issued refresh tokens. Every
// write is either an insert with a fresh unique token id or an idempotent
// conditional update, so all operations are safe for arbitrary concurrent
// callers on the same token id.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.Session) (int64, error)
	// FindActiveSession returns the session only if it has not expired and
	// has not been revoked; every other case is ErrSessionNotFound.
	FindActiveSession(ctx context.Context, userID, tokenID string) (*models.Session, error)
	// RevokeSession marks the session revoked and reports whether a row
	// actually changed. Revoking an already-revoked session is a no-op.
	RevokeSession(ctx context.Context, userID, tokenID string) (bool, error)
	RevokeAllUserSessions(ctx context.Context, userID string) (int64, error)
	// DeleteSessionByTokenID is best-effort cleanup for rows whose token
	// already failed time-based verification.
	DeleteSessionByTokenID(ctx context.Context, tokenID string) error
}

// UserRepository reads the credential columns owned by the platform's
// identity subsystem. This service never writes user records.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
