package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/storage"
)

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session models.Session) (int64, error) {
	query := `INSERT INTO sessions (user_id, token_id, issued_at, expires_at, client_ip, user_agent) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		session.UserID,
		session.TokenID,
		session.IssuedAt,
		session.ExpiresAt,
		session.IPAddress,
		session.UserAgent,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	return id, nil
}

func (r *SessionRepository) FindActiveSession(ctx context.Context, userID, tokenID string) (*models.Session, error) {
	var session models.Session
	query := `SELECT id, user_id, token_id, issued_at, expires_at, client_ip, user_agent, revoked_at
		FROM sessions
		WHERE user_id = $1 AND token_id = $2 AND revoked_at IS NULL AND expires_at > now()`
	err := r.db.QueryRowContext(ctx, query, userID, tokenID).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenID,
		&session.IssuedAt,
		&session.ExpiresAt,
		&session.IPAddress,
		&session.UserAgent,
		&session.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) RevokeSession(ctx context.Context, userID, tokenID string) (bool, error) {
	query := `UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND token_id = $2 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID, tokenID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke session rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SessionRepository) RevokeAllUserSessions(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions rows affected: %w", err)
	}
	return affected, nil
}

func (r *SessionRepository) DeleteSessionByTokenID(ctx context.Context, tokenID string) error {
	query := `DELETE FROM sessions WHERE token_id = $1`
	_, err := r.db.ExecContext(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
