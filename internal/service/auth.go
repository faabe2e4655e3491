package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/storage"
)

// ErrAuthenticationFailed is the single rejection for every expected
// authentication failure: wrong password, unknown user, and garbage,
// tampered, revoked, or expired refresh tokens all read the same to the
// caller. Which check failed is internal logging only.
var ErrAuthenticationFailed = errors.New("invalid credentials")

type AuthService struct {
	tokens   *TokenService
	verifier *PasswordVerifier
	storage  storage.Storage
	webhook  *WebhookService
	log      *zap.SugaredLogger
}

func NewAuthService(
	tokens *TokenService,
	verifier *PasswordVerifier,
	storage storage.Storage,
	webhook *WebhookService,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		tokens:   tokens,
		verifier: verifier,
		storage:  storage,
		webhook:  webhook,
		log:      log,
	}
}

// Login verifies the submitted password and issues a token pair. An unknown
// email and a wrong password produce the identical rejection.
func (s *AuthService) Login(
	ctx context.Context,
	email, password string,
	meta models.ClientMeta,
) (*models.TokenPairResponse, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if !s.verifier.Verify(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrAuthenticationFailed
	}

	pair, err := s.tokens.IssueTokens(ctx, user.ID, user.Role, meta)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	s.log.Infow("user logged in", "userID", user.ID)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. Rotation is
// single-use: once the new pair is durably issued, the presented token's
// session is revoked so at most one refresh token per exchange stays live.
func (s *AuthService) Refresh(
	ctx context.Context,
	rawRefreshToken string,
	meta models.ClientMeta,
) (*models.TokenPairResponse, error) {
	verdict, err := s.tokens.ValidateRefreshToken(ctx, rawRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("validate refresh token: %w", err)
	}

	if verdict.Outcome != OutcomeValid {
		// Expired and invalid must be indistinguishable outward, or probing
		// guessed tokens reveals which ones were once genuinely issued.
		if verdict.Outcome == OutcomeExpired {
			s.log.Debugw("refresh with expired token")
		}
		return nil, ErrAuthenticationFailed
	}

	user, err := s.storage.GetUserByID(ctx, verdict.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	pair, err := s.tokens.IssueTokens(ctx, user.ID, user.Role, meta)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	// Revoke only after the replacement pair is durable; a failure here
	// leaves two live tokens briefly, never zero.
	if _, err := s.storage.RevokeSession(ctx, verdict.UserID, verdict.TokenID); err != nil {
		s.log.Errorw("failed to revoke rotated session", "userID", verdict.UserID, "error", err)
	}

	if meta.IPAddress != "" && verdict.Session.IPAddress != "" && meta.IPAddress != verdict.Session.IPAddress {
		s.webhook.NotifyIPChange(ctx, user.ID, verdict.Session.IPAddress, meta.IPAddress, meta.UserAgent)
	}

	return pair, nil
}

// Logout revokes the presented refresh token's session and denylists the
// access token for its remaining lifetime. Logging out an already-revoked
// session is a no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, rawAccessToken, rawRefreshToken string) error {
	verdict, err := s.tokens.ValidateRefreshToken(ctx, rawRefreshToken)
	if err != nil {
		return fmt.Errorf("validate refresh token: %w", err)
	}

	if verdict.Outcome == OutcomeValid {
		if _, err := s.storage.RevokeSession(ctx, verdict.UserID, verdict.TokenID); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
	}

	if rawAccessToken != "" {
		if err := s.tokens.DenyAccessToken(ctx, rawAccessToken); err != nil {
			return fmt.Errorf("deny access token: %w", err)
		}
	}

	return nil
}

// LogoutEverywhere revokes every live session for the user. Issued access
// tokens cannot be enumerated, so they age out on their short TTL.
func (s *AuthService) LogoutEverywhere(ctx context.Context, userID string) (int64, error) {
	revoked, err := s.storage.RevokeAllUserSessions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all user sessions: %w", err)
	}

	s.log.Infow("revoked all sessions", "userID", userID, "count", revoked)
	return revoked, nil
}

// ValidateAccess resolves a bearer access token to a user id and role for
// the platform's middleware.
func (s *AuthService) ValidateAccess(ctx context.Context, rawAccessToken string) (string, string, error) {
	return s.tokens.ValidateAccessToken(ctx, rawAccessToken)
}
