package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/storage"
	"github.com/practicehq/auth-service/internal/util"
)

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// RefreshOutcome is the closed set of refresh-validation results. The
// distinction between Invalid and Expired exists for internal cleanup and
// logging only; callers collapse both into one uniform rejection.
type RefreshOutcome int

const (
	OutcomeInvalid RefreshOutcome = iota
	OutcomeExpired
	OutcomeValid
)

type RefreshVerdict struct {
	Outcome RefreshOutcome
	UserID  string
	TokenID string
	// Session is set only for OutcomeValid.
	Session *models.Session
}

// tokenClaims is the single payload shape for both token kinds. The Kind
// discriminator is checked immediately after signature verification, before
// any other field is trusted.
type tokenClaims struct {
	Role string `json:"role,omitempty"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	sessions      storage.SessionRepository
	denylist      AccessTokenDenylist
	log           *zap.SugaredLogger
}

func NewTokenService(
	cfg *util.TokenConfig,
	sessions storage.SessionRepository,
	denylist AccessTokenDenylist,
	log *zap.SugaredLogger,
) *TokenService {
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     resolveTTL(cfg.AccessTTL, util.DefaultAccessTTL, log),
		refreshTTL:    resolveTTL(cfg.RefreshTTL, util.DefaultRefreshTTL, log),
		sessions:      sessions,
		denylist:      denylist,
		log:           log,
	}
}

// resolveTTL applies the documented default when the configured string is
// unparseable. The fallback is always explicit and logged, never zero.
func resolveTTL(configured, def string, log *zap.SugaredLogger) time.Duration {
	ttl, err := util.ParseTTL(configured)
	if err != nil {
		log.Warnw("unparseable token TTL, applying default", "configured", configured, "default", def)
		ttl, _ = util.ParseTTL(def)
	}
	return ttl
}

// IssueTokens signs an access/refresh pair and persists the refresh session.
// The pair is returned only after the session row is durable; a persistence
// failure means no tokens are handed out, otherwise the refresh half would
// be unrevocable.
func (ts *TokenService) IssueTokens(
	ctx context.Context,
	userID, role string,
	meta models.ClientMeta,
) (*models.TokenPairResponse, error) {
	return ts.IssueTokensAt(ctx, userID, role, meta, time.Now())
}

func (ts *TokenService) IssueTokensAt(
	ctx context.Context,
	userID, role string,
	meta models.ClientMeta,
	now time.Time,
) (*models.TokenPairResponse, error) {
	accessToken, err := ts.signAccessToken(userID, role, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, tokenID, err := ts.signRefreshToken(userID, now)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	session := models.Session{
		UserID:    userID,
		TokenID:   tokenID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ts.refreshTTL),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if _, err := ts.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	return &models.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (ts *TokenService) signAccessToken(userID, role string, now time.Time) (string, error) {
	claims := &tokenClaims{
		Role: role,
		Kind: tokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(ts.accessSecret)
	if err != nil {
		return "", fmt.Errorf("signed string: %w", err)
	}
	return signed, nil
}

func (ts *TokenService) signRefreshToken(userID string, now time.Time) (string, string, error) {
	tokenID := uuid.NewString()
	claims := &tokenClaims{
		Kind: tokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(ts.refreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("signed string: %w", err)
	}
	return signed, tokenID, nil
}

// ValidateRefreshToken verifies the signature against the refresh secret and
// cross-checks the session store. Malformed tokens, wrong kinds, and bad
// signatures are rejected before any store lookup. The error return is
// reserved for persistence failures.
func (ts *TokenService) ValidateRefreshToken(ctx context.Context, raw string) (RefreshVerdict, error) {
	parsed, err := jwt.ParseWithClaims(
		raw,
		&tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return ts.refreshSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// A time-expired result implies the signature itself checked out;
		// signature failures abort claim validation earlier.
		if errors.Is(err, jwt.ErrTokenExpired) && parsed != nil {
			if claims, ok := refreshClaimsShape(parsed); ok {
				ts.cleanupExpired(ctx, claims.ID)
				return RefreshVerdict{Outcome: OutcomeExpired}, nil
			}
		}
		return RefreshVerdict{Outcome: OutcomeInvalid}, nil
	}

	claims, ok := refreshClaimsShape(parsed)
	if !ok {
		return RefreshVerdict{Outcome: OutcomeInvalid}, nil
	}

	session, err := ts.sessions.FindActiveSession(ctx, claims.Subject, claims.ID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			// Never issued, already revoked, or store-side expired: all
			// indistinguishable on purpose.
			return RefreshVerdict{Outcome: OutcomeInvalid}, nil
		}
		return RefreshVerdict{}, fmt.Errorf("find active session: %w", err)
	}

	return RefreshVerdict{
		Outcome: OutcomeValid,
		UserID:  claims.Subject,
		TokenID: claims.ID,
		Session: session,
	}, nil
}

// refreshClaimsShape guards the decoded payload before any field is trusted.
func refreshClaimsShape(t *jwt.Token) (*tokenClaims, bool) {
	claims, ok := t.Claims.(*tokenClaims)
	if !ok || claims.Kind != tokenKindRefresh || claims.ID == "" || claims.Subject == "" {
		return nil, false
	}
	return claims, true
}

func (ts *TokenService) cleanupExpired(ctx context.Context, tokenID string) {
	if err := ts.sessions.DeleteSessionByTokenID(ctx, tokenID); err != nil {
		ts.log.Warnw("failed to clean up expired session", "tokenID", tokenID, "error", err)
	}
}

// ValidateAccessToken checks the denylist, the signature against the access
// secret, and the payload shape, and returns the authenticated user id and
// role. Used by the platform's bearer middleware.
func (ts *TokenService) ValidateAccessToken(ctx context.Context, raw string) (string, string, error) {
	parsed, err := jwt.ParseWithClaims(
		raw,
		&tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return ts.accessSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrTokenExpired
		}
		return "", "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Kind != tokenKindAccess || claims.ID == "" || claims.Subject == "" {
		return "", "", ErrTokenInvalid
	}

	denied, err := ts.denylist.IsDenied(ctx, claims.ID)
	if err != nil {
		return "", "", fmt.Errorf("denylist lookup: %w", err)
	}
	if denied {
		return "", "", ErrTokenRevoked
	}

	return claims.Subject, claims.Role, nil
}

// DenyAccessToken puts an access token on the denylist for its remaining
// lifetime. Tokens that fail to decode are ignored: they could never pass
// validation anyway.
func (ts *TokenService) DenyAccessToken(ctx context.Context, raw string) error {
	parsed, _, err := new(jwt.Parser).ParseUnverified(raw, &tokenClaims{})
	if err != nil {
		return nil
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	if err := ts.denylist.Deny(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return fmt.Errorf("deny access token: %w", err)
	}
	return nil
}

// RefreshTTL exposes the resolved refresh lifetime for session bookkeeping.
func (ts *TokenService) RefreshTTL() time.Duration {
	return ts.refreshTTL
}
