package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/storage/memory"
)

// testStorage satisfies storage.Storage by composing the in-memory repos.
type testStorage struct {
	*memory.InMemorySessionRepository
	*memory.InMemoryUserRepository
}

func newTestAuthService(t *testing.T, users ...models.User) (*AuthService, *testStorage) {
	t.Helper()

	store := &testStorage{
		InMemorySessionRepository: memory.NewSessionRepository(),
		InMemoryUserRepository:    memory.NewUserRepository(users...),
	}
	logger := zap.NewNop().Sugar()
	tokens := NewTokenService(testTokenConfig(), store, NewInMemoryDenylist(), logger)
	verifier := NewPasswordVerifier(testScryptParams())
	webhook := NewWebhookService(logger, "")

	return NewAuthService(tokens, verifier, store, webhook, logger), store
}

func seedUser(t *testing.T, id, email, role, password string) models.User {
	t.Helper()

	salt, hash, err := NewPasswordVerifier(testScryptParams()).Hash(password)
	require.NoError(t, err)

	return models.User{
		ID:           id,
		Email:        email,
		Role:         role,
		PasswordSalt: salt,
		PasswordHash: hash,
	}
}

func TestLoginIssuesPair(t *testing.T) {
	user := seedUser(t, "user-1", "coach@practicehq.test", "coach", "pass-123456")
	auth, store := newTestAuthService(t, user)

	pair, err := auth.Login(context.Background(), "coach@practicehq.test", "pass-123456", testMeta())
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 1, store.Len())
}

func TestLoginUniformRejection(t *testing.T) {
	user := seedUser(t, "user-1", "coach@practicehq.test", "coach", "pass-123456")
	auth, store := newTestAuthService(t, user)

	// Wrong password and unknown user must be indistinguishable.
	_, wrongPassErr := auth.Login(context.Background(), "coach@practicehq.test", "wrong", testMeta())
	_, unknownUserErr := auth.Login(context.Background(), "nobody@practicehq.test", "pass-123456", testMeta())

	assert.ErrorIs(t, wrongPassErr, ErrAuthenticationFailed)
	assert.ErrorIs(t, unknownUserErr, ErrAuthenticationFailed)
	assert.Equal(t, wrongPassErr.Error(), unknownUserErr.Error())
	assert.Equal(t, 0, store.Len(), "no session may be created on rejection")
}

func TestRefreshRotatesSession(t *testing.T) {
	user := seedUser(t, "user-1", "coach@practicehq.test", "coach", "pass-123456")
	auth, _ := newTestAuthService(t, user)

	pair, err := auth.Login(context.Background(), "coach@practicehq.test", "pass-123456", testMeta())
	require.NoError(t, err)

	newPair, err := auth.Refresh(context.Background(), pair.RefreshToken, testMeta())
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// Single-use rotation: the old refresh token is dead.
	_, err = auth.Refresh(context.Background(), pair.RefreshToken, testMeta())
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// The new one works.
	_, err = auth.Refresh(context.Background(), newPair.RefreshToken, testMeta())
	assert.NoError(t, err)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, err := auth.Refresh(context.Background(), "not-a-token", testMeta())
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestRefreshExpiredAndGarbageIndistinguishable(t *testing.T) {
	user := seedUser(t, "user-1", "coach@practicehq.test", "coach", "pass-123456")
	auth, _ := newTestAuthService(t, user)

	// A genuinely issued token, long past its refresh TTL.
	expiredPair, err := auth.tokens.IssueTokensAt(
		context.Background(), "user-1", "coach", testMeta(), time.Now().Add(-31*24*time.Hour))
	require.NoError(t, err)

	_, expiredErr := auth.Refresh(context.Background(), expiredPair.RefreshToken, testMeta())
	_, garbageErr := auth.Refresh(context.Background(), "garbage", testMeta())

	// Probing guessed tokens must not reveal which ones once existed.
	assert.ErrorIs(t, expiredErr, ErrAuthenticationFailed)
	assert.ErrorIs(t, garbageErr, ErrAuthenticationFailed)
	assert.Equal(t, expiredErr.Error(), garbageErr.Error())
}

func TestLogoutRevokesAndIsIdempotent(t *testing.T) {
	user := seedUser(t, "user-1", "coach@practicehq.test", "coach", "pass-123456")
	auth, _ := newTestAuthService(t, user)

	pair, err := auth.Login(context.Background(), "coach@practicehq.test", "pass-123456", testMeta())
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background(), pair.AccessToken, pair.RefreshToken))

	_, err = auth.Refresh(context.Background(), pair.RefreshToken, testMeta())
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = auth.ValidateAccess(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// A second logout with the same tokens is a no-op, not an error.
	assert.NoError(t, auth.Logout(context.Background(), pair.AccessToken, pair.RefreshToken))
}

func TestLogoutEverywhere(t *testing.T) {
	user := seedUser(t, "user-1", "coach@practicehq.test", "coach", "pass-123456")
	auth, _ := newTestAuthService(t, user)

	var pairs []*models.TokenPairResponse
	for i := 0; i < 3; i++ {
		pair, err := auth.Login(context.Background(), "coach@practicehq.test", "pass-123456", testMeta())
		require.NoError(t, err)
		pairs = append(pairs, pair)
	}

	count, err := auth.LogoutEverywhere(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	for _, pair := range pairs {
		_, err := auth.Refresh(context.Background(), pair.RefreshToken, testMeta())
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	}

	// Already revoked: nothing left to change.
	count, err = auth.LogoutEverywhere(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
