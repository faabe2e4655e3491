package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/practicehq/auth-service/internal/controller"
	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/service"
	"github.com/practicehq/auth-service/internal/storage/memory"
	"github.com/practicehq/auth-service/internal/util"
)

const testAPIKey = "platform-key-for-tests"

type testStorage struct {
	*memory.InMemorySessionRepository
	*memory.InMemoryUserRepository
}

func newTestAPI(t *testing.T) *API {
	t.Helper()

	logger := zap.NewNop().Sugar()
	verifier := service.NewPasswordVerifier(service.ScryptParams{N: 1 << 10, R: 8, P: 1, KeyLen: 32})

	salt, hash, err := verifier.Hash("pass-123456")
	require.NoError(t, err)

	store := &testStorage{
		InMemorySessionRepository: memory.NewSessionRepository(),
		InMemoryUserRepository: memory.NewUserRepository(models.User{
			ID:           "user-1",
			Email:        "coach@practicehq.test",
			Role:         "coach",
			PasswordSalt: salt,
			PasswordHash: hash,
		}),
	}

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	t.Setenv("PLATFORM_API_KEY", testAPIKey)
	apiKeyService := service.NewAPIKeyService(redisClient, logger)
	require.NoError(t, apiKeyService.SyncAPIKey(context.Background()))

	cfg := &util.TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     "15m",
		RefreshTTL:    "30d",
	}
	tokens := service.NewTokenService(cfg, store, service.NewInMemoryDenylist(), logger)
	webhook := service.NewWebhookService(logger, "")
	authService := service.NewAuthService(tokens, verifier, store, webhook, logger)

	a := NewAPI(
		controller.NewController(logger, authService),
		authService,
		apiKeyService,
		&util.ServerConfig{ServerAddr: "localhost:0"},
		logger,
		nil,
	)
	a.RegisterRoutes()

	return a
}

func doJSON(a *API, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", "203.0.113.7")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func apiKeyHeader() map[string]string {
	return map[string]string{models.MwAPIKeyHeader: testAPIKey}
}

func TestLoginRefreshLogoutFlow(t *testing.T) {
	a := newTestAPI(t)

	rec := doJSON(a, http.MethodPost, "/api/auth/login",
		`{"email":"coach@practicehq.test","password":"pass-123456"}`, apiKeyHeader())
	require.Equal(t, http.StatusOK, rec.Code)

	var pair models.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	rec = doJSON(a, http.MethodPost, "/api/auth/refresh",
		`{"refresh_token":"`+pair.RefreshToken+`"}`, apiKeyHeader())
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated models.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))

	headers := apiKeyHeader()
	headers["Authorization"] = "Bearer " + rotated.AccessToken
	rec = doJSON(a, http.MethodPost, "/api/auth/logout",
		`{"refresh_token":"`+rotated.RefreshToken+`"}`, headers)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(a, http.MethodPost, "/api/auth/refresh",
		`{"refresh_token":"`+rotated.RefreshToken+`"}`, apiKeyHeader())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectionsAreUniform(t *testing.T) {
	a := newTestAPI(t)

	wrongPass := doJSON(a, http.MethodPost, "/api/auth/login",
		`{"email":"coach@practicehq.test","password":"wrong"}`, apiKeyHeader())
	unknownUser := doJSON(a, http.MethodPost, "/api/auth/login",
		`{"email":"nobody@practicehq.test","password":"pass-123456"}`, apiKeyHeader())

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.JSONEq(t, wrongPass.Body.String(), unknownUser.Body.String(),
		"wrong password and unknown user must be indistinguishable")
}

func TestRefreshGarbageGetsGeneric401(t *testing.T) {
	a := newTestAPI(t)

	rec := doJSON(a, http.MethodPost, "/api/auth/refresh",
		`{"refresh_token":"garbage"}`, apiKeyHeader())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid credentials", resp.Reason)
}

func TestRefreshExpiredAndGarbageBodiesIdentical(t *testing.T) {
	a := newTestAPI(t)

	// A well-signed refresh token whose lifetime ended a month ago.
	now := time.Now()
	claims := jwt.MapClaims{
		"kind": "refresh",
		"jti":  "11111111-2222-3333-4444-555555555555",
		"sub":  "user-1",
		"iat":  now.Add(-61 * 24 * time.Hour).Unix(),
		"exp":  now.Add(-31 * 24 * time.Hour).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).
		SignedString([]byte("refresh-secret-for-tests"))
	require.NoError(t, err)

	expiredRec := doJSON(a, http.MethodPost, "/api/auth/refresh",
		`{"refresh_token":"`+expired+`"}`, apiKeyHeader())
	garbageRec := doJSON(a, http.MethodPost, "/api/auth/refresh",
		`{"refresh_token":"garbage"}`, apiKeyHeader())

	assert.Equal(t, http.StatusUnauthorized, expiredRec.Code)
	assert.Equal(t, http.StatusUnauthorized, garbageRec.Code)
	assert.Equal(t, garbageRec.Body.String(), expiredRec.Body.String(),
		"expired and garbage tokens must be indistinguishable to the caller")
}

func TestMissingAPIKey(t *testing.T) {
	a := newTestAPI(t)

	rec := doJSON(a, http.MethodPost, "/api/auth/login",
		`{"email":"coach@practicehq.test","password":"pass-123456"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAllRequiresBearer(t *testing.T) {
	a := newTestAPI(t)

	rec := doJSON(a, http.MethodPost, "/api/auth/logout_all", `{}`, apiKeyHeader())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	login := doJSON(a, http.MethodPost, "/api/auth/login",
		`{"email":"coach@practicehq.test","password":"pass-123456"}`, apiKeyHeader())
	require.Equal(t, http.StatusOK, login.Code)

	var pair models.TokenPairResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &pair))

	headers := apiKeyHeader()
	headers["Authorization"] = "Bearer " + pair.AccessToken
	rec = doJSON(a, http.MethodPost, "/api/auth/logout_all", `{}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp["revoked"])
}
