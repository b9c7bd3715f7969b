package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-telehealth-booking/config"
	"go-telehealth-booking/pkg/jwt"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthMiddleware(t *testing.T) (*AuthMiddleware, *jwt.JWTService, redismock.ClientMock) {
	t.Helper()
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", Expiry: time.Hour})
	redisClient, redisMock := redismock.NewClientMock()
	return NewAuthMiddleware(jwtService, redisClient), jwtService, redisMock
}

func TestAuthenticate_ValidSessionPassesContext(t *testing.T) {
	m, jwtService, redisMock := newTestAuthMiddleware(t)

	userID := uuid.New()
	token, tokenID, err := jwtService.GenerateToken(userID, "pat@example.com", 3)
	require.NoError(t, err)

	redisMock.ExpectExists(fmt.Sprintf("session:%s:%s", userID, tokenID)).SetVal(1)

	var gotUserID uuid.UUID
	var gotRoleID int
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		gotRoleID, _ = GetRoleIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUserID)
	assert.Equal(t, 3, gotRoleID)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestAuthenticate_RevokedSession(t *testing.T) {
	m, jwtService, redisMock := newTestAuthMiddleware(t)

	userID := uuid.New()
	token, tokenID, err := jwtService.GenerateToken(userID, "pat@example.com", 3)
	require.NoError(t, err)

	redisMock.ExpectExists(fmt.Sprintf("session:%s:%s", userID, tokenID)).SetVal(0)

	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token has been revoked")
}

func TestAuthenticate_RejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "no bearer prefix", header: "token abc"},
		{name: "bare token", header: "abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestAuthMiddleware(t)
			handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be reached")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	m, _, _ := newTestAuthMiddleware(t)

	otherService := jwt.NewJWTService(config.JWTConfig{Secret: "other-secret", Expiry: time.Hour})
	token, _, err := otherService.GenerateToken(uuid.New(), "pat@example.com", 3)
	require.NoError(t, err)

	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")
}

func TestAuthenticate_RedisFailure(t *testing.T) {
	m, jwtService, redisMock := newTestAuthMiddleware(t)

	userID := uuid.New()
	token, tokenID, err := jwtService.GenerateToken(userID, "pat@example.com", 3)
	require.NoError(t, err)

	redisMock.ExpectExists(fmt.Sprintf("session:%s:%s", userID, tokenID)).SetErr(errors.New("connection refused"))

	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
