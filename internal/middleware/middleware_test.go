package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebooklm-backend/internal/models"
)

const testSecret = "test-secret"

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserID(r.Context())))
	})
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func TestJWTMiddleware_AttachesUserID(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	token, err := auth.IssueToken("user-42", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	auth.Middleware(echoUser()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-42", rr.Body.String())
}

func TestJWTMiddleware_EmailFallback(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	token := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"email": "ada@example.com",
		"exp":   time.Now().Add(time.Minute).Unix(),
	})

	userID, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", userID)
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	expired := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u1"})
	wrongAlg := signed(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"user_id": "u1"})
	noSubject := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"plan": "free"})

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", "UNAUTHORIZED"},
		{"garbage token", "Bearer not-a-token", "UNAUTHORIZED"},
		{"expired", "Bearer " + expired, "TOKEN_EXPIRED"},
		{"wrong key", "Bearer " + wrongKey, "UNAUTHORIZED"},
		{"wrong algorithm", "Bearer " + wrongAlg, "UNAUTHORIZED"},
		{"no subject claim", "Bearer " + noSubject, "UNAUTHORIZED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			auth.Middleware(echoUser()).ServeHTTP(rr, req)

			require.Equal(t, http.StatusUnauthorized, rr.Code)
			var body models.APIError
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
	ok, retry := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _ = rl.Allow("b")
	assert.True(t, ok, "clients are limited independently")

	now = now.Add(time.Minute)
	ok, _ = rl.Allow("a")
	assert.True(t, ok, "a new window starts after the old one closes")
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Middleware(echoUser())

	send := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/files/parse", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		if userID != "" {
			req = req.WithContext(WithUserID(req.Context(), userID))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, send("u1").Code)
	limited := send("u1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("u2").Code)
	assert.Equal(t, http.StatusOK, send("").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("").Code)
}
