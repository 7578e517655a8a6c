package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/jwt"
)

func TestJWTMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	maker := jwt.NewMaker("secret", time.Hour)

	var gotUsername, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUsername, _ = r.Context().Value(User).(string)
		gotRole, _ = r.Context().Value(Role).(string)
		w.WriteHeader(http.StatusOK)
	})
	handler := JWTMiddleware(maker, log)(next)

	t.Run("valid token", func(t *testing.T) {
		token, err := maker.GenerateToken("testuser", "user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/list", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "testuser", gotUsername)
		assert.Equal(t, "user", gotRole)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/list", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/list", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expiredMaker := jwt.NewMaker("secret", -time.Hour)
		token, err := expiredMaker.GenerateToken("testuser", "user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/list", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		otherMaker := jwt.NewMaker("other-secret", time.Hour)
		token, err := otherMaker.GenerateToken("testuser", "user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/list", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
