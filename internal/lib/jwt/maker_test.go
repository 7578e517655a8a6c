package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewMaker(secretKey, tokenTTL)

	tests := []struct {
		name     string
		username string
		role     string
	}{
		{
			name:     "admin user",
			username: "admin_user",
			role:     "admin",
		},
		{
			name:     "regular user",
			username: "regular_user",
			role:     "user",
		},
		{
			name:     "user with email username",
			username: "user@domain.com",
			role:     "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.username, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewMaker("test_secret_key_1234567890", 15*time.Minute)

	otherMaker := NewMaker("another_secret_key", 15*time.Minute)
	foreignToken, err := otherMaker.GenerateToken("testuser", "user")
	require.NoError(t, err)

	expiredMaker := NewMaker("test_secret_key_1234567890", -time.Minute)
	expiredToken, err := expiredMaker.GenerateToken("testuser", "user")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "token signed with another key", token: foreignToken},
		{name: "expired token", token: expiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
