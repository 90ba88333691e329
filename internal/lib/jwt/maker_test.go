package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(testSecret, tokenTTL, time.Hour)

	tests := []struct {
		name  string
		uid   string
		email string
		role  string
	}{
		{name: "admin user", uid: "2b7c1f4e-0000-4000-8000-000000000001", email: "admin@example.com", role: "admin"},
		{name: "regular user", uid: "2b7c1f4e-0000-4000-8000-000000000002", email: "player@example.com", role: "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.uid, tt.email, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.uid, claims.UserUID)
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute, time.Hour)

	validToken, err := maker.GenerateToken("uid", "user@example.com", "user")
	require.NoError(t, err)

	expired, err := NewJWTMaker(testSecret, -time.Hour, time.Hour).GenerateToken("uid", "user@example.com", "user")
	require.NoError(t, err)

	wrongSecret, err := NewJWTMaker("wrong_secret_key", 15*time.Minute, time.Hour).GenerateToken("uid", "user@example.com", "user")
	require.NoError(t, err)

	verification, err := maker.GenerateVerificationToken("uid")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: wrongSecret},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "verification token used as access token", token: verification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_VerificationToken(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute, time.Hour)

	token, err := maker.GenerateVerificationToken("uid-42")
	require.NoError(t, err)

	uid, err := maker.ParseVerificationToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-42", uid)

	access, err := maker.GenerateToken("uid-42", "user@example.com", "user")
	require.NoError(t, err)
	_, err = maker.ParseVerificationToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewJWTMaker(testSecret, time.Minute, -time.Minute).GenerateVerificationToken("uid-42")
	require.NoError(t, err)
	_, err = maker.ParseVerificationToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = maker.ParseVerificationToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
