package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "wrongpassword"))
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateAccessToken(1, "test@example.com", "user", "test-secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, 1, claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "test@example.com", "user", "test-secret")
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateToken_EmptySecret(t *testing.T) {
	_, err := GenerateAccessToken(1, "test@example.com", "user", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)

	_, err = ValidateToken("token", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}

func TestGenerateTokens(t *testing.T) {
	access, refresh, err := GenerateTokens(1, "test@example.com", "admin", "test-secret", "test-secret")
	require.NoError(t, err)

	accessClaims, err := ValidateToken(access, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "access", accessClaims.TokenType)
	assert.Equal(t, "admin", accessClaims.Role)

	refreshClaims, err := ValidateToken(refresh, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestRefreshAccessToken(t *testing.T) {
	_, refresh, err := GenerateTokens(1, "test@example.com", "user", "test-secret", "test-secret")
	require.NoError(t, err)

	newAccess, claims, err := RefreshAccessToken(refresh, "test-secret", "test-secret")
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.Equal(t, 1, claims.UserID)

	newClaims, err := ValidateToken(newAccess, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "access", newClaims.TokenType)
}

func TestRefreshAccessToken_RejectsAccessToken(t *testing.T) {
	access, _, err := GenerateTokens(1, "test@example.com", "user", "test-secret", "test-secret")
	require.NoError(t, err)

	_, _, err = RefreshAccessToken(access, "test-secret", "test-secret")
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}
