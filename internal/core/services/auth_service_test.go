package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewAuthService("test-secret")

	token, err := svc.GenerateToken("user-1", "u@test.dev")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", string(claims.UserID))
	assert.Equal(t, "u@test.dev", claims.Email)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService("secret-a").GenerateToken("user-1", "u@test.dev")
	require.NoError(t, err)

	_, err = NewAuthService("secret-b").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService("test-secret")

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
