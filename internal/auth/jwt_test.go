package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "amy@example.com", "Amy", "https://cdn.example.com/a.jpg", true)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)

	parsed, err := uuid.Parse(claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)

	assert.Equal(t, "amy@example.com", claims.Email)
	assert.Equal(t, "Amy", claims.DisplayName)
	assert.Equal(t, "https://cdn.example.com/a.jpg", claims.ImageURL)
	assert.True(t, claims.IsPremium)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "a@b.c", "A", "", false)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("secret", 1).Validate("not.a.token")
	assert.Error(t, err)
}
