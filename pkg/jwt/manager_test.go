package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	token, err := manager.GenerateToken(42, "editor", 3)
	require.NoError(t, err)

	claims, err := manager.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, 3, claims.Level)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).GenerateToken(1, "editor", 3)
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	manager := NewManager("test-secret", -time.Minute)

	token, err := manager.GenerateToken(1, "editor", 3)
	require.NoError(t, err)

	_, err = manager.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_Garbage(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	_, err := manager.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
