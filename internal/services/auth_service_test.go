package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/authz"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	svc := NewAuthService([]byte("test-secret"), time.Minute)

	hash, err := svc.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, svc.CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, svc.CheckPassword(hash, "wrong"))
	assert.False(t, svc.CheckPassword("not-a-hash", "hunter2hunter2"))
}

func TestIssueAccessToken(t *testing.T) {
	secret := []byte("test-secret")
	svc := NewAuthService(secret, 15*time.Minute)

	user := &models.User{ID: "u-1", Role: authz.RoleAdmin}
	tokenStr, err := svc.IssueAccessToken(user)
	require.NoError(t, err)

	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, authz.RoleAdmin, claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Minute)
}
