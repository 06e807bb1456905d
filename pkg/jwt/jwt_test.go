package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateToken("u1", "grace@acme.test", RoleClient, "client-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "grace@acme.test", claims.Email)
	assert.Equal(t, RoleClient, claims.Role)
	assert.Equal(t, "client-1", claims.ClientID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", time.Hour).GenerateToken("u1", "a@b.c", RoleAdmin, "")
	require.NoError(t, err)

	_, err = NewService("secret-b", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.GenerateToken("u1", "a@b.c", RoleAdmin, "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestHasRole(t *testing.T) {
	admin := &Claims{Role: RoleAdmin}
	client := &Claims{Role: RoleClient}

	assert.True(t, admin.HasRole(RoleAdmin))
	assert.True(t, admin.HasRole(RoleClient), "admin satisfies every role check")
	assert.True(t, client.HasRole(RoleClient))
	assert.False(t, client.HasRole(RoleAdmin))
}

func TestCanAccessConversation(t *testing.T) {
	admin := &Claims{Role: RoleAdmin}
	assert.True(t, admin.CanAccessConversation("any-client"))

	portal := &Claims{Role: RoleClient, ClientID: "client-1"}
	assert.True(t, portal.CanAccessConversation("client-1"))
	assert.False(t, portal.CanAccessConversation("client-2"))

	unbound := &Claims{Role: RoleClient}
	assert.False(t, unbound.CanAccessConversation(""), "a portal token without a client binding gets nothing")
}
