package service

import (
	"context"
	"strings"
	"testing"

	"tradepost-rest-api/internal/cache"
	"tradepost-rest-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService(cache.NewMemoryCache())
	ctx := context.Background()

	token, err := tokens.GenerateToken(ctx, model.TokenData{UserID: "u1", UserName: "ada"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, TokenPrefix))

	data, err := tokens.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", data.UserID)
	assert.Equal(t, "ada", data.UserName)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	tokens := NewTokenService(cache.NewMemoryCache())
	ctx := context.Background()

	_, err := tokens.ValidateToken(ctx, "")
	assert.Error(t, err)

	_, err = tokens.ValidateToken(ctx, "not-a-token")
	assert.Error(t, err)

	_, err = tokens.ValidateToken(ctx, TokenPrefix+"deadbeef")
	assert.Error(t, err)
}

func TestRevokeToken(t *testing.T) {
	tokens := NewTokenService(cache.NewMemoryCache())
	ctx := context.Background()

	token, err := tokens.GenerateToken(ctx, model.TokenData{UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, tokens.RevokeToken(ctx, token))

	_, err = tokens.ValidateToken(ctx, token)
	assert.Error(t, err)
}

func TestRefreshTokenExtendsExpiry(t *testing.T) {
	tokens := NewTokenService(cache.NewMemoryCache())
	ctx := context.Background()

	token, err := tokens.GenerateToken(ctx, model.TokenData{UserID: "u1"})
	require.NoError(t, err)

	before, err := tokens.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, tokens.RefreshToken(ctx, token))

	after, err := tokens.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, after.ExpiresAt.Before(before.ExpiresAt))
}
