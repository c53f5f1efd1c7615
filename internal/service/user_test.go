package service

import (
	"context"
	"errors"
	"testing"

	"tradepost-rest-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterGeneratesCredential(t *testing.T) {
	ledger := newTestLedger(t)
	users := NewUserService(ledger)
	ctx := context.Background()

	user, err := users.Register(ctx, "ada")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, user.APIKey)
	assert.Equal(t, "ada", user.Name)

	// Public listing omits the credential
	views, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, user.ID, views[0].ID)
}

func TestRegisterDuplicateNameConflicts(t *testing.T) {
	users := NewUserService(newTestLedger(t))
	ctx := context.Background()

	_, err := users.Register(ctx, "ada")
	require.NoError(t, err)

	_, err = users.Register(ctx, "ada")
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestRegisterEmptyName(t *testing.T) {
	users := NewUserService(newTestLedger(t))

	_, err := users.Register(context.Background(), "   ")
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestResolveAPIKey(t *testing.T) {
	users := NewUserService(newTestLedger(t))
	ctx := context.Background()

	user, err := users.Register(ctx, "ada")
	require.NoError(t, err)

	resolved, err := users.ResolveAPIKey(ctx, user.APIKey)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	_, err = users.ResolveAPIKey(ctx, "bogus-key")
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestDeleteUserCascadesThroughServices(t *testing.T) {
	ledger := newTestLedger(t)
	users := NewUserService(ledger)
	listings := NewListingService(ledger)
	inbox := NewInboxService(ledger)
	ctx := context.Background()

	user := registerTestUser(t, ledger, "ada")
	createTestListing(t, ledger, user.ID, defaultSpec())
	_, err := inbox.Deliver(ctx, user.ID, "iron-ingot", 4, "")
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, user.ID))

	views, err := listings.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)

	entries, err := inbox.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	var apiErr *apierror.Error
	err = users.Delete(ctx, user.ID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}
