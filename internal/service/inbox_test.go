package service

import (
	"context"
	"errors"
	"testing"

	"tradepost-rest-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverCreatesSeparateEntries(t *testing.T) {
	ledger := newTestLedger(t)
	inbox := NewInboxService(ledger)
	ctx := context.Background()

	owner := registerTestUser(t, ledger, "owner")

	// Two deliveries of the same item are never merged
	first, err := inbox.Deliver(ctx, owner.ID, "iron-ingot", 4, "")
	require.NoError(t, err)
	second, err := inbox.Deliver(ctx, owner.ID, "iron-ingot", 6, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	entries, err := inbox.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDeliverValidation(t *testing.T) {
	inbox := NewInboxService(newTestLedger(t))

	_, err := inbox.Deliver(context.Background(), "", "iron-ingot", 0, "")

	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Len(t, apiErr.Details, 2)
}

func TestClaimRemovesEntry(t *testing.T) {
	ledger := newTestLedger(t)
	inbox := NewInboxService(ledger)
	ctx := context.Background()

	owner := registerTestUser(t, ledger, "owner")
	entry, err := inbox.Deliver(ctx, owner.ID, "iron-ingot", 4, "")
	require.NoError(t, err)

	require.NoError(t, inbox.Claim(ctx, owner.ID, entry.ID))

	entries, err := inbox.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClaimAlreadyClaimedIsNotFound(t *testing.T) {
	ledger := newTestLedger(t)
	inbox := NewInboxService(ledger)
	ctx := context.Background()

	owner := registerTestUser(t, ledger, "owner")
	entry, err := inbox.Deliver(ctx, owner.ID, "iron-ingot", 4, "")
	require.NoError(t, err)

	require.NoError(t, inbox.Claim(ctx, owner.ID, entry.ID))

	// Second claim, and claims of ids that never existed: never silent success
	var apiErr *apierror.Error
	err = inbox.Claim(ctx, owner.ID, entry.ID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	err = inbox.Claim(ctx, owner.ID, "no-such-entry")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestClaimForeignEntryIsForbidden(t *testing.T) {
	ledger := newTestLedger(t)
	inbox := NewInboxService(ledger)
	ctx := context.Background()

	owner := registerTestUser(t, ledger, "owner")
	thief := registerTestUser(t, ledger, "thief")
	entry, err := inbox.Deliver(ctx, owner.ID, "iron-ingot", 4, "")
	require.NoError(t, err)

	var apiErr *apierror.Error
	err = inbox.Claim(ctx, thief.ID, entry.ID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "FORBIDDEN", apiErr.Code)

	// Entry still claimable by its owner
	require.NoError(t, inbox.Claim(ctx, owner.ID, entry.ID))
}
