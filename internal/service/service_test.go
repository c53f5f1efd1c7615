package service

import (
	"context"
	"path/filepath"
	"testing"

	"tradepost-rest-api/internal/model"
	"tradepost-rest-api/internal/repository"

	"github.com/stretchr/testify/require"
)

// Shared fixtures for the service tests. The tests run against a real
// SQLite ledger (pure Go driver) rather than mocks so the transactional
// behavior under test is the one production uses.

func newTestLedger(t *testing.T) repository.LedgerStore {
	t.Helper()

	ledger, err := repository.NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })
	return ledger
}

func registerTestUser(t *testing.T, ledger repository.LedgerStore, name string) *model.User {
	t.Helper()

	user, err := NewUserService(ledger).Register(context.Background(), name)
	require.NoError(t, err)
	return user
}

func createTestListing(t *testing.T, ledger repository.LedgerStore, creatorID string, spec model.ListingSpec) *model.Listing {
	t.Helper()

	listing, err := NewListingService(ledger).Create(context.Background(), creatorID, spec)
	require.NoError(t, err)
	return listing
}

func defaultSpec() model.ListingSpec {
	return model.ListingSpec{
		OfferedItemID:     "iron-ingot",
		OfferedUnitSize:   2,
		RequestedItemID:   "gold-ore",
		RequestedUnitSize: 3,
		TotalUnits:        10,
	}
}
