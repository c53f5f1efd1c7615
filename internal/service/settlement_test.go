package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tradepost-rest-api/internal/model"
	"tradepost-rest-api/pkg/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errCode(t *testing.T, err error) string {
	t.Helper()

	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr), "expected typed API error, got %v", err)
	return apiErr.Code
}

func TestExecuteTradeValidation(t *testing.T) {
	engine := NewSettlementEngine(newTestLedger(t))
	ctx := context.Background()

	tests := []struct {
		name      string
		buyerID   string
		listingID string
		units     int64
	}{
		{"zero units", "buyer", "listing", 0},
		{"negative units", "buyer", "listing", -3},
		{"empty buyer", "", "listing", 1},
		{"empty listing", "buyer", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ExecuteTrade(ctx, tt.buyerID, tt.listingID, tt.units)
			assert.Equal(t, "VALIDATION_ERROR", errCode(t, err))
		})
	}
}

func TestExecuteTradeListingNotFound(t *testing.T) {
	engine := NewSettlementEngine(newTestLedger(t))

	_, err := engine.ExecuteTrade(context.Background(), "buyer", "no-such-listing", 1)
	assert.Equal(t, "LISTING_NOT_FOUND", errCode(t, err))
}

func TestExecuteTradePartialFill(t *testing.T) {
	ledger := newTestLedger(t)
	engine := NewSettlementEngine(ledger)
	inbox := NewInboxService(ledger)
	ctx := context.Background()

	seller := registerTestUser(t, ledger, "seller")
	buyer := registerTestUser(t, ledger, "buyer")
	listing := createTestListing(t, ledger, seller.ID, defaultSpec())

	receipt, err := engine.ExecuteTrade(ctx, buyer.ID, listing.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, listing.ID, receipt.ListingID)
	assert.NotEmpty(t, receipt.TradeID)
	assert.False(t, receipt.ListingRemoved)
	assert.Equal(t, int64(6), receipt.RemainingUnits)
	assert.Equal(t, model.TradeCredit{OwnerUserID: buyer.ID, ItemID: "iron-ingot", Units: 8}, receipt.BuyerCredit)
	assert.Equal(t, model.TradeCredit{OwnerUserID: seller.ID, ItemID: "gold-ore", Units: 12}, receipt.SellerCredit)

	got, err := ledger.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(6), got.RemainingUnits)

	buyerInbox, err := inbox.ListForUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, buyerInbox, 1)
	assert.Equal(t, "iron-ingot", buyerInbox[0].ItemID)
	assert.Equal(t, int64(8), buyerInbox[0].ItemUnitCount)
	assert.Equal(t, receipt.TradeID, buyerInbox[0].TradeID)

	sellerInbox, err := inbox.ListForUser(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, sellerInbox, 1)
	assert.Equal(t, "gold-ore", sellerInbox[0].ItemID)
	assert.Equal(t, int64(12), sellerInbox[0].ItemUnitCount)
	assert.Equal(t, receipt.TradeID, sellerInbox[0].TradeID)
}

func TestExecuteTradeExactExhaustionRemovesListing(t *testing.T) {
	ledger := newTestLedger(t)
	engine := NewSettlementEngine(ledger)
	listings := NewListingService(ledger)
	ctx := context.Background()

	seller := registerTestUser(t, ledger, "seller")
	buyer := registerTestUser(t, ledger, "buyer")

	spec := defaultSpec()
	spec.TotalUnits = 5
	listing := createTestListing(t, ledger, seller.ID, spec)

	receipt, err := engine.ExecuteTrade(ctx, buyer.ID, listing.ID, 5)
	require.NoError(t, err)
	assert.True(t, receipt.ListingRemoved)
	assert.Equal(t, int64(0), receipt.RemainingUnits)

	views, err := listings.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = listings.Get(ctx, listing.ID)
	assert.Equal(t, "LISTING_NOT_FOUND", errCode(t, err))
}

func TestExecuteTradeInsufficientCapacityLeavesStateUntouched(t *testing.T) {
	ledger := newTestLedger(t)
	engine := NewSettlementEngine(ledger)
	ctx := context.Background()

	seller := registerTestUser(t, ledger, "seller")
	buyer := registerTestUser(t, ledger, "buyer")

	spec := defaultSpec()
	spec.TotalUnits = 2
	listing := createTestListing(t, ledger, seller.ID, spec)

	_, err := engine.ExecuteTrade(ctx, buyer.ID, listing.ID, 3)
	assert.Equal(t, "INSUFFICIENT_CAPACITY", errCode(t, err))

	got, err := ledger.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.RemainingUnits)

	for _, userID := range []string{buyer.ID, seller.ID} {
		entries, err := ledger.ListInboxForUser(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, entries, "failed trade must not leave partial credits")
	}
}

func TestExecuteTradeSequentialFillsDrainListing(t *testing.T) {
	ledger := newTestLedger(t)
	engine := NewSettlementEngine(ledger)
	ctx := context.Background()

	seller := registerTestUser(t, ledger, "seller")
	buyer := registerTestUser(t, ledger, "buyer")
	listing := createTestListing(t, ledger, seller.ID, defaultSpec())

	for i := 0; i < 10; i++ {
		receipt, err := engine.ExecuteTrade(ctx, buyer.ID, listing.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(9-i), receipt.RemainingUnits)
	}

	// Listing is gone; one more trade cannot find it
	_, err := engine.ExecuteTrade(ctx, buyer.ID, listing.ID, 1)
	assert.Equal(t, "LISTING_NOT_FOUND", errCode(t, err))

	buyerInbox, err := ledger.ListInboxForUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, buyerInbox, 10)
}

func TestExecuteTradeNoOversellUnderConcurrency(t *testing.T) {
	ledger := newTestLedger(t)
	engine := NewSettlementEngine(ledger)
	ctx := context.Background()

	seller := registerTestUser(t, ledger, "seller")
	buyer := registerTestUser(t, ledger, "buyer")

	spec := defaultSpec()
	spec.TotalUnits = 5
	listing := createTestListing(t, ledger, seller.ID, spec)

	const workers = 20
	results := make([]error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.ExecuteTrade(ctx, buyer.ID, listing.ID, 1)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		code := errCode(t, err)
		assert.Contains(t, []string{"INSUFFICIENT_CAPACITY", "CONFLICT", "LISTING_NOT_FOUND"}, code)
	}
	assert.Equal(t, 5, successes, "exactly the listing's capacity may be sold")

	// Listing exhausted and removed
	got, err := ledger.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Exactly two credits per committed trade
	buyerInbox, err := ledger.ListInboxForUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, buyerInbox, 5)

	sellerInbox, err := ledger.ListInboxForUser(ctx, seller.ID)
	require.NoError(t, err)
	assert.Len(t, sellerInbox, 5)

	var delivered int64
	for _, e := range buyerInbox {
		delivered += e.ItemUnitCount
	}
	assert.Equal(t, int64(10), delivered, "5 units at offered size 2")
}
