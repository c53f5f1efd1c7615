package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tradepost-rest-api/internal/model"
	"tradepost-rest-api/internal/repository"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/uid"

	"github.com/sethvargo/go-retry"
)

const (
	// settleMaxRetries bounds optimistic retries on a contended listing.
	settleMaxRetries = 5

	// settleRetryBase is the base of the exponential backoff between retries.
	settleRetryBase = 2 * time.Millisecond
)

// SettlementEngine orchestrates one trade: it validates the request
// against a listing's remaining capacity, computes both credits, and
// commits the listing mutation plus two inbox inserts as one atomic
// batch against the ledger.
//
// The engine is stateless between calls; all state lives in the store.
// Trades on the same listing serialize through the ledger's conditional
// write, trades on distinct listings never contend with each other.
type SettlementEngine struct {
	ledger repository.LedgerStore
}

// NewSettlementEngine creates a new settlement engine.
func NewSettlementEngine(ledger repository.LedgerStore) *SettlementEngine {
	if ledger == nil {
		return nil
	}
	return &SettlementEngine{ledger: ledger}
}

// ExecuteTrade fills requestedUnits trade units of a listing on behalf of
// the buyer. On success the buyer is credited offeredUnitSize*units of the
// offered item, the creator requestedUnitSize*units of the requested item,
// and the listing is decremented, or deleted on exact exhaustion.
//
// Every error path leaves the store untouched: either the receipt is
// returned and the capacity invariant holds, or nothing changed.
func (e *SettlementEngine) ExecuteTrade(ctx context.Context, buyerUserID, listingID string, requestedUnits int64) (*model.TradeReceipt, error) {
	var details []apierror.FieldError
	if buyerUserID == "" {
		details = append(details, apierror.FieldError{Field: "buyer_user_id", Message: "must not be empty"})
	}
	if listingID == "" {
		details = append(details, apierror.FieldError{Field: "listing_id", Message: "must not be empty"})
	}
	if requestedUnits <= 0 {
		details = append(details, apierror.FieldError{Field: "units", Message: "must be positive"})
	}
	if len(details) > 0 {
		return nil, apierror.ValidationError("invalid trade request", details...)
	}

	var receipt *model.TradeReceipt
	firstRead := true

	backoff := retry.WithMaxRetries(settleMaxRetries, retry.NewExponential(settleRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		listing, err := e.ledger.GetListing(ctx, listingID)
		if err != nil {
			return apierror.InternalError("failed to read listing")
		}
		if listing == nil {
			if firstRead {
				return apierror.ListingNotFound("")
			}
			// The listing existed when we started but a concurrent trade
			// drained it before our conditional write landed.
			return apierror.InsufficientCapacity("listing exhausted by concurrent trades")
		}
		firstRead = false

		if requestedUnits > listing.RemainingUnits {
			// No partial auto-fill: the caller must resubmit with a smaller amount.
			return apierror.InsufficientCapacity(fmt.Sprintf(
				"requested %d units, %d remaining", requestedUnits, listing.RemainingUnits))
		}

		tradeID := uid.New()
		now := time.Now().UTC()
		buyerEntry := model.InboxEntry{
			ID:            uid.New(),
			OwnerUserID:   buyerUserID,
			ItemID:        listing.OfferedItemID,
			ItemUnitCount: listing.OfferedUnitSize * requestedUnits,
			TradeID:       tradeID,
			CreatedAt:     now,
		}
		sellerEntry := model.InboxEntry{
			ID:            uid.New(),
			OwnerUserID:   listing.CreatorUserID,
			ItemID:        listing.RequestedItemID,
			ItemUnitCount: listing.RequestedUnitSize * requestedUnits,
			TradeID:       tradeID,
			CreatedAt:     now,
		}

		settlement := model.Settlement{
			ListingID:         listing.ID,
			ExpectedRemaining: listing.RemainingUnits,
			ConsumeUnits:      requestedUnits,
			BuyerEntry:        buyerEntry,
			SellerEntry:       sellerEntry,
		}

		if err := e.ledger.SettleTrade(ctx, settlement); err != nil {
			if errors.Is(err, repository.ErrStaleListing) {
				// Lost the race; re-read and try again with fresh capacity.
				return retry.RetryableError(err)
			}
			return apierror.InternalError("failed to commit trade")
		}

		receipt = &model.TradeReceipt{
			TradeID:   tradeID,
			ListingID: listing.ID,
			BuyerCredit: model.TradeCredit{
				OwnerUserID: buyerEntry.OwnerUserID,
				ItemID:      buyerEntry.ItemID,
				Units:       buyerEntry.ItemUnitCount,
			},
			SellerCredit: model.TradeCredit{
				OwnerUserID: sellerEntry.OwnerUserID,
				ItemID:      sellerEntry.ItemID,
				Units:       sellerEntry.ItemUnitCount,
			},
			ListingRemoved: requestedUnits == listing.RemainingUnits,
			RemainingUnits: listing.RemainingUnits - requestedUnits,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleListing) {
			// Retries exhausted on a hot listing. Transient, safe to retry.
			return nil, apierror.Conflict("listing is contended, retry the trade")
		}
		return nil, err
	}

	log.Printf("[SettlementEngine] Trade %s: listing %s, buyer %s, %d units (removed=%v)",
		receipt.TradeID, receipt.ListingID, buyerUserID, requestedUnits, receipt.ListingRemoved)
	return receipt, nil
}
