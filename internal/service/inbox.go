package service

import (
	"context"
	"log"
	"time"

	"tradepost-rest-api/internal/model"
	"tradepost-rest-api/internal/repository"
	"tradepost-rest-api/pkg/apierror"
	"tradepost-rest-api/pkg/uid"
)

// InboxService owns per-user delivery entries. Trade credits are written
// by the settlement engine inside its transaction; Deliver is the direct
// path for everything else.
type InboxService struct {
	ledger repository.LedgerStore
}

// NewInboxService creates a new inbox service.
func NewInboxService(ledger repository.LedgerStore) *InboxService {
	if ledger == nil {
		return nil
	}
	return &InboxService{ledger: ledger}
}

// Deliver creates one inbox entry. Deliveries are never merged: every
// delivery for the same item is its own entry.
func (s *InboxService) Deliver(ctx context.Context, ownerUserID, itemID string, itemUnitCount int64, tradeID string) (*model.InboxEntry, error) {
	var details []apierror.FieldError
	if ownerUserID == "" {
		details = append(details, apierror.FieldError{Field: "owner_user_id", Message: "must not be empty"})
	}
	if itemID == "" {
		details = append(details, apierror.FieldError{Field: "item_id", Message: "must not be empty"})
	}
	if itemUnitCount <= 0 {
		details = append(details, apierror.FieldError{Field: "item_unit_count", Message: "must be positive"})
	}
	if len(details) > 0 {
		return nil, apierror.ValidationError("invalid delivery", details...)
	}

	entry := &model.InboxEntry{
		ID:            uid.New(),
		OwnerUserID:   ownerUserID,
		ItemID:        itemID,
		ItemUnitCount: itemUnitCount,
		TradeID:       tradeID,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.ledger.CreateInboxEntry(ctx, entry); err != nil {
		return nil, apierror.InternalError("failed to deliver inbox entry")
	}
	return entry, nil
}

// Claim removes an entry, accepting the delivery. No partial claim.
// Claiming an absent or already-claimed entry returns NotFound; claiming
// someone else's entry returns Forbidden.
func (s *InboxService) Claim(ctx context.Context, callerUserID, entryID string) error {
	entry, err := s.ledger.GetInboxEntry(ctx, entryID)
	if err != nil {
		return apierror.InternalError("failed to read inbox entry")
	}
	if entry == nil {
		return apierror.NotFound("inbox entry not found")
	}
	if entry.OwnerUserID != callerUserID {
		return apierror.Forbidden("only the owner may claim an inbox entry")
	}

	deleted, err := s.ledger.DeleteInboxEntry(ctx, entryID)
	if err != nil {
		return apierror.InternalError("failed to claim inbox entry")
	}
	if !deleted {
		return apierror.NotFound("inbox entry not found")
	}

	log.Printf("[InboxService] User %s claimed entry %s", callerUserID, entryID)
	return nil
}

// ListForUser returns all pending entries owned by a user.
// Order is stable within a single call.
func (s *InboxService) ListForUser(ctx context.Context, ownerUserID string) ([]model.InboxEntry, error) {
	entries, err := s.ledger.ListInboxForUser(ctx, ownerUserID)
	if err != nil {
		return nil, apierror.InternalError("failed to list inbox")
	}
	return entries, nil
}
