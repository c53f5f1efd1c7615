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

// ListingService owns the listing lifecycle: create, read, enumerate,
// retire. Partial fills and exhaustion deletes go through the settlement
// engine, never through this service.
type ListingService struct {
	ledger repository.LedgerStore
}

// NewListingService creates a new listing service.
func NewListingService(ledger repository.LedgerStore) *ListingService {
	if ledger == nil {
		return nil
	}
	return &ListingService{ledger: ledger}
}

// Create opens a new listing with remaining capacity equal to total.
// Every field is validated before any store access; failures report the
// full list of invalid fields.
func (s *ListingService) Create(ctx context.Context, creatorUserID string, spec model.ListingSpec) (*model.Listing, error) {
	var details []apierror.FieldError
	if spec.OfferedItemID == "" {
		details = append(details, apierror.FieldError{Field: "offered_item_id", Message: "must not be empty"})
	}
	if spec.RequestedItemID == "" {
		details = append(details, apierror.FieldError{Field: "requested_item_id", Message: "must not be empty"})
	}
	if spec.OfferedUnitSize <= 0 {
		details = append(details, apierror.FieldError{Field: "offered_item_unit_size", Message: "must be positive"})
	}
	if spec.RequestedUnitSize <= 0 {
		details = append(details, apierror.FieldError{Field: "requested_item_unit_size", Message: "must be positive"})
	}
	if spec.TotalUnits <= 0 {
		details = append(details, apierror.FieldError{Field: "total_units", Message: "must be positive"})
	}
	if creatorUserID == "" {
		details = append(details, apierror.FieldError{Field: "creator_user_id", Message: "must not be empty"})
	}
	if len(details) > 0 {
		return nil, apierror.ValidationError("invalid listing", details...)
	}

	listing := &model.Listing{
		ID:                uid.New(),
		CreatorUserID:     creatorUserID,
		OfferedItemID:     spec.OfferedItemID,
		OfferedUnitSize:   spec.OfferedUnitSize,
		RequestedItemID:   spec.RequestedItemID,
		RequestedUnitSize: spec.RequestedUnitSize,
		TotalUnits:        spec.TotalUnits,
		RemainingUnits:    spec.TotalUnits,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.ledger.CreateListing(ctx, listing); err != nil {
		return nil, apierror.InternalError("failed to create listing")
	}

	log.Printf("[ListingService] Created listing %s by %s (%d units)", listing.ID, creatorUserID, listing.TotalUnits)
	return listing, nil
}

// Get retrieves a listing by id.
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.ledger.GetListing(ctx, id)
	if err != nil {
		return nil, apierror.InternalError("failed to read listing")
	}
	if listing == nil {
		return nil, apierror.ListingNotFound("")
	}
	return listing, nil
}

// ListAll returns all open listings joined with creator display names.
// Order is stable within a single call.
func (s *ListingService) ListAll(ctx context.Context) ([]model.ListingView, error) {
	listings, err := s.ledger.ListListings(ctx)
	if err != nil {
		return nil, apierror.InternalError("failed to list listings")
	}
	return listings, nil
}

// Retire cancels a listing. Only the creator may retire their own
// listing; anyone else gets Forbidden.
func (s *ListingService) Retire(ctx context.Context, callerUserID, id string) error {
	listing, err := s.ledger.GetListing(ctx, id)
	if err != nil {
		return apierror.InternalError("failed to read listing")
	}
	if listing == nil {
		return apierror.ListingNotFound("")
	}
	if listing.CreatorUserID != callerUserID {
		return apierror.Forbidden("only the creator may retire a listing")
	}

	deleted, err := s.ledger.DeleteListing(ctx, id)
	if err != nil {
		return apierror.InternalError("failed to retire listing")
	}
	if !deleted {
		// Settled to exhaustion between the read and the delete.
		return apierror.ListingNotFound("")
	}

	log.Printf("[ListingService] Retired listing %s", id)
	return nil
}
