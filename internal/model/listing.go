package model

import "time"

// Listing is an open offer to deliver a fixed ratio of two item kinds,
// with finite remaining capacity measured in trade units. Filling N units
// delivers N*OfferedUnitSize of the offered item to the buyer and
// N*RequestedUnitSize of the requested item to the creator.
//
// Invariant: 0 <= RemainingUnits <= TotalUnits. A listing whose remaining
// capacity reaches zero is deleted, never stored at zero.
type Listing struct {
	ID                string    `json:"id"`
	CreatorUserID     string    `json:"creator_user_id"`
	OfferedItemID     string    `json:"offered_item_id"`
	OfferedUnitSize   int64     `json:"offered_item_unit_size"`
	RequestedItemID   string    `json:"requested_item_id"`
	RequestedUnitSize int64     `json:"requested_item_unit_size"`
	TotalUnits        int64     `json:"total_units"`
	RemainingUnits    int64     `json:"remaining_units"`
	CreatedAt         time.Time `json:"created_at"`
}

// ListingSpec is the caller-supplied portion of a new listing.
type ListingSpec struct {
	OfferedItemID     string `json:"offered_item_id"`
	OfferedUnitSize   int64  `json:"offered_item_unit_size"`
	RequestedItemID   string `json:"requested_item_id"`
	RequestedUnitSize int64  `json:"requested_item_unit_size"`
	TotalUnits        int64  `json:"total_units"`
}

// ListingView is a listing joined with its creator's display name.
type ListingView struct {
	Listing
	CreatorName string `json:"creator_name"`
}

// TradeCredit describes one side of a settled trade.
type TradeCredit struct {
	OwnerUserID string `json:"owner_user_id"`
	ItemID      string `json:"item_id"`
	Units       int64  `json:"units"`
}

// TradeReceipt is returned by the settlement engine for a committed trade.
// Both inbox entries created by the trade carry TradeID.
type TradeReceipt struct {
	TradeID        string      `json:"trade_id"`
	ListingID      string      `json:"listing_id"`
	BuyerCredit    TradeCredit `json:"buyer_credit"`
	SellerCredit   TradeCredit `json:"seller_credit"`
	ListingRemoved bool        `json:"listing_removed"`
	RemainingUnits int64       `json:"remaining_units,omitempty"`
}

// Settlement is the atomic batch applied by the ledger for one trade:
// a conditional listing mutation plus two inbox inserts.
//
// ExpectedRemaining is the remaining capacity observed when the trade was
// validated; the ledger compares against it before writing and reports a
// stale read if another trade won the race. ConsumeUnits == ExpectedRemaining
// means exact exhaustion and the listing is deleted instead of decremented.
type Settlement struct {
	ListingID         string
	ExpectedRemaining int64
	ConsumeUnits      int64
	BuyerEntry        InboxEntry
	SellerEntry       InboxEntry
}
