package model

import "time"

// InboxEntry is a pending, claimable credit of a quantity of one item kind
// owed to a specific user. ItemUnitCount is the full delivered quantity,
// not a per-unit size. Entries are immutable between creation and claim;
// claiming removes the entry, there is no partial claim.
type InboxEntry struct {
	ID            string    `json:"id"`
	OwnerUserID   string    `json:"owner_user_id"`
	ItemID        string    `json:"item_id"`
	ItemUnitCount int64     `json:"item_unit_count"`
	TradeID       string    `json:"trade_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
