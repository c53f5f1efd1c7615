package repository

import (
	"context"
	"errors"

	"tradepost-rest-api/internal/model"
)

// ErrStaleListing is returned by SettleTrade when the listing's remaining
// capacity no longer matches the value the caller read, meaning another
// trade committed in between. The transaction is rolled back; the caller
// may re-read and retry.
var ErrStaleListing = errors.New("listing changed since read")

// ErrDuplicateName is returned by CreateUser when the name is taken.
var ErrDuplicateName = errors.New("user name already exists")

// LedgerStore defines durable, transactional access to the three entity
// kinds of the trading post: users, listings, and inbox entries.
//
// All Get* methods return (nil, nil) when the record is absent. Delete*
// methods report whether a record was actually removed.
type LedgerStore interface {
	// CreateUser inserts a new user. Returns ErrDuplicateName if the
	// display name is already registered.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// GetUserByAPIKey retrieves a user by credential.
	GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error)

	// ListUsers returns public views of all users.
	ListUsers(ctx context.Context) ([]model.UserView, error)

	// DeleteUser removes a user and cascades to their listings and inbox.
	DeleteUser(ctx context.Context, id string) (bool, error)

	// CreateListing inserts a new listing.
	CreateListing(ctx context.Context, listing *model.Listing) error

	// GetListing retrieves a listing by id.
	GetListing(ctx context.Context, id string) (*model.Listing, error)

	// ListListings returns all open listings joined with creator names,
	// in a stable order.
	ListListings(ctx context.Context) ([]model.ListingView, error)

	// DeleteListing removes a listing unconditionally.
	DeleteListing(ctx context.Context, id string) (bool, error)

	// CreateInboxEntry inserts a new inbox entry.
	CreateInboxEntry(ctx context.Context, entry *model.InboxEntry) error

	// GetInboxEntry retrieves an inbox entry by id.
	GetInboxEntry(ctx context.Context, id string) (*model.InboxEntry, error)

	// DeleteInboxEntry removes an inbox entry.
	DeleteInboxEntry(ctx context.Context, id string) (bool, error)

	// ListInboxForUser returns all entries owned by a user, in a stable order.
	ListInboxForUser(ctx context.Context, ownerUserID string) ([]model.InboxEntry, error)

	// SettleTrade applies one trade as a single transaction: a conditional
	// listing decrement (or delete, on exact exhaustion) plus two inbox
	// inserts. Either all three writes commit or none are visible.
	// Returns ErrStaleListing when the conditional write misses.
	SettleTrade(ctx context.Context, settlement model.Settlement) error

	// Stats returns row counts for the admin dashboard.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the store connection.
	Close() error
}
