package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	"tradepost-rest-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteLedger implements LedgerStore using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteLedger struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteLedger creates a new SQLite-backed ledger store.
// dbPath is the path to the SQLite database file (e.g., "./data/tradepost.db")
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteLedger] Initialized with database: %s", dbPath)
	return &SQLiteLedger{db: db}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		api_key TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_api_key ON users(api_key);
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		creator_user_id TEXT NOT NULL,
		offered_item_id TEXT NOT NULL,
		offered_unit_size INTEGER NOT NULL,
		requested_item_id TEXT NOT NULL,
		requested_unit_size INTEGER NOT NULL,
		total_units INTEGER NOT NULL,
		remaining_units INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_listings_creator ON listings(creator_user_id);
	CREATE TABLE IF NOT EXISTS inbox (
		id TEXT PRIMARY KEY,
		owner_user_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		item_unit_count INTEGER NOT NULL,
		trade_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_inbox_owner ON inbox(owner_user_id);
	`
	_, err := db.Exec(query)
	return err
}

// CreateUser inserts a new user.
func (r *SQLiteLedger) CreateUser(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `INSERT INTO users (id, name, api_key, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.APIKey, user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.name") {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by id.
func (r *SQLiteLedger) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, name, api_key, created_at FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetUserByAPIKey retrieves a user by credential.
func (r *SQLiteLedger) GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, name, api_key, created_at FROM users WHERE api_key = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, apiKey))
}

// ListUsers returns public views of all users.
func (r *SQLiteLedger) ListUsers(ctx context.Context) ([]model.UserView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, name, created_at FROM users ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.UserView{}
	for rows.Next() {
		var u model.UserView
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user and cascades to their listings and inbox entries.
func (r *SQLiteLedger) DeleteUser(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if deleted == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE creator_user_id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to cascade listings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM inbox WHERE owner_user_id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to cascade inbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// CreateListing inserts a new listing.
func (r *SQLiteLedger) CreateListing(ctx context.Context, listing *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO listings (id, creator_user_id, offered_item_id, offered_unit_size,
			requested_item_id, requested_unit_size, total_units, remaining_units, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.CreatorUserID, listing.OfferedItemID, listing.OfferedUnitSize,
		listing.RequestedItemID, listing.RequestedUnitSize, listing.TotalUnits,
		listing.RemainingUnits, listing.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// GetListing retrieves a listing by id.
func (r *SQLiteLedger) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, creator_user_id, offered_item_id, offered_unit_size,
			requested_item_id, requested_unit_size, total_units, remaining_units, created_at
		FROM listings WHERE id = ?`
	return scanListing(r.db.QueryRowContext(ctx, query, id))
}

// ListListings returns all open listings joined with creator names.
func (r *SQLiteLedger) ListListings(ctx context.Context) ([]model.ListingView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return listListings(ctx, r.db)
}

// DeleteListing removes a listing unconditionally.
func (r *SQLiteLedger) DeleteListing(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete listing: %w", err)
	}
	deleted, err := res.RowsAffected()
	return deleted > 0, err
}

// CreateInboxEntry inserts a new inbox entry.
func (r *SQLiteLedger) CreateInboxEntry(ctx context.Context, entry *model.InboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, insertInboxQuery,
		entry.ID, entry.OwnerUserID, entry.ItemID, entry.ItemUnitCount, entry.TradeID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert inbox entry: %w", err)
	}
	return nil
}

// GetInboxEntry retrieves an inbox entry by id.
func (r *SQLiteLedger) GetInboxEntry(ctx context.Context, id string) (*model.InboxEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, owner_user_id, item_id, item_unit_count, trade_id, created_at FROM inbox WHERE id = ?`
	return scanInboxEntry(r.db.QueryRowContext(ctx, query, id))
}

// DeleteInboxEntry removes an inbox entry.
func (r *SQLiteLedger) DeleteInboxEntry(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM inbox WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete inbox entry: %w", err)
	}
	deleted, err := res.RowsAffected()
	return deleted > 0, err
}

// ListInboxForUser returns all entries owned by a user.
func (r *SQLiteLedger) ListInboxForUser(ctx context.Context, ownerUserID string) ([]model.InboxEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return listInboxForUser(ctx, r.db, ownerUserID)
}

// SettleTrade applies one trade atomically: the conditional listing
// mutation and both inbox inserts commit together or not at all.
//
// The listing write is a compare-and-swap against the remaining capacity
// the caller observed. A miss means a concurrent trade committed first;
// the transaction is rolled back and ErrStaleListing returned, leaving
// every row byte-identical to its pre-call state.
func (r *SQLiteLedger) SettleTrade(ctx context.Context, st model.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return settleTrade(ctx, r.db, st)
}

// Stats returns row counts for the admin dashboard.
func (r *SQLiteLedger) Stats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return ledgerStats(ctx, r.db)
}

// Close closes the database connection.
func (r *SQLiteLedger) Close() error {
	return r.db.Close()
}

// Ensure SQLiteLedger implements LedgerStore
var _ LedgerStore = (*SQLiteLedger)(nil)
