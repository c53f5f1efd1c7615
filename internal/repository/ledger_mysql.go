package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"tradepost-rest-api/internal/model"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLLedger implements LedgerStore using MySQL. Unlike the SQLite
// backend it relies on the server for write serialization, so no
// process-level mutex is needed.
type MySQLLedger struct {
	db *sql.DB
}

// NewMySQLLedger opens a MySQL connection and bootstraps the schema.
func NewMySQLLedger(dsn string) (*MySQLLedger, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLLedger] Initialized")
	return &MySQLLedger{db: db}, nil
}

func createMySQLTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			api_key VARCHAR(64) NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_users_api_key (api_key)
		)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id VARCHAR(36) PRIMARY KEY,
			creator_user_id VARCHAR(36) NOT NULL,
			offered_item_id VARCHAR(255) NOT NULL,
			offered_unit_size BIGINT NOT NULL,
			requested_item_id VARCHAR(255) NOT NULL,
			requested_unit_size BIGINT NOT NULL,
			total_units BIGINT NOT NULL,
			remaining_units BIGINT NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_listings_creator (creator_user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS inbox (
			id VARCHAR(36) PRIMARY KEY,
			owner_user_id VARCHAR(36) NOT NULL,
			item_id VARCHAR(255) NOT NULL,
			item_unit_count BIGINT NOT NULL,
			trade_id VARCHAR(36) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			INDEX idx_inbox_owner (owner_user_id)
		)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a new user.
func (r *MySQLLedger) CreateUser(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, name, api_key, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.APIKey, user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by id.
func (r *MySQLLedger) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, name, api_key, created_at FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetUserByAPIKey retrieves a user by credential.
func (r *MySQLLedger) GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	query := `SELECT id, name, api_key, created_at FROM users WHERE api_key = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, apiKey))
}

// ListUsers returns public views of all users.
func (r *MySQLLedger) ListUsers(ctx context.Context) ([]model.UserView, error) {
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
func (r *MySQLLedger) DeleteUser(ctx context.Context, id string) (bool, error) {
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
func (r *MySQLLedger) CreateListing(ctx context.Context, listing *model.Listing) error {
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
func (r *MySQLLedger) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	query := `
		SELECT id, creator_user_id, offered_item_id, offered_unit_size,
			requested_item_id, requested_unit_size, total_units, remaining_units, created_at
		FROM listings WHERE id = ?`
	return scanListing(r.db.QueryRowContext(ctx, query, id))
}

// ListListings returns all open listings joined with creator names.
func (r *MySQLLedger) ListListings(ctx context.Context) ([]model.ListingView, error) {
	return listListings(ctx, r.db)
}

// DeleteListing removes a listing unconditionally.
func (r *MySQLLedger) DeleteListing(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete listing: %w", err)
	}
	deleted, err := res.RowsAffected()
	return deleted > 0, err
}

// CreateInboxEntry inserts a new inbox entry.
func (r *MySQLLedger) CreateInboxEntry(ctx context.Context, entry *model.InboxEntry) error {
	_, err := r.db.ExecContext(ctx, insertInboxQuery,
		entry.ID, entry.OwnerUserID, entry.ItemID, entry.ItemUnitCount, entry.TradeID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert inbox entry: %w", err)
	}
	return nil
}

// GetInboxEntry retrieves an inbox entry by id.
func (r *MySQLLedger) GetInboxEntry(ctx context.Context, id string) (*model.InboxEntry, error) {
	query := `SELECT id, owner_user_id, item_id, item_unit_count, trade_id, created_at FROM inbox WHERE id = ?`
	return scanInboxEntry(r.db.QueryRowContext(ctx, query, id))
}

// DeleteInboxEntry removes an inbox entry.
func (r *MySQLLedger) DeleteInboxEntry(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inbox WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete inbox entry: %w", err)
	}
	deleted, err := res.RowsAffected()
	return deleted > 0, err
}

// ListInboxForUser returns all entries owned by a user.
func (r *MySQLLedger) ListInboxForUser(ctx context.Context, ownerUserID string) ([]model.InboxEntry, error) {
	return listInboxForUser(ctx, r.db, ownerUserID)
}

// SettleTrade applies one trade atomically. See the SQLite backend for
// the compare-and-swap contract; the SQL is shared.
func (r *MySQLLedger) SettleTrade(ctx context.Context, st model.Settlement) error {
	return settleTrade(ctx, r.db, st)
}

// Stats returns row counts for the admin dashboard.
func (r *MySQLLedger) Stats(ctx context.Context) (map[string]interface{}, error) {
	return ledgerStats(ctx, r.db)
}

// Close closes the database connection.
func (r *MySQLLedger) Close() error {
	return r.db.Close()
}

// Ensure MySQLLedger implements LedgerStore
var _ LedgerStore = (*MySQLLedger)(nil)
