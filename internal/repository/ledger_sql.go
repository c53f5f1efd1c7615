package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tradepost-rest-api/internal/model"
)

// Shared SQL helpers for the SQLite and MySQL ledger backends. Both
// drivers use ? placeholders, so the row-level queries are identical;
// only schema bootstrap and duplicate-key detection differ per backend.

const insertInboxQuery = `
	INSERT INTO inbox (id, owner_user_id, item_id, item_unit_count, trade_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.APIKey, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func scanListing(row *sql.Row) (*model.Listing, error) {
	var l model.Listing
	err := row.Scan(&l.ID, &l.CreatorUserID, &l.OfferedItemID, &l.OfferedUnitSize,
		&l.RequestedItemID, &l.RequestedUnitSize, &l.TotalUnits, &l.RemainingUnits, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}
	return &l, nil
}

func scanInboxEntry(row *sql.Row) (*model.InboxEntry, error) {
	var e model.InboxEntry
	err := row.Scan(&e.ID, &e.OwnerUserID, &e.ItemID, &e.ItemUnitCount, &e.TradeID, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan inbox entry: %w", err)
	}
	return &e, nil
}

func listListings(ctx context.Context, db *sql.DB) ([]model.ListingView, error) {
	query := `
		SELECT l.id, l.creator_user_id, l.offered_item_id, l.offered_unit_size,
			l.requested_item_id, l.requested_unit_size, l.total_units, l.remaining_units,
			l.created_at, u.name
		FROM listings l
		JOIN users u ON u.id = l.creator_user_id
		ORDER BY l.created_at, l.id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	listings := []model.ListingView{}
	for rows.Next() {
		var v model.ListingView
		if err := rows.Scan(&v.ID, &v.CreatorUserID, &v.OfferedItemID, &v.OfferedUnitSize,
			&v.RequestedItemID, &v.RequestedUnitSize, &v.TotalUnits, &v.RemainingUnits,
			&v.CreatedAt, &v.CreatorName); err != nil {
			return nil, fmt.Errorf("failed to scan listing view: %w", err)
		}
		listings = append(listings, v)
	}
	return listings, rows.Err()
}

func listInboxForUser(ctx context.Context, db *sql.DB, ownerUserID string) ([]model.InboxEntry, error) {
	query := `
		SELECT id, owner_user_id, item_id, item_unit_count, trade_id, created_at
		FROM inbox WHERE owner_user_id = ?
		ORDER BY created_at, id`
	rows, err := db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	defer rows.Close()

	entries := []model.InboxEntry{}
	for rows.Next() {
		var e model.InboxEntry
		if err := rows.Scan(&e.ID, &e.OwnerUserID, &e.ItemID, &e.ItemUnitCount, &e.TradeID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func settleTrade(ctx context.Context, db *sql.DB, st model.Settlement) error {
	if st.ConsumeUnits <= 0 || st.ConsumeUnits > st.ExpectedRemaining {
		return fmt.Errorf("invalid settlement: consume %d of %d remaining", st.ConsumeUnits, st.ExpectedRemaining)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Conditional write: the guard on remaining_units is the compare-and-swap.
	var res sql.Result
	if st.ConsumeUnits == st.ExpectedRemaining {
		// Exact exhaustion: the listing is removed, never stored at zero.
		res, err = tx.ExecContext(ctx,
			`DELETE FROM listings WHERE id = ? AND remaining_units = ?`,
			st.ListingID, st.ExpectedRemaining)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE listings SET remaining_units = remaining_units - ? WHERE id = ? AND remaining_units = ?`,
			st.ConsumeUnits, st.ListingID, st.ExpectedRemaining)
	}
	if err != nil {
		return fmt.Errorf("failed to apply listing mutation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return ErrStaleListing
	}

	for _, entry := range []model.InboxEntry{st.BuyerEntry, st.SellerEntry} {
		if _, err := tx.ExecContext(ctx, insertInboxQuery,
			entry.ID, entry.OwnerUserID, entry.ItemID, entry.ItemUnitCount, entry.TradeID, entry.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert trade credit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

func ledgerStats(ctx context.Context, db *sql.DB) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	for name, query := range map[string]string{
		"users":         "SELECT COUNT(*) FROM users",
		"open_listings": "SELECT COUNT(*) FROM listings",
		"inbox_entries": "SELECT COUNT(*) FROM inbox",
		"pending_units": "SELECT COALESCE(SUM(remaining_units), 0) FROM listings",
	} {
		var count int64
		if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		stats[name] = count
	}

	return stats, nil
}
