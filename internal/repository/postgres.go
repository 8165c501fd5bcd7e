package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"auction-engine/utils"
)

// PostgresRepo is the relational implementation of AuctionDB. Every
// balance-affecting write runs in a single transaction that locks the
// wallet row, so the ledger entry, the balance change and the participant
// row commit or roll back together.
type PostgresRepo struct {
	db *sql.DB
}

// Open connects to Postgres and returns a repository over the connection.
func Open(dsn string) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresRepo(db), nil
}

// NewPostgresRepo wraps an existing database handle.
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// GetAuction returns a single auction by id
func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var a model.Auction
	var winner sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, seller_id, product_ref, status, end_time, winning_bidder_id
		 FROM auctions WHERE id=$1`, auctionID).
		Scan(&a.AuctionID, &a.SellerID, &a.ProductRef, &a.Status, &a.EndTime, &winner)
	if err == sql.ErrNoRows {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	a.WinningBidderID = winner.String
	return a, nil
}

// ListExpiredActive returns up to limit active auctions whose end time has passed
func (r *PostgresRepo) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Auction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seller_id, product_ref, status, end_time, winning_bidder_id
		 FROM auctions
		 WHERE status='active' AND end_time < $1
		 ORDER BY end_time, id
		 LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}
	defer rows.Close()

	var auctions []model.Auction
	for rows.Next() {
		var a model.Auction
		var winner sql.NullString
		if err := rows.Scan(&a.AuctionID, &a.SellerID, &a.ProductRef, &a.Status, &a.EndTime, &winner); err != nil {
			return nil, fmt.Errorf("list expired auctions: %w", err)
		}
		a.WinningBidderID = winner.String
		auctions = append(auctions, a)
	}
	return auctions, rows.Err()
}

// CompareAndSetStatus performs the guarded status write. The WHERE clause on
// the current status makes a lost race a zero-row update, not an overwrite.
func (r *PostgresRepo) CompareAndSetStatus(ctx context.Context, auctionID string, expect, next model.AuctionStatus, winningBidderID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET status=$1, winning_bidder_id=NULLIF($2,'')
		 WHERE id=$3 AND status=$4`,
		next, winningBidderID, auctionID, expect)
	if err != nil {
		return false, fmt.Errorf("compare-and-set auction %s: %w", auctionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("compare-and-set auction %s: %w", auctionID, err)
	}
	if n > 0 {
		return true, nil
	}

	// zero rows: either the guard failed or the auction does not exist
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM auctions WHERE id=$1)`, auctionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("compare-and-set auction %s: %w", auctionID, err)
	}
	if !exists {
		return false, fmt.Errorf("compare-and-set auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return false, nil
}

// GetBidsByAuction returns all bids recorded for an auction
func (r *PostgresRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, auction_id, bidder_id, amount_cents, placed_at
		 FROM bids WHERE auction_id=$1 ORDER BY placed_at, id`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.AuctionID, &b.BidderID, &b.AmountCents, &b.PlacedAt); err != nil {
			return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// HasParticipant reports whether the user already joined the auction
func (r *PostgresRepo) HasParticipant(ctx context.Context, auctionID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE auction_id=$1 AND user_id=$2)`,
		auctionID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant %s/%s: %w", auctionID, userID, err)
	}
	return exists, nil
}

// ChargeParticipation runs the fee debit, ledger append and participant
// insert in one transaction with the wallet row locked.
func (r *PostgresRepo) ChargeParticipation(ctx context.Context, auctionID, userID string, feeCents int64) (model.LedgerEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s: %w", userID, auctionerrors.ErrWalletNotFound)
	}
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s: %w", userID, err)
	}

	var witness string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM ledger_entries
		 WHERE user_id=$1 AND related_id=$2 AND kind='participation_fee' AND status='succeeded'`,
		userID, auctionID).Scan(&witness)
	if err == nil {
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s on auction %s: %w", userID, auctionID, auctionerrors.ErrAlreadyCharged)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s: %w", userID, err)
	}

	now := time.Now().UTC()
	entry := model.LedgerEntry{
		EntryID:     utils.GenerateID(),
		UserID:      userID,
		AmountCents: -feeCents,
		Kind:        model.KindParticipationFee,
		Status:      model.LedgerSucceeded,
		RelatedID:   auctionID,
		CreatedAt:   now,
	}

	if balance < feeCents {
		entry.Status = model.LedgerFailed
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_entries(id, user_id, amount_cents, kind, status, related_id, created_at)
			 VALUES($1,$2,$3,$4,$5,$6,$7)`,
			entry.EntryID, entry.UserID, entry.AmountCents, entry.Kind, entry.Status, entry.RelatedID, entry.CreatedAt); err != nil {
			return model.LedgerEntry{}, fmt.Errorf("record failed charge for user %s: %w", userID, err)
		}
		if err := tx.Commit(); err != nil {
			return model.LedgerEntry{}, fmt.Errorf("record failed charge for user %s: %w", userID, err)
		}
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s on auction %s: %w", userID, auctionID, auctionerrors.ErrInsufficientFunds)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents - $1 WHERE user_id=$2`, feeCents, userID); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("debit wallet for user %s: %w", userID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries(id, user_id, amount_cents, kind, status, related_id, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		entry.EntryID, entry.UserID, entry.AmountCents, entry.Kind, entry.Status, entry.RelatedID, entry.CreatedAt); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("append ledger entry for user %s: %w", userID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO participants(auction_id, user_id, fee_charged_cents, joined_at)
		 VALUES($1,$2,$3,$4)`,
		auctionID, userID, feeCents, now); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("insert participant %s/%s: %w", auctionID, userID, err)
	}

	if err := tx.Commit(); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s: %w", userID, err)
	}
	return entry, nil
}

// GetBalance returns the current wallet balance for a user
func (r *PostgresRepo) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("get balance for user %s: %w", userID, auctionerrors.ErrWalletNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get balance for user %s: %w", userID, err)
	}
	return balance, nil
}

// ListLedgerEntries returns all ledger entries for a user
func (r *PostgresRepo) ListLedgerEntries(ctx context.Context, userID string) ([]model.LedgerEntry, error) {
	if _, err := r.GetBalance(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, kind, status, related_id, created_at
		 FROM ledger_entries WHERE user_id=$1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries for user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.EntryID, &e.UserID, &e.AmountCents, &e.Kind, &e.Status, &e.RelatedID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("list ledger entries for user %s: %w", userID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreditWallet raises the balance and writes the matching ledger entry in
// one transaction, creating the wallet row on first credit.
func (r *PostgresRepo) CreditWallet(ctx context.Context, userID string, amountCents int64, relatedID string) (model.LedgerEntry, error) {
	if amountCents <= 0 {
		return model.LedgerEntry{}, fmt.Errorf("credit wallet for user %s: %w - non-positive amount", userID, auctionerrors.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("credit wallet for user %s: %w", userID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets(user_id, balance_cents) VALUES($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance_cents = wallets.balance_cents + $2`,
		userID, amountCents); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("credit wallet for user %s: %w", userID, err)
	}

	entry := model.LedgerEntry{
		EntryID:     utils.GenerateID(),
		UserID:      userID,
		AmountCents: amountCents,
		Kind:        model.KindOther,
		Status:      model.LedgerSucceeded,
		RelatedID:   relatedID,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries(id, user_id, amount_cents, kind, status, related_id, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		entry.EntryID, entry.UserID, entry.AmountCents, entry.Kind, entry.Status, entry.RelatedID, entry.CreatedAt); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("credit wallet for user %s: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("credit wallet for user %s: %w", userID, err)
	}
	return entry, nil
}
