package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"auction-engine/utils"
)

// AuctionDB defines the storage interface for the settlement engine.
// All auction status writes go through CompareAndSetStatus; all wallet
// writes go through ChargeParticipation or CreditWallet, which persist
// the balance change and its ledger entry as one atomic unit.
type AuctionDB interface {
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Auction, error)
	CompareAndSetStatus(ctx context.Context, auctionID string, expect, next model.AuctionStatus, winningBidderID string) (bool, error)
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	HasParticipant(ctx context.Context, auctionID, userID string) (bool, error)
	ChargeParticipation(ctx context.Context, auctionID, userID string, feeCents int64) (model.LedgerEntry, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	ListLedgerEntries(ctx context.Context, userID string) ([]model.LedgerEntry, error)
	CreditWallet(ctx context.Context, userID string, amountCents int64, relatedID string) (model.LedgerEntry, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu           sync.RWMutex
	auctions     map[string]model.Auction            // key: auctionID
	bids         map[string][]model.Bid              // key: auctionID -> recorded bids
	participants map[string]map[string]model.Participant // key: auctionID -> userID -> row
	balances     map[string]int64                    // key: userID -> balance in cents
	ledger       map[string][]model.LedgerEntry      // key: userID -> entries, append-only
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:     make(map[string]model.Auction),
		bids:         make(map[string][]model.Bid),
		participants: make(map[string]map[string]model.Participant),
		balances:     make(map[string]int64),
		ledger:       make(map[string][]model.LedgerEntry),
	}
}

// GetAuction returns a single auction by id
func (r *MemoryRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListExpiredActive returns up to limit active auctions whose end time has passed
func (r *MemoryRepo) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expired := make([]model.Auction, 0)
	for _, a := range r.auctions {
		if a.Status == model.StatusActive && a.EndTime.Before(now) {
			expired = append(expired, a)
		}
	}
	// stable order so repeated sweeps walk auctions the same way
	sort.Slice(expired, func(i, j int) bool {
		if expired[i].EndTime.Equal(expired[j].EndTime) {
			return expired[i].AuctionID < expired[j].AuctionID
		}
		return expired[i].EndTime.Before(expired[j].EndTime)
	})

	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

// CompareAndSetStatus updates an auction's status and winning bidder only if
// its current status matches expect. Returns false when the guard fails, so
// a racing writer sees a no-op instead of overwriting a newer state.
func (r *MemoryRepo) CompareAndSetStatus(ctx context.Context, auctionID string, expect, next model.AuctionStatus, winningBidderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return false, fmt.Errorf("compare-and-set auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Status != expect {
		return false, nil
	}

	auction.Status = next
	auction.WinningBidderID = winningBidderID
	r.auctions[auctionID] = auction
	return true, nil
}

// GetBidsByAuction returns all bids recorded for an auction
func (r *MemoryRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return append([]model.Bid(nil), r.bids[auctionID]...), nil
}

// HasParticipant reports whether the user already joined the auction
func (r *MemoryRepo) HasParticipant(ctx context.Context, auctionID, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.participants[auctionID][userID]
	return ok, nil
}

// ChargeParticipation debits the participation fee, appends the ledger entry
// and inserts the participant row as one atomic unit. A succeeded
// participation_fee entry for (userID, auctionID) makes the call fail with
// ErrAlreadyCharged without touching the balance again.
func (r *MemoryRepo) ChargeParticipation(ctx context.Context, auctionID, userID string, feeCents int64) (model.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	balance, ok := r.balances[userID]
	if !ok {
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s: %w", userID, auctionerrors.ErrWalletNotFound)
	}

	for _, e := range r.ledger[userID] {
		if e.Kind == model.KindParticipationFee && e.RelatedID == auctionID && e.Status == model.LedgerSucceeded {
			return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s on auction %s: %w", userID, auctionID, auctionerrors.ErrAlreadyCharged)
		}
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
		r.ledger[userID] = append(r.ledger[userID], entry)
		return model.LedgerEntry{}, fmt.Errorf("charge participation fee for user %s on auction %s: %w", userID, auctionID, auctionerrors.ErrInsufficientFunds)
	}

	r.balances[userID] = balance - feeCents
	r.ledger[userID] = append(r.ledger[userID], entry)

	if r.participants[auctionID] == nil {
		r.participants[auctionID] = make(map[string]model.Participant)
	}
	r.participants[auctionID][userID] = model.Participant{
		AuctionID:       auctionID,
		UserID:          userID,
		FeeChargedCents: feeCents,
		JoinedAt:        now,
	}

	return entry, nil
}

// GetBalance returns the current wallet balance for a user
func (r *MemoryRepo) GetBalance(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	balance, ok := r.balances[userID]
	if !ok {
		return 0, fmt.Errorf("get balance for user %s: %w", userID, auctionerrors.ErrWalletNotFound)
	}
	return balance, nil
}

// ListLedgerEntries returns all ledger entries for a user
func (r *MemoryRepo) ListLedgerEntries(ctx context.Context, userID string) ([]model.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.balances[userID]; !ok {
		return nil, fmt.Errorf("list ledger entries for user %s: %w", userID, auctionerrors.ErrWalletNotFound)
	}
	return append([]model.LedgerEntry(nil), r.ledger[userID]...), nil
}

// CreditWallet raises a user's balance and appends the matching ledger entry,
// creating the wallet on first credit.
func (r *MemoryRepo) CreditWallet(ctx context.Context, userID string, amountCents int64, relatedID string) (model.LedgerEntry, error) {
	if amountCents <= 0 {
		return model.LedgerEntry{}, fmt.Errorf("credit wallet for user %s: %w - non-positive amount", userID, auctionerrors.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := model.LedgerEntry{
		EntryID:     utils.GenerateID(),
		UserID:      userID,
		AmountCents: amountCents,
		Kind:        model.KindOther,
		Status:      model.LedgerSucceeded,
		RelatedID:   relatedID,
		CreatedAt:   time.Now().UTC(),
	}
	r.balances[userID] += amountCents
	r.ledger[userID] = append(r.ledger[userID], entry)
	return entry, nil
}

// AddAuction adds an auction to the repository. Intended for seeding and tests.
func (r *MemoryRepo) AddAuction(auction model.Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[auction.AuctionID] = auction
}

// AddBid records a historical bid. Intended for seeding and tests.
func (r *MemoryRepo) AddBid(bid model.Bid) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)
}
