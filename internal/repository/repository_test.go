package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"

	"github.com/stretchr/testify/require"
)

// Helper to create a new Auction
func newAuction(auctionID, sellerID string, status model.AuctionStatus, endTime time.Time) model.Auction {
	return model.Auction{
		AuctionID:  auctionID,
		SellerID:   sellerID,
		ProductRef: auctionID + "-product",
		Status:     status,
		EndTime:    endTime,
	}
}

// Helper to create a new Bid
func newBid(bidID, auctionID, bidderID string, amountCents int64, placedAt time.Time) model.Bid {
	return model.Bid{
		BidID:       bidID,
		AuctionID:   auctionID,
		BidderID:    bidderID,
		AmountCents: amountCents,
		PlacedAt:    placedAt,
	}
}

// Test ChargeParticipation
func TestMemoryRepo_ChargeParticipation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("successful_charge", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.CreditWallet(ctx, "user1", 1000, "seed")
		require.NoError(t, err)

		entry, err := repo.ChargeParticipation(ctx, "auction1", "user1", 300)
		require.NoError(t, err)
		require.Equal(t, int64(-300), entry.AmountCents)
		require.Equal(t, model.KindParticipationFee, entry.Kind)
		require.Equal(t, model.LedgerSucceeded, entry.Status)
		require.Equal(t, "auction1", entry.RelatedID)

		balance, err := repo.GetBalance(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, int64(700), balance)

		joined, err := repo.HasParticipant(ctx, "auction1", "user1")
		require.NoError(t, err)
		require.True(t, joined)
	})

	t.Run("wallet_not_found", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.ChargeParticipation(ctx, "auction1", "ghost", 300)
		require.ErrorIs(t, err, auctionerrors.ErrWalletNotFound)
	})

	t.Run("insufficient_funds_leaves_balance_unchanged", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.CreditWallet(ctx, "user1", 100, "seed")
		require.NoError(t, err)

		_, err = repo.ChargeParticipation(ctx, "auction1", "user1", 300)
		require.ErrorIs(t, err, auctionerrors.ErrInsufficientFunds)

		balance, err := repo.GetBalance(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, int64(100), balance)

		joined, err := repo.HasParticipant(ctx, "auction1", "user1")
		require.NoError(t, err)
		require.False(t, joined)

		// the rejected attempt is still recorded, marked failed
		entries, err := repo.ListLedgerEntries(ctx, "user1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, model.LedgerFailed, entries[1].Status)
	})

	t.Run("second_charge_is_rejected_as_already_charged", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.CreditWallet(ctx, "user1", 1000, "seed")
		require.NoError(t, err)

		_, err = repo.ChargeParticipation(ctx, "auction1", "user1", 300)
		require.NoError(t, err)

		_, err = repo.ChargeParticipation(ctx, "auction1", "user1", 300)
		require.ErrorIs(t, err, auctionerrors.ErrAlreadyCharged)

		// balance debited exactly once
		balance, err := repo.GetBalance(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, int64(700), balance)
	})

	t.Run("same_user_may_join_different_auctions", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.CreditWallet(ctx, "user1", 1000, "seed")
		require.NoError(t, err)

		_, err = repo.ChargeParticipation(ctx, "auction1", "user1", 300)
		require.NoError(t, err)
		_, err = repo.ChargeParticipation(ctx, "auction2", "user1", 300)
		require.NoError(t, err)

		balance, err := repo.GetBalance(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, int64(400), balance)
	})

	t.Run("concurrent_charges_debit_exactly_once", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.CreditWallet(ctx, "user1", 1000, "seed")
		require.NoError(t, err)

		const workers = 16
		results := make(chan error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.ChargeParticipation(ctx, "auction1", "user1", 300)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var succeeded int
		for err := range results {
			if err == nil {
				succeeded++
			} else {
				require.ErrorIs(t, err, auctionerrors.ErrAlreadyCharged)
			}
		}
		require.Equal(t, 1, succeeded)

		balance, err := repo.GetBalance(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, int64(700), balance)
	})
}

// Test CompareAndSetStatus
func TestMemoryRepo_CompareAndSetStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name        string
		current     model.AuctionStatus
		expect      model.AuctionStatus
		next        model.AuctionStatus
		winner      string
		wantApplied bool
	}{
		{name: "active_to_waiting", current: model.StatusActive, expect: model.StatusActive, next: model.StatusWaiting, winner: "user2", wantApplied: true},
		{name: "active_to_cancelled", current: model.StatusActive, expect: model.StatusActive, next: model.StatusCancelled, wantApplied: true},
		{name: "guard_mismatch_is_noop", current: model.StatusWaiting, expect: model.StatusActive, next: model.StatusCancelled, wantApplied: false},
		{name: "cancelled_restore", current: model.StatusCancelled, expect: model.StatusCancelled, next: model.StatusActive, wantApplied: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := NewMemoryRepo()
			repo.AddAuction(newAuction("auction1", "seller1", tc.current, now))

			applied, err := repo.CompareAndSetStatus(ctx, "auction1", tc.expect, tc.next, tc.winner)
			require.NoError(t, err)
			require.Equal(t, tc.wantApplied, applied)

			auction, err := repo.GetAuction(ctx, "auction1")
			require.NoError(t, err)
			if tc.wantApplied {
				require.Equal(t, tc.next, auction.Status)
				require.Equal(t, tc.winner, auction.WinningBidderID)
			} else {
				require.Equal(t, tc.current, auction.Status)
			}
		})
	}

	t.Run("auction_not_found", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.CompareAndSetStatus(ctx, "ghost", model.StatusActive, model.StatusWaiting, "")
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	})

	t.Run("concurrent_writers_produce_one_transition", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		repo.AddAuction(newAuction("auction1", "seller1", model.StatusActive, now))

		const workers = 8
		applied := make(chan bool, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.CompareAndSetStatus(ctx, "auction1", model.StatusActive, model.StatusWaiting, "user1")
				if err == nil {
					applied <- ok
				}
			}()
		}
		wg.Wait()
		close(applied)

		var winners int
		for ok := range applied {
			if ok {
				winners++
			}
		}
		require.Equal(t, 1, winners)
	})
}

// Test ListExpiredActive
func TestMemoryRepo_ListExpiredActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	repo := NewMemoryRepo()
	repo.AddAuction(newAuction("expired1", "seller1", model.StatusActive, now.Add(-2*time.Hour)))
	repo.AddAuction(newAuction("expired2", "seller1", model.StatusActive, now.Add(-time.Hour)))
	repo.AddAuction(newAuction("running", "seller1", model.StatusActive, now.Add(time.Hour)))
	repo.AddAuction(newAuction("settled", "seller1", model.StatusWaiting, now.Add(-3*time.Hour)))

	expired, err := repo.ListExpiredActive(ctx, now, 50)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	// ordered by end time
	require.Equal(t, "expired1", expired[0].AuctionID)
	require.Equal(t, "expired2", expired[1].AuctionID)

	limited, err := repo.ListExpiredActive(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "expired1", limited[0].AuctionID)
}

// Test GetBidsByAuction
func TestMemoryRepo_GetBidsByAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	repo := NewMemoryRepo()
	repo.AddAuction(newAuction("auction1", "seller1", model.StatusActive, now))
	repo.AddBid(newBid("bid1", "auction1", "user1", 10000, now.Add(-time.Minute)))
	repo.AddBid(newBid("bid2", "auction1", "user2", 15000, now))

	bids, err := repo.GetBidsByAuction(ctx, "auction1")
	require.NoError(t, err)
	require.Len(t, bids, 2)

	_, err = repo.GetBidsByAuction(ctx, "ghost")
	require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)

	// an auction without bids yields an empty result, not an error
	repo.AddAuction(newAuction("auction2", "seller1", model.StatusActive, now))
	empty, err := repo.GetBidsByAuction(ctx, "auction2")
	require.NoError(t, err)
	require.Empty(t, empty)
}

// Test CreditWallet
func TestMemoryRepo_CreditWallet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("credit_creates_wallet_and_entry", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		entry, err := repo.CreditWallet(ctx, "user1", 500, "topup1")
		require.NoError(t, err)
		require.Equal(t, int64(500), entry.AmountCents)
		require.Equal(t, model.LedgerSucceeded, entry.Status)

		balance, err := repo.GetBalance(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, int64(500), balance)
	})

	t.Run("non_positive_amount_rejected", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.CreditWallet(ctx, "user1", 0, "topup1")
		require.ErrorIs(t, err, auctionerrors.ErrInvalidInput)
		_, err = repo.CreditWallet(ctx, "user1", -10, "topup1")
		require.ErrorIs(t, err, auctionerrors.ErrInvalidInput)
	})

	t.Run("unknown_wallet_reads_fail", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		_, err := repo.GetBalance(ctx, "ghost")
		require.True(t, errors.Is(err, auctionerrors.ErrWalletNotFound))
		_, err = repo.ListLedgerEntries(ctx, "ghost")
		require.True(t, errors.Is(err, auctionerrors.ErrWalletNotFound))
	})
}
