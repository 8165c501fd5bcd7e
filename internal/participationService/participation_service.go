package participation

import (
	"context"
	"errors"
	"fmt"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/metrics"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
)

// FeeConfig supplies the current participation fee. The marketplace
// configuration layer implements it.
type FeeConfig interface {
	ParticipationFeeCents() int64
}

// ParticipationService admits users into active auctions against the
// non-refundable participation fee.
type ParticipationService struct {
	repo repository.AuctionDB
	fees FeeConfig
}

// NewParticipationService creates a new ParticipationService instance
func NewParticipationService(repo repository.AuctionDB, fees FeeConfig) *ParticipationService {
	return &ParticipationService{
		repo: repo,
		fees: fees,
	}
}

// JoinOutcome reports the result of a join request.
type JoinOutcome struct {
	AuctionID       string
	UserID          string
	AlreadyJoined   bool
	FeeChargedCents int64
}

// Join admits a user into an auction. The fee debit, ledger entry and
// participant row are written by the repository as one atomic unit.
// Repeating the call for the same (auction, user) is a benign no-op
// reported through AlreadyJoined, not an error.
func (s *ParticipationService) Join(ctx context.Context, auctionID, userID string) (JoinOutcome, error) {
	if auctionID == "" || userID == "" {
		return JoinOutcome{}, fmt.Errorf("service: %w - missing auctionID or userID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return JoinOutcome{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if auction.Status != models.StatusActive {
		return JoinOutcome{}, fmt.Errorf("service: auction %s is %s: %w", auctionID, auction.Status, auctionerrors.ErrAuctionNotJoinable)
	}

	joined, err := s.repo.HasParticipant(ctx, auctionID, userID)
	if err != nil {
		return JoinOutcome{}, fmt.Errorf("service: failed to check participant %s/%s: %w", auctionID, userID, err)
	}
	if joined {
		return JoinOutcome{AuctionID: auctionID, UserID: userID, AlreadyJoined: true}, nil
	}

	fee := s.fees.ParticipationFeeCents()
	entry, err := s.repo.ChargeParticipation(ctx, auctionID, userID, fee)
	if err != nil {
		// a concurrent join charged first; the ledger witness makes this safe
		if errors.Is(err, auctionerrors.ErrAlreadyCharged) {
			return JoinOutcome{AuctionID: auctionID, UserID: userID, AlreadyJoined: true}, nil
		}
		return JoinOutcome{}, fmt.Errorf("service: failed to charge fee for user %s on auction %s: %w", userID, auctionID, err)
	}

	metrics.FeesCharged.Inc()

	return JoinOutcome{
		AuctionID:       auctionID,
		UserID:          userID,
		FeeChargedCents: -entry.AmountCents,
	}, nil
}
