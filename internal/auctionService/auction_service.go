package auction

import (
	"context"
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
)

// AuctionService owns the auction status state machine. All status writes
// go through the repository's compare-and-set, keyed on the status the
// caller observed.
type AuctionService struct {
	repo repository.AuctionDB
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB) *AuctionService {
	return &AuctionService{
		repo: repo,
	}
}

// Settlement is the outcome of processing one expired auction.
type Settlement struct {
	AuctionID       string
	Status          models.AuctionStatus
	WinningBidderID string
	// Applied is false when a concurrent writer already advanced the
	// auction; the transition was a benign no-op.
	Applied bool
}

// adminTransitions is the fixed allow-list for manual status overrides.
// cancelled -> active is the admin restore; no settlement side effects
// are replayed for it.
var adminTransitions = map[models.AuctionStatus][]models.AuctionStatus{
	models.StatusActive:    {models.StatusCancelled},
	models.StatusWaiting:   {models.StatusEnded, models.StatusCancelled},
	models.StatusCancelled: {models.StatusActive},
}

// WinningBid returns the winning bid among the given bids: highest amount,
// ties broken by the earliest placed bid. The second return is false when
// no bids exist.
func WinningBid(bids []models.Bid) (models.Bid, bool) {
	if len(bids) == 0 {
		return models.Bid{}, false
	}

	winning := bids[0]
	for _, b := range bids[1:] {
		if b.AmountCents > winning.AmountCents || (b.AmountCents == winning.AmountCents && b.PlacedAt.Before(winning.PlacedAt)) {
			winning = b
		}
	}
	return winning, true
}

// ApplyExpiry settles one expired auction: it picks the winner from the
// historical bids and moves active -> waiting, or active -> cancelled when
// no bids exist. The write is conditional on the auction still being
// active, so two racing sweepers produce exactly one transition.
func (s *AuctionService) ApplyExpiry(ctx context.Context, auction models.Auction, bids []models.Bid, now time.Time) (Settlement, error) {
	if auction.Status != models.StatusActive {
		return Settlement{}, fmt.Errorf("service: apply expiry on auction %s in status %s: %w", auction.AuctionID, auction.Status, auctionerrors.ErrInvalidTransition)
	}
	if now.Before(auction.EndTime) {
		return Settlement{}, fmt.Errorf("service: apply expiry on auction %s before its end time: %w", auction.AuctionID, auctionerrors.ErrInvalidTransition)
	}

	next := models.StatusCancelled
	winnerID := ""
	if winning, ok := WinningBid(bids); ok {
		next = models.StatusWaiting
		winnerID = winning.BidderID
	}

	applied, err := s.repo.CompareAndSetStatus(ctx, auction.AuctionID, models.StatusActive, next, winnerID)
	if err != nil {
		return Settlement{}, fmt.Errorf("service: failed to settle auction %s: %w", auction.AuctionID, err)
	}

	return Settlement{
		AuctionID:       auction.AuctionID,
		Status:          next,
		WinningBidderID: winnerID,
		Applied:         applied,
	}, nil
}

// AdminSetStatus applies a manual status override. Role enforcement happens
// at the router boundary; here only the transition allow-list is checked.
func (s *AuctionService) AdminSetStatus(ctx context.Context, auctionID string, next models.AuctionStatus) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	switch next {
	case models.StatusActive, models.StatusWaiting, models.StatusEnded, models.StatusCancelled:
	default:
		return models.Auction{}, fmt.Errorf("service: %w - unknown status %q", auctionerrors.ErrInvalidInput, next)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	if !transitionAllowed(auction.Status, next) {
		return models.Auction{}, fmt.Errorf("service: %s -> %s on auction %s: %w", auction.Status, next, auctionID, auctionerrors.ErrInvalidTransition)
	}

	// a winner only exists while the auction is waiting or ended; both
	// restore and cancellation clear it
	winnerID := auction.WinningBidderID
	if next == models.StatusActive || next == models.StatusCancelled {
		winnerID = ""
	}

	applied, err := s.repo.CompareAndSetStatus(ctx, auctionID, auction.Status, next, winnerID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to set status on auction %s: %w", auctionID, err)
	}
	if !applied {
		return models.Auction{}, fmt.Errorf("service: auction %s changed concurrently: %w", auctionID, auctionerrors.ErrInvalidTransition)
	}

	auction.Status = next
	auction.WinningBidderID = winnerID
	return auction, nil
}

func transitionAllowed(from, to models.AuctionStatus) bool {
	for _, allowed := range adminTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
