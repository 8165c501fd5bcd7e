package sweeper

import (
	"context"
	"fmt"
	"time"

	auction "auction-engine/internal/auctionService"
	"auction-engine/internal/metrics"
	"auction-engine/internal/models"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

// DefaultBatchSize bounds the work of one sweep invocation.
const DefaultBatchSize = 50

// Sweeper advances all auctions past their end time through settlement.
// It is safe to run repeatedly and concurrently: the state machine's
// conditional write turns a lost race into a no-op.
type Sweeper struct {
	repo     repository.AuctionDB
	auctions *auction.AuctionService
	notifier notify.Notifier
}

// NewSweeper creates a new Sweeper instance
func NewSweeper(repo repository.AuctionDB, auctions *auction.AuctionService, notifier notify.Notifier) *Sweeper {
	return &Sweeper{
		repo:     repo,
		auctions: auctions,
		notifier: notifier,
	}
}

// Sweep settles up to maxBatchSize expired active auctions. Every auction
// is processed independently: one failure is recorded in the report and
// never aborts the rest of the batch. Context cancellation stops
// scheduling new auctions but lets the in-flight one finish.
func (s *Sweeper) Sweep(ctx context.Context, maxBatchSize int) (models.SweepReport, error) {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultBatchSize
	}

	metrics.SweepsTotal.Inc()

	expired, err := s.repo.ListExpiredActive(ctx, time.Now().UTC(), maxBatchSize)
	if err != nil {
		return models.SweepReport{}, fmt.Errorf("sweeper: failed to select expired auctions: %w", err)
	}

	report := models.SweepReport{Failures: []models.SweepFailure{}}
	for _, a := range expired {
		if ctx.Err() != nil {
			utils.Warn("sweep cancelled before finishing batch", map[string]any{
				"processed": report.Processed,
				"remaining": len(expired) - report.Processed - len(report.Failures),
			})
			break
		}

		settlement, err := s.settleOne(ctx, a)
		if err != nil {
			report.Failures = append(report.Failures, models.SweepFailure{
				AuctionID: a.AuctionID,
				Reason:    err.Error(),
			})
			metrics.SweepItemFailures.Inc()
			utils.Error("sweeper: failed to settle auction", map[string]any{
				"auction_id": a.AuctionID,
				"error":      err.Error(),
			})
			continue
		}

		report.Processed++
		outcome := string(settlement.Status)
		if !settlement.Applied {
			outcome = "noop"
		}
		metrics.AuctionsSettled.WithLabelValues(outcome).Inc()
	}

	utils.Info("sweep finished", map[string]any{
		"selected":  len(expired),
		"processed": report.Processed,
		"failures":  len(report.Failures),
	})
	return report, nil
}

// settleOne processes a single expired auction. A panic inside settlement
// is contained here and surfaces as that auction's failure.
func (s *Sweeper) settleOne(ctx context.Context, a models.Auction) (settlement auction.Settlement, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweeper: panic while settling auction %s: %v", a.AuctionID, r)
		}
	}()

	bids, err := s.repo.GetBidsByAuction(ctx, a.AuctionID)
	if err != nil {
		return auction.Settlement{}, err
	}

	settlement, err = s.auctions.ApplyExpiry(ctx, a, bids, time.Now().UTC())
	if err != nil {
		return auction.Settlement{}, err
	}
	if !settlement.Applied {
		// another sweeper won the race and already sent notifications
		return settlement, nil
	}

	fields := map[string]any{
		"auction_id":  a.AuctionID,
		"product_ref": a.ProductRef,
	}
	switch settlement.Status {
	case models.StatusWaiting:
		s.notifier.Notify(ctx, settlement.WinningBidderID, notify.KindAuctionWon, fields)
		s.notifier.Notify(ctx, a.SellerID, notify.KindAuctionAwaitingPayment, fields)
	case models.StatusCancelled:
		s.notifier.Notify(ctx, a.SellerID, notify.KindAuctionCancelled, fields)
	}

	return settlement, nil
}
