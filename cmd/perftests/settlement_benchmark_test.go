package perftests

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	auction "auction-engine/internal/auctionService"
	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	participation "auction-engine/internal/participationService"
	repository "auction-engine/internal/repository"
	"auction-engine/internal/sweeper"
)

type benchFee int64

func (f benchFee) ParticipationFeeCents() int64 { return int64(f) }

// noopNotifier drops notifications so benchmarks measure settlement only
type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, userID string, kind notify.Kind, fields map[string]any) {
}

var _ notify.Notifier = noopNotifier{}

func seedExpiredBatch(repo *repository.MemoryRepo, n int, withBids bool) {
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("auction_%d", i)
		repo.AddAuction(model.Auction{
			AuctionID:  id,
			SellerID:   "seller_1",
			ProductRef: id + "-product",
			Status:     model.StatusActive,
			EndTime:    now.Add(-time.Hour),
		})
		if withBids {
			repo.AddBid(model.Bid{
				BidID:       id + "-bid",
				AuctionID:   id,
				BidderID:    fmt.Sprintf("user_%d", i),
				AmountCents: int64(1000 + i),
				PlacedAt:    now.Add(-2 * time.Hour),
			})
		}
	}
}

// Benchmark 1: Sweep - full default batch per iteration
func Benchmark_Sweep_DefaultBatch(b *testing.B) {
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		repo := repository.NewMemoryRepo()
		seedExpiredBatch(repo, sweeper.DefaultBatchSize, true)
		sweep := sweeper.NewSweeper(repo, auction.NewAuctionService(repo), noopNotifier{})
		b.StartTimer()

		report, err := sweep.Sweep(ctx, sweeper.DefaultBatchSize)
		if err != nil {
			b.Fatalf("sweep failed: %v", err)
		}
		if report.Processed != sweeper.DefaultBatchSize {
			b.Fatalf("expected %d processed, got %d", sweeper.DefaultBatchSize, report.Processed)
		}
	}
}

// Benchmark 2: Join - isolated auctions (low contention)
func Benchmark_Join_Isolated(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := participation.NewParticipationService(repo, benchFee(300))

	now := time.Now().UTC()
	for i := 0; i < b.N; i++ {
		repo.AddAuction(model.Auction{
			AuctionID: fmt.Sprintf("auction_%d", i),
			SellerID:  "seller_1",
			Status:    model.StatusActive,
			EndTime:   now.Add(time.Hour),
		})
		if _, err := repo.CreditWallet(ctx, fmt.Sprintf("user_%d", i), 1000, "seed"); err != nil {
			b.Fatalf("failed to fund wallet: %v", err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Join(ctx, fmt.Sprintf("auction_%d", i), fmt.Sprintf("user_%d", i)); err != nil {
			b.Fatalf("failed to join: %v", err)
		}
	}
}

// Benchmark 3: Join - shared auction (high contention)
func Benchmark_Join_ConcurrentSharedAuction(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := participation.NewParticipationService(repo, benchFee(300))

	repo.AddAuction(model.Auction{
		AuctionID: "shared_auction",
		SellerID:  "seller_1",
		Status:    model.StatusActive,
		EndTime:   time.Now().UTC().Add(time.Hour),
	})

	var userSeq int64
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			userID := fmt.Sprintf("user_%d", atomic.AddInt64(&userSeq, 1))
			if _, err := repo.CreditWallet(ctx, userID, 1000, "seed"); err != nil {
				b.Fatalf("failed to fund wallet: %v", err)
			}

			if _, err := svc.Join(ctx, "shared_auction", userID); err != nil {
				b.Fatalf("failed to join: %v", err)
			}
		}
	})
}
