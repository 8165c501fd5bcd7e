package main

import (
	"context"
	"fmt"
	"os"
	"time"

	auction "auction-engine/internal/auctionService"
	"auction-engine/internal/config"
	"auction-engine/internal/metrics"
	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	participation "auction-engine/internal/participationService"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/internal/sweeper"
	wallet "auction-engine/internal/walletService"
	"auction-engine/utils"
)

func main() {
	cfg := config.Load()

	repo, err := setupRepository(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up storage: %v\n", err)
		os.Exit(1)
	}

	notifier := setupNotifier(cfg)

	auctionSvc := auction.NewAuctionService(repo)
	participationSvc := participation.NewParticipationService(repo, cfg)
	sweepSvc := sweeper.NewSweeper(repo, auctionSvc, notifier)
	walletSvc := wallet.NewWalletService(repo)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		_, err := repo.ListExpiredActive(ctx, time.Now().UTC(), 1)
		return err
	})

	router := server.SetupRouter(participationSvc, auctionSvc, sweepSvc, walletSvc)

	fmt.Printf("Starting auction settlement server on :%s...\n", cfg.HTTPPort)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// setupRepository selects Postgres when a DSN is configured, otherwise a
// seeded in-memory store for local runs.
func setupRepository(cfg config.Config) (repository.AuctionDB, error) {
	if cfg.PostgresDSN != "" {
		return repository.Open(cfg.PostgresDSN)
	}

	utils.Warn("POSTGRES_DSN not set, using in-memory storage with seed data", nil)
	repo := repository.NewMemoryRepo()
	seedDemoData(repo)
	return repo, nil
}

// setupNotifier selects Kafka when brokers are configured, otherwise the
// log dispatcher.
func setupNotifier(cfg config.Config) notify.Notifier {
	if cfg.KafkaBrokers != "" {
		return notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotificationsTopic)
	}
	return notify.NewLogNotifier()
}

// seedDemoData adds sample auctions, bids and wallets to the in-memory repo
func seedDemoData(repo *repository.MemoryRepo) {
	now := time.Now().UTC()

	auctions := []model.Auction{
		{AuctionID: "auction1", SellerID: "seller1", ProductRef: "product1", Status: model.StatusActive, EndTime: now.Add(24 * time.Hour)},
		{AuctionID: "auction2", SellerID: "seller1", ProductRef: "product2", Status: model.StatusActive, EndTime: now.Add(-time.Hour)},
		{AuctionID: "auction3", SellerID: "seller2", ProductRef: "product3", Status: model.StatusActive, EndTime: now.Add(-2 * time.Hour)},
	}
	for _, a := range auctions {
		repo.AddAuction(a)
	}

	bids := []model.Bid{
		{BidID: "bid1", AuctionID: "auction2", BidderID: "user1", AmountCents: 10000, PlacedAt: now.Add(-3 * time.Hour)},
		{BidID: "bid2", AuctionID: "auction2", BidderID: "user2", AmountCents: 15000, PlacedAt: now.Add(-2 * time.Hour)},
	}
	for _, b := range bids {
		repo.AddBid(b)
	}

	for _, userID := range []string{"user1", "user2", "user3"} {
		if _, err := repo.CreditWallet(context.Background(), userID, 5000, "seed"); err != nil {
			utils.Warn("failed to seed wallet", map[string]any{"user_id": userID, "error": err.Error()})
		}
	}
}
