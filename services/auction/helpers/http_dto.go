package helpers

import model "auction-engine/internal/models"

// Request/Response DTOs
type JoinAuctionResponse struct {
	AuctionID       string `json:"auction_id"`
	UserID          string `json:"user_id"`
	AlreadyJoined   bool   `json:"already_joined"`
	FeeChargedCents int64  `json:"fee_charged_cents"`
}

type ScanExpiredRequest struct {
	MaxBatchSize int `json:"max_batch_size"`
}

type ScanExpiredResponse struct {
	Processed int                  `json:"processed"`
	Failures  []model.SweepFailure `json:"failures"`
}

type AdminSetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AuctionResponse struct {
	AuctionID       string `json:"auction_id"`
	SellerID        string `json:"seller_id"`
	ProductRef      string `json:"product_ref"`
	Status          string `json:"status"`
	EndTime         string `json:"end_time"`
	WinningBidderID string `json:"winning_bidder_id,omitempty"`
}

type WalletResponse struct {
	UserID       string              `json:"user_id"`
	BalanceCents int64               `json:"balance_cents"`
	Entries      []model.LedgerEntry `json:"entries"`
}
