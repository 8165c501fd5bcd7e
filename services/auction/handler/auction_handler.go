package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	model "auction-engine/internal/models"
	participation "auction-engine/internal/participationService"
	"auction-engine/services/auction/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// Identity context keys installed by the server middleware.
const (
	CtxUserID   = "user_id"
	CtxUserRole = "user_role"
	RoleAdmin   = "admin"
)

type ParticipationServiceInterface interface {
	Join(ctx context.Context, auctionID, userID string) (participation.JoinOutcome, error)
}

type AuctionServiceInterface interface {
	AdminSetStatus(ctx context.Context, auctionID string, next model.AuctionStatus) (model.Auction, error)
}

type SweeperInterface interface {
	Sweep(ctx context.Context, maxBatchSize int) (model.SweepReport, error)
}

type WalletServiceInterface interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	ListEntries(ctx context.Context, userID string) ([]model.LedgerEntry, error)
}

type AuctionHandler struct {
	participation ParticipationServiceInterface
	auctions      AuctionServiceInterface
	sweeper       SweeperInterface
	wallets       WalletServiceInterface
}

func NewAuctionHandler(participationSvc ParticipationServiceInterface, auctionSvc AuctionServiceInterface, sweepSvc SweeperInterface, walletSvc WalletServiceInterface) *AuctionHandler {
	return &AuctionHandler{
		participation: participationSvc,
		auctions:      auctionSvc,
		sweeper:       sweepSvc,
		wallets:       walletSvc,
	}
}

// JoinAuctionHandler handles POST /auctions/:auction_id/join
func (h *AuctionHandler) JoinAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	userID := c.GetString(CtxUserID)

	outcome, err := h.participation.Join(c.Request.Context(), auctionID, userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("JoinAuctionHandler: failed to join auction", map[string]any{
			"handler":    "JoinAuctionHandler",
			"auction_id": auctionID,
			"user_id":    userID,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.JoinAuctionResponse{
		AuctionID:       outcome.AuctionID,
		UserID:          outcome.UserID,
		AlreadyJoined:   outcome.AlreadyJoined,
		FeeChargedCents: outcome.FeeChargedCents,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "joined auction successfully")
	helpers.LogSuccess("JoinAuctionHandler", "joined auction successfully", map[string]any{
		"auction_id":     outcome.AuctionID,
		"user_id":        outcome.UserID,
		"already_joined": outcome.AlreadyJoined,
	})
}

// ScanExpiredHandler handles POST /admin/auctions/scan-expired
func (h *AuctionHandler) ScanExpiredHandler(c *gin.Context) {
	var req helpers.ScanExpiredRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.HandleBindError(c, "ScanExpiredHandler", err)
			return
		}
	}

	report, err := h.sweeper.Sweep(c.Request.Context(), req.MaxBatchSize)
	if err != nil {
		// only batch selection itself can fail; per-auction failures are in the report
		utils.JSONError(c, http.StatusInternalServerError, err, "sweep failed")
		utils.Error("ScanExpiredHandler: sweep failed", map[string]any{"error": err.Error()})
		return
	}

	resp := helpers.ScanExpiredResponse{
		Processed: report.Processed,
		Failures:  report.Failures,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "sweep completed")
	helpers.LogSuccess("ScanExpiredHandler", "sweep completed", map[string]any{
		"processed": report.Processed,
		"failures":  len(report.Failures),
	})
}

// AdminSetStatusHandler handles PATCH /admin/auctions/:auction_id
func (h *AuctionHandler) AdminSetStatusHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.AdminSetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AdminSetStatusHandler", err)
		return
	}

	auction, err := h.auctions.AdminSetStatus(c.Request.Context(), auctionID, model.AuctionStatus(req.Status))
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("AdminSetStatusHandler: status change rejected", map[string]any{
			"auction_id": auctionID,
			"status":     req.Status,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.AuctionResponse{
		AuctionID:       auction.AuctionID,
		SellerID:        auction.SellerID,
		ProductRef:      auction.ProductRef,
		Status:          string(auction.Status),
		EndTime:         auction.EndTime.UTC().Format(time.RFC3339),
		WinningBidderID: auction.WinningBidderID,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auction status updated")
	helpers.LogSuccess("AdminSetStatusHandler", "auction status updated", map[string]any{
		"auction_id": auction.AuctionID,
		"status":     auction.Status,
		"actor":      c.GetString(CtxUserID),
	})
}

// GetWalletHandler handles GET /users/:user_id/wallet
func (h *AuctionHandler) GetWalletHandler(c *gin.Context) {
	userID := c.Param("user_id")

	// users may only read their own wallet; admins may read any
	if c.GetString(CtxUserID) != userID && c.GetString(CtxUserRole) != RoleAdmin {
		utils.JSONError(c, http.StatusForbidden, errors.New("cannot read another user's wallet"), "forbidden")
		return
	}

	balance, err := h.wallets.GetBalance(c.Request.Context(), userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetWalletHandler: error retrieving balance", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	entries, err := h.wallets.ListEntries(c.Request.Context(), userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetWalletHandler: error retrieving ledger entries", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	if entries == nil {
		entries = []model.LedgerEntry{}
	}

	resp := helpers.WalletResponse{
		UserID:       userID,
		BalanceCents: balance,
		Entries:      entries,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "wallet retrieved successfully")
	helpers.LogSuccess("GetWalletHandler", "wallet retrieved successfully", map[string]any{
		"user_id":       userID,
		"entries_count": len(entries),
	})
}
