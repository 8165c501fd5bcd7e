package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-engine/internal/auctionService"
	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	participation "auction-engine/internal/participationService"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/internal/sweeper"
	wallet "auction-engine/internal/walletService"

	"github.com/gin-gonic/gin"
)

const testFeeCents = 300

// testFee is the fee configuration used by the integration router
type testFee struct{}

func (testFee) ParticipationFeeCents() int64 { return testFeeCents }

// SetupTestRouter initializes the router with an in-memory repository for
// integration testing and returns the repo for seeding and assertions.
func SetupTestRouter() (*gin.Engine, *repository.MemoryRepo) {
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	auctionSvc := auction.NewAuctionService(repo)
	participationSvc := participation.NewParticipationService(repo, testFee{})
	sweepSvc := sweeper.NewSweeper(repo, auctionSvc, notify.NewLogNotifier())
	walletSvc := wallet.NewWalletService(repo)

	router := server.SetupRouter(participationSvc, auctionSvc, sweepSvc, walletSvc)
	return router, repo
}

// ExecuteRequest executes an HTTP request as the given identity and parses
// the JSON response envelope.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body any, userID, role string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(server.HeaderUserID, userID)
	}
	if role != "" {
		req.Header.Set(server.HeaderUserRole, role)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// seedActiveAuction adds an active auction ending in the future
func seedActiveAuction(repo *repository.MemoryRepo, auctionID, sellerID string) {
	repo.AddAuction(model.Auction{
		AuctionID:  auctionID,
		SellerID:   sellerID,
		ProductRef: auctionID + "-product",
		Status:     model.StatusActive,
		EndTime:    time.Now().UTC().Add(time.Hour),
	})
}

// seedExpiredAuction adds an active auction whose end time has passed
func seedExpiredAuction(repo *repository.MemoryRepo, auctionID, sellerID string, bids ...model.Bid) {
	repo.AddAuction(model.Auction{
		AuctionID:  auctionID,
		SellerID:   sellerID,
		ProductRef: auctionID + "-product",
		Status:     model.StatusActive,
		EndTime:    time.Now().UTC().Add(-time.Hour),
	})
	for _, b := range bids {
		repo.AddBid(b)
	}
}

// fundWallet credits a user's wallet
func fundWallet(t *testing.T, repo *repository.MemoryRepo, userID string, amountCents int64) {
	t.Helper()
	if _, err := repo.CreditWallet(context.Background(), userID, amountCents, "seed"); err != nil {
		t.Fatalf("failed to fund wallet: %v", err)
	}
}
