package server

import (
	auction "auction-engine/internal/auctionService"
	participation "auction-engine/internal/participationService"
	"auction-engine/internal/sweeper"
	wallet "auction-engine/internal/walletService"
	handler "auction-engine/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(participationSvc *participation.ParticipationService, auctionSvc *auction.AuctionService, sweepSvc *sweeper.Sweeper, walletSvc *wallet.WalletService) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(participationSvc, auctionSvc, sweepSvc, walletSvc)

	auctions := router.Group("/auctions", AuthRequired)
	{
		auctions.POST("/:auction_id/join", auctionHandler.JoinAuctionHandler)
	}

	admin := router.Group("/admin", AuthRequired, AdminRequired)
	{
		admin.POST("/auctions/scan-expired", auctionHandler.ScanExpiredHandler)
		admin.PATCH("/auctions/:auction_id", auctionHandler.AdminSetStatusHandler)
	}

	users := router.Group("/users", AuthRequired)
	{
		users.GET("/:user_id/wallet", auctionHandler.GetWalletHandler)
	}

	return router
}
