package server

import (
	"net/http"

	"autobid/internal/auth"
	"autobid/internal/metrics"
	"autobid/internal/notify"
	authhandler "autobid/services/auth/handler"
	biddinghandler "autobid/services/bidding/handler"
	vehiclehandler "autobid/services/vehicle/handler"
	wallethandler "autobid/services/wallet/handler"
	"autobid/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the router exposes
type Dependencies struct {
	Auth     *auth.Service
	Bidding  biddinghandler.BiddingServiceInterface
	Wallet   wallethandler.WalletServiceInterface
	Vehicles vehiclehandler.VehicleServiceInterface
	Hub      *notify.Hub
	Metrics  *metrics.Metrics
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(MetricsMiddleware(deps.Metrics))

	router.NoRoute(func(c *gin.Context) {
		utils.JSONError(c, http.StatusNotFound, "route not found")
	})

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "service is healthy")
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	if deps.Hub != nil {
		router.GET("/ws", gin.WrapF(deps.Hub.ServeWS))
	}

	requireAuth := AuthMiddleware(deps.Auth)
	optionalAuth := OptionalAuthMiddleware(deps.Auth)

	authHandler := authhandler.NewAuthHandler(deps.Auth)
	biddingHandler := biddinghandler.NewBiddingHandler(deps.Bidding)
	walletHandler := wallethandler.NewWalletHandler(deps.Wallet)
	vehicleHandler := vehiclehandler.NewVehicleHandler(deps.Vehicles)

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.SignupHandler)
		authRoutes.POST("/login", authHandler.LoginHandler)
		authRoutes.GET("/me", requireAuth, authHandler.MeHandler)
		authRoutes.PUT("/profile", requireAuth, authHandler.ProfileHandler)
		authRoutes.POST("/favorites/:vehicleId", requireAuth, authHandler.ToggleFavoriteHandler)
	}

	vehicles := api.Group("/vehicles")
	{
		vehicles.GET("", optionalAuth, vehicleHandler.ListHandler)
		vehicles.GET("/user/:userId", vehicleHandler.ByOwnerHandler)
		vehicles.GET("/:id", vehicleHandler.GetHandler)
		vehicles.GET("/:id/bids", biddingHandler.GetVehicleBidsHandler)
		vehicles.POST("", requireAuth, vehicleHandler.CreateHandler)
		vehicles.PUT("/:id", requireAuth, vehicleHandler.UpdateHandler)
		vehicles.DELETE("/:id", requireAuth, vehicleHandler.DeleteHandler)
		vehicles.POST("/:id/bid", requireAuth, biddingHandler.PlaceBidHandler)
	}

	bids := api.Group("/bids")
	{
		bids.GET("", biddingHandler.ListBidsHandler)
		bids.GET("/user/:userId", biddingHandler.GetUserBidsHandler)
	}

	walletRoutes := api.Group("/wallet", requireAuth)
	{
		walletRoutes.GET("/balance", walletHandler.BalanceHandler)
		walletRoutes.POST("/topup", walletHandler.TopUpHandler)
		walletRoutes.POST("/withdraw", walletHandler.WithdrawHandler)
		walletRoutes.GET("/transactions", walletHandler.TransactionsHandler)
		walletRoutes.GET("/summary", walletHandler.SummaryHandler)
	}

	return router
}
