package handler

import (
	"context"
	"net/http"

	"autobid/internal/auth"
	bidding "autobid/internal/biddingService"
	"autobid/internal/models"
	"autobid/services/bidding/helpers"
	"autobid/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, in bidding.PlaceBidInput) (bidding.PlaceBidResult, error)
	GetBidsForVehicle(ctx context.Context, vehicleID string) ([]models.Bid, error)
	GetBidsByUser(ctx context.Context, userID string) ([]models.Bid, error)
	ListBids(ctx context.Context, page, limit int) (bidding.BidPage, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /api/vehicles/:id/bid
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	vehicleID := c.Param("id")
	result, err := h.service.PlaceBid(c.Request.Context(), bidding.PlaceBidInput{
		VehicleID:    vehicleID,
		UserID:       principal.UserID,
		BiddingType:  req.BiddingType,
		CustomAmount: req.CustomAmount,
	})
	if err != nil {
		utils.HandleServiceError(c, "PlaceBidHandler", err, map[string]any{
			"vehicle_id": vehicleID,
			"user_id":    principal.UserID,
		})
		return
	}

	resp := helpers.PlaceBidResponse{
		Bid:     result.Bid,
		Vehicle: helpers.VehiclePrice{ID: result.VehicleID, CurrentPrice: result.CurrentPrice},
		User:    helpers.WalletState{WalletBalance: result.WalletBalance},
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "Bid placed successfully")
	utils.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     result.Bid.ID,
		"vehicle_id": vehicleID,
		"user_id":    principal.UserID,
		"amount":     result.Bid.Amount,
	})
}

// GetVehicleBidsHandler handles GET /api/vehicles/:id/bids
func (h *BiddingHandler) GetVehicleBidsHandler(c *gin.Context) {
	vehicleID := c.Param("id")
	bids, err := h.service.GetBidsForVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		utils.HandleServiceError(c, "GetVehicleBidsHandler", err, map[string]any{"vehicle_id": vehicleID})
		return
	}

	if bids == nil {
		bids = []models.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, helpers.BidsResponse{Bids: bids}, "bids retrieved successfully")
	utils.LogSuccess("GetVehicleBidsHandler", "bids retrieved successfully", map[string]any{
		"vehicle_id": vehicleID,
		"count":      len(bids),
	})
}

// GetUserBidsHandler handles GET /api/bids/user/:userId
func (h *BiddingHandler) GetUserBidsHandler(c *gin.Context) {
	userID := c.Param("userId")
	bids, err := h.service.GetBidsByUser(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, "GetUserBidsHandler", err, map[string]any{"user_id": userID})
		return
	}

	if bids == nil {
		bids = []models.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, helpers.BidsResponse{Bids: bids}, "bids retrieved successfully")
	utils.LogSuccess("GetUserBidsHandler", "bids retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(bids),
	})
}

// ListBidsHandler handles GET /api/bids
func (h *BiddingHandler) ListBidsHandler(c *gin.Context) {
	var q helpers.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleBindError(c, "ListBidsHandler", err)
		return
	}

	page, err := h.service.ListBids(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		utils.HandleServiceError(c, "ListBidsHandler", err, nil)
		return
	}

	if page.Bids == nil {
		page.Bids = []models.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, helpers.BidsResponse{Bids: page.Bids, Pagination: &page.Pagination}, "bids retrieved successfully")
	utils.LogSuccess("ListBidsHandler", "bids retrieved successfully", map[string]any{
		"page":  page.Pagination.Page,
		"count": len(page.Bids),
	})
}
