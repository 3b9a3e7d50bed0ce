package helpers

import (
	"autobid/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	BiddingType  models.BiddingType `json:"biddingType" binding:"required,oneof=upward downward"`
	CustomAmount *int64             `json:"customAmount" binding:"omitempty,gte=0"`
}

type VehiclePrice struct {
	ID           string `json:"id"`
	CurrentPrice int64  `json:"currentPrice"`
}

type WalletState struct {
	WalletBalance int64 `json:"walletBalance"`
}

type PlaceBidResponse struct {
	Bid     models.Bid   `json:"bid"`
	Vehicle VehiclePrice `json:"vehicle"`
	User    WalletState  `json:"user"`
}

type BidsResponse struct {
	Bids       []models.Bid       `json:"bids"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// PageQuery binds ?page=&limit=
type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
