package repository

import (
	"context"

	"autobid/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB defines the storage interface for vehicles, bids, users and the wallet ledger
type AuctionDB interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUserProfile(ctx context.Context, user models.User) error
	UpdateWalletBalance(ctx context.Context, userID string, balance int64) error

	CreateVehicle(ctx context.Context, vehicle models.Vehicle) error
	GetVehicle(ctx context.Context, vehicleID string) (models.Vehicle, error)
	ListVehicles(ctx context.Context, query VehicleQuery) ([]models.Vehicle, int64, error)
	UpdateVehicleDetails(ctx context.Context, vehicle models.Vehicle) error
	UpdateVehiclePrice(ctx context.Context, vehicleID string, expectedVersion, price int64) error

	CreateBid(ctx context.Context, bid models.Bid) error
	GetBidsByVehicle(ctx context.Context, vehicleID string) ([]models.Bid, error)
	GetBidsByUser(ctx context.Context, userID string) ([]models.Bid, error)
	GetUserBidsOnVehicle(ctx context.Context, vehicleID, userID string) ([]models.Bid, error)
	ListBids(ctx context.Context, offset, limit int) ([]models.Bid, int64, error)

	CreateTransaction(ctx context.Context, txn models.WalletTransaction) error
	ListTransactions(ctx context.Context, query TransactionQuery) ([]models.WalletTransaction, int64, error)
	LedgerFor(ctx context.Context, userID string) ([]models.WalletTransaction, error)
}

// Store is an AuctionDB that can run a group of writes atomically.
// Writes made through the AuctionDB passed to fn are committed only when fn returns nil.
type Store interface {
	AuctionDB
	WithinTx(ctx context.Context, fn func(db AuctionDB) error) error
}

// Vehicle list orderings
const (
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortEndingSoon = "ending_soon"
)

// VehicleQuery filters and pages ListVehicles. A zero Limit returns every match.
type VehicleQuery struct {
	Category models.VehicleCategory
	IsActive *bool
	OwnerID  string
	Search   string
	Sort     string
	Offset   int
	Limit    int
}

// TransactionQuery filters and pages ListTransactions, newest first
type TransactionQuery struct {
	UserID string
	Type   models.TransactionType
	Offset int
	Limit  int
}
