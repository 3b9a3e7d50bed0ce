package models

import "time"

// BiddingType is the direction of an auction or of a single bid
type BiddingType string

const (
	BiddingUpward   BiddingType = "upward"
	BiddingDownward BiddingType = "downward"
)

// Valid reports whether t is a known bidding direction
func (t BiddingType) Valid() bool {
	return t == BiddingUpward || t == BiddingDownward
}

// VehicleCategory classifies a listed vehicle
type VehicleCategory string

const (
	CategoryCar   VehicleCategory = "car"
	CategoryBike  VehicleCategory = "bike"
	CategoryTruck VehicleCategory = "truck"
	CategorySUV   VehicleCategory = "suv"
	CategoryVan   VehicleCategory = "van"
	CategoryOther VehicleCategory = "other"
)

// TransactionType is the kind of a wallet ledger entry
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionBid        TransactionType = "bid"
	TransactionRefund     TransactionType = "refund"
)

// Valid reports whether t is a known ledger entry type
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionBid, TransactionRefund:
		return true
	}
	return false
}

// User represents a marketplace participant and wallet owner.
// WalletBalance is a cache of the user's ledger and is only written by the wallet ledger.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	DisplayName   string    `json:"displayName"`
	PhotoURL      string    `json:"photoURL,omitempty"`
	WalletBalance int64     `json:"walletBalance"`
	Favorites     []string  `json:"favorites"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Vehicle represents an auctionable listing.
// SuggestedStartingBid and BiddingEndTime are fixed at creation; CurrentPrice only moves
// through an accepted bid.
type Vehicle struct {
	ID                   string          `json:"id"`
	OwnerID              string          `json:"userId"`
	OwnerName            string          `json:"userName"`
	Title                string          `json:"title"`
	Category             VehicleCategory `json:"category"`
	Image                string          `json:"image"`
	Description          string          `json:"description"`
	NearestCity          string          `json:"nearestCity"`
	YearOfManufacture    string          `json:"yearOfManufacture,omitempty"`
	Mileage              string          `json:"mileage,omitempty"`
	FuelType             string          `json:"fuelType,omitempty"`
	TransmissionType     string          `json:"transmissionType,omitempty"`
	Negotiable           bool            `json:"negotiable"`
	BasePrice            int64           `json:"basePrice"`
	SuggestedStartingBid int64           `json:"suggestedStartingBid"`
	CurrentPrice         int64           `json:"currentPrice"`
	BiddingType          BiddingType     `json:"biddingType"`
	BiddingDuration      int             `json:"biddingDuration"`
	BiddingEndTime       time.Time       `json:"biddingEndTime"`
	IsActive             bool            `json:"isActive"`
	Version              int64           `json:"-"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Bid represents a user's bid on a vehicle. Amount is the proposed new price, not a delta.
type Bid struct {
	ID          string      `json:"id"`
	VehicleID   string      `json:"vehicleId"`
	UserID      string      `json:"userId"`
	UserName    string      `json:"userName"`
	UserEmail   string      `json:"userEmail"`
	Type        BiddingType `json:"type"`
	BiddingType BiddingType `json:"biddingType"`
	Amount      int64       `json:"amount"`
	Timestamp   time.Time   `json:"timestamp"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// WalletTransaction is an immutable ledger entry.
// BalanceAfter always equals BalanceBefore + Amount.
type WalletTransaction struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	Type             TransactionType `json:"type"`
	Amount           int64           `json:"amount"`
	BalanceBefore    int64           `json:"balanceBefore"`
	BalanceAfter     int64           `json:"balanceAfter"`
	Description      string          `json:"description"`
	RelatedVehicleID string          `json:"relatedVehicleId,omitempty"`
	RelatedBidID     string          `json:"relatedBidId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePage clamps page and limit to usable values
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// NewPagination builds the page description for total items
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Offset returns the number of items before page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
