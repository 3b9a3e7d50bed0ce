package repository

import (
	"time"

	"autobid/internal/models"
)

// userRecord represents a user row in the database.
type userRecord struct {
	ID            string   `gorm:"type:varchar(64);primaryKey"`
	Email         string   `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash  string   `gorm:"not null"`
	DisplayName   string   `gorm:"type:varchar(255)"`
	PhotoURL      string   `gorm:"type:text"`
	WalletBalance int64    `gorm:"not null;check:wallet_balance >= 0"`
	Favorites     []string `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (userRecord) TableName() string { return "users" }

type vehicleRecord struct {
	ID                   string `gorm:"type:varchar(64);primaryKey"`
	OwnerID              string `gorm:"type:varchar(64);index;not null"`
	OwnerName            string
	Title                string `gorm:"not null"`
	Category             string `gorm:"type:varchar(16);index"`
	Image                string `gorm:"type:text"`
	Description          string `gorm:"type:text"`
	NearestCity          string
	YearOfManufacture    string
	Mileage              string
	FuelType             string
	TransmissionType     string
	Negotiable           bool
	BasePrice            int64  `gorm:"not null"`
	SuggestedStartingBid int64  `gorm:"not null"`
	CurrentPrice         int64  `gorm:"not null"`
	BiddingType          string `gorm:"type:varchar(16);not null"`
	BiddingDuration      int
	BiddingEndTime       time.Time `gorm:"index"`
	IsActive             bool      `gorm:"index"`
	Version              int64     `gorm:"not null"`
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time
}

func (vehicleRecord) TableName() string { return "vehicles" }

type bidRecord struct {
	ID          string `gorm:"type:varchar(64);primaryKey"`
	VehicleID   string `gorm:"type:varchar(64);index:idx_bids_vehicle_user;not null"`
	UserID      string `gorm:"type:varchar(64);index:idx_bids_vehicle_user;index;not null"`
	UserName    string
	UserEmail   string
	Type        string `gorm:"type:varchar(16)"`
	BiddingType string `gorm:"type:varchar(16)"`
	Amount      int64  `gorm:"not null"`
	Timestamp   time.Time
	CreatedAt   time.Time `gorm:"index"`
}

func (bidRecord) TableName() string { return "bids" }

// walletTransactionRecord is one ledger row. Seq orders entries written within the same microsecond.
type walletTransactionRecord struct {
	ID               string `gorm:"type:varchar(64);primaryKey"`
	Seq              int64  `gorm:"autoIncrement;uniqueIndex"`
	UserID           string `gorm:"type:varchar(64);index;not null"`
	Type             string `gorm:"type:varchar(16);not null"`
	Amount           int64  `gorm:"not null"`
	BalanceBefore    int64  `gorm:"not null"`
	BalanceAfter     int64  `gorm:"not null"`
	Description      string
	RelatedVehicleID string    `gorm:"type:varchar(64)"`
	RelatedBidID     string    `gorm:"type:varchar(64)"`
	CreatedAt        time.Time `gorm:"index"`
}

func (walletTransactionRecord) TableName() string { return "wallet_transactions" }

func toUserRecord(u models.User) userRecord {
	return userRecord{
		ID:            u.ID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		WalletBalance: u.WalletBalance,
		Favorites:     u.Favorites,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (r userRecord) toModel() models.User {
	favorites := r.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return models.User{
		ID:            r.ID,
		Email:         r.Email,
		PasswordHash:  r.PasswordHash,
		DisplayName:   r.DisplayName,
		PhotoURL:      r.PhotoURL,
		WalletBalance: r.WalletBalance,
		Favorites:     favorites,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toVehicleRecord(v models.Vehicle) vehicleRecord {
	return vehicleRecord{
		ID:                   v.ID,
		OwnerID:              v.OwnerID,
		OwnerName:            v.OwnerName,
		Title:                v.Title,
		Category:             string(v.Category),
		Image:                v.Image,
		Description:          v.Description,
		NearestCity:          v.NearestCity,
		YearOfManufacture:    v.YearOfManufacture,
		Mileage:              v.Mileage,
		FuelType:             v.FuelType,
		TransmissionType:     v.TransmissionType,
		Negotiable:           v.Negotiable,
		BasePrice:            v.BasePrice,
		SuggestedStartingBid: v.SuggestedStartingBid,
		CurrentPrice:         v.CurrentPrice,
		BiddingType:          string(v.BiddingType),
		BiddingDuration:      v.BiddingDuration,
		BiddingEndTime:       v.BiddingEndTime,
		IsActive:             v.IsActive,
		Version:              v.Version,
		CreatedAt:            v.CreatedAt,
		UpdatedAt:            v.UpdatedAt,
	}
}

func (r vehicleRecord) toModel() models.Vehicle {
	return models.Vehicle{
		ID:                   r.ID,
		OwnerID:              r.OwnerID,
		OwnerName:            r.OwnerName,
		Title:                r.Title,
		Category:             models.VehicleCategory(r.Category),
		Image:                r.Image,
		Description:          r.Description,
		NearestCity:          r.NearestCity,
		YearOfManufacture:    r.YearOfManufacture,
		Mileage:              r.Mileage,
		FuelType:             r.FuelType,
		TransmissionType:     r.TransmissionType,
		Negotiable:           r.Negotiable,
		BasePrice:            r.BasePrice,
		SuggestedStartingBid: r.SuggestedStartingBid,
		CurrentPrice:         r.CurrentPrice,
		BiddingType:          models.BiddingType(r.BiddingType),
		BiddingDuration:      r.BiddingDuration,
		BiddingEndTime:       r.BiddingEndTime,
		IsActive:             r.IsActive,
		Version:              r.Version,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func toBidRecord(b models.Bid) bidRecord {
	return bidRecord{
		ID:          b.ID,
		VehicleID:   b.VehicleID,
		UserID:      b.UserID,
		UserName:    b.UserName,
		UserEmail:   b.UserEmail,
		Type:        string(b.Type),
		BiddingType: string(b.BiddingType),
		Amount:      b.Amount,
		Timestamp:   b.Timestamp,
		CreatedAt:   b.CreatedAt,
	}
}

func (r bidRecord) toModel() models.Bid {
	return models.Bid{
		ID:          r.ID,
		VehicleID:   r.VehicleID,
		UserID:      r.UserID,
		UserName:    r.UserName,
		UserEmail:   r.UserEmail,
		Type:        models.BiddingType(r.Type),
		BiddingType: models.BiddingType(r.BiddingType),
		Amount:      r.Amount,
		Timestamp:   r.Timestamp,
		CreatedAt:   r.CreatedAt,
	}
}

func toTransactionRecord(t models.WalletTransaction) walletTransactionRecord {
	return walletTransactionRecord{
		ID:               t.ID,
		UserID:           t.UserID,
		Type:             string(t.Type),
		Amount:           t.Amount,
		BalanceBefore:    t.BalanceBefore,
		BalanceAfter:     t.BalanceAfter,
		Description:      t.Description,
		RelatedVehicleID: t.RelatedVehicleID,
		RelatedBidID:     t.RelatedBidID,
		CreatedAt:        t.CreatedAt,
	}
}

func (r walletTransactionRecord) toModel() models.WalletTransaction {
	return models.WalletTransaction{
		ID:               r.ID,
		UserID:           r.UserID,
		Type:             models.TransactionType(r.Type),
		Amount:           r.Amount,
		BalanceBefore:    r.BalanceBefore,
		BalanceAfter:     r.BalanceAfter,
		Description:      r.Description,
		RelatedVehicleID: r.RelatedVehicleID,
		RelatedBidID:     r.RelatedBidID,
		CreatedAt:        r.CreatedAt,
	}
}

func mapRecords[R any, M any](records []R, conv func(R) M) []M {
	out := make([]M, 0, len(records))
	for _, r := range records {
		out = append(out, conv(r))
	}
	return out
}
