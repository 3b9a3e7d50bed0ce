package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autobid/internal/biddingerrors"
	"autobid/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore is a Postgres-backed Store built on GORM
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

// OpenPostgres connects to databaseURL. SQL statements are logged only in development.
func OpenPostgres(databaseURL, appEnv string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// NewGormStore wraps an open GORM connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the tables used by the store
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&userRecord{}, &vehicleRecord{}, &bidRecord{}, &walletTransactionRecord{})
}

// WithinTx runs fn inside a database transaction. Vehicle and user reads made through the
// transaction handle lock their rows until commit.
func (s *GormStore) WithinTx(ctx context.Context, fn func(db AuctionDB) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (s *GormStore) session(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// forUpdate adds SELECT ... FOR UPDATE when running inside a transaction
func (s *GormStore) forUpdate(ctx context.Context) *gorm.DB {
	db := s.session(ctx)
	if s.inTx {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// mapGormError converts GORM errors to the package's sentinel errors
func mapGormError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return biddingerrors.ErrInvalidInput
	}
	return err
}

func (s *GormStore) CreateUser(ctx context.Context, user models.User) error {
	user.Email = strings.ToLower(user.Email)
	err := s.session(ctx).Create(ptr(toUserRecord(user))).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("create user %s: %w", user.Email, biddingerrors.ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, userID string) (models.User, error) {
	var rec userRecord
	if err := s.forUpdate(ctx).Where("id = ?", userID).First(&rec).Error; err != nil {
		return models.User{}, fmt.Errorf("get user %s: %w", userID, mapGormError(err, biddingerrors.ErrUserNotFound))
	}
	return rec.toModel(), nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var rec userRecord
	if err := s.session(ctx).Where("email = ?", strings.ToLower(email)).First(&rec).Error; err != nil {
		return models.User{}, fmt.Errorf("get user by email: %w", mapGormError(err, biddingerrors.ErrUserNotFound))
	}
	return rec.toModel(), nil
}

func (s *GormStore) UpdateUserProfile(ctx context.Context, user models.User) error {
	rec := toUserRecord(user)
	res := s.session(ctx).Model(&userRecord{}).Where("id = ?", user.ID).
		Select("display_name", "photo_url", "favorites", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return fmt.Errorf("update user %s: %w", user.ID, mapGormError(res.Error, biddingerrors.ErrUserNotFound))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user %s: %w", user.ID, biddingerrors.ErrUserNotFound)
	}
	return nil
}

func (s *GormStore) UpdateWalletBalance(ctx context.Context, userID string, balance int64) error {
	res := s.session(ctx).Model(&userRecord{}).Where("id = ?", userID).Update("wallet_balance", balance)
	if res.Error != nil {
		return fmt.Errorf("update balance for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update balance for user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return nil
}

func (s *GormStore) CreateVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if err := s.session(ctx).Create(ptr(toVehicleRecord(vehicle))).Error; err != nil {
		return fmt.Errorf("create vehicle %s: %w", vehicle.ID, mapGormError(err, biddingerrors.ErrVehicleNotFound))
	}
	return nil
}

func (s *GormStore) GetVehicle(ctx context.Context, vehicleID string) (models.Vehicle, error) {
	var rec vehicleRecord
	if err := s.forUpdate(ctx).Where("id = ?", vehicleID).First(&rec).Error; err != nil {
		return models.Vehicle{}, fmt.Errorf("get vehicle %s: %w", vehicleID, mapGormError(err, biddingerrors.ErrVehicleNotFound))
	}
	return rec.toModel(), nil
}

var vehicleOrder = map[string]string{
	SortNewest:     "created_at DESC",
	SortOldest:     "created_at ASC",
	SortPriceAsc:   "current_price ASC",
	SortPriceDesc:  "current_price DESC",
	SortEndingSoon: "bidding_end_time ASC",
}

func (s *GormStore) ListVehicles(ctx context.Context, query VehicleQuery) ([]models.Vehicle, int64, error) {
	db := s.session(ctx).Model(&vehicleRecord{})
	if query.Category != "" {
		db = db.Where("category = ?", string(query.Category))
	}
	if query.IsActive != nil {
		db = db.Where("is_active = ?", *query.IsActive)
	}
	if query.OwnerID != "" {
		db = db.Where("owner_id = ?", query.OwnerID)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		like := "%" + search + "%"
		db = db.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	order, ok := vehicleOrder[query.Sort]
	if !ok {
		order = vehicleOrder[SortNewest]
	}
	db = db.Order(order).Offset(query.Offset)
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var recs []vehicleRecord
	if err := db.Find(&recs).Error; err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	return mapRecords(recs, vehicleRecord.toModel), total, nil
}

func (s *GormStore) UpdateVehicleDetails(ctx context.Context, vehicle models.Vehicle) error {
	rec := toVehicleRecord(vehicle)
	res := s.session(ctx).Model(&vehicleRecord{}).Where("id = ?", vehicle.ID).
		Select("title", "category", "image", "description", "nearest_city", "year_of_manufacture",
			"mileage", "fuel_type", "transmission_type", "negotiable", "is_active", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return fmt.Errorf("update vehicle %s: %w", vehicle.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update vehicle %s: %w", vehicle.ID, biddingerrors.ErrVehicleNotFound)
	}
	return nil
}

// UpdateVehiclePrice sets the current price only if the row still carries expectedVersion
func (s *GormStore) UpdateVehiclePrice(ctx context.Context, vehicleID string, expectedVersion, price int64) error {
	res := s.session(ctx).Model(&vehicleRecord{}).
		Where("id = ? AND version = ?", vehicleID, expectedVersion).
		Updates(map[string]any{
			"current_price": price,
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("update price for vehicle %s: %w", vehicleID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.session(ctx).Model(&vehicleRecord{}).Where("id = ?", vehicleID).Count(&count).Error; err != nil {
			return fmt.Errorf("update price for vehicle %s: %w", vehicleID, err)
		}
		if count == 0 {
			return fmt.Errorf("update price for vehicle %s: %w", vehicleID, biddingerrors.ErrVehicleNotFound)
		}
		return fmt.Errorf("update price for vehicle %s: %w", vehicleID, biddingerrors.ErrStalePrice)
	}
	return nil
}

func (s *GormStore) CreateBid(ctx context.Context, bid models.Bid) error {
	if err := s.session(ctx).Create(ptr(toBidRecord(bid))).Error; err != nil {
		return fmt.Errorf("record bid for vehicle %s: %w", bid.VehicleID, err)
	}
	return nil
}

func (s *GormStore) findBids(ctx context.Context, where string, args ...any) ([]models.Bid, error) {
	var recs []bidRecord
	if err := s.session(ctx).Where(where, args...).Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return mapRecords(recs, bidRecord.toModel), nil
}

func (s *GormStore) GetBidsByVehicle(ctx context.Context, vehicleID string) ([]models.Bid, error) {
	bids, err := s.findBids(ctx, "vehicle_id = ?", vehicleID)
	if err != nil {
		return nil, fmt.Errorf("get bids for vehicle %s: %w", vehicleID, err)
	}
	return bids, nil
}

func (s *GormStore) GetBidsByUser(ctx context.Context, userID string) ([]models.Bid, error) {
	bids, err := s.findBids(ctx, "user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("get bids for user %s: %w", userID, err)
	}
	return bids, nil
}

func (s *GormStore) GetUserBidsOnVehicle(ctx context.Context, vehicleID, userID string) ([]models.Bid, error) {
	bids, err := s.findBids(ctx, "vehicle_id = ? AND user_id = ?", vehicleID, userID)
	if err != nil {
		return nil, fmt.Errorf("get bids of user %s on vehicle %s: %w", userID, vehicleID, err)
	}
	return bids, nil
}

func (s *GormStore) ListBids(ctx context.Context, offset, limit int) ([]models.Bid, int64, error) {
	var total int64
	if err := s.session(ctx).Model(&bidRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bids: %w", err)
	}

	db := s.session(ctx).Order("created_at DESC, id DESC").Offset(offset)
	if limit > 0 {
		db = db.Limit(limit)
	}
	var recs []bidRecord
	if err := db.Find(&recs).Error; err != nil {
		return nil, 0, fmt.Errorf("list bids: %w", err)
	}
	return mapRecords(recs, bidRecord.toModel), total, nil
}

func (s *GormStore) CreateTransaction(ctx context.Context, txn models.WalletTransaction) error {
	if err := s.session(ctx).Create(ptr(toTransactionRecord(txn))).Error; err != nil {
		return fmt.Errorf("record transaction for user %s: %w", txn.UserID, err)
	}
	return nil
}

func (s *GormStore) ListTransactions(ctx context.Context, query TransactionQuery) ([]models.WalletTransaction, int64, error) {
	db := s.session(ctx).Model(&walletTransactionRecord{}).Where("user_id = ?", query.UserID)
	if query.Type != "" {
		db = db.Where("type = ?", string(query.Type))
	}

	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	db = db.Order("created_at DESC, seq DESC").Offset(query.Offset)
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}
	var recs []walletTransactionRecord
	if err := db.Find(&recs).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return mapRecords(recs, walletTransactionRecord.toModel), total, nil
}

func (s *GormStore) LedgerFor(ctx context.Context, userID string) ([]models.WalletTransaction, error) {
	var recs []walletTransactionRecord
	if err := s.session(ctx).Where("user_id = ?", userID).Order("created_at ASC, seq ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load ledger for user %s: %w", userID, err)
	}
	return mapRecords(recs, walletTransactionRecord.toModel), nil
}

func ptr[T any](v T) *T { return &v }
