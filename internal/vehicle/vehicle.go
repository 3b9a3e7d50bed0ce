package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autobid/internal/biddingerrors"
	"autobid/internal/models"
	"autobid/internal/pricing"
	"autobid/internal/repository"
	"autobid/utils"

	"github.com/go-playground/validator/v10"
)

// Service manages vehicle listings. Prices only move through accepted bids.
type Service struct {
	store    repository.Store
	validate *validator.Validate
	now      func() time.Time
}

func NewService(store repository.Store) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	Title             string                 `validate:"required,min=5,max=200"`
	Category          models.VehicleCategory `validate:"required,oneof=car bike truck suv van other"`
	Image             string                 `validate:"omitempty,max=2048"`
	Description       string                 `validate:"required,min=20"`
	NearestCity       string                 `validate:"required"`
	YearOfManufacture string
	Mileage           string
	FuelType          string
	TransmissionType  string
	Negotiable        bool
	BasePrice         int64              `validate:"gte=0,lte=1000000000000"`
	BiddingType       models.BiddingType `validate:"omitempty,oneof=upward downward"`
	BiddingDuration   int                `validate:"min=1,max=30"`
}

// UpdateInput changes descriptive fields only; nil fields are left as they are
type UpdateInput struct {
	Title             *string                 `validate:"omitempty,min=5,max=200"`
	Category          *models.VehicleCategory `validate:"omitempty,oneof=car bike truck suv van other"`
	Image             *string                 `validate:"omitempty,max=2048"`
	Description       *string                 `validate:"omitempty,min=20"`
	NearestCity       *string
	YearOfManufacture *string
	Mileage           *string
	FuelType          *string
	TransmissionType  *string
	Negotiable        *bool
}

// Filter selects a page of listings
type Filter struct {
	Category models.VehicleCategory
	IsActive *bool
	OwnerID  string
	Search   string
	Sort     string
	Page     int
	Limit    int
}

// View is a vehicle together with its bids, newest first
type View struct {
	models.Vehicle
	Bids          []models.Bid `json:"bids"`
	TimeRemaining string       `json:"timeRemaining"`
}

type Page struct {
	Vehicles   []View            `json:"vehicles"`
	Pagination models.Pagination `json:"pagination"`
}

// Create lists a new vehicle for ownerID. The opening price is floor(basePrice * 0.85).
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (View, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return View{}, invalidInput(err)
	}
	if in.BiddingType == "" {
		in.BiddingType = models.BiddingUpward
	}

	owner, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		return View{}, fmt.Errorf("vehicle: failed to load owner %s: %w", ownerID, err)
	}

	now := s.now()
	starting := pricing.SuggestedStartingBid(in.BasePrice)
	v := models.Vehicle{
		ID:                   utils.GenerateID(),
		OwnerID:              owner.ID,
		OwnerName:            owner.DisplayName,
		Title:                in.Title,
		Category:             in.Category,
		Image:                in.Image,
		Description:          in.Description,
		NearestCity:          in.NearestCity,
		YearOfManufacture:    in.YearOfManufacture,
		Mileage:              in.Mileage,
		FuelType:             in.FuelType,
		TransmissionType:     in.TransmissionType,
		Negotiable:           in.Negotiable,
		BasePrice:            in.BasePrice,
		SuggestedStartingBid: starting,
		CurrentPrice:         starting,
		BiddingType:          in.BiddingType,
		BiddingDuration:      in.BiddingDuration,
		BiddingEndTime:       pricing.BiddingEndTime(now, in.BiddingDuration),
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.CreateVehicle(ctx, v); err != nil {
		return View{}, fmt.Errorf("vehicle: failed to create vehicle: %w", err)
	}

	utils.Info("vehicle listed", map[string]any{
		"vehicle_id":    v.ID,
		"owner_id":      v.OwnerID,
		"base_price":    v.BasePrice,
		"current_price": v.CurrentPrice,
		"ends_at":       v.BiddingEndTime,
	})
	return View{Vehicle: v, Bids: []models.Bid{}, TimeRemaining: pricing.TimeRemaining(v.BiddingEndTime, now)}, nil
}

// Get returns the vehicle with its bids
func (s *Service) Get(ctx context.Context, vehicleID string) (View, error) {
	if vehicleID == "" {
		return View{}, fmt.Errorf("vehicle: %w - empty vehicle ID", biddingerrors.ErrInvalidInput)
	}
	v, err := s.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		return View{}, fmt.Errorf("vehicle: failed to get vehicle %s: %w", vehicleID, err)
	}
	return s.view(ctx, v)
}

// List returns a filtered page of vehicles, newest first unless Sort says otherwise
func (s *Service) List(ctx context.Context, f Filter) (Page, error) {
	switch f.Sort {
	case "", repository.SortNewest, repository.SortOldest, repository.SortPriceAsc, repository.SortPriceDesc, repository.SortEndingSoon:
	default:
		return Page{}, biddingerrors.WithReason(biddingerrors.ErrInvalidInput, "unknown sort %q", f.Sort)
	}

	page, limit := models.NormalizePage(f.Page, f.Limit)
	p := models.NewPagination(page, limit, 0)

	vehicles, total, err := s.store.ListVehicles(ctx, repository.VehicleQuery{
		Category: f.Category,
		IsActive: f.IsActive,
		OwnerID:  f.OwnerID,
		Search:   f.Search,
		Sort:     f.Sort,
		Offset:   p.Offset(),
		Limit:    limit,
	})
	if err != nil {
		return Page{}, fmt.Errorf("vehicle: failed to list vehicles: %w", err)
	}

	views, err := s.views(ctx, vehicles)
	if err != nil {
		return Page{}, err
	}
	return Page{Vehicles: views, Pagination: models.NewPagination(page, limit, total)}, nil
}

// ByOwner returns every listing of ownerID, newest first
func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]View, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("vehicle: %w - empty owner ID", biddingerrors.ErrInvalidInput)
	}
	vehicles, _, err := s.store.ListVehicles(ctx, repository.VehicleQuery{OwnerID: ownerID, Sort: repository.SortNewest})
	if err != nil {
		return nil, fmt.Errorf("vehicle: failed to list vehicles of %s: %w", ownerID, err)
	}
	return s.views(ctx, vehicles)
}

// Update changes descriptive fields of a listing owned by actorID
func (s *Service) Update(ctx context.Context, actorID, vehicleID string, in UpdateInput) (View, error) {
	if err := s.validate.Struct(in); err != nil {
		return View{}, invalidInput(err)
	}

	var updated models.Vehicle
	err := s.store.WithinTx(ctx, func(db repository.AuctionDB) error {
		v, err := s.owned(ctx, db, actorID, vehicleID, "update")
		if err != nil {
			return err
		}
		apply(&v, in)
		v.UpdatedAt = s.now()
		updated = v
		return db.UpdateVehicleDetails(ctx, v)
	})
	if err != nil {
		return View{}, fmt.Errorf("vehicle: failed to update vehicle %s: %w", vehicleID, err)
	}
	return s.view(ctx, updated)
}

// Delete deactivates a listing owned by actorID. Bids and ledger entries are kept.
func (s *Service) Delete(ctx context.Context, actorID, vehicleID string) error {
	err := s.store.WithinTx(ctx, func(db repository.AuctionDB) error {
		v, err := s.owned(ctx, db, actorID, vehicleID, "delete")
		if err != nil {
			return err
		}
		v.IsActive = false
		v.UpdatedAt = s.now()
		return db.UpdateVehicleDetails(ctx, v)
	})
	if err != nil {
		return fmt.Errorf("vehicle: failed to delete vehicle %s: %w", vehicleID, err)
	}
	utils.Info("vehicle deactivated", map[string]any{"vehicle_id": vehicleID, "owner_id": actorID})
	return nil
}

func (s *Service) owned(ctx context.Context, db repository.AuctionDB, actorID, vehicleID, action string) (models.Vehicle, error) {
	v, err := db.GetVehicle(ctx, vehicleID)
	if err != nil {
		return models.Vehicle{}, err
	}
	if v.OwnerID != actorID {
		return models.Vehicle{}, biddingerrors.WithReason(biddingerrors.ErrForbidden, "not authorized to %s this vehicle", action)
	}
	return v, nil
}

func apply(v *models.Vehicle, in UpdateInput) {
	if in.Title != nil {
		v.Title = strings.TrimSpace(*in.Title)
	}
	if in.Category != nil {
		v.Category = *in.Category
	}
	if in.Image != nil {
		v.Image = *in.Image
	}
	if in.Description != nil {
		v.Description = strings.TrimSpace(*in.Description)
	}
	if in.NearestCity != nil {
		v.NearestCity = *in.NearestCity
	}
	if in.YearOfManufacture != nil {
		v.YearOfManufacture = *in.YearOfManufacture
	}
	if in.Mileage != nil {
		v.Mileage = *in.Mileage
	}
	if in.FuelType != nil {
		v.FuelType = *in.FuelType
	}
	if in.TransmissionType != nil {
		v.TransmissionType = *in.TransmissionType
	}
	if in.Negotiable != nil {
		v.Negotiable = *in.Negotiable
	}
}

func (s *Service) view(ctx context.Context, v models.Vehicle) (View, error) {
	bids, err := s.store.GetBidsByVehicle(ctx, v.ID)
	if err != nil {
		return View{}, fmt.Errorf("vehicle: failed to load bids for %s: %w", v.ID, err)
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	return View{Vehicle: v, Bids: bids, TimeRemaining: pricing.TimeRemaining(v.BiddingEndTime, s.now())}, nil
}

func (s *Service) views(ctx context.Context, vehicles []models.Vehicle) ([]View, error) {
	out := make([]View, 0, len(vehicles))
	for _, v := range vehicles {
		view, err := s.view(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

var fieldMessages = map[string]string{
	"Title":           "title must be between 5 and 200 characters",
	"Category":        "category must be one of car, bike, truck, suv, van, other",
	"Image":           "image URL is too long",
	"Description":     "description must be at least 20 characters",
	"NearestCity":     "nearestCity is required",
	"BasePrice":       "basePrice must be between 0 and 1,000,000,000,000",
	"BiddingType":     "biddingType must be upward or downward",
	"BiddingDuration": "biddingDuration must be between 1 and 30 days",
}

func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].Field()]; ok {
			return biddingerrors.WithReason(biddingerrors.ErrInvalidInput, "%s", msg)
		}
	}
	return fmt.Errorf("vehicle: %w - %v", biddingerrors.ErrInvalidInput, err)
}
