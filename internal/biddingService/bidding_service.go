package bidding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"autobid/internal/biddingerrors"
	"autobid/internal/locker"
	"autobid/internal/metrics"
	"autobid/internal/models"
	"autobid/internal/notify"
	"autobid/internal/pricing"
	"autobid/internal/repository"
	"autobid/internal/wallet"
	"autobid/utils"

	"github.com/go-playground/validator/v10"
)

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	store    repository.Store
	ledger   *wallet.Ledger
	locks    *locker.Keyed
	sink     notify.Sink
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time
}

// Option customises a BiddingService
type Option func(*BiddingService)

// WithClock replaces the wall clock used for the bidding window and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *BiddingService) { s.now = now }
}

// WithMetrics records accepted and rejected bids
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BiddingService) { s.metrics = m }
}

// NewBiddingService creates a new BiddingService instance.
// locks must be the same locker the wallet ledger uses.
func NewBiddingService(store repository.Store, ledger *wallet.Ledger, locks *locker.Keyed, sink notify.Sink, opts ...Option) *BiddingService {
	if sink == nil {
		sink = notify.Nop{}
	}
	s := &BiddingService{
		store:    store,
		ledger:   ledger,
		locks:    locks,
		sink:     sink,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBidInput is a request to bid on a vehicle. A nil or zero CustomAmount bids the next suggested price.
type PlaceBidInput struct {
	VehicleID    string             `validate:"required"`
	UserID       string             `validate:"required"`
	BiddingType  models.BiddingType `validate:"required,oneof=upward downward"`
	CustomAmount *int64             `validate:"omitempty,gte=0"`
}

// PlaceBidResult is the outcome of an accepted bid
type PlaceBidResult struct {
	Bid           models.Bid
	VehicleID     string
	CurrentPrice  int64
	WalletBalance int64
}

// PlaceBid validates a bid, charges the bid cost, records the bid and moves the vehicle's
// price, all in one transaction. Events are published only after the transaction commits.
func (s *BiddingService) PlaceBid(ctx context.Context, in PlaceBidInput) (PlaceBidResult, error) {
	if err := s.validateInput(in); err != nil {
		s.metrics.BidRejected(rejectReason(err))
		return PlaceBidResult{}, err
	}

	// vehicle before user, always
	unlockVehicle := s.locks.Lock(locker.VehicleKey(in.VehicleID))
	defer unlockVehicle()
	unlockUser := s.locks.Lock(locker.UserKey(in.UserID))
	defer unlockUser()

	var result PlaceBidResult
	err := s.store.WithinTx(ctx, func(db repository.AuctionDB) error {
		var err error
		result, err = s.placeBidTx(ctx, db, in)
		return err
	})
	if err != nil {
		reason := rejectReason(err)
		s.metrics.BidRejected(reason)
		fields := map[string]any{
			"vehicle_id":   in.VehicleID,
			"user_id":      in.UserID,
			"bidding_type": in.BiddingType,
			"reason":       reason,
			"error":        err.Error(),
		}
		if reason == "internal" {
			utils.Error("bid transaction failed", fields)
		} else {
			utils.Warn("bid rejected", fields)
		}
		return PlaceBidResult{}, fmt.Errorf("service: failed to place bid on vehicle %s by user %s: %w", in.VehicleID, in.UserID, err)
	}

	s.metrics.BidAccepted(string(result.Bid.BiddingType))
	utils.Info("bid accepted", map[string]any{
		"bid_id":         result.Bid.ID,
		"vehicle_id":     result.VehicleID,
		"user_id":        in.UserID,
		"amount":         result.Bid.Amount,
		"bidding_type":   result.Bid.BiddingType,
		"wallet_balance": result.WalletBalance,
	})

	// events outlive the request
	pubCtx := context.WithoutCancel(ctx)
	s.publish(pubCtx, result.VehicleID, notify.EventNewBid, notify.NewBidPayload{Bid: result.Bid})
	s.publish(pubCtx, result.VehicleID, notify.EventPriceUpdate, notify.PriceUpdatePayload{
		VehicleID:    result.VehicleID,
		CurrentPrice: result.CurrentPrice,
	})

	return result, nil
}

func (s *BiddingService) placeBidTx(ctx context.Context, db repository.AuctionDB, in PlaceBidInput) (PlaceBidResult, error) {
	vehicle, err := db.GetVehicle(ctx, in.VehicleID)
	if err != nil {
		return PlaceBidResult{}, err
	}

	now := s.now()
	if !vehicle.IsActive {
		return PlaceBidResult{}, biddingerrors.WithReason(biddingerrors.ErrAuctionClosed, "this auction is no longer active")
	}
	if !pricing.IsBiddingActive(vehicle.BiddingEndTime, now) {
		return PlaceBidResult{}, biddingerrors.WithReason(biddingerrors.ErrAuctionClosed, "bidding has ended for this vehicle")
	}
	if vehicle.OwnerID == in.UserID {
		return PlaceBidResult{}, biddingerrors.WithReason(biddingerrors.ErrSelfBidForbidden, "you cannot bid on your own vehicle")
	}

	user, err := db.GetUser(ctx, in.UserID)
	if err != nil {
		return PlaceBidResult{}, err
	}
	if user.WalletBalance < pricing.BidCost {
		return PlaceBidResult{}, biddingerrors.WithReason(biddingerrors.ErrInsufficientFunds,
			"insufficient wallet balance, each bid costs %s", pricing.FormatAmount(pricing.BidCost))
	}

	prior, err := db.GetUserBidsOnVehicle(ctx, vehicle.ID, user.ID)
	if err != nil {
		return PlaceBidResult{}, err
	}
	if err := CheckDirection(prior, in.BiddingType); err != nil {
		return PlaceBidResult{}, err
	}

	amount := pricing.ResolveAmount(in.CustomAmount, vehicle.CurrentPrice, in.BiddingType)
	if err := pricing.Validate(amount, vehicle.CurrentPrice, in.BiddingType, vehicle.SuggestedStartingBid); err != nil {
		return PlaceBidResult{}, err
	}

	bid := models.Bid{
		ID:          utils.GenerateID(),
		VehicleID:   vehicle.ID,
		UserID:      user.ID,
		UserName:    user.DisplayName,
		UserEmail:   user.Email,
		Type:        in.BiddingType,
		BiddingType: in.BiddingType,
		Amount:      amount,
		Timestamp:   now,
		CreatedAt:   now,
	}

	entry, err := s.ledger.ApplyInTx(ctx, db, user, -pricing.BidCost, models.TransactionBid,
		"Bid placed on "+vehicle.Title, wallet.Refs{VehicleID: vehicle.ID, BidID: bid.ID})
	if err != nil {
		return PlaceBidResult{}, err
	}
	if err := db.CreateBid(ctx, bid); err != nil {
		return PlaceBidResult{}, err
	}
	if err := db.UpdateVehiclePrice(ctx, vehicle.ID, vehicle.Version, amount); err != nil {
		return PlaceBidResult{}, err
	}

	return PlaceBidResult{
		Bid:           bid,
		VehicleID:     vehicle.ID,
		CurrentPrice:  amount,
		WalletBalance: entry.BalanceAfter,
	}, nil
}

func (s *BiddingService) validateInput(in PlaceBidInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Field() {
		case "BiddingType":
			return biddingerrors.WithReason(biddingerrors.ErrInvalidInput, "biddingType must be upward or downward")
		case "CustomAmount":
			return biddingerrors.WithReason(biddingerrors.ErrInvalidInput, "customAmount cannot be negative")
		default:
			return biddingerrors.WithReason(biddingerrors.ErrInvalidInput, "%s is required", lowerFirst(fe.Field()))
		}
	}
	return fmt.Errorf("service: %w - %v", biddingerrors.ErrInvalidInput, err)
}

func (s *BiddingService) publish(ctx context.Context, vehicleID string, event notify.EventType, payload any) {
	if err := s.sink.Publish(ctx, vehicleID, event, payload); err != nil {
		s.metrics.NotifyFailed(string(event))
		utils.Error("failed to publish auction event", map[string]any{
			"vehicle_id": vehicleID,
			"event":      event,
			"error":      err.Error(),
		})
	}
}

// BidPage is one page of bids, newest first
type BidPage struct {
	Bids       []models.Bid      `json:"bids"`
	Pagination models.Pagination `json:"pagination"`
}

// GetBidsForVehicle returns all bids for a vehicle, newest first
func (s *BiddingService) GetBidsForVehicle(ctx context.Context, vehicleID string) ([]models.Bid, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("service: %w - empty vehicle ID", biddingerrors.ErrInvalidInput)
	}

	if _, err := s.store.GetVehicle(ctx, vehicleID); err != nil {
		return nil, fmt.Errorf("service: failed to get vehicle %s: %w", vehicleID, err)
	}

	bids, err := s.store.GetBidsByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for vehicle %s: %w", vehicleID, err)
	}
	return bids, nil
}

// GetBidsByUser returns every bid a user has placed, newest first
func (s *BiddingService) GetBidsByUser(ctx context.Context, userID string) ([]models.Bid, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", biddingerrors.ErrInvalidInput)
	}

	bids, err := s.store.GetBidsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err)
	}
	return bids, nil
}

// ListBids returns a page of all bids, newest first
func (s *BiddingService) ListBids(ctx context.Context, page, limit int) (BidPage, error) {
	page, limit = models.NormalizePage(page, limit)
	offset := models.NewPagination(page, limit, 0).Offset()

	bids, total, err := s.store.ListBids(ctx, offset, limit)
	if err != nil {
		return BidPage{}, fmt.Errorf("service: failed to list bids: %w", err)
	}
	return BidPage{Bids: bids, Pagination: models.NewPagination(page, limit, total)}, nil
}

// rejectReason labels an error for metrics and logs
func rejectReason(err error) string {
	switch {
	case errors.Is(err, biddingerrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, biddingerrors.ErrVehicleNotFound):
		return "vehicle_not_found"
	case errors.Is(err, biddingerrors.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return "auction_closed"
	case errors.Is(err, biddingerrors.ErrSelfBidForbidden):
		return "self_bid"
	case errors.Is(err, biddingerrors.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, biddingerrors.ErrDirectionLocked):
		return "direction_locked"
	case errors.Is(err, biddingerrors.ErrInvalidBidAmount):
		return "invalid_amount"
	case errors.Is(err, biddingerrors.ErrStalePrice):
		return "stale_price"
	}
	return "internal"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
