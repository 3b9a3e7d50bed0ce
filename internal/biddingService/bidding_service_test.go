package bidding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"autobid/internal/biddingerrors"
	"autobid/internal/locker"
	"autobid/internal/models"
	"autobid/internal/notify"
	"autobid/internal/repository"
	"autobid/internal/wallet"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []notify.EventType
	err    error
}

func (r *recordingSink) Publish(_ context.Context, _ string, event notify.EventType, _ any) error {
	r.events = append(r.events, event)
	return r.err
}

func amountPtr(v int64) *int64 { return &v }

// Tests PlaceBid
func TestBiddingService_PlaceBid(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	vehicle := models.Vehicle{
		ID:                   "v1",
		OwnerID:              "owner",
		Title:                "Toyota Aqua 2018",
		BasePrice:            117648,
		SuggestedStartingBid: 100000,
		CurrentPrice:         100000,
		BiddingType:          models.BiddingUpward,
		BiddingEndTime:       now.Add(48 * time.Hour),
		IsActive:             true,
		Version:              2,
	}
	bidder := models.User{ID: "u1", Email: "u1@example.com", DisplayName: "Bidder", WalletBalance: 5000}

	withVehicle := func(mutate func(v *models.Vehicle)) models.Vehicle {
		v := vehicle
		mutate(&v)
		return v
	}

	// Table-driven test cases
	tests := []struct {
		name          string
		input         PlaceBidInput
		mockSetup     func(m *repository.MockStore)
		expectedError error
		withoutReason bool
		expectedPrice int64
	}{
		{
			name:  "valid_upward_suggested_amount",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingUpward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(vehicle, nil)
				m.EXPECT().GetUser(gomock.Any(), "u1").Return(bidder, nil)
				m.EXPECT().GetUserBidsOnVehicle(gomock.Any(), "v1", "u1").Return(nil, nil)
				m.EXPECT().UpdateWalletBalance(gomock.Any(), "u1", int64(4950)).Return(nil)
				m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, txn models.WalletTransaction) error {
						require.Equal(t, models.TransactionBid, txn.Type)
						require.Equal(t, int64(-50), txn.Amount)
						require.Equal(t, int64(5000), txn.BalanceBefore)
						require.Equal(t, int64(4950), txn.BalanceAfter)
						require.Equal(t, "Bid placed on Toyota Aqua 2018", txn.Description)
						require.Equal(t, "v1", txn.RelatedVehicleID)
						require.NotEmpty(t, txn.RelatedBidID)
						return nil
					})
				m.EXPECT().CreateBid(gomock.Any(), gomock.Any()).Return(nil)
				m.EXPECT().UpdateVehiclePrice(gomock.Any(), "v1", int64(2), int64(110000)).Return(nil)
			},
			expectedPrice: 110000,
		},
		{
			name:  "valid_downward_custom_amount",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingDownward, CustomAmount: amountPtr(95000)},
			mockSetup: func(m *repository.MockStore) {
				v := withVehicle(func(v *models.Vehicle) { v.CurrentPrice = 100000; v.SuggestedStartingBid = 85000 })
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(v, nil)
				m.EXPECT().GetUser(gomock.Any(), "u1").Return(bidder, nil)
				m.EXPECT().GetUserBidsOnVehicle(gomock.Any(), "v1", "u1").Return([]models.Bid{
					{ID: "b0", BiddingType: models.BiddingDownward, CreatedAt: now.Add(-time.Hour)},
				}, nil)
				m.EXPECT().UpdateWalletBalance(gomock.Any(), "u1", int64(4950)).Return(nil)
				m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
				m.EXPECT().CreateBid(gomock.Any(), gomock.Any()).Return(nil)
				m.EXPECT().UpdateVehiclePrice(gomock.Any(), "v1", int64(2), int64(95000)).Return(nil)
			},
			expectedPrice: 95000,
		},
		{
			name:          "missing_direction",
			input:         PlaceBidInput{VehicleID: "v1", UserID: "u1"},
			mockSetup:     func(m *repository.MockStore) {},
			expectedError: biddingerrors.ErrInvalidInput,
		},
		{
			name:          "unknown_direction",
			input:         PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: "sideways"},
			mockSetup:     func(m *repository.MockStore) {},
			expectedError: biddingerrors.ErrInvalidInput,
		},
		{
			name:          "empty_vehicleID",
			input:         PlaceBidInput{UserID: "u1", BiddingType: models.BiddingUpward},
			mockSetup:     func(m *repository.MockStore) {},
			expectedError: biddingerrors.ErrInvalidInput,
		},
		{
			name:          "negative_custom_amount",
			input:         PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingUpward, CustomAmount: amountPtr(-1)},
			mockSetup:     func(m *repository.MockStore) {},
			expectedError: biddingerrors.ErrInvalidInput,
		},
		{
			name:  "vehicle_not_found",
			input: PlaceBidInput{VehicleID: "vX", UserID: "u1", BiddingType: models.BiddingUpward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "vX").Return(models.Vehicle{}, fmt.Errorf("get vehicle vX: %w", biddingerrors.ErrVehicleNotFound))
			},
			expectedError: biddingerrors.ErrVehicleNotFound,
			withoutReason: true,
		},
		{
			name:  "inactive_vehicle",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingUpward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(withVehicle(func(v *models.Vehicle) { v.IsActive = false }), nil)
			},
			expectedError: biddingerrors.ErrAuctionClosed,
		},
		{
			name:  "bidding_window_ended",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingUpward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(withVehicle(func(v *models.Vehicle) { v.BiddingEndTime = now }), nil)
			},
			expectedError: biddingerrors.ErrAuctionClosed,
		},
		{
			name:  "owner_bids_on_own_vehicle",
			input: PlaceBidInput{VehicleID: "v1", UserID: "owner", BiddingType: models.BiddingUpward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(vehicle, nil)
			},
			expectedError: biddingerrors.ErrSelfBidForbidden,
		},
		{
			name:  "user_not_found",
			input: PlaceBidInput{VehicleID: "v1", UserID: "ghost", BiddingType: models.BiddingUpward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(vehicle, nil)
				m.EXPECT().GetUser(gomock.Any(), "ghost").Return(models.User{}, biddingerrors.ErrUserNotFound)
			},
			expectedError: biddingerrors.ErrUserNotFound,
			withoutReason: true,
		},
		{
			name:  "insufficient_funds",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingUpward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(vehicle, nil)
				m.EXPECT().GetUser(gomock.Any(), "u1").Return(models.User{ID: "u1", WalletBalance: 49}, nil)
			},
			expectedError: biddingerrors.ErrInsufficientFunds,
		},
		{
			name:  "direction_locked",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingDownward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(vehicle, nil)
				m.EXPECT().GetUser(gomock.Any(), "u1").Return(bidder, nil)
				m.EXPECT().GetUserBidsOnVehicle(gomock.Any(), "v1", "u1").Return([]models.Bid{
					{ID: "b0", BiddingType: models.BiddingUpward, CreatedAt: now.Add(-time.Minute)},
				}, nil)
			},
			expectedError: biddingerrors.ErrDirectionLocked,
		},
		{
			name:  "upward_below_increment",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingUpward, CustomAmount: amountPtr(105000)},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(vehicle, nil)
				m.EXPECT().GetUser(gomock.Any(), "u1").Return(bidder, nil)
				m.EXPECT().GetUserBidsOnVehicle(gomock.Any(), "v1", "u1").Return(nil, nil)
			},
			expectedError: biddingerrors.ErrInvalidBidAmount,
		},
		{
			name:  "downward_below_starting_bid",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingDownward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(vehicle, nil)
				m.EXPECT().GetUser(gomock.Any(), "u1").Return(bidder, nil)
				m.EXPECT().GetUserBidsOnVehicle(gomock.Any(), "v1", "u1").Return(nil, nil)
			},
			expectedError: biddingerrors.ErrInvalidBidAmount,
		},
		{
			name:  "concurrent_price_change",
			input: PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingUpward},
			mockSetup: func(m *repository.MockStore) {
				m.EXPECT().GetVehicle(gomock.Any(), "v1").Return(vehicle, nil)
				m.EXPECT().GetUser(gomock.Any(), "u1").Return(bidder, nil)
				m.EXPECT().GetUserBidsOnVehicle(gomock.Any(), "v1", "u1").Return(nil, nil)
				m.EXPECT().UpdateWalletBalance(gomock.Any(), "u1", int64(4950)).Return(nil)
				m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
				m.EXPECT().CreateBid(gomock.Any(), gomock.Any()).Return(nil)
				m.EXPECT().UpdateVehiclePrice(gomock.Any(), "v1", int64(2), int64(110000)).Return(biddingerrors.ErrStalePrice)
			},
			expectedError: biddingerrors.ErrStalePrice,
			withoutReason: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStore := repository.NewMockStore(ctrl)
			mockStore.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, fn func(repository.AuctionDB) error) error {
					return fn(mockStore)
				}).AnyTimes()
			tc.mockSetup(mockStore)

			locks := locker.New()
			sink := &recordingSink{}
			service := NewBiddingService(mockStore, wallet.NewLedger(mockStore, locks, nil), locks, sink,
				WithClock(func() time.Time { return now }))

			result, err := service.PlaceBid(context.Background(), tc.input)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				require.Empty(t, sink.events, "rejected bids publish nothing")
				reason, hasReason := biddingerrors.Reason(err)
				if tc.withoutReason {
					require.False(t, hasReason, "unexpected reason %q", reason)
				} else {
					require.True(t, hasReason, "business rejections carry a reason")
					require.NotEmpty(t, reason)
				}
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expectedPrice, result.CurrentPrice)
			require.Equal(t, tc.expectedPrice, result.Bid.Amount)
			require.Equal(t, int64(4950), result.WalletBalance)
			require.Equal(t, tc.input.BiddingType, result.Bid.BiddingType)
			require.Equal(t, tc.input.BiddingType, result.Bid.Type)
			require.Equal(t, now, result.Bid.CreatedAt)
			require.Equal(t, "Bidder", result.Bid.UserName)
			_, parseErr := uuid.Parse(result.Bid.ID)
			require.NoError(t, parseErr, "bid ID should be a valid UUID")
			require.Equal(t, []notify.EventType{notify.EventNewBid, notify.EventPriceUpdate}, sink.events)
		})
	}
}

func TestBiddingService_PlaceBid_SinkFailureDoesNotFailBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Now().UTC()
	mockStore := repository.NewMockStore(ctrl)
	mockStore.EXPECT().WithinTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(repository.AuctionDB) error) error {
			return fn(mockStore)
		})
	mockStore.EXPECT().GetVehicle(gomock.Any(), "v1").Return(models.Vehicle{
		ID: "v1", OwnerID: "owner", CurrentPrice: 85000, SuggestedStartingBid: 85000,
		BiddingEndTime: now.Add(time.Hour), IsActive: true,
	}, nil)
	mockStore.EXPECT().GetUser(gomock.Any(), "u1").Return(models.User{ID: "u1", WalletBalance: 100}, nil)
	mockStore.EXPECT().GetUserBidsOnVehicle(gomock.Any(), "v1", "u1").Return(nil, nil)
	mockStore.EXPECT().UpdateWalletBalance(gomock.Any(), "u1", int64(50)).Return(nil)
	mockStore.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
	mockStore.EXPECT().CreateBid(gomock.Any(), gomock.Any()).Return(nil)
	mockStore.EXPECT().UpdateVehiclePrice(gomock.Any(), "v1", int64(0), int64(95000)).Return(nil)

	locks := locker.New()
	sink := &recordingSink{err: errors.New("broker down")}
	service := NewBiddingService(mockStore, wallet.NewLedger(mockStore, locks, nil), locks, sink)

	result, err := service.PlaceBid(context.Background(), PlaceBidInput{VehicleID: "v1", UserID: "u1", BiddingType: models.BiddingUpward})
	require.NoError(t, err)
	require.Equal(t, int64(95000), result.CurrentPrice)
	require.Len(t, sink.events, 2)
}

// Tests GetBidsForVehicle
func TestBiddingService_GetBidsForVehicle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockStore(ctrl)
	service := NewBiddingService(mockStore, nil, locker.New(), nil)
	now := time.Now()

	tests := []struct {
		name          string
		vehicleID     string
		mockSetup     func()
		expectedLen   int
		expectedError error
	}{
		{
			name:      "bids_found",
			vehicleID: "v1",
			mockSetup: func() {
				mockStore.EXPECT().GetVehicle(gomock.Any(), "v1").Return(models.Vehicle{ID: "v1"}, nil)
				mockStore.EXPECT().GetBidsByVehicle(gomock.Any(), "v1").Return([]models.Bid{
					{ID: "b2", VehicleID: "v1", Amount: 120000, CreatedAt: now},
					{ID: "b1", VehicleID: "v1", Amount: 110000, CreatedAt: now.Add(-time.Minute)},
				}, nil)
			},
			expectedLen: 2,
		},
		{
			name:      "no_bids",
			vehicleID: "v2",
			mockSetup: func() {
				mockStore.EXPECT().GetVehicle(gomock.Any(), "v2").Return(models.Vehicle{ID: "v2"}, nil)
				mockStore.EXPECT().GetBidsByVehicle(gomock.Any(), "v2").Return([]models.Bid{}, nil)
			},
			expectedLen: 0,
		},
		{
			name:      "vehicle_not_found",
			vehicleID: "vX",
			mockSetup: func() {
				mockStore.EXPECT().GetVehicle(gomock.Any(), "vX").Return(models.Vehicle{}, biddingerrors.ErrVehicleNotFound)
			},
			expectedError: biddingerrors.ErrVehicleNotFound,
		},
		{
			name:          "empty_vehicleID",
			vehicleID:     "",
			mockSetup:     func() {},
			expectedError: biddingerrors.ErrInvalidInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			bids, err := service.GetBidsForVehicle(context.Background(), tc.vehicleID)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.Len(t, bids, tc.expectedLen)
		})
	}
}

// Tests GetBidsByUser and ListBids
func TestBiddingService_UserBidsAndListing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockStore(ctrl)
	service := NewBiddingService(mockStore, nil, locker.New(), nil)

	_, err := service.GetBidsByUser(context.Background(), "")
	require.ErrorIs(t, err, biddingerrors.ErrInvalidInput)

	mockStore.EXPECT().GetBidsByUser(gomock.Any(), "u1").Return([]models.Bid{{ID: "b1"}}, nil)
	bids, err := service.GetBidsByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, bids, 1)

	mockStore.EXPECT().ListBids(gomock.Any(), 20, 10).Return([]models.Bid{{ID: "b21"}}, int64(21), nil)
	page, err := service.ListBids(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Equal(t, models.Pagination{Page: 3, Limit: 10, Total: 21, Pages: 3}, page.Pagination)

	mockStore.EXPECT().ListBids(gomock.Any(), 0, models.DefaultPageLimit).Return(nil, int64(0), errors.New("db down"))
	_, err = service.ListBids(context.Background(), 0, 0)
	require.Error(t, err)
}
