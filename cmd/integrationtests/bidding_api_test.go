package integrationtests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPlaceBid_Flow(t *testing.T) {
	app := SetupTestApp(t)
	ownerToken, _ := app.Signup(t, "owner")
	buyerToken, buyerID := app.Signup(t, "buyer")
	rivalToken, _ := app.Signup(t, "rival")
	vehicleID := app.CreateVehicle(t, ownerToken, 100000, "upward")

	resp, w := app.Do(t, http.MethodGet, "/api/vehicles/"+vehicleID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := data(t, resp, "vehicle")
	require.Equal(t, 85000.0, v["suggestedStartingBid"])
	require.Equal(t, 85000.0, v["currentPrice"])
	require.Equal(t, true, v["isActive"])

	bidURL := "/api/vehicles/" + vehicleID + "/bid"

	resp, w = app.Do(t, http.MethodPost, bidURL, buyerToken, map[string]any{"biddingType": "upward"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, "Bid placed successfully", resp["message"])
	bid := data(t, resp, "bid")
	require.Equal(t, 95000.0, bid["amount"])
	require.Equal(t, "upward", bid["biddingType"])
	require.Equal(t, buyerID, bid["userId"])
	_, err := time.Parse(time.RFC3339, bid["createdAt"].(string))
	require.NoError(t, err)
	require.Equal(t, 95000.0, data(t, resp, "vehicle")["currentPrice"])
	require.Equal(t, 4950.0, data(t, resp, "user")["walletBalance"])

	// the buyer is now locked upward
	resp, w = app.Do(t, http.MethodPost, bidURL, buyerToken, map[string]any{"biddingType": "downward"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, false, resp["success"])
	require.Equal(t, "you are locked to upward bidding for this vehicle", resp["message"])

	// another user may still bid down to the starting bid
	resp, w = app.Do(t, http.MethodPost, bidURL, rivalToken, map[string]any{"biddingType": "downward"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, 85000.0, data(t, resp, "vehicle")["currentPrice"])

	resp, w = app.Do(t, http.MethodPost, bidURL, rivalToken, map[string]any{"biddingType": "downward"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, resp["message"], "starting bid")

	resp, w = app.Do(t, http.MethodPost, bidURL, ownerToken, map[string]any{"biddingType": "upward"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "you cannot bid on your own vehicle", resp["message"])

	resp, w = app.Do(t, http.MethodGet, "/api/vehicles/"+vehicleID+"/bids", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bids := resp["data"].(map[string]any)["bids"].([]any)
	require.Len(t, bids, 2)
	require.Equal(t, "downward", bids[0].(map[string]any)["biddingType"])

	resp, w = app.Do(t, http.MethodGet, "/api/bids/user/"+buyerID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].(map[string]any)["bids"].([]any), 1)

	resp, w = app.Do(t, http.MethodGet, "/api/bids?page=1&limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pagination := data(t, resp, "pagination")
	require.Equal(t, 2.0, pagination["total"])
	require.Equal(t, 2.0, pagination["pages"])
}

func TestPlaceBid_Errors(t *testing.T) {
	app := SetupTestApp(t)
	ownerToken, _ := app.Signup(t, "owner")
	buyerToken, _ := app.Signup(t, "buyer")
	vehicleID := app.CreateVehicle(t, ownerToken, 50000, "upward")

	tests := []struct {
		name        string
		url         string
		token       string
		body        any
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "no_token",
			url:         "/api/vehicles/" + vehicleID + "/bid",
			body:        map[string]any{"biddingType": "upward"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authorized to access this route. Please provide a valid token.",
		},
		{
			name:       "bad_token",
			url:        "/api/vehicles/" + vehicleID + "/bid",
			token:      "not-a-jwt",
			body:       map[string]any{"biddingType": "upward"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid_json",
			url:        "/api/vehicles/" + vehicleID + "/bid",
			token:      buyerToken,
			body:       []byte("{biddingType: upward"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown_direction",
			url:        "/api/vehicles/" + vehicleID + "/bid",
			token:      buyerToken,
			body:       map[string]any{"biddingType": "sideways"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "upward_below_increment",
			url:         "/api/vehicles/" + vehicleID + "/bid",
			token:       buyerToken,
			body:        map[string]any{"biddingType": "upward", "customAmount": 45000},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "upward bid must be at least Rs. 52,500",
		},
		{
			name:        "unknown_vehicle",
			url:         "/api/vehicles/missing/bid",
			token:       buyerToken,
			body:        map[string]any{"biddingType": "upward"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "vehicle not found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, w := app.Do(t, http.MethodPost, tc.url, tc.token, tc.body)
			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			require.Equal(t, false, resp["success"])
			if tc.wantMessage != "" {
				require.Equal(t, tc.wantMessage, resp["message"])
			}
		})
	}
}

func TestWallet_Flow(t *testing.T) {
	app := SetupTestApp(t)
	token, _ := app.Signup(t, "walletuser")

	resp, w := app.Do(t, http.MethodGet, "/api/wallet/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 5000.0, resp["data"].(map[string]any)["walletBalance"])

	resp, w = app.Do(t, http.MethodPost, "/api/wallet/topup", token, map[string]any{"amount": 1500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "Wallet topped up successfully with Rs. 1,500", resp["message"])
	require.Equal(t, 6500.0, resp["data"].(map[string]any)["walletBalance"])

	resp, w = app.Do(t, http.MethodPost, "/api/wallet/withdraw", token, map[string]any{"amount": 10000})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, false, resp["success"])

	_, w = app.Do(t, http.MethodPost, "/api/wallet/withdraw", token, map[string]any{"amount": 500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, w = app.Do(t, http.MethodPost, "/api/wallet/topup", token, map[string]any{"amount": -5})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp, w = app.Do(t, http.MethodGet, "/api/wallet/transactions?type=deposit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].(map[string]any)["transactions"].([]any), 2)

	resp, w = app.Do(t, http.MethodGet, "/api/wallet/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := resp["data"].(map[string]any)
	require.Equal(t, 6000.0, summary["currentBalance"])
	require.Equal(t, 3.0, summary["transactionCount"])

	_, w = app.Do(t, http.MethodGet, "/api/wallet/balance", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVehicle_OwnerOnlyChanges(t *testing.T) {
	app := SetupTestApp(t)
	ownerToken, ownerID := app.Signup(t, "owner")
	otherToken, _ := app.Signup(t, "other")
	vehicleID := app.CreateVehicle(t, ownerToken, 200000, "downward")

	_, w := app.Do(t, http.MethodPut, "/api/vehicles/"+vehicleID, otherToken, map[string]any{"title": "Someone else's car"})
	require.Equal(t, http.StatusForbidden, w.Code)

	resp, w := app.Do(t, http.MethodPut, "/api/vehicles/"+vehicleID, ownerToken, map[string]any{"title": "Toyota Corolla 2015 (mint)"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := data(t, resp, "vehicle")
	require.Equal(t, "Toyota Corolla 2015 (mint)", v["title"])
	require.Equal(t, 170000.0, v["currentPrice"])

	resp, w = app.Do(t, http.MethodGet, "/api/vehicles/user/"+ownerID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].(map[string]any)["vehicles"].([]any), 1)

	_, w = app.Do(t, http.MethodDelete, "/api/vehicles/"+vehicleID, otherToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	_, w = app.Do(t, http.MethodDelete, "/api/vehicles/"+vehicleID, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w = app.Do(t, http.MethodPost, "/api/vehicles/"+vehicleID+"/bid", otherToken, map[string]any{"biddingType": "downward"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "this auction is no longer active", resp["message"])
}

func TestAuth_Flow(t *testing.T) {
	app := SetupTestApp(t)
	token, userID := app.Signup(t, "alice")

	resp, w := app.Do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email": "ALICE@example.com", "password": "password123", "displayName": "Alice again",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "user with this email already exists", resp["message"])

	_, w = app.Do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "alice@example.com", "password": "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	resp, w = app.Do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, resp["data"].(map[string]any)["token"])

	resp, w = app.Do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := data(t, resp, "user")
	require.Equal(t, userID, me["id"])
	require.Nil(t, me["passwordHash"])

	ownerToken, _ := app.Signup(t, "seller")
	vehicleID := app.CreateVehicle(t, ownerToken, 80000, "upward")

	resp, w = app.Do(t, http.MethodPost, "/api/auth/favorites/"+vehicleID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "Added to favorites", resp["message"])

	resp, w = app.Do(t, http.MethodPost, "/api/auth/favorites/"+vehicleID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Removed from favorites", resp["message"])
}

func TestRouter_Ambient(t *testing.T) {
	app := SetupTestApp(t)

	resp, w := app.Do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["success"])

	resp, w = app.Do(t, http.MethodGet, "/api/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "route not found", resp["message"])

	_, w = app.Do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRouter_RequestID(t *testing.T) {
	app := SetupTestApp(t)

	_, w := app.Do(t, http.MethodGet, "/health", "", nil)
	require.Len(t, w.Header().Get("X-Request-ID"), 36)
}
