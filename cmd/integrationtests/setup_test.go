package integrationtests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"autobid/internal/auth"
	bidding "autobid/internal/biddingService"
	"autobid/internal/locker"
	"autobid/internal/metrics"
	"autobid/internal/repository"
	"autobid/internal/server"
	"autobid/internal/vehicle"
	"autobid/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testApp is the full router over an in-memory store
type testApp struct {
	router *gin.Engine
	store  *repository.MemoryRepo
}

// SetupTestApp initializes the router with in-memory repository for integration testing.
func SetupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryRepo()
	m := metrics.New()
	locks := locker.New()
	ledger := wallet.NewLedger(store, locks, m)
	tokens := auth.NewTokenManager("integration-secret", time.Hour)

	router := server.SetupRouter(server.Dependencies{
		Auth:     auth.NewService(store, ledger, locks, tokens, auth.WithBcryptCost(bcrypt.MinCost)),
		Bidding:  bidding.NewBiddingService(store, ledger, locks, nil, bidding.WithMetrics(m)),
		Wallet:   ledger,
		Vehicles: vehicle.NewService(store),
		Metrics:  m,
	})
	return &testApp{router: router, store: store}
}

// Do executes an HTTP request and parses the JSON envelope
func (a *testApp) Do(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response: %s", w.Body.String())
	}
	return resp, w
}

// Signup registers a user and returns its token and ID
func (a *testApp) Signup(t *testing.T, name string) (token, userID string) {
	t.Helper()

	resp, w := a.Do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":       name + "@example.com",
		"password":    "password123",
		"displayName": name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := resp["data"].(map[string]any)
	user := data["user"].(map[string]any)
	return data["token"].(string), user["id"].(string)
}

// CreateVehicle lists a vehicle for the token's owner and returns its ID
func (a *testApp) CreateVehicle(t *testing.T, token string, basePrice int64, biddingType string) string {
	t.Helper()

	resp, w := a.Do(t, http.MethodPost, "/api/vehicles", token, map[string]any{
		"title":           "Toyota Corolla 2015",
		"category":        "car",
		"description":     "Clean sedan, regularly serviced, no accidents",
		"nearestCity":     "Galle",
		"basePrice":       basePrice,
		"biddingType":     biddingType,
		"biddingDuration": 7,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data(t, resp, "vehicle")["id"].(string)
}

// data digs into resp.data[key]
func data(t *testing.T, resp map[string]any, key string) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object")
	v, ok := d[key].(map[string]any)
	require.True(t, ok, fmt.Sprintf("data has no %q object", key))
	return v
}
