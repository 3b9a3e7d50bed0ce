package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"autobid/internal/auth"
	"autobid/internal/biddingerrors"
	"autobid/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.SetPrincipal(c, auth.Principal{UserID: userID})
		c.Next()
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *MockAuthServiceInterface) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockService := NewMockAuthServiceInterface(ctrl)
	handler := NewAuthHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/signup", handler.SignupHandler)
	router.POST("/auth/login", handler.LoginHandler)
	router.GET("/anon/me", handler.MeHandler)
	router.POST("/anon/favorites/:vehicleId", handler.ToggleFavoriteHandler)

	authed := router.Group("", withUser("u1"))
	authed.GET("/auth/me", handler.MeHandler)
	authed.PUT("/auth/profile", handler.ProfileHandler)
	authed.POST("/auth/favorites/:vehicleId", handler.ToggleFavoriteHandler)
	return router, mockService
}

func sampleUser() models.User {
	return models.User{
		ID:            "u1",
		Email:         "ana@example.com",
		PasswordHash:  "$2a$10$hash",
		DisplayName:   "Ana",
		WalletBalance: 5000,
		Favorites:     []string{},
	}
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		mockSetup      func(m *MockAuthServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:   "signup",
			method: http.MethodPost,
			path:   "/auth/signup",
			body:   `{"email":"ana@example.com","password":"secret1","displayName":"Ana"}`,
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().Signup(gomock.Any(), auth.SignupInput{
					Email: "ana@example.com", Password: "secret1", DisplayName: "Ana",
				}).Return(auth.Session{Token: "tok", User: sampleUser()}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "User registered successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "tok", data["token"])
				user := data["user"].(map[string]any)
				require.Equal(t, 5000.0, user["walletBalance"])
				require.NotContains(t, user, "passwordHash")
			},
		},
		{
			name:           "signup_missing_display_name",
			method:         http.MethodPost,
			path:           "/auth/signup",
			body:           `{"email":"ana@example.com","password":"secret1"}`,
			mockSetup:      func(m *MockAuthServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Please provide email, password, and display name",
		},
		{
			name:           "signup_bad_json",
			method:         http.MethodPost,
			path:           "/auth/signup",
			body:           `{"email":`,
			mockSetup:      func(m *MockAuthServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Please provide email, password, and display name",
		},
		{
			name:   "signup_email_taken",
			method: http.MethodPost,
			path:   "/auth/signup",
			body:   `{"email":"ana@example.com","password":"secret1","displayName":"Ana"}`,
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().Signup(gomock.Any(), gomock.Any()).
					Return(auth.Session{}, fmt.Errorf("auth: %w", biddingerrors.ErrEmailTaken))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "email already registered",
		},
		{
			name:   "login",
			method: http.MethodPost,
			path:   "/auth/login",
			body:   `{"email":"ana@example.com","password":"secret1"}`,
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().Login(gomock.Any(), "ana@example.com", "secret1").
					Return(auth.Session{Token: "tok", User: sampleUser()}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Login successful",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "tok", data["token"])
			},
		},
		{
			name:           "login_missing_password",
			method:         http.MethodPost,
			path:           "/auth/login",
			body:           `{"email":"ana@example.com"}`,
			mockSetup:      func(m *MockAuthServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Please provide email and password",
		},
		{
			name:   "login_bad_credentials",
			method: http.MethodPost,
			path:   "/auth/login",
			body:   `{"email":"ana@example.com","password":"wrong"}`,
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().Login(gomock.Any(), "ana@example.com", "wrong").
					Return(auth.Session{}, biddingerrors.WithReason(biddingerrors.ErrUnauthorized, "invalid email or password"))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "invalid email or password",
		},
		{
			name:   "login_store_failure",
			method: http.MethodPost,
			path:   "/auth/login",
			body:   `{"email":"ana@example.com","password":"secret1"}`,
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(auth.Session{}, errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
		{
			name:   "me",
			method: http.MethodGet,
			path:   "/auth/me",
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().Me(gomock.Any(), "u1").Return(sampleUser(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "user retrieved successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "u1", data["user"].(map[string]any)["id"])
			},
		},
		{
			name:           "me_requires_auth",
			method:         http.MethodGet,
			path:           "/anon/me",
			mockSetup:      func(m *MockAuthServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "not authorized",
		},
		{
			name:   "profile",
			method: http.MethodPut,
			path:   "/auth/profile",
			body:   `{"displayName":"Ana P"}`,
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().UpdateProfile(gomock.Any(), "u1", auth.ProfileUpdate{DisplayName: "Ana P"}).
					DoAndReturn(func(_ any, _ string, in auth.ProfileUpdate) (models.User, error) {
						u := sampleUser()
						u.DisplayName = in.DisplayName
						return u, nil
					})
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Profile updated successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, "Ana P", data["user"].(map[string]any)["displayName"])
			},
		},
		{
			name:           "profile_bad_json",
			method:         http.MethodPut,
			path:           "/auth/profile",
			body:           `{"displayName":`,
			mockSetup:      func(m *MockAuthServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:   "favorite_added",
			method: http.MethodPost,
			path:   "/auth/favorites/v1",
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().ToggleFavorite(gomock.Any(), "u1", "v1").Return([]string{"v1"}, true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Added to favorites",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, []any{"v1"}, data["favorites"])
			},
		},
		{
			name:   "favorite_removed",
			method: http.MethodPost,
			path:   "/auth/favorites/v1",
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().ToggleFavorite(gomock.Any(), "u1", "v1").Return(nil, false, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Removed from favorites",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, []any{}, data["favorites"])
			},
		},
		{
			name:   "favorite_unknown_vehicle",
			method: http.MethodPost,
			path:   "/auth/favorites/missing",
			mockSetup: func(m *MockAuthServiceInterface) {
				m.EXPECT().ToggleFavorite(gomock.Any(), "u1", "missing").
					Return(nil, false, fmt.Errorf("get vehicle missing: %w", biddingerrors.ErrVehicleNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "vehicle not found",
		},
		{
			name:           "favorite_requires_auth",
			method:         http.MethodPost,
			path:           "/anon/favorites/v1",
			mockSetup:      func(m *MockAuthServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "not authorized",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, mockService := setupRouter(t)
			tc.mockSetup(mockService)

			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte(tc.body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code, w.Body.String())

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Contains(t, resp["message"], tc.expectedMsg)
			require.NotContains(t, w.Body.String(), "connection reset")
			require.NotContains(t, w.Body.String(), "$2a$10$hash")

			if tc.validateData != nil {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}
