package handler

import (
	"context"
	"net/http"

	"autobid/internal/auth"
	"autobid/internal/models"
	"autobid/services/auth/helpers"
	"autobid/utils"

	"github.com/gin-gonic/gin"
)

type AuthServiceInterface interface {
	Signup(ctx context.Context, in auth.SignupInput) (auth.Session, error)
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Me(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, in auth.ProfileUpdate) (models.User, error)
	ToggleFavorite(ctx context.Context, userID, vehicleID string) ([]string, bool, error)
}

type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// SignupHandler handles POST /api/auth/signup
func (h *AuthHandler) SignupHandler(c *gin.Context) {
	var req helpers.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Please provide email, password, and display name")
		utils.Warn("SignupHandler: binding error", map[string]any{"error": err.Error()})
		return
	}

	session, err := h.service.Signup(c.Request.Context(), auth.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		utils.HandleServiceError(c, "SignupHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, session, "User registered successfully")
	utils.LogSuccess("SignupHandler", "user registered", map[string]any{"user_id": session.User.ID})
}

// LoginHandler handles POST /api/auth/login
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Please provide email and password")
		utils.Warn("LoginHandler: binding error", map[string]any{"error": err.Error()})
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.HandleServiceError(c, "LoginHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, session, "Login successful")
}

// MeHandler handles GET /api/auth/me
func (h *AuthHandler) MeHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	user, err := h.service.Me(c.Request.Context(), principal.UserID)
	if err != nil {
		utils.HandleServiceError(c, "MeHandler", err, map[string]any{"user_id": principal.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"user": user}, "user retrieved successfully")
}

// ProfileHandler handles PUT /api/auth/profile
func (h *AuthHandler) ProfileHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	var req helpers.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleBindError(c, "ProfileHandler", err)
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), principal.UserID, auth.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		utils.HandleServiceError(c, "ProfileHandler", err, map[string]any{"user_id": principal.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"user": user}, "Profile updated successfully")
}

// ToggleFavoriteHandler handles POST /api/auth/favorites/:vehicleId
func (h *AuthHandler) ToggleFavoriteHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	vehicleID := c.Param("vehicleId")
	favorites, added, err := h.service.ToggleFavorite(c.Request.Context(), principal.UserID, vehicleID)
	if err != nil {
		utils.HandleServiceError(c, "ToggleFavoriteHandler", err, map[string]any{
			"user_id":    principal.UserID,
			"vehicle_id": vehicleID,
		})
		return
	}
	if favorites == nil {
		favorites = []string{}
	}

	message := "Removed from favorites"
	if added {
		message = "Added to favorites"
	}
	utils.JSONResponse(c, http.StatusOK, helpers.FavoritesResponse{Favorites: favorites}, message)
}
