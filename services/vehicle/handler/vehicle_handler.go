package handler

import (
	"context"
	"net/http"

	"autobid/internal/auth"
	"autobid/internal/vehicle"
	"autobid/services/vehicle/helpers"
	"autobid/utils"

	"github.com/gin-gonic/gin"
)

type VehicleServiceInterface interface {
	Create(ctx context.Context, ownerID string, in vehicle.CreateInput) (vehicle.View, error)
	Get(ctx context.Context, vehicleID string) (vehicle.View, error)
	List(ctx context.Context, f vehicle.Filter) (vehicle.Page, error)
	ByOwner(ctx context.Context, ownerID string) ([]vehicle.View, error)
	Update(ctx context.Context, actorID, vehicleID string, in vehicle.UpdateInput) (vehicle.View, error)
	Delete(ctx context.Context, actorID, vehicleID string) error
}

type VehicleHandler struct {
	service VehicleServiceInterface
}

func NewVehicleHandler(service VehicleServiceInterface) *VehicleHandler {
	return &VehicleHandler{service: service}
}

// ListHandler handles GET /api/vehicles
func (h *VehicleHandler) ListHandler(c *gin.Context) {
	var q helpers.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleBindError(c, "ListHandler", err)
		return
	}

	page, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		utils.HandleServiceError(c, "ListHandler", err, nil)
		return
	}
	if page.Vehicles == nil {
		page.Vehicles = []vehicle.View{}
	}

	utils.JSONResponse(c, http.StatusOK, helpers.VehiclesResponse{Vehicles: page.Vehicles, Pagination: &page.Pagination}, "vehicles retrieved successfully")
}

// ByOwnerHandler handles GET /api/vehicles/user/:userId
func (h *VehicleHandler) ByOwnerHandler(c *gin.Context) {
	ownerID := c.Param("userId")
	views, err := h.service.ByOwner(c.Request.Context(), ownerID)
	if err != nil {
		utils.HandleServiceError(c, "ByOwnerHandler", err, map[string]any{"owner_id": ownerID})
		return
	}
	if views == nil {
		views = []vehicle.View{}
	}

	utils.JSONResponse(c, http.StatusOK, helpers.VehiclesResponse{Vehicles: views}, "vehicles retrieved successfully")
}

// GetHandler handles GET /api/vehicles/:id
func (h *VehicleHandler) GetHandler(c *gin.Context) {
	vehicleID := c.Param("id")
	view, err := h.service.Get(c.Request.Context(), vehicleID)
	if err != nil {
		utils.HandleServiceError(c, "GetHandler", err, map[string]any{"vehicle_id": vehicleID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.VehicleResponse{Vehicle: view}, "vehicle retrieved successfully")
}

// CreateHandler handles POST /api/vehicles
func (h *VehicleHandler) CreateHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	var req helpers.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleBindError(c, "CreateHandler", err)
		return
	}

	view, err := h.service.Create(c.Request.Context(), principal.UserID, req.ToInput())
	if err != nil {
		utils.HandleServiceError(c, "CreateHandler", err, map[string]any{"user_id": principal.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.VehicleResponse{Vehicle: view}, "Vehicle created successfully")
	utils.LogSuccess("CreateHandler", "vehicle created", map[string]any{
		"vehicle_id": view.ID,
		"user_id":    principal.UserID,
	})
}

// UpdateHandler handles PUT /api/vehicles/:id
func (h *VehicleHandler) UpdateHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	var req helpers.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleBindError(c, "UpdateHandler", err)
		return
	}

	vehicleID := c.Param("id")
	view, err := h.service.Update(c.Request.Context(), principal.UserID, vehicleID, req.ToInput())
	if err != nil {
		utils.HandleServiceError(c, "UpdateHandler", err, map[string]any{
			"vehicle_id": vehicleID,
			"user_id":    principal.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.VehicleResponse{Vehicle: view}, "Vehicle updated successfully")
}

// DeleteHandler handles DELETE /api/vehicles/:id
func (h *VehicleHandler) DeleteHandler(c *gin.Context) {
	principal, ok := auth.RequirePrincipal(c)
	if !ok {
		return
	}

	vehicleID := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), principal.UserID, vehicleID); err != nil {
		utils.HandleServiceError(c, "DeleteHandler", err, map[string]any{
			"vehicle_id": vehicleID,
			"user_id":    principal.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "Vehicle deleted successfully")
}
