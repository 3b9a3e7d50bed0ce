package helpers

import (
	"autobid/internal/models"
	"autobid/internal/vehicle"
)

type CreateVehicleRequest struct {
	Title             string                 `json:"title"`
	Category          models.VehicleCategory `json:"category"`
	Image             string                 `json:"image"`
	Description       string                 `json:"description"`
	NearestCity       string                 `json:"nearestCity"`
	YearOfManufacture string                 `json:"yearOfManufacture"`
	Mileage           string                 `json:"mileage"`
	FuelType          string                 `json:"fuelType"`
	TransmissionType  string                 `json:"transmissionType"`
	Negotiable        bool                   `json:"negotiable"`
	BasePrice         int64                  `json:"basePrice"`
	BiddingType       models.BiddingType     `json:"biddingType"`
	BiddingDuration   int                    `json:"biddingDuration"`
}

func (r CreateVehicleRequest) ToInput() vehicle.CreateInput {
	return vehicle.CreateInput{
		Title:             r.Title,
		Category:          r.Category,
		Image:             r.Image,
		Description:       r.Description,
		NearestCity:       r.NearestCity,
		YearOfManufacture: r.YearOfManufacture,
		Mileage:           r.Mileage,
		FuelType:          r.FuelType,
		TransmissionType:  r.TransmissionType,
		Negotiable:        r.Negotiable,
		BasePrice:         r.BasePrice,
		BiddingType:       r.BiddingType,
		BiddingDuration:   r.BiddingDuration,
	}
}

// UpdateVehicleRequest only carries descriptive fields; prices, owner and window cannot be sent
type UpdateVehicleRequest struct {
	Title             *string                 `json:"title"`
	Category          *models.VehicleCategory `json:"category"`
	Image             *string                 `json:"image"`
	Description       *string                 `json:"description"`
	NearestCity       *string                 `json:"nearestCity"`
	YearOfManufacture *string                 `json:"yearOfManufacture"`
	Mileage           *string                 `json:"mileage"`
	FuelType          *string                 `json:"fuelType"`
	TransmissionType  *string                 `json:"transmissionType"`
	Negotiable        *bool                   `json:"negotiable"`
}

func (r UpdateVehicleRequest) ToInput() vehicle.UpdateInput {
	return vehicle.UpdateInput{
		Title:             r.Title,
		Category:          r.Category,
		Image:             r.Image,
		Description:       r.Description,
		NearestCity:       r.NearestCity,
		YearOfManufacture: r.YearOfManufacture,
		Mileage:           r.Mileage,
		FuelType:          r.FuelType,
		TransmissionType:  r.TransmissionType,
		Negotiable:        r.Negotiable,
	}
}

type ListQuery struct {
	Category models.VehicleCategory `form:"category"`
	IsActive *bool                  `form:"isActive"`
	UserID   string                 `form:"userId"`
	Search   string                 `form:"search"`
	Sort     string                 `form:"sort"`
	Page     int                    `form:"page" binding:"omitempty,min=1"`
	Limit    int                    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q ListQuery) ToFilter() vehicle.Filter {
	return vehicle.Filter{
		Category: q.Category,
		IsActive: q.IsActive,
		OwnerID:  q.UserID,
		Search:   q.Search,
		Sort:     q.Sort,
		Page:     q.Page,
		Limit:    q.Limit,
	}
}

type VehicleResponse struct {
	Vehicle vehicle.View `json:"vehicle"`
}

type VehiclesResponse struct {
	Vehicles   []vehicle.View     `json:"vehicles"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}
