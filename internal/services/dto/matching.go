package dto

import "ngo_connect_backend/internal/models"

type NearbyNGOsQuery struct {
	Latitude  *float64 `form:"lat" validate:"required,latitude"`
	Longitude *float64 `form:"lon" validate:"required,longitude"`
	Category  string   `form:"category" validate:"required,is-category"`
	RadiusKm  float64  `form:"radius_km" validate:"omitempty,gt=0,lte=20000"`
}

type ListNGOsQuery struct {
	Category string `form:"category" validate:"omitempty,is-category"`
}

// NearbyNGO is a catalog entry with its distance from the query point.
type NearbyNGO struct {
	models.NGO
	DistanceKm float64 `json:"distanceKm"`
}

type NearbyNGOsResponse struct {
	NGOs     []NearbyNGO `json:"ngos"`
	Total    int         `json:"total"`
	RadiusKm float64     `json:"radiusKm"`
}

type NotifyResponse struct {
	PostID        string                `json:"postId"`
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
}

type NGOStats struct {
	NGOID               string  `json:"ngoId"`
	TotalRequests       int64   `json:"totalRequests"`
	RespondedRequests   int64   `json:"respondedRequests"`
	CompletedRequests   int64   `json:"completedRequests"`
	AverageResponseTime float64 `json:"averageResponseTime"` // hours
	Rating              float64 `json:"rating"`
}
