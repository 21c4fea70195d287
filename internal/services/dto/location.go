package dto

import "ngo_connect_backend/internal/models"

// LocationRequest uses pointers so that 0 is accepted as a coordinate while
// a missing one still fails 'required'.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Address   string   `json:"address" validate:"max=255"`
	City      string   `json:"city" validate:"max=100"`
	State     string   `json:"state" validate:"max=100"`
	Country   string   `json:"country" validate:"max=100"`
}

func (l LocationRequest) ToModel() models.LocationData {
	loc := models.LocationData{
		Address: l.Address,
		City:    l.City,
		State:   l.State,
		Country: l.Country,
	}
	if l.Latitude != nil {
		loc.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		loc.Longitude = *l.Longitude
	}
	return loc
}
