package models

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationData is a point plus free-text address parts. The text is not
// normalized.
type LocationData struct {
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	Address   string  `json:"address"`
	City      string  `gorm:"index" json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
}

func (l LocationData) Point() GeoPoint {
	return GeoPoint{Latitude: l.Latitude, Longitude: l.Longitude}
}
