package models

import (
	"encoding/json"
	"slices"

	"gorm.io/datatypes"
)

type NGOContact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// NGO is a candidate responder. The catalog is maintained outside this
// service; a match request treats every NGO as read-only.
type NGO struct {
	BaseModel
	Name         string         `gorm:"not null" json:"name"`
	Logo         string         `json:"logo"`
	Description  string         `json:"description"`
	Categories   datatypes.JSON `json:"categories"` // ["animal-health", "environment"]
	Location     LocationData   `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Contact      NGOContact     `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	Verified     bool           `json:"verified"`
	Rating       float64        `json:"rating"`
	ResponseTime float64        `gorm:"column:response_time_hours" json:"responseTime"` // hours
	Active       bool           `gorm:"index" json:"active"`
}

func (NGO) TableName() string {
	return "ngos"
}

func (n *NGO) GetCategories() []string {
	var categories []string
	if len(n.Categories) > 0 {
		_ = json.Unmarshal(n.Categories, &categories)
	}
	return categories
}

func (n *NGO) SetCategories(categories []string) {
	if categories == nil {
		categories = []string{}
	}
	data, _ := json.Marshal(categories)
	n.Categories = datatypes.JSON(data)
}

// Serves reports whether category is one of the NGO's tags. Matching is exact.
func (n *NGO) Serves(category string) bool {
	return slices.Contains(n.GetCategories(), category)
}
