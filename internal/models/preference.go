package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// NotificationPreference is what a user wants to hear about and how.
type NotificationPreference struct {
	UserID             string         `gorm:"primaryKey;size:64" json:"userId"`
	PushNotifications  bool           `json:"pushNotifications"`
	EmailNotifications bool           `json:"emailNotifications"`
	SMSNotifications   bool           `gorm:"column:sms_notifications" json:"smsNotifications"`
	Categories         datatypes.JSON `json:"categories"`
	RadiusKm           float64        `gorm:"column:radius_km" json:"radius"`
	CreatedAt          time.Time      `json:"-"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

func (p *NotificationPreference) GetCategories() []string {
	categories := []string{}
	if len(p.Categories) > 0 {
		_ = json.Unmarshal(p.Categories, &categories)
	}
	return categories
}

func (p *NotificationPreference) SetCategories(categories []string) {
	if categories == nil {
		categories = []string{}
	}
	data, _ := json.Marshal(categories)
	p.Categories = datatypes.JSON(data)
}
