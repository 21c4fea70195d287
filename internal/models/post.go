package models

import (
	"time"

	"gorm.io/datatypes"
)

type PostMedia struct {
	Type      string `json:"type"` // image | video
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Post is a reported local issue.
type Post struct {
	BaseModel
	UserID       string                        `gorm:"index;size:64" json:"userId,omitempty"`
	Title        string                        `json:"title"`
	Description  string                        `gorm:"not null" json:"description"`
	Category     string                        `gorm:"not null;index;size:64" json:"category"`
	Media        datatypes.JSONType[PostMedia] `json:"media"`
	Location     LocationData                  `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Timestamp    time.Time                     `gorm:"not null" json:"timestamp"`
	Status       PostStatus                    `gorm:"not null;size:16" json:"status"`
	XPEarned     int                           `gorm:"column:xp_earned" json:"xpEarned"`
	NGOResponses int                           `gorm:"column:ngo_responses" json:"ngoResponses"`
	Verified     bool                          `json:"verified"`
}
