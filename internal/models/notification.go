package models

import (
	"time"
)

// Notification is one NGO being told about one post. It is created only by
// the match-and-notify pipeline and afterwards changes only through status
// updates. Version backs the optimistic lock on those updates.
type Notification struct {
	ID              string             `gorm:"primaryKey;size:191" json:"id"`
	PostID          string             `gorm:"column:post_id;not null;index;size:64" json:"postId"`
	NGOID           string             `gorm:"column:ngo_id;not null;index;size:64" json:"ngoId"`
	NGOName         string             `gorm:"column:ngo_name" json:"ngoName"`
	NGOLogo         string             `gorm:"column:ngo_logo" json:"ngoLogo"`
	Message         string             `json:"message"`
	DistanceKm      float64            `gorm:"column:distance_km" json:"distanceKm"`
	Priority        int                `gorm:"column:priority" json:"priority"` // 1-based position in the ranked dispatch
	Timestamp       time.Time          `gorm:"not null;index" json:"timestamp"`
	Status          NotificationStatus `gorm:"not null;size:16" json:"status"`
	ResponseType    *ResponseType      `gorm:"size:32" json:"responseType,omitempty"`
	ResponseMessage *string            `json:"responseMessage,omitempty"`
	ReadAt          *time.Time         `json:"readAt,omitempty"`
	RespondedAt     *time.Time         `json:"respondedAt,omitempty"`
	Version         int                `gorm:"not null" json:"-"`
	UpdatedAt       time.Time          `json:"-"`
}
